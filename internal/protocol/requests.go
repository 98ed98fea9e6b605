package protocol

import (
	"encoding/json"

	"github.com/forgo/gather/internal/model"
)

// ToBackend is a request sent by a client
type ToBackend interface {
	Kind() string
	toBackend()
}

// EventRef points at one event of one group
type EventRef struct {
	GroupID model.GroupID `json:"group_id"`
	EventID model.EventID `json:"event_id"`
}

// ===== Anonymous-ok requests =====

type GetGroup struct {
	GroupID model.GroupID `json:"group_id"`
}

type GetUser struct {
	UserID model.UserID `json:"user_id"`
}

type CheckLogin struct{}

// LoginWithToken consumes a login token. JoinEvent, when set, is joined
// right after a successful login.
type LoginWithToken struct {
	Token     string    `json:"token"`
	JoinEvent *EventRef `json:"join_event,omitempty"`
}

// GetLoginEmail asks for a login link. JoinEvent is carried by the token so
// the event is joined once the link is used.
type GetLoginEmail struct {
	Email     string    `json:"email"`
	JoinEvent *EventRef `json:"join_event,omitempty"`
}

type SearchGroups struct {
	Text string `json:"text"`
}

// DeleteUser confirms account deletion with the emailed token. The token is
// the credential, so no login is needed.
type DeleteUser struct {
	Token string `json:"token"`
}

// ===== User-only requests =====

type Logout struct{}

type CreateGroup struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
}

type ChangeName struct {
	Name string `json:"name"`
}

type ChangeDescription struct {
	Description string `json:"description"`
}

type ChangeEmail struct {
	Email string `json:"email"`
}

type ChangeProfileImage struct {
	ProfileImage string `json:"profile_image"`
}

type ChangeTimezone struct {
	Timezone string `json:"timezone"`
}

type ChangeEmailNotifications struct {
	Enabled bool `json:"enabled"`
}

type GetDeleteUserEmail struct{}

type GetMyGroups struct{}

type JoinEvent struct {
	GroupID model.GroupID `json:"group_id"`
	EventID model.EventID `json:"event_id"`
}

type LeaveEvent struct {
	GroupID model.GroupID `json:"group_id"`
	EventID model.EventID `json:"event_id"`
}

// ===== Owner-or-admin requests =====

type ChangeGroupName struct {
	GroupID model.GroupID `json:"group_id"`
	Name    string        `json:"name"`
}

type ChangeGroupDescription struct {
	GroupID     model.GroupID `json:"group_id"`
	Description string        `json:"description"`
}

type ChangeGroupVisibility struct {
	GroupID    model.GroupID `json:"group_id"`
	Visibility string        `json:"visibility"`
}

type CreateEvent struct {
	GroupID model.GroupID    `json:"group_id"`
	Event   model.EventInput `json:"event"`
}

type EditEvent struct {
	GroupID model.GroupID    `json:"group_id"`
	EventID model.EventID    `json:"event_id"`
	Event   model.EventInput `json:"event"`
}

// ChangeEventCancellationStatus cancels (Cancel true) or restores an event
type ChangeEventCancellationStatus struct {
	GroupID model.GroupID `json:"group_id"`
	EventID model.EventID `json:"event_id"`
	Cancel  bool          `json:"cancel"`
	Reason  string        `json:"reason,omitempty"`
}

// ===== Admin-only requests =====

type AdminDeleteGroup struct {
	GroupID model.GroupID `json:"group_id"`
}

type AdminGetLogs struct{}

func (GetGroup) Kind() string                      { return "GetGroup" }
func (GetUser) Kind() string                       { return "GetUser" }
func (CheckLogin) Kind() string                    { return "CheckLogin" }
func (LoginWithToken) Kind() string                { return "LoginWithToken" }
func (GetLoginEmail) Kind() string                 { return "GetLoginEmail" }
func (SearchGroups) Kind() string                  { return "SearchGroups" }
func (DeleteUser) Kind() string                    { return "DeleteUser" }
func (Logout) Kind() string                        { return "Logout" }
func (CreateGroup) Kind() string                   { return "CreateGroup" }
func (ChangeName) Kind() string                    { return "ChangeName" }
func (ChangeDescription) Kind() string             { return "ChangeDescription" }
func (ChangeEmail) Kind() string                   { return "ChangeEmail" }
func (ChangeProfileImage) Kind() string            { return "ChangeProfileImage" }
func (ChangeTimezone) Kind() string                { return "ChangeTimezone" }
func (ChangeEmailNotifications) Kind() string      { return "ChangeEmailNotifications" }
func (GetDeleteUserEmail) Kind() string            { return "GetDeleteUserEmail" }
func (GetMyGroups) Kind() string                   { return "GetMyGroups" }
func (JoinEvent) Kind() string                     { return "JoinEvent" }
func (LeaveEvent) Kind() string                    { return "LeaveEvent" }
func (ChangeGroupName) Kind() string               { return "ChangeGroupName" }
func (ChangeGroupDescription) Kind() string        { return "ChangeGroupDescription" }
func (ChangeGroupVisibility) Kind() string         { return "ChangeGroupVisibility" }
func (CreateEvent) Kind() string                   { return "CreateEvent" }
func (EditEvent) Kind() string                     { return "EditEvent" }
func (ChangeEventCancellationStatus) Kind() string { return "ChangeEventCancellationStatus" }
func (AdminDeleteGroup) Kind() string              { return "AdminDeleteGroup" }
func (AdminGetLogs) Kind() string                  { return "AdminGetLogs" }

func (GetGroup) toBackend()                      {}
func (GetUser) toBackend()                       {}
func (CheckLogin) toBackend()                    {}
func (LoginWithToken) toBackend()                {}
func (GetLoginEmail) toBackend()                 {}
func (SearchGroups) toBackend()                  {}
func (DeleteUser) toBackend()                    {}
func (Logout) toBackend()                        {}
func (CreateGroup) toBackend()                   {}
func (ChangeName) toBackend()                    {}
func (ChangeDescription) toBackend()             {}
func (ChangeEmail) toBackend()                   {}
func (ChangeProfileImage) toBackend()            {}
func (ChangeTimezone) toBackend()                {}
func (ChangeEmailNotifications) toBackend()      {}
func (GetDeleteUserEmail) toBackend()            {}
func (GetMyGroups) toBackend()                   {}
func (JoinEvent) toBackend()                     {}
func (LeaveEvent) toBackend()                    {}
func (ChangeGroupName) toBackend()               {}
func (ChangeGroupDescription) toBackend()        {}
func (ChangeGroupVisibility) toBackend()         {}
func (CreateEvent) toBackend()                   {}
func (EditEvent) toBackend()                     {}
func (ChangeEventCancellationStatus) toBackend() {}
func (AdminDeleteGroup) toBackend()              {}
func (AdminGetLogs) toBackend()                  {}

// requestTypes maps wire tags to decoders of the concrete request type
var requestTypes = map[string]func(json.RawMessage) (ToBackend, error){
	"GetGroup":                      decodeAs[GetGroup],
	"GetUser":                       decodeAs[GetUser],
	"CheckLogin":                    decodeAs[CheckLogin],
	"LoginWithToken":                decodeAs[LoginWithToken],
	"GetLoginEmail":                 decodeAs[GetLoginEmail],
	"SearchGroups":                  decodeAs[SearchGroups],
	"DeleteUser":                    decodeAs[DeleteUser],
	"Logout":                        decodeAs[Logout],
	"CreateGroup":                   decodeAs[CreateGroup],
	"ChangeName":                    decodeAs[ChangeName],
	"ChangeDescription":             decodeAs[ChangeDescription],
	"ChangeEmail":                   decodeAs[ChangeEmail],
	"ChangeProfileImage":            decodeAs[ChangeProfileImage],
	"ChangeTimezone":                decodeAs[ChangeTimezone],
	"ChangeEmailNotifications":      decodeAs[ChangeEmailNotifications],
	"GetDeleteUserEmail":            decodeAs[GetDeleteUserEmail],
	"GetMyGroups":                   decodeAs[GetMyGroups],
	"JoinEvent":                     decodeAs[JoinEvent],
	"LeaveEvent":                    decodeAs[LeaveEvent],
	"ChangeGroupName":               decodeAs[ChangeGroupName],
	"ChangeGroupDescription":        decodeAs[ChangeGroupDescription],
	"ChangeGroupVisibility":         decodeAs[ChangeGroupVisibility],
	"CreateEvent":                   decodeAs[CreateEvent],
	"EditEvent":                     decodeAs[EditEvent],
	"ChangeEventCancellationStatus": decodeAs[ChangeEventCancellationStatus],
	"AdminDeleteGroup":              decodeAs[AdminDeleteGroup],
	"AdminGetLogs":                  decodeAs[AdminGetLogs],
}

// RequestKinds lists every request tag Decode understands
func RequestKinds() []string {
	kinds := make([]string, 0, len(requestTypes))
	for k := range requestTypes {
		kinds = append(kinds, k)
	}
	return kinds
}
