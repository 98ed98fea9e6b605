package protocol

import (
	"time"

	"github.com/forgo/gather/internal/model"
)

const timeLayout = time.RFC3339

// ToFrontend is a message sent to a client connection
type ToFrontend interface {
	Kind() string
	toFrontend()
}

// Result carries either a value or a domain error
type Result[T any] struct {
	Ok  *T     `json:"ok,omitempty"`
	Err *Error `json:"error,omitempty"`
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{Ok: &v}
}

// Fail wraps a domain error
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: FromError(err)}
}

// IsOk reports whether the result holds a value
func (r Result[T]) IsOk() bool {
	return r.Err == nil
}

// ============================================================================
// Views
// ============================================================================

// PublicUser is what anybody may see about a user
type PublicUser struct {
	ID           model.UserID       `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	ProfileImage model.ProfileImage `json:"profile_image"`
	CreatedOn    time.Time          `json:"created_on"`
}

// PrivateUser is what a user sees about their own account
type PrivateUser struct {
	PublicUser
	Email              model.EmailAddress `json:"email"`
	Timezone           string             `json:"timezone"`
	EmailNotifications bool               `json:"email_notifications"`
	IsAdmin            bool               `json:"is_admin"`
}

// NewPublicUser builds the public view of u
func NewPublicUser(u model.User) PublicUser {
	return PublicUser{
		ID:           u.ID,
		Name:         u.Name,
		Description:  u.Description,
		ProfileImage: u.ProfileImage,
		CreatedOn:    u.CreatedOn,
	}
}

// NewPrivateUser builds the self view of u
func NewPrivateUser(u model.User, isAdmin bool) PrivateUser {
	return PrivateUser{
		PublicUser:         NewPublicUser(u),
		Email:              u.Email,
		Timezone:           u.Timezone,
		EmailNotifications: u.EmailNotifications,
		IsAdmin:            isAdmin,
	}
}

// GroupSummary is one row of a group listing
type GroupSummary struct {
	ID             model.GroupID    `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Visibility     model.Visibility `json:"visibility"`
	OwnerID        model.UserID     `json:"owner_id"`
	UpcomingEvents int              `json:"upcoming_events"`
	Owned          bool             `json:"owned,omitempty"`
}

// GroupView is a full group with its events and the users they reference
type GroupView struct {
	ID          model.GroupID    `json:"id"`
	OwnerID     model.UserID     `json:"owner_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Visibility  model.Visibility `json:"visibility"`
	CreatedOn   time.Time        `json:"created_on"`
	Events      []model.Event    `json:"events"`
	Members     []PublicUser     `json:"members"`
}

// NewGroupSummary summarises g relative to now
func NewGroupSummary(g model.Group, now time.Time, owned bool) GroupSummary {
	upcoming := 0
	for _, e := range g.Events {
		if !e.IsCancelled() && !e.HasStarted(now) {
			upcoming++
		}
	}
	return GroupSummary{
		ID:             g.ID,
		Name:           g.Name,
		Description:    g.Description,
		Visibility:     g.Visibility,
		OwnerID:        g.OwnerID,
		UpcomingEvents: upcoming,
		Owned:          owned,
	}
}

// NewGroupView renders g. lookup resolves owner and attendee ids; unknown
// ids are skipped.
func NewGroupView(g model.Group, lookup func(model.UserID) (model.User, bool)) GroupView {
	seen := map[model.UserID]bool{}
	var members []PublicUser
	add := func(id model.UserID) {
		if seen[id] {
			return
		}
		seen[id] = true
		if u, ok := lookup(id); ok {
			members = append(members, NewPublicUser(u))
		}
	}

	events := g.SortedEvents()
	add(g.OwnerID)
	for _, e := range events {
		for _, id := range e.Attendees.Sorted() {
			add(id)
		}
	}

	return GroupView{
		ID:          g.ID,
		OwnerID:     g.OwnerID,
		Name:        g.Name,
		Description: g.Description,
		Visibility:  g.Visibility,
		CreatedOn:   g.CreatedOn,
		Events:      events,
		Members:     members,
	}
}

// ============================================================================
// Responses
// ============================================================================

type GetGroupResponse struct {
	GroupID model.GroupID     `json:"group_id"`
	Result  Result[GroupView] `json:"result"`
}

type GetUserResponse struct {
	UserID model.UserID       `json:"user_id"`
	Result Result[PublicUser] `json:"result"`
}

// CheckLoginResponse carries the logged-in user, or nil for anonymous
type CheckLoginResponse struct {
	User *PrivateUser `json:"user"`
}

// LoginWithTokenResponse goes to every connection of the session. JoinEvent
// reports the outcome of the join carried by the token, if there was one.
type LoginWithTokenResponse struct {
	Result    Result[PrivateUser] `json:"result"`
	JoinEvent *JoinEventResponse  `json:"join_event,omitempty"`
}

// GetLoginEmailResponse acknowledges that a login email was queued
type GetLoginEmailResponse struct {
	Email model.EmailAddress `json:"email"`
}

type LogoutResponse struct{}

type SearchGroupsResponse struct {
	Text   string         `json:"text"`
	Groups []GroupSummary `json:"groups"`
}

type CreateGroupResponse struct {
	Name   string            `json:"name"`
	Result Result[GroupView] `json:"result"`
}

type ChangeNameResponse struct {
	UserID model.UserID `json:"user_id"`
	Name   string       `json:"name"`
}

type ChangeDescriptionResponse struct {
	UserID      model.UserID `json:"user_id"`
	Description string       `json:"description"`
}

type ChangeEmailResponse struct {
	UserID model.UserID               `json:"user_id"`
	Result Result[model.EmailAddress] `json:"result"`
}

type ChangeProfileImageResponse struct {
	UserID       model.UserID       `json:"user_id"`
	ProfileImage model.ProfileImage `json:"profile_image"`
}

type ChangeTimezoneResponse struct {
	UserID   model.UserID `json:"user_id"`
	Timezone string       `json:"timezone"`
}

type ChangeEmailNotificationsResponse struct {
	UserID  model.UserID `json:"user_id"`
	Enabled bool         `json:"enabled"`
}

// GetDeleteUserEmailResponse acknowledges that a confirmation email was queued
type GetDeleteUserEmailResponse struct {
	UserID model.UserID `json:"user_id"`
}

type DeleteUserResponse struct {
	Result Result[model.UserID] `json:"result"`
}

type GetMyGroupsResponse struct {
	UserID model.UserID   `json:"user_id"`
	Groups []GroupSummary `json:"groups"`
}

type ChangeGroupNameResponse struct {
	GroupID model.GroupID  `json:"group_id"`
	Result  Result[string] `json:"result"`
}

type ChangeGroupDescriptionResponse struct {
	GroupID     model.GroupID `json:"group_id"`
	Description string        `json:"description"`
}

type ChangeGroupVisibilityResponse struct {
	GroupID    model.GroupID    `json:"group_id"`
	Visibility model.Visibility `json:"visibility"`
}

type CreateEventResponse struct {
	GroupID model.GroupID       `json:"group_id"`
	Result  Result[model.Event] `json:"result"`
}

type EditEventResponse struct {
	GroupID model.GroupID       `json:"group_id"`
	EventID model.EventID       `json:"event_id"`
	Result  Result[model.Event] `json:"result"`
}

type JoinEventResponse struct {
	GroupID model.GroupID       `json:"group_id"`
	EventID model.EventID       `json:"event_id"`
	Result  Result[model.Event] `json:"result"`
}

type LeaveEventResponse struct {
	GroupID model.GroupID       `json:"group_id"`
	EventID model.EventID       `json:"event_id"`
	Result  Result[model.Event] `json:"result"`
}

type ChangeEventCancellationStatusResponse struct {
	GroupID model.GroupID       `json:"group_id"`
	EventID model.EventID       `json:"event_id"`
	Result  Result[model.Event] `json:"result"`
}

type AdminDeleteGroupResponse struct {
	GroupID model.GroupID         `json:"group_id"`
	Result  Result[model.GroupID] `json:"result"`
}

type AdminGetLogsResponse struct {
	Entries []model.LogEntry `json:"entries"`
}

func (GetGroupResponse) Kind() string                      { return "GetGroupResponse" }
func (GetUserResponse) Kind() string                       { return "GetUserResponse" }
func (CheckLoginResponse) Kind() string                    { return "CheckLoginResponse" }
func (LoginWithTokenResponse) Kind() string                { return "LoginWithTokenResponse" }
func (GetLoginEmailResponse) Kind() string                 { return "GetLoginEmailResponse" }
func (LogoutResponse) Kind() string                        { return "LogoutResponse" }
func (SearchGroupsResponse) Kind() string                  { return "SearchGroupsResponse" }
func (CreateGroupResponse) Kind() string                   { return "CreateGroupResponse" }
func (ChangeNameResponse) Kind() string                    { return "ChangeNameResponse" }
func (ChangeDescriptionResponse) Kind() string             { return "ChangeDescriptionResponse" }
func (ChangeEmailResponse) Kind() string                   { return "ChangeEmailResponse" }
func (ChangeProfileImageResponse) Kind() string            { return "ChangeProfileImageResponse" }
func (ChangeTimezoneResponse) Kind() string                { return "ChangeTimezoneResponse" }
func (ChangeEmailNotificationsResponse) Kind() string      { return "ChangeEmailNotificationsResponse" }
func (GetDeleteUserEmailResponse) Kind() string            { return "GetDeleteUserEmailResponse" }
func (DeleteUserResponse) Kind() string                    { return "DeleteUserResponse" }
func (GetMyGroupsResponse) Kind() string                   { return "GetMyGroupsResponse" }
func (ChangeGroupNameResponse) Kind() string               { return "ChangeGroupNameResponse" }
func (ChangeGroupDescriptionResponse) Kind() string        { return "ChangeGroupDescriptionResponse" }
func (ChangeGroupVisibilityResponse) Kind() string         { return "ChangeGroupVisibilityResponse" }
func (CreateEventResponse) Kind() string                   { return "CreateEventResponse" }
func (EditEventResponse) Kind() string                     { return "EditEventResponse" }
func (JoinEventResponse) Kind() string                     { return "JoinEventResponse" }
func (LeaveEventResponse) Kind() string                    { return "LeaveEventResponse" }
func (ChangeEventCancellationStatusResponse) Kind() string { return "ChangeEventCancellationStatusResponse" }
func (AdminDeleteGroupResponse) Kind() string              { return "AdminDeleteGroupResponse" }
func (AdminGetLogsResponse) Kind() string                  { return "AdminGetLogsResponse" }

func (GetGroupResponse) toFrontend()                      {}
func (GetUserResponse) toFrontend()                       {}
func (CheckLoginResponse) toFrontend()                    {}
func (LoginWithTokenResponse) toFrontend()                {}
func (GetLoginEmailResponse) toFrontend()                 {}
func (LogoutResponse) toFrontend()                        {}
func (SearchGroupsResponse) toFrontend()                  {}
func (CreateGroupResponse) toFrontend()                   {}
func (ChangeNameResponse) toFrontend()                    {}
func (ChangeDescriptionResponse) toFrontend()             {}
func (ChangeEmailResponse) toFrontend()                   {}
func (ChangeProfileImageResponse) toFrontend()            {}
func (ChangeTimezoneResponse) toFrontend()                {}
func (ChangeEmailNotificationsResponse) toFrontend()      {}
func (GetDeleteUserEmailResponse) toFrontend()            {}
func (DeleteUserResponse) toFrontend()                    {}
func (GetMyGroupsResponse) toFrontend()                   {}
func (ChangeGroupNameResponse) toFrontend()               {}
func (ChangeGroupDescriptionResponse) toFrontend()        {}
func (ChangeGroupVisibilityResponse) toFrontend()         {}
func (CreateEventResponse) toFrontend()                   {}
func (EditEventResponse) toFrontend()                     {}
func (JoinEventResponse) toFrontend()                     {}
func (LeaveEventResponse) toFrontend()                    {}
func (ChangeEventCancellationStatusResponse) toFrontend() {}
func (AdminDeleteGroupResponse) toFrontend()              {}
func (AdminGetLogsResponse) toFrontend()                  {}
