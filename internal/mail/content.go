// Package mail renders and delivers the emails the backend sends: login
// links, account deletion confirmations and event reminders.
//
// The backend only describes what to send (a Content value). Rendering to
// HTML and delivery happen outside the processing loop, and the outcome is
// reported back to it.
package mail

import (
	"context"
	"time"

	"github.com/forgo/gather/internal/model"
)

// Kind identifies the purpose of an email
type Kind string

const (
	KindLogin         Kind = "login"
	KindDeleteAccount Kind = "delete_account"
	KindEventReminder Kind = "event_reminder"
)

// Content describes an email before rendering
type Content interface {
	Kind() Kind
}

// LoginLink carries a single-use login token. JoinGroupID and JoinEventID,
// when set, make the link join that event after logging in.
type LoginLink struct {
	Token       string
	JoinGroupID model.GroupID
	JoinEventID *model.EventID
	ExpiresIn   time.Duration
}

// DeleteConfirmation carries a single-use account deletion token
type DeleteConfirmation struct {
	Token     string
	UserName  string
	ExpiresIn time.Duration
}

// EventReminder announces an event starting within a day
type EventReminder struct {
	GroupID     model.GroupID
	GroupName   string
	EventID     model.EventID
	EventName   string
	StartTime   time.Time
	Duration    time.Duration
	Timezone    string
	MeetingLink string
	Address     string
}

func (LoginLink) Kind() Kind          { return KindLogin }
func (DeleteConfirmation) Kind() Kind { return KindDeleteAccount }
func (EventReminder) Kind() Kind      { return KindEventReminder }

// Message is a rendered email
type Message struct {
	To       model.EmailAddress
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers rendered messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
