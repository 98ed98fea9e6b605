package fixtures

import (
	"time"

	"github.com/forgo/gather/internal/model"
)

// Epoch is the fixed "now" fixtures are built around
var Epoch = time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)

// ============================================================================
// Users
// ============================================================================

// UserOpt customizes a user
type UserOpt func(*model.User)

// WithName sets the display name
func WithName(name string) UserOpt {
	return func(u *model.User) { u.Name = name }
}

// WithTimezone sets the IANA timezone
func WithTimezone(tz string) UserOpt {
	return func(u *model.User) { u.Timezone = tz }
}

// WithoutReminders opts the user out of reminder emails
func WithoutReminders() UserOpt {
	return func(u *model.User) { u.EmailNotifications = false }
}

// User returns a user created at Epoch
func User(id model.UserID, email string, opts ...UserOpt) model.User {
	u := model.NewUser(id, model.EmailAddress(email), Epoch)
	u.EmailNotifications = true
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

// ============================================================================
// Events
// ============================================================================

// EventOpt customizes an event
type EventOpt func(*model.Event)

// Online makes the event online with the given meeting link
func Online(link string) EventOpt {
	return func(e *model.Event) { e.Type = model.EventType{Kind: model.EventKindOnline, MeetingLink: link} }
}

// At sets the in-person address
func At(address string) EventOpt {
	return func(e *model.Event) { e.Type = model.EventType{Kind: model.EventKindInPerson, Address: address} }
}

// Capped limits attendance
func Capped(n int) EventOpt {
	return func(e *model.Event) { e.MaxAttendees = &n }
}

// Attended adds attendees
func Attended(ids ...model.UserID) EventOpt {
	return func(e *model.Event) {
		for _, id := range ids {
			e.Attendees[id] = struct{}{}
		}
	}
}

// Cancelled marks the event cancelled at Epoch
func Cancelled(reason string) EventOpt {
	return func(e *model.Event) { e.Cancellation = &model.Cancellation{CancelledOn: Epoch, Reason: reason} }
}

// Described sets the description
func Described(text string) EventOpt {
	return func(e *model.Event) { e.Description = text }
}

// Event returns an in-person event starting at start. The ID is assigned
// when the event is added to a group.
func Event(name string, start time.Time, minutes int, opts ...EventOpt) model.Event {
	e := model.Event{
		Name:            name,
		Type:            model.EventType{Kind: model.EventKindInPerson},
		StartTime:       start,
		DurationMinutes: minutes,
		CreatedOn:       Epoch,
		Attendees:       model.NewAttendeeSet(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// ============================================================================
// Groups
// ============================================================================

// Group returns a public group holding events with sequential ids. Events
// are stored as given, without overlap checks, so fixtures can describe
// states the domain rules would reject.
func Group(id model.GroupID, owner model.UserID, name string, events ...model.Event) model.Group {
	g := model.NewGroup(id, owner, name, "", model.VisibilityPublic, Epoch)
	for _, e := range events {
		e.ID = g.NextEventID
		g.Events[e.ID] = e
		g.NextEventID++
	}
	return g
}
