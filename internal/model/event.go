package model

import (
	"encoding/json"
	"sort"
	"time"
)

// EventKind says where an event takes place
type EventKind string

const (
	EventKindOnline   EventKind = "online"
	EventKindInPerson EventKind = "in_person"
)

// EventType carries the kind plus the optional meeting link or address
type EventType struct {
	Kind        EventKind `json:"kind"`
	MeetingLink string    `json:"meeting_link,omitempty"` // online only
	Address     string    `json:"address,omitempty"`      // in_person only
}

// Cancellation marks an event as cancelled. A nil *Cancellation means active.
type Cancellation struct {
	CancelledOn time.Time `json:"cancelled_on"`
	Reason      string    `json:"reason,omitempty"`
}

// Event represents a scheduled gathering inside a group
type Event struct {
	ID              EventID       `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Type            EventType     `json:"type"`
	StartTime       time.Time     `json:"start_time"`
	DurationMinutes int           `json:"duration_minutes"`
	CreatedOn       time.Time     `json:"created_on"`
	MaxAttendees    *int          `json:"max_attendees,omitempty"` // nil = no cap
	Cancellation    *Cancellation `json:"cancellation,omitempty"`
	Attendees       AttendeeSet   `json:"attendees"`
}

// Business constraints
const (
	MaxEventsPerGroup = 1000

	// EditLockWindow is how close to its start an event stops being editable
	EditLockWindow = time.Hour

	// ReminderWindow is how long before the start reminders go out
	ReminderWindow = 24 * time.Hour
)

// Duration returns the event length
func (e Event) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// EndTime returns the exclusive end of the event interval
func (e Event) EndTime() time.Time {
	return e.StartTime.Add(e.Duration())
}

// IsCancelled reports whether the event has been cancelled
func (e Event) IsCancelled() bool {
	return e.Cancellation != nil
}

// HasStarted reports whether now is at or past the start time
func (e Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartTime)
}

// IsFull reports whether the attendee cap is reached
func (e Event) IsFull() bool {
	return e.MaxAttendees != nil && len(e.Attendees) >= *e.MaxAttendees
}

// Overlaps reports whether the half-open intervals [start, end) intersect
func (e Event) Overlaps(other Event) bool {
	return e.StartTime.Before(other.EndTime()) && other.StartTime.Before(e.EndTime())
}

// clone returns a copy that shares no mutable state with e
func (e Event) clone() Event {
	out := e
	out.Attendees = e.Attendees.clone()
	if e.MaxAttendees != nil {
		limit := *e.MaxAttendees
		out.MaxAttendees = &limit
	}
	if e.Cancellation != nil {
		c := *e.Cancellation
		out.Cancellation = &c
	}
	return out
}

// AttendeeSet is the set of users attending an event.
// It serialises as a sorted list of user ids.
type AttendeeSet map[UserID]struct{}

// NewAttendeeSet builds a set from the given ids
func NewAttendeeSet(ids ...UserID) AttendeeSet {
	set := make(AttendeeSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports membership
func (s AttendeeSet) Contains(id UserID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in a stable order
func (s AttendeeSet) Sorted() []UserID {
	out := make([]UserID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s AttendeeSet) clone() AttendeeSet {
	out := make(AttendeeSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// MarshalJSON implements json.Marshaler
func (s AttendeeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON implements json.Unmarshaler
func (s *AttendeeSet) UnmarshalJSON(data []byte) error {
	var ids []UserID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewAttendeeSet(ids...)
	return nil
}
