package model

import (
	"sort"
	"time"
)

// Visibility controls whether a group shows up in search
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
)

// Group owns its metadata and its events. Group values are never mutated in
// place: every operation below returns a fresh copy.
type Group struct {
	ID          GroupID           `json:"id"`
	OwnerID     UserID            `json:"owner_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Visibility  Visibility        `json:"visibility"`
	Events      map[EventID]Event `json:"events"`
	NextEventID EventID           `json:"next_event_id"`
	CreatedOn   time.Time         `json:"created_on"`
}

// NewGroup creates an empty group
func NewGroup(id GroupID, owner UserID, name, description string, visibility Visibility, now time.Time) Group {
	return Group{
		ID:          id,
		OwnerID:     owner,
		Name:        name,
		Description: description,
		Visibility:  visibility,
		Events:      make(map[EventID]Event),
		CreatedOn:   now,
	}
}

// Clone returns a deep copy of the group
func (g Group) Clone() Group {
	out := g
	out.Events = make(map[EventID]Event, len(g.Events))
	for id, e := range g.Events {
		out.Events[id] = e.clone()
	}
	return out
}

// Event looks up an event by id
func (g Group) Event(id EventID) (Event, bool) {
	e, ok := g.Events[id]
	return e, ok
}

// SortedEvents returns the events ordered by start time, then id
func (g Group) SortedEvents() []Event {
	out := make([]Event, 0, len(g.Events))
	for _, e := range g.Events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// HasAttendee reports whether the user attends any event of the group
func (g Group) HasAttendee(userID UserID) bool {
	for _, e := range g.Events {
		if e.Attendees.Contains(userID) {
			return true
		}
	}
	return false
}

// TotalEvents returns the number of events, cancelled ones included
func TotalEvents(g Group) int {
	return len(g.Events)
}

// overlapping returns the events whose interval intersects candidate,
// skipping the event with id skip (pass a negative id to skip nothing).
// Cancelled events still occupy their slot.
func overlapping(candidate Event, g Group, skip EventID) []Event {
	var conflicts []Event
	for _, e := range g.SortedEvents() {
		if e.ID == skip {
			continue
		}
		if candidate.Overlaps(e) {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}

// AddEvent appends event to the group under the next free event id.
// It returns ErrTooManyEvents once the group holds MaxEventsPerGroup events
// and an *OverlapError listing every clashing event otherwise.
func AddEvent(event Event, g Group) (Group, EventID, error) {
	if TotalEvents(g) >= MaxEventsPerGroup {
		return g, 0, ErrTooManyEvents
	}
	if conflicts := overlapping(event, g, -1); len(conflicts) > 0 {
		return g, 0, &OverlapError{Conflicts: conflicts}
	}

	next := g.Clone()
	id := next.NextEventID
	event = event.clone()
	event.ID = id
	if event.Attendees == nil {
		event.Attendees = NewAttendeeSet()
	}
	next.Events[id] = event
	next.NextEventID = id + 1
	return next, id, nil
}

// EditEvent applies edit to the event and re-checks the scheduling rules.
// The id, creation time, attendees and cancellation status cannot be changed
// through edit. It fails when the event is missing, has started or is inside
// EditLockWindow, when the new start is before now, when the new cap is
// below the attendee count, or when the new interval overlaps another event.
func EditEvent(now time.Time, id EventID, edit func(Event) Event, g Group) (Event, Group, error) {
	existing, ok := g.Event(id)
	if !ok {
		return Event{}, g, ErrEventNotFound
	}
	if existing.HasStarted(now) {
		return Event{}, g, ErrEventAlreadyStarted
	}
	if existing.StartTime.Sub(now) < EditLockWindow {
		return Event{}, g, ErrEditLocked
	}

	edited := edit(existing.clone())
	edited.ID = existing.ID
	edited.CreatedOn = existing.CreatedOn
	edited.Attendees = existing.Attendees.clone()
	edited.Cancellation = existing.Cancellation

	if edited.StartTime.Before(now) {
		return Event{}, g, ErrStartTimeInPast
	}
	if edited.MaxAttendees != nil && len(edited.Attendees) > *edited.MaxAttendees {
		return Event{}, g, ErrMaxAttendeesBelowCount
	}
	if conflicts := overlapping(edited, g, id); len(conflicts) > 0 {
		return Event{}, g, &OverlapError{Conflicts: conflicts}
	}

	next := g.Clone()
	next.Events[id] = edited
	return edited, next, nil
}

// JoinEvent adds userID to the attendee set. Joining twice is a successful
// no-op. It fails when the event is missing, cancelled, already started or
// at capacity; the attendee set is unchanged on failure.
func JoinEvent(now time.Time, userID UserID, id EventID, g Group) (Group, error) {
	event, ok := g.Event(id)
	if !ok {
		return g, ErrEventNotFound
	}
	if event.IsCancelled() {
		return g, ErrEventCancelled
	}
	if event.HasStarted(now) {
		return g, ErrEventAlreadyStarted
	}
	if event.Attendees.Contains(userID) {
		return g, nil
	}
	if event.IsFull() {
		return g, ErrEventFull
	}

	next := g.Clone()
	joined := next.Events[id]
	joined.Attendees[userID] = struct{}{}
	next.Events[id] = joined
	return next, nil
}

// LeaveEvent removes userID from the attendee set. Missing events and
// non-attendees leave the group unchanged.
func LeaveEvent(userID UserID, id EventID, g Group) Group {
	event, ok := g.Event(id)
	if !ok || !event.Attendees.Contains(userID) {
		return g
	}
	next := g.Clone()
	left := next.Events[id]
	delete(left.Attendees, userID)
	next.Events[id] = left
	return next
}

// RemoveAttendee drops userID from every event that has not started yet
func RemoveAttendee(now time.Time, userID UserID, g Group) Group {
	if !g.HasAttendee(userID) {
		return g
	}
	next := g.Clone()
	for id, e := range next.Events {
		if e.HasStarted(now) {
			continue
		}
		delete(e.Attendees, userID)
		next.Events[id] = e
	}
	return next
}

// EditCancellationStatus sets (non-nil) or clears (nil) the cancellation.
// Past events cannot be cancelled or uncancelled.
func EditCancellationStatus(now time.Time, id EventID, status *Cancellation, g Group) (Group, error) {
	event, ok := g.Event(id)
	if !ok {
		return g, ErrEventNotFound
	}
	if event.HasStarted(now) {
		return g, ErrEventAlreadyStarted
	}

	next := g.Clone()
	updated := next.Events[id]
	if status == nil {
		updated.Cancellation = nil
	} else {
		c := *status
		updated.Cancellation = &c
	}
	next.Events[id] = updated
	return next, nil
}
