package service

import (
	"time"

	"github.com/forgo/gather/internal/mail"
	"github.com/forgo/gather/internal/model"
)

// reminders emits one reminder email per opted-in attendee of every event
// whose reminder moment (start minus ReminderWindow) fell in (last tick, now].
// The first tick after boot has no previous tick and sends nothing.
func (b *Backend) reminders(now time.Time) []Effect {
	if b.state.LastTick == nil {
		return nil
	}
	last := *b.state.LastTick

	var effects []Effect
	for _, g := range b.state.SortedGroups() {
		for _, e := range g.SortedEvents() {
			if e.IsCancelled() || e.HasStarted(now) {
				continue
			}
			at := e.StartTime.Add(-model.ReminderWindow)
			if !at.After(last) || at.After(now) {
				continue
			}
			for _, id := range e.Attendees.Sorted() {
				u, ok := b.state.User(id)
				if !ok || !u.EmailNotifications {
					continue
				}
				effects = append(effects, SendEmail{To: u.Email, Content: mail.EventReminder{
					GroupID:     g.ID,
					GroupName:   g.Name,
					EventID:     e.ID,
					EventName:   e.Name,
					StartTime:   e.StartTime,
					Duration:    e.Duration(),
					Timezone:    u.Timezone,
					MeetingLink: e.Type.MeetingLink,
					Address:     e.Type.Address,
				}})
			}
		}
	}
	return effects
}
