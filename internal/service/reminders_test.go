package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/gather/internal/mail"
	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

// reminderFixture builds a group with one event starting at start, attended
// by ada (opted in, Paris) and bob (opted out)
func reminderFixture(t *testing.T, start time.Time) (*harness, model.Group, model.Event) {
	t.Helper()
	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	h.login("s1", "c1", "ada@example.com")
	h.login("s2", "c2", "bob@example.com")
	h.send("s1", "c1", protocol.ChangeTimezone{Timezone: "Europe/Paris"})
	h.send("s2", "c2", protocol.ChangeEmailNotifications{Enabled: false})

	g := h.createGroup("so", "co", "Run Club")
	e := h.createEvent("so", "co", g.ID, "5k", start, 60, nil)
	h.send("s1", "c1", protocol.JoinEvent{GroupID: g.ID, EventID: e.ID})
	h.send("s2", "c2", protocol.JoinEvent{GroupID: g.ID, EventID: e.ID})
	return h, g, e
}

func TestReminders_EdgeTriggered(t *testing.T) {
	t.Parallel()

	start := epoch.Add(72 * time.Hour)
	h, g, e := reminderFixture(t, start)

	h.now = start.Add(-25 * time.Hour)
	assert.Empty(t, h.tick(), "first tick only records the time")

	h.now = start.Add(-23 * time.Hour)
	mails := emailsIn(h.tick())
	require.Len(t, mails, 1)
	assert.Equal(t, model.EmailAddress("ada@example.com"), mails[0].To)

	reminder, ok := mails[0].Content.(mail.EventReminder)
	require.True(t, ok)
	assert.Equal(t, g.ID, reminder.GroupID)
	assert.Equal(t, "Run Club", reminder.GroupName)
	assert.Equal(t, e.ID, reminder.EventID)
	assert.Equal(t, "Europe/Paris", reminder.Timezone)
	assert.Equal(t, time.Hour, reminder.Duration)
	assert.Equal(t, "Parc", reminder.Address)

	h.now = start.Add(-20 * time.Hour)
	assert.Empty(t, h.tick())
}

func TestReminders_FirstTickAfterBootSkipsWindow(t *testing.T) {
	t.Parallel()

	start := epoch.Add(72 * time.Hour)
	h, _, _ := reminderFixture(t, start)

	// Booting inside the window sends nothing for that window.
	h.now = start.Add(-23 * time.Hour)
	assert.Empty(t, h.tick())
	h.now = start.Add(-22 * time.Hour)
	assert.Empty(t, h.tick())
}

func TestReminders_BoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	start := epoch.Add(72 * time.Hour)
	h, _, _ := reminderFixture(t, start)

	h.now = start.Add(-24*time.Hour - time.Minute)
	h.tick()
	h.now = start.Add(-24 * time.Hour)
	assert.Len(t, emailsIn(h.tick()), 1)
	h.now = start.Add(-24*time.Hour + time.Minute)
	assert.Empty(t, h.tick())
}

func TestReminders_SkipsCancelledAndArchived(t *testing.T) {
	t.Parallel()

	start := epoch.Add(72 * time.Hour)
	h, g, e := reminderFixture(t, start)
	h.send("so", "co", protocol.ChangeEventCancellationStatus{GroupID: g.ID, EventID: e.ID, Cancel: true})

	h.now = start.Add(-25 * time.Hour)
	h.tick()
	h.now = start.Add(-23 * time.Hour)
	assert.Empty(t, h.tick())

	h2, g2, _ := reminderFixture(t, start)
	h2.login("sa", "ca", adminEmail)
	h2.send("sa", "ca", protocol.AdminDeleteGroup{GroupID: g2.ID})

	h2.now = start.Add(-25 * time.Hour)
	h2.tick()
	h2.now = start.Add(-23 * time.Hour)
	assert.Empty(t, h2.tick())
}

func TestTick_RecordsLastTick(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	assert.Nil(t, h.b.State().LastTick)
	h.tick()
	require.NotNil(t, h.b.State().LastTick)
	assert.Equal(t, h.now, *h.b.State().LastTick)
}
