package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
	"github.com/forgo/gather/internal/testing/helpers"
)

func TestRunClub_CapacityScenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	ada := h.login("s1", "c1", "ada@example.com")
	bob := h.login("s2", "c2", "bob@example.com")
	carol := h.login("s3", "c3", "carol@example.com")

	club := h.createGroup("so", "co", "Run Club")
	run := h.createEvent("so", "co", club.ID, "Saturday 5k", h.now.Add(72*time.Hour), 45, helpers.Ptr(2))

	join := func(session, conn string) protocol.JoinEventResponse {
		return onlyMessage[protocol.JoinEventResponse](t, h.send(session, conn, protocol.JoinEvent{GroupID: club.ID, EventID: run.ID}))
	}

	require.True(t, join("s1", "c1").Result.IsOk())
	require.True(t, join("s2", "c2").Result.IsOk())

	full := join("s3", "c3")
	require.NotNil(t, full.Result.Err)
	assert.Equal(t, protocol.CodeEventFull, full.Result.Err.Code)

	// Joining twice is a no-op, even when full.
	again := join("s1", "c1")
	require.True(t, again.Result.IsOk())
	assert.Len(t, again.Result.Ok.Attendees, 2)

	left := onlyMessage[protocol.LeaveEventResponse](t, h.send("s1", "c1", protocol.LeaveEvent{GroupID: club.ID, EventID: run.ID}))
	require.True(t, left.Result.IsOk())
	assert.False(t, left.Result.Ok.Attendees.Contains(ada.ID))

	joined := join("s3", "c3")
	require.True(t, joined.Result.IsOk())
	assert.True(t, joined.Result.Ok.Attendees.Contains(bob.ID))
	assert.True(t, joined.Result.Ok.Attendees.Contains(carol.ID))
	assert.Len(t, joined.Result.Ok.Attendees, 2)
}

func TestCreateEvent_Overlap(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	club := h.createGroup("so", "co", "Run Club")
	start := h.now.Add(48 * time.Hour)
	first := h.createEvent("so", "co", club.ID, "Morning", start, 60, nil)
	h.createEvent("so", "co", club.ID, "Adjacent", start.Add(time.Hour), 60, nil)

	effects := h.send("so", "co", protocol.CreateEvent{
		GroupID: club.ID,
		Event:   eventInput("Clash", start.Add(30*time.Minute), 60, nil),
	})
	resp := onlyMessage[protocol.CreateEventResponse](t, effects)
	require.NotNil(t, resp.Result.Err)
	assert.Equal(t, protocol.CodeEventOverlaps, resp.Result.Err.Code)
	require.Len(t, resp.Result.Err.Conflicts, 2)
	assert.Equal(t, first.ID, resp.Result.Err.Conflicts[0].EventID)
}

func TestCreateEvent_Results(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	club := h.createGroup("so", "co", "Run Club")

	resp := onlyMessage[protocol.CreateEventResponse](t, h.send("so", "co", protocol.CreateEvent{
		GroupID: club.ID,
		Event:   eventInput("Yesterday", h.now.Add(-24*time.Hour), 60, nil),
	}))
	assert.Equal(t, protocol.CodeStartTimeInPast, resp.Result.Err.Code)

	resp = onlyMessage[protocol.CreateEventResponse](t, h.send("so", "co", protocol.CreateEvent{
		GroupID: "nope",
		Event:   eventInput("Ghost", h.now.Add(24*time.Hour), 60, nil),
	}))
	assert.Equal(t, protocol.CodeGroupNotFound, resp.Result.Err.Code)

	// Invalid input gets no answer.
	assert.Empty(t, h.send("so", "co", protocol.CreateEvent{
		GroupID: club.ID,
		Event:   eventInput("Too long", h.now.Add(24*time.Hour), 0, nil),
	}))
	assert.Equal(t, []model.LogKind{model.LogUntrustedCheckFailed}, h.logKinds())
}

func TestCreateEvent_StrangerRejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	h.login("s1", "c1", "ada@example.com")
	club := h.createGroup("so", "co", "Run Club")

	assert.Empty(t, h.send("s1", "c1", protocol.CreateEvent{
		GroupID: club.ID,
		Event:   eventInput("Hijack", h.now.Add(24*time.Hour), 60, nil),
	}))
	g, _ := h.b.State().Group(club.ID)
	assert.Empty(t, g.Events)
}

func TestEditEvent(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	ada := h.login("s1", "c1", "ada@example.com")
	club := h.createGroup("so", "co", "Run Club")
	e := h.createEvent("so", "co", club.ID, "5k", h.now.Add(48*time.Hour), 60, nil)
	h.send("s1", "c1", protocol.JoinEvent{GroupID: club.ID, EventID: e.ID})

	in := eventInput("10k", h.now.Add(50*time.Hour), 90, helpers.Ptr(5))
	resp := onlyMessage[protocol.EditEventResponse](t, h.send("so", "co", protocol.EditEvent{GroupID: club.ID, EventID: e.ID, Event: in}))
	require.True(t, resp.Result.IsOk())
	assert.Equal(t, "10k", resp.Result.Ok.Name)
	assert.Equal(t, 90, resp.Result.Ok.DurationMinutes)
	assert.True(t, resp.Result.Ok.Attendees.Contains(ada.ID))
	assert.Equal(t, e.CreatedOn, resp.Result.Ok.CreatedOn)

	// Inside the lock window.
	h.advance(49*time.Hour + 30*time.Minute)
	resp = onlyMessage[protocol.EditEventResponse](t, h.send("so", "co", protocol.EditEvent{GroupID: club.ID, EventID: e.ID, Event: in}))
	assert.Equal(t, protocol.CodeEditLocked, resp.Result.Err.Code)

	resp = onlyMessage[protocol.EditEventResponse](t, h.send("so", "co", protocol.EditEvent{GroupID: club.ID, EventID: 99, Event: in}))
	assert.Equal(t, protocol.CodeEventNotFound, resp.Result.Err.Code)
}

func TestEditEvent_CapBelowAttendees(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	h.login("s1", "c1", "ada@example.com")
	h.login("s2", "c2", "bob@example.com")
	club := h.createGroup("so", "co", "Run Club")
	start := h.now.Add(48 * time.Hour)
	e := h.createEvent("so", "co", club.ID, "5k", start, 60, nil)
	h.send("s1", "c1", protocol.JoinEvent{GroupID: club.ID, EventID: e.ID})
	h.send("s2", "c2", protocol.JoinEvent{GroupID: club.ID, EventID: e.ID})
	h.send("so", "co", protocol.JoinEvent{GroupID: club.ID, EventID: e.ID})

	resp := onlyMessage[protocol.EditEventResponse](t, h.send("so", "co", protocol.EditEvent{
		GroupID: club.ID,
		EventID: e.ID,
		Event:   eventInput("5k", start, 60, helpers.Ptr(2)),
	}))
	assert.Equal(t, protocol.CodeMaxAttendeesBelowAttendeeCount, resp.Result.Err.Code)
}

func TestCancellation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	h.login("s1", "c1", "ada@example.com")
	club := h.createGroup("so", "co", "Run Club")
	e := h.createEvent("so", "co", club.ID, "5k", h.now.Add(48*time.Hour), 60, nil)

	resp := onlyMessage[protocol.ChangeEventCancellationStatusResponse](t, h.send("so", "co", protocol.ChangeEventCancellationStatus{
		GroupID: club.ID,
		EventID: e.ID,
		Cancel:  true,
		Reason:  "Storm",
	}))
	require.True(t, resp.Result.IsOk())
	require.NotNil(t, resp.Result.Ok.Cancellation)
	assert.Equal(t, "Storm", resp.Result.Ok.Cancellation.Reason)

	join := onlyMessage[protocol.JoinEventResponse](t, h.send("s1", "c1", protocol.JoinEvent{GroupID: club.ID, EventID: e.ID}))
	assert.Equal(t, protocol.CodeEventCancelled, join.Result.Err.Code)

	// The slot stays taken while cancelled.
	clash := onlyMessage[protocol.CreateEventResponse](t, h.send("so", "co", protocol.CreateEvent{
		GroupID: club.ID,
		Event:   eventInput("Other", h.now.Add(48*time.Hour), 30, nil),
	}))
	assert.Equal(t, protocol.CodeEventOverlaps, clash.Result.Err.Code)

	resp = onlyMessage[protocol.ChangeEventCancellationStatusResponse](t, h.send("so", "co", protocol.ChangeEventCancellationStatus{
		GroupID: club.ID,
		EventID: e.ID,
	}))
	require.True(t, resp.Result.IsOk())
	assert.Nil(t, resp.Result.Ok.Cancellation)

	join = onlyMessage[protocol.JoinEventResponse](t, h.send("s1", "c1", protocol.JoinEvent{GroupID: club.ID, EventID: e.ID}))
	assert.True(t, join.Result.IsOk())
}

func TestJoinEvent_Errors(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.login("so", "co", "owner@example.com")
	h.login("s1", "c1", "ada@example.com")
	club := h.createGroup("so", "co", "Run Club")
	e := h.createEvent("so", "co", club.ID, "5k", h.now.Add(time.Hour), 60, nil)

	resp := onlyMessage[protocol.JoinEventResponse](t, h.send("s1", "c1", protocol.JoinEvent{GroupID: "nope", EventID: e.ID}))
	assert.Equal(t, protocol.CodeGroupNotFound, resp.Result.Err.Code)

	resp = onlyMessage[protocol.JoinEventResponse](t, h.send("s1", "c1", protocol.JoinEvent{GroupID: club.ID, EventID: 42}))
	assert.Equal(t, protocol.CodeEventNotFound, resp.Result.Err.Code)

	h.advance(time.Hour)
	resp = onlyMessage[protocol.JoinEventResponse](t, h.send("s1", "c1", protocol.JoinEvent{GroupID: club.ID, EventID: e.ID}))
	assert.Equal(t, protocol.CodeEventAlreadyStarted, resp.Result.Err.Code)

	leave := onlyMessage[protocol.LeaveEventResponse](t, h.send("s1", "c1", protocol.LeaveEvent{GroupID: club.ID, EventID: 42}))
	assert.Equal(t, protocol.CodeEventNotFound, leave.Result.Err.Code)
}
