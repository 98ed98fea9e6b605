package service

import (
	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

func (b *Backend) createEvent(rc *requestContext, req protocol.CreateEvent) []Effect {
	access, ok := b.requireOwnerOrAdmin(rc, req.GroupID)
	if !ok {
		return nil
	}
	event, err := model.ValidateEventInput(req.Event)
	if !b.validated(rc, err) {
		return nil
	}

	fail := func(err error) []Effect {
		return b.reply(rc, protocol.CreateEventResponse{
			GroupID: req.GroupID,
			Result:  protocol.Fail[model.Event](err),
		})
	}
	if !access.found {
		return fail(model.ErrGroupNotFound)
	}
	if event.StartTime.Before(rc.now) {
		return fail(model.ErrStartTimeInPast)
	}

	event.CreatedOn = rc.now
	g, id, err := model.AddEvent(event, access.group)
	if err != nil {
		return fail(err)
	}
	b.state.Groups[g.ID] = g

	created, _ := g.Event(id)
	return b.toUsers(rc, protocol.CreateEventResponse{
		GroupID: g.ID,
		Result:  protocol.Ok(created),
	}, groupAudience(access.user, g)...)
}

func (b *Backend) editEvent(rc *requestContext, req protocol.EditEvent) []Effect {
	access, ok := b.requireOwnerOrAdmin(rc, req.GroupID)
	if !ok {
		return nil
	}
	fields, err := model.ValidateEventInput(req.Event)
	if !b.validated(rc, err) {
		return nil
	}

	resp := protocol.EditEventResponse{GroupID: req.GroupID, EventID: req.EventID}
	if !access.found {
		resp.Result = protocol.Fail[model.Event](model.ErrGroupNotFound)
		return b.reply(rc, resp)
	}

	edited, g, err := model.EditEvent(rc.now, req.EventID, func(e model.Event) model.Event {
		e.Name = fields.Name
		e.Description = fields.Description
		e.Type = fields.Type
		e.StartTime = fields.StartTime
		e.DurationMinutes = fields.DurationMinutes
		e.MaxAttendees = fields.MaxAttendees
		return e
	}, access.group)
	if err != nil {
		resp.Result = protocol.Fail[model.Event](err)
		return b.reply(rc, resp)
	}
	b.state.Groups[g.ID] = g

	resp.Result = protocol.Ok(edited)
	return b.toUsers(rc, resp, groupAudience(access.user, g)...)
}

func (b *Backend) joinEvent(rc *requestContext, req protocol.JoinEvent) []Effect {
	u, ok := b.requireUser(rc)
	if !ok {
		return nil
	}
	resp := b.applyJoin(rc, u, req.GroupID, req.EventID)
	if !resp.Result.IsOk() {
		return b.reply(rc, resp)
	}
	return b.toUsers(rc, resp, u.ID)
}

// applyJoin adds u to an event and stores the group. Login-with-join uses it
// too, so it reports the outcome instead of emitting effects.
func (b *Backend) applyJoin(rc *requestContext, u model.User, groupID model.GroupID, eventID model.EventID) protocol.JoinEventResponse {
	resp := protocol.JoinEventResponse{GroupID: groupID, EventID: eventID}
	g, ok := b.state.Group(groupID)
	if !ok {
		resp.Result = protocol.Fail[model.Event](model.ErrGroupNotFound)
		return resp
	}
	g, err := model.JoinEvent(rc.now, u.ID, eventID, g)
	if err != nil {
		resp.Result = protocol.Fail[model.Event](err)
		return resp
	}
	b.state.Groups[g.ID] = g

	joined, _ := g.Event(eventID)
	resp.Result = protocol.Ok(joined)
	return resp
}

func (b *Backend) leaveEvent(rc *requestContext, req protocol.LeaveEvent) []Effect {
	u, ok := b.requireUser(rc)
	if !ok {
		return nil
	}
	resp := protocol.LeaveEventResponse{GroupID: req.GroupID, EventID: req.EventID}
	g, found := b.state.Group(req.GroupID)
	if !found {
		resp.Result = protocol.Fail[model.Event](model.ErrGroupNotFound)
		return b.reply(rc, resp)
	}
	if _, found := g.Event(req.EventID); !found {
		resp.Result = protocol.Fail[model.Event](model.ErrEventNotFound)
		return b.reply(rc, resp)
	}

	g = model.LeaveEvent(u.ID, req.EventID, g)
	b.state.Groups[g.ID] = g

	left, _ := g.Event(req.EventID)
	resp.Result = protocol.Ok(left)
	return b.toUsers(rc, resp, u.ID)
}

func (b *Backend) changeEventCancellationStatus(rc *requestContext, req protocol.ChangeEventCancellationStatus) []Effect {
	access, ok := b.requireOwnerOrAdmin(rc, req.GroupID)
	if !ok {
		return nil
	}
	reason, err := model.ValidateCancellationReason(req.Reason)
	if !b.validated(rc, err) {
		return nil
	}

	resp := protocol.ChangeEventCancellationStatusResponse{GroupID: req.GroupID, EventID: req.EventID}
	if !access.found {
		resp.Result = protocol.Fail[model.Event](model.ErrGroupNotFound)
		return b.reply(rc, resp)
	}

	var status *model.Cancellation
	if req.Cancel {
		status = &model.Cancellation{CancelledOn: rc.now, Reason: reason}
	}
	g, err := model.EditCancellationStatus(rc.now, req.EventID, status, access.group)
	if err != nil {
		resp.Result = protocol.Fail[model.Event](err)
		return b.reply(rc, resp)
	}
	b.state.Groups[g.ID] = g

	updated, _ := g.Event(req.EventID)
	resp.Result = protocol.Ok(updated)
	return b.toUsers(rc, resp, groupAudience(access.user, g)...)
}
