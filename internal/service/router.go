package service

import (
	"sort"
	"time"

	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

// requestContext is the per-request view the handlers work with
type requestContext struct {
	now          time.Time
	sessionID    model.SessionID
	connectionID model.ConnectionID
	kind         string
	userID       model.UserID
}

// route dispatches a request to its handler. Every request kind of
// protocol.ToBackend has a case; anything else is logged and dropped.
func (b *Backend) route(rc *requestContext, req protocol.ToBackend) []Effect {
	switch r := req.(type) {
	// anonymous ok
	case protocol.GetGroup:
		return b.getGroup(rc, r)
	case protocol.GetUser:
		return b.getUser(rc, r)
	case protocol.CheckLogin:
		return b.checkLogin(rc)
	case protocol.LoginWithToken:
		return b.loginWithToken(rc, r)
	case protocol.GetLoginEmail:
		return b.getLoginEmail(rc, r)
	case protocol.SearchGroups:
		return b.searchGroups(rc, r)
	case protocol.DeleteUser:
		return b.deleteUser(rc, r)

	// user only
	case protocol.Logout:
		return b.logout(rc)
	case protocol.CreateGroup:
		return b.createGroup(rc, r)
	case protocol.ChangeName:
		return b.changeName(rc, r)
	case protocol.ChangeDescription:
		return b.changeDescription(rc, r)
	case protocol.ChangeEmail:
		return b.changeEmail(rc, r)
	case protocol.ChangeProfileImage:
		return b.changeProfileImage(rc, r)
	case protocol.ChangeTimezone:
		return b.changeTimezone(rc, r)
	case protocol.ChangeEmailNotifications:
		return b.changeEmailNotifications(rc, r)
	case protocol.GetDeleteUserEmail:
		return b.getDeleteUserEmail(rc)
	case protocol.GetMyGroups:
		return b.getMyGroups(rc)
	case protocol.JoinEvent:
		return b.joinEvent(rc, r)
	case protocol.LeaveEvent:
		return b.leaveEvent(rc, r)

	// owner or admin
	case protocol.ChangeGroupName:
		return b.changeGroupName(rc, r)
	case protocol.ChangeGroupDescription:
		return b.changeGroupDescription(rc, r)
	case protocol.ChangeGroupVisibility:
		return b.changeGroupVisibility(rc, r)
	case protocol.CreateEvent:
		return b.createEvent(rc, r)
	case protocol.EditEvent:
		return b.editEvent(rc, r)
	case protocol.ChangeEventCancellationStatus:
		return b.changeEventCancellationStatus(rc, r)

	// admin only
	case protocol.AdminDeleteGroup:
		return b.adminDeleteGroup(rc, r)
	case protocol.AdminGetLogs:
		return b.adminGetLogs(rc)
	}

	b.untrusted(rc, model.ErrUnsupportedRequest)
	return nil
}

// ============================================================================
// Gates
// ============================================================================

// untrusted records a failed trust check. The requester gets no response.
func (b *Backend) untrusted(rc *requestContext, err error) {
	b.state.appendLog(model.LogEntry{
		Time:      rc.now,
		Kind:      model.LogUntrustedCheckFailed,
		SessionID: rc.sessionID,
		UserID:    rc.userID,
		Request:   rc.kind,
		Detail:    err.Error(),
	})
}

// currentUser resolves the session without logging
func (b *Backend) currentUser(rc *requestContext) (model.User, bool) {
	id, ok := b.state.Sessions.LookupUser(rc.sessionID)
	if !ok {
		return model.User{}, false
	}
	u, ok := b.state.User(id)
	if ok {
		rc.userID = u.ID
	}
	return u, ok
}

// requireUser gates user-only requests
func (b *Backend) requireUser(rc *requestContext) (model.User, bool) {
	u, ok := b.currentUser(rc)
	if !ok {
		b.untrusted(rc, model.ErrNotLoggedIn)
	}
	return u, ok
}

// requireAdmin gates admin-only requests
func (b *Backend) requireAdmin(rc *requestContext) (model.User, bool) {
	u, ok := b.requireUser(rc)
	if !ok {
		return model.User{}, false
	}
	if !b.IsAdmin(u) {
		b.untrusted(rc, model.ErrAdminOnly)
		return model.User{}, false
	}
	return u, true
}

// groupAccess is the outcome of an owner-or-admin gate
type groupAccess struct {
	user  model.User
	group model.Group
	found bool
}

// requireOwnerOrAdmin gates group management requests. A missing group is
// not a trust failure: it comes back as found=false so the handler can
// answer GroupNotFound.
func (b *Backend) requireOwnerOrAdmin(rc *requestContext, groupID model.GroupID) (groupAccess, bool) {
	u, ok := b.requireUser(rc)
	if !ok {
		return groupAccess{}, false
	}
	g, found := b.state.Group(groupID)
	if !found {
		return groupAccess{user: u}, true
	}
	if g.OwnerID != u.ID && !b.IsAdmin(u) {
		b.untrusted(rc, model.ErrNotOwnerOrAdmin)
		return groupAccess{}, false
	}
	return groupAccess{user: u, group: g, found: true}, true
}

// validated logs err as a trust failure and reports whether it was nil
func (b *Backend) validated(rc *requestContext, err error) bool {
	if err != nil {
		b.untrusted(rc, err)
		return false
	}
	return true
}

// ============================================================================
// Effect targets
// ============================================================================

// reply answers the requesting connection only
func (b *Backend) reply(rc *requestContext, msg protocol.ToFrontend) []Effect {
	return []Effect{SendToConnection{ConnectionID: rc.connectionID, Message: msg}}
}

// toSession answers every connection of the requesting session
func (b *Backend) toSession(rc *requestContext, msg protocol.ToFrontend) []Effect {
	return b.sendAll(msg, b.state.Sessions.ConnectionsForSession(rc.sessionID))
}

// toUsers answers every connection of every listed user. The requesting
// connection is always included.
func (b *Backend) toUsers(rc *requestContext, msg protocol.ToFrontend, users ...model.UserID) []Effect {
	conns := []model.ConnectionID{rc.connectionID}
	for _, u := range users {
		conns = append(conns, b.state.Sessions.ConnectionsForUser(u)...)
	}
	return b.sendAll(msg, conns)
}

func (b *Backend) sendAll(msg protocol.ToFrontend, conns []model.ConnectionID) []Effect {
	seen := make(map[model.ConnectionID]bool, len(conns))
	unique := make([]model.ConnectionID, 0, len(conns))
	for _, c := range conns {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	effects := make([]Effect, 0, len(unique))
	for _, c := range unique {
		effects = append(effects, SendToConnection{ConnectionID: c, Message: msg})
	}
	return effects
}

// groupAudience lists who hears about a change to g made by actor: the
// actor, plus the owner when an admin acted on someone else's group
func groupAudience(actor model.User, g model.Group) []model.UserID {
	if g.OwnerID != actor.ID {
		return []model.UserID{actor.ID, g.OwnerID}
	}
	return []model.UserID{actor.ID}
}

func (b *Backend) lookupUser(id model.UserID) (model.User, bool) {
	return b.state.User(id)
}
