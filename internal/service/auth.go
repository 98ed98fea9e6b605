package service

import (
	"github.com/forgo/gather/internal/mail"
	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

func (b *Backend) checkLogin(rc *requestContext) []Effect {
	resp := protocol.CheckLoginResponse{}
	if u, ok := b.currentUser(rc); ok {
		private := protocol.NewPrivateUser(u, b.IsAdmin(u))
		resp.User = &private
	}
	return b.reply(rc, resp)
}

// getLoginEmail issues a login token and asks for it to be mailed. Invalid
// addresses and throttled requests get no answer.
func (b *Backend) getLoginEmail(rc *requestContext, req protocol.GetLoginEmail) []Effect {
	email, err := model.ValidateEmail(req.Email)
	if !b.validated(rc, err) {
		return nil
	}
	if !b.allowLoginEmail(rc, email) {
		b.rateLimited(rc, model.LogLoginEmailRateLimited, email)
		return nil
	}

	b.state.LoginAttempts[rc.sessionID] = rc.now
	token := b.state.issueLoginToken(rc.now, email, req.JoinEvent)

	link := mail.LoginLink{Token: token, ExpiresIn: b.cfg.LoginTokenTTL}
	if req.JoinEvent != nil {
		eventID := req.JoinEvent.EventID
		link.JoinGroupID = req.JoinEvent.GroupID
		link.JoinEventID = &eventID
	}

	return append(
		b.reply(rc, protocol.GetLoginEmailResponse{Email: email}),
		SendEmail{To: email, Content: link},
	)
}

// loginWithToken consumes a login token and binds the session to the
// matching account, creating it on first login. A join carried by the token
// (or, failing that, by the request) is attempted right after.
func (b *Backend) loginWithToken(rc *requestContext, req protocol.LoginWithToken) []Effect {
	pending, err := b.state.consumeLoginToken(rc.now, req.Token, b.cfg.LoginTokenTTL)
	if err != nil {
		return b.reply(rc, protocol.LoginWithTokenResponse{Result: protocol.Fail[protocol.PrivateUser](err)})
	}

	u, ok := b.state.UserByEmail(pending.Email)
	if !ok {
		u = model.NewUser(b.state.newUserID(rc.now), pending.Email, rc.now)
		b.state.Users[u.ID] = u
	}
	b.state.Sessions.Bind(rc.sessionID, u.ID)
	rc.userID = u.ID

	resp := protocol.LoginWithTokenResponse{
		Result: protocol.Ok(protocol.NewPrivateUser(u, b.IsAdmin(u))),
	}

	join := pending.JoinEvent
	if join == nil {
		join = req.JoinEvent
	}
	if join != nil {
		joined := b.applyJoin(rc, u, join.GroupID, join.EventID)
		resp.JoinEvent = &joined
	}
	return b.toSession(rc, resp)
}

func (b *Backend) logout(rc *requestContext) []Effect {
	if _, ok := b.requireUser(rc); !ok {
		return nil
	}
	b.state.Sessions.Unbind(rc.sessionID)
	return b.toSession(rc, protocol.LogoutResponse{})
}

// getDeleteUserEmail mails a confirmation token for account deletion
func (b *Backend) getDeleteUserEmail(rc *requestContext) []Effect {
	u, ok := b.requireUser(rc)
	if !ok {
		return nil
	}
	if !b.allowDeleteEmail(rc.now, u.ID) {
		b.rateLimited(rc, model.LogDeleteEmailRateLimited, u.Email)
		return nil
	}

	token := b.state.issueDeleteToken(rc.now, u.ID)
	return append(
		b.reply(rc, protocol.GetDeleteUserEmailResponse{UserID: u.ID}),
		SendEmail{To: u.Email, Content: mail.DeleteConfirmation{
			Token:     token,
			UserName:  u.Name,
			ExpiresIn: b.cfg.DeleteTokenTTL,
		}},
	)
}

// deleteUser consumes a delete token and removes the account. The user
// leaves every event that has not started, owned groups are archived and
// every session of the user is logged out.
func (b *Backend) deleteUser(rc *requestContext, req protocol.DeleteUser) []Effect {
	pending, err := b.state.consumeDeleteToken(rc.now, req.Token, b.cfg.DeleteTokenTTL)
	if err != nil {
		return b.reply(rc, protocol.DeleteUserResponse{Result: protocol.Fail[model.UserID](err)})
	}
	u, ok := b.state.User(pending.UserID)
	if !ok {
		return b.reply(rc, protocol.DeleteUserResponse{Result: protocol.Fail[model.UserID](model.ErrUserNotFound)})
	}

	// Collect the audience before the sessions are unbound.
	conns := append([]model.ConnectionID{rc.connectionID}, b.state.Sessions.ConnectionsForUser(u.ID)...)

	for id, g := range b.state.Groups {
		if g.OwnerID == u.ID {
			b.state.archiveGroup(id, ArchivedOwnerDeleted, rc.now)
			continue
		}
		b.state.Groups[id] = model.RemoveAttendee(rc.now, u.ID, g)
	}
	delete(b.state.Users, u.ID)
	b.state.dropTokensFor(u.ID, u.Email)
	b.state.Sessions.UnbindUser(u.ID)

	return b.sendAll(protocol.DeleteUserResponse{Result: protocol.Ok(u.ID)}, conns)
}
