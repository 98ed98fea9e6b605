package service

import (
	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

func (b *Backend) getUser(rc *requestContext, req protocol.GetUser) []Effect {
	resp := protocol.GetUserResponse{UserID: req.UserID}
	if u, ok := b.state.User(req.UserID); ok {
		resp.Result = protocol.Ok(protocol.NewPublicUser(u))
	} else {
		resp.Result = protocol.Fail[protocol.PublicUser](model.ErrUserNotFound)
	}
	return b.reply(rc, resp)
}

// updateUser applies change to the logged-in user and stores the result
func (b *Backend) updateUser(rc *requestContext, change func(*model.User)) (model.User, bool) {
	u, ok := b.requireUser(rc)
	if !ok {
		return model.User{}, false
	}
	change(&u)
	b.state.Users[u.ID] = u
	return u, true
}

func (b *Backend) changeName(rc *requestContext, req protocol.ChangeName) []Effect {
	if _, ok := b.requireUser(rc); !ok {
		return nil
	}
	name, err := model.ValidateUserName(req.Name)
	if !b.validated(rc, err) {
		return nil
	}
	u, _ := b.updateUser(rc, func(u *model.User) { u.Name = name })
	return b.toUsers(rc, protocol.ChangeNameResponse{UserID: u.ID, Name: name}, u.ID)
}

func (b *Backend) changeDescription(rc *requestContext, req protocol.ChangeDescription) []Effect {
	if _, ok := b.requireUser(rc); !ok {
		return nil
	}
	desc, err := model.ValidateUserDescription(req.Description)
	if !b.validated(rc, err) {
		return nil
	}
	u, _ := b.updateUser(rc, func(u *model.User) { u.Description = desc })
	return b.toUsers(rc, protocol.ChangeDescriptionResponse{UserID: u.ID, Description: desc}, u.ID)
}

// changeEmail moves the account to a new address. The address must not
// belong to another account. Admin rights follow the address, so only an
// admin may move onto an admin address. Everyone else needs a login link
// mailed to it.
func (b *Backend) changeEmail(rc *requestContext, req protocol.ChangeEmail) []Effect {
	current, ok := b.requireUser(rc)
	if !ok {
		return nil
	}
	email, err := model.ValidateEmail(req.Email)
	if !b.validated(rc, err) {
		return nil
	}
	other, taken := b.state.UserByEmail(email)
	taken = taken && other.ID != current.ID
	if taken || (b.admins[email] && !b.IsAdmin(current)) {
		return b.reply(rc, protocol.ChangeEmailResponse{
			UserID: current.ID,
			Result: protocol.Fail[model.EmailAddress](model.ErrEmailAddressInUse),
		})
	}

	previous := current.Email
	u, _ := b.updateUser(rc, func(u *model.User) { u.Email = email })
	if previous != email {
		// Pending login links for the old address must not log into this account.
		for key, t := range b.state.LoginTokens {
			if t.Email == previous {
				delete(b.state.LoginTokens, key)
			}
		}
	}
	return b.toUsers(rc, protocol.ChangeEmailResponse{UserID: u.ID, Result: protocol.Ok(email)}, u.ID)
}

func (b *Backend) changeProfileImage(rc *requestContext, req protocol.ChangeProfileImage) []Effect {
	if _, ok := b.requireUser(rc); !ok {
		return nil
	}
	img, err := model.ValidateProfileImage(req.ProfileImage)
	if !b.validated(rc, err) {
		return nil
	}
	u, _ := b.updateUser(rc, func(u *model.User) { u.ProfileImage = img })
	return b.toUsers(rc, protocol.ChangeProfileImageResponse{UserID: u.ID, ProfileImage: img}, u.ID)
}

func (b *Backend) changeTimezone(rc *requestContext, req protocol.ChangeTimezone) []Effect {
	if _, ok := b.requireUser(rc); !ok {
		return nil
	}
	tz, err := model.ValidateTimezone(req.Timezone)
	if !b.validated(rc, err) {
		return nil
	}
	u, _ := b.updateUser(rc, func(u *model.User) { u.Timezone = tz })
	return b.toUsers(rc, protocol.ChangeTimezoneResponse{UserID: u.ID, Timezone: tz}, u.ID)
}

func (b *Backend) changeEmailNotifications(rc *requestContext, req protocol.ChangeEmailNotifications) []Effect {
	u, ok := b.updateUser(rc, func(u *model.User) { u.EmailNotifications = req.Enabled })
	if !ok {
		return nil
	}
	return b.toUsers(rc, protocol.ChangeEmailNotificationsResponse{UserID: u.ID, Enabled: req.Enabled}, u.ID)
}
