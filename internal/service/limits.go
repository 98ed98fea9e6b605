package service

import (
	"time"

	"github.com/forgo/gather/internal/model"
)

// Email throttling windows
const (
	// LoginEmailSessionCooldown is the minimum gap between two login email
	// requests of one session
	LoginEmailSessionCooldown = 10 * time.Second

	// LoginEmailAddressCooldown is the minimum age of a pending login token
	// before another one is issued for the same address
	LoginEmailAddressCooldown = 60 * time.Second

	// DeleteEmailCooldown is the minimum age of a pending delete token
	// before another one is issued for the same user
	DeleteEmailCooldown = 10 * time.Second

	// loginAttemptRetention is how long login attempts are remembered
	loginAttemptRetention = 30 * time.Second
)

// allowLoginEmail reports whether a login email may go to email now.
// Both cooldowns apply: a session waits 10s between requests, and an
// address waits 60s after its last pending link. A repeat request for the
// same address at 11s is therefore still rejected, even from another
// session; a different address at 11s goes through.
func (b *Backend) allowLoginEmail(rc *requestContext, email model.EmailAddress) bool {
	if last, ok := b.state.LoginAttempts[rc.sessionID]; ok && rc.now.Sub(last) < LoginEmailSessionCooldown {
		return false
	}
	for _, t := range b.state.LoginTokens {
		if t.Email == email && rc.now.Sub(t.CreatedOn) < LoginEmailAddressCooldown {
			return false
		}
	}
	return true
}

// allowDeleteEmail reports whether a delete confirmation may go to userID now
func (b *Backend) allowDeleteEmail(now time.Time, userID model.UserID) bool {
	for _, t := range b.state.DeleteTokens {
		if t.UserID == userID && now.Sub(t.CreatedOn) < DeleteEmailCooldown {
			return false
		}
	}
	return true
}

// pruneLimits forgets stale login attempts and tokens past their TTL
func (b *Backend) pruneLimits(now time.Time) {
	for id, at := range b.state.LoginAttempts {
		if now.Sub(at) > loginAttemptRetention {
			delete(b.state.LoginAttempts, id)
		}
	}
	for key, t := range b.state.LoginTokens {
		if now.Sub(t.CreatedOn) >= b.cfg.LoginTokenTTL {
			delete(b.state.LoginTokens, key)
		}
	}
	for key, t := range b.state.DeleteTokens {
		if now.Sub(t.CreatedOn) >= b.cfg.DeleteTokenTTL {
			delete(b.state.DeleteTokens, key)
		}
	}
}

// rateLimited records a throttled email request
func (b *Backend) rateLimited(rc *requestContext, kind model.LogKind, email model.EmailAddress) {
	b.state.appendLog(model.LogEntry{
		Time:      rc.now,
		Kind:      kind,
		SessionID: rc.sessionID,
		UserID:    rc.userID,
		Email:     email,
		Request:   rc.kind,
	})
}
