package service

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

// DefaultTokenTTL is how long login and delete-account links stay valid
const DefaultTokenTTL = time.Hour

// LoginToken is a pending login link. JoinEvent, when set, is joined after
// the login succeeds.
type LoginToken struct {
	Email     model.EmailAddress `json:"email"`
	JoinEvent *protocol.EventRef `json:"join_event,omitempty"`
	CreatedOn time.Time          `json:"created_on"`
}

// DeleteToken is a pending account deletion confirmation
type DeleteToken struct {
	UserID    model.UserID `json:"user_id"`
	CreatedOn time.Time    `json:"created_on"`
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// issueLoginToken stores a new login token and returns the raw token
func (s *State) issueLoginToken(now time.Time, email model.EmailAddress, join *protocol.EventRef) string {
	token := s.IDs.LongID(now, func(id string) bool {
		_, taken := s.LoginTokens[hashToken(id)]
		return taken
	})
	s.LoginTokens[hashToken(token)] = LoginToken{Email: email, JoinEvent: join, CreatedOn: now}
	return token
}

// issueDeleteToken stores a new delete-account token and returns the raw token
func (s *State) issueDeleteToken(now time.Time, userID model.UserID) string {
	token := s.IDs.LongID(now, func(id string) bool {
		_, taken := s.DeleteTokens[hashToken(id)]
		return taken
	})
	s.DeleteTokens[hashToken(token)] = DeleteToken{UserID: userID, CreatedOn: now}
	return token
}

// consumeLoginToken removes the token whatever the outcome, so a token can
// never be used twice
func (s *State) consumeLoginToken(now time.Time, token string, ttl time.Duration) (LoginToken, error) {
	key := hashToken(token)
	pending, ok := s.LoginTokens[key]
	if !ok {
		return LoginToken{}, model.ErrTokenNotFound
	}
	delete(s.LoginTokens, key)
	if now.Sub(pending.CreatedOn) >= ttl {
		return LoginToken{}, model.ErrTokenExpired
	}
	return pending, nil
}

// consumeDeleteToken removes the token whatever the outcome
func (s *State) consumeDeleteToken(now time.Time, token string, ttl time.Duration) (DeleteToken, error) {
	key := hashToken(token)
	pending, ok := s.DeleteTokens[key]
	if !ok {
		return DeleteToken{}, model.ErrTokenNotFound
	}
	delete(s.DeleteTokens, key)
	if now.Sub(pending.CreatedOn) >= ttl {
		return DeleteToken{}, model.ErrTokenExpired
	}
	return pending, nil
}

// dropTokensFor forgets every pending token that names the user or email
func (s *State) dropTokensFor(userID model.UserID, email model.EmailAddress) {
	for key, t := range s.DeleteTokens {
		if t.UserID == userID {
			delete(s.DeleteTokens, key)
		}
	}
	for key, t := range s.LoginTokens {
		if t.Email == email {
			delete(s.LoginTokens, key)
		}
	}
}
