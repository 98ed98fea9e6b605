package handler

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/hkdf"

	"github.com/forgo/gather/internal/model"
)

// DefaultSessionCookieName names the cookie holding the signed session id
const DefaultSessionCookieName = "gather_session"

// sessionMaxAge keeps the cookie for about a year
const sessionMaxAge = 365 * 24 * time.Hour

// ErrSessionSecretTooShort is returned for secrets under 32 bytes
var ErrSessionSecretTooShort = errors.New("session secret must be at least 32 bytes")

// SessionCookies reads and mints the signed, encrypted session cookie.
// The session id identifies a browser, not a user: login binds it.
type SessionCookies struct {
	name   string
	secure bool
	codec  *securecookie.SecureCookie
}

// NewSessionCookies derives the cookie hash and block keys from secret
func NewSessionCookies(name string, secret []byte, secure bool) (*SessionCookies, error) {
	if len(secret) < 32 {
		return nil, ErrSessionSecretTooShort
	}
	if name == "" {
		name = DefaultSessionCookieName
	}

	kdf := hkdf.New(sha256.New, secret, nil, []byte("gather session cookie"))
	hashKey := make([]byte, 64)
	blockKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, fmt.Errorf("derive cookie hash key: %w", err)
	}
	if _, err := io.ReadFull(kdf, blockKey); err != nil {
		return nil, fmt.Errorf("derive cookie block key: %w", err)
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(sessionMaxAge.Seconds()))
	return &SessionCookies{name: name, secure: secure, codec: codec}, nil
}

// Session returns the session id carried by r. When the cookie is missing
// or fails verification a fresh id is minted and the cookie to set is
// returned alongside it.
func (s *SessionCookies) Session(r *http.Request) (model.SessionID, *http.Cookie) {
	if c, err := r.Cookie(s.name); err == nil {
		var id string
		if err := s.codec.Decode(s.name, c.Value, &id); err == nil && id != "" {
			return model.SessionID(id), nil
		}
	}

	id := uuid.NewString()
	encoded, err := s.codec.Encode(s.name, id)
	if err != nil {
		return model.SessionID(id), nil
	}
	return model.SessionID(id), &http.Cookie{
		Name:     s.name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
