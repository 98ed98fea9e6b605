package service

import (
	"strings"
	"time"

	"github.com/forgo/gather/internal/mail"
	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

// ============================================================================
// Messages
// ============================================================================

// Message is an input to Backend.Update
type Message interface {
	message()
}

// ClientConnected reports a new live connection of a session
type ClientConnected struct {
	SessionID    model.SessionID
	ConnectionID model.ConnectionID
}

// ClientDisconnected reports a closed connection
type ClientDisconnected struct {
	SessionID    model.SessionID
	ConnectionID model.ConnectionID
}

// FromClient carries a decoded client request
type FromClient struct {
	SessionID    model.SessionID
	ConnectionID model.ConnectionID
	Request      protocol.ToBackend
}

// Tick is the periodic timer message
type Tick struct{}

// EmailCompleted reports the outcome of a SendEmail effect
type EmailCompleted struct {
	To   model.EmailAddress
	Kind mail.Kind
	Err  error
}

func (ClientConnected) message()    {}
func (ClientDisconnected) message() {}
func (FromClient) message()         {}
func (Tick) message()               {}
func (EmailCompleted) message()     {}

// ============================================================================
// Effects
// ============================================================================

// Effect is an output of Backend.Update, executed after the update returns
type Effect interface {
	effect()
}

// SendToConnection pushes a message to one live connection
type SendToConnection struct {
	ConnectionID model.ConnectionID
	Message      protocol.ToFrontend
}

// SendEmail asks for an email to be rendered and delivered
type SendEmail struct {
	To      model.EmailAddress
	Content mail.Content
}

func (SendToConnection) effect() {}
func (SendEmail) effect()        {}

// ============================================================================
// Backend
// ============================================================================

// Config tunes the backend
type Config struct {
	// AdminEmails lists the accounts allowed to moderate
	AdminEmails []string

	LoginTokenTTL  time.Duration
	DeleteTokenTTL time.Duration
}

// Backend owns the state and turns messages into effects. It is not safe
// for concurrent use; Loop serialises access to it.
type Backend struct {
	state  *State
	admins map[model.EmailAddress]bool
	cfg    Config
}

// NewBackend creates a backend over state. A nil state starts empty.
func NewBackend(cfg Config, state *State) *Backend {
	if state == nil {
		state = NewState()
	}
	state.ensure()
	if cfg.LoginTokenTTL == 0 {
		cfg.LoginTokenTTL = DefaultTokenTTL
	}
	if cfg.DeleteTokenTTL == 0 {
		cfg.DeleteTokenTTL = DefaultTokenTTL
	}

	admins := make(map[model.EmailAddress]bool, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		if e = strings.TrimSpace(e); e != "" {
			admins[model.EmailAddress(strings.ToLower(e))] = true
		}
	}
	return &Backend{state: state, admins: admins, cfg: cfg}
}

// State exposes the state for reads made on the loop goroutine
func (b *Backend) State() *State {
	return b.state
}

// IsAdmin reports whether u may use admin requests
func (b *Backend) IsAdmin(u model.User) bool {
	return b.admins[u.Email]
}

// Update applies one message and returns the effects to execute
func (b *Backend) Update(msg Message, now time.Time) []Effect {
	switch m := msg.(type) {
	case ClientConnected:
		b.state.Sessions.AddConnection(m.SessionID, m.ConnectionID)
		return nil
	case ClientDisconnected:
		b.state.Sessions.RemoveConnection(m.SessionID, m.ConnectionID)
		return nil
	case FromClient:
		rc := &requestContext{
			now:          now,
			sessionID:    m.SessionID,
			connectionID: m.ConnectionID,
			kind:         m.Request.Kind(),
		}
		return b.route(rc, m.Request)
	case Tick:
		return b.tick(now)
	case EmailCompleted:
		b.emailCompleted(m, now)
		return nil
	}
	return nil
}

func (b *Backend) tick(now time.Time) []Effect {
	b.pruneLimits(now)
	effects := b.reminders(now)
	b.state.LastTick = &now
	return effects
}

func (b *Backend) emailCompleted(m EmailCompleted, now time.Time) {
	entry := model.LogEntry{
		Time:   now,
		Kind:   model.LogEmailSent,
		Email:  m.To,
		Detail: string(m.Kind),
	}
	if m.Err != nil {
		entry.Kind = model.LogEmailFailed
		entry.Detail = string(m.Kind) + ": " + m.Err.Error()
	}
	b.state.appendLog(entry)
}
