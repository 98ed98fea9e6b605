package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/forgo/gather/internal/mail"
	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

// ErrLoopStopped is returned when posting to a loop that is not running
var ErrLoopStopped = errors.New("processing loop stopped")

// Outbox delivers messages to live connections
type Outbox interface {
	Send(id model.ConnectionID, msg protocol.ToFrontend)
}

// Renderer turns email content into a deliverable message
type Renderer interface {
	Render(to model.EmailAddress, c mail.Content) (mail.Message, error)
}

// LoopConfig wires a Loop
type LoopConfig struct {
	Backend  *Backend
	Outbox   Outbox
	Renderer Renderer
	Sender   mail.Sender
	Logger   *slog.Logger

	// Clock defaults to time.Now
	Clock func() time.Time

	InboxSize    int
	EmailTimeout time.Duration
}

type inboxItem struct {
	msg  Message
	read func(*State)
	done chan struct{}
}

// Loop is the single goroutine that owns the backend. Transport handlers
// and jobs post messages to it; it applies them one at a time and executes
// the effects each update returns.
type Loop struct {
	backend      *Backend
	outbox       Outbox
	renderer     Renderer
	sender       mail.Sender
	logger       *slog.Logger
	clock        func() time.Time
	emailTimeout time.Duration

	inbox   chan inboxItem
	stopCh  chan struct{}
	wg      sync.WaitGroup
	emails  sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewLoop creates a loop. It does nothing until Start.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Backend == nil {
		cfg.Backend = NewBackend(Config{}, nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 256
	}
	if cfg.EmailTimeout <= 0 {
		cfg.EmailTimeout = 30 * time.Second
	}
	return &Loop{
		backend:      cfg.Backend,
		outbox:       cfg.Outbox,
		renderer:     cfg.Renderer,
		sender:       cfg.Sender,
		logger:       cfg.Logger,
		clock:        cfg.Clock,
		emailTimeout: cfg.EmailTimeout,
		inbox:        make(chan inboxItem, cfg.InboxSize),
		stopCh:       make(chan struct{}),
	}
}

// Start begins processing messages
func (l *Loop) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	l.wg.Add(1)
	go l.run()
	l.logger.Info("processing loop started")
}

// Stop stops the loop and waits for in-flight emails. Messages still queued
// are dropped.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.mu.Unlock()

	close(l.stopCh)
	l.wg.Wait()
	l.emails.Wait()
	l.logger.Info("processing loop stopped")
}

// Post queues a message. It blocks while the inbox is full.
func (l *Loop) Post(ctx context.Context, msg Message) error {
	return l.enqueue(ctx, inboxItem{msg: msg})
}

// Read runs fn on the loop goroutine between two messages and waits for it.
// fn must not keep references into the state after it returns.
func (l *Loop) Read(ctx context.Context, fn func(*State)) error {
	done := make(chan struct{})
	if err := l.enqueue(ctx, inboxItem{read: fn, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return ErrLoopStopped
	}
}

func (l *Loop) enqueue(ctx context.Context, item inboxItem) error {
	select {
	case <-l.stopCh:
		return ErrLoopStopped
	default:
	}
	select {
	case l.inbox <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return ErrLoopStopped
	}
}

func (l *Loop) run() {
	defer l.wg.Done()

	for {
		select {
		case item := <-l.inbox:
			l.handle(item)
		case <-l.stopCh:
			return
		}
	}
}

func (l *Loop) handle(item inboxItem) {
	if item.read != nil {
		item.read(l.backend.state)
		close(item.done)
		return
	}
	for _, eff := range l.backend.Update(item.msg, l.clock()) {
		l.execute(eff)
	}
}

func (l *Loop) execute(eff Effect) {
	switch e := eff.(type) {
	case SendToConnection:
		if l.outbox != nil {
			l.outbox.Send(e.ConnectionID, e.Message)
		}
	case SendEmail:
		l.emails.Add(1)
		go l.deliver(e)
	}
}

// deliver renders and sends one email off the loop goroutine, then reports
// the outcome back through the inbox
func (l *Loop) deliver(e SendEmail) {
	defer l.emails.Done()

	ctx, cancel := context.WithTimeout(context.Background(), l.emailTimeout)
	defer cancel()

	err := l.sendEmail(ctx, e)
	if err != nil {
		l.logger.Warn("email delivery failed",
			slog.String("to", string(e.To)),
			slog.String("kind", string(e.Content.Kind())),
			slog.String("error", err.Error()),
		)
	}
	if postErr := l.Post(context.Background(), EmailCompleted{To: e.To, Kind: e.Content.Kind(), Err: err}); postErr != nil {
		l.logger.Debug("email outcome not recorded", slog.String("error", postErr.Error()))
	}
}

func (l *Loop) sendEmail(ctx context.Context, e SendEmail) error {
	if l.renderer == nil || l.sender == nil {
		return errors.New("email is not configured")
	}
	msg, err := l.renderer.Render(e.To, e.Content)
	if err != nil {
		return err
	}
	return l.sender.Send(ctx, msg)
}
