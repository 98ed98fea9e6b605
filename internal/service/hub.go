package service

import (
	"log/slog"
	"sync"

	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
)

// outboundBuffer is the number of frames queued per connection
const outboundBuffer = 64

// Subscriber is one live connection's outbound queue
type Subscriber struct {
	ID     model.ConnectionID
	Frames chan []byte
	Done   chan struct{}
}

// Hub maps connection ids to their outbound queues. It only holds the
// channels; which connection hears what is decided by the backend.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[model.ConnectionID]*Subscriber
	logger      *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[model.ConnectionID]*Subscriber),
		logger:      logger,
	}
}

// Subscribe registers a connection and returns its queue
func (h *Hub) Subscribe(id model.ConnectionID) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:     id,
		Frames: make(chan []byte, outboundBuffer),
		Done:   make(chan struct{}),
	}
	if old, ok := h.subscribers[id]; ok {
		close(old.Done)
	}
	h.subscribers[id] = sub
	return sub
}

// Unsubscribe removes a connection. Its Done channel is closed; Frames is
// left open so a concurrent Send never panics.
func (h *Hub) Unsubscribe(id model.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subscribers[id]; ok {
		close(sub.Done)
		delete(h.subscribers, id)
	}
}

// Send encodes msg and queues it for one connection. Unknown connections
// and full queues drop the frame.
func (h *Hub) Send(id model.ConnectionID, msg protocol.ToFrontend) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		h.logger.Error("encode outbound message",
			slog.String("kind", msg.Kind()),
			slog.String("error", err.Error()),
		)
		return
	}

	h.mu.RLock()
	sub, ok := h.subscribers[id]
	h.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case sub.Frames <- frame:
	default:
		h.logger.Warn("outbound queue full, dropping frame",
			slog.String("connection_id", string(id)),
			slog.String("kind", msg.Kind()),
		)
	}
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
