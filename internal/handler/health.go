package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/forgo/gather/internal/service"
)

// ConnectionCounter reports the number of live websocket connections
type ConnectionCounter interface {
	Count() int
}

// Pinger checks a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the processing loop answers, how many
// sockets are open and, when snapshots are enabled, whether the snapshot
// store is reachable.
type HealthHandler struct {
	reader    StateReader
	conns     ConnectionCounter
	snapshots Pinger
	timeout   time.Duration
}

// NewHealthHandler creates a new health handler. conns and snapshots may
// be nil.
func NewHealthHandler(reader StateReader, conns ConnectionCounter, snapshots Pinger) *HealthHandler {
	return &HealthHandler{reader: reader, conns: conns, snapshots: snapshots, timeout: 2 * time.Second}
}

type healthResponse struct {
	Status      string `json:"status"`
	Users       int    `json:"users"`
	Groups      int    `json:"groups"`
	Connections int    `json:"connections"`
	Snapshots   string `json:"snapshots,omitempty"`
}

// Health handles GET /health. A stopped loop answers 503. An unreachable
// snapshot store only degrades the status: the state is still served from
// memory.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var resp healthResponse
	err := h.reader.Read(ctx, func(s *service.State) {
		resp.Users = len(s.Users)
		resp.Groups = len(s.Groups)
	})
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	if h.conns != nil {
		resp.Connections = h.conns.Count()
	}

	resp.Status = "ok"
	if h.snapshots != nil {
		resp.Snapshots = "ok"
		if err := h.snapshots.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Snapshots = "unavailable"
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}
