package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/forgo/gather/internal/model"
	"github.com/forgo/gather/internal/protocol"
	"github.com/forgo/gather/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 256 << 10
)

// Poster queues messages for the processing loop
type Poster interface {
	Post(ctx context.Context, msg service.Message) error
}

// WSConfig wires a WSHandler
type WSConfig struct {
	Loop           Poster
	Hub            *service.Hub
	Cookies        *SessionCookies
	AllowedOrigins []string
	Logger         *slog.Logger
}

// WSHandler upgrades GET /v1/ws and shuttles frames between the socket and
// the processing loop
type WSHandler struct {
	loop     Poster
	hub      *service.Hub
	cookies  *SessionCookies
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(cfg WSConfig) *WSHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		loop:    cfg.Loop,
		hub:     cfg.Hub,
		cookies: cfg.Cookies,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

// originChecker accepts same-host requests and the configured origins
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// ServeHTTP handles GET /v1/ws
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, cookie := h.cookies.Session(r)
	header := http.Header{}
	if cookie != nil {
		header.Add("Set-Cookie", cookie.String())
	}

	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	connectionID := model.ConnectionID(uuid.NewString())
	logger := h.logger.With(
		slog.String("session_id", string(sessionID)),
		slog.String("connection_id", string(connectionID)),
	)

	// Subscribe first so the loop never answers a connection the hub does
	// not know yet.
	sub := h.hub.Subscribe(connectionID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.loop.Post(ctx, service.ClientConnected{SessionID: sessionID, ConnectionID: connectionID}); err != nil {
		logger.Error("register connection", slog.String("error", err.Error()))
		h.hub.Unsubscribe(connectionID)
		_ = conn.Close()
		return
	}
	logger.Info("websocket connected")

	go h.writePump(conn, sub, logger)
	h.readPump(ctx, conn, sessionID, connectionID, logger)

	h.hub.Unsubscribe(connectionID)
	if err := h.loop.Post(context.Background(), service.ClientDisconnected{SessionID: sessionID, ConnectionID: connectionID}); err != nil {
		logger.Debug("unregister connection", slog.String("error", err.Error()))
	}
	logger.Info("websocket disconnected")
}

// readPump decodes client frames and posts them to the loop. Frames that do
// not decode are logged and dropped.
func (h *WSHandler) readPump(ctx context.Context, conn *websocket.Conn, sessionID model.SessionID, connectionID model.ConnectionID, logger *slog.Logger) {
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}

		req, err := protocol.Decode(data)
		if err != nil {
			logger.Warn("dropping client frame", slog.String("error", err.Error()))
			continue
		}
		msg := service.FromClient{SessionID: sessionID, ConnectionID: connectionID, Request: req}
		if err := h.loop.Post(ctx, msg); err != nil {
			logger.Error("post client request", slog.String("kind", req.Kind()), slog.String("error", err.Error()))
			return
		}
	}
}

// writePump drains the hub queue onto the socket and keeps it alive with
// pings. It exits when the hub drops the subscriber or a write fails.
func (h *WSHandler) writePump(conn *websocket.Conn, sub *service.Subscriber, logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame := <-sub.Frames:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Warn("websocket write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sub.Done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
