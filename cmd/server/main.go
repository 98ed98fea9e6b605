package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/forgo/gather/internal/config"
	"github.com/forgo/gather/internal/database"
	"github.com/forgo/gather/internal/handler"
	"github.com/forgo/gather/internal/jobs"
	"github.com/forgo/gather/internal/mail"
	"github.com/forgo/gather/internal/middleware"
	"github.com/forgo/gather/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	// Snapshots are optional; without them the state lives in memory only.
	var (
		db    *database.SurrealDB
		store *database.SnapshotStore
		state *service.State
	)
	if cfg.Snapshot.Enabled {
		db = database.NewSurrealDB(database.Config{
			Host:      cfg.Database.Host,
			Port:      cfg.Database.Port,
			User:      cfg.Database.User,
			Password:  cfg.Database.Password,
			Namespace: cfg.Database.Namespace,
			Database:  cfg.Database.Database,
			TLS:       cfg.Database.TLS,
		})
		if err := db.Connect(ctx); err != nil {
			slog.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		slog.Info("connected to database",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Database),
		)

		store = database.NewSnapshotStore(db, cfg.Snapshot.Retention)
		if cfg.Snapshot.Restore {
			state, err = jobs.Restore(ctx, store, logger)
			if err != nil {
				slog.Error("failed to restore snapshot", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}
	}

	backend := service.NewBackend(service.Config{
		AdminEmails:    cfg.Backend.AdminEmails,
		LoginTokenTTL:  cfg.Backend.LoginTokenTTL,
		DeleteTokenTTL: cfg.Backend.DeleteTokenTTL,
	}, state)

	renderer, err := mail.NewRenderer(cfg.Server.SiteName, cfg.Server.PublicURL)
	if err != nil {
		slog.Error("failed to load email templates", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var sender mail.Sender
	if cfg.MailEnabled() {
		smtp, err := mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
		if err != nil {
			slog.Error("failed to configure smtp", slog.String("error", err.Error()))
			os.Exit(1)
		}
		sender = smtp
	} else {
		slog.Warn("SMTP_HOST not set, emails are logged instead of sent")
		sender = mail.NewLogSender(logger)
	}

	hub := service.NewHub(logger)
	loop := service.NewLoop(service.LoopConfig{
		Backend:      backend,
		Outbox:       hub,
		Renderer:     renderer,
		Sender:       sender,
		Logger:       logger,
		InboxSize:    cfg.Backend.InboxSize,
		EmailTimeout: cfg.Mail.Timeout,
	})
	loop.Start()

	ticker := jobs.NewTickDriver(loop, cfg.Backend.TickInterval, logger)
	ticker.Start()

	var snapshots *jobs.SnapshotJob
	if store != nil {
		snapshots, err = jobs.NewSnapshotJob(jobs.SnapshotConfig{
			Reader:   loop,
			Store:    store,
			Schedule: cfg.Snapshot.Schedule,
			Logger:   logger,
		})
		if err == nil {
			err = snapshots.Start()
		}
		if err != nil {
			slog.Error("failed to start snapshot job", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	cookies, err := handler.NewSessionCookies(cfg.Session.CookieName, []byte(cfg.Session.Secret), cfg.IsProduction())
	if err != nil {
		slog.Error("failed to configure session cookies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	wsHandler := handler.NewWSHandler(handler.WSConfig{
		Loop:           loop,
		Hub:            hub,
		Cookies:        cookies,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})
	calendarHandler := handler.NewCalendarHandler(loop, cfg.Server.SiteName, cfg.Server.PublicURL)
	var snapshotCheck handler.Pinger
	if store != nil {
		snapshotCheck = store
	}
	healthHandler := handler.NewHealthHandler(loop, hub, snapshotCheck)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /v1/ws", wsHandler)
	mux.HandleFunc("GET /v1/groups/{groupId}/calendar.ics", calendarHandler.Export)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.Server.RateLimit,
		Window: time.Minute,
	})
	defer rateLimiter.Stop()

	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Compress,
	)

	// WriteTimeout stays zero: it would cut long-lived websocket connections.
	// The websocket handler sets its own write deadlines.
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           wrapped,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.Bool("snapshots", store != nil),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}
	ticker.Stop()
	if snapshots != nil {
		snapshots.Stop(shutdownCtx)
	}
	loop.Stop()

	slog.Info("server exited")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
