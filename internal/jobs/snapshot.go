package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/forgo/gather/internal/service"
)

// DefaultSnapshotSchedule is used when no schedule is configured
const DefaultSnapshotSchedule = "@every 5m"

// StateReader runs a read-only closure on the processing loop
type StateReader interface {
	Read(ctx context.Context, fn func(*service.State)) error
}

// SnapshotSaver persists serialized state
type SnapshotSaver interface {
	Save(ctx context.Context, data []byte) error
}

// SnapshotJob serializes the state on a cron schedule
type SnapshotJob struct {
	reader   StateReader
	store    SnapshotSaver
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
	clock    func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

// SnapshotConfig wires a SnapshotJob
type SnapshotConfig struct {
	Reader   StateReader
	Store    SnapshotSaver
	Schedule string
	Timeout  time.Duration // default 30s
	Logger   *slog.Logger
}

// NewSnapshotJob validates the schedule and builds the job
func NewSnapshotJob(cfg SnapshotConfig) (*SnapshotJob, error) {
	if cfg.Reader == nil || cfg.Store == nil {
		return nil, errors.New("snapshot job needs a reader and a store")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSnapshotSchedule
	}
	if _, err := ParseSchedule(cfg.Schedule); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SnapshotJob{
		reader:   cfg.Reader,
		store:    cfg.Store,
		schedule: cfg.Schedule,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
		clock:    time.Now,
	}, nil
}

// ParseSchedule accepts five-field cron expressions and descriptors such
// as @hourly or @every 5m
func ParseSchedule(spec string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start schedules the job. Overlapping runs are skipped.
func (j *SnapshotJob) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron != nil {
		return nil
	}

	logger := cronLogger{j.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	id, err := c.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if err := j.RunOnce(ctx); err != nil {
			j.logger.Error("snapshot failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule snapshot: %w", err)
	}
	c.Start()

	j.cron, j.entryID = c, id
	j.logger.Info("snapshot job started", slog.String("schedule", j.schedule))
	return nil
}

// Stop waits for a running snapshot, then takes a final one so a clean
// shutdown loses nothing. Call it before stopping the loop.
func (j *SnapshotJob) Stop(ctx context.Context) {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	if err := j.RunOnce(ctx); err != nil {
		j.logger.Error("final snapshot failed", slog.String("error", err.Error()))
	}
	j.logger.Info("snapshot job stopped")
}

// Next returns when the job fires next, zero when not started
func (j *SnapshotJob) Next() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron == nil {
		return time.Time{}
	}
	return j.cron.Entry(j.entryID).Next
}

// RunOnce reads the state through the loop and saves it
func (j *SnapshotJob) RunOnce(ctx context.Context) error {
	var (
		data   []byte
		encErr error
	)
	now := j.clock()
	if err := j.reader.Read(ctx, func(s *service.State) {
		data, encErr = s.MarshalSnapshot(now)
	}); err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	if encErr != nil {
		return fmt.Errorf("encode state: %w", encErr)
	}
	if err := j.store.Save(ctx, data); err != nil {
		return err
	}
	j.logger.Debug("snapshot saved", slog.Int("bytes", len(data)))
	return nil
}

// cronLogger adapts slog to cron.Logger
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)...)
}
