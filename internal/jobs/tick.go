package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forgo/gather/internal/service"
)

// Poster accepts messages for the processing loop
type Poster interface {
	Post(ctx context.Context, msg service.Message) error
}

// DefaultTickInterval drives reminders and token expiry
const DefaultTickInterval = time.Minute

// TickDriver posts a Tick to the loop on a fixed interval
type TickDriver struct {
	loop     Poster
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewTickDriver creates a tick driver
func NewTickDriver(loop Poster, interval time.Duration, logger *slog.Logger) *TickDriver {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TickDriver{
		loop:     loop,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins ticking. The first tick goes out immediately so reminders
// inside the window are caught right after boot.
func (d *TickDriver) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run()
	d.logger.Info("tick driver started", slog.Duration("interval", d.interval))
}

// Stop halts the driver and waits for an in-flight post
func (d *TickDriver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopCh)
	d.wg.Wait()
	d.logger.Info("tick driver stopped")
}

// IsRunning returns whether the driver is running
func (d *TickDriver) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *TickDriver) run() {
	defer d.wg.Done()

	d.tick()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.tick()
		case <-d.stopCh:
			return
		}
	}
}

func (d *TickDriver) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), d.interval)
	defer cancel()

	if err := d.loop.Post(ctx, service.Tick{}); err != nil {
		d.logger.Warn("tick not delivered", slog.String("error", err.Error()))
	}
}
