package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/port"
)

// SessionSweeperConfig holds configuration for the session sweeper
type SessionSweeperConfig struct {
	Interval time.Duration
	TTL      time.Duration
}

// DefaultSessionSweeperConfig returns default configuration
func DefaultSessionSweeperConfig() SessionSweeperConfig {
	return SessionSweeperConfig{
		Interval: 10 * time.Minute,
		TTL:      24 * time.Hour,
	}
}

// SessionSweeper periodically drops the sessions older than the cookie lifetime
type SessionSweeper struct {
	config SessionSweeperConfig
	store  port.SessionPurger
	logger *zap.Logger
	now    func() time.Time

	// Runtime state
	mu          sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
	isRunning   bool
	purgedCount int
}

// NewSessionSweeper creates a new session sweeper
func NewSessionSweeper(config SessionSweeperConfig, store port.SessionPurger, logger *zap.Logger) *SessionSweeper {
	return &SessionSweeper{
		config: config,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Start begins the sweep loop
func (w *SessionSweeper) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("session sweeper already running")
	}
	if w.config.Interval <= 0 || w.config.TTL <= 0 {
		return fmt.Errorf("session sweeper needs a positive interval and ttl")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("SessionSweeper started",
		zap.Duration("interval", w.config.Interval),
		zap.Duration("ttl", w.config.TTL))

	go w.loop(loopCtx, w.done)
	return nil
}

// Stop terminates the loop and waits for it to return
func (w *SessionSweeper) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("SessionSweeper stopped", zap.Int("purged_count", w.PurgedCount()))
	return nil
}

// Name returns the worker name for identification
func (w *SessionSweeper) Name() string {
	return "SessionSweeper"
}

// PurgedCount returns the number of sessions dropped since creation
func (w *SessionSweeper) PurgedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.purgedCount
}

func (w *SessionSweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep runs a single purge pass
func (w *SessionSweeper) sweep(ctx context.Context) {
	cutoff := w.now().Add(-w.config.TTL)

	purged, err := w.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error("Failed to purge sessions", zap.Error(err))
		return
	}
	if purged == 0 {
		return
	}

	w.mu.Lock()
	w.purgedCount += purged
	w.mu.Unlock()

	w.logger.Info("Expired sessions purged",
		zap.Int("count", purged),
		zap.Time("cutoff", cutoff))
}
