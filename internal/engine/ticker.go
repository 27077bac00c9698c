package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/logger"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/metrics"
)

// TickRate is the idle heartbeat: one game second per real second.
const TickRate = 1 * time.Second

// Tickable is anything advanced by the heartbeat.
type Tickable interface {
	Tick() TickResult
}

// Ticker drives a Tickable on a fixed interval.
// It is started once per session; a second Start while running is ignored.
type Ticker struct {
	target   Tickable
	logger   *logger.Logger
	interval time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}

	paused     atomic.Bool
	tickNumber atomic.Int64
}

// NewTicker creates a ticker. A non-positive interval falls back to TickRate.
func NewTicker(target Tickable, interval time.Duration, log *logger.Logger) *Ticker {
	if interval <= 0 {
		interval = TickRate
	}
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Ticker{
		target:   target,
		logger:   log,
		interval: interval,
	}
}

// Start runs the loop until ctx is cancelled or Stop is called. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		t.logger.Warn("Ticker already running, ignoring Start")
		return
	}
	t.running = true
	stop := make(chan struct{})
	t.stopChan = stop
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
	}()

	t.logger.Infof("Ticker started (%s)", t.interval)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Ticker stopped by context.")
			return
		case <-stop:
			t.logger.Info("Ticker stopped manually.")
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// Stop ends a running loop. It is safe to call more than once.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running && t.stopChan != nil {
		close(t.stopChan)
		t.stopChan = nil
	}
}

// Pause skips ticks until Resume. Used while the app is backgrounded.
func (t *Ticker) Pause() { t.paused.Store(true) }

// Resume continues ticking after Pause.
func (t *Ticker) Resume() { t.paused.Store(false) }

// Paused reports whether ticks are being skipped.
func (t *Ticker) Paused() bool { return t.paused.Load() }

// Running reports whether the loop is active.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Ticks returns how many ticks have been processed.
func (t *Ticker) Ticks() int64 {
	return t.tickNumber.Load()
}

func (t *Ticker) tick() {
	if t.paused.Load() {
		return
	}
	start := time.Now()
	t.target.Tick()
	t.tickNumber.Add(1)
	metrics.Get().RecordTick(time.Since(start))
}
