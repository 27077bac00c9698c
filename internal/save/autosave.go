package save

import (
	"context"
	"time"

	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
)

// AutoSaver is the single save worker of a session. Save requests coalesce: any number of
// requests made while a save is pending or running produce at most one more save.
type AutoSaver struct {
	manager  *Manager
	interval time.Duration
	requests chan struct{}
}

// NewAutoSaver creates a worker that saves on request and every interval. A non-positive
// interval disables the periodic save.
func NewAutoSaver(m *Manager, interval time.Duration) *AutoSaver {
	return &AutoSaver{manager: m, interval: interval, requests: make(chan struct{}, 1)}
}

// Request schedules a save without blocking.
func (a *AutoSaver) Request() {
	select {
	case a.requests <- struct{}{}:
	default:
	}
}

// Listener turns SAVE_REQUESTED events into save requests.
func (a *AutoSaver) Listener() events.Listener {
	return func(ev events.GameEvent) {
		if ev.Type == events.EventTypeSaveRequested {
			a.Request()
		}
	}
}

// Run saves until ctx is cancelled.
func (a *AutoSaver) Run(ctx context.Context) {
	var tick <-chan time.Time
	if a.interval > 0 {
		t := time.NewTicker(a.interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.requests:
		case <-tick:
		}
		// Errors are logged and counted by the manager.
		_ = a.manager.Save(ctx)
	}
}
