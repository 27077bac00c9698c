// Package metrics provides observability for the game server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Collector gathers performance and gameplay metrics.
type Collector struct {
	// Tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Gameplay
	Taps             int64
	TapsStorageFull  int64
	IdleCollections  int64
	ConstructionsRun int64

	// Persistence
	Saves             int64
	SaveErrors        int64
	SaveLatencySum    int64
	Loads             int64
	LegacyRecoveries  int64
	MigrationFailures int64

	// Event metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// Sessions
	SessionsActive int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a tick cycle completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordTap records a tap and whether storage blocked it.
func (c *Collector) RecordTap(storageFull bool) {
	atomic.AddInt64(&c.Taps, 1)
	if storageFull {
		atomic.AddInt64(&c.TapsStorageFull, 1)
	}
}

// RecordIdleCollection records a successful idle resource roll.
func (c *Collector) RecordIdleCollection() {
	atomic.AddInt64(&c.IdleCollections, 1)
}

// RecordConstructionStarted records a build being placed in a bay.
func (c *Collector) RecordConstructionStarted() {
	atomic.AddInt64(&c.ConstructionsRun, 1)
}

// RecordSave records a save attempt.
func (c *Collector) RecordSave(latency time.Duration, err error) {
	atomic.AddInt64(&c.Saves, 1)
	atomic.AddInt64(&c.SaveLatencySum, int64(latency))
	if err != nil {
		atomic.AddInt64(&c.SaveErrors, 1)
	}
}

// RecordLoad records a load and how the blob was interpreted.
func (c *Collector) RecordLoad(legacyRecovered bool, migrationFailed bool) {
	atomic.AddInt64(&c.Loads, 1)
	if legacyRecovered {
		atomic.AddInt64(&c.LegacyRecoveries, 1)
	}
	if migrationFailed {
		atomic.AddInt64(&c.MigrationFailures, 1)
	}
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))

	if int64(latency) > atomic.LoadInt64(&c.EventWriteLatMax) {
		atomic.StoreInt64(&c.EventWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordSession records session login/logout.
func (c *Collector) RecordSession(delta int64) {
	atomic.AddInt64(&c.SessionsActive, delta)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)
	saves := atomic.LoadInt64(&c.Saves)

	// Calculate averages
	var tickAvg, eventAvg, saveAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}
	if saves > 0 {
		saveAvg = float64(atomic.LoadInt64(&c.SaveLatencySum)) / float64(saves) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),
		"started":        humanize.Time(c.StartTime),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"gameplay": map[string]interface{}{
			"taps":              atomic.LoadInt64(&c.Taps),
			"taps_storage_full": atomic.LoadInt64(&c.TapsStorageFull),
			"idle_collections":  atomic.LoadInt64(&c.IdleCollections),
			"constructions":     atomic.LoadInt64(&c.ConstructionsRun),
			"sessions_active":   atomic.LoadInt64(&c.SessionsActive),
		},

		"persistence": map[string]interface{}{
			"saves":              saves,
			"save_errors":        atomic.LoadInt64(&c.SaveErrors),
			"avg_save_ms":        saveAvg,
			"loads":              atomic.LoadInt64(&c.Loads),
			"legacy_recoveries":  atomic.LoadInt64(&c.LegacyRecoveries),
			"migration_failures": atomic.LoadInt64(&c.MigrationFailures),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		writeMetric(w, "urpg_tick_count", "counter", "Total tick cycles", atomic.LoadInt64(&c.TickCount))
		fmt.Fprintf(w, "# HELP urpg_tick_latency_max_ms Maximum tick latency\n")
		fmt.Fprintf(w, "# TYPE urpg_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "urpg_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		writeMetric(w, "urpg_taps_total", "counter", "Total taps processed", atomic.LoadInt64(&c.Taps))
		writeMetric(w, "urpg_taps_storage_full_total", "counter", "Taps blocked by storage capacity", atomic.LoadInt64(&c.TapsStorageFull))
		writeMetric(w, "urpg_idle_collections_total", "counter", "Successful idle resource rolls", atomic.LoadInt64(&c.IdleCollections))
		writeMetric(w, "urpg_constructions_total", "counter", "Constructions started", atomic.LoadInt64(&c.ConstructionsRun))
		writeMetric(w, "urpg_sessions_active", "gauge", "Logged-in sessions", atomic.LoadInt64(&c.SessionsActive))

		writeMetric(w, "urpg_saves_total", "counter", "Save attempts", atomic.LoadInt64(&c.Saves))
		writeMetric(w, "urpg_save_errors_total", "counter", "Failed saves", atomic.LoadInt64(&c.SaveErrors))
		writeMetric(w, "urpg_loads_total", "counter", "Loads", atomic.LoadInt64(&c.Loads))
		writeMetric(w, "urpg_legacy_recoveries_total", "counter", "Saves recovered from the legacy dictionary format", atomic.LoadInt64(&c.LegacyRecoveries))
		writeMetric(w, "urpg_migration_failures_total", "counter", "Corrupt saves replaced by fresh state", atomic.LoadInt64(&c.MigrationFailures))

		writeMetric(w, "urpg_events_written", "counter", "Total events written", atomic.LoadInt64(&c.EventsWritten))
		writeMetric(w, "urpg_event_write_errors", "counter", "Total event write errors", atomic.LoadInt64(&c.EventWriteErrors))

		writeMetric(w, "urpg_ws_connections", "gauge", "Active WebSocket connections", atomic.LoadInt64(&c.WSConnectionsActive))
		fmt.Fprintf(w, "# HELP urpg_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE urpg_ws_messages_total counter\n")
		fmt.Fprintf(w, "urpg_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "urpg_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
