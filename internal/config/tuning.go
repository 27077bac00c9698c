package config

// Recommendations provides suggestions based on observed metrics.
type Recommendations struct {
	IncreaseBroadcastBuffer bool
	IncreaseDBConnections   bool
	IncreaseBlobCache       bool
	Notes                   []string
}

// Analyze examines a metrics snapshot and returns tuning recommendations.
func Analyze(metrics map[string]interface{}) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	// Check tick latency
	if tick, ok := metrics["tick"].(map[string]interface{}); ok {
		if maxLat, ok := tick["max_latency_ms"].(float64); ok && maxLat > 100 {
			rec.Notes = append(rec.Notes, "Tick latency exceeds 100ms - sessions are contending for the engine lock")
		}
	}

	// Check event write latency
	if events, ok := metrics["events"].(map[string]interface{}); ok {
		if maxLat, ok := events["max_write_lat_ms"].(float64); ok && maxLat > 50 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Event write latency exceeds 50ms - increase DB connections")
		}
		if errors, ok := events["errors"].(int64); ok && errors > 0 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Event write errors detected - check DB connection pool")
		}
	}

	// Saves go through the blob cache; slow saves mean misses are hitting SQLite.
	if persistence, ok := metrics["persistence"].(map[string]interface{}); ok {
		if avg, ok := persistence["avg_save_ms"].(float64); ok && avg > 50 {
			rec.IncreaseBlobCache = true
			rec.Notes = append(rec.Notes, "Average save exceeds 50ms - increase blob cache size")
		}
		if errors, ok := persistence["save_errors"].(int64); ok && errors > 0 {
			rec.Notes = append(rec.Notes, "Save errors detected - check disk space and the DB file")
		}
	}

	// Check WebSocket backpressure
	if ws, ok := metrics["websocket"].(map[string]interface{}); ok {
		if errors, ok := ws["errors"].(int64); ok && errors > 0 {
			rec.IncreaseBroadcastBuffer = true
			rec.Notes = append(rec.Notes, "WebSocket errors detected - increase broadcast and client send buffers")
		}
	}

	return rec
}

// Apply returns a copy of s adjusted by rec.
func (s Server) Apply(rec *Recommendations) Server {
	if rec.IncreaseBroadcastBuffer {
		s.BroadcastChannelBuffer *= 2
		s.ClientSendBuffer *= 2
	}
	if rec.IncreaseDBConnections {
		s.DBMaxOpenConns = int(float64(s.DBMaxOpenConns) * 1.5)
		s.DBMaxIdleConns = int(float64(s.DBMaxIdleConns) * 1.5)
	}
	if rec.IncreaseBlobCache {
		s.BlobCacheSize *= 2
	}
	return s
}
