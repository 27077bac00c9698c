package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/metrics"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, timestamp, event_type, actor_id, target_id, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.Timestamp, event.EventType, event.ActorID, event.TargetID, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

const eventColumns = `id, timestamp, event_type, actor_id, target_id, payload`

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameEvent
	for rows.Next() {
		var e GameEvent
		var payloadStr string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.EventType, &e.ActorID, &e.TargetID, &payloadStr); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteEventRepository) GetByActorID(ctx context.Context, actorID string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE actor_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, actorID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, actorID, eventType string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE actor_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, actorID, eventType)
}

func (r *SQLiteEventRepository) Recent(ctx context.Context, actorID string, limit int) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE actor_id = ? ORDER BY timestamp DESC LIMIT ?`
	return r.getMany(ctx, query, actorID, limit)
}

func (r *SQLiteEventRepository) DeleteByActorID(ctx context.Context, actorID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE actor_id = ?`, actorID)
	return err
}

// EventPersisterAdapter translates domain events to storage events so an EventLog
// can write through to an EventRepository.
type EventPersisterAdapter struct {
	Repo EventRepository
}

func (a *EventPersisterAdapter) Append(event events.GameEvent) error {
	// Save requests are transient signals, not history.
	if event.Type == events.EventTypeSaveRequested {
		return nil
	}
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	var payloadMap map[string]interface{}
	_ = json.Unmarshal(payloadBytes, &payloadMap)

	start := time.Now()
	err = a.Repo.Append(context.Background(), GameEvent{
		ID:        event.ID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		TargetID:  event.TargetID,
		Payload:   payloadMap,
	})
	metrics.Get().RecordEventWrite(time.Since(start), err)
	return err
}

// ---------------------------------------------------------
// SQLiteSummaryRepository
// ---------------------------------------------------------

type SQLiteSummaryRepository struct {
	db *sql.DB
}

func NewSQLiteSummaryRepository(db *sql.DB) *SQLiteSummaryRepository {
	return &SQLiteSummaryRepository{db: db}
}

func (r *SQLiteSummaryRepository) Upsert(ctx context.Context, s PlayerSummary) error {
	query := `
		INSERT INTO player_summaries (username, player_name, level, xp, currency, total_taps, location_id, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			player_name=excluded.player_name,
			level=excluded.level,
			xp=excluded.xp,
			currency=excluded.currency,
			total_taps=excluded.total_taps,
			location_id=excluded.location_id,
			last_updated=excluded.last_updated
	`
	_, err := r.db.ExecContext(ctx, query,
		s.Username, s.PlayerName, s.Level, s.XP, s.Currency, s.TotalTaps, s.LocationID, time.Now().UTC(),
	)
	return err
}

const summaryColumns = `username, player_name, level, xp, currency, total_taps, location_id, last_updated`

func (r *SQLiteSummaryRepository) Get(ctx context.Context, username string) (*PlayerSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM player_summaries WHERE username = ?`
	var s PlayerSummary
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&s.Username, &s.PlayerName, &s.Level, &s.XP, &s.Currency, &s.TotalTaps, &s.LocationID, &s.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteSummaryRepository) List(ctx context.Context) ([]PlayerSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM player_summaries ORDER BY level DESC, xp DESC, username ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerSummary
	for rows.Next() {
		var s PlayerSummary
		if err := rows.Scan(&s.Username, &s.PlayerName, &s.Level, &s.XP, &s.Currency, &s.TotalTaps, &s.LocationID, &s.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteSummaryRepository) Delete(ctx context.Context, username string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM player_summaries WHERE username = ?`, username)
	return err
}
