// Package storage provides the persistence layer for the game server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by BlobStore.Get for a missing key.
var ErrNotFound = errors.New("storage: key not found")

// BlobStore is a flat string-keyed byte store. Save blobs, backups and account records
// all live in it under their own key prefixes.
type BlobStore interface {
	// Get returns the value of key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or replaces the value of key.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns every key starting with prefix, sorted ascending.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// GameEvent mirrors the domain event structure for persistence.
// The domain package should NOT import this; use interfaces instead.
type GameEvent struct {
	ID        string                 `json:"id" db:"id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	TargetID  string                 `json:"target_id" db:"target_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetByActorID retrieves all events of a player, oldest first.
	GetByActorID(ctx context.Context, actorID string) ([]GameEvent, error)

	// GetByEventType retrieves a player's events of one type.
	GetByEventType(ctx context.Context, actorID, eventType string) ([]GameEvent, error)

	// Recent retrieves a player's newest events, newest first.
	Recent(ctx context.Context, actorID string, limit int) ([]GameEvent, error)

	// DeleteByActorID drops a player's whole history.
	DeleteByActorID(ctx context.Context, actorID string) error
}

// PlayerSummary is a denormalized row for listing players without decoding their saves.
type PlayerSummary struct {
	Username    string    `json:"username" db:"username"`
	PlayerName  string    `json:"player_name" db:"player_name"`
	Level       int       `json:"level" db:"level"`
	XP          int64     `json:"xp" db:"xp"`
	Currency    int64     `json:"currency" db:"currency"`
	TotalTaps   int       `json:"total_taps" db:"total_taps"`
	LocationID  string    `json:"location_id" db:"location_id"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// SummaryRepository defines the interface for player summaries.
type SummaryRepository interface {
	// Upsert updates or inserts a summary.
	Upsert(ctx context.Context, summary PlayerSummary) error

	// Get retrieves one player's summary, or nil when none exists.
	Get(ctx context.Context, username string) (*PlayerSummary, error)

	// List retrieves every summary ordered by level, then XP, descending.
	List(ctx context.Context) ([]PlayerSummary, error)

	// Delete removes a player's summary.
	Delete(ctx context.Context, username string) error
}
