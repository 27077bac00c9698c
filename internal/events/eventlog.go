// Package events provides the feedback event log for a play session.
// The engine appends an event for every visible outcome (a tap award, a level-up, a finished build),
// and transports and persistence subscribe to it.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeTapCollected          EventType = "TAP_COLLECTED"
	EventTypeStorageFull           EventType = "STORAGE_FULL"
	EventTypeIdleCollected         EventType = "IDLE_COLLECTED"
	EventTypeNuminsCollected       EventType = "NUMINS_COLLECTED"
	EventTypeXPGained              EventType = "XP_GAINED"
	EventTypeLevelUp               EventType = "LEVEL_UP"
	EventTypeCardAcquired          EventType = "CARD_ACQUIRED"
	EventTypeCardTierUp            EventType = "CARD_TIER_UP"
	EventTypeConstructionStarted   EventType = "CONSTRUCTION_STARTED"
	EventTypeConstructionReady     EventType = "CONSTRUCTION_READY"
	EventTypeConstructionCollected EventType = "CONSTRUCTION_COLLECTED"
	EventTypeResourceDeleted       EventType = "RESOURCE_DELETED"
	EventTypeLocationChanged       EventType = "LOCATION_CHANGED"
	EventTypeSaveRequested         EventType = "SAVE_REQUESTED"
	EventTypeGameSaved             EventType = "GAME_SAVED"
	EventTypeGameLoaded            EventType = "GAME_LOADED"
)

// Event sources carried in payloads.
const (
	SourceTap          = "tap"
	SourceIdle         = "idle"
	SourceConstruction = "construction"
	SourceCardDrop     = "card_drop"
)

// ResourcePayload describes resources gained or removed.
type ResourcePayload struct {
	Resource string  `json:"resource"`
	Amount   float64 `json:"amount"`
	Source   string  `json:"source,omitempty"`
}

// AmountPayload describes Numins or XP gained.
type AmountPayload struct {
	Amount int64  `json:"amount"`
	Source string `json:"source,omitempty"`
}

// LevelUpPayload describes one or more level-ups from a single XP grant.
type LevelUpPayload struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// CardPayload describes a card acquisition or upgrade.
type CardPayload struct {
	CardID string `json:"card_id"`
	Copies int    `json:"copies"`
	Tier   int    `json:"tier"`
}

// ConstructionPayload describes a build transition.
type ConstructionPayload struct {
	BayID          string             `json:"bay_id"`
	BlueprintID    string             `json:"blueprint_id"`
	ConstructionID string             `json:"construction_id"`
	Duration       int                `json:"duration,omitempty"`
	Rewards        map[string]float64 `json:"rewards,omitempty"`
}

// LocationPayload describes a location change.
type LocationPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// StoragePayload describes a blocked award.
type StoragePayload struct {
	Resource string `json:"resource"`
	Award    int    `json:"award"`
	Used     int    `json:"used"`
	Capacity int    `json:"capacity"`
}

// PersistencePayload describes a save or load.
type PersistencePayload struct {
	Key     string `json:"key"`
	Bytes   int    `json:"bytes,omitempty"`
	Outcome string `json:"outcome,omitempty"`
}

// GameEvent represents an immutable record of something the player should see.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`            // The player the event belongs to
	TargetID  string      `json:"target_id,omitempty"` // Bay, card or location affected (optional)
	Payload   interface{} `json:"payload"`             // Event-specific data
}

// New builds an event stamped with a fresh id and the current time.
func New(eventType EventType, actorID, targetID string, payload interface{}) GameEvent {
	return GameEvent{
		ID:        GenerateEventID(),
		Timestamp: time.Now(),
		Type:      eventType,
		ActorID:   actorID,
		TargetID:  targetID,
		Payload:   payload,
	}
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// Listener is notified of every appended event, in append order.
type Listener func(event GameEvent)

// EventLog is the in-memory, bounded, append-only log of a session's events.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	capacity  int
	persister EventPersister
	listeners []Listener
}

// NewEventLog creates a new event log with an optional persister.
// capacity bounds how many events stay in memory; 0 means unbounded.
func NewEventLog(persister EventPersister, capacity int) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		capacity:  capacity,
		persister: persister,
	}
}

// Subscribe registers a listener for events appended from now on.
func (el *EventLog) Subscribe(l Listener) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.listeners = append(el.listeners, l)
}

// Append adds new events to the log and notifies listeners outside the lock.
func (el *EventLog) Append(batch ...GameEvent) {
	if len(batch) == 0 {
		return
	}
	el.mu.Lock()
	el.events = append(el.events, batch...)
	if el.capacity > 0 && len(el.events) > el.capacity {
		trimmed := make([]GameEvent, el.capacity)
		copy(trimmed, el.events[len(el.events)-el.capacity:])
		el.events = trimmed
	}
	listeners := append([]Listener(nil), el.listeners...)
	persister := el.persister
	el.mu.Unlock()

	if persister != nil {
		// Write through to persistent storage off the caller's path.
		go func(events []GameEvent) {
			for _, e := range events {
				_ = persister.Append(e)
			}
		}(append([]GameEvent(nil), batch...))
	}

	for _, e := range batch {
		for _, l := range listeners {
			l(e)
		}
	}
}

// GetByType returns all retained events of a specific type.
func (el *EventLog) GetByType(eventType EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

// Since returns retained events newer than t.
func (el *EventLog) Since(t time.Time) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Timestamp.After(t) {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of every retained event.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return append([]GameEvent(nil), el.events...)
}

// Len returns the number of retained events.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
