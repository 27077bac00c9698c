// Package storage - reconstructor.go
// Activity recap: folds a player's persisted events back into totals and readable lines.
package storage

import (
	"context"
	"fmt"
	"time"
)

// Reconstructor rebuilds activity from the event history.
// It backs the "while you were away" recap and auditing of suspicious saves.
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new reconstructor.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// ActivityTotals is what a player's history adds up to over a window.
type ActivityTotals struct {
	Username               string             `json:"username"`
	Since                  time.Time          `json:"since"`
	Events                 int                `json:"events"`
	Taps                   int                `json:"taps"`
	IdleCollections        int                `json:"idle_collections"`
	StorageFull            int                `json:"storage_full"`
	NuminsCollected        int64              `json:"numins_collected"`
	XPGained               int64              `json:"xp_gained"`
	LevelUps               int                `json:"level_ups"`
	HighestLevel           int                `json:"highest_level"`
	CardsAcquired          int                `json:"cards_acquired"`
	TierUps                int                `json:"tier_ups"`
	ConstructionsCollected int                `json:"constructions_collected"`
	Gathered               map[string]float64 `json:"gathered"`
}

// RecapEvent is a simplified event for the recap screen.
type RecapEvent struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"` // Human-readable description
	Impact    string `json:"impact"`  // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// RebuildTotals sums a player's events at or after since. A zero since covers everything.
func (r *Reconstructor) RebuildTotals(ctx context.Context, username string, since time.Time) (*ActivityTotals, error) {
	evs, err := r.eventRepo.GetByActorID(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for player: %w", err)
	}

	totals := &ActivityTotals{Username: username, Since: since, Gathered: make(map[string]float64)}
	for _, e := range evs {
		if e.Timestamp.Before(since) {
			continue
		}
		totals.Events++
		r.applyEvent(totals, e)
	}
	return totals, nil
}

// Recap lists a player's notable events at or after since, oldest first. Routine
// bookkeeping (XP ticks, saves, loads) is left out.
func (r *Reconstructor) Recap(ctx context.Context, username string, since time.Time) ([]RecapEvent, error) {
	evs, err := r.eventRepo.GetByActorID(ctx, username)
	if err != nil {
		return nil, err
	}

	var recap []RecapEvent
	for _, e := range evs {
		if e.Timestamp.Before(since) {
			continue
		}
		summary, ok := r.summarizeEvent(e)
		if !ok {
			continue
		}
		recap = append(recap, RecapEvent{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			EventType: e.EventType,
			Summary:   summary,
			Impact:    r.determineImpact(e),
		})
	}
	return recap, nil
}

func (r *Reconstructor) applyEvent(t *ActivityTotals, e GameEvent) {
	switch e.EventType {
	case "TAP_COLLECTED":
		t.Taps++
		t.Gathered[payloadString(e, "resource")] += payloadFloat(e, "amount")
	case "IDLE_COLLECTED":
		t.IdleCollections++
		t.Gathered[payloadString(e, "resource")] += payloadFloat(e, "amount")
	case "STORAGE_FULL":
		t.StorageFull++
	case "NUMINS_COLLECTED":
		t.NuminsCollected += int64(payloadFloat(e, "amount"))
	case "XP_GAINED":
		t.XPGained += int64(payloadFloat(e, "amount"))
	case "LEVEL_UP":
		to := int(payloadFloat(e, "to"))
		t.LevelUps += to - int(payloadFloat(e, "from"))
		if to > t.HighestLevel {
			t.HighestLevel = to
		}
	case "CARD_ACQUIRED":
		t.CardsAcquired++
	case "CARD_TIER_UP":
		t.TierUps++
	case "CONSTRUCTION_COLLECTED":
		t.ConstructionsCollected++
		if rewards, ok := e.Payload["rewards"].(map[string]interface{}); ok {
			for res, amount := range rewards {
				if f, ok := amount.(float64); ok {
					t.Gathered[res] += f
				}
			}
		}
	}
}

// summarizeEvent creates a human-readable summary. ok is false for events the recap skips.
func (r *Reconstructor) summarizeEvent(e GameEvent) (string, bool) {
	switch e.EventType {
	case "LEVEL_UP":
		return fmt.Sprintf("Reached level %d.", int(payloadFloat(e, "to"))), true
	case "CARD_ACQUIRED":
		return fmt.Sprintf("Found a copy of %s (%d owned).", payloadString(e, "card_id"), int(payloadFloat(e, "copies"))), true
	case "CARD_TIER_UP":
		return fmt.Sprintf("%s upgraded to tier %d.", payloadString(e, "card_id"), int(payloadFloat(e, "tier"))), true
	case "CONSTRUCTION_READY":
		return fmt.Sprintf("%s finished in bay %s.", payloadString(e, "blueprint_id"), payloadString(e, "bay_id")), true
	case "CONSTRUCTION_COLLECTED":
		return fmt.Sprintf("Collected %s from bay %s.", payloadString(e, "blueprint_id"), payloadString(e, "bay_id")), true
	case "STORAGE_FULL":
		return fmt.Sprintf("Storage full, lost %s.", payloadString(e, "resource")), true
	case "LOCATION_CHANGED":
		return fmt.Sprintf("Travelled to %s.", payloadString(e, "to")), true
	case "RESOURCE_DELETED":
		return fmt.Sprintf("Discarded %g %s.", payloadFloat(e, "amount"), payloadString(e, "resource")), true
	default:
		return "", false
	}
}

// determineImpact classifies the event impact.
func (r *Reconstructor) determineImpact(e GameEvent) string {
	switch e.EventType {
	case "STORAGE_FULL", "RESOURCE_DELETED":
		return "NEGATIVE"
	case "LEVEL_UP", "CARD_ACQUIRED", "CARD_TIER_UP", "CONSTRUCTION_READY", "CONSTRUCTION_COLLECTED":
		return "POSITIVE"
	default:
		return "NEUTRAL"
	}
}

func payloadString(e GameEvent, key string) string {
	s, _ := e.Payload[key].(string)
	return s
}

// payloadFloat reads a number; JSON decoding leaves every number as float64.
func payloadFloat(e GameEvent, key string) float64 {
	f, _ := e.Payload[key].(float64)
	return f
}
