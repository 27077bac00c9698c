package engine

import (
	"math"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/construction"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/location"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/metrics"
)

// TickResult describes what one second of idle time produced.
type TickResult struct {
	Ready       []string      `json:"ready,omitempty"` // bays whose build finished this tick
	Resource    resource.Type `json:"resource,omitempty"`
	Amount      float64       `json:"amount,omitempty"`
	StorageFull bool          `json:"storage_full,omitempty"`
	XP          int64         `json:"xp,omitempty"`
	Numins      int64         `json:"numins,omitempty"`
}

// Tick advances the game by one second: build countdowns, then the idle resource roll,
// then the idle Numins roll.
func (e *Engine) Tick() TickResult {
	e.mu.Lock()
	defer e.unlockAndFlush()

	var res TickResult
	res.Ready = e.advanceConstructions()
	e.rollIdleResource(&res)
	e.rollIdleNumins(&res)
	return res
}

func (e *Engine) advanceConstructions() []string {
	var ready []string
	for i := range e.state.Bays {
		bay := &e.state.Bays[i]
		if bay.Current == nil {
			continue
		}
		wasComplete := bay.Current.IsComplete()
		bay.Current.Advance()
		if !wasComplete && bay.Current.IsComplete() {
			ready = append(ready, bay.ID)
			e.emit(events.EventTypeConstructionReady, bay.ID, events.ConstructionPayload{
				BayID:          bay.ID,
				BlueprintID:    bay.Current.BlueprintID,
				ConstructionID: bay.Current.ID,
			})
		}
	}
	return ready
}

// rollIdleResource draws from the unmodified table; rare bias only affects taps.
func (e *Engine) rollIdleResource(res *TickResult) {
	chance := e.balance.IdleResourceChance + e.modifiers().IdleChanceBonus
	if e.rng.Float64() >= chance {
		return
	}
	locID := e.state.CurrentLocationID
	picked, ok := SelectFromTable(location.DropTable(locID), e.rng)
	if !ok {
		return
	}
	amount := e.balance.IdleYieldMultiplier
	res.Resource = picked

	if !resource.IsCurrency(picked) && !e.fits(amount) {
		res.StorageFull = true
		e.emit(events.EventTypeStorageFull, locID, events.StoragePayload{
			Resource: string(picked), Award: int(math.Ceil(amount)),
			Used: e.storageUnits(), Capacity: e.storageCapacity(),
		})
		return
	}

	e.addResource(picked, amount)
	res.Amount = amount
	e.state.Stats.LocationIdleCollectionCounts[locID]++
	e.state.Stats.TotalIdleCollections++
	e.emit(events.EventTypeIdleCollected, locID, events.ResourcePayload{
		Resource: string(picked), Amount: amount, Source: events.SourceIdle,
	})
	metrics.Get().RecordIdleCollection()

	if e.rng.Float64() < e.balance.IdleXPChance {
		res.XP = 1
		e.addXP(1, events.SourceIdle)
	}
}

func (e *Engine) rollIdleNumins(res *TickResult) {
	if e.rng.Float64() >= e.balance.IdleNuminsChance {
		return
	}
	res.Numins = int64(randBetween(e.rng, e.balance.IdleNuminsMin, e.balance.IdleNuminsMax))
	e.addNumins(res.Numins, events.SourceIdle)
}

// ReadyBays returns the ids of bays holding a finished build.
func (e *Engine) ReadyBays() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	for _, b := range e.state.Bays {
		if b.Current != nil && b.Current.IsComplete() {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// ActiveConstructions returns a copy of every bay with a build, finished or not.
func (e *Engine) ActiveConstructions() []construction.Bay {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []construction.Bay
	for _, b := range e.state.Bays {
		if b.Current != nil {
			c := *b.Current
			b.Current = &c
			out = append(out, b)
		}
	}
	return out
}
