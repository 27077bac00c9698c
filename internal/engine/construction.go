package engine

import (
	"fmt"
	"math"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/construction"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/metrics"
)

// StartResult describes a build that was just placed in a bay.
type StartResult struct {
	BayID        string                    `json:"bay_id"`
	Construction construction.Construction `json:"construction"`
}

// CollectResult describes the rewards of a finished build.
type CollectResult struct {
	BayID       string                    `json:"bay_id"`
	BlueprintID string                    `json:"blueprint_id"`
	Rewards     map[resource.Type]float64 `json:"rewards"`
	XP          int64                     `json:"xp"`
}

// CanAfford reports whether the player holds every ingredient and the Numins of a blueprint.
func (e *Engine) CanAfford(blueprintID string) bool {
	bp, ok := construction.Get(blueprintID)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canAfford(bp)
}

func (e *Engine) canAfford(bp construction.Blueprint) bool {
	if e.debug.BuildWithoutIngredients {
		return true
	}
	for t, need := range bp.Cost {
		if e.state.Amount(t) < need {
			return false
		}
	}
	return e.state.Currency >= bp.CurrencyCost
}

// freeBay returns the index of the first unlocked, empty bay of the given size.
func (e *Engine) freeBay(size construction.Size) int {
	for i, b := range e.state.Bays {
		if b.Size == size && b.IsFree() {
			return i
		}
	}
	return -1
}

// StartConstruction pays for a blueprint and places it in the first free bay of its size.
// Either both succeed or nothing changes.
func (e *Engine) StartConstruction(blueprintID string) (StartResult, error) {
	bp, ok := construction.Get(blueprintID)
	if !ok {
		return StartResult{}, fmt.Errorf("%w: %s", ErrUnknownBlueprint, blueprintID)
	}

	e.mu.Lock()
	defer e.unlockAndFlush()

	if !e.canAfford(bp) {
		return StartResult{}, fmt.Errorf("%w: %s", ErrCannotAfford, blueprintID)
	}
	idx := e.freeBay(bp.Size)
	if idx < 0 {
		return StartResult{}, fmt.Errorf("%w: %s", ErrNoFreeBay, bp.Size)
	}

	if !e.debug.BuildWithoutIngredients {
		for t, need := range bp.Cost {
			e.spend(t, need)
		}
		if bp.CurrencyCost > 0 {
			e.state.Currency -= bp.CurrencyCost
			e.spend(resource.Numins, float64(bp.CurrencyCost))
		}
	}

	duration := e.effectiveDuration(bp.Duration)
	c := construction.Construction{
		ID:            e.newID(),
		BlueprintID:   bp.ID,
		TimeRemaining: duration,
		Duration:      duration,
	}
	bay := &e.state.Bays[idx]
	bay.Current = &c
	e.state.CurrentPage = PageConstruction

	e.emit(events.EventTypeConstructionStarted, bay.ID, events.ConstructionPayload{
		BayID: bay.ID, BlueprintID: bp.ID, ConstructionID: c.ID, Duration: duration,
	})
	metrics.Get().RecordConstructionStarted()
	e.requestSave()
	return StartResult{BayID: bay.ID, Construction: c}, nil
}

// spend lowers a stack without removing it. The Numins stack is clamped at zero.
func (e *Engine) spend(t resource.Type, amount float64) {
	for i := range e.state.Resources {
		if e.state.Resources[i].Type == t {
			e.state.Resources[i].Amount -= amount
			if e.state.Resources[i].Amount < 0 {
				e.state.Resources[i].Amount = 0
			}
			return
		}
	}
}

// effectiveDuration applies the build-time multiplier, keeping at least one second.
func (e *Engine) effectiveDuration(base int) int {
	d := int(math.Ceil(float64(base)*e.modifiers().BuildTimeMultiplier - roundingEpsilon))
	if d < 1 {
		d = 1
	}
	return d
}

// CollectConstruction grants the rewards of a finished build and frees its bay.
// Rewards are not subject to the storage capacity check.
func (e *Engine) CollectConstruction(bayID string) (CollectResult, error) {
	e.mu.Lock()
	defer e.unlockAndFlush()

	idx := -1
	for i, b := range e.state.Bays {
		if b.ID == bayID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return CollectResult{}, fmt.Errorf("%w: %s", ErrUnknownBay, bayID)
	}
	bay := &e.state.Bays[idx]
	if bay.Current == nil {
		return CollectResult{}, fmt.Errorf("%w: %s", ErrNothingToCollect, bayID)
	}
	if !bay.Current.IsComplete() {
		return CollectResult{}, fmt.Errorf("%w: %s has %ds left", ErrNotComplete, bayID, bay.Current.TimeRemaining)
	}

	c := *bay.Current
	res := CollectResult{BayID: bayID, BlueprintID: c.BlueprintID, Rewards: map[resource.Type]float64{}}
	bp, known := construction.Get(c.BlueprintID)
	if known {
		for t, amount := range bp.Reward {
			if resource.IsCurrency(t) {
				e.addNumins(int64(amount), events.SourceConstruction)
			} else {
				e.addResource(t, amount)
			}
			res.Rewards[t] = amount
		}
		e.recordConstruction(bp.Size)
	} else {
		e.logger.Warnf("%s collected unknown blueprint %s from %s, no rewards", e.state.PlayerName, c.BlueprintID, bayID)
	}
	bay.Current = nil

	rewards := make(map[string]float64, len(res.Rewards))
	for t, amount := range res.Rewards {
		rewards[string(t)] = amount
	}
	e.emit(events.EventTypeConstructionCollected, bayID, events.ConstructionPayload{
		BayID: bayID, BlueprintID: c.BlueprintID, ConstructionID: c.ID, Rewards: rewards,
	})
	if known && bp.XPReward > 0 {
		res.XP = scaleXP(bp.XPReward, e.modifiers().XPMultiplier)
		e.addXP(res.XP, events.SourceConstruction)
	}
	e.reevaluateLocationUnlocks()
	e.requestSave()
	return res, nil
}

func (e *Engine) recordConstruction(size construction.Size) {
	e.state.Stats.TotalConstructions++
	switch size {
	case construction.SizeSmall:
		e.state.Stats.SmallConstructions++
	case construction.SizeMedium:
		e.state.Stats.MediumConstructions++
	case construction.SizeLarge:
		e.state.Stats.LargeConstructions++
	}
}
