package engine

import (
	"math"
	"math/rand"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/card"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/location"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/metrics"
)

// roundingEpsilon absorbs float error when card values sum to a whole multiplier.
const roundingEpsilon = 1e-9

// TapResult describes what a single tap produced.
type TapResult struct {
	Resource    resource.Type `json:"resource,omitempty"`
	Amount      int           `json:"amount"`
	StorageFull bool          `json:"storage_full,omitempty"`
	Numins      int64         `json:"numins,omitempty"`
	XP          int64         `json:"xp,omitempty"`
	CardID      string        `json:"card_id,omitempty"`
}

// StochasticRound converts a yield multiplier into a whole award of at least 1.
// The fractional part of the bonus is paid out as one extra unit with that probability,
// so the expected award equals the multiplier.
func StochasticRound(multiplier float64, rng *rand.Rand) int {
	bonus := multiplier - 1
	if bonus < 0 {
		bonus = 0
	}
	whole := math.Floor(bonus)
	frac := bonus - whole
	if 1-frac < roundingEpsilon {
		whole++
		frac = 0
	}
	award := 1 + int(whole)
	if frac > roundingEpsilon && rng.Float64() < frac {
		award++
	}
	return award
}

// Tap performs one manual collection at the current location.
func (e *Engine) Tap() TapResult {
	e.mu.Lock()
	defer e.unlockAndFlush()

	var res TapResult
	locID := e.state.CurrentLocationID
	picked, ok := SelectFromTable(e.modifiedDropTable(locID), e.rng)
	if !ok {
		return res
	}
	mods := e.modifiers()
	award := StochasticRound(mods.TapYieldMultiplier, e.rng)
	res.Resource = picked

	if !resource.IsCurrency(picked) && !e.fits(float64(award)) {
		res.StorageFull = true
		used, capacity := e.storageUnits(), e.storageCapacity()
		e.logger.Warnf("%s storage full (%d/%d), dropped %d %s", e.state.PlayerName, used, capacity, award, picked)
		e.emit(events.EventTypeStorageFull, locID, events.StoragePayload{
			Resource: string(picked), Award: award, Used: used, Capacity: capacity,
		})
		metrics.Get().RecordTap(true)
		return res
	}

	if resource.IsCurrency(picked) {
		e.addNumins(int64(award), events.SourceTap)
	} else {
		e.addResource(picked, float64(award))
	}
	res.Amount = award
	e.state.Stats.CurrentLocationTapCount++
	e.state.Stats.LocationTapCounts[locID]++
	e.state.Stats.TotalTaps++
	e.emit(events.EventTypeTapCollected, locID, events.ResourcePayload{
		Resource: string(picked), Amount: float64(award), Source: events.SourceTap,
	})

	if e.rng.Float64() < e.balance.TapNuminsChance {
		base := randBetween(e.rng, e.balance.TapNuminsMin, e.balance.TapNuminsMax)
		res.Numins = int64(math.Round(float64(base) * mods.NuminsYieldMultiplier))
		e.addNumins(res.Numins, events.SourceTap)
	}

	if e.rng.Float64() < e.balance.TapXPChance {
		res.XP = scaleXP(1, mods.XPMultiplier)
		e.addXP(res.XP, events.SourceTap)
	}

	if locID == location.CardLocationID && e.rng.Float64() < e.balance.CardDropChance+mods.CardDropBonus {
		res.CardID = card.LocationPool[e.rng.Intn(len(card.LocationPool))]
		e.addCard(res.CardID, 1)
	}

	metrics.Get().RecordTap(false)
	e.requestSave()
	return res
}

// randBetween returns a uniform integer in [lo, hi].
func randBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// scaleXP applies the XP multiplier, never rounding a positive grant down to zero.
func scaleXP(base int64, multiplier float64) int64 {
	scaled := int64(math.Round(float64(base) * multiplier))
	if scaled < 1 && base > 0 {
		return 1
	}
	return scaled
}
