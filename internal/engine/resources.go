package engine

import (
	"fmt"
	"math"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/location"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/progression"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
)

// Storage reports how full the player's storage is. Numins never count.
type Storage struct {
	Used     int `json:"used"`
	Capacity int `json:"capacity"`
}

// Storage returns current usage against effective capacity.
func (e *Engine) Storage() Storage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Storage{Used: e.storageUnits(), Capacity: e.storageCapacity()}
}

// storageUsed is the exact sum of non-currency holdings. Amounts may be fractional.
func (e *Engine) storageUsed() float64 {
	total := 0.0
	for _, r := range e.state.Resources {
		if resource.IsCurrency(r.Type) {
			continue
		}
		total += r.Amount
	}
	return total
}

// storageUnits rounds usage up for display, so a partial unit never shows as free space.
func (e *Engine) storageUnits() int {
	return int(math.Ceil(e.storageUsed()))
}

func (e *Engine) storageCapacity() int {
	return e.state.BaseStorageCapacity + int(e.modifiers().StorageBonus)
}

// fits reports whether award more units of non-currency resources still fit in storage.
func (e *Engine) fits(award float64) bool {
	return e.storageUsed()+award <= float64(e.storageCapacity())
}

// addResource increments a stack, creating it on first gain.
func (e *Engine) addResource(t resource.Type, amount float64) {
	for i := range e.state.Resources {
		if e.state.Resources[i].Type == t {
			e.state.Resources[i].Amount += amount
			return
		}
	}
	e.state.Resources = append(e.state.Resources, resource.Stack{Type: t, Amount: amount})
}

// addNumins grants currency. The Numins stack mirrors the balance for display.
func (e *Engine) addNumins(amount int64, source string) {
	if amount <= 0 {
		return
	}
	e.state.Currency += amount
	e.addResource(resource.Numins, float64(amount))
	e.state.Stats.TotalNuminsCollected += amount
	e.emit(events.EventTypeNuminsCollected, "", events.AmountPayload{Amount: amount, Source: source})
}

// addXP grants XP and resolves every level-up it pays for.
func (e *Engine) addXP(amount int64, source string) {
	if amount <= 0 {
		return
	}
	from := e.state.Level
	e.state.Stats.TotalXPGained += amount
	e.state.Level, e.state.XP, _ = progression.Apply(e.state.Level, e.state.XP, amount)
	e.emit(events.EventTypeXPGained, "", events.AmountPayload{Amount: amount, Source: source})
	if e.state.Level > from {
		e.logger.Event("LEVEL_UP", e.state.PlayerName, fmt.Sprintf("level %d -> %d", from, e.state.Level))
		e.emit(events.EventTypeLevelUp, "", events.LevelUpPayload{From: from, To: e.state.Level})
	}
}

// AddXP grants XP outside of tap, idle and construction sources.
func (e *Engine) AddXP(amount int64) {
	e.mu.Lock()
	defer e.unlockAndFlush()
	e.addXP(amount, "")
}

// DeleteResource removes up to amount of a resource. A stack that reaches zero disappears.
// It returns the amount left.
func (e *Engine) DeleteResource(t resource.Type, amount float64) (float64, error) {
	if resource.IsCurrency(t) {
		return 0, ErrNotDeletable
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.unlockAndFlush()

	idx := -1
	for i, r := range e.state.Resources {
		if r.Type == t {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, ErrResourceNotHeld
	}

	held := e.state.Resources[idx].Amount
	removed := amount
	if removed > held {
		removed = held
	}
	left := held - removed
	if left <= 0 {
		left = 0
		e.state.Resources = append(e.state.Resources[:idx], e.state.Resources[idx+1:]...)
	} else {
		e.state.Resources[idx].Amount = left
	}

	e.emit(events.EventTypeResourceDeleted, "", events.ResourcePayload{Resource: string(t), Amount: removed})
	e.requestSave()
	return left, nil
}

// IsLocationUnlocked reports whether the player may travel to a location.
// Outside of the debug override only the starting location is open.
func (e *Engine) IsLocationUnlocked(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isLocationUnlocked(id)
}

func (e *Engine) isLocationUnlocked(id string) bool {
	if _, ok := location.Get(id); !ok {
		return false
	}
	return e.debug.AllLocationsUnlocked || id == location.StartingID
}

// CanUnlockLocation reports whether the player holds everything a location's unlock
// requirements name. Requirements on Numins are checked against currency.
func (e *Engine) CanUnlockLocation(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canUnlockLocation(id)
}

func (e *Engine) canUnlockLocation(id string) bool {
	loc, ok := location.Get(id)
	if !ok {
		return false
	}
	for _, req := range loc.Requirements() {
		held := e.state.Amount(req.Resource)
		if resource.IsCurrency(req.Resource) {
			held = float64(e.state.Currency)
		}
		if held < req.Amount {
			return false
		}
	}
	return true
}

// reevaluateLocationUnlocks logs every locked location whose requirements are now met.
func (e *Engine) reevaluateLocationUnlocks() {
	for _, id := range location.IDs() {
		if e.isLocationUnlocked(id) {
			continue
		}
		if e.canUnlockLocation(id) {
			e.logger.Infof("%s meets the unlock requirements for %s", e.state.PlayerName, id)
		}
	}
}

// ChangeLocation moves the player and resets the per-location tap counter.
func (e *Engine) ChangeLocation(id string) error {
	if _, ok := location.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLocation, id)
	}

	e.mu.Lock()
	defer e.unlockAndFlush()

	if !e.isLocationUnlocked(id) {
		return fmt.Errorf("%w: %s", ErrLocationLocked, id)
	}
	from := e.state.CurrentLocationID
	e.state.CurrentLocationID = id
	e.state.CurrentPage = PageLocation
	if from != id {
		e.state.Stats.CurrentLocationTapCount = 0
	}
	e.emit(events.EventTypeLocationChanged, id, events.LocationPayload{From: from, To: id})
	e.requestSave()
	return nil
}
