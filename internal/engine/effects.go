package engine

import (
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/card"
)

// effectPages lists the pages whose equipped cards contribute to each effect.
var effectPages = map[card.Effect][]card.Page{
	card.EffectTapYield:      {card.PageLocation, card.PageResources},
	card.EffectXPGain:        card.Pages,
	card.EffectBuildTime:     {card.PageConstruction},
	card.EffectStorage:       {card.PageResources, card.PageConstruction},
	card.EffectRareBias:      {card.PageLocation},
	card.EffectIdleChance:    {card.PageLocation, card.PageResources},
	card.EffectNuminsYield:   {card.PageShop, card.PageLocation},
	card.EffectCardDropBonus: {card.PageCards},
}

// Modifiers is the resolved effect of every equipped card.
type Modifiers struct {
	TapYieldMultiplier    float64 `json:"tap_yield_multiplier"`
	XPMultiplier          float64 `json:"xp_multiplier"`
	BuildTimeMultiplier   float64 `json:"build_time_multiplier"`
	StorageBonus          float64 `json:"storage_bonus"`
	RareBias              float64 `json:"rare_bias"`
	IdleChanceBonus       float64 `json:"idle_chance_bonus"`
	NuminsYieldMultiplier float64 `json:"numins_yield_multiplier"`
	CardDropBonus         float64 `json:"card_drop_bonus"`
}

// CardEffect sums the values of equipped cards with the given effect on one page.
func (e *Engine) CardEffect(effect card.Effect, page card.Page) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pageEffect(effect, page)
}

// Modifiers resolves every effect against the currently equipped cards.
func (e *Engine) Modifiers() Modifiers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modifiers()
}

func (e *Engine) modifiers() Modifiers {
	build := 1 + e.effect(card.EffectBuildTime)
	if build < e.balance.MinBuildTimeMultiplier {
		build = e.balance.MinBuildTimeMultiplier
	}
	return Modifiers{
		TapYieldMultiplier:    1 + e.effect(card.EffectTapYield),
		XPMultiplier:          1 + e.effect(card.EffectXPGain),
		BuildTimeMultiplier:   build,
		StorageBonus:          e.effect(card.EffectStorage),
		RareBias:              e.effect(card.EffectRareBias),
		IdleChanceBonus:       e.effect(card.EffectIdleChance),
		NuminsYieldMultiplier: 1 + e.effect(card.EffectNuminsYield),
		CardDropBonus:         e.effect(card.EffectCardDropBonus),
	}
}

// effect sums an effect over every page it applies on.
func (e *Engine) effect(effect card.Effect) float64 {
	total := 0.0
	for _, p := range effectPages[effect] {
		total += e.pageEffect(effect, p)
	}
	return total
}

// pageEffect sums one page. Slots naming a card the player does not own contribute nothing.
func (e *Engine) pageEffect(effect card.Effect, page card.Page) float64 {
	total := 0.0
	for _, id := range e.state.Slots.Equipped(page) {
		def, ok := card.Get(id)
		if !ok || def.Effect != effect {
			continue
		}
		owned, ok := e.state.Card(id)
		if !ok {
			continue
		}
		total += def.ValueAt(owned.Tier)
	}
	return total
}
