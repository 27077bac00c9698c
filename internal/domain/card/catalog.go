package card

import "sort"

// Copy thresholds shared by every card: tier 1 on acquisition, then 2, 5, 10 and 20 more copies.
var standardCopies = [MaxTier]int{1, 2, 5, 10, 20}

func tiers(values ...float64) [MaxTier]Tier {
	var out [MaxTier]Tier
	for i := range out {
		out[i] = Tier{CopiesRequired: standardCopies[i], Value: values[i]}
	}
	return out
}

// Catalog contains every card definition, keyed by id.
var Catalog = map[string]Def{
	"deep-scanner": {
		ID: "deep-scanner", Name: "Deep Scanner", Class: ClassExplorer, Effect: EffectRareBias,
		Tiers:       tiers(0.5, 1, 1.5, 2, 3),
		Description: "Shifts tap drops away from common finds and toward rare ones.",
	},
	"prospector-glove": {
		ID: "prospector-glove", Name: "Prospector's Glove", Class: ClassCollector, Effect: EffectTapYield,
		Tiers:       tiers(0.1, 0.2, 0.3, 0.5, 1),
		Description: "Every tap has a chance to bring back extra units.",
	},
	"cargo-expansion": {
		ID: "cargo-expansion", Name: "Cargo Expansion", Class: ClassCollector, Effect: EffectStorage,
		Tiers:       tiers(100, 250, 500, 1000, 2000),
		Description: "Adds storage capacity.",
	},
	"idle-drone": {
		ID: "idle-drone", Name: "Idle Drone", Class: ClassCollector, Effect: EffectIdleChance,
		Tiers:       tiers(0.01, 0.02, 0.03, 0.05, 0.08),
		Description: "Raises the chance of passive resource collection each second.",
	},
	"quick-assembly": {
		ID: "quick-assembly", Name: "Quick Assembly", Class: ClassConstructor, Effect: EffectBuildTime,
		Tiers:       tiers(-0.05, -0.1, -0.15, -0.2, -0.3),
		Description: "Shortens construction time.",
	},
	"scholars-log": {
		ID: "scholars-log", Name: "Scholar's Log", Class: ClassProgression, Effect: EffectXPGain,
		Tiers:       tiers(0.1, 0.2, 0.35, 0.5, 1),
		Description: "Increases experience gained from taps and constructions.",
	},
	"merchants-seal": {
		ID: "merchants-seal", Name: "Merchant's Seal", Class: ClassTrader, Effect: EffectNuminsYield,
		Tiers:       tiers(0.1, 0.25, 0.5, 0.75, 1),
		Description: "Increases Numins found while tapping.",
	},
	"collectors-eye": {
		ID: "collectors-eye", Name: "Collector's Eye", Class: ClassCard, Effect: EffectCardDropBonus,
		Tiers:       tiers(0.0005, 0.001, 0.0015, 0.002, 0.003),
		Description: "Improves the odds of finding cards in the Relic Archive.",
	},
}

// LocationPool is the fixed set of cards that can drop at the card location.
var LocationPool = []string{"deep-scanner", "prospector-glove", "scholars-log"}

// Get returns the card definition with the given id.
func Get(id string) (Def, bool) {
	def, ok := Catalog[id]
	return def, ok
}

// All returns every card definition ordered by id.
func All() []Def {
	out := make([]Def, 0, len(Catalog))
	for _, d := range Catalog {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
