// Package card defines collectible modifier cards, their upgrade tiers and the per-page slots they equip into.
// This package is PURE and must NOT import any infrastructure packages.
package card

import (
	"fmt"
	"strconv"
	"strings"
)

// Class groups cards by play style.
type Class string

const (
	ClassExplorer    Class = "Explorer"
	ClassConstructor Class = "Constructor"
	ClassCollector   Class = "Collector"
	ClassProgression Class = "Progression"
	ClassTrader      Class = "Trader"
	ClassCard        Class = "Card"
)

// Effect is the modifier key a card contributes to.
type Effect string

const (
	EffectTapYield      Effect = "tapYieldMultiplier"
	EffectXPGain        Effect = "xpGainMultiplier"
	EffectBuildTime     Effect = "buildTimeMultiplier"
	EffectStorage       Effect = "storageCapacityBonus"
	EffectRareBias      Effect = "rareDropBias"
	EffectIdleChance    Effect = "idleResourceChance"
	EffectNuminsYield   Effect = "numinsYieldMultiplier"
	EffectCardDropBonus Effect = "cardDropChance"
)

// MaxTier is the highest tier a card can reach.
const MaxTier = 5

// Tier is one upgrade step of a card.
type Tier struct {
	CopiesRequired int     `json:"copies_required"`
	Value          float64 `json:"value"`
}

// Def is an immutable card definition.
type Def struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Class       Class         `json:"class"`
	Effect      Effect        `json:"effect"`
	Tiers       [MaxTier]Tier `json:"tiers"`
	Description string        `json:"description"`
}

// ValueAt returns the effect value at tier (1-based). Out-of-range tiers are clamped.
func (d Def) ValueAt(tier int) float64 {
	if tier < 1 {
		tier = 1
	}
	if tier > MaxTier {
		tier = MaxTier
	}
	return d.Tiers[tier-1].Value
}

// Owned is a player's copy of a card.
type Owned struct {
	ID     string `json:"id"`
	CardID string `json:"card_id"`
	Copies int    `json:"copies"`
	Tier   int    `json:"tier"`
}

// AddCopies adds n copies and applies every tier-up they pay for.
// It returns the number of tiers gained.
func (o *Owned) AddCopies(def Def, n int) int {
	if n > 0 {
		o.Copies += n
	}
	if o.Tier < 1 {
		o.Tier = 1
	}
	gained := 0
	for o.Tier < MaxTier {
		need := def.Tiers[o.Tier].CopiesRequired
		if need <= 0 || o.Copies < need {
			break
		}
		o.Copies -= need
		o.Tier++
		gained++
	}
	return gained
}

// Page is an app page that carries its own card slots.
type Page string

const (
	PageLocation     Page = "Location"
	PageShop         Page = "Shop"
	PageCards        Page = "Cards"
	PageResources    Page = "Resources"
	PageConstruction Page = "Construction"
)

// Pages lists every slotted page in display order.
var Pages = []Page{PageLocation, PageShop, PageCards, PageResources, PageConstruction}

// ParsePage converts a page name, case-insensitively.
func ParsePage(s string) (Page, bool) {
	for _, p := range Pages {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

// SlotsPerPage is the number of card slots on each page.
const SlotsPerPage = 4

// Slots holds the equipped card id of every slot on every page. Empty string means empty.
type Slots map[Page]*[SlotsPerPage]string

// NewSlots returns an empty slot set covering every page.
func NewSlots() Slots {
	s := make(Slots, len(Pages))
	for _, p := range Pages {
		s[p] = &[SlotsPerPage]string{}
	}
	return s
}

// Clone returns a deep copy.
func (s Slots) Clone() Slots {
	out := NewSlots()
	for p, arr := range s {
		if arr == nil {
			continue
		}
		cp := *arr
		out[p] = &cp
	}
	return out
}

// Equipped returns the non-empty card ids on a page.
func (s Slots) Equipped(p Page) []string {
	arr := s[p]
	if arr == nil {
		return nil
	}
	var ids []string
	for _, id := range arr {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Positions returns every "Page:slot" position a card currently occupies.
func (s Slots) Positions(cardID string) []string {
	var out []string
	for _, p := range Pages {
		arr := s[p]
		if arr == nil {
			continue
		}
		for i, id := range arr {
			if id == cardID {
				out = append(out, FormatPosition(p, i))
			}
		}
	}
	return out
}

// FormatPosition renders a slot position as "Page:index".
func FormatPosition(p Page, slot int) string {
	return fmt.Sprintf("%s:%d", p, slot)
}

// ParsePosition parses "Page:index". A bare page name returns slot -1.
func ParsePosition(s string) (Page, int, error) {
	name, idx, hasIdx := strings.Cut(s, ":")
	p, ok := ParsePage(strings.TrimSpace(name))
	if !ok {
		return "", 0, fmt.Errorf("unknown page %q", name)
	}
	if !hasIdx {
		return p, -1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil || n < 0 || n >= SlotsPerPage {
		return "", 0, fmt.Errorf("invalid slot in %q", s)
	}
	return p, n, nil
}
