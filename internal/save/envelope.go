// Package save turns engine state into versioned JSON envelopes and back, migrates older
// blobs, and keeps the primary save slot and its rolling backups in a blob store.
package save

import (
	"math"
	"time"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/card"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/construction"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/location"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/progression"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
	"github.com/MRamiBalles/UniverseRPG/server/internal/engine"
)

// CurrentVersion is the envelope version written by this build.
const CurrentVersion = "1.0.0"

// Envelope is the persisted form of a game. Field names are part of the save format.
type Envelope struct {
	Version           string           `json:"version"`
	PlayerName        string           `json:"playerName"`
	PlayerLevel       int              `json:"playerLevel"`
	PlayerXP          int64            `json:"playerXP"`
	Currency          int64            `json:"currency"`
	CurrentLocationID string           `json:"currentLocationId"`
	Resources         []ResourceRecord `json:"resources"`
	ConstructionBays  []BayRecord      `json:"constructionBays"`
	OwnedCards        []CardRecord     `json:"ownedCards"`

	CurrentLocationTapCount      int            `json:"currentLocationTapCount"`
	LocationTapCounts            map[string]int `json:"locationTapCounts"`
	TotalTapsCount               int            `json:"totalTapsCount"`
	TotalXPGained                int64          `json:"totalXPGained"`
	LocationIdleCollectionCounts map[string]int `json:"locationIdleCollectionCounts"`
	TotalIdleCollectionCount     int            `json:"totalIdleCollectionCount"`
	TotalNuminsCollected         int64          `json:"totalNuminsCollected"`
	TotalConstructionsCompleted  int            `json:"totalConstructionsCompleted"`
	SmallConstructionsCompleted  int            `json:"smallConstructionsCompleted"`
	MediumConstructionsCompleted int            `json:"mediumConstructionsCompleted"`
	LargeConstructionsCompleted  int            `json:"largeConstructionsCompleted"`

	MaxStorageCapacity int       `json:"maxStorageCapacity"`
	CurrentPage        string    `json:"currentPage"`
	LastSaved          time.Time `json:"lastSaved"`
}

// ResourceRecord is one held resource.
type ResourceRecord struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

// BayRecord is one construction bay.
type BayRecord struct {
	ID                  string              `json:"id"`
	Size                string              `json:"size"`
	CurrentConstruction *ConstructionRecord `json:"currentConstruction,omitempty"`
	IsUnlocked          bool                `json:"isUnlocked"`
}

// ConstructionRecord is a build in progress. Older saves name the blueprint recipeId.
type ConstructionRecord struct {
	ID            string  `json:"id"`
	BlueprintID   string  `json:"blueprintId,omitempty"`
	RecipeID      string  `json:"recipeId,omitempty"`
	TimeRemaining float64 `json:"timeRemaining"`
	Progress      float64 `json:"progress"`
	Duration      int     `json:"duration,omitempty"`
}

// blueprint returns whichever blueprint id the record carries.
func (c ConstructionRecord) blueprint() string {
	if c.BlueprintID != "" {
		return c.BlueprintID
	}
	return c.RecipeID
}

// CardRecord is one owned card and the slots it occupies, as "Page:slot" strings.
type CardRecord struct {
	ID        string   `json:"id"`
	CardID    string   `json:"cardId"`
	Copies    int      `json:"copies"`
	Tier      int      `json:"tier"`
	SlottedOn []string `json:"slottedOn"`
}

// FromState captures a state snapshot as a current-version envelope.
func FromState(st *engine.State, savedAt time.Time) *Envelope {
	env := &Envelope{
		Version:           CurrentVersion,
		PlayerName:        st.PlayerName,
		PlayerLevel:       st.Level,
		PlayerXP:          st.XP,
		Currency:          st.Currency,
		CurrentLocationID: st.CurrentLocationID,
		Resources:         make([]ResourceRecord, 0, len(st.Resources)),
		ConstructionBays:  make([]BayRecord, 0, len(st.Bays)),
		OwnedCards:        make([]CardRecord, 0, len(st.Cards)),

		CurrentLocationTapCount:      st.Stats.CurrentLocationTapCount,
		LocationTapCounts:            copyCounts(st.Stats.LocationTapCounts),
		TotalTapsCount:               st.Stats.TotalTaps,
		TotalXPGained:                st.Stats.TotalXPGained,
		LocationIdleCollectionCounts: copyCounts(st.Stats.LocationIdleCollectionCounts),
		TotalIdleCollectionCount:     st.Stats.TotalIdleCollections,
		TotalNuminsCollected:         st.Stats.TotalNuminsCollected,
		TotalConstructionsCompleted:  st.Stats.TotalConstructions,
		SmallConstructionsCompleted:  st.Stats.SmallConstructions,
		MediumConstructionsCompleted: st.Stats.MediumConstructions,
		LargeConstructionsCompleted:  st.Stats.LargeConstructions,

		MaxStorageCapacity: st.BaseStorageCapacity,
		CurrentPage:        string(st.CurrentPage),
		LastSaved:          savedAt.UTC(),
	}
	for _, r := range st.Resources {
		env.Resources = append(env.Resources, ResourceRecord{Type: string(r.Type), Amount: r.Amount})
	}
	for _, b := range st.Bays {
		rec := BayRecord{ID: b.ID, Size: string(b.Size), IsUnlocked: b.IsUnlocked}
		if b.Current != nil {
			rec.CurrentConstruction = &ConstructionRecord{
				ID:            b.Current.ID,
				BlueprintID:   b.Current.BlueprintID,
				TimeRemaining: float64(b.Current.TimeRemaining),
				Progress:      b.Current.Progress,
				Duration:      b.Current.Duration,
			}
		}
		env.ConstructionBays = append(env.ConstructionBays, rec)
	}
	for _, c := range st.Cards {
		slotted := st.Slots.Positions(c.CardID)
		if slotted == nil {
			slotted = []string{}
		}
		env.OwnedCards = append(env.OwnedCards, CardRecord{
			ID: c.ID, CardID: c.CardID, Copies: c.Copies, Tier: c.Tier, SlottedOn: slotted,
		})
	}
	return env
}

// ToState rebuilds engine state from an envelope. Records naming unknown resources, bay sizes,
// blueprints or cards are skipped and reported so a catalog change never blocks a load.
func (env *Envelope) ToState(baseCapacity int) (*engine.State, []string) {
	var skipped []string
	st := engine.NewState(env.PlayerName, baseCapacity)

	st.Level = clampInt(env.PlayerLevel, 0, progression.MaxLevel)
	st.XP = maxInt64(env.PlayerXP, 0)
	st.Currency = maxInt64(env.Currency, 0)
	if env.MaxStorageCapacity > 0 {
		st.BaseStorageCapacity = env.MaxStorageCapacity
	}
	if _, ok := location.Get(env.CurrentLocationID); ok {
		st.CurrentLocationID = env.CurrentLocationID
	} else if env.CurrentLocationID != "" {
		skipped = append(skipped, "location "+env.CurrentLocationID)
	}
	st.CurrentPage = restorePage(env.CurrentPage)
	st.LastSaved = env.LastSaved

	// Repeated records of one type merge into a single stack.
	stackIdx := make(map[resource.Type]int, len(env.Resources))
	for _, r := range env.Resources {
		t, ok := resource.Parse(r.Type)
		if !ok || r.Amount < 0 || math.IsNaN(r.Amount) {
			skipped = append(skipped, "resource "+r.Type)
			continue
		}
		if i, seen := stackIdx[t]; seen {
			st.Resources[i].Amount += r.Amount
			continue
		}
		stackIdx[t] = len(st.Resources)
		st.Resources = append(st.Resources, resource.Stack{Type: t, Amount: r.Amount})
	}

	if len(env.ConstructionBays) > 0 {
		st.Bays = st.Bays[:0]
	}
	for _, b := range env.ConstructionBays {
		size, ok := construction.ParseSize(b.Size)
		if !ok || b.ID == "" {
			skipped = append(skipped, "bay "+b.ID)
			continue
		}
		bay := construction.Bay{ID: b.ID, Size: size, IsUnlocked: b.IsUnlocked}
		if c := b.CurrentConstruction; c != nil {
			if built, ok := restoreConstruction(*c); ok {
				bay.Current = built
			} else {
				skipped = append(skipped, "construction "+c.blueprint())
			}
		}
		st.Bays = append(st.Bays, bay)
	}
	if len(st.Bays) == 0 {
		st.Bays = construction.DefaultBays()
	}

	for _, c := range env.OwnedCards {
		if _, ok := card.Get(c.CardID); !ok {
			skipped = append(skipped, "card "+c.CardID)
			continue
		}
		st.Cards = append(st.Cards, card.Owned{
			ID:     c.ID,
			CardID: c.CardID,
			Copies: maxInt(c.Copies, 0),
			Tier:   clampInt(c.Tier, 1, card.MaxTier),
		})
		for _, pos := range c.SlottedOn {
			if !placeCard(st.Slots, c.CardID, pos) {
				skipped = append(skipped, "slot "+pos)
			}
		}
	}

	st.Stats = engine.Stats{
		CurrentLocationTapCount:      maxInt(env.CurrentLocationTapCount, 0),
		LocationTapCounts:            copyCounts(env.LocationTapCounts),
		TotalTaps:                    maxInt(env.TotalTapsCount, 0),
		TotalXPGained:                maxInt64(env.TotalXPGained, 0),
		LocationIdleCollectionCounts: copyCounts(env.LocationIdleCollectionCounts),
		TotalIdleCollections:         maxInt(env.TotalIdleCollectionCount, 0),
		TotalNuminsCollected:         maxInt64(env.TotalNuminsCollected, 0),
		TotalConstructions:           maxInt(env.TotalConstructionsCompleted, 0),
		SmallConstructions:           maxInt(env.SmallConstructionsCompleted, 0),
		MediumConstructions:          maxInt(env.MediumConstructionsCompleted, 0),
		LargeConstructions:           maxInt(env.LargeConstructionsCompleted, 0),
	}
	return st, skipped
}

// restorePage maps a saved page name. The location page has no navigation entry of its own,
// so it comes back as the star map.
func restorePage(name string) engine.Page {
	p, ok := engine.ParsePage(name)
	if !ok || p == engine.PageLocation {
		return engine.PageStarMap
	}
	return p
}

func restoreConstruction(c ConstructionRecord) (*construction.Construction, bool) {
	bp, ok := construction.Get(c.blueprint())
	if !ok {
		return nil, false
	}
	remaining := int(math.Ceil(c.TimeRemaining))
	if remaining < 0 || math.IsNaN(c.TimeRemaining) {
		remaining = 0
	}
	duration := c.Duration
	if duration <= 0 {
		duration = bp.Duration
	}
	if remaining > duration {
		duration = remaining
	}
	progress := c.Progress
	if progress < 0 || progress > 1 || math.IsNaN(progress) {
		progress = float64(duration-remaining) / float64(duration)
	}
	return &construction.Construction{
		ID:            c.ID,
		BlueprintID:   bp.ID,
		TimeRemaining: remaining,
		Progress:      progress,
		Duration:      duration,
	}, true
}

// placeCard puts a card at a "Page:slot" position. A bare page name takes the first empty slot.
func placeCard(slots card.Slots, cardID, pos string) bool {
	page, slot, err := card.ParsePosition(pos)
	if err != nil {
		return false
	}
	arr := slots[page]
	if slot >= 0 {
		arr[slot] = cardID
		return true
	}
	for i := range arr {
		if arr[i] == "" {
			arr[i] = cardID
			return true
		}
	}
	return false
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(v, lo int) int {
	if v < lo {
		return lo
	}
	return v
}

func maxInt64(v, lo int64) int64 {
	if v < lo {
		return lo
	}
	return v
}
