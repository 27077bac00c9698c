package engine

import (
	"time"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/card"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/construction"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/location"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
)

// Page is the app page the player is looking at. It is persisted but carries no game rules.
type Page string

const (
	PageStarMap      Page = "starMap"
	PageLocation     Page = "location"
	PageConstruction Page = "construction"
	PageResources    Page = "resources"
	PageCards        Page = "cards"
	PageShop         Page = "shop"
	PageProfile      Page = "profile"
)

var knownPages = map[Page]bool{
	PageStarMap: true, PageLocation: true, PageConstruction: true, PageResources: true,
	PageCards: true, PageShop: true, PageProfile: true,
}

// ParsePage converts a persisted page name.
func ParsePage(s string) (Page, bool) {
	p := Page(s)
	return p, knownPages[p]
}

// DefaultPlayerName is used when no name is known.
const DefaultPlayerName = "Commander"

// Stats holds the cumulative counters shown on the profile page.
type Stats struct {
	CurrentLocationTapCount      int            `json:"current_location_tap_count"`
	LocationTapCounts            map[string]int `json:"location_tap_counts"`
	TotalTaps                    int            `json:"total_taps"`
	TotalXPGained                int64          `json:"total_xp_gained"`
	LocationIdleCollectionCounts map[string]int `json:"location_idle_collection_counts"`
	TotalIdleCollections         int            `json:"total_idle_collections"`
	TotalNuminsCollected         int64          `json:"total_numins_collected"`
	TotalConstructions           int            `json:"total_constructions"`
	SmallConstructions           int            `json:"small_constructions"`
	MediumConstructions          int            `json:"medium_constructions"`
	LargeConstructions           int            `json:"large_constructions"`
}

// State is every piece of mutable player data.
type State struct {
	PlayerName          string             `json:"player_name"`
	Level               int                `json:"level"`
	XP                  int64              `json:"xp"`
	Currency            int64              `json:"currency"`
	BaseStorageCapacity int                `json:"base_storage_capacity"`
	CurrentLocationID   string             `json:"current_location_id"`
	CurrentPage         Page               `json:"current_page"`
	Resources           []resource.Stack   `json:"resources"`
	Bays                []construction.Bay `json:"bays"`
	Cards               []card.Owned       `json:"cards"`
	Slots               card.Slots         `json:"slots"`
	Stats               Stats              `json:"stats"`
	LastSaved           time.Time          `json:"last_saved"`
}

// NewState returns a fresh game for a player.
func NewState(playerName string, baseCapacity int) *State {
	if playerName == "" {
		playerName = DefaultPlayerName
	}
	return &State{
		PlayerName:          playerName,
		BaseStorageCapacity: baseCapacity,
		CurrentLocationID:   location.StartingID,
		CurrentPage:         PageStarMap,
		Resources:           []resource.Stack{},
		Bays:                construction.DefaultBays(),
		Cards:               []card.Owned{},
		Slots:               card.NewSlots(),
		Stats: Stats{
			LocationTapCounts:            map[string]int{},
			LocationIdleCollectionCounts: map[string]int{},
		},
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	out := *s
	out.Resources = append([]resource.Stack{}, s.Resources...)
	out.Cards = append([]card.Owned{}, s.Cards...)
	out.Bays = make([]construction.Bay, len(s.Bays))
	for i, b := range s.Bays {
		out.Bays[i] = b
		if b.Current != nil {
			c := *b.Current
			out.Bays[i].Current = &c
		}
	}
	if s.Slots != nil {
		out.Slots = s.Slots.Clone()
	} else {
		out.Slots = card.NewSlots()
	}
	out.Stats.LocationTapCounts = copyCounts(s.Stats.LocationTapCounts)
	out.Stats.LocationIdleCollectionCounts = copyCounts(s.Stats.LocationIdleCollectionCounts)
	return &out
}

// normalize fills every collection a partially built state may be missing.
func (s *State) normalize(baseCapacity int) {
	if s.PlayerName == "" {
		s.PlayerName = DefaultPlayerName
	}
	if s.BaseStorageCapacity <= 0 {
		s.BaseStorageCapacity = baseCapacity
	}
	if _, ok := location.Get(s.CurrentLocationID); !ok {
		s.CurrentLocationID = location.StartingID
	}
	if _, ok := knownPages[s.CurrentPage]; !ok {
		s.CurrentPage = PageStarMap
	}
	if s.Resources == nil {
		s.Resources = []resource.Stack{}
	}
	if len(s.Bays) == 0 {
		s.Bays = construction.DefaultBays()
	}
	if s.Cards == nil {
		s.Cards = []card.Owned{}
	}
	if s.Slots == nil {
		s.Slots = card.NewSlots()
	}
	for _, p := range card.Pages {
		if s.Slots[p] == nil {
			s.Slots[p] = &[card.SlotsPerPage]string{}
		}
	}
	if s.Stats.LocationTapCounts == nil {
		s.Stats.LocationTapCounts = map[string]int{}
	}
	if s.Stats.LocationIdleCollectionCounts == nil {
		s.Stats.LocationIdleCollectionCounts = map[string]int{}
	}
	if s.Level < 0 {
		s.Level = 0
	}
	if s.XP < 0 {
		s.XP = 0
	}
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Amount returns how much of t the player holds.
func (s *State) Amount(t resource.Type) float64 {
	for _, r := range s.Resources {
		if r.Type == t {
			return r.Amount
		}
	}
	return 0
}

// Card returns the owned record for a card definition id.
func (s *State) Card(cardID string) (card.Owned, bool) {
	for _, c := range s.Cards {
		if c.CardID == cardID {
			return c, true
		}
	}
	return card.Owned{}, false
}

// Bay returns the bay with the given id.
func (s *State) Bay(id string) (construction.Bay, bool) {
	for _, b := range s.Bays {
		if b.ID == id {
			return b, true
		}
	}
	return construction.Bay{}, false
}
