// Package location defines the static star map: every visitable location and its drop table.
// This package is PURE and must NOT import any infrastructure packages.
package location

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
)

// Kind classifies a location on the star map.
type Kind string

const (
	KindPlanet  Kind = "planet"
	KindMoon    Kind = "moon"
	KindStar    Kind = "star"
	KindShip    Kind = "ship"
	KindDwarf   Kind = "dwarf"
	KindRogue   Kind = "rogue"
	KindAnomaly Kind = "anomaly"
)

const (
	// StartingID is where every new player begins.
	StartingID = "taragam-7"
	// CardLocationID is the only location where taps can drop cards.
	CardLocationID = "relic-archive"
)

// Location is an immutable star-map entry.
type Location struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	System             string          `json:"system"`
	Kind               Kind            `json:"kind"`
	Resources          []resource.Type `json:"resources"`
	UnlockRequirements []string        `json:"unlock_requirements,omitempty"`
}

// Catalog contains all locations, keyed by id.
var Catalog = map[string]Location{
	"taragam-7": {
		ID:          "taragam-7",
		Name:        "Taragam-7",
		Description: "A dusty frontier world and the first landing site of every new commander.",
		System:      "Taragon",
		Kind:        KindPlanet,
		Resources: []resource.Type{
			resource.IronOre, resource.Silicon, resource.WaterIce, resource.Carbon, resource.CopperOre,
			resource.NickelOre, resource.Quartz, resource.TitaniumOre, resource.Olivine, resource.Diamond,
		},
	},
	"taragam-3": {
		ID:          "taragam-3",
		Name:        "Taragam-3",
		Description: "A cracked rocky world scarred by ancient impacts.",
		System:      "Taragon",
		Kind:        KindPlanet,
		Resources: []resource.Type{
			resource.Basalt, resource.Regolith, resource.Sulfur, resource.IronOre, resource.Magnesium,
			resource.ZincOre, resource.Obsidian, resource.CobaltOre, resource.Topaz, resource.PlatinumOre,
		},
		UnlockRequirements: []string{"Iron Ore: 100", "Silicon: 50"},
	},
	"elcinto": {
		ID:          "elcinto",
		Name:        "Elcinto",
		Description: "Taragam-7's pale moon, rich in frozen volatiles.",
		System:      "Taragon",
		Kind:        KindMoon,
		Resources: []resource.Type{
			resource.Regolith, resource.WaterIce, resource.Dust, resource.Silicon, resource.Helium3,
			resource.AluminumOre, resource.NitrogenIce, resource.Pumice, resource.Amethyst, resource.Sapphire,
		},
		UnlockRequirements: []string{"Water Ice: 75", "Titanium Ore: 25"},
	},
	"abandoned-star-ship": {
		ID:          "abandoned-star-ship",
		Name:        "Abandoned Star Ship",
		Description: "A derelict cruiser drifting in a slow tumble. Its holds were never emptied.",
		System:      "Taragon",
		Kind:        KindShip,
		Resources: []resource.Type{
			resource.ScrapMetal, resource.HullFragment, resource.DamagedCircuit, resource.Wire, resource.Coolant,
			resource.FuelCell, resource.Battery, resource.DataCore, resource.Microchip, resource.AncientTech,
		},
		UnlockRequirements: []string{"Steel: 10", "Circuit: 5"},
	},
	"taragon-beta": {
		ID:          "taragon-beta",
		Name:        "Taragon Beta",
		Description: "The system's orange dwarf star. Collectors work the corona in shielded skiffs.",
		System:      "Taragon",
		Kind:        KindStar,
		Resources: []resource.Type{
			resource.Plasma, resource.Hydrogen, resource.Helium, resource.StellarDust, resource.IonStream,
			resource.CoronaFilament, resource.FlareFragment, resource.Photonite, resource.GammaCrystal, resource.QuarkMatter,
		},
		UnlockRequirements: []string{"Power Cell: 10", "Plating: 20"},
	},
	"xeno-fen": {
		ID:          "xeno-fen",
		Name:        "Xeno Fen",
		Description: "A humid swamp world teeming with glowing life.",
		System:      "Gliese",
		Kind:        KindPlanet,
		Resources: []resource.Type{
			resource.Biomass, resource.Algae, resource.Spores, resource.Fungus, resource.Seeds,
			resource.Water, resource.Resin, resource.Chitin, resource.Amber, resource.BioGel,
		},
		UnlockRequirements: []string{"Glass: 20", "Polymer: 10"},
	},
	"vulcara": {
		ID:          "vulcara",
		Name:        "Vulcara",
		Description: "Rivers of lava carve through fields of black glass.",
		System:      "Gliese",
		Kind:        KindPlanet,
		Resources: []resource.Type{
			resource.Basalt, resource.Obsidian, resource.Sulfur, resource.Magnesium, resource.IronOre,
			resource.Pumice, resource.Ruby, resource.TungstenOre, resource.UraniumOre, resource.Diamond,
		},
		UnlockRequirements: []string{"Ceramic: 15", "Coolant: 10"},
	},
	"glacius": {
		ID:          "glacius",
		Name:        "Glacius",
		Description: "An ice moon with a salty ocean under kilometres of crust.",
		System:      "Gliese",
		Kind:        KindMoon,
		Resources: []resource.Type{
			resource.WaterIce, resource.NitrogenIce, resource.AmmoniaIce, resource.Brine, resource.Methane,
			resource.LiquidMethane, resource.Ammonia, resource.Bacteria, resource.Opal, resource.Fossil,
		},
		UnlockRequirements: []string{"Fuel: 20", "Sensor: 5"},
	},
	"helix-major": {
		ID:          "helix-major",
		Name:        "Helix Major",
		Description: "A banded gas giant. Scoops dive into its upper layers for volatile gases.",
		System:      "Gliese",
		Kind:        KindPlanet,
		Resources: []resource.Type{
			resource.Hydrogen, resource.Helium, resource.Methane, resource.Ammonia, resource.Neon,
			resource.Argon, resource.Deuterium, resource.Helium3, resource.Xenon, resource.ExoticMatter,
		},
		UnlockRequirements: []string{"Thruster Nozzle: 2", "Hull Panel: 4"},
	},
	"kepler-dwarf": {
		ID:          "kepler-dwarf",
		Name:        "Kepler Dwarf",
		Description: "A dwarf planet peppered with metallic meteorites.",
		System:      "Kepler",
		Kind:        KindDwarf,
		Resources: []resource.Type{
			resource.Regolith, resource.Dust, resource.IronMeteorite, resource.Chondrite, resource.Meteorite,
			resource.NickelOre, resource.GoldOre, resource.SilverOre, resource.LithiumOre, resource.ThoriumOre,
		},
		UnlockRequirements: []string{"Alloy: 10", "Magnet: 5"},
	},
	"outpost-delta": {
		ID:          "outpost-delta",
		Name:        "Outpost Delta",
		Description: "A trading station where crews swap spare parts and supplies.",
		System:      "Kepler",
		Kind:        KindShip,
		Resources: []resource.Type{
			resource.ScrapMetal, resource.Polymer, resource.Glass, resource.Wire, resource.Battery,
			resource.Coolant, resource.FuelCell, resource.Gear, resource.Magnet, resource.Ceramic,
		},
		UnlockRequirements: []string{"Numins: 500"},
	},
	"nomad": {
		ID:          "nomad",
		Name:        "Nomad",
		Description: "A rogue planet wandering between stars in perpetual night.",
		System:      "Interstellar",
		Kind:        KindRogue,
		Resources: []resource.Type{
			resource.NitrogenIce, resource.Carbon, resource.Graphite, resource.Dust, resource.Methane,
			resource.Enzymes, resource.Sand, resource.Emerald, resource.Jade, resource.VoidEssence,
		},
		UnlockRequirements: []string{"Graphene: 5", "Processor: 2"},
	},
	"magnetar-x1": {
		ID:          "magnetar-x1",
		Name:        "Magnetar X-1",
		Description: "A neutron star with a magnetic field strong enough to unmake atoms.",
		System:      "Interstellar",
		Kind:        KindStar,
		Resources: []resource.Type{
			resource.NeutronDust, resource.Plasma, resource.MagnetarShard, resource.IonStream, resource.GravitonShard,
			resource.Photonite, resource.GammaCrystal, resource.QuantumFoam, resource.Tachyon, resource.Antimatter,
		},
		UnlockRequirements: []string{"Superconductor: 5", "Nanotubes: 5"},
	},
	"relic-archive": {
		ID:          "relic-archive",
		Name:        "Relic Archive",
		Description: "A vault hidden in a fold of space. Its shelves hold cards left by an older civilization.",
		System:      "Unknown",
		Kind:        KindAnomaly,
		Resources: []resource.Type{
			resource.RelicFragment, resource.AncientTech, resource.DataCore, resource.ChronoDust, resource.Nullstone,
			resource.Amber, resource.Fossil, resource.Opal, resource.TimeCrystal, resource.SingularityFragment,
		},
		UnlockRequirements: []string{"Relic Fragment: 1", "Data Core: 10"},
	},
	"the-rift": {
		ID:          "the-rift",
		Name:        "The Rift",
		Description: "A wound in spacetime. Instruments disagree about which way is forward.",
		System:      "Unknown",
		Kind:        KindAnomaly,
		Resources: []resource.Type{
			resource.VoidEssence, resource.ChronoDust, resource.QuantumFoam, resource.Nullstone, resource.DarkMatter,
			resource.TimeCrystal, resource.Tachyon, resource.SingularityFragment, resource.ExoticMatter, resource.GravitonShard,
		},
		UnlockRequirements: []string{"Antimatter: 5", "Time Crystal: 5"},
	},
}

// Get returns the location with the given id.
func Get(id string) (Location, bool) {
	loc, ok := Catalog[id]
	return loc, ok
}

// IDs returns every location id in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(Catalog))
	for id := range Catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Requirement is one parsed unlock requirement.
type Requirement struct {
	Resource resource.Type
	Amount   float64
}

// ParseRequirement parses a "ResourceName: amount" string.
func ParseRequirement(s string) (Requirement, error) {
	name, amount, ok := strings.Cut(s, ":")
	if !ok {
		return Requirement{}, fmt.Errorf("malformed requirement %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
	if err != nil {
		return Requirement{}, fmt.Errorf("malformed requirement amount %q: %w", s, err)
	}
	return Requirement{Resource: resource.Type(strings.TrimSpace(name)), Amount: v}, nil
}

// Requirements parses every unlock requirement of the location, skipping malformed entries.
func (l Location) Requirements() []Requirement {
	out := make([]Requirement, 0, len(l.UnlockRequirements))
	for _, raw := range l.UnlockRequirements {
		req, err := ParseRequirement(raw)
		if err != nil {
			continue
		}
		out = append(out, req)
	}
	return out
}
