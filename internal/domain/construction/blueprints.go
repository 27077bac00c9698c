package construction

import (
	"sort"

	r "github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
)

// Catalog contains every blueprint, keyed by id.
var Catalog = map[string]Blueprint{
	// Small bay
	"iron-ingot": {
		ID: "iron-ingot", Name: "Iron Ingot", Description: "Smelt raw ore into workable ingots.",
		Duration: 30, Size: SizeSmall, XPReward: 2, CurrencyCost: 5,
		Cost:   map[r.Type]float64{r.IronOre: 10, r.Carbon: 2},
		Reward: map[r.Type]float64{r.IronIngot: 2},
	},
	"copper-wire": {
		ID: "copper-wire", Name: "Copper Wire", Description: "Draw copper into conductive wire.",
		Duration: 45, Size: SizeSmall, XPReward: 3, CurrencyCost: 10,
		Cost:   map[r.Type]float64{r.CopperOre: 8},
		Reward: map[r.Type]float64{r.Wire: 4},
	},
	"glass-pane": {
		ID: "glass-pane", Name: "Glass Pane", Description: "Fuse silicon and quartz into clear panes.",
		Duration: 40, Size: SizeSmall, XPReward: 3, CurrencyCost: 10,
		Cost:   map[r.Type]float64{r.Silicon: 6, r.Quartz: 2},
		Reward: map[r.Type]float64{r.Glass: 2},
	},
	"polymer-sheet": {
		ID: "polymer-sheet", Name: "Polymer Sheet", Description: "Crack hydrocarbons into flexible polymer.",
		Duration: 60, Size: SizeSmall, XPReward: 4, CurrencyCost: 15,
		Cost:   map[r.Type]float64{r.Carbon: 6, r.WaterIce: 4},
		Reward: map[r.Type]float64{r.Polymer: 2},
	},
	"basic-battery": {
		ID: "basic-battery", Name: "Basic Battery", Description: "A simple nickel cell for field equipment.",
		Duration: 90, Size: SizeSmall, XPReward: 5, CurrencyCost: 20,
		Cost:   map[r.Type]float64{r.NickelOre: 5, r.CopperOre: 3},
		Reward: map[r.Type]float64{r.Battery: 1},
	},
	"steel-plate": {
		ID: "steel-plate", Name: "Steel Plate", Description: "Fold carbon into iron for hardened steel.",
		Duration: 120, Size: SizeSmall, XPReward: 6, CurrencyCost: 25,
		Cost:   map[r.Type]float64{r.IronIngot: 2, r.Carbon: 4},
		Reward: map[r.Type]float64{r.Steel: 2},
	},

	// Medium bay
	"circuit-board": {
		ID: "circuit-board", Name: "Circuit Board", Description: "Etch conductive traces onto silicon.",
		Duration: 180, Size: SizeMedium, XPReward: 10, CurrencyCost: 50,
		Cost:   map[r.Type]float64{r.Wire: 4, r.Silicon: 4, r.Polymer: 1},
		Reward: map[r.Type]float64{r.Circuit: 2},
	},
	"power-cell": {
		ID: "power-cell", Name: "Power Cell", Description: "Stack batteries into a dense power cell.",
		Duration: 240, Size: SizeMedium, XPReward: 12, CurrencyCost: 60,
		Cost:   map[r.Type]float64{r.Battery: 2, r.Wire: 2},
		Reward: map[r.Type]float64{r.PowerCell: 1},
	},
	"sensor-array": {
		ID: "sensor-array", Name: "Sensor Array", Description: "Calibrated optics for long-range scanning.",
		Duration: 300, Size: SizeMedium, XPReward: 15, CurrencyCost: 75,
		Cost:   map[r.Type]float64{r.Glass: 2, r.Circuit: 1, r.Quartz: 3},
		Reward: map[r.Type]float64{r.Sensor: 1, r.Lens: 1},
	},
	"carbon-fiber": {
		ID: "carbon-fiber", Name: "Carbon Fiber", Description: "Weave carbon into a light, strong composite.",
		Duration: 240, Size: SizeMedium, XPReward: 12, CurrencyCost: 50,
		Cost:   map[r.Type]float64{r.Carbon: 12, r.Polymer: 2},
		Reward: map[r.Type]float64{r.CarbonFiber: 2},
	},
	"titanium-plating": {
		ID: "titanium-plating", Name: "Titanium Plating", Description: "Armor plates for hulls and habitats.",
		Duration: 300, Size: SizeMedium, XPReward: 15, CurrencyCost: 80,
		Cost:   map[r.Type]float64{r.TitaniumOre: 8, r.Steel: 2},
		Reward: map[r.Type]float64{r.TitaniumIngot: 1, r.Plating: 2},
	},
	"magnet-coil": {
		ID: "magnet-coil", Name: "Magnet Coil", Description: "Wind wire around a cobalt core.",
		Duration: 200, Size: SizeMedium, XPReward: 10, CurrencyCost: 40,
		Cost:   map[r.Type]float64{r.Wire: 6, r.CobaltOre: 2},
		Reward: map[r.Type]float64{r.Magnet: 2},
	},

	// Large bay
	"superconductor": {
		ID: "superconductor", Name: "Superconductor", Description: "Zero-resistance conductor for advanced drives.",
		Duration: 600, Size: SizeLarge, XPReward: 40, CurrencyCost: 250,
		Cost:   map[r.Type]float64{r.Magnet: 2, r.PowerCell: 1, r.Diamond: 1},
		Reward: map[r.Type]float64{r.Superconductor: 1},
	},
	"processor": {
		ID: "processor", Name: "Processor", Description: "A shipboard compute core.",
		Duration: 720, Size: SizeLarge, XPReward: 45, CurrencyCost: 300,
		Cost:   map[r.Type]float64{r.Circuit: 4, r.Microchip: 2, r.Glass: 2},
		Reward: map[r.Type]float64{r.Processor: 1},
	},
	"hull-panel": {
		ID: "hull-panel", Name: "Hull Panel", Description: "A pressure-rated section of starship hull.",
		Duration: 540, Size: SizeLarge, XPReward: 35, CurrencyCost: 200,
		Cost:   map[r.Type]float64{r.Plating: 4, r.CarbonFiber: 2, r.Steel: 4},
		Reward: map[r.Type]float64{r.HullPanel: 1},
	},
	"thruster-nozzle": {
		ID: "thruster-nozzle", Name: "Thruster Nozzle", Description: "A heat-resistant nozzle for orbital thrusters.",
		Duration: 900, Size: SizeLarge, XPReward: 60, CurrencyCost: 400,
		Cost:   map[r.Type]float64{r.TitaniumIngot: 2, r.Ceramic: 4, r.PowerCell: 1},
		Reward: map[r.Type]float64{r.ThrusterNozzle: 1, r.Fuel: 5},
	},
}

// Get returns the blueprint with the given id.
func Get(id string) (Blueprint, bool) {
	bp, ok := Catalog[id]
	return bp, ok
}

// All returns every blueprint ordered by bay size and then by duration.
func All() []Blueprint {
	order := map[Size]int{SizeSmall: 0, SizeMedium: 1, SizeLarge: 2}
	out := make([]Blueprint, 0, len(Catalog))
	for _, bp := range Catalog {
		out = append(out, bp)
	}
	sort.Slice(out, func(i, j int) bool {
		if order[out[i].Size] != order[out[j].Size] {
			return order[out[i].Size] < order[out[j].Size]
		}
		if out[i].Duration != out[j].Duration {
			return out[i].Duration < out[j].Duration
		}
		return out[i].ID < out[j].ID
	})
	return out
}
