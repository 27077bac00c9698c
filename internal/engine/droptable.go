package engine

import (
	"math"
	"math/rand"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/location"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
)

// SelectFromTable picks one resource from a weighted table by drawing in [0,100).
// It reports false only for an empty table.
func SelectFromTable(table []location.Drop, rng *rand.Rand) (resource.Type, bool) {
	if len(table) == 0 {
		return "", false
	}
	return selectWithDraw(table, rng.Float64()*100), true
}

// selectWithDraw walks the cumulative percentages. If rounding leaves the draw past the
// last boundary, the first entry wins.
func selectWithDraw(table []location.Drop, draw float64) resource.Type {
	cumulative := 0.0
	for _, d := range table {
		cumulative += d.Percent
		if draw < cumulative {
			return d.Resource
		}
	}
	return table[0].Resource
}

// ApplyRareBias moves bias*3 percentage points from the common band to the rare band.
// Commons never go below zero and only the mass actually removed is handed out.
func ApplyRareBias(table []location.Drop, bias float64) []location.Drop {
	out := append([]location.Drop(nil), table...)
	if bias <= 0 || len(out) != location.DropTableSize {
		return out
	}
	perCommon := bias * 3 / location.CommonCount
	removed := 0.0
	for i := 0; i < location.CommonCount; i++ {
		take := math.Min(perCommon, out[i].Percent)
		out[i].Percent -= take
		removed += take
	}
	perRare := removed / location.RareCount
	for i := location.DropTableSize - location.RareCount; i < location.DropTableSize; i++ {
		out[i].Percent += perRare
	}
	return out
}

// DropTable returns a location's table with the current rare bias applied.
func (e *Engine) DropTable(locationID string) []location.Drop {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modifiedDropTable(locationID)
}

func (e *Engine) modifiedDropTable(locationID string) []location.Drop {
	return ApplyRareBias(location.DropTable(locationID), e.modifiers().RareBias)
}
