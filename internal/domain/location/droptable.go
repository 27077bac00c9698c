package location

import "github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"

// DropTableSize is the number of entries in every location's drop table.
const DropTableSize = 10

// DropPercentages is the fixed probability series assigned to a location's resources, in order.
var DropPercentages = [DropTableSize]float64{30, 20, 15, 10, 8, 6, 5, 3, 2, 1}

// Common, uncommon and rare bands of a drop table, by index.
const (
	CommonCount   = 4
	UncommonCount = 3
	RareCount     = 3
)

// Drop is one weighted entry of a drop table.
type Drop struct {
	Resource resource.Type `json:"resource"`
	Percent  float64       `json:"percent"`
}

// DropTable returns the base drop table of a location.
// An unknown location or one without exactly DropTableSize resources yields an empty table.
func DropTable(id string) []Drop {
	loc, ok := Catalog[id]
	if !ok || len(loc.Resources) != DropTableSize {
		return nil
	}
	table := make([]Drop, DropTableSize)
	for i, r := range loc.Resources {
		table[i] = Drop{Resource: r, Percent: DropPercentages[i]}
	}
	return table
}
