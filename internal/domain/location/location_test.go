package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
)

func TestEveryLocationHasAFullDropTable(t *testing.T) {
	for id := range Catalog {
		table := DropTable(id)
		require.Len(t, table, DropTableSize, "location %s", id)

		sum := 0.0
		for _, d := range table {
			sum += d.Percent
			assert.True(t, resource.IsKnown(d.Resource), "location %s drops unknown resource %q", id, d.Resource)
		}
		assert.InDelta(t, 100.0, sum, 1e-9, "location %s", id)
	}
}

func TestDropTableUnknownLocationIsEmpty(t *testing.T) {
	assert.Empty(t, DropTable("nowhere"))
}

func TestSpecialLocationsExist(t *testing.T) {
	_, ok := Get(StartingID)
	assert.True(t, ok)
	_, ok = Get(CardLocationID)
	assert.True(t, ok)
}

func TestParseRequirement(t *testing.T) {
	req, err := ParseRequirement("Iron Ore: 100")
	require.NoError(t, err)
	assert.Equal(t, resource.IronOre, req.Resource)
	assert.Equal(t, 100.0, req.Amount)

	_, err = ParseRequirement("Energy 200")
	assert.Error(t, err)

	_, err = ParseRequirement("Energy: lots")
	assert.Error(t, err)
}

func TestUnlockRequirementsReferenceCatalogResources(t *testing.T) {
	for id, loc := range Catalog {
		for _, req := range loc.Requirements() {
			assert.True(t, resource.IsKnown(req.Resource), "location %s requires unknown %q", id, req.Resource)
		}
	}
}
