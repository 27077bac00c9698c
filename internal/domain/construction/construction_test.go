package construction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
)

func TestDefaultBays(t *testing.T) {
	bays := DefaultBays()
	require.Len(t, bays, SmallBays+MediumBays+LargeBays)

	counts := map[Size]int{}
	unlocked := 0
	for _, b := range bays {
		counts[b.Size]++
		if b.IsUnlocked {
			unlocked++
			assert.Equal(t, "small-bay-1", b.ID)
		}
	}
	assert.Equal(t, 4, counts[SizeSmall])
	assert.Equal(t, 3, counts[SizeMedium])
	assert.Equal(t, 2, counts[SizeLarge])
	assert.Equal(t, 1, unlocked)
}

func TestBlueprintCatalogIsConsistent(t *testing.T) {
	assert.Len(t, Catalog, 16)
	for id, bp := range Catalog {
		assert.Equal(t, id, bp.ID)
		assert.Positive(t, bp.Duration, id)
		assert.NotEmpty(t, bp.Reward, id)
		for ty := range bp.Cost {
			assert.True(t, resource.IsKnown(ty), "%s costs unknown %s", id, ty)
		}
		for ty := range bp.Reward {
			assert.True(t, resource.IsKnown(ty), "%s rewards unknown %s", id, ty)
		}
	}
}

func TestConstructionAdvance(t *testing.T) {
	c := Construction{TimeRemaining: 4, Duration: 4}
	for i := 0; i < 2; i++ {
		c.Advance()
	}
	assert.Equal(t, 2, c.TimeRemaining)
	assert.InDelta(t, 0.5, c.Progress, 1e-9)
	assert.False(t, c.IsComplete())

	for i := 0; i < 5; i++ {
		c.Advance()
	}
	assert.Equal(t, 0, c.TimeRemaining)
	assert.Equal(t, 1.0, c.Progress)
	assert.True(t, c.IsComplete())
}

func TestParseSize(t *testing.T) {
	s, ok := ParseSize("Medium")
	assert.True(t, ok)
	assert.Equal(t, SizeMedium, s)

	_, ok = ParseSize("huge")
	assert.False(t, ok)
}
