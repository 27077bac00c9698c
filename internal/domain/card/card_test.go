package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDef() Def {
	return Def{ID: "t", Effect: EffectTapYield, Tiers: tiers(0.1, 0.2, 0.3, 0.4, 0.5)}
}

func TestAddCopiesSingleTierUp(t *testing.T) {
	o := &Owned{CardID: "t", Tier: 1}
	gained := o.AddCopies(testDef(), 5)

	// 5 copies pay the tier-2 threshold (2) but not tier 3 (5 more).
	assert.Equal(t, 1, gained)
	assert.Equal(t, 2, o.Tier)
	assert.Equal(t, 3, o.Copies)
}

func TestAddCopiesCascades(t *testing.T) {
	o := &Owned{CardID: "t", Tier: 1}
	gained := o.AddCopies(testDef(), 2+5+10)

	assert.Equal(t, 3, gained)
	assert.Equal(t, 4, o.Tier)
	assert.Equal(t, 0, o.Copies)
}

func TestAddCopiesStopsAtMaxTier(t *testing.T) {
	o := &Owned{CardID: "t", Tier: 1}
	o.AddCopies(testDef(), 1000)

	assert.Equal(t, MaxTier, o.Tier)
	assert.Equal(t, 1000-(2+5+10+20), o.Copies)
	assert.GreaterOrEqual(t, o.Copies, 0)
}

func TestValueAtClamps(t *testing.T) {
	d := testDef()
	assert.Equal(t, 0.1, d.ValueAt(0))
	assert.Equal(t, 0.3, d.ValueAt(3))
	assert.Equal(t, 0.5, d.ValueAt(9))
}

func TestSlots(t *testing.T) {
	s := NewSlots()
	s[PageLocation][0] = "deep-scanner"
	s[PageResources][3] = "deep-scanner"

	assert.Equal(t, []string{"deep-scanner"}, s.Equipped(PageLocation))
	assert.Equal(t, []string{"Location:0", "Resources:3"}, s.Positions("deep-scanner"))

	clone := s.Clone()
	clone[PageLocation][0] = ""
	assert.Equal(t, "deep-scanner", s[PageLocation][0])
}

func TestParsePosition(t *testing.T) {
	p, slot, err := ParsePosition("Construction:2")
	require.NoError(t, err)
	assert.Equal(t, PageConstruction, p)
	assert.Equal(t, 2, slot)

	p, slot, err = ParsePosition("location")
	require.NoError(t, err)
	assert.Equal(t, PageLocation, p)
	assert.Equal(t, -1, slot)

	_, _, err = ParsePosition("Location:7")
	assert.Error(t, err)
	_, _, err = ParsePosition("Bridge:0")
	assert.Error(t, err)
}

func TestCatalogPoolIsKnown(t *testing.T) {
	for _, id := range LocationPool {
		_, ok := Get(id)
		assert.True(t, ok, id)
	}
}
