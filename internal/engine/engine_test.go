package engine

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/UniverseRPG/server/internal/config"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/card"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/location"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/progression"
	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/resource"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
)

// quietConfig disables every random bonus so tests opt in to what they exercise.
func quietConfig() config.Config {
	cfg := config.Default()
	cfg.Balance.IdleResourceChance = 0
	cfg.Balance.IdleNuminsChance = 0
	cfg.Balance.TapNuminsChance = 0
	cfg.Balance.TapXPChance = 0
	cfg.Balance.CardDropChance = 0
	return cfg
}

func newTestEngine(t *testing.T, cfg config.Config, opts ...Option) *Engine {
	t.Helper()
	n := 0
	opts = append([]Option{
		WithRand(rand.New(rand.NewSource(42))),
		WithIDGenerator(func() string {
			n++
			return "id-" + string(rune('a'+n-1))
		}),
		WithPlayerName("ana"),
	}, opts...)
	return NewEngine(cfg, events.NewEventLog(nil, 0), nil, opts...)
}

func withResources(t *testing.T, e *Engine, currency int64, stacks ...resource.Stack) {
	t.Helper()
	st := e.Snapshot()
	st.Resources = stacks
	st.Currency = currency
	if currency > 0 {
		st.Resources = append(st.Resources, resource.Stack{Type: resource.Numins, Amount: float64(currency)})
	}
	require.NoError(t, e.Apply(st))
}

func TestSelectFromTableMatchesPercentages(t *testing.T) {
	table := location.DropTable(location.StartingID)
	require.Len(t, table, location.DropTableSize)
	rng := rand.New(rand.NewSource(7))

	const draws = 100000
	counts := map[resource.Type]int{}
	for i := 0; i < draws; i++ {
		r, ok := SelectFromTable(table, rng)
		require.True(t, ok)
		counts[r]++
	}
	for _, d := range table {
		got := float64(counts[d.Resource]) / draws * 100
		assert.InDelta(t, d.Percent, got, 1.0, "%s", d.Resource)
	}
}

func TestSelectWithDrawBoundaries(t *testing.T) {
	table := location.DropTable(location.StartingID)
	assert.Equal(t, table[0].Resource, selectWithDraw(table, 0))
	assert.Equal(t, table[1].Resource, selectWithDraw(table, 30))
	assert.Equal(t, table[9].Resource, selectWithDraw(table, 99.5))
	assert.Equal(t, table[0].Resource, selectWithDraw(table, 100), "overflow falls back to the first entry")

	_, ok := SelectFromTable(nil, rand.New(rand.NewSource(1)))
	assert.False(t, ok)
}

func TestApplyRareBiasMovesMass(t *testing.T) {
	base := location.DropTable(location.StartingID)
	biased := ApplyRareBias(base, 0.5)

	sum := 0.0
	for _, d := range biased {
		sum += d.Percent
	}
	assert.InDelta(t, 100, sum, 1e-9)
	for i := 0; i < location.CommonCount; i++ {
		assert.InDelta(t, base[i].Percent-0.375, biased[i].Percent, 1e-9)
	}
	for i := 7; i < 10; i++ {
		assert.InDelta(t, base[i].Percent+0.5, biased[i].Percent, 1e-9)
	}
	assert.Equal(t, base[0].Percent, 30.0, "input table is not modified")
}

func TestApplyRareBiasClampsCommons(t *testing.T) {
	biased := ApplyRareBias(location.DropTable(location.StartingID), 100)
	sum := 0.0
	for i, d := range biased {
		assert.GreaterOrEqual(t, d.Percent, 0.0, "entry %d", i)
		sum += d.Percent
	}
	assert.InDelta(t, 100, sum, 1e-9)
	assert.Zero(t, biased[0].Percent)
}

func TestStochasticRound(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1, StochasticRound(1.0, rng))
		assert.Equal(t, 1, StochasticRound(0.5, rng))
		assert.Equal(t, 2, StochasticRound(2.0, rng))
		assert.Equal(t, 2, StochasticRound(1.1+0.2+0.3+0.4, rng))
	}

	const trials = 10000
	twos := 0
	for i := 0; i < trials; i++ {
		switch StochasticRound(1.5, rng) {
		case 1:
		case 2:
			twos++
		default:
			t.Fatal("Expected award of 1 or 2")
		}
	}
	assert.InDelta(t, trials/2, twos, 300)
}

func TestTapAwardsAndCounts(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	res := e.Tap()

	require.False(t, res.StorageFull)
	assert.Equal(t, 1, res.Amount)
	st := e.Snapshot()
	assert.Equal(t, 1.0, st.Amount(res.Resource))
	assert.Equal(t, 1, st.Stats.TotalTaps)
	assert.Equal(t, 1, st.Stats.CurrentLocationTapCount)
	assert.Equal(t, 1, st.Stats.LocationTapCounts[location.StartingID])

	assert.Len(t, e.EventLog().GetByType(events.EventTypeTapCollected), 1)
	assert.Len(t, e.EventLog().GetByType(events.EventTypeSaveRequested), 1)
}

func TestTapNeverExceedsCapacity(t *testing.T) {
	cfg := quietConfig()
	cfg.Balance.BaseStorageCapacity = 5
	cfg.Balance.TapNuminsChance = 1
	e := newTestEngine(t, cfg)

	full := 0
	for i := 0; i < 50; i++ {
		if e.Tap().StorageFull {
			full++
		}
		assert.LessOrEqual(t, e.Storage().Used, 5)
	}
	assert.Equal(t, 45, full)
	assert.Equal(t, 5, e.Snapshot().Stats.TotalTaps)
	assert.NotEmpty(t, e.EventLog().GetByType(events.EventTypeStorageFull))
}

func TestFractionalFreeSpaceDoesNotAdmitWholeUnit(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	withResources(t, e, 0, resource.Stack{Type: resource.IronOre, Amount: 1000})
	left, err := e.DeleteResource(resource.IronOre, 0.5)
	require.NoError(t, err)
	require.Equal(t, 999.5, left)
	assert.Equal(t, 1000, e.Storage().Used, "partial units round up for display")

	held := func() float64 {
		total := 0.0
		for _, r := range e.Snapshot().Resources {
			if !resource.IsCurrency(r.Type) {
				total += r.Amount
			}
		}
		return total
	}
	for i := 0; i < 20; i++ {
		res := e.Tap()
		if !resource.IsCurrency(res.Resource) {
			assert.True(t, res.StorageFull)
		}
		assert.LessOrEqual(t, held(), 1000.0)
	}

	cfg := quietConfig()
	cfg.Balance.IdleResourceChance = 1
	idle := newTestEngine(t, cfg)
	withResources(t, idle, 0, resource.Stack{Type: resource.IronOre, Amount: 999.5})
	tick := idle.Tick()
	require.NotEmpty(t, tick.Resource)
	if !resource.IsCurrency(tick.Resource) {
		assert.True(t, tick.StorageFull)
	}
}

func TestTapBonusRolls(t *testing.T) {
	cfg := quietConfig()
	cfg.Balance.TapNuminsChance = 1
	cfg.Balance.TapXPChance = 1
	e := newTestEngine(t, cfg)

	res := e.Tap()
	assert.GreaterOrEqual(t, res.Numins, int64(1))
	assert.LessOrEqual(t, res.Numins, int64(100))
	assert.Equal(t, int64(1), res.XP)
	assert.Empty(t, res.CardID, "cards only drop at the card location")

	st := e.Snapshot()
	assert.Equal(t, res.Numins, st.Currency)
	assert.Equal(t, float64(res.Numins), st.Amount(resource.Numins))
	assert.Equal(t, int64(1), st.XP)
}

func TestCardDropsOnlyAtCardLocation(t *testing.T) {
	cfg := quietConfig()
	cfg.Balance.CardDropChance = 1
	cfg.Debug.AllLocationsUnlocked = true
	e := newTestEngine(t, cfg)

	assert.Empty(t, e.Tap().CardID)
	require.NoError(t, e.ChangeLocation(location.CardLocationID))
	res := e.Tap()
	require.NotEmpty(t, res.CardID)
	assert.Contains(t, card.LocationPool, res.CardID)

	owned, ok := e.Snapshot().Card(res.CardID)
	require.True(t, ok)
	assert.Equal(t, 1, owned.Tier)
	assert.Len(t, e.EventLog().GetByType(events.EventTypeCardAcquired), 1)
}

func TestTickIdleCollection(t *testing.T) {
	cfg := quietConfig()
	cfg.Balance.IdleResourceChance = 1
	cfg.Balance.IdleNuminsChance = 1
	e := newTestEngine(t, cfg)

	res := e.Tick()
	require.NotEmpty(t, res.Resource)
	assert.Equal(t, 1.0, res.Amount)
	assert.GreaterOrEqual(t, res.Numins, int64(1))
	assert.LessOrEqual(t, res.Numins, int64(50))

	st := e.Snapshot()
	assert.Equal(t, 1, st.Stats.TotalIdleCollections)
	assert.Equal(t, 1, st.Stats.LocationIdleCollectionCounts[location.StartingID])
	assert.Equal(t, res.Numins, st.Stats.TotalNuminsCollected)
	assert.Empty(t, e.EventLog().GetByType(events.EventTypeSaveRequested), "ticks do not request saves")
}

func TestTickQuietDoesNothing(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	for i := 0; i < 100; i++ {
		e.Tick()
	}
	st := e.Snapshot()
	assert.Empty(t, st.Resources)
	assert.Zero(t, st.Currency)
}

func TestIdleNuminsIgnoreCapacity(t *testing.T) {
	cfg := quietConfig()
	cfg.Balance.IdleNuminsChance = 1
	e := newTestEngine(t, cfg)
	withResources(t, e, 0, resource.Stack{Type: resource.IronOre, Amount: 1000})

	res := e.Tick()
	assert.Positive(t, res.Numins)
	assert.Equal(t, res.Numins, e.Snapshot().Currency)
}

func TestIdleResourceBlockedWhenFull(t *testing.T) {
	cfg := quietConfig()
	cfg.Balance.IdleResourceChance = 1
	e := newTestEngine(t, cfg)
	withResources(t, e, 0, resource.Stack{Type: resource.IronOre, Amount: 1000})

	res := e.Tick()
	assert.True(t, res.StorageFull)
	assert.Equal(t, 1000, e.Storage().Used)
	assert.Zero(t, e.Snapshot().Stats.TotalIdleCollections)
}

func TestConstructionLifecycle(t *testing.T) {
	e := newTestEngine(t, quietConfig())

	_, err := e.StartConstruction("iron-ingot")
	assert.True(t, errors.Is(err, ErrCannotAfford))
	_, err = e.StartConstruction("warp-core")
	assert.True(t, errors.Is(err, ErrUnknownBlueprint))

	withResources(t, e, 20,
		resource.Stack{Type: resource.IronOre, Amount: 25},
		resource.Stack{Type: resource.Carbon, Amount: 4},
	)
	require.True(t, e.CanAfford("iron-ingot"))

	started, err := e.StartConstruction("iron-ingot")
	require.NoError(t, err)
	assert.Equal(t, "small-bay-1", started.BayID)
	assert.Equal(t, 30, started.Construction.TimeRemaining)

	st := e.Snapshot()
	assert.Equal(t, 15.0, st.Amount(resource.IronOre))
	assert.Equal(t, 2.0, st.Amount(resource.Carbon))
	assert.Equal(t, int64(15), st.Currency)
	assert.Equal(t, PageConstruction, st.CurrentPage)

	// Only one small bay is unlocked, so a second build is refused without charging.
	_, err = e.StartConstruction("iron-ingot")
	assert.True(t, errors.Is(err, ErrNoFreeBay))
	assert.Equal(t, 15.0, e.Snapshot().Amount(resource.IronOre))

	_, err = e.CollectConstruction("small-bay-1")
	assert.True(t, errors.Is(err, ErrNotComplete))

	for i := 1; i <= 30; i++ {
		res := e.Tick()
		if i < 30 {
			assert.Empty(t, res.Ready, "tick %d", i)
		} else {
			assert.Equal(t, []string{"small-bay-1"}, res.Ready)
		}
	}
	e.Tick()
	assert.Len(t, e.EventLog().GetByType(events.EventTypeConstructionReady), 1, "ready fires once")

	collected, err := e.CollectConstruction("small-bay-1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, collected.Rewards[resource.IronIngot])
	assert.Equal(t, int64(2), collected.XP)

	st = e.Snapshot()
	assert.Equal(t, 2.0, st.Amount(resource.IronIngot))
	assert.Equal(t, int64(2), st.XP)
	assert.Equal(t, 1, st.Stats.TotalConstructions)
	assert.Equal(t, 1, st.Stats.SmallConstructions)
	bay, _ := st.Bay("small-bay-1")
	assert.True(t, bay.IsFree())

	_, err = e.CollectConstruction("small-bay-1")
	assert.True(t, errors.Is(err, ErrNothingToCollect))
	_, err = e.CollectConstruction("hangar-9")
	assert.True(t, errors.Is(err, ErrUnknownBay))
}

func TestBuildWithoutIngredients(t *testing.T) {
	cfg := quietConfig()
	cfg.Debug.BuildWithoutIngredients = true
	cfg.Debug.UnlockAllBays = true
	e := newTestEngine(t, cfg)

	for i := 0; i < 4; i++ {
		_, err := e.StartConstruction("iron-ingot")
		require.NoError(t, err)
	}
	_, err := e.StartConstruction("iron-ingot")
	assert.True(t, errors.Is(err, ErrNoFreeBay))
	assert.Zero(t, e.Snapshot().Currency)
}

func TestBuildTimeCard(t *testing.T) {
	cfg := quietConfig()
	cfg.Debug.BuildWithoutIngredients = true
	e := newTestEngine(t, cfg)

	_, err := e.AddCard("quick-assembly", 1)
	require.NoError(t, err)
	require.NoError(t, e.EquipCard("quick-assembly", card.PageConstruction, 0))

	started, err := e.StartConstruction("iron-ingot")
	require.NoError(t, err)
	assert.Equal(t, 29, started.Construction.Duration)
}

func TestAddXPLoopsLevelUps(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	e.AddXP(progression.Thresholds[0] + progression.Thresholds[1] + progression.Thresholds[2] + 3)

	st := e.Snapshot()
	assert.Equal(t, 3, st.Level)
	assert.Equal(t, int64(3), st.XP)
	ups := e.EventLog().GetByType(events.EventTypeLevelUp)
	require.Len(t, ups, 1)
	assert.Equal(t, events.LevelUpPayload{From: 0, To: 3}, ups[0].Payload)
}

func TestCardsTierUpAndEffects(t *testing.T) {
	e := newTestEngine(t, quietConfig())

	err := e.EquipCard("deep-scanner", card.PageLocation, 0)
	assert.True(t, errors.Is(err, ErrCardNotOwned))
	_, err = e.AddCard("no-such-card", 1)
	assert.True(t, errors.Is(err, ErrUnknownCard))

	owned, err := e.AddCard("deep-scanner", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, owned.Tier)
	assert.Equal(t, 1, owned.Copies)
	assert.Len(t, e.EventLog().GetByType(events.EventTypeCardTierUp), 1)

	require.NoError(t, e.EquipCard("deep-scanner", card.PageShop, 1))
	assert.Zero(t, e.Modifiers().RareBias, "rare bias only counts on the Location page")

	require.NoError(t, e.EquipCard("deep-scanner", card.PageLocation, 0))
	assert.Equal(t, 1.0, e.Modifiers().RareBias)
	assert.Equal(t, 1.0, e.CardEffect(card.EffectRareBias, card.PageLocation))
	assert.InDelta(t, 30-0.75, e.DropTable(location.StartingID)[0].Percent, 1e-9)

	require.NoError(t, e.UnequipCard(card.PageLocation, 0))
	assert.Zero(t, e.Modifiers().RareBias)
	assert.True(t, errors.Is(e.EquipCard("deep-scanner", card.PageLocation, 4), ErrInvalidSlot))
}

func TestXPCardCountsOnEveryPage(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	_, err := e.AddCard("scholars-log", 1)
	require.NoError(t, err)
	require.NoError(t, e.EquipCard("scholars-log", card.PageShop, 2))
	assert.InDelta(t, 1.1, e.Modifiers().XPMultiplier, 1e-9)
}

func TestStorageCardRaisesCapacity(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	_, err := e.AddCard("cargo-expansion", 1)
	require.NoError(t, err)
	require.NoError(t, e.EquipCard("cargo-expansion", card.PageResources, 0))
	assert.Equal(t, 1100, e.Storage().Capacity)
	assert.Equal(t, 1000, e.Snapshot().BaseStorageCapacity)
}

func TestDeleteResource(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	withResources(t, e, 50, resource.Stack{Type: resource.IronOre, Amount: 10})

	_, err := e.DeleteResource(resource.Numins, 5)
	assert.True(t, errors.Is(err, ErrNotDeletable))
	_, err = e.DeleteResource(resource.Diamond, 1)
	assert.True(t, errors.Is(err, ErrResourceNotHeld))
	_, err = e.DeleteResource(resource.IronOre, 0)
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	left, err := e.DeleteResource(resource.IronOre, 4)
	require.NoError(t, err)
	assert.Equal(t, 6.0, left)

	left, err = e.DeleteResource(resource.IronOre, 100)
	require.NoError(t, err)
	assert.Zero(t, left)
	st := e.Snapshot()
	for _, r := range st.Resources {
		assert.NotEqual(t, resource.IronOre, r.Type)
	}
	assert.Equal(t, int64(50), st.Currency)
}

func TestChangeLocation(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	e.Tap()

	assert.True(t, errors.Is(e.ChangeLocation("nowhere"), ErrUnknownLocation))
	assert.True(t, errors.Is(e.ChangeLocation("taragam-3"), ErrLocationLocked))
	assert.False(t, e.IsLocationUnlocked("taragam-3"))
	assert.False(t, e.CanUnlockLocation("taragam-3"))

	cfg := quietConfig()
	cfg.Debug.AllLocationsUnlocked = true
	open := newTestEngine(t, cfg)
	open.Tap()
	require.NoError(t, open.ChangeLocation("taragam-3"))
	st := open.Snapshot()
	assert.Equal(t, "taragam-3", st.CurrentLocationID)
	assert.Zero(t, st.Stats.CurrentLocationTapCount)
	assert.Equal(t, 1, st.Stats.TotalTaps)
}

func TestCanUnlockLocation(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	withResources(t, e, 0,
		resource.Stack{Type: resource.IronOre, Amount: 100},
		resource.Stack{Type: resource.Silicon, Amount: 50},
	)
	assert.True(t, e.CanUnlockLocation("taragam-3"))
	assert.False(t, e.IsLocationUnlocked("taragam-3"))
}

func TestApplyRejectsInvalidState(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	withResources(t, e, 10)

	bad := e.Snapshot()
	bad.Resources = append(bad.Resources, resource.Stack{Type: resource.IronOre, Amount: -1})
	assert.True(t, errors.Is(e.Apply(bad), ErrInvalidState))
	assert.Equal(t, int64(10), e.Snapshot().Currency)
}

func TestSnapshotIsIndependent(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	withResources(t, e, 0, resource.Stack{Type: resource.IronOre, Amount: 1})

	snap := e.Snapshot()
	snap.Resources[0].Amount = 999
	snap.Slots[card.PageLocation][0] = "deep-scanner"
	st := e.Snapshot()
	assert.Equal(t, 1.0, st.Amount(resource.IronOre))
	assert.Empty(t, st.Slots.Equipped(card.PageLocation))
}

func TestListenersMayCallBackIntoEngine(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	var taps int
	e.EventLog().Subscribe(func(ev events.GameEvent) {
		if ev.Type == events.EventTypeTapCollected {
			taps = e.Snapshot().Stats.TotalTaps
		}
	})

	done := make(chan struct{})
	go func() {
		e.Tap()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected listener to run without deadlocking the engine")
	}
	assert.Equal(t, 1, taps)
}

func TestReset(t *testing.T) {
	e := newTestEngine(t, quietConfig())
	e.Tap()
	e.Reset("bo")
	st := e.Snapshot()
	assert.Equal(t, "bo", st.PlayerName)
	assert.Empty(t, st.Resources)
	assert.Equal(t, location.StartingID, st.CurrentLocationID)
}
