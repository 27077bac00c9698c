package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
)

func openTestDB(t *testing.T) *SQLiteBlobStore {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "nested", "universe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteBlobStore(db)
}

func exerciseBlobStore(t *testing.T, store BlobStore) {
	ctx := context.Background()

	_, err := store.Get(ctx, "SaveData_ana")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, store.Put(ctx, "SaveData_ana", []byte(`{"version":2}`)))
	require.NoError(t, store.Put(ctx, "SaveData_ana", []byte(`{"version":3}`)))
	got, err := store.Get(ctx, "SaveData_ana")
	require.NoError(t, err)
	assert.Equal(t, `{"version":3}`, string(got))

	require.NoError(t, store.Put(ctx, "Backup_ana_20260101T000000.000000000Z", []byte("a")))
	require.NoError(t, store.Put(ctx, "Backup_ana_20250101T000000.000000000Z", []byte("b")))
	require.NoError(t, store.Put(ctx, "Backup_anaXb_20250101T000000.000000000Z", []byte("c")))

	keys, err := store.Keys(ctx, "Backup_ana_")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Backup_ana_20250101T000000.000000000Z",
		"Backup_ana_20260101T000000.000000000Z",
	}, keys, "underscore in the prefix is literal")

	all, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, store.Delete(ctx, "SaveData_ana"))
	require.NoError(t, store.Delete(ctx, "SaveData_ana"))
	_, err = store.Get(ctx, "SaveData_ana")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteBlobStore(t *testing.T) {
	exerciseBlobStore(t, openTestDB(t))
}

func TestMemoryBlobStore(t *testing.T) {
	exerciseBlobStore(t, NewMemoryBlobStore())
}

func TestMemoryBlobStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore()
	v := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", v))
	v[0] = 'x'
	got, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestEventRepository(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	repo := NewSQLiteEventRepository(db)
	adapter := &EventPersisterAdapter{Repo: repo}

	first := events.New(events.EventTypeTapCollected, "ana", "taragam-7", events.ResourcePayload{Resource: "Iron Ore", Amount: 1})
	first.Timestamp = time.Now().Add(-time.Minute)
	require.NoError(t, adapter.Append(first))
	require.NoError(t, adapter.Append(events.New(events.EventTypeLevelUp, "ana", "", events.LevelUpPayload{From: 0, To: 1})))
	require.NoError(t, adapter.Append(events.New(events.EventTypeSaveRequested, "ana", "", nil)))
	require.NoError(t, adapter.Append(events.New(events.EventTypeTapCollected, "bo", "", nil)))

	all, err := repo.GetByActorID(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, all, 2, "save requests are not persisted")
	assert.Equal(t, "TAP_COLLECTED", all[0].EventType)
	assert.Equal(t, "Iron Ore", all[0].Payload["resource"])

	ups, err := repo.GetByEventType(ctx, "ana", string(events.EventTypeLevelUp))
	require.NoError(t, err)
	require.Len(t, ups, 1)
	assert.Equal(t, float64(1), ups[0].Payload["to"])

	recent, err := repo.Recent(ctx, "ana", 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "LEVEL_UP", recent[0].EventType)

	require.NoError(t, repo.DeleteByActorID(ctx, "ana"))
	all, err = repo.GetByActorID(ctx, "ana")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSummaryRepository(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "summaries.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	repo := NewSQLiteSummaryRepository(db)

	missing, err := repo.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Upsert(ctx, PlayerSummary{Username: "ana", PlayerName: "Ana", Level: 2, XP: 5, LocationID: "taragam-7"}))
	require.NoError(t, repo.Upsert(ctx, PlayerSummary{Username: "bo", PlayerName: "Bo", Level: 4, LocationID: "taragam-7"}))
	require.NoError(t, repo.Upsert(ctx, PlayerSummary{Username: "ana", PlayerName: "Ana", Level: 5, XP: 1, LocationID: "elcinto"}))

	got, err := repo.Get(ctx, "ana")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.Level)
	assert.Equal(t, "elcinto", got.LocationID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ana", list[0].Username)

	require.NoError(t, repo.Delete(ctx, "ana"))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReconstructor(t *testing.T) {
	db, err := InitSQLite(filepath.Join(t.TempDir(), "recap.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	repo := NewSQLiteEventRepository(db)
	adapter := &EventPersisterAdapter{Repo: repo}

	old := events.New(events.EventTypeTapCollected, "ana", "taragam-7", events.ResourcePayload{Resource: "Iron Ore", Amount: 5})
	old.Timestamp = time.Now().Add(-2 * time.Hour)
	require.NoError(t, adapter.Append(old))
	base := time.Now().Add(-time.Minute)
	for i, e := range []events.GameEvent{
		events.New(events.EventTypeTapCollected, "ana", "taragam-7", events.ResourcePayload{Resource: "Iron Ore", Amount: 2}),
		events.New(events.EventTypeIdleCollected, "ana", "taragam-7", events.ResourcePayload{Resource: "Silicon", Amount: 1}),
		events.New(events.EventTypeNuminsCollected, "ana", "", events.AmountPayload{Amount: 40}),
		events.New(events.EventTypeXPGained, "ana", "", events.AmountPayload{Amount: 26}),
		events.New(events.EventTypeLevelUp, "ana", "", events.LevelUpPayload{From: 0, To: 2}),
		events.New(events.EventTypeStorageFull, "ana", "taragam-7", events.StoragePayload{Resource: "Iron Ore", Award: 1}),
		events.New(events.EventTypeConstructionCollected, "ana", "small-1", events.ConstructionPayload{
			BayID: "small-1", BlueprintID: "iron-ingot", Rewards: map[string]float64{"Iron Ore": 3},
		}),
	} {
		e.Timestamp = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, adapter.Append(e))
	}

	rec := NewReconstructor(repo)

	all, err := rec.RebuildTotals(ctx, "ana", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 8, all.Events)
	assert.Equal(t, 2, all.Taps)
	assert.Equal(t, 10.0, all.Gathered["Iron Ore"])

	recent, err := rec.RebuildTotals(ctx, "ana", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, recent.Taps)
	assert.Equal(t, 1, recent.IdleCollections)
	assert.Equal(t, 1, recent.StorageFull)
	assert.Equal(t, int64(40), recent.NuminsCollected)
	assert.Equal(t, int64(26), recent.XPGained)
	assert.Equal(t, 2, recent.LevelUps)
	assert.Equal(t, 2, recent.HighestLevel)
	assert.Equal(t, 1, recent.ConstructionsCollected)
	assert.Equal(t, 5.0, recent.Gathered["Iron Ore"])

	recap, err := rec.Recap(ctx, "ana", time.Time{})
	require.NoError(t, err)
	require.Len(t, recap, 3, "taps, idle rolls and XP ticks stay out of the recap")
	assert.Equal(t, "Reached level 2.", recap[0].Summary)
	assert.Equal(t, "POSITIVE", recap[0].Impact)
	assert.Equal(t, "NEGATIVE", recap[1].Impact)
	assert.Equal(t, "Collected iron-ingot from bay small-1.", recap[2].Summary)
}
