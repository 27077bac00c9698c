package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.10, cfg.Balance.IdleResourceChance)
	assert.Equal(t, 1000, cfg.Balance.BaseStorageCapacity)
	assert.Equal(t, 5, cfg.Balance.BackupsKept)
	assert.Equal(t, time.Second, cfg.Balance.TickInterval)
	assert.False(t, cfg.Debug.BuildWithoutIngredients)
}

func TestDevEnablesDebug(t *testing.T) {
	cfg := Dev()
	assert.True(t, cfg.Debug.BuildWithoutIngredients)
	assert.True(t, cfg.Debug.AllLocationsUnlocked)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")
	doc := `
balance:
  tick_interval: 500ms
  base_storage_capacity: 2500
  tap_numins_max: 250
debug:
  build_without_ingredients: true
server:
  addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.Balance.TickInterval)
	assert.Equal(t, 2500, cfg.Balance.BaseStorageCapacity)
	assert.Equal(t, 250, cfg.Balance.TapNuminsMax)
	assert.Equal(t, 0.001, cfg.Balance.CardDropChance, "unset fields keep defaults")
	assert.True(t, cfg.Debug.BuildWithoutIngredients)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("balance:\n  idle_resource_chance: 4\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	data, err := Dev().Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Dev(), cfg)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("URPG_BASE_STORAGE_CAPACITY", "3000")
	t.Setenv("URPG_TICK_INTERVAL", "250ms")
	t.Setenv("URPG_BUILD_WITHOUT_INGREDIENTS", "true")
	t.Setenv("URPG_BACKUPS_KEPT", "not-a-number")

	cfg := FromEnv(Default())
	assert.Equal(t, 3000, cfg.Balance.BaseStorageCapacity)
	assert.Equal(t, 250*time.Millisecond, cfg.Balance.TickInterval)
	assert.True(t, cfg.Debug.BuildWithoutIngredients)
	assert.Equal(t, 5, cfg.Balance.BackupsKept)
}

func TestFromEnvStressProfile(t *testing.T) {
	t.Setenv("URPG_PROFILE", "stress")
	cfg := FromEnv(Default())
	assert.Equal(t, StressServer().ClientSendBuffer, cfg.Server.ClientSendBuffer)
}

func TestAnalyzeRecommendsTuning(t *testing.T) {
	quiet := Analyze(map[string]interface{}{
		"tick":      map[string]interface{}{"max_latency_ms": 2.0},
		"websocket": map[string]interface{}{"errors": int64(0)},
	})
	assert.Empty(t, quiet.Notes)
	assert.Equal(t, DefaultServer(), DefaultServer().Apply(quiet))

	rec := Analyze(map[string]interface{}{
		"events":      map[string]interface{}{"max_write_lat_ms": 80.0, "errors": int64(0)},
		"persistence": map[string]interface{}{"avg_save_ms": 120.0, "save_errors": int64(1)},
		"websocket":   map[string]interface{}{"errors": int64(3)},
	})
	assert.True(t, rec.IncreaseDBConnections)
	assert.True(t, rec.IncreaseBlobCache)
	assert.True(t, rec.IncreaseBroadcastBuffer)
	assert.Len(t, rec.Notes, 4)

	base := LowResourceServer()
	tuned := base.Apply(rec)
	assert.Equal(t, base.ClientSendBuffer*2, tuned.ClientSendBuffer)
	assert.Equal(t, base.BlobCacheSize*2, tuned.BlobCacheSize)
	assert.Equal(t, 3, tuned.DBMaxOpenConns)
}
