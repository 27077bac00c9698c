package root

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/infra/storage"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func withTempDB(t *testing.T) {
	t.Helper()
	prev := dbPath
	dbPath = filepath.Join(t.TempDir(), "cli.db")
	t.Cleanup(func() { dbPath = prev })
}

func TestSimulateDrops(t *testing.T) {
	out, err := run(t, newSimulateDropsCmd(), "--taps", "2000", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "2,000 taps")
	assert.Contains(t, out, "Iron Ore")
	assert.Contains(t, out, "(expected 30%)")

	_, err = run(t, newSimulateDropsCmd(), "--location", "atlantis")
	assert.ErrorContains(t, err, "unknown location")
}

func TestSimulateIdle(t *testing.T) {
	out, err := run(t, newSimulateIdleCmd(), "--ticks", "600", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "600 ticks idle")
	assert.Contains(t, out, "Idle collections")
}

func TestUsersCreateListDelete(t *testing.T) {
	withTempDB(t)

	_, err := run(t, newUsersCreateCmd(), "pilot_1", "--password", "pw")
	require.NoError(t, err)
	_, err = run(t, newUsersCreateCmd(), "pilot_1", "--password", "pw")
	assert.ErrorContains(t, err, "Username is already taken")
	_, err = run(t, newUsersCreateCmd(), "x")
	assert.ErrorContains(t, err, "--password is required")

	out, err := run(t, newUsersListCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Accounts (1)")
	assert.Contains(t, out, "pilot_1")

	_, err = run(t, newUsersDeleteCmd(), "pilot_1")
	assert.ErrorContains(t, err, "--yes")
	_, err = run(t, newUsersDeleteCmd(), "pilot_1", "--yes")
	require.NoError(t, err)

	out, err = run(t, newUsersListCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "no accounts yet")
}

func TestUsersRecap(t *testing.T) {
	withTempDB(t)

	out, err := run(t, newUsersRecapCmd(), "pilot_1")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing recorded")

	db, err := storage.InitSQLite(dbPath)
	require.NoError(t, err)
	adapter := &storage.EventPersisterAdapter{Repo: storage.NewSQLiteEventRepository(db)}
	require.NoError(t, adapter.Append(events.New(events.EventTypeTapCollected, "pilot_1", "taragam-7",
		events.ResourcePayload{Resource: "Iron Ore", Amount: 1})))
	require.NoError(t, adapter.Append(events.New(events.EventTypeLevelUp, "pilot_1", "",
		events.LevelUpPayload{From: 0, To: 1})))
	require.NoError(t, db.Close())

	out, err = run(t, newUsersRecapCmd(), "pilot_1", "--since", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "Taps")
	assert.Contains(t, out, "Reached level 1.")
}

func TestSaveExportImportInspect(t *testing.T) {
	withTempDB(t)
	_, err := run(t, newUsersCreateCmd(), "ana", "--password", "pw")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "ana.json")
	_, err = run(t, newSaveExportCmd(), "ana", "-o", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.0.0"`)

	out, err := run(t, newSaveInspectCmd(), file)
	require.NoError(t, err)
	assert.Contains(t, out, "current")
	assert.Contains(t, out, "Commander")

	out, err = run(t, newSaveImportCmd(), "ana", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported")
	// The second import backs up the first.
	_, err = run(t, newSaveImportCmd(), "ana", file)
	require.NoError(t, err)

	out, err = run(t, newSaveBackupsCmd(), "ana")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "Backup_ana_"), out)

	_, err = run(t, newSaveImportCmd(), "bob", file)
	assert.ErrorContains(t, err, `no account named "bob"`)

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("not json"), 0o644))
	out, err = run(t, newSaveInspectCmd(), broken)
	require.NoError(t, err)
	assert.Contains(t, out, "corrupt")
}
