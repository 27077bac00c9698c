package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MRamiBalles/UniverseRPG/server/internal/engine"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/infra/storage"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/logger"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/metrics"
)

// BackupTimeFormat is fixed width so backup keys sort chronologically.
const BackupTimeFormat = "20060102T150405.000000000Z"

var (
	ErrNoActiveUser  = errors.New("no active user")
	ErrEmptySave     = errors.New("save data is empty")
	ErrUnknownBackup = errors.New("unknown backup")
)

// SaveKey is the primary save slot of a user.
func SaveKey(user string) string { return "SaveData_" + user }

// BackupPrefix is shared by every backup key of a user.
func BackupPrefix(user string) string { return "Backup_" + user + "_" }

// BackupKey names a backup taken at t.
func BackupKey(user string, t time.Time) string {
	return BackupPrefix(user) + t.UTC().Format(BackupTimeFormat)
}

// IsBackupOf reports whether key is one of user's backups. Usernames may contain
// underscores, so "Backup_ana_" also prefixes the backups of "ana_b".
func IsBackupOf(user, key string) bool {
	rest, ok := strings.CutPrefix(key, BackupPrefix(user))
	if !ok {
		return false
	}
	_, err := time.Parse(BackupTimeFormat, rest)
	return err == nil
}

// ListBackups returns user's backup keys, oldest first.
func ListBackups(ctx context.Context, store storage.BlobStore, user string) ([]string, error) {
	keys, err := store.Keys(ctx, BackupPrefix(user))
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, k := range keys {
		if IsBackupOf(user, k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Manager persists one engine's state for the active user.
type Manager struct {
	mu sync.Mutex // serializes Save, Load, Import and Restore

	userMu sync.RWMutex
	user   string

	store       storage.BlobStore
	engine      *engine.Engine
	migrator    *Migrator
	summaries   storage.SummaryRepository
	logger      *logger.Logger
	backupsKept int
	now         func() time.Time
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithBackupsKept sets how many backups survive a prune.
func WithBackupsKept(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.backupsKept = n
		}
	}
}

// WithClock replaces time.Now. Tests use it for distinct backup keys.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithSummaries keeps a queryable player summary up to date on every save.
func WithSummaries(repo storage.SummaryRepository) ManagerOption {
	return func(m *Manager) { m.summaries = repo }
}

// WithMigrator replaces the default migration chain.
func WithMigrator(mg *Migrator) ManagerOption {
	return func(m *Manager) { m.migrator = mg }
}

// NewManager creates a manager with no active user.
func NewManager(store storage.BlobStore, eng *engine.Engine, log *logger.Logger, opts ...ManagerOption) *Manager {
	if log == nil {
		log = logger.NewDiscard()
	}
	m := &Manager{
		store:       store,
		engine:      eng,
		migrator:    NewMigrator(DefaultSteps...),
		logger:      log,
		backupsKept: eng.Balance().BackupsKept,
		now:         time.Now,
	}
	if m.backupsKept <= 0 {
		m.backupsKept = 5
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetUser makes user the owner of subsequent saves. An empty user disables saving.
func (m *Manager) SetUser(user string) {
	m.userMu.Lock()
	m.user = user
	m.userMu.Unlock()
}

// User returns the active user.
func (m *Manager) User() string {
	m.userMu.RLock()
	defer m.userMu.RUnlock()
	return m.user
}

// Save writes the current state to the primary slot. The previous primary blob is copied to a
// timestamped backup first and backups beyond the retention count are pruned afterwards.
// Without an active user Save does nothing.
func (m *Manager) Save(ctx context.Context) error {
	user := m.User()
	if user == "" {
		m.logger.Info("save skipped: no active user")
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	n, err := m.save(ctx, user)
	metrics.Get().RecordSave(time.Since(start), err)
	if err != nil {
		m.logger.Errorf("save for %s failed: %v", user, err)
		return err
	}
	m.engine.EventLog().Append(events.New(events.EventTypeGameSaved, user, "",
		events.PersistencePayload{Key: SaveKey(user), Bytes: n}))
	return nil
}

func (m *Manager) save(ctx context.Context, user string) (int, error) {
	now := m.now()
	snap := m.engine.Snapshot()
	data, err := json.Marshal(FromState(snap, now))
	if err != nil {
		return 0, fmt.Errorf("failed to encode save: %w", err)
	}

	key := SaveKey(user)
	prev, err := m.store.Get(ctx, key)
	switch {
	case err == nil && len(prev) > 0:
		if err := m.store.Put(ctx, BackupKey(user, now), prev); err != nil {
			return 0, fmt.Errorf("failed to write backup: %w", err)
		}
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return 0, fmt.Errorf("failed to read previous save: %w", err)
	}

	if err := m.store.Put(ctx, key, data); err != nil {
		return 0, fmt.Errorf("failed to write save: %w", err)
	}
	if err := m.prune(ctx, user); err != nil {
		m.logger.Warnf("backup prune for %s failed: %v", user, err)
	}
	m.engine.MarkSaved(now)

	if m.summaries != nil {
		summary := storage.PlayerSummary{
			Username:   user,
			PlayerName: snap.PlayerName,
			Level:      snap.Level,
			XP:         snap.XP,
			Currency:   snap.Currency,
			TotalTaps:  snap.Stats.TotalTaps,
			LocationID: snap.CurrentLocationID,
		}
		if err := m.summaries.Upsert(ctx, summary); err != nil {
			m.logger.Warnf("summary update for %s failed: %v", user, err)
		}
	}
	return len(data), nil
}

// prune deletes every backup older than the newest backupsKept.
func (m *Manager) prune(ctx context.Context, user string) error {
	keys, err := ListBackups(ctx, m.store, user)
	if err != nil {
		return err
	}
	if len(keys) <= m.backupsKept {
		return nil
	}
	var errs []error
	for _, k := range keys[:len(keys)-m.backupsKept] {
		if err := m.store.Delete(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Load reads the primary slot into the engine. Missing and corrupt saves both leave the
// player with a fresh game; a corrupt blob stays in the store until the next save backs it up.
func (m *Manager) Load(ctx context.Context) (Outcome, error) {
	user := m.User()
	if user == "" {
		return "", ErrNoActiveUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.store.Get(ctx, SaveKey(user))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("failed to read save: %w", err)
	}

	res, merr := m.migrator.Migrate(data)
	switch res.Outcome {
	case OutcomeAbsent:
		m.logger.Infof("no save data for %s, starting fresh", user)
		m.engine.Reset(engine.DefaultPlayerName)
	case OutcomeCorrupt:
		m.logger.Warnf("save data for %s is unreadable, starting fresh: %v", user, merr)
		m.engine.Reset(engine.DefaultPlayerName)
	default:
		if err := m.apply(res); err != nil {
			m.logger.Warnf("save data for %s could not be applied, starting fresh: %v", user, err)
			m.engine.Reset(engine.DefaultPlayerName)
			res.Outcome = OutcomeCorrupt
		}
	}

	metrics.Get().RecordLoad(res.Outcome == OutcomeLegacyDictionary || res.Outcome == OutcomeMigrated,
		res.Outcome == OutcomeCorrupt)
	m.engine.EventLog().Append(events.New(events.EventTypeGameLoaded, user, "",
		events.PersistencePayload{Key: SaveKey(user), Bytes: len(data), Outcome: string(res.Outcome)}))
	return res.Outcome, nil
}

// apply converts a migrated envelope and swaps it into the engine in one step.
func (m *Manager) apply(res Result) error {
	st, skipped := res.Envelope.ToState(m.engine.Balance().BaseStorageCapacity)
	for _, s := range skipped {
		m.logger.Warnf("skipped unknown %s while loading save", s)
	}
	if res.Outcome == OutcomeMigrated {
		m.logger.Infof("migrated save from version %s to %s", res.FromVersion, CurrentVersion)
	}
	return m.engine.Apply(st)
}

// Export encodes the live state as a current-version envelope.
func (m *Manager) Export(ctx context.Context) ([]byte, error) {
	if m.User() == "" {
		return nil, ErrNoActiveUser
	}
	return json.MarshalIndent(FromState(m.engine.Snapshot(), m.now()), "", "  ")
}

// Import replaces the live state with an exported blob and saves it. Unreadable data
// leaves the engine untouched.
func (m *Manager) Import(ctx context.Context, data []byte) (Outcome, error) {
	if m.User() == "" {
		return "", ErrNoActiveUser
	}
	res, err := m.migrator.Migrate(data)
	if err != nil {
		return res.Outcome, err
	}
	if res.Outcome == OutcomeAbsent {
		return res.Outcome, ErrEmptySave
	}

	m.mu.Lock()
	err = m.apply(res)
	m.mu.Unlock()
	if err != nil {
		return res.Outcome, fmt.Errorf("failed to apply imported save: %w", err)
	}
	return res.Outcome, m.Save(ctx)
}

// Backups lists the active user's backup keys, newest first.
func (m *Manager) Backups(ctx context.Context) ([]string, error) {
	user := m.User()
	if user == "" {
		return nil, ErrNoActiveUser
	}
	keys, err := ListBackups(ctx, m.store, user)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// Restore loads a backup into the engine and saves it as the new primary.
func (m *Manager) Restore(ctx context.Context, backupKey string) (Outcome, error) {
	user := m.User()
	if user == "" {
		return "", ErrNoActiveUser
	}
	if !IsBackupOf(user, backupKey) {
		return "", ErrUnknownBackup
	}
	data, err := m.store.Get(ctx, backupKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrUnknownBackup
	}
	if err != nil {
		return "", err
	}
	return m.Import(ctx, data)
}

// BackupTime parses the timestamp out of a backup key.
func BackupTime(key string) (time.Time, bool) {
	i := strings.LastIndex(key, "_")
	if i < 0 {
		return time.Time{}, false
	}
	t, err := time.Parse(BackupTimeFormat, key[i+1:])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
