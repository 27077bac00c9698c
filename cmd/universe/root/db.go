package root

import (
	"context"
	"database/sql"

	"github.com/MRamiBalles/UniverseRPG/server/internal/account"
	"github.com/MRamiBalles/UniverseRPG/server/internal/config"
	"github.com/MRamiBalles/UniverseRPG/server/internal/engine"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
	"github.com/MRamiBalles/UniverseRPG/server/internal/infra/cache"
	"github.com/MRamiBalles/UniverseRPG/server/internal/infra/storage"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/logger"
	"github.com/MRamiBalles/UniverseRPG/server/internal/save"
)

// backend bundles every store opened from the SQLite database.
type backend struct {
	db        *sql.DB
	blobs     *cache.BlobCache
	history   *storage.SQLiteEventRepository
	summaries *storage.SQLiteSummaryRepository
	accounts  *account.Service
}

func openBackend(cfg config.Config, log *logger.Logger) (*backend, func(), error) {
	db, err := storage.InitSQLite(cfg.Server.DBPath)
	if err != nil {
		return nil, nil, err
	}
	storage.ConfigurePool(db, cfg.Server.DBMaxOpenConns, cfg.Server.DBMaxIdleConns)

	blobs, err := cache.NewBlobCache(storage.NewSQLiteBlobStore(db), cfg.Server.BlobCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	b := &backend{
		db:        db,
		blobs:     blobs,
		history:   storage.NewSQLiteEventRepository(db),
		summaries: storage.NewSQLiteSummaryRepository(db),
	}
	b.accounts = account.NewService(blobs, log,
		account.WithSummaries(b.summaries),
		account.WithEventHistory(b.history))

	cleanup := func() {
		_ = db.Close()
	}
	return b, cleanup, nil
}

// openGame loads one user's save into a standalone engine, outside of any session.
func (b *backend) openGame(ctx context.Context, cfg config.Config, user string, log *logger.Logger) (*engine.Engine, *save.Manager, save.Outcome, error) {
	eng := engine.NewEngine(cfg, events.NewEventLog(nil, cfg.Server.EventLogCapacity), log, engine.WithActorID(user))
	saves := save.NewManager(b.blobs, eng, log,
		save.WithBackupsKept(cfg.Balance.BackupsKept),
		save.WithSummaries(b.summaries))
	saves.SetUser(user)
	outcome, err := saves.Load(ctx)
	if err != nil {
		return nil, nil, "", err
	}
	return eng, saves, outcome, nil
}
