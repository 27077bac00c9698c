package root

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MRamiBalles/UniverseRPG/server/internal/config"
	"github.com/MRamiBalles/UniverseRPG/server/internal/infra/storage"
	"github.com/MRamiBalles/UniverseRPG/server/internal/network"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/logger"
	"github.com/MRamiBalles/UniverseRPG/server/internal/platform/metrics"
	"github.com/MRamiBalles/UniverseRPG/server/internal/session"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server (WebSocket + HTTP API)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			appLogger := logger.NewLogger()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			appLogger.Infof("Initializing SQLite database %q...", cfg.Server.DBPath)
			b, cleanup, err := openBackend(cfg, appLogger)
			if err != nil {
				return err
			}
			defer cleanup()

			if cfg.Debug.SeedTestAccount {
				if err := b.accounts.SeedTestAccount(ctx); err != nil {
					appLogger.Warnf("failed to seed test account: %v", err)
				}
			}

			appLogger.Info("Bootstrapping WebSocket Hub...")
			hub := network.NewHub(appLogger, cfg.Server.BroadcastChannelBuffer)
			hubCtx, stopHub := context.WithCancel(context.Background())
			defer stopHub()
			go hub.Run(hubCtx)

			sessions := session.NewManager(cfg, b.blobs, b.accounts, appLogger,
				session.WithEventPersister(&storage.EventPersisterAdapter{Repo: b.history}),
				session.WithSummaries(b.summaries),
				session.WithListener(hub.Listener()))

			mux := http.NewServeMux()
			mux.Handle("/ws", network.NewWSHandler(hubCtx, hub, sessions, cfg.Server))
			network.NewCatalogHandler(b.summaries, b.history, appLogger).RegisterRoutes(mux)
			mux.HandleFunc("/metrics", metrics.Handler())
			mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				status := "ok"
				code := http.StatusOK
				if err := b.db.PingContext(r.Context()); err != nil {
					status, code = "degraded", http.StatusServiceUnavailable
				}
				hits, misses := b.blobs.Stats()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(code)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"status":       status,
					"sessions":     len(sessions.Active()),
					"cache_hits":   hits,
					"cache_misses": misses,
					"tuning":       config.Analyze(metrics.Get().Snapshot()).Notes,
				})
			})

			srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
			serveErr := make(chan error, 1)
			go func() {
				appLogger.Infof("HTTP API & WS Server listening on %s", cfg.Server.Addr)
				serveErr <- srv.ListenAndServe()
			}()

			select {
			case err := <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
			}

			appLogger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				appLogger.Warnf("HTTP shutdown: %v", err)
			}
			// Final saves run before the database closes.
			if err := sessions.Shutdown(shutdownCtx); err != nil {
				appLogger.Errorf("session shutdown: %v", err)
			}
			stopHub()
			appLogger.Info("Server stopped.")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
