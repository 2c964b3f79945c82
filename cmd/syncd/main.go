package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundview/marketsync/internal/api"
	"github.com/fundview/marketsync/internal/calendar"
	"github.com/fundview/marketsync/internal/config"
	"github.com/fundview/marketsync/internal/connection"
	"github.com/fundview/marketsync/internal/feed"
	"github.com/fundview/marketsync/internal/model"
	"github.com/fundview/marketsync/internal/poller"
	"github.com/fundview/marketsync/internal/store"
	"github.com/fundview/marketsync/internal/version"
	"github.com/fundview/marketsync/internal/watchlist"
)

func main() {
	configPath := flag.String("config", "configs/syncd.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting syncd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.BaseURL,
		"push_url", cfg.Push.URL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Open the watchlist backend
	wl, err := openWatchlist(ctx, cfg.Watchlist, logger)
	if err != nil {
		logger.Error("failed to open watchlist", "error", err)
		os.Exit(1)
	}
	defer wl.Close()

	// Trading calendar
	cal, err := calendar.New()
	if err != nil {
		logger.Error("failed to load trading calendar", "error", err)
		os.Exit(1)
	}

	// REST API client for the fallback fetch path
	apiClient := api.NewClient(
		cfg.API.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
	)

	// Quote store, push channel manager, session-driven poller
	st := store.New(logger)

	manager := connection.NewManager(connection.ManagerConfig{
		URL:              cfg.Push.URL,
		ReconnectDelay:   cfg.Push.ReconnectDelay,
		HandshakeTimeout: cfg.Push.HandshakeTimeout,
		PingTimeout:      cfg.Push.PingTimeout,
		WriteTimeout:     cfg.Push.WriteTimeout,
		BufferSize:       cfg.Push.BufferSize,
	}, logger)

	p := poller.New(
		poller.Config{Timeout: cfg.Poller.FetchTimeout},
		apiClient.FetchQuotes,
		func() time.Duration {
			return calendar.RecommendedPollInterval(cal.Classify(time.Now()))
		},
		poller.HandlerFunc(st.ApplyPoll),
		logger,
	)

	f := feed.New(cal, manager, p, st, logger)

	// Start health server early so startup is observable
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(cfg, cal, manager, st, wl, logger),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	if err := f.Start(ctx); err != nil {
		logger.Error("failed to start feed", "error", err)
		os.Exit(1)
	}

	logger.Info("syncd running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := f.Stop(shutdownCtx); err != nil {
		logger.Warn("feed shutdown incomplete", "error", err)
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("syncd stopped")
}

// openWatchlist builds the watchlist on the configured backend.
func openWatchlist(ctx context.Context, cfg config.WatchlistConfig, logger *slog.Logger) (*watchlist.Watchlist, error) {
	var kv watchlist.KV
	var err error

	switch cfg.Backend {
	case "postgres":
		logger.Info("opening watchlist",
			"backend", "postgres",
			"host", cfg.Postgres.Host,
			"database", cfg.Postgres.Name,
		)
		kv, err = watchlist.NewPostgresKV(ctx, cfg.Postgres)
	default:
		logger.Info("opening watchlist", "backend", "sqlite", "path", cfg.SQLite.Path)
		kv, err = watchlist.NewSQLiteKV(cfg.SQLite.Path)
	}
	if err != nil {
		return nil, err
	}

	return watchlist.New(ctx, kv, logger)
}

// createHealthHandler creates the HTTP handler for health checks, the
// quote debug dump and watchlist mutations.
func createHealthHandler(cfg *config.SyncConfig, cal *calendar.Calendar, manager connection.Manager, st *store.Store, wl *watchlist.Watchlist, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(cfg.Health.Path, func(w http.ResponseWriter, r *http.Request) {
		status := cal.Classify(time.Now())
		connStats := manager.Stats()
		storeStats := st.Stats()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		health.Components["push_channel"] = map[string]interface{}{
			"state":      connStats.State.String(),
			"frames":     connStats.Frames,
			"reconnects": connStats.Reconnects,
		}
		health.Components["market"] = map[string]interface{}{
			"session":   status.Session,
			"is_open":   status.IsOpen,
			"next_open": status.NextOpen,
		}
		health.Components["store"] = map[string]interface{}{
			"quotes":       storeStats.Quotes,
			"push_batches": storeStats.PushBatches,
			"poll_batches": storeStats.PollBatches,
		}
		health.Components["watchlist"] = map[string]interface{}{
			"codes": wl.Len(),
		}

		// Degraded when the market is open but no data source has
		// produced a single quote yet.
		if status.IsOpen && storeStats.Quotes == 0 {
			health.Status = "degraded"
		}
		if connStats.State != model.StateConnected && !status.IsOpen && storeStats.Quotes == 0 {
			health.Status = "idle"
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/quotes", func(w http.ResponseWriter, r *http.Request) {
		quotes := st.Snapshot()

		// Limit to first 100 for debugging
		limit := 100
		total := len(quotes)
		if total > limit {
			quotes = quotes[:limit]
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count":   total,
			"showing": len(quotes),
			"quotes":  quotes,
		})
	})

	mux.HandleFunc("/watchlist", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"codes": wl.Codes(),
			})

		case http.MethodPost, http.MethodDelete:
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "missing code parameter", http.StatusBadRequest)
				return
			}

			var err error
			if r.Method == http.MethodPost {
				err = wl.Add(r.Context(), code)
			} else {
				err = wl.Remove(r.Context(), code)
			}
			if err != nil {
				logger.Warn("watchlist mutation failed", "code", code, "error", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"codes": wl.Codes(),
			})

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return mux
}
