// streamtest connects to the market push channel and streams parsed
// quote batches to console.
// Usage: go run ./cmd/streamtest --config configs/syncd.local.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundview/marketsync/internal/config"
	"github.com/fundview/marketsync/internal/connection"
)

func main() {
	configPath := flag.String("config", "configs/syncd.local.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full batch JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load config
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	manager := connection.NewManager(connection.ManagerConfig{
		URL:              cfg.Push.URL,
		ReconnectDelay:   cfg.Push.ReconnectDelay,
		HandshakeTimeout: cfg.Push.HandshakeTimeout,
		PingTimeout:      cfg.Push.PingTimeout,
		WriteTimeout:     cfg.Push.WriteTimeout,
		BufferSize:       cfg.Push.BufferSize,
	}, logger)

	logger.Info("connecting", "url", cfg.Push.URL)
	if err := manager.Start(ctx); err != nil {
		logger.Error("failed to start connection manager", "error", err)
		os.Exit(1)
	}

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := manager.Stats()
				logger.Info("stats",
					"state", stats.State,
					"frames", stats.Frames,
					"parse_errors", stats.ParseErrors,
					"ignored", stats.Ignored,
					"reconnects", stats.Reconnects,
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			manager.Stop(shutdownCtx)
			shutdownCancel()
			logger.Info("shutdown complete")
			return

		case state, ok := <-manager.States():
			if !ok {
				return
			}
			fmt.Printf("[STATE] %s\n", state)

		case update, ok := <-manager.Updates():
			if !ok {
				return
			}
			if *verbose {
				data, _ := json.MarshalIndent(update.Quotes, "", "  ")
				fmt.Printf("[BATCH] update_time=%s\n%s\n", update.UpdateTime, data)
				continue
			}
			for _, q := range update.Quotes {
				fmt.Printf("[QUOTE] code=%s name=%s value=%.2f change=%+.2f%%\n",
					q.Code, q.Name, q.Value, q.ChangePercent)
			}
		}
	}
}
