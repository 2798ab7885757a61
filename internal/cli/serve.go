package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/triallog/triallog/internal/anthropic"
	"github.com/triallog/triallog/internal/api"
	"github.com/triallog/triallog/internal/config"
	"github.com/triallog/triallog/internal/events"
	"github.com/triallog/triallog/internal/extract"
	"github.com/triallog/triallog/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the check-in ingestion server",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("triallog starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	strategy, err := buildStrategy(cfg)
	if err != nil {
		slog.Error("failed to configure extractor", "error", err)
		os.Exit(1)
	}
	slog.Info("extractor ready", "strategy", strategy.Name())

	// NATS is optional. Without it, entries are stored but no events fan out.
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		publisher, err = events.Connect(cfg.NatsURL, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, entry events disabled")
	}

	srv := api.NewServer(cfg.Port, db, strategy, publisher, cfg.PatientID, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("triallog ready", "port", cfg.Port, "patient_id", cfg.PatientID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("triallog stopped")
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		db, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		slog.Info("database connected", "backend", "postgres")
		return db, nil
	}
	db, err := store.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite at %s: %w", cfg.SQLitePath, err)
	}
	slog.Info("database connected", "backend", "sqlite", "path", cfg.SQLitePath)
	return db, nil
}

func buildStrategy(cfg config.Config) (extract.Strategy, error) {
	switch cfg.Extractor {
	case "keyword":
		return extract.NewKeywordStrategy(), nil
	case "claude":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the claude extractor")
		}
	case "auto":
		if cfg.AnthropicAPIKey == "" {
			slog.Warn("ANTHROPIC_API_KEY not set, falling back to keyword extraction")
			return extract.NewKeywordStrategy(), nil
		}
	default:
		return nil, fmt.Errorf("unknown extractor %q", cfg.Extractor)
	}

	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	timeout := time.Duration(cfg.ExtractTimeout) * time.Second
	return extract.NewClaudeStrategy(llm, timeout, slog.Default()), nil
}
