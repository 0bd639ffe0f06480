package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/abelzeko/ob-river-monitor/internal/cache"
	"github.com/abelzeko/ob-river-monitor/internal/config"
	"github.com/abelzeko/ob-river-monitor/internal/history"
	"github.com/abelzeko/ob-river-monitor/internal/integration"
	"github.com/abelzeko/ob-river-monitor/internal/observability"
	"github.com/abelzeko/ob-river-monitor/internal/repository"
	"github.com/abelzeko/ob-river-monitor/internal/usecases"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("Starting gauge archiver")

	refresher, repo, err := newPipeline(cfg, logger, observability.NewMetrics())
	if err != nil {
		logger.Error("Failed to initialize archiver", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Runs once immediately, then on schedule
	if err := refresher.Start(ctx, cfg.RefreshSchedule); err != nil {
		logger.Error("Failed to schedule archiver", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutting down archiver")
	refresher.Stop()
}

// newPipeline wires scraper, monitor and SQLite archive into a refresher
func newPipeline(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*usecases.Refresher, *repository.SQLiteReadingRepository, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid station registry: %w", err)
	}

	repo, err := repository.NewSQLiteReadingRepository(cfg.DBPath, logger)
	if err != nil {
		return nil, nil, err
	}

	clock := clockwork.NewRealClock()
	scraper := integration.NewGaugeScraper(
		integration.NewHTTPFetcher(cfg.FetchTimeout, cfg.UserAgent, logger),
		integration.NewPatternExtractor(),
		clock,
		logger,
		metrics,
	)
	monitor := usecases.NewMonitorUseCase(
		registry,
		scraper,
		cache.New(cfg.CacheTTL, clock),
		history.NewGenerator(clock),
		repo,
		clock,
		logger,
		metrics,
	)
	return usecases.NewRefresher(monitor, repo, nil, logger, metrics), repo, nil
}
