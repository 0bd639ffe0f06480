package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/abelzeko/ob-river-monitor/internal/cache"
	"github.com/abelzeko/ob-river-monitor/internal/config"
	"github.com/abelzeko/ob-river-monitor/internal/history"
	httpapi "github.com/abelzeko/ob-river-monitor/internal/http"
	"github.com/abelzeko/ob-river-monitor/internal/integration"
	"github.com/abelzeko/ob-river-monitor/internal/observability"
	"github.com/abelzeko/ob-river-monitor/internal/repository"
	"github.com/abelzeko/ob-river-monitor/internal/usecases"
	"github.com/abelzeko/ob-river-monitor/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewSQLiteReadingRepository(cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	metrics := observability.NewMetrics()
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

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	refresher := usecases.NewRefresher(monitor, repo, hub, logger, metrics)
	// Warms the cache before the listener opens
	if err := refresher.Start(ctx, cfg.RefreshSchedule); err != nil {
		return err
	}
	defer refresher.Stop()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.SetupRouter(monitor, hub, cfg.CORSAllowedOrigins),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr, "stations", registry.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
