package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/abelzeko/ob-river-monitor/internal/api"
	"github.com/abelzeko/ob-river-monitor/internal/cache"
	"github.com/abelzeko/ob-river-monitor/internal/config"
	"github.com/abelzeko/ob-river-monitor/internal/history"
	"github.com/abelzeko/ob-river-monitor/internal/integration"
	"github.com/abelzeko/ob-river-monitor/internal/integration/openai"
	"github.com/abelzeko/ob-river-monitor/internal/observability"
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
	logger.Info("Starting Ob river bot")

	if cfg.TelegramToken == "" {
		logger.Error("OBMON_TELEGRAM_TOKEN is not set")
		os.Exit(1)
	}

	registry, err := cfg.Registry()
	if err != nil {
		logger.Error("Invalid station registry", "error", err)
		os.Exit(1)
	}

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
		nil,
		clock,
		logger,
		metrics,
	)

	// Free-text questions need OpenAI; commands work without it
	var interpreter openai.QueryInterpreter
	if svc, err := openai.NewService(cfg.OpenAIAPIKey, logger); err != nil {
		logger.Warn("Natural language queries disabled", "reason", err)
	} else {
		interpreter = svc
	}

	assistant := usecases.NewAssistantUseCase(monitor, interpreter, logger)
	telegramBot, err := api.NewTelegramBot(cfg.TelegramToken, assistant, logger)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telegramBot.Start(ctx)
	logger.Info("Bot stopped")
}
