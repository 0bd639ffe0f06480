package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/abelzeko/ob-river-monitor/internal/entities"
	"github.com/abelzeko/ob-river-monitor/internal/observability"
	"github.com/abelzeko/ob-river-monitor/internal/repository"
)

// DefaultRefreshSchedule refreshes once per cache lifetime
const DefaultRefreshSchedule = "*/10 * * * *"

// SummaryPublisher receives the summary produced by each refresh
type SummaryPublisher interface {
	PublishSummary(summary entities.Summary)
}

// Refresher periodically fetches every station, primes the cache,
// archives the readings and publishes a summary
type Refresher struct {
	monitor   *MonitorUseCase
	archive   repository.ReadingRepository
	publisher SummaryPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	cron      *cron.Cron
}

// NewRefresher creates a refresher; archive and publisher may be nil
func NewRefresher(monitor *MonitorUseCase, archive repository.ReadingRepository, publisher SummaryPublisher, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	return &Refresher{
		monitor:   monitor,
		archive:   archive,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// RefreshReadings runs one refresh pass. Per-station failures are part of the
// result; only cache encoding and archive errors are returned.
func (r *Refresher) RefreshReadings(ctx context.Context) error {
	r.logger.Info("Starting station data refresh")

	readings := r.monitor.FetchAll(ctx)
	if err := r.monitor.Prime(readings); err != nil {
		r.metrics.RefreshTotal.WithLabelValues("error").Inc()
		return err
	}

	summary := entities.Summarize(readings)
	r.logger.Info("Refreshed station data",
		"total", summary.TotalStations,
		"active", summary.ActiveStations,
		"critical", summary.CriticalStations,
		"elevated", summary.ElevatedStations)

	if r.publisher != nil {
		r.publisher.PublishSummary(summary)
	}

	if r.archive != nil {
		if err := r.archive.SaveReadings(ctx, readings); err != nil {
			r.metrics.RefreshTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("failed to save readings to repository: %w", err)
		}
	}

	r.metrics.RefreshTotal.WithLabelValues("success").Inc()
	return nil
}

// Start runs a refresh immediately and then on the given cron schedule
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}

	if err := r.RefreshReadings(ctx); err != nil {
		r.logger.Error("Initial data refresh failed", "error", err)
	}

	r.cron = cron.New()
	if _, err := r.cron.AddFunc(schedule, func() {
		if err := r.RefreshReadings(ctx); err != nil {
			r.logger.Error("Scheduled data refresh failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to set up cron job: %w", err)
	}

	r.logger.Info("Refresh has been scheduled", "schedule", schedule)
	r.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}
