// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/abelzeko/ob-river-monitor/internal/cache"
	"github.com/abelzeko/ob-river-monitor/internal/entities"
	"github.com/abelzeko/ob-river-monitor/internal/history"
	"github.com/abelzeko/ob-river-monitor/internal/observability"
	"github.com/abelzeko/ob-river-monitor/internal/repository"
	"github.com/abelzeko/ob-river-monitor/internal/stations"
)

// ErrArchiveDisabled is returned by archive queries when no repository is configured
var ErrArchiveDisabled = errors.New("reading archive is not configured")

const allStationsKey = "all_stations"

func stationKey(id string) string {
	return "station_" + id
}

// ReadingFetcher produces one reading per station and never fails
type ReadingFetcher interface {
	FetchReading(ctx context.Context, station entities.StationConfig) entities.StationReading
}

// Snapshot is a set of readings in registry order
type Snapshot struct {
	Readings []entities.StationReading
	Cached   bool // served from a fresh cache entry without touching the source
}

// History is a synthetic series for one station
type History struct {
	Station entities.StationConfig
	Days    int
	Points  []entities.HistoricalPoint
}

// MonitorUseCase fetches, caches and aggregates gauge readings
type MonitorUseCase struct {
	registry  *stations.Registry
	fetcher   ReadingFetcher
	cache     *cache.TTLCache
	history   *history.Generator
	archive   repository.ReadingRepository
	clock     clockwork.Clock
	startedAt time.Time
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewMonitorUseCase creates the monitor; archive may be nil
func NewMonitorUseCase(
	registry *stations.Registry,
	fetcher ReadingFetcher,
	store *cache.TTLCache,
	generator *history.Generator,
	archive repository.ReadingRepository,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *MonitorUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MonitorUseCase{
		registry:  registry,
		fetcher:   fetcher,
		cache:     store,
		history:   generator,
		archive:   archive,
		clock:     clock,
		startedAt: clock.Now(),
		logger:    logger,
		metrics:   metrics,
	}
}

// Stations returns the registry in order
func (uc *MonitorUseCase) Stations() []entities.StationConfig {
	return uc.registry.All()
}

// Station looks up one station
func (uc *MonitorUseCase) Station(id string) (entities.StationConfig, error) {
	return uc.registry.Get(id)
}

// GetReading returns the cached reading for a station, fetching it when stale
func (uc *MonitorUseCase) GetReading(ctx context.Context, id string) (entities.StationReading, error) {
	station, err := uc.registry.Get(id)
	if err != nil {
		return entities.StationReading{}, err
	}

	var reading entities.StationReading
	_, err = uc.cached(stationKey(id), &reading, func() (any, error) {
		return uc.fetcher.FetchReading(context.WithoutCancel(ctx), station), nil
	})
	if err != nil {
		return entities.StationReading{}, err
	}
	return reading, nil
}

// GetAllReadings returns one reading per registered station in registry order
func (uc *MonitorUseCase) GetAllReadings(ctx context.Context) (Snapshot, error) {
	var readings []entities.StationReading
	src, err := uc.cached(allStationsKey, &readings, func() (any, error) {
		return uc.FetchAll(context.WithoutCancel(ctx)), nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Readings: readings, Cached: src == cache.Hit}, nil
}

// GetSummary classifies the current readings of all stations
func (uc *MonitorUseCase) GetSummary(ctx context.Context) (entities.Summary, error) {
	snapshot, err := uc.GetAllReadings(ctx)
	if err != nil {
		return entities.Summary{}, err
	}
	return entities.Summarize(snapshot.Readings), nil
}

// GetHistory returns the synthetic series for a station; days is clamped to the allowed range
func (uc *MonitorUseCase) GetHistory(id string, days int) (History, error) {
	station, err := uc.registry.Get(id)
	if err != nil {
		return History{}, err
	}
	days = history.ClampDays(days)
	return History{
		Station: station,
		Days:    days,
		Points:  uc.history.Generate(station, days),
	}, nil
}

// GetArchivedReadings returns the most recent stored readings for a station
func (uc *MonitorUseCase) GetArchivedReadings(ctx context.Context, id string, limit int) ([]entities.StationReading, error) {
	if _, err := uc.registry.Get(id); err != nil {
		return nil, err
	}
	if uc.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return uc.archive.GetRecentReadings(ctx, id, limit)
}

// InvalidateCache drops every cached reading so the next request fetches fresh data
func (uc *MonitorUseCase) InvalidateCache() {
	uc.cache.Clear()
	uc.metrics.CacheEntries.Set(0)
	uc.logger.Info("Cache cleared")
}

// CacheSize is the raw number of cache entries, stale ones included
func (uc *MonitorUseCase) CacheSize() int {
	return uc.cache.Len()
}

// Uptime is the time since the monitor was created
func (uc *MonitorUseCase) Uptime() time.Duration {
	return uc.clock.Since(uc.startedAt)
}

// FetchAll fetches every station concurrently, bypassing the cache.
// The result has one reading per station in registry order.
func (uc *MonitorUseCase) FetchAll(ctx context.Context) []entities.StationReading {
	all := uc.registry.All()
	readings := make([]entities.StationReading, len(all))

	uc.logger.Info("Fetching all stations", "count", len(all))
	uc.metrics.AggregationRuns.Inc()

	var wg sync.WaitGroup
	for i, station := range all {
		wg.Add(1)
		go func(i int, station entities.StationConfig) {
			defer wg.Done()
			readings[i] = uc.fetcher.FetchReading(ctx, station)
		}(i, station)
	}
	wg.Wait()

	return readings
}

// Prime stores a fresh set of readings in the cache under both the aggregate and per-station keys
func (uc *MonitorUseCase) Prime(readings []entities.StationReading) error {
	payload, err := json.Marshal(readings)
	if err != nil {
		return fmt.Errorf("failed to encode readings: %w", err)
	}
	uc.cache.Set(allStationsKey, payload)

	for _, r := range readings {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode reading for %s: %w", r.StationID, err)
		}
		uc.cache.Set(stationKey(r.StationID), payload)
	}
	uc.metrics.CacheEntries.Set(float64(uc.cache.Len()))
	return nil
}

// cached serves key from the cache into out, loading and storing it on a miss.
// Concurrent misses on the same key share one load.
func (uc *MonitorUseCase) cached(key string, out any, load func() (any, error)) (cache.Source, error) {
	payload, src, err := uc.cache.GetOrLoad(key, func() ([]byte, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return src, fmt.Errorf("failed to load %s: %w", key, err)
	}

	switch src {
	case cache.Hit:
		uc.metrics.CacheLookups.WithLabelValues("hit").Inc()
		uc.logger.Debug("Using cached data", "key", key)
	case cache.Shared:
		uc.metrics.CacheLookups.WithLabelValues("miss").Inc()
		uc.metrics.CoalescedLoads.Inc()
		uc.logger.Debug("Joined in-flight fetch", "key", key)
	default:
		uc.metrics.CacheLookups.WithLabelValues("miss").Inc()
		uc.logger.Info("Cache updated", "key", key)
	}
	uc.metrics.CacheEntries.Set(float64(uc.cache.Len()))

	if err := json.Unmarshal(payload, out); err != nil {
		return src, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return src, nil
}
