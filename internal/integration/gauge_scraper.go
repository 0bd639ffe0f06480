package integration

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/abelzeko/ob-river-monitor/internal/entities"
	"github.com/abelzeko/ob-river-monitor/internal/observability"
)

// LastUpdateLayout is the dd.mm.yyyy form used by the gauge pages
const LastUpdateLayout = "02.01.2006"

// GaugeScraper turns a station's remote page into a StationReading
type GaugeScraper struct {
	fetcher   DocumentFetcher
	extractor ReadingExtractor
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewGaugeScraper creates a scraper; a nil clock means real time
func NewGaugeScraper(fetcher DocumentFetcher, extractor ReadingExtractor, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *GaugeScraper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &GaugeScraper{
		fetcher:   fetcher,
		extractor: extractor,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// FetchReading fetches and parses one station. It never fails: transport and
// parse problems come back as a reading with status error.
func (s *GaugeScraper) FetchReading(ctx context.Context, station entities.StationConfig) entities.StationReading {
	start := s.clock.Now()
	reading := s.fetchReading(ctx, station)

	s.metrics.FetchDuration.WithLabelValues(station.ID).Observe(s.clock.Since(start).Seconds())
	s.metrics.FetchTotal.WithLabelValues(station.ID, string(reading.Status)).Inc()
	return reading
}

func (s *GaugeScraper) fetchReading(ctx context.Context, station entities.StationConfig) entities.StationReading {
	s.logger.Info("Fetching gauge page", "station", station.ID, "url", station.URL)

	body, err := s.fetcher.Fetch(ctx, station.URL)
	if err != nil {
		s.logger.Error("Error fetching data for station", "station", station.ID, "error", err)
		return s.failedReading(station, err)
	}

	extracted, err := s.extractor.Extract(bytes.NewReader(body))
	if err != nil {
		s.logger.Error("Error parsing gauge page", "station", station.ID, "error", err)
		return s.failedReading(station, err)
	}

	now := s.clock.Now()
	lastUpdate := extracted.LastUpdate
	if lastUpdate == nil {
		today := now.Format(LastUpdateLayout)
		lastUpdate = &today
	}

	status := entities.StatusSuccess
	if extracted.WaterLevel == nil {
		status = entities.StatusNoData
		s.logger.Warn("No water level found on gauge page", "station", station.ID)
	} else {
		s.logger.Info("Parsed reading", "station", station.ID, "level_cm", *extracted.WaterLevel, "last_update", *lastUpdate)
	}

	reading := baseReading(station, now)
	reading.WaterLevel = extracted.WaterLevel
	reading.Temperature = extracted.Temperature
	reading.LastUpdate = lastUpdate
	reading.Status = status
	return reading
}

func (s *GaugeScraper) failedReading(station entities.StationConfig, err error) entities.StationReading {
	msg := err.Error()
	reading := baseReading(station, s.clock.Now())
	reading.Status = entities.StatusError
	reading.Error = &msg
	return reading
}

func baseReading(station entities.StationConfig, now time.Time) entities.StationReading {
	return entities.StationReading{
		StationID:     station.ID,
		StationName:   station.Name,
		Source:        station.Source,
		Coords:        station.Coords,
		CriticalLevel: station.CriticalLevel,
		NormalLevel:   station.NormalLevel,
		Timestamp:     now,
	}
}
