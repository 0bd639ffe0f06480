package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abelzeko/ob-river-monitor/internal/config"
	"github.com/abelzeko/ob-river-monitor/internal/entities"
	"github.com/abelzeko/ob-river-monitor/internal/integration"
	"github.com/abelzeko/ob-river-monitor/internal/observability"
	"github.com/abelzeko/ob-river-monitor/internal/stations"
)

const gaugePage = `<html><body>
<div class="gauge-level"><span>287 см</span></div>
<div><span>Температура воды: 6.1 °C</span></div>
<table><tr><td>13.05.2025</td></tr><tr><td>14.05.2025</td></tr></table>
</body></html>`

// mockHTMLServer creates a test server that serves a fixed HTML response,
// except for paths ending in "-down" which fail
func mockHTMLServer(html string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "-down") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}))
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		LogLevel:        "debug",
		CacheTTL:        10 * time.Minute,
		FetchTimeout:    2 * time.Second,
		UserAgent:       integration.DefaultUserAgent,
		DBPath:          filepath.Join(t.TempDir(), "data", "readings.db"),
		RefreshSchedule: "@every 1h",
		Stations: []entities.StationConfig{
			{ID: "novosibirsk", Name: "Новосибирск", URL: baseURL + "/gauge/ob-novosibirsk", CriticalLevel: 450, NormalLevel: 100},
			{ID: "muzhi", Name: "Мужи", URL: baseURL + "/gauge/ob-muzhi-down", CriticalLevel: 400, NormalLevel: 80},
		},
	}
}

// TestArchivePipeline runs one refresh against a mock site and checks what lands in SQLite
func TestArchivePipeline(t *testing.T) {
	server := mockHTMLServer(gaugePage)
	defer server.Close()

	cfg := testConfig(t, server.URL)
	refresher, repo, err := newPipeline(cfg, slog.Default(), observability.NewMetricsForTesting())
	if err != nil {
		t.Fatalf("Failed to build pipeline: %v", err)
	}
	defer repo.Close()

	if err := refresher.RefreshReadings(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	saved, err := repo.GetRecentReadings(context.Background(), "novosibirsk", 10)
	if err != nil {
		t.Fatalf("Failed to read archive: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("Expected 1 archived reading for novosibirsk, got %d", len(saved))
	}
	r := saved[0]
	if r.Status != entities.StatusSuccess || r.WaterLevel == nil || *r.WaterLevel != 287 {
		t.Errorf("Unexpected archived reading: status=%s level=%v", r.Status, r.WaterLevel)
	}
	if r.Temperature == nil || *r.Temperature != 6.1 {
		t.Errorf("Expected temperature 6.1, got %v", r.Temperature)
	}
	if r.LastUpdate == nil || *r.LastUpdate != "14.05.2025" {
		t.Errorf("Expected last update 14.05.2025, got %v", r.LastUpdate)
	}

	// A failing station is archived as an error reading rather than aborting the pass
	failed, err := repo.GetRecentReadings(context.Background(), "muzhi", 10)
	if err != nil {
		t.Fatalf("Failed to read archive: %v", err)
	}
	if len(failed) != 1 || failed[0].Status != entities.StatusError {
		t.Errorf("Expected one error reading for muzhi, got %+v", failed)
	}
}

func TestNewPipeline_RejectsBadRegistry(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1")
	cfg.Stations = append(cfg.Stations, cfg.Stations[0])

	if _, _, err := newPipeline(cfg, slog.Default(), observability.NewMetricsForTesting()); err == nil {
		t.Fatal("Expected an error for duplicate station ids")
	}
}

// TestLiveGaugePages hits the real site for every default station
func TestLiveGaugePages(t *testing.T) {
	// Skip this test in CI environments or add a flag to control real network calls
	if os.Getenv("CI") == "true" || testing.Short() {
		t.Skip("Skipping live network test")
	}

	scraper := integration.NewGaugeScraper(
		integration.NewHTTPFetcher(integration.DefaultFetchTimeout, integration.DefaultUserAgent, slog.Default()),
		integration.NewPatternExtractor(),
		nil,
		slog.Default(),
		observability.NewMetricsForTesting(),
	)

	for _, station := range stations.DefaultStations() {
		reading := scraper.FetchReading(context.Background(), station)
		if reading.Status == entities.StatusError {
			// Don't fail the test completely if it's just a temporary network issue
			t.Logf("Warning: %s unavailable: %v", station.ID, *reading.Error)
			continue
		}
		t.Logf("%s: status=%s level=%v temp=%v date=%v",
			station.ID, reading.Status, reading.WaterLevel, reading.Temperature, reading.LastUpdate)
	}
}
