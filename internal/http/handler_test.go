package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/ob-river-monitor/internal/cache"
	"github.com/abelzeko/ob-river-monitor/internal/entities"
	"github.com/abelzeko/ob-river-monitor/internal/history"
	"github.com/abelzeko/ob-river-monitor/internal/observability"
	"github.com/abelzeko/ob-river-monitor/internal/repository"
	"github.com/abelzeko/ob-river-monitor/internal/stations"
	"github.com/abelzeko/ob-river-monitor/internal/usecases"
)

type levelFetcher struct {
	calls atomic.Int32
}

func (f *levelFetcher) FetchReading(_ context.Context, s entities.StationConfig) entities.StationReading {
	f.calls.Add(1)
	level := s.NormalLevel + 10
	date := "14.05.2025"
	return entities.StationReading{
		StationID:     s.ID,
		StationName:   s.Name,
		WaterLevel:    &level,
		LastUpdate:    &date,
		Source:        s.Source,
		Coords:        s.Coords,
		CriticalLevel: s.CriticalLevel,
		NormalLevel:   s.NormalLevel,
		Status:        entities.StatusSuccess,
	}
}

type stubArchive struct {
	readings []entities.StationReading
}

func (a *stubArchive) SaveReadings(context.Context, []entities.StationReading) error { return nil }

func (a *stubArchive) GetRecentReadings(_ context.Context, stationID string, limit int) ([]entities.StationReading, error) {
	var out []entities.StationReading
	for _, r := range a.readings {
		if r.StationID == stationID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (a *stubArchive) GetLastUpdateTime(context.Context) (time.Time, error) { return time.Time{}, nil }

func (a *stubArchive) Close() error { return nil }

func setupTestRouter(t *testing.T, archive repository.ReadingRepository) (*gin.Engine, *levelFetcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := clockwork.NewFakeClockAt(time.Date(2025, 5, 14, 12, 0, 0, 0, time.UTC))
	fetcher := &levelFetcher{}
	monitor := usecases.NewMonitorUseCase(
		stations.Default(),
		fetcher,
		cache.New(cache.DefaultTTL, clock),
		history.NewGenerator(clock),
		archive,
		clock,
		slog.Default(),
		observability.NewMetricsForTesting(),
	)
	return SetupRouter(monitor, nil, nil), fetcher
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetStations_SourceSwitchesToCache(t *testing.T) {
	router, fetcher := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/stations")
	require.Equal(t, http.StatusOK, w.Code)

	var resp StationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AllRivers.info", resp.Source)
	require.Len(t, resp.Stations, 4)
	assert.Equal(t, "novosibirsk", resp.Stations[0].StationID)
	assert.Equal(t, "muzhi", resp.Stations[3].StationID)

	w = doRequest(router, http.MethodGet, "/api/stations")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Cache", resp.Source)
	assert.Equal(t, int32(4), fetcher.calls.Load())
}

func TestGetStation(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/stations/barnaul")
	require.Equal(t, http.StatusOK, w.Code)
	var reading entities.StationReading
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reading))
	assert.Equal(t, "barnaul", reading.StationID)
	require.NotNil(t, reading.WaterLevel)
	assert.Equal(t, 210, *reading.WaterLevel)

	w = doRequest(router, http.MethodGet, "/api/stations/atlantis")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetHistory(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantPoints int
	}{
		{"default days", "/api/stations/muzhi/history", http.StatusOK, 30},
		{"explicit days", "/api/stations/muzhi/history?days=7", http.StatusOK, 7},
		{"clamped days", "/api/stations/muzhi/history?days=1000", http.StatusOK, 365},
		{"negative days", "/api/stations/muzhi/history?days=-3", http.StatusOK, 0},
		{"non-integer days", "/api/stations/muzhi/history?days=week", http.StatusBadRequest, 0},
		{"unknown station", "/api/stations/atlantis/history", http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.path)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp HistoryResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "muzhi", resp.StationID)
			assert.Len(t, resp.Data, tt.wantPoints)
			assert.Equal(t, history.Period(tt.wantPoints), resp.Period)
			if tt.wantPoints > 0 {
				assert.Equal(t, "2025-05-14", resp.Data[len(resp.Data)-1].Date)
			}
		})
	}
}

func TestGetSummary(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/summary")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.TotalStations)
	assert.Equal(t, 4, resp.ActiveStations)
	assert.Equal(t, 4, resp.NormalStations)
	assert.False(t, resp.LastUpdate.IsZero())
}

func TestRefreshClearsCache(t *testing.T) {
	router, fetcher := setupTestRouter(t, nil)

	doRequest(router, http.MethodGet, "/api/stations")
	w := doRequest(router, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/health")
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, 0, health.CacheSize)
	assert.Equal(t, "OK", health.Status)

	doRequest(router, http.MethodGet, "/api/stations")
	assert.Equal(t, int32(8), fetcher.calls.Load())
}

func TestGetStationsList(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/stations-list")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Stations []entities.StationConfig `json:"stations"`
		Total    int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, 450, resp.Stations[0].CriticalLevel)
	assert.NotContains(t, w.Body.String(), "allrivers.info/gauge")
}

func TestGetArchive(t *testing.T) {
	level := 300
	archive := &stubArchive{readings: []entities.StationReading{
		{StationID: "barnaul", WaterLevel: &level, Status: entities.StatusSuccess},
		{StationID: "barnaul", Status: entities.StatusNoData},
		{StationID: "muzhi", Status: entities.StatusNoData},
	}}
	router, _ := setupTestRouter(t, archive)

	w := doRequest(router, http.MethodGet, "/api/stations/barnaul/archive?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Readings []entities.StationReading `json:"readings"`
		Total    int                       `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)

	assert.Equal(t, http.StatusBadRequest, doRequest(router, http.MethodGet, "/api/stations/barnaul/archive?limit=x").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(router, http.MethodGet, "/api/stations/atlantis/archive").Code)
}

func TestGetArchive_Disabled(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/stations/barnaul/archive")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRootAndMetrics(t *testing.T) {
	router, _ := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), Version)

	w = doRequest(router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
}
