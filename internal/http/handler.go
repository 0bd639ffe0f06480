package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abelzeko/ob-river-monitor/internal/entities"
	"github.com/abelzeko/ob-river-monitor/internal/history"
	"github.com/abelzeko/ob-river-monitor/internal/stations"
	"github.com/abelzeko/ob-river-monitor/internal/usecases"
)

// Version is reported by the banner and health endpoints.
const Version = "2.0.0"

const defaultArchiveLimit = 20

// Handler handles HTTP requests for gauge readings.
type Handler struct {
	monitor *usecases.MonitorUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(monitor *usecases.MonitorUseCase) *Handler {
	return &Handler{
		monitor: monitor,
	}
}

// StationsResponse is the response for GET /api/stations.
type StationsResponse struct {
	Stations   []entities.StationReading `json:"stations"`
	LastUpdate time.Time                 `json:"last_update"`
	Source     string                    `json:"source"`
}

// HistoryResponse is the response for GET /api/stations/:id/history.
type HistoryResponse struct {
	StationID   string                     `json:"station_id"`
	StationName string                     `json:"station_name"`
	Period      string                     `json:"period"`
	Data        []entities.HistoricalPoint `json:"data"`
	LastUpdate  time.Time                  `json:"last_update"`
}

// SummaryResponse is the response for GET /api/summary.
type SummaryResponse struct {
	entities.Summary
	LastUpdate time.Time `json:"last_update"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"` // seconds
	CacheSize int       `json:"cache_size"`
	Version   string    `json:"version"`
}

// Root handles GET /.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Ob river monitoring API",
		"version": Version,
		"docs":    "/api/stations-list",
	})
}

// HealthCheck handles GET /api/health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Uptime:    h.monitor.Uptime().Seconds(),
		CacheSize: h.monitor.CacheSize(),
		Version:   Version,
	})
}

// GetStations handles GET /api/stations.
func (h *Handler) GetStations(c *gin.Context) {
	snapshot, err := h.monitor.GetAllReadings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	source := "AllRivers.info"
	if snapshot.Cached {
		source = "Cache"
	}
	c.JSON(http.StatusOK, StationsResponse{
		Stations:   snapshot.Readings,
		LastUpdate: time.Now().UTC(),
		Source:     source,
	})
}

// GetStation handles GET /api/stations/:id.
func (h *Handler) GetStation(c *gin.Context) {
	reading, err := h.monitor.GetReading(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reading)
}

// GetHistory handles GET /api/stations/:id/history.
func (h *Handler) GetHistory(c *gin.Context) {
	days := history.DefaultDays
	if daysStr := c.Query("days"); daysStr != "" {
		var err error
		days, err = strconv.Atoi(daysStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid days: %v", err)})
			return
		}
	}

	hist, err := h.monitor.GetHistory(c.Param("id"), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{
		StationID:   hist.Station.ID,
		StationName: hist.Station.Name,
		Period:      history.Period(hist.Days),
		Data:        hist.Points,
		LastUpdate:  time.Now().UTC(),
	})
}

// GetArchive handles GET /api/stations/:id/archive.
func (h *Handler) GetArchive(c *gin.Context) {
	limit := defaultArchiveLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
	}

	readings, err := h.monitor.GetArchivedReadings(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"station_id": c.Param("id"),
		"readings":   readings,
		"total":      len(readings),
	})
}

// GetStationsList handles GET /api/stations-list.
func (h *Handler) GetStationsList(c *gin.Context) {
	list := h.monitor.Stations()
	c.JSON(http.StatusOK, gin.H{
		"stations": list,
		"total":    len(list),
	})
}

// GetSummary handles GET /api/summary.
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.monitor.GetSummary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{
		Summary:    summary,
		LastUpdate: time.Now().UTC(),
	})
}

// Refresh handles POST /api/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	h.monitor.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{
		"message":   "Cache cleared, data will be refreshed on the next request",
		"timestamp": time.Now().UTC(),
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stations.ErrStationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecases.ErrArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
