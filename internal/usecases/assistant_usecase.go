package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abelzeko/ob-river-monitor/internal/entities"
	"github.com/abelzeko/ob-river-monitor/internal/integration/openai"
	"github.com/abelzeko/ob-river-monitor/internal/stations"
)

// AssistantUseCase renders monitor data as chat messages and interprets free text
type AssistantUseCase struct {
	monitor     *MonitorUseCase
	interpreter openai.QueryInterpreter
	logger      *slog.Logger
}

// NewAssistantUseCase creates the assistant; interpreter may be nil to disable free-text handling
func NewAssistantUseCase(monitor *MonitorUseCase, interpreter openai.QueryInterpreter, logger *slog.Logger) *AssistantUseCase {
	return &AssistantUseCase{
		monitor:     monitor,
		interpreter: interpreter,
		logger:      logger,
	}
}

// StationsMessage lists the registered stations
func (uc *AssistantUseCase) StationsMessage() string {
	var b strings.Builder
	b.WriteString("Available stations:\n\n")
	for _, s := range uc.monitor.Stations() {
		b.WriteString(fmt.Sprintf("• %s — %s (normal %d cm, critical %d cm)\n", s.ID, s.Name, s.NormalLevel, s.CriticalLevel))
	}
	b.WriteString("\nUse /station [id] to get the current reading.")
	return b.String()
}

// StationMessage renders the current reading of one station
func (uc *AssistantUseCase) StationMessage(ctx context.Context, id string) string {
	reading, err := uc.monitor.GetReading(ctx, id)
	if errors.Is(err, stations.ErrStationNotFound) {
		return fmt.Sprintf("No station '%s'. Use /stations to see the available ones.", id)
	}
	if err != nil {
		uc.logger.Error("Error fetching station reading", "station", id, "error", err)
		return "Error fetching station data. Please try again later."
	}
	return FormatReading(reading)
}

// SummaryMessage renders the alert summary over all stations
func (uc *AssistantUseCase) SummaryMessage(ctx context.Context) string {
	summary, err := uc.monitor.GetSummary(ctx)
	if err != nil {
		uc.logger.Error("Error building summary", "error", err)
		return "Error fetching station data. Please try again later."
	}
	return FormatSummary(summary)
}

// HistoryMessage renders a synthetic series in compact form
func (uc *AssistantUseCase) HistoryMessage(id string, days int) string {
	h, err := uc.monitor.GetHistory(id, days)
	if err != nil {
		return fmt.Sprintf("No station '%s'. Use /stations to see the available ones.", id)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Modelled levels for %s, last %d days:\n\n", h.Station.Name, h.Days))
	for _, p := range h.Points {
		b.WriteString(fmt.Sprintf("%s  %d cm  %.1f °C\n", p.Date, p.WaterLevel, p.Temperature))
	}
	return b.String()
}

// RefreshMessage clears the cache and confirms it
func (uc *AssistantUseCase) RefreshMessage() string {
	uc.monitor.InvalidateCache()
	return "Cache cleared, data will be refreshed on the next request."
}

// HandleNaturalLanguageQuery interprets a user's free-text query using the AI service
// and returns an appropriate response string.
func (uc *AssistantUseCase) HandleNaturalLanguageQuery(ctx context.Context, query string) string {
	if uc.interpreter == nil {
		return "I don't understand. Use /help to see available commands."
	}

	uc.logger.Info("Interpreting natural language query", "query", query)
	agentResp, err := uc.interpreter.InterpretUserQuery(ctx, query, uc.monitor.Stations())
	if err != nil {
		uc.logger.Error("Error interpreting user query via OpenAI", "error", err)
		return "Sorry, I'm having trouble understanding right now. Please try again later or use /help."
	}

	uc.logger.Info("Agent response",
		"command", agentResp.CommandName,
		"station", agentResp.StationID,
		"message", agentResp.UserMessage)

	switch agentResp.CommandName {
	case openai.CommandStationReading:
		if agentResp.StationID == "" {
			// Agent identified intent but not a specific station
			return agentResp.UserMessage
		}
		return joinMessages(agentResp.UserMessage, uc.StationMessage(ctx, agentResp.StationID))
	case openai.CommandSummary:
		return joinMessages(agentResp.UserMessage, uc.SummaryMessage(ctx))
	case openai.CommandGeneralQuery:
		return agentResp.UserMessage
	default:
		uc.logger.Warn("Agent returned unexpected command", "command", agentResp.CommandName)
		return "I'm not sure how to respond to that. You can use /help for commands."
	}
}

// FormatReading formats a station reading for display
func FormatReading(r entities.StationReading) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📍 Station: %s\n", r.StationName))

	switch {
	case r.Status == entities.StatusError:
		msg := "unknown error"
		if r.Error != nil {
			msg = *r.Error
		}
		b.WriteString(fmt.Sprintf("⚠️ Data unavailable: %s\n", msg))
	case r.WaterLevel == nil:
		b.WriteString("💧 Water Level: no data\n")
	default:
		b.WriteString(fmt.Sprintf("💧 Water Level: %d cm (%s)\n", *r.WaterLevel, r.Level()))
	}

	// Only include fields that have values
	if r.Temperature != nil {
		b.WriteString(fmt.Sprintf("🌡️ Water Temperature: %.1f °C\n", *r.Temperature))
	}
	b.WriteString(fmt.Sprintf("📊 Thresholds: normal %d cm, critical %d cm\n", r.NormalLevel, r.CriticalLevel))
	if r.LastUpdate != nil {
		b.WriteString(fmt.Sprintf("🕒 Last update: %s", *r.LastUpdate))
	}
	return b.String()
}

// FormatSummary formats the alert summary for display
func FormatSummary(s entities.Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Stations: %d, reporting: %d\n", s.TotalStations, s.ActiveStations))
	b.WriteString(fmt.Sprintf("🔴 critical: %d  🟡 elevated: %d  🟢 normal: %d\n\n", s.CriticalStations, s.ElevatedStations, s.NormalStations))
	for _, st := range s.Stations {
		level := "—"
		if st.Level != nil {
			level = fmt.Sprintf("%d cm", *st.Level)
		}
		b.WriteString(fmt.Sprintf("• %s: %s (%s)\n", st.Name, level, st.Status))
	}
	return b.String()
}

func joinMessages(first, second string) string {
	if first == "" {
		return second
	}
	return first + "\n\n" + second
}
