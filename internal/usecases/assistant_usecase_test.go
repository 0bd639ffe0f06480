package usecases

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/abelzeko/ob-river-monitor/internal/entities"
	"github.com/abelzeko/ob-river-monitor/internal/integration/openai"
)

type stubInterpreter struct {
	resp *openai.AgentResponse
	err  error
}

func (s stubInterpreter) InterpretUserQuery(context.Context, string, []entities.StationConfig) (*openai.AgentResponse, error) {
	return s.resp, s.err
}

func newTestAssistant(t *testing.T, interpreter openai.QueryInterpreter) *AssistantUseCase {
	clock := clockwork.NewFakeClock()
	levels := allLevels()
	delete(levels, "muzhi")
	return NewAssistantUseCase(newTestMonitor(t, newFakeFetcher(clock, levels), clock), interpreter, slog.Default())
}

func TestStationMessage(t *testing.T) {
	a := newTestAssistant(t, nil)

	msg := a.StationMessage(context.Background(), "nizhnevartovsk")
	assert.Contains(t, msg, "Нижневартовск")
	assert.Contains(t, msg, "501 cm (critical)")

	msg = a.StationMessage(context.Background(), "muzhi")
	assert.Contains(t, msg, "Data unavailable")

	msg = a.StationMessage(context.Background(), "atlantis")
	assert.Contains(t, msg, "No station 'atlantis'")
}

func TestSummaryAndStationsMessage(t *testing.T) {
	a := newTestAssistant(t, nil)

	assert.Contains(t, a.SummaryMessage(context.Background()), "Stations: 4, reporting: 3")
	assert.Contains(t, a.StationsMessage(), "barnaul — Барнаул")
	assert.Contains(t, a.HistoryMessage("barnaul", 2), "last 2 days")
	assert.Contains(t, a.HistoryMessage("atlantis", 2), "No station")
}

func TestHandleNaturalLanguageQuery(t *testing.T) {
	ctx := context.Background()

	a := newTestAssistant(t, nil)
	assert.Contains(t, a.HandleNaturalLanguageQuery(ctx, "привет"), "/help")

	a = newTestAssistant(t, stubInterpreter{err: errors.New("quota")})
	assert.Contains(t, a.HandleNaturalLanguageQuery(ctx, "уровень в Барнауле?"), "trouble understanding")

	a = newTestAssistant(t, stubInterpreter{resp: &openai.AgentResponse{
		CommandName: openai.CommandStationReading, StationID: "barnaul", UserMessage: "Смотрю Барнаул",
	}})
	msg := a.HandleNaturalLanguageQuery(ctx, "уровень в Барнауле?")
	assert.Contains(t, msg, "Смотрю Барнаул\n\n")
	assert.Contains(t, msg, "251 cm (elevated)")

	a = newTestAssistant(t, stubInterpreter{resp: &openai.AgentResponse{CommandName: openai.CommandSummary}})
	assert.Contains(t, a.HandleNaturalLanguageQuery(ctx, "есть паводок?"), "critical: 1")

	a = newTestAssistant(t, stubInterpreter{resp: &openai.AgentResponse{CommandName: "Dance"}})
	assert.Contains(t, a.HandleNaturalLanguageQuery(ctx, "?"), "not sure")
}

func TestFormatReading_NoData(t *testing.T) {
	date := "01.05.2025"
	msg := FormatReading(entities.StationReading{StationName: "Мужи", Status: entities.StatusNoData, LastUpdate: &date})

	assert.Contains(t, msg, "Water Level: no data")
	assert.Contains(t, msg, "Last update: 01.05.2025")
}
