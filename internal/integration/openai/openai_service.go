// Package openai interprets free-text bot messages with the OpenAI chat API
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/abelzeko/ob-river-monitor/internal/entities"
)

// Commands the agent may choose
const (
	CommandStationReading = "GetStationReading"
	CommandSummary        = "GetSummary"
	CommandGeneralQuery   = "GeneralQuery"
)

// AgentResponse defines the structured output from the OpenAI agent.
type AgentResponse struct {
	CommandName string `json:"command_name" jsonschema_description:"The command to execute: GetStationReading, GetSummary or GeneralQuery"`
	StationID   string `json:"station_id" jsonschema_description:"Identifier of the requested gauge station from the known list, empty if none"`
	UserMessage string `json:"user_message" jsonschema_description:"A message to show back to the user in their original language"`
}

// QueryInterpreter turns a user's free-text message into a command
type QueryInterpreter interface {
	InterpretUserQuery(ctx context.Context, userMessage string, stations []entities.StationConfig) (*AgentResponse, error)
}

// Service implements QueryInterpreter on top of the chat completions API.
type Service struct {
	client openai.Client
	schema interface{}
	logger *slog.Logger
}

// GenerateSchema generates a JSON schema for a given type.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

// NewService creates the interpreter for the given API key.
func NewService(apiKey string, logger *slog.Logger) (*Service, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is not set")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &Service{
		client: client,
		schema: GenerateSchema[AgentResponse](),
		logger: logger,
	}, nil
}

// SystemPrompt builds the instructions listing the known stations.
func SystemPrompt(stations []entities.StationConfig) string {
	known := make([]string, 0, len(stations))
	for _, s := range stations {
		known = append(known, fmt.Sprintf("%s (%s)", s.ID, s.Name))
	}

	return fmt.Sprintf(`You are a concise assistant for a water level monitor of the Ob river.
You understand Russian and English and always reply in the language the user wrote in.

Known gauge stations (id and name): %s

Behavior:
1. If the user wants the current level or temperature at a specific station:
   - command_name = "%s"
   - station_id = the matching id from the list; leave it empty if the place is not in the list.
   - user_message: a one-line confirmation in the user's language.
2. If the user asks about the river as a whole, floods or alerts in general:
   - command_name = "%s", station_id = ""
   - user_message: a one-line confirmation.
3. Anything else (greetings, small talk, unrelated questions):
   - command_name = "%s", station_id = ""
   - user_message: a short helpful reply mentioning /help.

Output **strictly** in JSON.`, strings.Join(known, ", "), CommandStationReading, CommandSummary, CommandGeneralQuery)
}

// InterpretUserQuery sends a message to the OpenAI agent and returns the structured response.
func (s *Service) InterpretUserQuery(ctx context.Context, userMessage string, stations []entities.StationConfig) (*AgentResponse, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "agent_response",
		Description: openai.String("Structured response containing command, station id, and user message"),
		Schema:      s.schema,
		Strict:      openai.Bool(true),
	}

	respFormat := openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
	}

	chat, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(stations)),
			openai.UserMessage(userMessage),
		},
		ResponseFormat: respFormat,
		Model:          openai.ChatModelGPT4o,
	})
	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("received empty response from OpenAI")
	}

	return ParseAgentResponse(chat.Choices[0].Message.Content)
}

// ParseAgentResponse decodes the JSON content produced by the agent.
func ParseAgentResponse(content string) (*AgentResponse, error) {
	var agentResp AgentResponse
	if err := json.Unmarshal([]byte(content), &agentResp); err != nil {
		return nil, fmt.Errorf("error unmarshalling OpenAI response: %w", err)
	}
	return &agentResp, nil
}
