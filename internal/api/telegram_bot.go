// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abelzeko/ob-river-monitor/internal/history"
	"github.com/abelzeko/ob-river-monitor/internal/usecases"
)

const helpText = "Available commands:\n" +
	"/start - Start the bot\n" +
	"/stations - Show the list of gauge stations\n" +
	"/station [id] - Show the current reading of a station\n" +
	"/summary - Show the alert summary for all stations\n" +
	"/history [id] [days] - Show modelled levels for recent days\n" +
	"/refresh - Drop cached readings\n" +
	"/help - Show this help message"

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot       *tgbotapi.BotAPI
	assistant *usecases.AssistantUseCase
	logger    *slog.Logger
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, assistant *usecases.AssistantUseCase, logger *slog.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramBot{
		bot:       bot,
		assistant: assistant,
		logger:    logger,
	}, nil
}

// Start listens for and handles Telegram messages until ctx is done
func (t *TelegramBot) Start(ctx context.Context) {
	t.logger.Info("Authorized on Telegram account", "username", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	t.logger.Info("Bot is now listening for messages")

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}

			t.logger.Info("Received message",
				"user", update.Message.From.UserName,
				"user_id", update.Message.From.ID,
				"text", update.Message.Text)

			t.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage processes a Telegram message and sends the reply
func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	msg := tgbotapi.NewMessage(message.Chat.ID, t.reply(ctx, message))

	t.logger.Debug("Sending response", "user", message.From.UserName)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error("Error sending message", "error", err)
	}
}

func (t *TelegramBot) reply(ctx context.Context, message *tgbotapi.Message) string {
	if message.IsCommand() {
		return t.handleCommand(ctx, message.Command(), message.CommandArguments())
	}
	return t.assistant.HandleNaturalLanguageQuery(ctx, message.Text)
}

// handleCommand processes commands like /start, /help, etc.
func (t *TelegramBot) handleCommand(ctx context.Context, command, args string) string {
	t.logger.Info("Handling command", "command", command, "args", args)

	switch command {
	case "start":
		return "Welcome to the Ob river monitor! Use /stations to see the gauges or /help for more information."

	case "help":
		return helpText

	case "stations":
		return t.assistant.StationsMessage()

	case "station":
		id := strings.TrimSpace(args)
		if id == "" {
			return "Please specify a station id. Example: /station barnaul"
		}
		return t.assistant.StationMessage(ctx, id)

	case "summary":
		return t.assistant.SummaryMessage(ctx)

	case "history":
		id, days, err := parseHistoryArgs(args)
		if err != nil {
			return err.Error()
		}
		return t.assistant.HistoryMessage(id, days)

	case "refresh":
		return t.assistant.RefreshMessage()

	default:
		return "Unknown command. Use /help to see available commands."
	}
}

// parseHistoryArgs reads "<id> [days]"; days defaults to a week
func parseHistoryArgs(args string) (string, int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", 0, errors.New("Please specify a station id. Example: /history barnaul 7")
	}

	days := 7
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return "", 0, fmt.Errorf("Days must be a number, e.g. /history %s 7", fields[0])
		}
		days = history.ClampDays(n)
	}
	return fields[0], days, nil
}
