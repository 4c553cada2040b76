package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/time-bot/internal/classifier"
	"github.com/xaenox/time-bot/internal/clock"
	"github.com/xaenox/time-bot/internal/conversation"
	"github.com/xaenox/time-bot/internal/pipeline"
	"github.com/xaenox/time-bot/internal/stats"
	"go.uber.org/zap"
)

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	// Handle commands
	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	switch message.Text {
	case ButtonStats:
		b.handleStats(chatID)
		return
	case ButtonTasks:
		b.handleTasks(chatID)
		return
	case ButtonAddFood:
		b.sendMessage(chatID, foodModeText, conversation.KeyboardStart)
		return
	}

	text := message.Text
	if text == "" {
		text = message.Caption
	}
	in := conversation.Input{ChatID: chatID, Text: text, Photo: b.photoLoader(message)}
	if message.From != nil {
		in.UserID = message.From.ID
	}
	if out, handled := b.machine.HandleMessage(ctx, in); handled {
		b.render(chatID, out)
		return
	}

	b.handleNote(ctx, chatID, text)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	switch message.Command() {
	case "start":
		b.sendMessage(chatID, startText, conversation.KeyboardMain)
	case "help":
		b.sendMessage(chatID, helpText, conversation.KeyboardMain)
	case "add":
		b.render(chatID, b.machine.StartFood(chatID))
	case "cancel":
		b.render(chatID, b.machine.Cancel(chatID))
	case "stats":
		b.handleStats(chatID)
	case "tasks":
		b.handleTasks(chatID)
	default:
		b.sendMessage(chatID, unknownCommandText, conversation.KeyboardNone)
	}
}

func (b *Bot) handleNote(ctx context.Context, chatID int64, text string) {
	ctx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	res, err := b.pipeline.Process(ctx, text, pipeline.Options{})
	if err != nil {
		var parseErr *classifier.ParseError
		var unsupportedErr *pipeline.UnsupportedIntentError
		if !errors.Is(err, pipeline.ErrEmptyMessage) && !errors.As(err, &parseErr) && !errors.As(err, &unsupportedErr) {
			b.logger.Error("Failed to process message", zap.Error(err), zap.Int64("chat_id", chatID))
		}
		b.sendMessage(chatID, errorMessage(err), conversation.KeyboardNone)
		return
	}
	b.sendMessage(chatID, resultMessage(res), conversation.KeyboardNone)
}

func (b *Bot) handleStats(chatID int64) {
	day := clock.Today(b.clock)
	s, err := stats.ReadDailyStats(b.vaultDir, day)
	if err != nil {
		b.logger.Error("Failed to read stats", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendMessage(chatID, readFailedText, conversation.KeyboardNone)
		return
	}
	b.sendMessage(chatID, s.Format(), conversation.KeyboardNone)
}

func (b *Bot) handleTasks(chatID int64) {
	tasks, err := stats.ReadTasks(b.tasksDir)
	if err != nil {
		b.logger.Error("Failed to read tasks", zap.Error(err), zap.Int64("chat_id", chatID))
		b.sendMessage(chatID, readFailedText, conversation.KeyboardNone)
		return
	}
	overview := stats.BuildOverview(tasks, clock.Today(b.clock))
	b.sendMessage(chatID, overview.Format(), conversation.KeyboardNone)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	in := conversation.Input{ChatID: chatID, Callback: cb.Data}
	if cb.From != nil {
		in.UserID = cb.From.ID
	}
	out := b.machine.HandleCallback(ctx, in)

	answer := tgbotapi.NewCallback(cb.ID, out.Notice)
	if out.Alert != "" {
		answer = tgbotapi.NewCallbackWithAlert(cb.ID, out.Alert)
	}
	if _, err := b.api.Request(answer); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	for _, r := range out.Replies {
		b.sendMessage(chatID, r.Text, r.Keyboard)
	}
}

// render sends a machine outcome produced by a message rather than a button.
func (b *Bot) render(chatID int64, out conversation.Outcome) {
	if out.Alert != "" {
		b.sendMessage(chatID, out.Alert, conversation.KeyboardNone)
	}
	for _, r := range out.Replies {
		b.sendMessage(chatID, r.Text, r.Keyboard)
	}
	if len(out.Replies) == 0 && out.Alert == "" && out.Notice != "" {
		b.sendMessage(chatID, out.Notice, conversation.KeyboardNone)
	}
}

// sendMessage sends text with kb attached to the last piece.
func (b *Bot) sendMessage(chatID int64, text string, kb conversation.Keyboard) {
	parts := splitText(text)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 {
			msg.ReplyMarkup = markup(kb)
		}
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Error("Failed to send message",
				zap.Error(err),
				zap.Int64("chat_id", chatID))
			return
		}
	}
}
