// Package bot is the Telegram transport: it receives updates, serializes them
// per chat and routes them to the conversation machine or the note pipeline.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/time-bot/internal/clock"
	"github.com/xaenox/time-bot/internal/conversation"
	"github.com/xaenox/time-bot/internal/pipeline"
	"go.uber.org/zap"
)

const (
	// SessionTTL bounds how long an abandoned conversation is kept.
	SessionTTL     = 24 * time.Hour
	pruneInterval  = time.Hour
	photoTimeout   = 30 * time.Second
	maxPhotoBytes  = 20 << 20
	processTimeout = 2 * time.Minute
)

// API is the part of the Telegram client the bot uses.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Processor interface {
	Process(ctx context.Context, text string, opts pipeline.Options) (pipeline.Result, error)
}

type Pruner interface {
	Prune(maxAge time.Duration) int
}

type Deps struct {
	API      API
	Pipeline Processor
	Machine  *conversation.Machine
	// Sessions is optional; when set, stale conversations are dropped hourly.
	Sessions Pruner
	Clock    clock.Clock
	VaultDir string
	TasksDir string
	Logger   *zap.Logger
}

type Bot struct {
	api      API
	pipeline Processor
	machine  *conversation.Machine
	sessions Pruner
	clock    clock.Clock
	vaultDir string
	tasksDir string
	http     *http.Client
	dispatch *dispatcher
	logger   *zap.Logger
}

// NewAPI connects to Telegram with token.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return api, nil
}

func New(d Deps) *Bot {
	return &Bot{
		api:      d.API,
		pipeline: d.Pipeline,
		machine:  d.Machine,
		sessions: d.Sessions,
		clock:    d.Clock,
		vaultDir: d.VaultDir,
		tasksDir: d.TasksDir,
		http:     &http.Client{Timeout: photoTimeout},
		dispatch: newDispatcher(),
		logger:   d.Logger,
	}
}

// Run polls for updates until ctx is done, then waits for in-flight handlers.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	prune := time.NewTicker(pruneInterval)
	defer prune.Stop()

	b.logger.Info("Bot started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.dispatch.wait()
			b.logger.Info("Bot stopped")
			return nil

		case <-prune.C:
			if b.sessions != nil {
				if n := b.sessions.Prune(SessionTTL); n > 0 {
					b.logger.Info("Pruned stale sessions", zap.Int("count", n))
				}
			}

		case update, ok := <-updates:
			if !ok {
				b.dispatch.wait()
				return nil
			}
			b.Dispatch(ctx, update)
		}
	}
}

// Dispatch queues update behind earlier updates of the same chat.
func (b *Bot) Dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		b.dispatch.submit(msg.Chat.ID, func() {
			defer b.recoverHandler(msg.Chat.ID, msg.Text)
			b.handleMessage(ctx, msg)
		})
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		cb := update.CallbackQuery
		b.dispatch.submit(cb.Message.Chat.ID, func() {
			defer b.recoverHandler(cb.Message.Chat.ID, cb.Data)
			b.handleCallback(ctx, cb)
		})
	}
}

// recoverHandler keeps a panicking handler from taking down the process.
func (b *Bot) recoverHandler(chatID int64, raw string) {
	r := recover()
	if r == nil {
		return
	}
	b.logger.Error("Handler panicked",
		zap.Any("panic", r),
		zap.Int64("chat_id", chatID),
		zap.String("raw_text", raw),
		zap.Stack("stack"))
	b.sendMessage(chatID, genericErrorText, conversation.KeyboardNone)
}

// SendReminder delivers the breath reminder prompt; it satisfies reminder.Sender.
func (b *Bot) SendReminder(_ context.Context, chatID int64) error {
	r := conversation.ReminderPrompt()
	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.ReplyMarkup = markup(r.Keyboard)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

func (b *Bot) photoLoader(msg *tgbotapi.Message) conversation.PhotoLoader {
	if len(msg.Photo) == 0 {
		return nil
	}
	// The last size is the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	return func(ctx context.Context) ([]byte, error) {
		return b.downloadFile(ctx, fileID)
	}
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}
