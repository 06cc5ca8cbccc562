package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stock-dynamic/config"
	"stock-dynamic/pkg/logger"
	"stock-dynamic/pkg/utils"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Notifier delivers finished run reports to an operator.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type nopNotifier struct{}

func NewNopNotifier() Notifier { return nopNotifier{} }

func (nopNotifier) Notify(context.Context, string) error { return nil }

// TelegramNotifier sends plain-text messages to one chat. Long messages are
// split on line breaks to fit the Telegram limit.
type TelegramNotifier struct {
	cfg     config.TelegramConfig
	log     *logger.Logger
	bot     *telebot.Bot
	chat    *telebot.Chat
	limiter *rate.Limiter
	mu      sync.Mutex
}

// NewBot builds an offline bot: it only sends, it never polls for updates.
// apiURL may be empty to use the public Bot API.
func NewBot(token, apiURL string, log *logger.Logger) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		URL:     apiURL,
		Token:   token,
		Offline: true,
		OnError: func(err error, c telebot.Context) {
			log.Error("Telegram bot error", logger.ErrorField(err))
		},
	})
}

func NewTelegramNotifier(cfg config.TelegramConfig, log *logger.Logger, bot *telebot.Bot) *TelegramNotifier {
	perSecond := cfg.MaxRequestPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	return &TelegramNotifier{
		cfg:     cfg,
		log:     log,
		bot:     bot,
		chat:    &telebot.Chat{ID: cfg.ChatID},
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// NewNotifierFromConfig returns a no-op notifier when Telegram is disabled.
func NewNotifierFromConfig(cfg config.TelegramConfig, log *logger.Logger) (Notifier, error) {
	if !cfg.Enabled {
		return NewNopNotifier(), nil
	}
	bot, err := NewBot(cfg.BotToken, "", log)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return NewTelegramNotifier(cfg, log, bot), nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, message string) error {
	chunks := utils.ChunkString(message, t.cfg.MaxMessageCharacters)

	// keep chunks of one report in order when reports race
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, chunk := range chunks {
		if err := t.limiter.Wait(ctx); err != nil {
			t.log.ErrorContext(ctx, "Failed to wait for telegram rate limit", logger.ErrorField(err))
			return err
		}
		start := time.Now()
		if _, err := t.bot.Send(t.chat, chunk, &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
			t.log.ErrorContext(ctx, "Failed to send telegram message",
				logger.IntField("chunk", i),
				logger.ErrorField(err),
			)
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
		t.log.DebugContext(ctx, "Telegram message sent",
			logger.IntField("chunk", i),
			logger.IntField("chunks", len(chunks)),
			logger.DurationField("took", time.Since(start)),
		)
	}
	return nil
}
