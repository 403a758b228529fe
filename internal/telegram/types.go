package telegram

import (
	"context"
	"time"

	"crypto-range-alert-bot/internal/metrics"
	"crypto-range-alert-bot/internal/price"
	"crypto-range-alert-bot/internal/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
	// RequestTimeout bounds each Bot API request. Long polling extends it to
	// UpdatesTimeout plus a margin.
	RequestTimeout time.Duration
}

// AlertService is the subscription lifecycle the commands drive.
type AlertService interface {
	Subscribe(ctx context.Context, subscriberID int64, symbol string, minimum, maximum float64) (types.Subscription, error)
	Mute(ctx context.Context, subscriberID int64, symbolOrAll string) error
	Subscriptions(ctx context.Context, subscriberID int64) (types.SubscriptionSet, error)
}

// Bot telegram interaction client
type Bot struct {
	Bot       *tgbotapi.BotAPI
	Config    BotConfig
	alerts    AlertService
	directory price.Directory
	metrics   *metrics.Metrics
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}
