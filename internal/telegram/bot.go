package telegram

import (
	"bytes"
	"context"
	"net/http"
	"runtime"
	"time"

	"crypto-range-alert-bot/internal/metrics"
	"crypto-range-alert-bot/internal/price"
	"crypto-range-alert-bot/internal/types"
	"crypto-range-alert-bot/lib/helpers"

	"github.com/davecgh/go-spew/spew"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultRequestTimeout = 30 * time.Second
	pollMargin            = 10 * time.Second
)

func httpClientTimeout(c BotConfig) time.Duration {
	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if poll := time.Duration(c.UpdatesTimeout)*time.Second + pollMargin; poll > timeout {
		timeout = poll
	}
	return timeout
}

// NewBot creates new telegram bot
func NewBot(c BotConfig, alerts AlertService, directory price.Directory, m *metrics.Metrics) (*Bot, error) {
	client := &http.Client{Timeout: httpClientTimeout(c)}
	bot, err := tgbotapi.NewBotAPIWithClient(c.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:       bot,
		Config:    c,
		alerts:    alerts,
		directory: directory,
		metrics:   m,
	}, nil
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// StopReceivingUpdates closes the updates channel.
func (b *Bot) StopReceivingUpdates() {
	b.Bot.StopReceivingUpdates()
}

// RegisterCommands publishes the command menu shown by Telegram clients.
func (b *Bot) RegisterCommands() error {
	commands := make([]tgbotapi.BotCommand, 0, len(commandMenu))
	for _, c := range commandMenu {
		commands = append(commands, tgbotapi.BotCommand{Command: c.command, Description: c.description})
	}
	_, err := b.Bot.Request(tgbotapi.NewSetMyCommands(commands...))
	return errors.Wrap(err, "could not register bot commands")
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message to %d", m.ChatID)
}

// Send delivers an alert notification to a chat. It returns once ctx is done
// even if the Bot API request is still in flight.
func (b *Bot) Send(ctx context.Context, subscriberID int64, n types.Notification) error {
	_, err := helpers.CallWithContext(ctx, func() (struct{}, error) {
		return struct{}{}, b.SendMessage(Message{
			ChatID: subscriberID,
			Text:   RenderNotification(n),
		})
	})
	return err
}

// HandleUpdates answers commands until ctx is done or the channel is closed.
func (b *Bot) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if log.IsLevelEnabled(log.TraceLevel) {
		log.Tracef("received update: %s", spew.Sdump(update))
	}

	if update.Message == nil {
		log.Debug("Received non-message or non-command")
		return
	}

	if !update.Message.IsCommand() {
		return
	}

	if b.metrics != nil {
		b.metrics.MessagesHandled.Inc()
	}

	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	text := b.HandleUpdate(ctx, update)
	if text == "" {
		return
	}

	err := b.SendMessage(Message{
		ChatID:    update.Message.Chat.ID,
		Text:      text,
		MessageID: update.Message.MessageID,
	})
	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	} else if b.metrics != nil {
		b.metrics.CommandsProcessed.Inc()
	}
}

// HandleUpdate processes Telegram updates
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) string {
	log.Debugf("received command: %s", u.Message.Command())
	return b.HandleCommand(ctx, u.Message.Chat.ID, u.Message.Command(), u.Message.CommandArguments())
}
