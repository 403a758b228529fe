package telegram

import (
	"context"
	"fmt"
	"strings"

	"crypto-range-alert-bot/internal/alert"
	"crypto-range-alert-bot/internal/matcher"
	"crypto-range-alert-bot/internal/store"
	"crypto-range-alert-bot/lib/helpers"
	"crypto-range-alert-bot/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type menuEntry struct {
	command     string
	description string
}

var commandMenu = []menuEntry{
	{"name", "Query a currency name by symbol"},
	{"symbol", "Query a currency symbol by name"},
	{"price", "Query a currency price by symbol"},
	{"notify", "Set up a notification for tracking a currency price"},
	{"mute", "Disable notifications"},
	{"list", "Show active notifications"},
}

// HandleCommand runs one command for a chat and returns the MarkdownV2 reply.
func (b *Bot) HandleCommand(ctx context.Context, chatID int64, command, arguments string) string {
	args := strings.Fields(arguments)

	switch command {
	case "start", "help":
		return translation.Translate("Hello\\. This bot can track *cryptocurrency prices*\\.\nCheck out its commands at the *menu*\\.")
	case "price":
		return b.commandPrice(ctx, args)
	case "name":
		return b.commandName(ctx, args)
	case "symbol":
		return b.commandSymbol(ctx, args)
	case "notify":
		return b.commandNotify(ctx, chatID, args)
	case "mute":
		return b.commandMute(ctx, chatID, args)
	case "list":
		return b.commandList(ctx, chatID)
	}
	return translation.Translate("Unknown command\\. Use /help to see what this bot can do\\.")
}

func (b *Bot) commandPrice(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return translation.Translate("Usage: /price _symbol_\n_symbol_ \\- Cryptocurrency Symbol \\(like *BTC*\\)")
	}

	symbol := matcher.NormalizeSymbol(args[0])
	price, ok := b.directory.GetPrice(ctx, symbol)
	if !ok {
		return currencyNotFound(symbol)
	}
	return fmt.Sprintf(translation.Translate("Price of *%s*: $%s"),
		helpers.EscapeMarkdownV2(symbol), helpers.FormatPriceUS(price, true))
}

func (b *Bot) commandName(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return translation.Translate("Usage: /name _symbol_\n_symbol_ \\- Cryptocurrency Symbol \\(like *BTC*\\)")
	}

	symbol := matcher.NormalizeSymbol(args[0])
	name, ok := b.directory.Name(ctx, symbol)
	if !ok {
		return currencyNotFound(symbol)
	}
	return fmt.Sprintf(translation.Translate("Name of *%s*: %s"),
		helpers.EscapeMarkdownV2(symbol), helpers.EscapeMarkdownV2(name))
}

func (b *Bot) commandSymbol(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return translation.Translate("Usage: /symbol _name_\n_name_ \\- Cryptocurrency Name \\(like *Bitcoin*\\)")
	}

	name := args[0]
	symbol, ok := b.directory.Symbol(ctx, name)
	if !ok {
		return currencyNotFound(name)
	}
	return fmt.Sprintf(translation.Translate("Symbol of *%s*: %s"),
		helpers.EscapeMarkdownV2(name), helpers.EscapeMarkdownV2(symbol))
}

func (b *Bot) commandNotify(ctx context.Context, chatID int64, args []string) string {
	if len(args) != 2 && len(args) != 3 {
		return translation.Translate("Usage: /notify _symbol value/range_\n" +
			"_symbol_ \\- Cryptocurrency symbol \\(like *BTC*\\)\n" +
			"_value_ \\- Price Value \\(positive number, like *12345\\.67*\\)\n" +
			"_range_ \\- Price Range \\(ascending space\\-separated range,\nlike *12345\\.67 76543\\.21*\\)")
	}

	symbol := matcher.NormalizeSymbol(args[0])
	minimum, maximum, err := matcher.ValidateBounds(args[1:])
	if err != nil {
		return RenderValidationError(err)
	}

	_, err = b.alerts.Subscribe(ctx, chatID, symbol, minimum, maximum)
	switch {
	case err == nil:
		return translation.Translate("Notifications had been *enabled* successfully")
	case errors.Is(err, alert.ErrUnknownSymbol):
		return currencyNotFound(symbol)
	case errors.Is(err, matcher.ErrInvalidBounds):
		return RenderValidationError(err)
	default:
		return storeFailure(chatID, err)
	}
}

func (b *Bot) commandMute(ctx context.Context, chatID int64, args []string) string {
	if len(args) != 1 {
		return translation.Translate("Usage: /mute _symbol/ALL_\n" +
			"_symbol_ \\- Cryptocurrency Symbol \\(like *BTC*\\)\n" +
			"_ALL_ \\- Disable all notifications")
	}

	if err := b.alerts.Mute(ctx, chatID, args[0]); err != nil {
		return storeFailure(chatID, err)
	}
	return translation.Translate("Notifications had been *disabled* successfully")
}

func (b *Bot) commandList(ctx context.Context, chatID int64) string {
	set, err := b.alerts.Subscriptions(ctx, chatID)
	if err != nil {
		return storeFailure(chatID, err)
	}
	if len(set) == 0 {
		return translation.Translate("You have no active notifications\\.")
	}

	var list strings.Builder
	list.WriteString(translation.Translate("*Active notifications:*"))
	for _, sub := range set {
		list.WriteString(fmt.Sprintf("\n▫️ *%s*: %s",
			helpers.EscapeMarkdownV2(sub.Symbol),
			helpers.EscapeMarkdownV2(helpers.FormatRange(sub.Minimum, sub.Maximum)),
		))
	}
	return list.String()
}

func currencyNotFound(symbol string) string {
	return fmt.Sprintf(translation.Translate("Currency *%s* does not exist\\."), helpers.EscapeMarkdownV2(symbol))
}

func storeFailure(chatID int64, err error) string {
	log.WithField("chat_id", chatID).Errorf("Command failed: %v", err)
	if errors.Is(err, store.ErrStoreUnavailable) {
		return translation.Translate("Storage is temporarily unavailable\\. Please try again later\\.")
	}
	return translation.Translate("Something went wrong\\. Please try again later\\.")
}
