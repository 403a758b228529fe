package telegram

import (
	"fmt"
	"strconv"

	"crypto-range-alert-bot/internal/matcher"
	"crypto-range-alert-bot/internal/types"
	"crypto-range-alert-bot/lib/helpers"
	"crypto-range-alert-bot/lib/translation"

	"github.com/pkg/errors"
)

// RenderNotification formats an alert notification as MarkdownV2.
func RenderNotification(n types.Notification) string {
	switch n.Kind {
	case types.NotificationDetail:
		return fmt.Sprintf(translation.Translate("Currency *%s* is now within a range of _%s_\nCurrent price: *$%s*"),
			helpers.EscapeMarkdownV2(n.Symbol),
			helpers.EscapeMarkdownV2(helpers.FormatRange(n.Minimum, n.Maximum)),
			helpers.FormatPriceUS(n.Price, true),
		)
	default:
		return translation.Translate("Cryptocurrency price is now within the specified range\\.")
	}
}

// RenderValidationError explains a rejected bounds input.
func RenderValidationError(err error) string {
	var nan *matcher.NotANumberError
	var descending *matcher.DescendingRangeError
	var arity *matcher.ArityError

	switch {
	case errors.As(err, &nan):
		return fmt.Sprintf(translation.Translate("Value *%s* is not a positive number\\."),
			helpers.EscapeMarkdownV2(nan.Token))
	case errors.As(err, &descending):
		return fmt.Sprintf(translation.Translate("Range *%s* is not an ascending range\\."),
			helpers.EscapeMarkdownV2(fmt.Sprintf("(%s, %s)",
				strconv.FormatFloat(descending.Minimum, 'f', -1, 64),
				strconv.FormatFloat(descending.Maximum, 'f', -1, 64))))
	case errors.As(err, &arity):
		return translation.Translate("Expected a single value or a two value range\\.")
	}
	return translation.Translate("Something went wrong\\. Please try again later\\.")
}
