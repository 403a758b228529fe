package helpers

import (
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// FormatPriceUS renders a market price with precision scaled to its magnitude.
func FormatPriceUS(price float64, escapeMarkdown bool) string {
	decimals := 6

	if price >= 1000 {
		decimals = 0
	} else if price > 1.2 {
		decimals = 2
	} else if price < 0.00001 {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.*f", decimals, price)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

// FormatBound renders a user supplied bound without rounding it.
func FormatBound(value float64) string {
	return humanize.CommafWithDigits(value, 8)
}

// FormatRange renders "$min - $max", or a single "$value" for point targets.
func FormatRange(minimum, maximum float64) string {
	if minimum == maximum {
		return "$" + FormatBound(minimum)
	}
	return "$" + FormatBound(minimum) + " - $" + FormatBound(maximum)
}
