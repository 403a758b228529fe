package telegram

import (
	"testing"

	"crypto-range-alert-bot/internal/matcher"
	"crypto-range-alert-bot/internal/types"

	"github.com/stretchr/testify/require"
)

func TestRenderNotification(t *testing.T) {
	require.Equal(t,
		"Cryptocurrency price is now within the specified range\\.",
		RenderNotification(types.Summary()),
	)

	detail := types.Detail(types.Subscription{Symbol: "BTC", Minimum: 10000, Maximum: 20000}, 15000)
	require.Equal(t,
		"Currency *BTC* is now within a range of _$10,000 \\- $20,000_\nCurrent price: *$15,000*",
		RenderNotification(detail),
	)

	point := types.Detail(types.Subscription{Symbol: "ETH", Minimum: 2500, Maximum: 2500}, 2500)
	require.Contains(t, RenderNotification(point), "_$2,500_")
}

func TestRenderValidationError(t *testing.T) {
	_, _, err := matcher.ValidateBounds([]string{"1", "2", "3"})
	require.Error(t, err)
	require.Equal(t, "Expected a single value or a two value range\\.", RenderValidationError(err))

	_, _, err = matcher.ValidateBounds([]string{"1.5", "0.5"})
	require.Equal(t, "Range *\\(1\\.5, 0\\.5\\)* is not an ascending range\\.", RenderValidationError(err))
}
