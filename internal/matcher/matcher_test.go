package matcher

import (
	"testing"

	"crypto-range-alert-bot/internal/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestValidateBounds_SingleToken(t *testing.T) {
	for _, token := range []string{"0", "1", "12345.67", " 42 ", "1e3"} {
		minimum, maximum, err := ValidateBounds([]string{token})
		require.NoError(t, err, token)
		require.Equal(t, minimum, maximum, token)
	}

	minimum, maximum, err := ValidateBounds([]string{"12345.67"})
	require.NoError(t, err)
	require.Equal(t, 12345.67, minimum)
	require.Equal(t, 12345.67, maximum)
}

func TestValidateBounds_Range(t *testing.T) {
	minimum, maximum, err := ValidateBounds([]string{"10000", "20000"})
	require.NoError(t, err)
	require.Equal(t, 10000.0, minimum)
	require.Equal(t, 20000.0, maximum)

	minimum, maximum, err = ValidateBounds([]string{"50", "50"})
	require.NoError(t, err)
	require.Equal(t, 50.0, minimum)
	require.Equal(t, 50.0, maximum)
}

func TestValidateBounds_Descending(t *testing.T) {
	_, _, err := ValidateBounds([]string{"50", "10"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidBounds))

	var descending *DescendingRangeError
	require.True(t, errors.As(err, &descending))
	require.Equal(t, 50.0, descending.Minimum)
	require.Equal(t, 10.0, descending.Maximum)
}

func TestValidateBounds_NotANumber(t *testing.T) {
	cases := [][]string{
		{"abc"},
		{"-1"},
		{"10", "x"},
		{"NaN"},
		{"Inf"},
		{""},
	}
	for _, tokens := range cases {
		_, _, err := ValidateBounds(tokens)
		var nan *NotANumberError
		require.True(t, errors.As(err, &nan), "%v", tokens)
		require.True(t, errors.Is(err, ErrInvalidBounds))
	}

	_, _, err := ValidateBounds([]string{"abc"})
	var nan *NotANumberError
	require.True(t, errors.As(err, &nan))
	require.Equal(t, "abc", nan.Token)
	require.Contains(t, err.Error(), "abc")
}

func TestValidateBounds_Arity(t *testing.T) {
	for _, tokens := range [][]string{nil, {"1", "2", "3"}} {
		_, _, err := ValidateBounds(tokens)
		var arity *ArityError
		require.True(t, errors.As(err, &arity))
		require.Equal(t, len(tokens), arity.Count)
	}
}

func TestCheckBounds(t *testing.T) {
	require.NoError(t, CheckBounds(1, 1))
	require.NoError(t, CheckBounds(0, 10))

	var descending *DescendingRangeError
	require.True(t, errors.As(CheckBounds(2, 1), &descending))

	var nan *NotANumberError
	require.True(t, errors.As(CheckBounds(-1, 1), &nan))
}

func TestMatches(t *testing.T) {
	sub := types.Subscription{Symbol: "BTC", Minimum: 10000, Maximum: 20000}

	require.True(t, Matches(10000, sub))
	require.True(t, Matches(15000, sub))
	require.True(t, Matches(20000, sub))
	require.False(t, Matches(9999.99, sub))
	require.False(t, Matches(20000.01, sub))

	point := types.Subscription{Symbol: "ETH", Minimum: 3000, Maximum: 3000}
	require.True(t, Matches(3000, point))
	require.False(t, Matches(3000.5, point))
}

func TestNormalizeSymbol(t *testing.T) {
	require.Equal(t, "BTC", NormalizeSymbol(" btc "))
	require.Equal(t, AllSymbols, NormalizeSymbol("all"))
}
