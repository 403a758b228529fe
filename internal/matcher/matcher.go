package matcher

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"crypto-range-alert-bot/internal/types"

	"github.com/pkg/errors"
)

// AllSymbols is the mute argument that clears a whole subscription set.
const AllSymbols = "ALL"

// ErrInvalidBounds is matched by every bounds validation error.
var ErrInvalidBounds = errors.New("invalid price bounds")

// NotANumberError reports a bound that is not a finite non-negative number.
type NotANumberError struct {
	Token string
}

func (e *NotANumberError) Error() string {
	return fmt.Sprintf("value %q is not a positive number", e.Token)
}

func (e *NotANumberError) Is(target error) bool { return target == ErrInvalidBounds }

// DescendingRangeError reports a range whose minimum exceeds its maximum.
type DescendingRangeError struct {
	Minimum float64
	Maximum float64
}

func (e *DescendingRangeError) Error() string {
	return fmt.Sprintf("range (%v, %v) is not an ascending range", e.Minimum, e.Maximum)
}

func (e *DescendingRangeError) Is(target error) bool { return target == ErrInvalidBounds }

// ArityError reports a bounds token count other than one or two.
type ArityError struct {
	Count int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("expected one value or two range values, got %d", e.Count)
}

func (e *ArityError) Is(target error) bool { return target == ErrInvalidBounds }

// ValidateBounds parses one token (point target) or two tokens (ascending range).
func ValidateBounds(tokens []string) (float64, float64, error) {
	if len(tokens) != 1 && len(tokens) != 2 {
		return 0, 0, &ArityError{Count: len(tokens)}
	}

	values := make([]float64, 0, 2)
	for _, token := range tokens {
		value, err := parseBound(token)
		if err != nil {
			return 0, 0, err
		}
		values = append(values, value)
	}

	if len(values) == 1 {
		return values[0], values[0], nil
	}

	minimum, maximum := values[0], values[1]
	if minimum > maximum {
		return 0, 0, &DescendingRangeError{Minimum: minimum, Maximum: maximum}
	}
	return minimum, maximum, nil
}

// CheckBounds applies the same rules as ValidateBounds to already parsed values.
func CheckBounds(minimum, maximum float64) error {
	for _, value := range []float64{minimum, maximum} {
		if !validBound(value) {
			return &NotANumberError{Token: strconv.FormatFloat(value, 'g', -1, 64)}
		}
	}
	if minimum > maximum {
		return &DescendingRangeError{Minimum: minimum, Maximum: maximum}
	}
	return nil
}

func parseBound(token string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil || !validBound(value) {
		return 0, &NotANumberError{Token: token}
	}
	return value, nil
}

func validBound(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) && value >= 0
}

// Matches is inclusive on both ends.
func Matches(price float64, sub types.Subscription) bool {
	return sub.Minimum <= price && price <= sub.Maximum
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
