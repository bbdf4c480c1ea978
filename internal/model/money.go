package model

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/common"
)

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64 + 1)
)

// FormatCents renders an integer count of cents as a two-decimal string.
// Money only becomes a decimal at the presentation boundary.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ParseCents parses a decimal amount such as "12.34", "-7" or "12,34" into
// cents. Sub-cent precision is rejected rather than rounded.
func ParseCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, common.NewValidationError(FieldAmount, "must not be empty")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, common.NewValidationError(FieldAmount, "%q is not a number", s)
	}

	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, common.NewValidationError(FieldAmount, "must have at most two decimal places")
	}
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, common.NewValidationError(FieldAmount, "is out of range")
	}

	return cents.IntPart(), nil
}
