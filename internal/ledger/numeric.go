package ledger

import (
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// missingTokens are cell values treated as "no value", mirroring the tokens
// spreadsheet exports commonly use for blanks.
var missingTokens = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

// IsMissing reports whether a cell holds a missing-value token.
func IsMissing(cell string) bool {
	return missingTokens[cell]
}

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// maxIntDigits is the number of integer digits in math.MaxInt64.
const maxIntDigits = 19

// parseInteger parses a numeric cell and truncates it toward zero.
// It accepts plain decimals and exponent notation; anything else fails, as
// does a value outside the int64 range.
func parseInteger(cell string) (int64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if d.IsZero() {
		return 0, true
	}

	// Bound the magnitude from the digit count and exponent before IntPart,
	// which would otherwise expand any exponent the cell carries.
	digits := len(new(big.Int).Abs(d.Coefficient()).String())
	intDigits := int64(digits) + int64(d.Exponent())
	if intDigits <= 0 {
		return 0, true
	}
	if intDigits > maxIntDigits || d.GreaterThan(maxInt64) || d.LessThan(minInt64) {
		return 0, false
	}
	return d.IntPart(), true
}

// optionalString returns nil for missing cells.
func optionalString(cell string) *string {
	if IsMissing(cell) {
		return nil
	}
	s := cell
	return &s
}
