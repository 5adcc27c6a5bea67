// Package amount converts decimal amount strings into exact milliunit values.
//
// YNAB expects amounts in milliunits (e.g., 1.00 = 1000). Trade Republic
// exports value strings with commas as thousands separators and a dot as the
// decimal separator; the fractional part may be missing entirely.
package amount

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	money "github.com/Rhymond/go-money"
)

// Milliunits is a signed currency amount scaled by 1000, three implied
// decimal digits: 1.00 becomes 1000.
type Milliunits int64

var (
	// ErrFormat reports an amount string that violates the expected grammar.
	ErrFormat = errors.New("malformed amount")
	// ErrRange reports an amount too large to represent as int64 milliunits.
	ErrRange = errors.New("amount out of range")
)

// maxWhole is the largest whole-part magnitude that still fits in int64
// after scaling by 1000 and adding a three-digit fraction.
const maxWhole = (math.MaxInt64 - 999) / 1000

// Parse converts a decimal amount string to milliunits.
//
// Thousands separators are cosmetic and stripped. The fractional part is
// normalized to exactly three digits: right-padded with zeros when shorter,
// truncated (never rounded) when longer, so "1.9999" parses to 1999.
// A missing whole part parses as zero magnitude, so ".5" is 500 and "-.5"
// is -500. Inputs without any digit, with characters outside [0-9.,-], with
// more than one decimal point, or with a minus sign anywhere but the leading
// position fail with ErrFormat. Whole parts that would overflow fail with
// ErrRange instead of wrapping.
func Parse(value string) (Milliunits, error) {
	cleaned := strings.ReplaceAll(value, ",", "")

	whole, fraction, _ := strings.Cut(cleaned, ".")
	if strings.Contains(fraction, ".") {
		return 0, fmt.Errorf("%w: multiple decimal points in %q", ErrFormat, value)
	}

	negative := strings.HasPrefix(whole, "-")
	digits := whole
	if negative {
		digits = whole[1:]
	}
	if !isDigits(digits) || !isDigits(fraction) {
		return 0, fmt.Errorf("%w: unexpected character in %q", ErrFormat, value)
	}
	if digits == "" && fraction == "" {
		return 0, fmt.Errorf("%w: no digits in %q", ErrFormat, value)
	}

	var w int64
	if digits != "" {
		var err error
		w, err = strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: whole part of %q overflows int64", ErrRange, value)
		}
	}
	if w > maxWhole {
		return 0, fmt.Errorf("%w: %q exceeds representable milliunits", ErrRange, value)
	}

	// Exactly three fractional digits: right-pad, then truncate.
	f, err := strconv.ParseInt((fraction + "000")[:3], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: fraction of %q: %v", ErrFormat, value, err)
	}

	// The fraction is a magnitude. It moves the value away from zero on
	// both sides, so it is subtracted when the whole part carries a minus,
	// including the -0.xx case.
	if negative {
		return Milliunits(-w*1000 - f), nil
	}
	return Milliunits(w*1000 + f), nil
}

// isDigits reports whether s consists solely of ASCII decimal digits.
// The empty string counts as all digits.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String returns the integer milliunit value in decimal notation.
func (m Milliunits) String() string {
	return strconv.FormatInt(int64(m), 10)
}

// Display formats the amount in the given ISO currency for humans,
// discarding anything below one minor currency unit. Unknown currency
// codes fall back to the raw milliunit value.
func (m Milliunits) Display(code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return m.String() + " " + code
	}
	v := int64(m)
	for f := cur.Fraction; f < 3; f++ {
		v /= 10
	}
	return money.New(v, code).Display()
}
