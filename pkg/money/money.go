// Package money converts between minor-unit integers and display strings.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Symbol is the rupee sign used by FormatWithSymbol.
const Symbol = "₹"

const minorPerMajor = 100

var printer = message.NewPrinter(language.English)

// Format renders minor units as major units with three-digit grouping and at
// most two fraction digits: 123450 becomes "1,234.5". The output reads back
// to the same integer through the amount extractor.
func Format(minor int64) string {
	sign, abs := "", uint64(minor)
	if minor < 0 {
		sign, abs = "-", uint64(-(minor + 1))+1
	}
	return sign + formatAbs(abs)
}

// FormatWithSymbol is Format prefixed with the rupee sign, e.g. "₹1,234.5" or "-₹40".
func FormatWithSymbol(minor int64) string {
	if minor < 0 {
		return "-" + Symbol + Format(minor)[1:]
	}
	return Symbol + Format(minor)
}

func formatAbs(abs uint64) string {
	whole := printer.Sprint(number.Decimal(abs / minorPerMajor))
	switch frac := abs % minorPerMajor; {
	case frac == 0:
		return whole
	case frac%10 == 0:
		return fmt.Sprintf("%s.%d", whole, frac/10)
	default:
		return fmt.Sprintf("%s.%02d", whole, frac)
	}
}

// FromMajor converts a major-unit amount to minor units, rounding half away from zero.
// It fails when the result does not fit in an int64.
func FromMajor(major decimal.Decimal) (int64, error) {
	scaled := major.Mul(decimal.NewFromInt(minorPerMajor)).Round(0)
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s out of range", major)
	}
	return scaled.IntPart(), nil
}

// ToMajor converts minor units to an exact major-unit decimal.
func ToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// Clamp limits value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	return min(hi, max(lo, value))
}

// BudgetPercent returns spent as a percentage of budget in [0, 100].
// An unset budget (zero or negative) reports 0.
func BudgetPercent(spent, budget int64) float64 {
	if budget <= 0 {
		return 0
	}
	return Clamp(float64(spent)/float64(budget)*100, 0, 100)
}
