package parser

import (
	"strings"

	"github.com/shopspring/decimal"
)

// currencyMarkers are tried in order; longer forms come first so "rs." wins over "rs".
var currencyMarkers = []string{"₹", "rs.", "rs:", "rs"}

var hundred = decimal.NewFromInt(100)

// amountToken is one numeric token found in the text.
type amountToken struct {
	// start and end are byte offsets of the whole match, currency marker included.
	start, end int
	// integer holds the integer digits with thousands separators removed.
	integer string
	// fraction holds zero, one or two fractional digits.
	fraction string
	negative bool
}

// ExtractAmount returns the first monetary amount in text as signed minor units.
// The amount is negative when the text contains the word "refund" or the numeral
// carries a leading minus sign. Returns nil when no amount can be read.
func ExtractAmount(text string) *int64 {
	tokens := findAmounts(text, 1)
	if len(tokens) == 0 {
		return nil
	}

	tok := tokens[0]
	minor, ok := tok.minorUnits()
	if !ok {
		return nil
	}

	if tok.negative || containsWord(text, "refund") {
		minor = -minor
	}
	return &minor
}

// shorthandMultipliers scale a budget figure written as "25k" or "1.5 lakh".
var shorthandMultipliers = map[string]int64{
	"":      1,
	"k":     1_000,
	"l":     100_000,
	"lakh":  100_000,
	"lakhs": 100_000,
	"cr":    10_000_000,
	"crore": 10_000_000,
}

// ParseBudget reads text that is a single amount, optionally followed by a
// k, lakh or crore suffix: "25,000", "₹25k", "1.5 lakh". Anything else in the
// text makes it unreadable and nil is returned.
func ParseBudget(text string) *int64 {
	text = strings.TrimSpace(text)
	tokens := findAmounts(text, 1)
	if len(tokens) == 0 || tokens[0].start != 0 {
		return nil
	}
	tok := tokens[0]

	mult, ok := shorthandMultipliers[strings.TrimSpace(lowerASCII(text[tok.end:]))]
	if !ok {
		return nil
	}

	numeral := tok.integer
	if tok.fraction != "" {
		numeral += "." + tok.fraction
	}
	value, err := decimal.NewFromString(numeral)
	if err != nil {
		return nil
	}
	scaled := value.Mul(hundred).Mul(decimal.NewFromInt(mult)).Round(0)
	if !scaled.BigInt().IsInt64() {
		return nil
	}

	minor := scaled.IntPart()
	if tok.negative {
		minor = -minor
	}
	return &minor
}

// FindAmounts returns the byte ranges of every amount token in text, in reading order.
func FindAmounts(text string) [][2]int {
	tokens := findAmounts(text, -1)
	ranges := make([][2]int, 0, len(tokens))
	for _, tok := range tokens {
		ranges = append(ranges, [2]int{tok.start, tok.end})
	}
	return ranges
}

// minorUnits converts the token magnitude to minor units, rounding half away from zero.
func (t amountToken) minorUnits() (int64, bool) {
	numeral := t.integer
	if t.fraction != "" {
		numeral += "." + t.fraction
	}

	value, err := decimal.NewFromString(numeral)
	if err != nil {
		return 0, false
	}

	scaled := value.Mul(hundred).Round(0)
	if !scaled.BigInt().IsInt64() {
		return 0, false
	}
	return scaled.IntPart(), true
}

// findAmounts scans text left to right. limit < 0 returns every token.
func findAmounts(text string, limit int) []amountToken {
	lower := lowerASCII(text)

	var tokens []amountToken
	for i := 0; i < len(text); {
		if limit >= 0 && len(tokens) >= limit {
			break
		}
		tok, ok := matchAmountAt(text, lower, i)
		if !ok {
			i++
			continue
		}
		tokens = append(tokens, tok)
		i = tok.end
	}
	return tokens
}

// matchAmountAt tries an optional currency marker, optional whitespace and a numeral at i.
// A minus sign may precede the marker ("-₹500").
func matchAmountAt(text, lower string, i int) (amountToken, bool) {
	m, negative := i, false
	if text[i] == '-' && boundaryBefore(text, i) {
		m, negative = i+1, true
	}
	if n := matchMarker(lower, m); n > 0 {
		if tok, ok := matchNumeral(text, skipSpaces(text, m+n)); ok {
			tok.start = i
			tok.negative = tok.negative || negative
			return tok, true
		}
	}
	return matchNumeral(text, i)
}

// matchMarker returns the byte length of the currency marker at i, or 0.
func matchMarker(lower string, i int) int {
	if !boundaryBefore(lower, i) {
		return 0
	}
	for _, marker := range currencyMarkers {
		if !strings.HasPrefix(lower[i:], marker) {
			continue
		}
		end := i + len(marker)
		// A bare "rs" must stand alone or run straight into the digits ("rs500").
		if marker == "rs" && end < len(lower) && isWordByte(lower[end]) && !isDigit(lower[end]) {
			return 0
		}
		return end - i
	}
	return 0
}

// matchNumeral reads a number at i: an optional minus sign, digits with optional
// three-digit comma groups, and up to two fraction digits. Letters may touch the
// numeral on either side ("uber500", "500rs").
func matchNumeral(text string, i int) (amountToken, bool) {
	tok := amountToken{start: i}
	if i >= len(text) {
		return tok, false
	}

	p := i
	if text[p] == '-' && p+1 < len(text) && isDigit(text[p+1]) {
		tok.negative = true
		p++
	}

	q := digitRun(text, p)
	if q == p {
		return tok, false
	}

	var integer strings.Builder
	integer.WriteString(text[p:q])
	if q-p <= 3 {
		for q+3 < len(text) && text[q] == ',' && digitRun(text, q+1) >= q+4 {
			integer.WriteString(text[q+1 : q+4])
			q += 4
		}
	}
	tok.integer = integer.String()

	if q < len(text) && text[q] == '.' {
		if r := min(digitRun(text, q+1), q+3); r > q+1 {
			tok.fraction = text[q+1 : r]
			q = r
		}
	}

	tok.end = q
	return tok, true
}
