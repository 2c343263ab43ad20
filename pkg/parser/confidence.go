package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/ArionMiles/spendnote/pkg/api"
)

// Deductions are kept in hundredths so repeated scoring is exact.
const (
	methodHintPenalty   = 10
	dateHintPenalty     = 10
	merchantPenalty     = 20
	brandMissPenalty    = 15
	fullConfidence      = 100
	minMerchantRuneSize = 2
)

var (
	methodHints = []string{"gpay", "phonepe", "paytm", "card", "debit", "credit", "netbank"}
	brandHints  = []string{"amazon", "zomato", "swiggy", "uber", "flipkart", "spotify", "netflix"}
)

// Score rates how completely raw was understood, in [0, 1].
// A missing amount scores zero; other gaps deduct fixed amounts.
func Score(raw string, r api.ParseResult) float64 {
	if r.AmountMinor == nil {
		return 0
	}

	lower := lowerASCII(raw)
	score := fullConfidence

	if r.Method == "" && containsAny(lower, methodHints) {
		score -= methodHintPenalty
	}
	if r.OccurredAt == nil && (hasDayMonthShape(lower) || strings.Contains(lower, "yesterday")) {
		score -= dateHintPenalty
	}
	if utf8.RuneCountInString(r.Merchant) < minMerchantRuneSize {
		score -= merchantPenalty
	}
	if r.Category == api.DefaultCategory && containsAny(lower, brandHints) {
		score -= brandMissPenalty
	}

	score = max(0, min(fullConfidence, score))
	return float64(score) / fullConfidence
}

func containsAny(lower string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}

// hasDayMonthShape reports whether text contains digits either side of '/' or '-'.
func hasDayMonthShape(text string) bool {
	for i := 1; i+1 < len(text); i++ {
		if (text[i] == '/' || text[i] == '-') && isDigit(text[i-1]) && isDigit(text[i+1]) {
			return true
		}
	}
	return false
}
