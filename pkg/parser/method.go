package parser

import (
	"sort"
	"strings"

	"github.com/ArionMiles/spendnote/pkg/api"
)

// MethodAlias maps a lower-case word or phrase to a payment method.
type MethodAlias struct {
	Alias  string
	Method api.PaymentMethod
}

// MethodAliases is the alias table. Multi-word phrases are matched in this order
// when no single-word alias is present.
var MethodAliases = []MethodAlias{
	{"gpay", api.MethodUPI},
	{"google pay", api.MethodUPI},
	{"phonepe", api.MethodUPI},
	{"paytm", api.MethodUPI},
	{"upi", api.MethodUPI},
	{"cash", api.MethodCash},
	{"credit", api.MethodCreditCard},
	{"credit card", api.MethodCreditCard},
	{"debit", api.MethodDebitCard},
	{"debit card", api.MethodDebitCard},
	{"card", api.MethodCreditCard},
	{"netbanking", api.MethodNetBanking},
	{"net banking", api.MethodNetBanking},
	{"wallet", api.MethodWallet},
}

var (
	singleWordAliases = map[string]api.PaymentMethod{}
	multiWordAliases  []MethodAlias
	// aliasesLongestFirst drives deletion so "credit card" goes before "credit".
	aliasesLongestFirst []string
)

func init() {
	for _, a := range MethodAliases {
		aliasesLongestFirst = append(aliasesLongestFirst, a.Alias)
		if strings.Contains(a.Alias, " ") {
			multiWordAliases = append(multiWordAliases, a)
			continue
		}
		singleWordAliases[a.Alias] = a.Method
	}
	sort.SliceStable(aliasesLongestFirst, func(i, j int) bool {
		return len(aliasesLongestFirst[i]) > len(aliasesLongestFirst[j])
	})
}

// ClassifyMethod returns the payment method named in text, or "" if none is.
func ClassifyMethod(text string) api.PaymentMethod {
	lower := lowerASCII(text)

	for _, token := range letterTokens(lower) {
		if m, ok := singleWordAliases[token]; ok {
			return m
		}
	}

	for _, a := range multiWordAliases {
		if strings.Contains(lower, a.Alias) {
			return a.Method
		}
	}
	return ""
}

// letterTokens splits lower-cased text on every run of non-letters.
func letterTokens(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return r < 'a' || r > 'z'
	})
}

// stripMethodAliases deletes every whole-word alias occurrence from text.
func stripMethodAliases(text string) string {
	lower := lowerASCII(text)

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		if n := aliasAt(lower, i); n > 0 {
			i += n
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

func aliasAt(lower string, i int) int {
	if !boundaryBefore(lower, i) {
		return 0
	}
	for _, alias := range aliasesLongestFirst {
		if strings.HasPrefix(lower[i:], alias) && boundaryAfter(lower, i+len(alias)) {
			return len(alias)
		}
	}
	return 0
}
