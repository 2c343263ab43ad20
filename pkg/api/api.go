// Package api defines the core interfaces and data structures for spendnote.
package api

import (
	"context"
	"strings"
	"time"
)

// DefaultCategory is assigned when no category rule matches.
const DefaultCategory = "Miscellaneous"

// DefaultCurrency is the only currency amounts are recorded in.
const DefaultCurrency = "INR"

// PaymentMethod is the closed set of ways an expense can be paid.
// The zero value means the method could not be determined.
type PaymentMethod string

// Payment methods.
const (
	MethodUPI        PaymentMethod = "UPI"
	MethodCash       PaymentMethod = "Cash"
	MethodCreditCard PaymentMethod = "Credit Card"
	MethodDebitCard  PaymentMethod = "Debit Card"
	MethodNetBanking PaymentMethod = "NetBanking"
	MethodWallet     PaymentMethod = "Wallet"
	MethodOther      PaymentMethod = "Other"
)

// PaymentMethods lists every valid method in display order.
var PaymentMethods = []PaymentMethod{
	MethodUPI,
	MethodCash,
	MethodCreditCard,
	MethodDebitCard,
	MethodNetBanking,
	MethodWallet,
	MethodOther,
}

// Valid reports whether m is one of the known payment methods.
func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// ParsePaymentMethod resolves a method by its display name, case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	s = strings.TrimSpace(s)
	for _, m := range PaymentMethods {
		if strings.EqualFold(string(m), s) {
			return m, true
		}
	}
	return "", false
}

// ParseResult is the structured output of the extraction engine. It is never persisted.
// Merchant and Note are empty when absent; Method is the zero value when absent.
type ParseResult struct {
	AmountMinor *int64        `json:"amount_minor,omitempty"`
	Method      PaymentMethod `json:"method,omitempty"`
	OccurredAt  *time.Time    `json:"occurred_at,omitempty"`
	Merchant    string        `json:"merchant,omitempty"`
	Note        string        `json:"note,omitempty"`
	Category    string        `json:"category"`
	RawText     string        `json:"raw_text"`
	Confidence  float64       `json:"confidence"`
}

// Saveable reports whether the result carries the one field required to persist it.
func (r ParseResult) Saveable() bool {
	return r.AmountMinor != nil
}

// Expense is a finalized, persisted record.
type Expense struct {
	ID          string        `json:"id"`
	RawText     string        `json:"raw_text"`
	AmountMinor int64         `json:"amount_minor"`
	Currency    string        `json:"currency"`
	Merchant    string        `json:"merchant,omitempty"`
	Category    string        `json:"category"`
	Method      PaymentMethod `json:"method,omitempty"`
	Note        string        `json:"note,omitempty"`
	OccurredAt  time.Time     `json:"occurred_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsRefund reports whether the expense is a refund (negative amount).
func (e *Expense) IsRefund() bool {
	return e.AmountMinor < 0
}

// LearnedTerm maps a lower-cased free-text term to a category the user chose for it.
type LearnedTerm struct {
	Term       string    `json:"term"`
	Category   string    `json:"category"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Settings holds user preferences persisted alongside expenses.
type Settings struct {
	// MonthlyBudgetMinor is the monthly budget in minor units. Zero means not set.
	MonthlyBudgetMinor int64  `json:"monthly_budget_minor"`
	Timezone           string `json:"timezone"`
	Currency           string `json:"currency"`
	// AIAssist is stored for clients; the engine never acts on it.
	AIAssist bool `json:"ai_assist"`
}

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		Timezone: "Asia/Kolkata",
		Currency: DefaultCurrency,
	}
}

// Reader produces expenses from a source and sends them to the provided channel.
// Implementations should close the channel when done or on error.
// The ackChan delivers IDs of expenses the writer has durably stored.
type Reader interface {
	Read(ctx context.Context, out chan<- *Expense, ackChan <-chan string) error
}

// Writer consumes expenses from a channel and writes them to a destination.
// IDs of successfully written expenses are sent to the ackChan.
type Writer interface {
	Write(ctx context.Context, in <-chan *Expense, ackChan chan<- string) error
}

// TermTable is an in-memory term to category table built from learned terms.
type TermTable map[string]string

// NewTermTable indexes learned terms by their lower-cased term.
func NewTermTable(terms []LearnedTerm) TermTable {
	t := make(TermTable, len(terms))
	for _, lt := range terms {
		t[strings.ToLower(strings.TrimSpace(lt.Term))] = lt.Category
	}
	return t
}

// LookupCategory returns the category for a term.
// Returns false if the term is not found.
func (t TermTable) LookupCategory(term string) (string, bool) {
	category, exists := t[strings.ToLower(strings.TrimSpace(term))]
	return category, exists && category != ""
}
