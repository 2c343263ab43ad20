// Package store defines persistence for expenses, settings and learned terms.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/ArionMiles/spendnote/pkg/api"
)

// ErrNotFound is returned when an expense ID does not exist.
var ErrNotFound = errors.New("expense not found")

// ErrDuplicateID is returned when creating an expense whose ID already exists.
var ErrDuplicateID = errors.New("expense id already exists")

// Filter narrows ListExpenses. Zero values match everything.
type Filter struct {
	// From and To bound OccurredAt to the half-open window [From, To).
	From time.Time
	To   time.Time
	// Category matches case-insensitively.
	Category string
	// Limit caps the number of results when positive.
	Limit int
}

// Match reports whether e passes the filter.
func (f Filter) Match(e *api.Expense) bool {
	if !f.From.IsZero() && e.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.OccurredAt.Before(f.To) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, e.Category) {
		return false
	}
	return true
}

// Store persists expenses and user preferences.
type Store interface {
	CreateExpense(ctx context.Context, e *api.Expense) error
	// UpdateExpense replaces the stored expense with the same ID.
	UpdateExpense(ctx context.Context, e *api.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	GetExpense(ctx context.Context, id string) (*api.Expense, error)
	// ListExpenses returns matching expenses, newest OccurredAt first.
	ListExpenses(ctx context.Context, f Filter) ([]*api.Expense, error)

	Settings(ctx context.Context) (api.Settings, error)
	SaveSettings(ctx context.Context, s api.Settings) error

	// LearnTerm upserts a term, lower-cased, with its category and last use time.
	LearnTerm(ctx context.Context, term, category string, at time.Time) error
	// LearnedTerms returns every learned term, most recently used first.
	LearnedTerms(ctx context.Context) ([]api.LearnedTerm, error)

	Close() error
}

// BatchUpserter is implemented by stores that can write many expenses at once.
type BatchUpserter interface {
	UpsertExpenses(ctx context.Context, expenses []*api.Expense) error
}

// NormalizeTerm is the key learned terms are stored under.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// SortNewestFirst orders expenses by OccurredAt descending, then by ID descending.
func SortNewestFirst(expenses []*api.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.After(b.OccurredAt)
		}
		return a.ID > b.ID
	})
}
