package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/money"
	"github.com/ArionMiles/spendnote/pkg/store"
)

// CategoryTotal is the spend of one category within a month.
type CategoryTotal struct {
	Category   string `json:"category"`
	TotalMinor int64  `json:"total_minor"`
	Count      int    `json:"count"`
}

// MonthSummary aggregates one calendar month in the reference timezone.
type MonthSummary struct {
	// From and To bound the month as [From, To).
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	Expenses []*api.Expense `json:"expenses"`
	// SpentMinor is the sum of the month's amounts. Refunds subtract.
	SpentMinor  int64 `json:"spent_minor"`
	BudgetMinor int64 `json:"budget_minor"`
	// RemainingMinor is BudgetMinor - SpentMinor, or 0 when no budget is set.
	RemainingMinor int64           `json:"remaining_minor"`
	OverBudget     bool            `json:"over_budget"`
	PercentUsed    float64         `json:"percent_used"`
	ByCategory     []CategoryTotal `json:"by_category"`
}

// MonthRange returns [first instant of t's month, first instant of the next month) in loc.
func MonthRange(t time.Time, loc *time.Location) (from, to time.Time) {
	t = t.In(loc)
	from = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

// ParseMonth reads "2006-01" in loc.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing month %q: want YYYY-MM", s)
	}
	return t, nil
}

// Month summarizes the calendar month containing t.
func (s *Service) Month(ctx context.Context, t time.Time) (*MonthSummary, error) {
	from, to := MonthRange(t, s.loc)

	expenses, err := s.store.ListExpenses(ctx, store.Filter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("listing month: %w", err)
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	summary := &MonthSummary{
		From:        from,
		To:          to,
		Expenses:    expenses,
		BudgetMinor: settings.MonthlyBudgetMinor,
	}

	totals := make(map[string]*CategoryTotal)
	for _, e := range expenses {
		summary.SpentMinor += e.AmountMinor
		ct, ok := totals[e.Category]
		if !ok {
			ct = &CategoryTotal{Category: e.Category}
			totals[e.Category] = ct
		}
		ct.TotalMinor += e.AmountMinor
		ct.Count++
	}

	for _, ct := range totals {
		summary.ByCategory = append(summary.ByCategory, *ct)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if a.TotalMinor != b.TotalMinor {
			return a.TotalMinor > b.TotalMinor
		}
		return a.Category < b.Category
	})

	if summary.BudgetMinor > 0 {
		summary.RemainingMinor = summary.BudgetMinor - summary.SpentMinor
		summary.OverBudget = summary.SpentMinor > summary.BudgetMinor
		summary.PercentUsed = money.BudgetPercent(summary.SpentMinor, summary.BudgetMinor)
	}
	return summary, nil
}
