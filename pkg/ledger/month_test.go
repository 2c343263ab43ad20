package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/spendnote/pkg/api"
)

func TestMonthRange(t *testing.T) {
	loc := time.FixedZone("IST", 5*60*60+30*60)
	// 20:00 UTC on 30 June is already 1 July in India.
	from, to := MonthRange(time.Date(2024, time.June, 30, 20, 0, 0, 0, time.UTC), loc)

	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2024, time.August, 1, 0, 0, 0, 0, loc), to)
}

func TestParseMonth(t *testing.T) {
	loc := time.UTC
	got, err := ParseMonth("2024-02", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, loc), got)

	_, err = ParseMonth("02/2024", loc)
	assert.Error(t, err)
}

func TestService_Month(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	at := func(month time.Month, day, hour, minute int) time.Time {
		return time.Date(2024, month, day, hour, minute, 0, 0, f.loc)
	}

	for _, e := range []*api.Expense{
		{ID: "first", AmountMinor: 79900, Category: "Food", OccurredAt: at(time.June, 1, 0, 0)},
		{ID: "last", AmountMinor: 50000, Category: "Transport", OccurredAt: at(time.June, 30, 23, 59)},
		{ID: "refund", AmountMinor: -20000, Category: "Food", OccurredAt: at(time.June, 15, 12, 0)},
		{ID: "july", AmountMinor: 99999, Category: "Food", OccurredAt: at(time.July, 1, 0, 0)},
		{ID: "may", AmountMinor: 100, Category: "Food", OccurredAt: at(time.May, 31, 23, 59)},
	} {
		require.NoError(t, f.store.CreateExpense(ctx, e))
	}

	summary, err := f.svc.Month(ctx, at(time.June, 10, 0, 0))
	require.NoError(t, err)

	assert.Len(t, summary.Expenses, 3)
	assert.Equal(t, "last", summary.Expenses[0].ID)
	assert.Equal(t, int64(109900), summary.SpentMinor)
	assert.Zero(t, summary.BudgetMinor)
	assert.Zero(t, summary.RemainingMinor)
	assert.False(t, summary.OverBudget)
	assert.Equal(t, []CategoryTotal{
		{Category: "Food", TotalMinor: 59900, Count: 2},
		{Category: "Transport", TotalMinor: 50000, Count: 1},
	}, summary.ByCategory)

	_, err = f.svc.SetBudget(ctx, 100000)
	require.NoError(t, err)

	summary, err = f.svc.Month(ctx, at(time.June, 10, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(100000), summary.BudgetMinor)
	assert.Equal(t, int64(-9900), summary.RemainingMinor)
	assert.True(t, summary.OverBudget)
	assert.Equal(t, 100.0, summary.PercentUsed)
}

func TestService_Month_Empty(t *testing.T) {
	f := newFixture(t, false)

	summary, err := f.svc.Month(context.Background(), f.now)
	require.NoError(t, err)
	assert.Empty(t, summary.Expenses)
	assert.Zero(t, summary.SpentMinor)
	assert.Empty(t, summary.ByCategory)
}
