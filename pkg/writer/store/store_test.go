package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/logging"
	"github.com/ArionMiles/spendnote/pkg/store"
	"github.com/ArionMiles/spendnote/pkg/store/jsonfile"
)

// flakyStore hides UpsertExpenses and fails the first creates.
type flakyStore struct {
	store.Store
	failures int
}

func (f *flakyStore) CreateExpense(ctx context.Context, e *api.Expense) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	return f.Store.CreateExpense(ctx, e)
}

func newJSONStore(t *testing.T) *jsonfile.Store {
	t.Helper()
	st, err := jsonfile.New(filepath.Join(t.TempDir(), "spendnote.json"), logging.Discard())
	require.NoError(t, err)
	return st
}

func feed(n int) chan *api.Expense {
	in := make(chan *api.Expense, n)
	at := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		in <- &api.Expense{ID: fmt.Sprintf("e%d", i), AmountMinor: int64(i * 100), Category: "Food", OccurredAt: at}
	}
	close(in)
	return in
}

func TestWriter_UsesBatchUpsert(t *testing.T) {
	st := newJSONStore(t)
	w := New(st, Config{BatchSize: 2}, logging.Discard())

	ackChan := make(chan string, 3)
	require.NoError(t, w.Write(context.Background(), feed(3), ackChan))

	assert.Equal(t, 3, st.ExpenseCount())
	assert.Equal(t, 3, w.Written())
	assert.Len(t, ackChan, 3)
}

func TestWriter_RetriesRowByRow(t *testing.T) {
	st := newJSONStore(t)
	// e1 already exists and the first create fails; the retry updates e1 in place.
	flaky := &flakyStore{Store: st}
	require.NoError(t, st.CreateExpense(context.Background(), &api.Expense{ID: "e1", AmountMinor: 1}))
	flaky.failures = 1

	w := New(flaky, Config{BatchSize: 10, RetryDelay: time.Millisecond}, logging.Discard())
	require.NoError(t, w.Write(context.Background(), feed(2), nil))

	assert.Equal(t, 2, st.ExpenseCount())
	got, err := st.GetExpense(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.AmountMinor)
}

func TestWriter_GivesUp(t *testing.T) {
	st := newJSONStore(t)
	flaky := &flakyStore{Store: st, failures: 10}

	w := New(flaky, Config{Attempts: 2, RetryDelay: time.Millisecond}, logging.Discard())
	err := w.Write(context.Background(), feed(1), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 8, flaky.failures)
	assert.Zero(t, st.ExpenseCount())
}
