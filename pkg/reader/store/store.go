// Package store implements a Reader that replays saved expenses, for exports.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/logging"
	"github.com/ArionMiles/spendnote/pkg/store"
)

// Lister is the slice of store.Store the reader needs.
type Lister interface {
	ListExpenses(ctx context.Context, f store.Filter) ([]*api.Expense, error)
}

// Reader sends every expense matching a filter, oldest first.
type Reader struct {
	lister Lister
	filter store.Filter
	logger *slog.Logger
	acked  atomic.Int64
}

// New creates a store reader.
func New(lister Lister, filter store.Filter, logger *slog.Logger) *Reader {
	return &Reader{
		lister: lister,
		filter: filter,
		logger: logging.OrDefault(logger),
	}
}

// Read lists matching expenses, sends them to out and closes it, then counts
// acknowledgments until ackChan is closed.
func (r *Reader) Read(ctx context.Context, out chan<- *api.Expense, ackChan <-chan string) error {
	expenses, err := r.lister.ListExpenses(ctx, r.filter)
	if err != nil {
		close(out)
		return fmt.Errorf("listing expenses: %w", err)
	}
	r.logger.Info("exporting expenses", "count", len(expenses))

	// Stores return newest first; exports read chronologically.
	for i := len(expenses) - 1; i >= 0; i-- {
		if err := r.send(ctx, out, ackChan, expenses[i]); err != nil {
			close(out)
			return err
		}
	}
	close(out)

	if ackChan == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ackChan:
			if !ok {
				return nil
			}
			r.acked.Add(1)
		}
	}
}

func (r *Reader) send(ctx context.Context, out chan<- *api.Expense, ackChan <-chan string, e *api.Expense) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- e:
			return nil
		case _, ok := <-ackChan:
			if !ok {
				ackChan = nil
				continue
			}
			r.acked.Add(1)
		}
	}
}

// Acked returns the number of expenses the writer confirmed.
func (r *Reader) Acked() int {
	return int(r.acked.Load())
}
