// Package store implements a Writer that persists expenses into a store.Store.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/logging"
	"github.com/ArionMiles/spendnote/pkg/store"
	"github.com/ArionMiles/spendnote/pkg/writer/buffered"
)

// Config holds configuration for the store writer.
type Config struct {
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	FlushInterval time.Duration
	// Attempts is the number of tries per batch. Defaults to 3.
	Attempts uint
	// RetryDelay is the base wait between tries. Defaults to one second.
	RetryDelay time.Duration
}

// Writer saves expenses into a store in batches.
type Writer struct {
	store    store.Store
	config   Config
	buffered *buffered.Writer
	logger   *slog.Logger
}

// New creates a store writer.
func New(st store.Store, cfg Config, logger *slog.Logger) *Writer {
	logger = logging.OrDefault(logger)
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	w := &Writer{
		store:  st,
		config: cfg,
		logger: logger,
	}
	w.buffered = buffered.New(w.flushBatch, buffered.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger.With("component", "store_buffer"))
	return w
}

// Write consumes expenses from the input channel and saves them.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	return w.buffered.Write(ctx, in, ackChan)
}

// Written returns the number of expenses saved.
func (w *Writer) Written() int {
	return w.buffered.Written()
}

func (w *Writer) flushBatch(ctx context.Context, expenses []*api.Expense) error {
	return retry.Do(
		func() error {
			return w.save(ctx, expenses)
		},
		retry.Context(ctx),
		retry.Attempts(w.config.Attempts),
		retry.Delay(w.config.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}),
		retry.OnRetry(func(n uint, err error) {
			w.logger.Warn("saving batch failed, retrying", "attempt", n+1, "count", len(expenses), "error", err)
		}),
	)
}

// save prefers a batched upsert. Stores without one get row-by-row inserts,
// falling back to an update for IDs already present so a retried batch converges.
func (w *Writer) save(ctx context.Context, expenses []*api.Expense) error {
	if bu, ok := w.store.(store.BatchUpserter); ok {
		if err := bu.UpsertExpenses(ctx, expenses); err != nil {
			return fmt.Errorf("upserting batch: %w", err)
		}
		return nil
	}

	for _, e := range expenses {
		err := w.store.CreateExpense(ctx, e)
		if errors.Is(err, store.ErrDuplicateID) {
			err = w.store.UpdateExpense(ctx, e)
		}
		if err != nil {
			return fmt.Errorf("saving expense %s: %w", e.ID, err)
		}
	}
	return nil
}
