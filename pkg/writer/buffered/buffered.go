// Package buffered provides a buffered writer base for batch writes.
package buffered

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/logging"
)

// DefaultBatchSize is the default number of expenses to buffer before flushing.
const DefaultBatchSize = 10

// DefaultFlushInterval is the default interval between automatic flushes.
const DefaultFlushInterval = 30 * time.Second

// Flusher is called when the buffer needs to be flushed.
type Flusher func(ctx context.Context, expenses []*api.Expense) error

// Config holds configuration for buffered writing.
type Config struct {
	// BatchSize is the number of expenses to buffer before flushing.
	// Defaults to DefaultBatchSize.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	// Defaults to DefaultFlushInterval.
	FlushInterval time.Duration
}

// Writer buffers expenses and flushes them in batches. After a successful
// flush the ID of every flushed expense is sent on the ack channel.
type Writer struct {
	buffer  []*api.Expense
	mu      sync.Mutex
	flusher Flusher
	config  Config
	logger  *slog.Logger
	written int
}

// New creates a new buffered writer with the given flusher function.
func New(flusher Flusher, cfg Config, logger *slog.Logger) *Writer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}

	return &Writer{
		buffer:  make([]*api.Expense, 0, cfg.BatchSize),
		flusher: flusher,
		config:  cfg,
		logger:  logging.OrDefault(logger),
	}
}

// Write consumes expenses from the input channel and buffers them for batch writes.
// It returns nil once in is closed and drained, or context.Canceled on cancellation.
// ackChan may be nil.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	w.logger.Info("buffered writer started",
		"batch_size", w.config.BatchSize,
		"flush_interval", w.config.FlushInterval,
	)

	for {
		select {
		case <-ctx.Done():
			return w.handleShutdown()
		case <-ticker.C:
			if err := w.flush(ctx, ackChan); err != nil {
				w.logger.Error("failed to flush on interval", "error", err)
			}
		case expense, ok := <-in:
			if !ok {
				w.logger.Info("input channel closed, flushing remaining buffer")
				return w.flush(ctx, ackChan)
			}
			if err := w.add(ctx, expense, ackChan); err != nil {
				return err
			}
		}
	}
}

func (w *Writer) handleShutdown() error {
	w.logger.Info("buffered writer stopping, flushing remaining buffer")
	// The caller's context is gone; the final flush still gets a bounded chance to land.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.flush(ctx, nil); err != nil {
		w.logger.Error("failed to flush on shutdown", "error", err)
	}
	return context.Canceled
}

func (w *Writer) add(ctx context.Context, expense *api.Expense, ackChan chan<- string) error {
	w.mu.Lock()
	w.buffer = append(w.buffer, expense)
	shouldFlush := len(w.buffer) >= w.config.BatchSize
	w.mu.Unlock()

	if !shouldFlush {
		return nil
	}
	if err := w.flush(ctx, ackChan); err != nil {
		w.logger.Error("failed to flush on batch size", "error", err)
		return err
	}
	return nil
}

// flush writes all buffered expenses using the flusher function.
func (w *Writer) flush(ctx context.Context, ackChan chan<- string) error {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil
	}

	toFlush := make([]*api.Expense, len(w.buffer))
	copy(toFlush, w.buffer)
	w.buffer = w.buffer[:0]
	w.mu.Unlock()

	w.logger.Debug("flushing buffer", "count", len(toFlush))

	if err := w.flusher(ctx, toFlush); err != nil {
		return err
	}

	w.mu.Lock()
	w.written += len(toFlush)
	w.mu.Unlock()
	w.logger.Info("flushed expenses", "count", len(toFlush))

	if ackChan == nil {
		return nil
	}
	for _, e := range toFlush {
		select {
		case ackChan <- e.ID:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// BufferLen returns the current number of buffered expenses.
func (w *Writer) BufferLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer)
}

// Written returns the number of expenses flushed successfully.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}
