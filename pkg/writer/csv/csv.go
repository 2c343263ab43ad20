// Package csv implements a Writer that writes expenses to a CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/logging"
	"github.com/ArionMiles/spendnote/pkg/money"
	"github.com/ArionMiles/spendnote/pkg/writer/buffered"
)

// Stdout is the FilePath that selects standard output.
const Stdout = "-"

// Headers is the header row written to new files.
var Headers = []string{"ID", "Date", "Amount", "Currency", "Merchant", "Category", "Method", "Note", "Raw Text"}

// Writer writes expenses to a CSV file with buffered batching.
type Writer struct {
	filePath string
	out      io.WriteCloser
	writer   *csv.Writer
	mu       sync.Mutex
	buffered *buffered.Writer
	logger   *slog.Logger
}

// Config holds configuration for the CSV writer.
type Config struct {
	// FilePath is the path to the CSV output file, or Stdout.
	FilePath string
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	FlushInterval time.Duration
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// New creates a new CSV writer. Existing files are appended to.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	logger = logging.OrDefault(logger)
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("csv file path is required")
	}

	w := &Writer{
		filePath: cfg.FilePath,
		logger:   logger,
	}

	needHeaders := true
	if cfg.FilePath == Stdout {
		w.out = nopCloser{os.Stdout}
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
			return nil, fmt.Errorf("creating csv directory: %w", err)
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening csv file: %w", err)
		}
		stat, err := file.Stat()
		if err != nil {
			if closeErr := file.Close(); closeErr != nil {
				return nil, fmt.Errorf("stat csv file: %w (close error: %w)", err, closeErr)
			}
			return nil, fmt.Errorf("stat csv file: %w", err)
		}
		needHeaders = stat.Size() == 0
		w.out = file
	}
	w.writer = csv.NewWriter(w.out)

	if needHeaders {
		if err := w.writeHeaders(); err != nil {
			if closeErr := w.out.Close(); closeErr != nil {
				return nil, fmt.Errorf("writing headers: %w (close error: %w)", err, closeErr)
			}
			return nil, fmt.Errorf("writing headers: %w", err)
		}
	}

	w.buffered = buffered.New(w.flushBatch, buffered.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger.With("component", "csv_buffer"))

	logger.Info("csv writer initialized", "file", cfg.FilePath)
	return w, nil
}

func (w *Writer) writeHeaders() error {
	if err := w.writer.Write(Headers); err != nil {
		return err
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Record renders one expense as a CSV row in Headers order.
func Record(e *api.Expense) []string {
	return []string{
		e.ID,
		e.OccurredAt.Format(time.RFC3339),
		money.ToMajor(e.AmountMinor).StringFixed(2),
		e.Currency,
		e.Merchant,
		e.Category,
		string(e.Method),
		e.Note,
		e.RawText,
	}
}

// Write consumes expenses from the input channel and writes them to CSV.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	defer func() {
		if err := w.Close(); err != nil {
			w.logger.Error("failed to close csv writer", "error", err)
		}
	}()
	return w.buffered.Write(ctx, in, ackChan)
}

// flushBatch writes a batch of expenses to the CSV file.
func (w *Writer) flushBatch(_ context.Context, expenses []*api.Expense) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range expenses {
		if err := w.writer.Write(Record(e)); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	w.logger.Debug("wrote expenses to csv", "count", len(expenses))
	return nil
}

// Written returns the number of rows written.
func (w *Writer) Written() int {
	return w.buffered.Written()
}

// Close closes the CSV file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.out.Close(); err != nil {
		return fmt.Errorf("closing csv file: %w", err)
	}

	w.logger.Info("csv writer closed", "file", w.filePath)
	return nil
}
