// Package lines implements a Reader that turns free-text lines into expenses.
// Each non-blank line is one entry; lines starting with '#' are comments.
package lines

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/logging"
)

// Drafter builds an unsaved expense from free text.
type Drafter interface {
	Draft(ctx context.Context, raw string) (*api.Expense, error)
}

// Skipped is a line that produced no expense.
type Skipped struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Stats summarizes a finished Read.
type Stats struct {
	Lines   int       `json:"lines"`
	Sent    int       `json:"sent"`
	Acked   int       `json:"acked"`
	Skipped []Skipped `json:"skipped,omitempty"`
}

// Reader reads expenses from line-oriented text.
type Reader struct {
	src     io.Reader
	drafter Drafter
	logger  *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a lines reader over src. src is closed after reading when it is an io.Closer.
func New(src io.Reader, drafter Drafter, logger *slog.Logger) *Reader {
	return &Reader{
		src:     src,
		drafter: drafter,
		logger:  logging.OrDefault(logger),
	}
}

// Read drafts one expense per line and sends it to out, closing out at end of
// input. It then keeps counting acknowledgments until ackChan is closed.
func (r *Reader) Read(ctx context.Context, out chan<- *api.Expense, ackChan <-chan string) error {
	err := r.scan(ctx, out, ackChan)
	close(out)
	if c, ok := r.src.(io.Closer); ok {
		if closeErr := c.Close(); closeErr != nil {
			r.logger.Warn("failed to close input", "error", closeErr)
		}
	}
	if err != nil {
		return err
	}

	stats := r.Stats()
	r.logger.Info("input consumed", "lines", stats.Lines, "sent", stats.Sent, "skipped", len(stats.Skipped))

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
			r.ack()
		}
	}
}

func (r *Reader) scan(ctx context.Context, out chan<- *api.Expense, ackChan <-chan string) error {
	scanner := bufio.NewScanner(r.src)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		r.mu.Lock()
		r.stats.Lines++
		r.mu.Unlock()

		e, err := r.drafter.Draft(ctx, text)
		if err != nil {
			r.logger.Warn("skipping line", "line", lineNo, "text", text, "error", err)
			r.mu.Lock()
			r.stats.Skipped = append(r.stats.Skipped, Skipped{Line: lineNo, Text: text, Reason: err.Error()})
			r.mu.Unlock()
			continue
		}

		if err := r.send(ctx, out, ackChan, e); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// send delivers e while still draining acknowledgments, so a writer blocked
// on acking cannot stall the pipeline.
func (r *Reader) send(ctx context.Context, out chan<- *api.Expense, ackChan <-chan string, e *api.Expense) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- e:
			r.mu.Lock()
			r.stats.Sent++
			r.mu.Unlock()
			return nil
		case _, ok := <-ackChan:
			if !ok {
				ackChan = nil
				continue
			}
			r.ack()
		}
	}
}

func (r *Reader) ack() {
	r.mu.Lock()
	r.stats.Acked++
	r.mu.Unlock()
}

// Stats returns counters for the lines read so far.
func (r *Reader) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	s.Skipped = append([]Skipped(nil), r.stats.Skipped...)
	return s
}
