// Package pipeline runs one reader plugin into one writer plugin.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ArionMiles/spendnote/internal/plugins"
	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/logging"
)

// ChannelSize is the buffer of the expense and acknowledgment channels.
const ChannelSize = 100

// Job names the plugins of one run and their configuration.
type Job struct {
	Reader       string
	ReaderConfig json.RawMessage
	Writer       string
	WriterConfig json.RawMessage
}

// Runner wires plugins from a registry.
type Runner struct {
	registry *plugins.Registry
	deps     plugins.Deps
	logger   *slog.Logger
}

// New creates a new pipeline runner.
func New(registry *plugins.Registry, deps plugins.Deps, logger *slog.Logger) *Runner {
	return &Runner{
		registry: registry,
		deps:     deps,
		logger:   logging.OrDefault(logger),
	}
}

// Build creates the reader and writer for job.
func (r *Runner) Build(job Job) (api.Reader, api.Writer, error) {
	if job.Reader == "" {
		return nil, nil, fmt.Errorf("reader plugin is required")
	}
	if job.Writer == "" {
		return nil, nil, fmt.Errorf("writer plugin is required")
	}

	reader, err := r.registry.CreateReader(
		job.Reader,
		r.deps,
		job.ReaderConfig,
		r.logger.With("component", "reader", "plugin", job.Reader),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating reader: %w", err)
	}

	writer, err := r.registry.CreateWriter(
		job.Writer,
		r.deps,
		job.WriterConfig,
		r.logger.With("component", "writer", "plugin", job.Writer),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating writer: %w", err)
	}
	return reader, writer, nil
}

// Run builds job and pumps it until the reader is exhausted or ctx is canceled.
func (r *Runner) Run(ctx context.Context, job Job) error {
	reader, writer, err := r.Build(job)
	if err != nil {
		return err
	}
	r.logger.Info("starting pipeline", "reader", job.Reader, "writer", job.Writer)
	return Pump(ctx, reader, writer, r.logger)
}

// Pump connects reader to writer. The writer acknowledges every expense it
// persisted; the acknowledgment channel is closed once the writer returns so
// the reader can finish counting. A failing writer stops the reader.
// Cancellation is not reported as an error.
func Pump(ctx context.Context, reader api.Reader, writer api.Writer, logger *slog.Logger) error {
	logger = logging.OrDefault(logger)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	expenses := make(chan *api.Expense, ChannelSize)
	ackChan := make(chan string, ChannelSize)

	writerDone := make(chan error, 1)
	go func() {
		err := writer.Write(ctx, expenses, ackChan)
		if err != nil {
			cancel()
		}
		close(ackChan)
		writerDone <- err
	}()

	readErr := reader.Read(ctx, expenses, ackChan)
	if readErr != nil && !errors.Is(readErr, context.Canceled) {
		logger.Error("reader error", "error", readErr)
	} else {
		readErr = nil
	}

	writeErr := <-writerDone
	if writeErr != nil && !errors.Is(writeErr, context.Canceled) {
		logger.Error("writer error", "error", writeErr)
	} else {
		writeErr = nil
	}

	logger.Info("pipeline stopped")
	return errors.Join(readErr, writeErr)
}
