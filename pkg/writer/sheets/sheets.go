// Package sheets implements a Writer that writes expenses to Google Sheets.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/logging"
	"github.com/ArionMiles/spendnote/pkg/money"
	"github.com/ArionMiles/spendnote/pkg/writer/buffered"
)

// Scope is the OAuth scope the writer needs.
const Scope = sheets.SpreadsheetsScope

// DefaultRetryDelay is the wait after a rate-limited append.
const DefaultRetryDelay = 60 * time.Second

// Headers is the header row written to new spreadsheets.
var Headers = []any{"Date", "Amount", "Merchant", "Category", "Method", "Note", "Raw Text", "ID"}

// Writer writes expenses to a Google Sheet with buffered batching.
type Writer struct {
	client      *sheets.Service
	spreadsheet *sheets.Spreadsheet
	sheetName   string
	retryDelay  time.Duration
	logger      *slog.Logger
	buffered    *buffered.Writer
}

// Config holds configuration for the Sheets writer.
type Config struct {
	// SheetTitle is the title for a new spreadsheet (if SheetID is empty).
	SheetTitle string
	// SheetID is the ID of an existing spreadsheet to use.
	SheetID string
	// SheetName is the name of the sheet within the spreadsheet.
	SheetName string
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	FlushInterval time.Duration
	// RetryDelay is the wait after a rate-limited append. Defaults to DefaultRetryDelay.
	RetryDelay time.Duration
}

// New creates a new Sheets writer, creating the spreadsheet when SheetID is empty
// or unreachable.
func New(ctx context.Context, httpClient *http.Client, cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*Writer, error) {
	logger = logging.OrDefault(logger)
	if cfg.SheetName == "" {
		return nil, fmt.Errorf("sheet name is required")
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	client, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	w := &Writer{
		client:     client,
		sheetName:  cfg.SheetName,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}

	spreadsheet, err := w.initSpreadsheet(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing spreadsheet: %w", err)
	}
	w.spreadsheet = spreadsheet

	w.buffered = buffered.New(
		w.flushBatch,
		buffered.Config{
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval,
		},
		logger.With("component", "sheets_buffer"),
	)

	logger.Info("sheets writer initialized", "spreadsheet_id", spreadsheet.SpreadsheetId)
	return w, nil
}

func (w *Writer) initSpreadsheet(ctx context.Context, cfg Config) (*sheets.Spreadsheet, error) {
	if cfg.SheetID != "" {
		spreadsheet, err := w.client.Spreadsheets.Get(cfg.SheetID).Context(ctx).Do()
		if err == nil {
			w.logger.Info("using existing spreadsheet", "title", spreadsheet.Properties.Title, "id", cfg.SheetID)
			return spreadsheet, nil
		}
		w.logger.Warn("failed to get spreadsheet, will create new one", "id", cfg.SheetID, "error", err)
	}

	spreadsheet, err := w.client.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title: cfg.SheetTitle,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: cfg.SheetName}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet", "title", cfg.SheetTitle, "id", spreadsheet.SpreadsheetId)

	if err := w.writeHeaders(ctx, spreadsheet.SpreadsheetId); err != nil {
		return nil, fmt.Errorf("writing headers: %w", err)
	}
	return spreadsheet, nil
}

func (w *Writer) writeHeaders(ctx context.Context, spreadsheetID string) error {
	headerRange := fmt.Sprintf("%s!A1:H1", w.sheetName)
	headerReq := sheets.ValueRange{
		Values: [][]any{Headers},
	}

	_, err := w.client.Spreadsheets.Values.Update(spreadsheetID, headerRange, &headerReq).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("updating headers: %w", err)
	}

	w.logger.Info("wrote headers to spreadsheet")
	return nil
}

// Row renders one expense in Headers order.
func Row(e *api.Expense) []any {
	return []any{
		e.OccurredAt.Format("2006-01-02 15:04"),
		money.ToMajor(e.AmountMinor).InexactFloat64(),
		e.Merchant,
		e.Category,
		string(e.Method),
		e.Note,
		e.RawText,
		e.ID,
	}
}

// Write consumes expenses from the input channel and writes them to Google Sheets.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	w.logger.Info("sheets writer started")
	return w.buffered.Write(ctx, in, ackChan)
}

// flushBatch writes a batch of expenses to Google Sheets in a single API call.
func (w *Writer) flushBatch(ctx context.Context, expenses []*api.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	values := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		values = append(values, Row(e))
	}

	writeRange := fmt.Sprintf("%s!A2:H2", w.sheetName)
	writeReq := sheets.ValueRange{
		Values: values,
	}

	err := retry.Do(
		func() error {
			_, err := w.client.Spreadsheets.Values.Append(w.spreadsheet.SpreadsheetId, writeRange, &writeReq).
				ValueInputOption("USER_ENTERED").
				InsertDataOption("INSERT_ROWS").
				Context(ctx).
				Do()
			return err
		},
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				w.logger.Warn("rate limited, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Attempts(3),
		retry.Delay(w.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("appending batch to sheet: %w", err)
	}

	w.logger.Info("wrote expense batch",
		"count", len(expenses),
		"first_merchant", expenses[0].Merchant,
	)
	return nil
}

// SpreadsheetID returns the ID of the spreadsheet being written to.
func (w *Writer) SpreadsheetID() string {
	if w.spreadsheet == nil {
		return ""
	}
	return w.spreadsheet.SpreadsheetId
}

// BufferLen returns the current number of buffered expenses.
func (w *Writer) BufferLen() int {
	if w.buffered == nil {
		return 0
	}
	return w.buffered.BufferLen()
}
