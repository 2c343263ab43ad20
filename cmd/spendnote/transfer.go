package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/spendnote/internal/pipeline"
	"github.com/ArionMiles/spendnote/internal/plugins"
	"github.com/ArionMiles/spendnote/pkg/client"
	linesplugin "github.com/ArionMiles/spendnote/pkg/plugins/readers/lines"
	storereaderplugin "github.com/ArionMiles/spendnote/pkg/plugins/readers/store"
	csvplugin "github.com/ArionMiles/spendnote/pkg/plugins/writers/csv"
	sheetsplugin "github.com/ArionMiles/spendnote/pkg/plugins/writers/sheets"
	storewriterplugin "github.com/ArionMiles/spendnote/pkg/plugins/writers/store"
	"github.com/ArionMiles/spendnote/pkg/reader/lines"
	csvwriter "github.com/ArionMiles/spendnote/pkg/writer/csv"
)

func importCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Save every line of a file, or stdin, as an expense",
		Long: `Each line is parsed like "spendnote add". Blank lines and lines starting
with # are ignored. Lines without an amount are reported and skipped.`,
		Example: `  spendnote import notes.txt
  pbpaste | spendnote import`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := linesplugin.Stdin
			if len(args) == 1 {
				path = args[0]
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			registry, err := newRegistry()
			if err != nil {
				return err
			}
			runner := pipeline.New(registry, plugins.Deps{
				Store:    a.store,
				Drafter:  a.ledger,
				Location: a.loc,
			}, logger)

			job, err := newJob("lines", linesplugin.Config{FilePath: path}, "store", storewriterplugin.Config{BatchSize: batchSize})
			if err != nil {
				return err
			}
			reader, writer, err := runner.Build(job)
			if err != nil {
				return err
			}
			if err := pipeline.Pump(cmd.Context(), reader, writer, logger); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if r, ok := reader.(interface{ Stats() lines.Stats }); ok {
				stats := r.Stats()
				fmt.Fprintf(out, "✓ Imported %d of %d lines\n", stats.Acked, stats.Lines)
				for _, s := range stats.Skipped {
					fmt.Fprintf(out, "  ✗ line %d %q: %s\n", s.Line, s.Text, s.Reason)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 50, "expenses saved per batch")
	return cmd
}

func exportCmd() *cobra.Command {
	var to, out, month, category string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored expenses to CSV or Google Sheets",
		Long: `Exports stored expenses, oldest first.

The sheets destination needs GSHEETS_NAME plus GSHEETS_ID or GSHEETS_TITLE,
and a token from "spendnote setup".`,
		Example: `  spendnote export --month 2024-06 --out june.csv
  spendnote export --to sheets --month 2024-06`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			writerCfg, err := exportWriterConfig(to, out)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			registry, err := newRegistry()
			if err != nil {
				return err
			}

			scopes, err := registry.GetAllScopes("store", to)
			if err != nil {
				return err
			}
			var httpClient *http.Client
			if len(scopes) > 0 {
				httpClient, err = client.New(cmd.Context(), client.Config{SecretFile: cfg.ClientSecretFile}, logger, scopes...)
				if err != nil {
					return fmt.Errorf("creating http client: %w", err)
				}
			}

			runner := pipeline.New(registry, plugins.Deps{
				HTTPClient: httpClient,
				Store:      a.store,
				Location:   a.loc,
			}, logger)

			job, err := newJob("store", storereaderplugin.Config{Month: month, Category: category}, to, writerCfg)
			if err != nil {
				return err
			}
			reader, writer, err := runner.Build(job)
			if err != nil {
				return err
			}
			if err := pipeline.Pump(cmd.Context(), reader, writer, logger); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if r, ok := reader.(interface{ Acked() int }); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d expenses\n", r.Acked())
			}
			if w, ok := writer.(interface{ SpreadsheetID() string }); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "  https://docs.google.com/spreadsheets/d/%s\n", w.SpreadsheetID())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "csv", "destination: csv or sheets")
	cmd.Flags().StringVar(&out, "out", csvwriter.Stdout, `CSV file, "-" for stdout`)
	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	return cmd
}

func exportWriterConfig(to, out string) (any, error) {
	switch to {
	case "csv":
		return csvplugin.Config{FilePath: out}, nil
	case "sheets":
		if !cfg.SheetsConfigured() {
			return nil, fmt.Errorf("GSHEETS_NAME and either GSHEETS_ID or GSHEETS_TITLE are required for the sheets export")
		}
		return sheetsplugin.Config{
			SheetTitle: cfg.GSheetsTitle,
			SheetID:    cfg.GSheetsID,
			SheetName:  cfg.GSheetsName,
		}, nil
	default:
		return nil, fmt.Errorf("unknown destination %q, want csv or sheets", to)
	}
}

func newJob(reader string, readerCfg any, writer string, writerCfg any) (pipeline.Job, error) {
	rc, err := json.Marshal(readerCfg)
	if err != nil {
		return pipeline.Job{}, fmt.Errorf("encoding %s config: %w", reader, err)
	}
	wc, err := json.Marshal(writerCfg)
	if err != nil {
		return pipeline.Job{}, fmt.Errorf("encoding %s config: %w", writer, err)
	}
	return pipeline.Job{Reader: reader, ReaderConfig: rc, Writer: writer, WriterConfig: wc}, nil
}
