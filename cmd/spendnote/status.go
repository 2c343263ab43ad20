package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/spendnote/pkg/client"
	"github.com/ArionMiles/spendnote/pkg/money"
	"github.com/ArionMiles/spendnote/pkg/store"
	sheetswriter "github.com/ArionMiles/spendnote/pkg/writer/sheets"
)

const checkTimeout = 10 * time.Second

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check configuration, storage and Google authorization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runStatus(cmd.Context(), cmd.OutOrStdout())
			return nil
		},
	}
}

// runStatus prints a checklist. Sheets checks are informational since export to sheets is optional.
func runStatus(ctx context.Context, out io.Writer) {
	fmt.Fprintln(out, "=== spendnote Status ===")
	fmt.Fprintln(out)

	allGood := checkConfig(out)
	if allGood {
		allGood = checkStore(ctx, out)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Google Sheets export:")
	checkSheets(ctx, out)

	printFinalStatus(out, allGood)
}

func checkConfig(out io.Writer) bool {
	if cfgFile != "" {
		fmt.Fprintf(out, "Config file (%s): ✓ Loaded\n", cfgFile)
	}
	fmt.Fprint(out, "Configuration: ")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
		return false
	}
	fmt.Fprintf(out, "✓ Valid (timezone %s, currency %s)\n", cfg.Timezone, cfg.Currency)
	return true
}

func checkStore(ctx context.Context, out io.Writer) bool {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	fmt.Fprintf(out, "Store (%s): ", cfg.Store)
	st, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
		return false
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	expenses, err := st.ListExpenses(ctx, store.Filter{})
	if err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
		return false
	}
	fmt.Fprintf(out, "✓ %d expenses\n", len(expenses))

	settings, err := st.Settings(ctx)
	if err != nil {
		fmt.Fprintf(out, "Budget: ✗ %v\n", err)
		return false
	}
	if settings.MonthlyBudgetMinor > 0 {
		fmt.Fprintf(out, "Budget: ✓ %s per month\n", money.FormatWithSymbol(settings.MonthlyBudgetMinor))
	} else {
		fmt.Fprintln(out, "Budget: ⚠ Not set")
	}
	return true
}

func checkSheets(ctx context.Context, out io.Writer) {
	fmt.Fprintf(out, "  Credentials file (%s): ", cfg.ClientSecretFile)
	if _, err := os.Stat(cfg.ClientSecretFile); os.IsNotExist(err) {
		fmt.Fprintln(out, "⚠ Not found")
		return
	}
	fmt.Fprintln(out, "✓ Found")

	fmt.Fprintf(out, "  OAuth token (%s): ", client.DefaultTokenFile)
	token, err := client.TokenFromFile(client.DefaultTokenFile)
	if err != nil {
		fmt.Fprintln(out, "⚠ Not found (run 'spendnote setup')")
		return
	}
	if token.Expiry.Before(time.Now()) {
		fmt.Fprintln(out, "⚠ Expired (will refresh on next export)")
	} else {
		fmt.Fprintf(out, "✓ Valid (expires: %s)\n", token.Expiry.Format(time.RFC3339))
	}

	fmt.Fprint(out, "  Sheet settings: ")
	if !cfg.SheetsConfigured() {
		fmt.Fprintln(out, "⚠ GSHEETS_NAME and GSHEETS_ID or GSHEETS_TITLE not set")
	} else {
		fmt.Fprintf(out, "✓ %s\n", cfg.GSheetsName)
	}

	httpClient, err := client.New(ctx, client.Config{SecretFile: cfg.ClientSecretFile}, logger, sheetswriter.Scope)
	if err != nil {
		fmt.Fprintf(out, "  OAuth client: ✗ %v\n", err)
		return
	}
	fmt.Fprint(out, "  Sheets API: ")
	if err := testSheetsAPI(ctx, httpClient); err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
		return
	}
	fmt.Fprintln(out, "✓ Connected")
}

func testSheetsAPI(ctx context.Context, httpClient *http.Client) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	if cfg.GSheetsID == "" {
		return nil
	}
	if _, err := svc.Spreadsheets.Get(cfg.GSheetsID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("API call failed: %w", err)
	}
	return nil
}

func printFinalStatus(out io.Writer, allGood bool) {
	fmt.Fprintln(out)
	if allGood {
		fmt.Fprintln(out, "Status: ✓ Ready")
		fmt.Fprintln(out)
		fmt.Fprintln(out, `Run 'spendnote add 799 zomato upi - dinner' to record an expense.`)
		return
	}
	fmt.Fprintln(out, "Status: ✗ Configuration issues detected")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Fix the issues above, then run 'spendnote status' again.")
}
