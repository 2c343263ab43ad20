package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/ledger"
	"github.com/ArionMiles/spendnote/pkg/money"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, r api.ParseResult, loc *time.Location) {
	amount := "(none, cannot be saved)"
	if r.AmountMinor != nil {
		amount = money.FormatWithSymbol(*r.AmountMinor)
	}
	date := "(today)"
	if r.OccurredAt != nil {
		date = r.OccurredAt.In(loc).Format(dateLayout)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "Amount:\t%s\n", amount)
	fmt.Fprintf(tw, "Method:\t%s\n", orDash(string(r.Method)))
	fmt.Fprintf(tw, "Date:\t%s\n", date)
	fmt.Fprintf(tw, "Merchant:\t%s\n", orDash(r.Merchant))
	fmt.Fprintf(tw, "Category:\t%s\n", r.Category)
	fmt.Fprintf(tw, "Note:\t%s\n", orDash(r.Note))
	fmt.Fprintf(tw, "Confidence:\t%.2f\n", r.Confidence)
	_ = tw.Flush()
}

func printExpense(w io.Writer, e *api.Expense, loc *time.Location) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", e.ID)
	fmt.Fprintf(tw, "Amount:\t%s\n", money.FormatWithSymbol(e.AmountMinor))
	fmt.Fprintf(tw, "Method:\t%s\n", orDash(string(e.Method)))
	fmt.Fprintf(tw, "Date:\t%s\n", e.OccurredAt.In(loc).Format(dateTimeLayout))
	fmt.Fprintf(tw, "Merchant:\t%s\n", orDash(e.Merchant))
	fmt.Fprintf(tw, "Category:\t%s\n", e.Category)
	fmt.Fprintf(tw, "Note:\t%s\n", orDash(e.Note))
	fmt.Fprintf(tw, "Text:\t%s\n", e.RawText)
	_ = tw.Flush()
}

func printExpenses(w io.Writer, expenses []*api.Expense, loc *time.Location) {
	if len(expenses) == 0 {
		fmt.Fprintln(w, "No expenses.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tMETHOD\tMERCHANT\tNOTE")
	for _, e := range expenses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.OccurredAt.In(loc).Format(dateLayout),
			money.FormatWithSymbol(e.AmountMinor),
			e.Category,
			orDash(string(e.Method)),
			orDash(e.Merchant),
			orDash(e.Note),
		)
	}
	_ = tw.Flush()
}

func printMonth(w io.Writer, s *ledger.MonthSummary, loc *time.Location) {
	fmt.Fprintf(w, "=== %s ===\n\n", s.From.In(loc).Format("January 2006"))
	fmt.Fprintf(w, "Spent:     %s\n", money.FormatWithSymbol(s.SpentMinor))
	if s.BudgetMinor > 0 {
		fmt.Fprintf(w, "Budget:    %s\n", money.FormatWithSymbol(s.BudgetMinor))
		fmt.Fprintf(w, "Remaining: %s\n", money.FormatWithSymbol(s.RemainingMinor))
		status := "✓ within budget"
		if s.OverBudget {
			status = "✗ over budget"
		}
		fmt.Fprintf(w, "Used:      %.0f%% %s\n", s.PercentUsed, status)
	} else {
		fmt.Fprintln(w, "Budget:    not set (spendnote budget <amount>)")
	}

	if len(s.ByCategory) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tTOTAL\tCOUNT")
		for _, c := range s.ByCategory {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Category, money.FormatWithSymbol(c.TotalMinor), c.Count)
		}
		_ = tw.Flush()
	}
}
