package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/ledger"
	"github.com/ArionMiles/spendnote/pkg/money"
	"github.com/ArionMiles/spendnote/pkg/parser"
	"github.com/ArionMiles/spendnote/pkg/store"
)

func parseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Show what would be extracted from a note without saving it",
		Example: `  spendnote parse 799 zomato upi - dinner
  spendnote parse "rs. 1,234.50 swiggy yesterday" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.ledger.Preview(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd.OutOrStdout(), res, a.loc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add <text>",
		Short:   "Parse a note and save it",
		Example: `  spendnote add 799 zomato upi - dinner`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			text := strings.Join(args, " ")
			e, err := a.ledger.Add(cmd.Context(), text)
			if errors.Is(err, ledger.ErrAmountRequired) {
				return fmt.Errorf("no amount found in %q, nothing saved", text)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved")
			printExpense(cmd.OutOrStdout(), e, a.loc)
			return nil
		},
	}
}

func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Re-parse an expense from revised text",
		Long:  "Replaces the parsed fields of an expense. The original date is kept when the new text has none.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.ledger.Edit(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return describe(args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Updated")
			printExpense(cmd.OutOrStdout(), e, a.loc)
			return nil
		},
	}
}

// patchFields lists the fields `set` accepts.
var patchFields = []string{"amount", "category", "date", "merchant", "method", "note"}

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Change one field of an expense",
		Long: fmt.Sprintf(`Change one field of an expense directly.

Fields: %s. Dates are YYYY-MM-DD or YYYY-MM-DD HH:MM.
Changing the category of an expense with a merchant teaches spendnote that merchant.`, strings.Join(patchFields, ", ")),
		Example: `  spendnote set 0190b2c4 category Groceries
  spendnote set 0190b2c4 amount 1,250.50`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := buildPatch(args[1], strings.Join(args[2:], " "), a.loc)
			if err != nil {
				return err
			}
			e, err := a.ledger.Update(cmd.Context(), args[0], p)
			if err != nil {
				return describe(args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Updated")
			printExpense(cmd.OutOrStdout(), e, a.loc)
			return nil
		},
	}
}

// buildPatch turns a field name and a textual value into a patch.
func buildPatch(field, value string, loc *time.Location) (ledger.Patch, error) {
	var p ledger.Patch
	value = strings.TrimSpace(value)

	switch strings.ToLower(field) {
	case "amount":
		amount := parser.ExtractAmount(value)
		if amount == nil {
			return p, fmt.Errorf("no amount in %q", value)
		}
		p.AmountMinor = amount
	case "category":
		p.Category = &value
	case "merchant":
		p.Merchant = &value
	case "note":
		p.Note = &value
	case "method":
		if value == "" || value == "-" {
			none := api.PaymentMethod("")
			p.Method = &none
			break
		}
		m, ok := api.ParsePaymentMethod(value)
		if !ok {
			return p, fmt.Errorf("unknown payment method %q, want one of %s", value, methodNames())
		}
		p.Method = &m
	case "date":
		t, err := parseDate(value, loc)
		if err != nil {
			return p, err
		}
		p.OccurredAt = &t
	default:
		return p, fmt.Errorf("unknown field %q, want one of %s", field, strings.Join(patchFields, ", "))
	}
	return p, nil
}

func methodNames() string {
	names := make([]string, len(api.PaymentMethods))
	for i, m := range api.PaymentMethods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{dateTimeLayout, dateLayout} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or YYYY-MM-DD HH:MM", value)
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an expense",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.ledger.Delete(cmd.Context(), args[0])
			if err != nil {
				return describe(args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s (%s %s)\n", e.ID, money.FormatWithSymbol(e.AmountMinor), e.RawText)
			return nil
		},
	}
}

func lsCmd() *cobra.Command {
	var (
		month, from, to, category string
		limit                     int
		asJSON                    bool
	)

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			f := store.Filter{Category: category, Limit: limit}
			if month != "" {
				t, err := ledger.ParseMonth(month, a.loc)
				if err != nil {
					return err
				}
				f.From, f.To = ledger.MonthRange(t, a.loc)
			}
			if from != "" {
				if f.From, err = parseDate(from, a.loc); err != nil {
					return err
				}
			}
			if to != "" {
				if f.To, err = parseDate(to, a.loc); err != nil {
					return err
				}
			}

			expenses, err := a.ledger.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), expenses)
			}
			printExpenses(cmd.OutOrStdout(), expenses, a.loc)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	cmd.Flags().StringVar(&from, "from", "", "earliest date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "latest date, exclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of expenses, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func monthCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Summarize a month against the budget",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			t := time.Now()
			if len(args) == 1 {
				if t, err = ledger.ParseMonth(args[0], a.loc); err != nil {
					return err
				}
			}

			summary, err := a.ledger.Month(cmd.Context(), t)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			printMonth(cmd.OutOrStdout(), summary, a.loc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func budgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "budget [amount]",
		Short: "Show or set the monthly budget",
		Long:  "With no argument, prints the monthly budget. An amount of 0 clears it.",
		Example: `  spendnote budget 25,000
  spendnote budget 25k
  spendnote budget 0`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				settings, err := a.ledger.Settings(cmd.Context())
				if err != nil {
					return err
				}
				if settings.MonthlyBudgetMinor == 0 {
					fmt.Fprintln(out, "No monthly budget set.")
					return nil
				}
				fmt.Fprintf(out, "Monthly budget: %s\n", money.FormatWithSymbol(settings.MonthlyBudgetMinor))
				return nil
			}

			amount := parser.ParseBudget(args[0])
			if amount == nil {
				return fmt.Errorf("not a budget amount: %q", args[0])
			}
			settings, err := a.ledger.SetBudget(cmd.Context(), *amount)
			if err != nil {
				return err
			}
			if settings.MonthlyBudgetMinor == 0 {
				fmt.Fprintln(out, "✓ Monthly budget cleared")
				return nil
			}
			fmt.Fprintf(out, "✓ Monthly budget set to %s\n", money.FormatWithSymbol(settings.MonthlyBudgetMinor))
			return nil
		},
	}
}

func learnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "learn [<term> <category>]",
		Short: "Teach a term its category, or list learned terms",
		Long: `Teach spendnote that a word belongs to a category. Learned terms are only
consulted when SPENDNOTE_LEARNED_CATEGORIES is enabled.`,
		Example: `  spendnote learn "blue tokai" Food
  spendnote learn`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("want no arguments or <term> <category>, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if len(args) == 2 {
				if err := a.ledger.Learn(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ %q is now %s\n", store.NormalizeTerm(args[0]), strings.TrimSpace(args[1]))
				return nil
			}

			terms, err := a.ledger.LearnedTerms(cmd.Context())
			if err != nil {
				return err
			}
			if len(terms) == 0 {
				fmt.Fprintln(out, "No learned terms.")
				return nil
			}
			for _, t := range terms {
				fmt.Fprintf(out, "%s → %s\n", t.Term, t.Category)
			}
			return nil
		},
	}
}

// describe adds the expense ID to lookup failures.
func describe(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no expense with id %q", id)
	}
	if errors.Is(err, ledger.ErrAmountRequired) {
		return fmt.Errorf("no amount found in the new text, %s unchanged", id)
	}
	return err
}
