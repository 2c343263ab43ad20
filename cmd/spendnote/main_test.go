package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/ledger"
	"github.com/ArionMiles/spendnote/pkg/parser"
	csvplugin "github.com/ArionMiles/spendnote/pkg/plugins/writers/csv"
	sheetsplugin "github.com/ArionMiles/spendnote/pkg/plugins/writers/sheets"
)

// useTempStore points the json store at a fresh file.
func useTempStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SPENDNOTE_STORE", "json")
	t.Setenv("SPENDNOTE_DATA_FILE", filepath.Join(dir, "spendnote.json"))
	t.Setenv("LOG_LEVEL", "ERROR")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_EntryLifecycle(t *testing.T) {
	useTempStore(t)

	out, err := run(t, "add", "799", "zomato", "upi", "-", "dinner")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Saved")
	assert.Contains(t, out, "₹799")

	_, err = run(t, "add", "dinner", "at", "toit")
	assert.ErrorContains(t, err, "no amount found")

	out, err = run(t, "ls", "--json")
	require.NoError(t, err)
	var expenses []api.Expense
	require.NoError(t, json.Unmarshal([]byte(out), &expenses))
	require.Len(t, expenses, 1)
	id := expenses[0].ID
	assert.Equal(t, api.MethodUPI, expenses[0].Method)

	out, err = run(t, "set", id, "category", "Treats")
	require.NoError(t, err)
	assert.Contains(t, out, "Treats")

	out, err = run(t, "learn")
	require.NoError(t, err)
	assert.Contains(t, out, "zomato → Treats")

	out, err = run(t, "edit", id, "850", "zomato", "upi", "-", "dinner")
	require.NoError(t, err)
	assert.Contains(t, out, "₹850")

	out, err = run(t, "budget", "25,000")
	require.NoError(t, err)
	assert.Equal(t, "✓ Monthly budget set to ₹25,000\n", out)

	out, err = run(t, "budget")
	require.NoError(t, err)
	assert.Equal(t, "Monthly budget: ₹25,000\n", out)

	out, err = run(t, "budget", "30k")
	require.NoError(t, err)
	assert.Equal(t, "✓ Monthly budget set to ₹30,000\n", out)

	_, err = run(t, "budget", "25kg")
	assert.EqualError(t, err, `not a budget amount: "25kg"`)

	out, err = run(t, "rm", id)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deleted "+id)

	_, err = run(t, "rm", id)
	assert.EqualError(t, err, `no expense with id "`+id+`"`)
}

func TestCLI_ImportThenExport(t *testing.T) {
	dir := useTempStore(t)

	input := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(input, []byte("799 zomato upi - dinner\n# ignored\nno amount\n60 auto\n"), 0o600))

	out, err := run(t, "import", input)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Imported 2 of 3 lines")
	assert.Contains(t, out, `✗ line 3 "no amount": amount is required`)

	export := filepath.Join(dir, "out.csv")
	_, err = run(t, "export", "--out", export)
	require.NoError(t, err)

	f, err := os.Open(export)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.ElementsMatch(t, []string{"799.00", "60.00"}, []string{rows[1][2], rows[2][2]})
}

func TestCLI_InvalidConfiguration(t *testing.T) {
	useTempStore(t)
	t.Setenv("SPENDNOTE_STORE", "sqlite")

	_, err := run(t, "ls", "--json")
	assert.ErrorContains(t, err, "SPENDNOTE_STORE must be")
}

func TestBuildPatch(t *testing.T) {
	loc := parser.ReferenceLocation()

	tests := []struct {
		name    string
		field   string
		value   string
		check   func(t *testing.T, p ledger.Patch)
		wantErr string
	}{
		{
			name: "amount", field: "amount", value: "1,250.50",
			check: func(t *testing.T, p ledger.Patch) { assert.Equal(t, int64(125050), *p.AmountMinor) },
		},
		{
			name: "method by display name", field: "Method", value: "credit card",
			check: func(t *testing.T, p ledger.Patch) { assert.Equal(t, api.MethodCreditCard, *p.Method) },
		},
		{
			name: "clear method", field: "method", value: "-",
			check: func(t *testing.T, p ledger.Patch) { assert.Equal(t, api.PaymentMethod(""), *p.Method) },
		},
		{
			name: "date", field: "date", value: "2024-06-01",
			check: func(t *testing.T, p ledger.Patch) {
				assert.True(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, loc).Equal(*p.OccurredAt))
			},
		},
		{
			name: "date and time", field: "date", value: "2024-06-01 21:15",
			check: func(t *testing.T, p ledger.Patch) {
				assert.True(t, time.Date(2024, time.June, 1, 21, 15, 0, 0, loc).Equal(*p.OccurredAt))
			},
		},
		{
			name: "note is trimmed", field: "note", value: "  team lunch ",
			check: func(t *testing.T, p ledger.Patch) { assert.Equal(t, "team lunch", *p.Note) },
		},
		{name: "amount without digits", field: "amount", value: "lots", wantErr: `no amount in "lots"`},
		{name: "unknown method", field: "method", value: "cheque", wantErr: "unknown payment method"},
		{name: "bad date", field: "date", value: "01/06/2024", wantErr: "invalid date"},
		{name: "unknown field", field: "colour", value: "red", wantErr: `unknown field "colour"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := buildPatch(tt.field, tt.value, loc)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestExportWriterConfig(t *testing.T) {
	useTempStore(t)
	t.Setenv("GSHEETS_NAME", "")
	t.Setenv("GSHEETS_ID", "")
	t.Setenv("GSHEETS_TITLE", "")
	require.NoError(t, initConfig(nil, nil))

	got, err := exportWriterConfig("csv", "-")
	require.NoError(t, err)
	assert.Equal(t, csvplugin.Config{FilePath: "-"}, got)

	_, err = exportWriterConfig("sheets", "-")
	assert.ErrorContains(t, err, "GSHEETS_NAME")

	_, err = exportWriterConfig("xlsx", "-")
	assert.ErrorContains(t, err, `unknown destination "xlsx"`)

	t.Setenv("GSHEETS_NAME", "Expenses")
	t.Setenv("GSHEETS_TITLE", "spendnote")
	require.NoError(t, initConfig(nil, nil))
	got, err = exportWriterConfig("sheets", "-")
	require.NoError(t, err)
	assert.Equal(t, sheetsplugin.Config{SheetTitle: "spendnote", SheetName: "Expenses"}, got)
}
