package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/ledger"
	"github.com/ArionMiles/spendnote/pkg/logging"
	"github.com/ArionMiles/spendnote/pkg/parser"
	"github.com/ArionMiles/spendnote/pkg/store"
	"github.com/ArionMiles/spendnote/pkg/store/jsonfile"
)

type fixture struct {
	router http.Handler
	store  *jsonfile.Store
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := jsonfile.New(filepath.Join(t.TempDir(), "spendnote.json"), logging.Discard())
	require.NoError(t, err)

	loc := parser.ReferenceLocation()
	now := time.Date(2024, time.June, 15, 10, 30, 0, 0, loc)
	seq := 0
	svc := ledger.New(st, ledger.Config{Location: loc}, logging.Discard(),
		ledger.WithClock(func() time.Time { return now }),
		ledger.WithIDGenerator(func() (string, error) {
			seq++
			return fmt.Sprintf("id-%d", seq), nil
		}),
	)

	return &fixture{
		router: NewHandler(svc, logging.Discard()).Router(),
		store:  st,
		now:    now,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestParse_DoesNotSave(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/parse", map[string]string{"text": "799 zomato upi - dinner"})
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeBody[api.ParseResult](t, rec)
	require.NotNil(t, res.AmountMinor)
	assert.Equal(t, int64(79900), *res.AmountMinor)
	assert.Equal(t, api.MethodUPI, res.Method)
	assert.Equal(t, "zomato", res.Merchant)
	assert.Equal(t, "Food", res.Category)
	assert.Equal(t, 0, f.store.ExpenseCount())
}

func TestParse_WithoutAmountIsStillAPreview(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/parse", map[string]string{"text": "coffee with friends"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeBody[api.ParseResult](t, rec).AmountMinor)
}

func TestExpenses_CreateGetDelete(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/expenses", map[string]string{"text": "799 zomato upi - dinner"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[api.Expense](t, rec)
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, int64(79900), created.AmountMinor)
	assert.Equal(t, "dinner", created.Note)

	rec = f.do(t, http.MethodGet, "/expenses/id-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zomato", decodeBody[api.Expense](t, rec).Merchant)

	rec = f.do(t, http.MethodDelete, "/expenses/id-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id-1", decodeBody[api.Expense](t, rec).ID)

	rec = f.do(t, http.MethodGet, "/expenses/id-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenses_CreateWithoutAmount(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/expenses", map[string]string{"text": "dinner at toit"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "amount is required", decodeBody[map[string]string](t, rec)["error"])
	assert.Equal(t, 0, f.store.ExpenseCount())
}

func TestExpenses_CreateFromReviewedResult(t *testing.T) {
	f := newFixture(t)

	amount := int64(45000)
	may := time.Date(2024, time.May, 2, 9, 0, 0, 0, parser.ReferenceLocation())
	rec := f.do(t, http.MethodPost, "/expenses", map[string]any{
		"result": api.ParseResult{
			AmountMinor: &amount,
			OccurredAt:  &may,
			Merchant:    "uber",
			Category:    "Transport",
			RawText:     "450 uber",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	e := decodeBody[api.Expense](t, rec)
	assert.Equal(t, int64(45000), e.AmountMinor)
	assert.Equal(t, "Transport", e.Category)
	assert.True(t, may.Equal(e.OccurredAt))
}

func TestExpenses_UnknownID(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPut, map[string]string{"text": "100 tea"}},
		{http.MethodPatch, map[string]string{"note": "x"}},
		{http.MethodDelete, nil},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec := f.do(t, tt.method, "/expenses/missing", tt.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestExpenses_EditAndPatch(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/expenses", map[string]string{"text": "799 zomato upi - dinner"}).Code)

	rec := f.do(t, http.MethodPut, "/expenses/id-1", map[string]string{"text": "850 zomato upi - dinner"})
	require.Equal(t, http.StatusOK, rec.Code)
	edited := decodeBody[api.Expense](t, rec)
	assert.Equal(t, "id-1", edited.ID)
	assert.Equal(t, int64(85000), edited.AmountMinor)

	rec = f.do(t, http.MethodPut, "/expenses/id-1", map[string]string{"text": "zomato dinner"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPatch, "/expenses/id-1", map[string]string{"category": "Treats"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Treats", decodeBody[api.Expense](t, rec).Category)

	rec = f.do(t, http.MethodGet, "/learned-terms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	terms := decodeBody[[]api.LearnedTerm](t, rec)
	require.Len(t, terms, 1)
	assert.Equal(t, "zomato", terms[0].Term)
	assert.Equal(t, "Treats", terms[0].Category)

	rec = f.do(t, http.MethodPatch, "/expenses/id-1", map[string]string{"method": "Cheque"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPatch, "/expenses/id-1", map[string]string{"colour": "red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpenses_List(t *testing.T) {
	f := newFixture(t)
	for _, text := range []string{"799 zomato upi - dinner", "1,200 uber 2/5", "60 tea"} {
		require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/expenses", map[string]string{"text": text}).Code)
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "everything newest first", query: "", wantIDs: []string{"id-3", "id-1", "id-2"}},
		{name: "month", query: "?month=2024-05", wantIDs: []string{"id-2"}},
		{name: "date range", query: "?from=2024-06-01&to=2024-07-01", wantIDs: []string{"id-3", "id-1"}},
		{name: "category", query: "?category=food", wantIDs: []string{"id-1"}},
		{name: "limit", query: "?month=2024-06&limit=1", wantIDs: []string{"id-3"}},
		{name: "empty month", query: "?month=2023-01", wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/expenses"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			ids := []string{}
			for _, e := range decodeBody[[]api.Expense](t, rec) {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestExpenses_ListBadQuery(t *testing.T) {
	f := newFixture(t)

	for _, q := range []string{"?month=06-2024", "?from=yesterday", "?to=2024/06/01", "?limit=-1", "?limit=ten"} {
		t.Run(q, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/expenses"+q, nil).Code)
		})
	}
}

func TestMonth(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/expenses", map[string]string{"text": "799 zomato upi - dinner"}).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/settings/budget", map[string]int64{"budget_minor": 100000}).Code)

	rec := f.do(t, http.MethodGet, "/months/2024-06", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decodeBody[ledger.MonthSummary](t, rec)
	assert.Equal(t, int64(79900), summary.SpentMinor)
	assert.Equal(t, int64(100000), summary.BudgetMinor)
	assert.Equal(t, int64(20100), summary.RemainingMinor)
	assert.False(t, summary.OverBudget)
	require.Len(t, summary.Expenses, 1)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/months/2024-13", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/months/june", nil).Code)
}

func TestSetBudget(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantMinor  int64
	}{
		{name: "minor units", body: map[string]int64{"budget_minor": 2500000}, wantStatus: http.StatusOK, wantMinor: 2500000},
		{name: "free text", body: map[string]string{"amount": "₹25,000"}, wantStatus: http.StatusOK, wantMinor: 2500000},
		{name: "thousands shorthand", body: map[string]string{"amount": "25k"}, wantStatus: http.StatusOK, wantMinor: 2500000},
		{name: "lakh shorthand", body: map[string]string{"amount": "1.5 lakh"}, wantStatus: http.StatusOK, wantMinor: 15000000},
		{name: "trailing words", body: map[string]string{"amount": "25,000 per month"}, wantStatus: http.StatusBadRequest},
		{name: "zero clears", body: map[string]int64{"budget_minor": 0}, wantStatus: http.StatusOK, wantMinor: 0},
		{name: "negative", body: map[string]int64{"budget_minor": -1}, wantStatus: http.StatusBadRequest},
		{name: "text without amount", body: map[string]string{"amount": "lots"}, wantStatus: http.StatusBadRequest},
		{name: "empty", body: map[string]string{}, wantStatus: http.StatusBadRequest},
		{name: "malformed", body: `{"budget_minor":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(t, http.MethodPut, "/settings/budget", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantMinor, decodeBody[api.Settings](t, rec).MonthlyBudgetMinor)

			rec = f.do(t, http.MethodGet, "/settings", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantMinor, decodeBody[api.Settings](t, rec).MonthlyBudgetMinor)
		})
	}
}

func TestLearn(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/learned-terms", map[string]string{"term": "Blue Tokai", "category": "Food"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/learned-terms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	terms := decodeBody[[]api.LearnedTerm](t, rec)
	require.Len(t, terms, 1)
	assert.Equal(t, "blue tokai", terms[0].Term)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/learned-terms", map[string]string{"term": " ", "category": "Food"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/learned-terms", map[string]string{"term": "tea", "category": ""}).Code)
}

func TestRouter_Fallbacks(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = f.do(t, http.MethodDelete, "/parse", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound},
		{ledger.ErrAmountRequired, http.StatusUnprocessableEntity},
		{fmt.Errorf("saving expense: %w", store.ErrDuplicateID), http.StatusConflict},
		{ledger.ErrInvalidCategory, http.StatusBadRequest},
		{fmt.Errorf("%w: %q", ledger.ErrInvalidMethod, "Cheque"), http.StatusBadRequest},
		{ledger.ErrInvalidBudget, http.StatusBadRequest},
		{ledger.ErrInvalidTerm, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
