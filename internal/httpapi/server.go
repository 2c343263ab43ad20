// Package httpapi exposes the ledger over a JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/ledger"
	"github.com/ArionMiles/spendnote/pkg/logging"
	"github.com/ArionMiles/spendnote/pkg/parser"
	"github.com/ArionMiles/spendnote/pkg/store"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 1 << 20
)

// Handler serves the ledger routes.
type Handler struct {
	svc    *ledger.Service
	logger *slog.Logger
}

// NewHandler creates a handler backed by svc.
func NewHandler(svc *ledger.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logging.OrDefault(logger)}
}

// Router returns the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/parse", h.Parse).Methods(http.MethodPost)

	r.HandleFunc("/expenses", h.ListExpenses).Methods(http.MethodGet)
	r.HandleFunc("/expenses", h.CreateExpense).Methods(http.MethodPost)
	r.HandleFunc("/expenses/{id}", h.GetExpense).Methods(http.MethodGet)
	r.HandleFunc("/expenses/{id}", h.EditExpense).Methods(http.MethodPut)
	r.HandleFunc("/expenses/{id}", h.PatchExpense).Methods(http.MethodPatch)
	r.HandleFunc("/expenses/{id}", h.DeleteExpense).Methods(http.MethodDelete)

	r.HandleFunc("/months/{month:[0-9]{4}-[0-9]{2}}", h.Month).Methods(http.MethodGet)

	r.HandleFunc("/settings", h.Settings).Methods(http.MethodGet)
	r.HandleFunc("/settings/budget", h.SetBudget).Methods(http.MethodPut)

	r.HandleFunc("/learned-terms", h.LearnedTerms).Methods(http.MethodGet)
	r.HandleFunc("/learned-terms", h.Learn).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// textRequest carries free text to parse or save.
type textRequest struct {
	Text string `json:"text"`
	// Result, when set on create, saves a reviewed parse result instead of re-parsing Text.
	Result *api.ParseResult `json:"result,omitempty"`
}

type budgetRequest struct {
	// BudgetMinor is the budget in minor units.
	BudgetMinor *int64 `json:"budget_minor,omitempty"`
	// Amount is a figure such as "₹25,000", "25k" or "1.5 lakh".
	Amount string `json:"amount,omitempty"`
}

type learnRequest struct {
	Term     string `json:"term"`
	Category string `json:"category"`
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Parse previews the extraction of free text without saving it.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Preview(r.Context(), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		e   *api.Expense
		err error
	)
	if req.Result != nil {
		e, err = h.svc.Commit(r.Context(), *req.Result)
	} else {
		e, err = h.svc.Add(r.Context(), req.Text)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// ListExpenses accepts month=YYYY-MM, or from/to as YYYY-MM-DD with to exclusive,
// plus category and limit.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r, h.svc.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	expenses, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []*api.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// EditExpense re-parses the expense from new free text.
func (h *Handler) EditExpense(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	e, err := h.svc.Edit(r.Context(), mux.Vars(r)["id"], req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) PatchExpense(w http.ResponseWriter, r *http.Request) {
	var p ledger.Patch
	if !h.decode(w, r, &p) {
		return
	}
	e, err := h.svc.Update(r.Context(), mux.Vars(r)["id"], p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	t, err := ledger.ParseMonth(mux.Vars(r)["month"], h.svc.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.svc.Month(r.Context(), t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Settings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) SetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if !h.decode(w, r, &req) {
		return
	}

	var minor int64
	switch {
	case req.BudgetMinor != nil:
		minor = *req.BudgetMinor
	case strings.TrimSpace(req.Amount) != "":
		amount := parser.ParseBudget(req.Amount)
		if amount == nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("not a budget amount: %q", req.Amount))
			return
		}
		minor = *amount
	default:
		writeError(w, http.StatusBadRequest, "budget_minor or amount is required")
		return
	}

	settings, err := h.svc.SetBudget(r.Context(), minor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) LearnedTerms(w http.ResponseWriter, r *http.Request) {
	terms, err := h.svc.LearnedTerms(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if terms == nil {
		terms = []api.LearnedTerm{}
	}
	writeJSON(w, http.StatusOK, terms)
}

func (h *Handler) Learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.Learn(r.Context(), req.Term, req.Category); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func filterFromQuery(r *http.Request, loc *time.Location) (store.Filter, error) {
	q := r.URL.Query()
	f := store.Filter{Category: q.Get("category")}

	if month := q.Get("month"); month != "" {
		t, err := ledger.ParseMonth(month, loc)
		if err != nil {
			return f, err
		}
		f.From, f.To = ledger.MonthRange(t, loc)
	}
	if from := q.Get("from"); from != "" {
		t, err := time.ParseInLocation(dateLayout, from, loc)
		if err != nil {
			return f, fmt.Errorf("parsing from %q: want YYYY-MM-DD", from)
		}
		f.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.ParseInLocation(dateLayout, to, loc)
		if err != nil {
			return f, fmt.Errorf("parsing to %q: want YYYY-MM-DD", to)
		}
		f.To = t
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return f, fmt.Errorf("limit must be a non-negative integer, got %q", limit)
		}
		f.Limit = n
	}
	return f, nil
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// statusFor maps ledger and store errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAmountRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidCategory),
		errors.Is(err, ledger.ErrInvalidMethod),
		errors.Is(err, ledger.ErrInvalidBudget),
		errors.Is(err, ledger.ErrInvalidTerm):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// NewServer wraps the router in an http.Server with conservative timeouts.
func NewServer(addr string, h *Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
