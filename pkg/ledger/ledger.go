// Package ledger owns the lifecycle of expenses around the extraction engine:
// previewing text, committing it, editing, deleting and monthly reporting.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/events"
	"github.com/ArionMiles/spendnote/pkg/logging"
	"github.com/ArionMiles/spendnote/pkg/parser"
	"github.com/ArionMiles/spendnote/pkg/store"
)

var (
	// ErrAmountRequired is returned when text with no readable amount is saved.
	ErrAmountRequired = errors.New("amount is required")
	// ErrInvalidCategory is returned for an empty category.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrInvalidMethod is returned for a payment method outside the known set.
	ErrInvalidMethod = errors.New("invalid payment method")
	// ErrInvalidBudget is returned for a negative budget.
	ErrInvalidBudget = errors.New("budget must not be negative")
	// ErrInvalidTerm is returned when learning an empty term.
	ErrInvalidTerm = errors.New("term is required")
)

// Config holds ledger settings.
type Config struct {
	// Location is the reference timezone. Nil selects parser.ReferenceLocation.
	Location *time.Location
	// LearnedCategories makes the engine consult the learned term table.
	LearnedCategories bool
}

// Service coordinates the engine and the store.
type Service struct {
	store   store.Store
	loc     *time.Location
	learned bool
	base    *parser.Parser
	now     func() time.Time
	newID   func() (string, error)
	events  events.Emitter
	logger  *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator replaces the UUIDv7 generator.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// WithEmitter sends usage events to e.
func WithEmitter(e events.Emitter) Option {
	return func(s *Service) {
		s.events = e
	}
}

// New creates a ledger over st.
func New(st store.Store, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	logger = logging.OrDefault(logger)

	loc := cfg.Location
	if loc == nil {
		loc = parser.ReferenceLocation()
	}

	s := &Service{
		store:   st,
		loc:     loc,
		learned: cfg.LearnedCategories,
		base:    parser.New(parser.WithLocation(loc)),
		now:     time.Now,
		newID:   newUUIDv7,
		events:  events.NewLogEmitter(logger),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return id.String(), nil
}

// Location returns the reference timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// engine returns the parser to use, with the learned term table when enabled.
func (s *Service) engine(ctx context.Context) (*parser.Parser, error) {
	if !s.learned {
		return s.base, nil
	}
	terms, err := s.store.LearnedTerms(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading learned terms: %w", err)
	}
	return parser.New(parser.WithLocation(s.loc), parser.WithTermLookup(api.NewTermTable(terms))), nil
}

// Preview parses raw against the current time without saving anything.
func (s *Service) Preview(ctx context.Context, raw string) (api.ParseResult, error) {
	p, err := s.engine(ctx)
	if err != nil {
		return api.ParseResult{}, err
	}

	r := p.Parse(raw, s.now())
	s.events.Emit(ctx, events.EntryParsed,
		slog.Float64("confidence", r.Confidence),
		slog.Bool("has_amount", r.Saveable()),
	)
	return r, nil
}

// Draft parses raw and builds the expense that Add would save, without saving it.
func (s *Service) Draft(ctx context.Context, raw string) (*api.Expense, error) {
	r, err := s.Preview(ctx, raw)
	if err != nil {
		return nil, err
	}
	return s.fromResult(r)
}

// fromResult turns a parse result into a new expense stamped with the current time.
func (s *Service) fromResult(r api.ParseResult) (*api.Expense, error) {
	if !r.Saveable() {
		return nil, ErrAmountRequired
	}
	if r.Method != "" && !r.Method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, r.Method)
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	occurredAt := now
	if r.OccurredAt != nil {
		occurredAt = r.OccurredAt.In(s.loc)
	}
	category := strings.TrimSpace(r.Category)
	if category == "" {
		category = api.DefaultCategory
	}

	return &api.Expense{
		ID:          id,
		RawText:     r.RawText,
		AmountMinor: *r.AmountMinor,
		Currency:    api.DefaultCurrency,
		Merchant:    r.Merchant,
		Category:    category,
		Method:      r.Method,
		Note:        r.Note,
		OccurredAt:  occurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Add parses raw and saves it. Text without an amount fails with ErrAmountRequired.
func (s *Service) Add(ctx context.Context, raw string) (*api.Expense, error) {
	e, err := s.Draft(ctx, raw)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, e)
}

// Commit saves a parse result the caller may have adjusted after previewing.
func (s *Service) Commit(ctx context.Context, r api.ParseResult) (*api.Expense, error) {
	e, err := s.fromResult(r)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, e)
}

func (s *Service) save(ctx context.Context, e *api.Expense) (*api.Expense, error) {
	if err := s.store.CreateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("saving expense: %w", err)
	}

	s.logger.Debug("expense saved", "expense_id", e.ID, "amount_minor", e.AmountMinor, "category", e.Category)
	s.events.Emit(ctx, events.EntrySaved,
		slog.String("expense_id", e.ID),
		slog.String("category", e.Category),
	)
	return e, nil
}

// Edit re-runs the engine on revised text and overwrites the parsed fields.
// The identity and creation time are kept; the date is kept when the new text has none.
func (s *Service) Edit(ctx context.Context, id, raw string) (*api.Expense, error) {
	existing, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	r := p.Parse(raw, now)
	if !r.Saveable() {
		return nil, ErrAmountRequired
	}

	existing.RawText = r.RawText
	existing.AmountMinor = *r.AmountMinor
	existing.Merchant = r.Merchant
	existing.Note = r.Note
	existing.Category = r.Category
	existing.Method = r.Method
	if r.OccurredAt != nil {
		existing.OccurredAt = *r.OccurredAt
	}
	existing.UpdatedAt = now.In(s.loc)

	return s.update(ctx, existing)
}

// Patch is a direct field edit. Nil fields are left unchanged.
type Patch struct {
	AmountMinor *int64             `json:"amount_minor,omitempty"`
	Merchant    *string            `json:"merchant,omitempty"`
	Note        *string            `json:"note,omitempty"`
	Category    *string            `json:"category,omitempty"`
	Method      *api.PaymentMethod `json:"method,omitempty"`
	OccurredAt  *time.Time         `json:"occurred_at,omitempty"`
}

// Update applies p to the expense. Changing the category of an expense with a
// merchant records the correction in the learned term table.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*api.Expense, error) {
	existing, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	categoryChanged := false
	if p.AmountMinor != nil {
		existing.AmountMinor = *p.AmountMinor
	}
	if p.Merchant != nil {
		existing.Merchant = strings.TrimSpace(*p.Merchant)
	}
	if p.Note != nil {
		existing.Note = strings.TrimSpace(*p.Note)
	}
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		if category == "" {
			return nil, ErrInvalidCategory
		}
		categoryChanged = category != existing.Category
		existing.Category = category
	}
	if p.Method != nil {
		if *p.Method != "" && !p.Method.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, *p.Method)
		}
		existing.Method = *p.Method
	}
	if p.OccurredAt != nil {
		existing.OccurredAt = p.OccurredAt.In(s.loc)
	}
	existing.UpdatedAt = s.now().In(s.loc)

	updated, err := s.update(ctx, existing)
	if err != nil {
		return nil, err
	}

	if categoryChanged && updated.Merchant != "" {
		if err := s.Learn(ctx, updated.Merchant, updated.Category); err != nil {
			s.logger.Warn("could not learn category correction", "expense_id", id, "error", err)
		}
	}
	return updated, nil
}

func (s *Service) update(ctx context.Context, e *api.Expense) (*api.Expense, error) {
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("updating expense: %w", err)
	}
	s.events.Emit(ctx, events.EntryUpdated, slog.String("expense_id", e.ID))
	return e, nil
}

// Delete removes an expense and returns what was removed.
func (s *Service) Delete(ctx context.Context, id string) (*api.Expense, error) {
	existing, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return nil, fmt.Errorf("deleting expense: %w", err)
	}
	s.events.Emit(ctx, events.EntryDeleted, slog.String("expense_id", id))
	return existing, nil
}

// Get returns one expense.
func (s *Service) Get(ctx context.Context, id string) (*api.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

// List returns expenses matching f, newest first.
func (s *Service) List(ctx context.Context, f store.Filter) ([]*api.Expense, error) {
	return s.store.ListExpenses(ctx, f)
}

// Learn records that term belongs to category.
func (s *Service) Learn(ctx context.Context, term, category string) error {
	if store.NormalizeTerm(term) == "" {
		return ErrInvalidTerm
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrInvalidCategory
	}

	if err := s.store.LearnTerm(ctx, term, category, s.now()); err != nil {
		return fmt.Errorf("learning term: %w", err)
	}
	s.events.Emit(ctx, events.CategoryLearned,
		slog.String("term", store.NormalizeTerm(term)),
		slog.String("category", category),
	)
	return nil
}

// LearnedTerms returns the learned term table.
func (s *Service) LearnedTerms(ctx context.Context) ([]api.LearnedTerm, error) {
	return s.store.LearnedTerms(ctx)
}

// Settings returns the stored user settings.
func (s *Service) Settings(ctx context.Context) (api.Settings, error) {
	return s.store.Settings(ctx)
}

// SetBudget stores the monthly budget in minor units. Zero clears it.
func (s *Service) SetBudget(ctx context.Context, minor int64) (api.Settings, error) {
	if minor < 0 {
		return api.Settings{}, ErrInvalidBudget
	}

	settings, err := s.store.Settings(ctx)
	if err != nil {
		return api.Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	previous := settings.MonthlyBudgetMinor
	settings.MonthlyBudgetMinor = minor
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return api.Settings{}, fmt.Errorf("saving settings: %w", err)
	}

	s.events.Emit(ctx, events.BudgetChanged,
		slog.Int64("previous_minor", previous),
		slog.Int64("budget_minor", minor),
	)
	return settings, nil
}
