// Package postgres implements store.Store on PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/logging"
	"github.com/ArionMiles/spendnote/pkg/store"
)

//go:embed 001_create_expenses.sql
var migrationSQL string

const uniqueViolation = "23505"

const expenseColumns = `id, raw_text, amount_minor, currency, merchant, category, method, note, occurred_at, created_at, updated_at`

// Config holds the PostgreSQL store configuration.
type Config struct {
	// ConnString is a pgx connection string or URL.
	ConnString string

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
	// ConnectAttempts is how many times the initial ping is tried.
	ConnectAttempts uint
	// ConnectDelay is the base delay between ping attempts.
	ConnectDelay time.Duration
}

// Store persists expenses in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// New connects, waits for the database to answer and applies the schema.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	logger = logging.OrDefault(logger)

	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}
	if cfg.ConnectAttempts == 0 {
		cfg.ConnectAttempts = 5
	}
	if cfg.ConnectDelay == 0 {
		cfg.ConnectDelay = time.Second
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(cfg.ConnectAttempts),
		retry.Delay(cfg.ConnectDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database not ready, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", poolConfig.ConnConfig.Host,
		"port", poolConfig.ConnConfig.Port,
		"database", poolConfig.ConnConfig.Database,
	)

	s := &Store{pool: pool, logger: logger}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	s.logger.Info("running database migrations")
	if _, err := s.pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	s.logger.Info("migrations completed successfully")
	return nil
}

func expenseArgs(e *api.Expense) []any {
	currency := e.Currency
	if currency == "" {
		currency = api.DefaultCurrency
	}
	return []any{
		e.ID, e.RawText, e.AmountMinor, currency, e.Merchant, e.Category,
		string(e.Method), e.Note, e.OccurredAt, e.CreatedAt, e.UpdatedAt,
	}
}

func scanExpense(row pgx.Row) (*api.Expense, error) {
	var e api.Expense
	var method string
	if err := row.Scan(
		&e.ID, &e.RawText, &e.AmountMinor, &e.Currency, &e.Merchant, &e.Category,
		&method, &e.Note, &e.OccurredAt, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Method = api.PaymentMethod(method)
	return &e, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *api.Expense) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		expenseArgs(e)...,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicateID, e.ID)
	}
	if err != nil {
		return fmt.Errorf("inserting expense %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) UpdateExpense(ctx context.Context, e *api.Expense) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE expenses SET
			raw_text = $2, amount_minor = $3, currency = $4, merchant = $5, category = $6,
			method = $7, note = $8, occurred_at = $9, created_at = $10, updated_at = $11
		WHERE id = $1
	`, expenseArgs(e)...)
	if err != nil {
		return fmt.Errorf("updating expense %s: %w", e.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, e.ID)
	}
	return nil
}

// UpsertExpenses writes a batch in one transaction, replacing rows with the same ID.
func (s *Store) UpsertExpenses(ctx context.Context, expenses []*api.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range expenses {
		batch.Queue(`
			INSERT INTO expenses (`+expenseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				raw_text = EXCLUDED.raw_text,
				amount_minor = EXCLUDED.amount_minor,
				currency = EXCLUDED.currency,
				merchant = EXCLUDED.merchant,
				category = EXCLUDED.category,
				method = EXCLUDED.method,
				note = EXCLUDED.note,
				occurred_at = EXCLUDED.occurred_at,
				updated_at = EXCLUDED.updated_at
		`, expenseArgs(e)...)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range expenses {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("upserting expense %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	s.logger.Debug("upserted expense batch", "count", len(expenses))
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting expense %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (*api.Expense, error) {
	e, err := scanExpense(s.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading expense %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, f store.Filter) ([]*api.Expense, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.From.IsZero() {
		where = append(where, "occurred_at >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "occurred_at < "+arg(f.To))
	}
	if f.Category != "" {
		where = append(where, "lower(category) = lower("+arg(f.Category)+")")
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*api.Expense, error) {
		return scanExpense(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning expenses: %w", err)
	}
	return expenses, nil
}

func (s *Store) Settings(ctx context.Context) (api.Settings, error) {
	var settings api.Settings
	err := s.pool.QueryRow(ctx,
		`SELECT monthly_budget_minor, timezone, currency, ai_assist FROM settings WHERE id = 1`,
	).Scan(&settings.MonthlyBudgetMinor, &settings.Timezone, &settings.Currency, &settings.AIAssist)
	if errors.Is(err, pgx.ErrNoRows) {
		return api.DefaultSettings(), nil
	}
	if err != nil {
		return api.Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings api.Settings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (id, monthly_budget_minor, timezone, currency, ai_assist)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			monthly_budget_minor = EXCLUDED.monthly_budget_minor,
			timezone = EXCLUDED.timezone,
			currency = EXCLUDED.currency,
			ai_assist = EXCLUDED.ai_assist
	`, settings.MonthlyBudgetMinor, settings.Timezone, settings.Currency, settings.AIAssist)
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

func (s *Store) LearnTerm(ctx context.Context, term, category string, at time.Time) error {
	key := store.NormalizeTerm(term)
	if key == "" {
		return errors.New("term is empty")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO learned_terms (term, category, last_used_at) VALUES ($1, $2, $3)
		ON CONFLICT (term) DO UPDATE SET
			category = EXCLUDED.category,
			last_used_at = EXCLUDED.last_used_at
	`, key, category, at)
	if err != nil {
		return fmt.Errorf("learning term %q: %w", key, err)
	}
	return nil
}

func (s *Store) LearnedTerms(ctx context.Context) ([]api.LearnedTerm, error) {
	rows, err := s.pool.Query(ctx, `SELECT term, category, last_used_at FROM learned_terms ORDER BY last_used_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing learned terms: %w", err)
	}
	terms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (api.LearnedTerm, error) {
		var lt api.LearnedTerm
		err := row.Scan(&lt.Term, &lt.Category, &lt.LastUsedAt)
		return lt, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning learned terms: %w", err)
	}
	return terms, nil
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("closed PostgreSQL connection pool")
	}
	return nil
}
