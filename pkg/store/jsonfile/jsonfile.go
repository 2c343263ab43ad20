// Package jsonfile implements store.Store as a single JSON document on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/logging"
	"github.com/ArionMiles/spendnote/pkg/store"
)

const documentVersion = 1

// document is the on-disk layout.
type document struct {
	Version      int               `json:"version"`
	Settings     api.Settings      `json:"settings"`
	Expenses     []*api.Expense    `json:"expenses"`
	LearnedTerms []api.LearnedTerm `json:"learned_terms"`
}

// Store keeps the whole document in memory and rewrites the file on every change.
type Store struct {
	filePath string
	mu       sync.Mutex
	doc      document
	logger   *slog.Logger
}

var _ store.Store = (*Store)(nil)

// New opens the document at filePath, creating parent directories as needed.
// A missing or empty file starts an empty store with default settings.
func New(filePath string, logger *slog.Logger) (*Store, error) {
	logger = logging.OrDefault(logger)

	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &Store{
		filePath: filePath,
		doc:      document{Version: documentVersion, Settings: api.DefaultSettings()},
		logger:   logger,
	}
	if err := s.loadExisting(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", filePath, err)
	}

	logger.Info("json store opened", "file", filePath, "existing_count", len(s.doc.Expenses))
	return s, nil
}

func (s *Store) loadExisting() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, &s.doc)
}

// persist writes the document to a temporary file and renames it into place. Callers hold mu.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		return fmt.Errorf("replacing json file: %w", err)
	}

	s.logger.Debug("wrote json store", "expense_count", len(s.doc.Expenses))
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.doc.Expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// CreateExpense adds e at the front of the document.
func (s *Store) CreateExpense(_ context.Context, e *api.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(e.ID) >= 0 {
		return fmt.Errorf("%w: %s", store.ErrDuplicateID, e.ID)
	}

	cp := *e
	s.doc.Expenses = append([]*api.Expense{&cp}, s.doc.Expenses...)
	if err := s.persist(); err != nil {
		s.doc.Expenses = s.doc.Expenses[1:]
		return err
	}
	return nil
}

func (s *Store) UpdateExpense(_ context.Context, e *api.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(e.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, e.ID)
	}

	prev := s.doc.Expenses[i]
	cp := *e
	s.doc.Expenses[i] = &cp
	if err := s.persist(); err != nil {
		s.doc.Expenses[i] = prev
		return err
	}
	return nil
}

// UpsertExpenses writes a batch with a single file rewrite, replacing entries with the same ID.
func (s *Store) UpsertExpenses(_ context.Context, expenses []*api.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := append([]*api.Expense(nil), s.doc.Expenses...)
	for _, e := range expenses {
		cp := *e
		if i := s.indexOf(e.ID); i >= 0 {
			s.doc.Expenses[i] = &cp
			continue
		}
		s.doc.Expenses = append([]*api.Expense{&cp}, s.doc.Expenses...)
	}

	if err := s.persist(); err != nil {
		s.doc.Expenses = prev
		return err
	}
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}

	prev := s.doc.Expenses
	s.doc.Expenses = append(append([]*api.Expense{}, prev[:i]...), prev[i+1:]...)
	if err := s.persist(); err != nil {
		s.doc.Expenses = prev
		return err
	}
	return nil
}

func (s *Store) GetExpense(_ context.Context, id string) (*api.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	cp := *s.doc.Expenses[i]
	return &cp, nil
}

func (s *Store) ListExpenses(_ context.Context, f store.Filter) ([]*api.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*api.Expense, 0, len(s.doc.Expenses))
	for _, e := range s.doc.Expenses {
		if f.Match(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	store.SortNewestFirst(out)

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) Settings(_ context.Context) (api.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Settings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings api.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.doc.Settings
	s.doc.Settings = settings
	if err := s.persist(); err != nil {
		s.doc.Settings = prev
		return err
	}
	return nil
}

func (s *Store) LearnTerm(_ context.Context, term, category string, at time.Time) error {
	key := store.NormalizeTerm(term)
	if key == "" {
		return errors.New("term is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := append([]api.LearnedTerm(nil), s.doc.LearnedTerms...)
	found := false
	for i := range s.doc.LearnedTerms {
		if s.doc.LearnedTerms[i].Term == key {
			s.doc.LearnedTerms[i].Category = category
			s.doc.LearnedTerms[i].LastUsedAt = at
			found = true
			break
		}
	}
	if !found {
		s.doc.LearnedTerms = append(s.doc.LearnedTerms, api.LearnedTerm{Term: key, Category: category, LastUsedAt: at})
	}

	if err := s.persist(); err != nil {
		s.doc.LearnedTerms = prev
		return err
	}
	return nil
}

func (s *Store) LearnedTerms(_ context.Context) ([]api.LearnedTerm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]api.LearnedTerm(nil), s.doc.LearnedTerms...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUsedAt.After(out[j].LastUsedAt)
	})
	return out, nil
}

// ExpenseCount returns the number of stored expenses.
func (s *Store) ExpenseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.Expenses)
}

// Close is a no-op; every change is already on disk.
func (s *Store) Close() error {
	return nil
}
