// Package events records named usage events.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ArionMiles/spendnote/pkg/logging"
)

// Name identifies an event.
type Name string

// Events emitted by the ledger.
const (
	EntryParsed     Name = "entry_parsed"
	EntrySaved      Name = "entry_saved"
	EntryUpdated    Name = "entry_updated"
	EntryDeleted    Name = "entry_deleted"
	BudgetChanged   Name = "budget_changed"
	CategoryLearned Name = "category_learned"
)

// Emitter receives events. Implementations must not block.
type Emitter interface {
	Emit(ctx context.Context, name Name, attrs ...slog.Attr)
}

// LogEmitter writes each event as a structured log record.
type LogEmitter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogEmitter logs events at debug level.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{
		logger: logging.OrDefault(logger).With("component", "events"),
		level:  slog.LevelDebug,
	}
}

func (e *LogEmitter) Emit(ctx context.Context, name Name, attrs ...slog.Attr) {
	e.logger.LogAttrs(ctx, e.level, "event", append([]slog.Attr{slog.String("event", string(name))}, attrs...)...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Emit(context.Context, Name, ...slog.Attr) {}

// Event is one recorded emission.
type Event struct {
	Name  Name
	Attrs map[string]any
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, name Name, attrs ...slog.Attr) {
	ev := Event{Name: name, Attrs: make(map[string]any, len(attrs))}
	for _, a := range attrs {
		ev.Attrs[a.Key] = a.Value.Any()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]Name, 0, len(r.events))
	for _, ev := range r.events {
		names = append(names, ev.Name)
	}
	return names
}
