package events

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogEmitter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewLogEmitter(logger).Emit(context.Background(), EntrySaved, slog.String("expense_id", "x1"), slog.Int64("amount_minor", 79900))

	out := buf.String()
	assert.Contains(t, out, `"event":"entry_saved"`)
	assert.Contains(t, out, `"expense_id":"x1"`)
	assert.Contains(t, out, `"component":"events"`)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Emit(context.Background(), EntryParsed, slog.Float64("confidence", 0.9))
	r.Emit(context.Background(), EntryDeleted)

	assert.Equal(t, []Name{EntryParsed, EntryDeleted}, r.Names())
	evs := r.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, 0.9, evs[0].Attrs["confidence"])
}
