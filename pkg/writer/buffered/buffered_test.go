package buffered

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/spendnote/pkg/api"
	"github.com/ArionMiles/spendnote/pkg/logging"
)

type recordingFlusher struct {
	mu      sync.Mutex
	batches [][]string
	err     error
}

func (f *recordingFlusher) flush(_ context.Context, expenses []*api.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	ids := make([]string, 0, len(expenses))
	for _, e := range expenses {
		ids = append(ids, e.ID)
	}
	f.batches = append(f.batches, ids)
	return nil
}

func (f *recordingFlusher) Batches() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.batches...)
}

func feed(n int) chan *api.Expense {
	in := make(chan *api.Expense, n)
	for i := 1; i <= n; i++ {
		in <- &api.Expense{ID: fmt.Sprintf("e%d", i)}
	}
	close(in)
	return in
}

func TestWriter_BatchesAndAcks(t *testing.T) {
	f := &recordingFlusher{}
	w := New(f.flush, Config{BatchSize: 2, FlushInterval: time.Hour}, logging.Discard())
	ackChan := make(chan string, 10)

	require.NoError(t, w.Write(context.Background(), feed(5), ackChan))
	close(ackChan)

	assert.Equal(t, [][]string{{"e1", "e2"}, {"e3", "e4"}, {"e5"}}, f.Batches())

	var acks []string
	for id := range ackChan {
		acks = append(acks, id)
	}
	assert.Equal(t, []string{"e1", "e2", "e3", "e4", "e5"}, acks)
	assert.Equal(t, 5, w.Written())
	assert.Zero(t, w.BufferLen())
}

func TestWriter_NilAckChan(t *testing.T) {
	f := &recordingFlusher{}
	w := New(f.flush, Config{BatchSize: 10}, logging.Discard())

	require.NoError(t, w.Write(context.Background(), feed(3), nil))
	assert.Equal(t, [][]string{{"e1", "e2", "e3"}}, f.Batches())
}

func TestWriter_FlushError(t *testing.T) {
	f := &recordingFlusher{err: errors.New("disk full")}
	w := New(f.flush, Config{BatchSize: 2}, logging.Discard())
	ackChan := make(chan string, 10)

	err := w.Write(context.Background(), feed(3), ackChan)
	assert.EqualError(t, err, "disk full")
	assert.Empty(t, ackChan)
	assert.Zero(t, w.Written())
}

func TestWriter_IntervalFlush(t *testing.T) {
	f := &recordingFlusher{}
	w := New(f.flush, Config{BatchSize: 100, FlushInterval: 10 * time.Millisecond}, logging.Discard())

	in := make(chan *api.Expense)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Write(ctx, in, nil) }()

	in <- &api.Expense{ID: "e1"}
	assert.Eventually(t, func() bool { return len(f.Batches()) == 1 }, time.Second, 5*time.Millisecond)

	close(in)
	require.NoError(t, <-done)
}

func TestWriter_CancelFlushesRemaining(t *testing.T) {
	f := &recordingFlusher{}
	w := New(f.flush, Config{BatchSize: 100, FlushInterval: time.Hour}, logging.Discard())

	in := make(chan *api.Expense, 1)
	in <- &api.Expense{ID: "e1"}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Write(ctx, in, nil) }()

	assert.Eventually(t, func() bool { return w.BufferLen() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, [][]string{{"e1"}}, f.Batches())
}

func TestNew_Defaults(t *testing.T) {
	w := New(nil, Config{}, nil)
	assert.Equal(t, DefaultBatchSize, w.config.BatchSize)
	assert.Equal(t, DefaultFlushInterval, w.config.FlushInterval)
}
