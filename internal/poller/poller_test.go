package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type countingProcessor struct {
	calls atomic.Int32
	err   error
	ran   chan struct{}
}

func newCountingProcessor(err error) *countingProcessor {
	return &countingProcessor{err: err, ran: make(chan struct{}, 16)}
}

func (p *countingProcessor) ProcessBatch(context.Context) error {
	p.calls.Add(1)
	p.ran <- struct{}{}
	return p.err
}

func runAsync(t *testing.T, p *Poller) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return cancel, done
}

func TestRunTicksUntilCancelled(t *testing.T) {
	proc := newCountingProcessor(nil)
	p, err := New("@every 1s", proc, zap.NewNop())
	require.NoError(t, err)

	cancel, done := runAsync(t, p)

	select {
	case <-proc.ran:
	case <-time.After(3 * time.Second):
		t.Fatal("processor was not called")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("poller did not stop")
	}

	calls := proc.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, calls, proc.calls.Load(), "no ticks after stop")
}

func TestRunLogsBatchErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	proc := newCountingProcessor(errors.New("receive messages: throttled"))
	p, err := New("@every 1s", proc, zap.New(core))
	require.NoError(t, err)

	cancel, done := runAsync(t, p)
	select {
	case <-proc.ran:
	case <-time.After(3 * time.Second):
		t.Fatal("processor was not called")
	}
	cancel()
	require.NoError(t, <-done)

	entries := logs.FilterMessage("batch failed").All()
	require.NotEmpty(t, entries)
	assert.Equal(t, "receive messages: throttled", entries[0].ContextMap()["error"])
}

func TestRunRejectsInvalidSchedule(t *testing.T) {
	_, err := New("every minute please", newCountingProcessor(nil), zap.NewNop())
	assert.ErrorContains(t, err, "every minute please")
}
