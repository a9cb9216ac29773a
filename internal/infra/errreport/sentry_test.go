package errreport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *recordingTransport) Configure(sentry.ClientOptions)        {}
func (t *recordingTransport) Flush(time.Duration) bool              { return true }
func (t *recordingTransport) FlushWithContext(context.Context) bool { return true }
func (t *recordingTransport) Close()                                {}
func (t *recordingTransport) SendEvent(e *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func TestNewSentryReporterDisabledWithoutDSN(t *testing.T) {
	r, err := NewSentryReporter("", "test", "v1")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestReportCapturesTaggedException(t *testing.T) {
	transport := &recordingTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://public@example.com/1",
		Transport: transport,
	})
	require.NoError(t, err)

	r := newSentryReporterWithHub(sentry.NewHub(client, sentry.NewScope()))
	r.Report(context.Background(), errors.New("extract: ffmpeg exited 1"), map[string]string{
		"user_id": "u1",
		"stage":   "extract",
	})

	require.Len(t, transport.events, 1)
	ev := transport.events[0]
	assert.Equal(t, "u1", ev.Tags["user_id"])
	assert.Equal(t, "extract", ev.Tags["stage"])
	require.NotEmpty(t, ev.Exception)
	assert.Equal(t, "extract: ffmpeg exited 1", ev.Exception[len(ev.Exception)-1].Value)
}
