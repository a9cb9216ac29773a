package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSink(url string) *HTTPSink {
	return NewHTTPSink(HTTPConfig{
		BaseURL:      url,
		RetryMax:     3,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
		Timeout:      time.Second,
	}, zap.NewNop())
}

func TestNotifyPostsStatus(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/notifications", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newSink(srv.URL+"/").Notify(context.Background(), entity.Processed("u1", "f1", "u1/images/clip.zip"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"status":            "processed",
		"userId":            "u1",
		"fileId":            "f1",
		"compressedFileKey": "u1/images/clip.zip",
	}, got)
}

func TestNotifyOmitsArchiveKeyWhenEmpty(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newSink(srv.URL).Notify(context.Background(), entity.Started("u1", "f1")))

	assert.Equal(t, "processing", got["status"])
	assert.NotContains(t, got, "compressedFileKey")
}

func TestNotifyRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, newSink(srv.URL).Notify(context.Background(), entity.Failed("u1", "f1")))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNotifyFailsAfterExhaustingRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newSink(srv.URL).Notify(context.Background(), entity.Started("u1", "f1"))
	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load())
}

func TestNotifyFailsOnNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newSink(url).Notify(context.Background(), entity.Started("u1", "f1"))
	assert.Error(t, err)
}

func TestCheckRetry(t *testing.T) {
	ctx := context.Background()

	retry, err := checkRetry(ctx, &http.Response{StatusCode: http.StatusNoContent}, nil)
	assert.NoError(t, err)
	assert.False(t, retry)

	retry, _ = checkRetry(ctx, &http.Response{StatusCode: http.StatusTooManyRequests}, nil)
	assert.True(t, retry)

	retry, _ = checkRetry(ctx, nil, assert.AnError)
	assert.True(t, retry)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err = checkRetry(canceled, nil, assert.AnError)
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}
