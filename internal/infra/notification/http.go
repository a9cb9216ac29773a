// Package notification posts conversion status updates to the tracking service.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/8SOAT-G4-Tech-Challenge/hackaton-converter/internal/domain/entity"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

type HTTPConfig struct {
	BaseURL      string
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
}

type HTTPSink struct {
	client *retryablehttp.Client
	url    string
	logger *zap.Logger
}

func NewHTTPSink(cfg HTTPConfig, logger *zap.Logger) *HTTPSink {
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		client.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		client.RetryWaitMax = cfg.RetryWaitMax
	}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	client.Backoff = retryablehttp.DefaultBackoff
	client.CheckRetry = checkRetry
	client.Logger = leveledLogger{logger.Sugar()}

	return &HTTPSink{
		client: client,
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/notifications",
		logger: logger,
	}
}

// checkRetry retries network errors and every non-2xx response.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	return resp.StatusCode < 200 || resp.StatusCode > 299, nil
}

func (s *HTTPSink) Notify(ctx context.Context, status entity.ConversionStatus) error {
	body, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	s.logger.Info("sending conversion status",
		zap.String("status", string(status.Kind)),
		zap.String("user_id", status.UserID),
		zap.String("file_id", status.FileID),
		zap.String("url", s.url),
	)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send notification: unexpected status %d", resp.StatusCode)
	}
	return nil
}

type leveledLogger struct {
	l *zap.SugaredLogger
}

func (z leveledLogger) Error(msg string, kv ...interface{}) { z.l.Errorw(msg, kv...) }
func (z leveledLogger) Info(msg string, kv ...interface{})  { z.l.Infow(msg, kv...) }
func (z leveledLogger) Debug(msg string, kv ...interface{}) { z.l.Debugw(msg, kv...) }
func (z leveledLogger) Warn(msg string, kv ...interface{})  { z.l.Warnw(msg, kv...) }
