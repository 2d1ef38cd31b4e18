package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/bobby-s-dev/weather-viewer/internal/models"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type BaseClient struct {
	client         HTTPClient
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	maxRetries     int
	retryDelay     time.Duration
	multiplier     float64
}

type ClientConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	Multiplier     float64
	Threshold      int
	BreakerTimeout time.Duration
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	httpClient := &http.Client{
		Timeout: config.Timeout,
	}

	threshold := uint32(config.Threshold)
	if threshold == 0 {
		threshold = 3
	}

	// Circuit breaker settings
	breakerSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A rejected request (bad city, bad key) says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			var httpErr *models.HTTPError
			if errors.As(err, &httpErr) {
				return !retryable(httpErr.StatusCode)
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BaseClient{
		client:         httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		multiplier:     config.Multiplier,
	}
}

// BreakerState reports the circuit breaker state for health output.
func (c *BaseClient) BreakerState() string {
	return c.circuitBreaker.State().String()
}

// GetWithRetry performs a GET and returns the body of a 2xx response.
// Failures are *models.HTTPError for non-2xx statuses and
// *models.TransportError for everything else.
func (c *BaseClient) GetWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.doGetWithRetry(ctx, rawURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &models.TransportError{Message: "weather service unavailable: " + err.Error(), Err: err}
		}
		return nil, err
	}

	return result.([]byte), nil
}

func (c *BaseClient) doGetWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	logURL := redact(rawURL)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Calculate exponential backoff delay
			delay := time.Duration(float64(c.retryDelay) * math.Pow(c.multiplier, float64(attempt-1)))
			c.logger.Debug("Retrying request",
				zap.String("url", logURL),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, transportError(ctx.Err())
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, transportError(fmt.Errorf("creating request failed: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = transportError(err)
			c.logger.Warn("HTTP request failed",
				zap.String("url", logURL),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()

			if err != nil {
				lastErr = transportError(err)
				continue
			}

			c.logger.Debug("Request successful",
				zap.String("url", logURL),
				zap.Int("status", resp.StatusCode),
				zap.Int("body_size", len(body)))

			return body, nil
		}

		resp.Body.Close()
		lastErr = &models.HTTPError{StatusCode: resp.StatusCode}
		c.logger.Warn("Upstream returned non-success status",
			zap.String("url", logURL),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt))

		if !retryable(resp.StatusCode) {
			break
		}
	}

	return nil, fmt.Errorf("max retries exceeded, last error: %w", lastErr)
}

// Don't retry on client errors (4xx) except 429 (rate limiting)
func retryable(status int) bool {
	return status < 400 || status >= 500 || status == http.StatusTooManyRequests
}

// transportError strips the request URL from net/http errors so the message
// can be shown to a user without leaking the API key.
func transportError(err error) *models.TransportError {
	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		msg = urlErr.Err.Error()
	}
	return &models.TransportError{Message: msg, Err: err}
}

func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("appid") {
		q.Set("appid", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
