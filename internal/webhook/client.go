package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/config"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// IdempotencyHeader lets the receiver drop duplicate deliveries
const IdempotencyHeader = "Idempotency-Key"

// StatusError is returned when an endpoint answers with a non-2xx status
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook endpoint responded with status %d", e.StatusCode)
}

// Retryable reports whether the status is worth retrying against the same endpoint
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Result describes a successful delivery
type Result struct {
	Endpoint   string
	StatusCode int
	Tries      int
}

// Options tunes retry behaviour; zero values take defaults
type Options struct {
	Timeout         time.Duration
	MaxRetries      uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client posts JSON payloads to an ordered list of endpoints. Each endpoint
// is retried with exponential backoff; the next endpoint is only tried once
// the previous one has given up.
type Client struct {
	httpClient *http.Client
	endpoints  []string
	opts       Options
	logger     *zap.Logger
}

// NewClient builds a client that tries the test endpoint first and falls
// back to the production endpoint
func NewClient(cfg *config.WebhookConfig, logger *zap.Logger) *Client {
	return NewClientWithEndpoints([]string{cfg.TestURL, cfg.ProductionURL}, Options{
		Timeout:    cfg.TimeoutDuration(),
		MaxRetries: uint(cfg.MaxRetries),
	}, logger)
}

// NewClientWithEndpoints builds a client over explicit endpoints; empty entries are skipped
func NewClientWithEndpoints(endpoints []string, opts Options, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = 10 * time.Second
	}

	filtered := make([]string, 0, len(endpoints))
	for _, ep := range endpoints {
		if ep != "" {
			filtered = append(filtered, ep)
		}
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		endpoints:  filtered,
		opts:       opts,
		logger:     logger,
	}
}

// Send delivers payload, falling back through the configured endpoints.
// The returned error joins the failure of every endpoint.
func (c *Client) Send(ctx context.Context, idempotencyKey string, payload []byte) (Result, error) {
	if len(c.endpoints) == 0 {
		return Result{}, errors.New("no webhook endpoints configured")
	}

	var errs []error
	for _, endpoint := range c.endpoints {
		status, tries, err := c.postWithRetry(ctx, endpoint, idempotencyKey, payload)
		if err == nil {
			return Result{Endpoint: endpoint, StatusCode: status, Tries: tries}, nil
		}

		c.logger.Warn("webhook endpoint failed",
			zap.String("endpoint", endpoint),
			zap.String("idempotency_key", idempotencyKey),
			zap.Int("tries", tries),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", endpoint, err))

		if ctx.Err() != nil {
			break
		}
	}
	return Result{}, errors.Join(errs...)
}

func (c *Client) postWithRetry(ctx context.Context, endpoint, idempotencyKey string, payload []byte) (int, int, error) {
	tries := 0
	operation := func() (int, error) {
		tries++
		return c.post(ctx, endpoint, idempotencyKey, payload)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialInterval
	b.MaxInterval = c.opts.MaxInterval

	status, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.opts.MaxRetries),
	)
	return status, tries, err
}

func (c *Client) post(ctx context.Context, endpoint, idempotencyKey string, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyHeader, idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, nil
	}

	statusErr := &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	if !statusErr.Retryable() {
		return resp.StatusCode, backoff.Permanent(statusErr)
	}
	return resp.StatusCode, statusErr
}
