// Package remote provides the HTTP plumbing shared by model service adapters:
// JSON requests with per-call timeouts, a shared rate limiter, and bounded
// retries with capped exponential backoff for transient failures.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Default retry policy values.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 200 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second
	DefaultTimeout    = 60 * time.Second
)

// maxErrorBody bounds how much of an error response ends up in messages.
const maxErrorBody = 512

// Policy controls retries.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

// Backoff returns the delay before retry number attempt (zero-based).
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := p.BaseDelay << attempt
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Config configures a Caller.
type Config struct {
	// Service is the domain sentinel wrapped into every failure,
	// domain.ErrEmbeddingService or domain.ErrGenerationService.
	Service error

	// Timeout bounds each attempt.
	Timeout time.Duration

	Policy    Policy
	RateLimit RateLimitConfig

	// HTTPClient overrides the default client. Useful for testing.
	HTTPClient *http.Client
}

// Caller sends JSON requests to one model service.
type Caller struct {
	client  *http.Client
	limiter *RateLimiter
	policy  Policy
	timeout time.Duration
	service error
}

// NewCaller creates a Caller with defaults applied.
func NewCaller(cfg Config) *Caller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Policy.BaseDelay <= 0 {
		cfg.Policy.BaseDelay = DefaultBaseDelay
	}
	if cfg.Policy.MaxDelay <= 0 {
		cfg.Policy.MaxDelay = DefaultMaxDelay
	}
	if cfg.Policy.MaxRetries < 0 {
		cfg.Policy.MaxRetries = 0
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Caller{
		client:  client,
		limiter: NewRateLimiter(cfg.RateLimit),
		policy:  cfg.Policy,
		timeout: cfg.Timeout,
		service: cfg.Service,
	}
}

// PostJSON sends in as a JSON body and decodes a 2xx response into out.
// Transient failures are retried; the last failure is returned as a
// *domain.ServiceError.
func (c *Caller) PostJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, url, headers, body, out)
}

// Get sends a GET request and discards a 2xx body. Used for pings; not retried.
func (c *Caller) Get(ctx context.Context, url string, headers map[string]string) error {
	return c.attempt(ctx, http.MethodGet, url, headers, nil, nil)
}

func (c *Caller) do(ctx context.Context, method, url string, headers map[string]string, body []byte, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		lastErr = c.attempt(ctx, method, url, headers, body, out)
		if lastErr == nil {
			return nil
		}

		var se *domain.ServiceError
		if !errors.As(lastErr, &se) || !se.Transient || attempt == c.policy.MaxRetries {
			return lastErr
		}

		delay := c.policy.Backoff(attempt)
		if se.RetryAfter > delay {
			delay = se.RetryAfter
		}
		logger.Debug("%v: attempt %d failed (%v), retrying in %s", c.service, attempt+1, se.Err, delay)

		if err := sleep(ctx, delay); err != nil {
			return domain.NewServiceError(c.service, se.StatusCode, fmt.Errorf("%w (after %v)", err, se.Err))
		}
	}
	return lastErr
}

func (c *Caller) attempt(ctx context.Context, method, url string, headers map[string]string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &domain.ServiceError{Service: c.service, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return &domain.ServiceError{Service: c.service, Err: fmt.Errorf("create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		se := domain.NewServiceError(c.service, 0, fmt.Errorf("send request: %w", err))
		// Cancellation by the caller is final; a per-attempt timeout is not.
		if ctx.Err() != nil {
			se.Transient = false
		}
		return se
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewServiceError(c.service, 0, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := domain.NewServiceError(c.service, resp.StatusCode, errors.New(errorMessage(data)))
		se.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		if resp.StatusCode == http.StatusTooManyRequests {
			c.limiter.RecordRateLimit(se.RetryAfter)
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.ServiceError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// errorMessage extracts a readable message from an error body.
// Vendors use {"error": {"message": ...}}, {"error": "..."} or plain text.
func errorMessage(body []byte) string {
	var structured struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &structured) == nil && len(structured.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(structured.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if json.Unmarshal(structured.Error, &flat) == nil && flat != "" {
			return flat
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if msg == "" {
		msg = "empty response body"
	}
	return msg
}

// parseRetryAfter understands delay-seconds and HTTP-date values.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
