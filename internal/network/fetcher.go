package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"go-cache-interceptor/internal/config"
	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/metrics"
	"go-cache-interceptor/internal/models"
	"go-cache-interceptor/internal/resolver"
)

const breakerName = "upstream"

// Ensure HTTPFetcher implements interfaces.Fetcher
var _ interfaces.Fetcher = (*HTTPFetcher)(nil)

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// HTTPFetcher executes requests over net/http behind an optional circuit breaker
type HTTPFetcher struct {
	client         *http.Client
	breaker        *gobreaker.CircuitBreaker
	defaultTimeout time.Duration
	logger         *zap.Logger
}

// NewHTTPFetcher creates a fetcher. A nil client uses a default http.Client.
func NewHTTPFetcher(cfg config.NetworkConfig, client *http.Client, logger *zap.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}

	f := &HTTPFetcher{
		client:         client,
		defaultTimeout: cfg.RequestTimeout,
		logger:         logger,
	}

	if cfg.BreakerEnabled {
		threshold := uint32(max(cfg.BreakerThreshold, 1))
		f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    breakerName,
			Timeout: cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					zap.String("name", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
				metrics.SetCircuitBreakerState(name, int(to))
			},
			IsSuccessful: isSuccessful,
		})
		metrics.SetCircuitBreakerState(breakerName, int(gobreaker.StateClosed))
	}

	return f
}

// isSuccessful keeps caller cancellations and client errors from tripping the breaker
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

// Fetch executes the request and returns the response body
func (f *HTTPFetcher) Fetch(ctx context.Context, req models.RequestMetadata, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = f.defaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var (
		body []byte
		err  error
	)
	if f.breaker != nil {
		var result interface{}
		result, err = f.breaker.Execute(func() (interface{}, error) {
			return f.do(ctx, req)
		})
		if err == nil {
			body = result.([]byte)
		}
	} else {
		body, err = f.do(ctx, req)
	}

	switch {
	case err == nil:
		metrics.RecordNetworkRequest("success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordNetworkRequest("breaker_open")
	default:
		metrics.RecordNetworkRequest("error")
	}

	return body, err
}

func (f *HTTPFetcher) do(ctx context.Context, req models.RequestMetadata) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	httpReq.Header.Del(resolver.HeaderName)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Debug("Upstream returned error status",
			zap.String("url", req.URL),
			zap.Int("status", resp.StatusCode))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: data}
	}

	return data, nil
}

// State returns the breaker state, closed when no breaker is configured
func (f *HTTPFetcher) State() gobreaker.State {
	if f.breaker == nil {
		return gobreaker.StateClosed
	}
	return f.breaker.State()
}
