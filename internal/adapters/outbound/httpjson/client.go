package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"cryptosub/internal/infrastructure/metrics"
	apperrors "cryptosub/internal/shared_kernel/errors"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 12 * time.Second
	maxResponseBytes = 8 << 20
)

type Options struct {
	Name       string
	Timeout    time.Duration
	Limiter    *rate.Limiter
	Headers    map[string]string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client issues JSON requests to a single upstream source behind its own
// circuit breaker. The optional limiter may be shared between clients.
type Client struct {
	name       string
	timeout    time.Duration
	limiter    *rate.Limiter
	headers    map[string]string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *log.Logger
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	headers := make(map[string]string, len(opts.Headers))
	for key, value := range opts.Headers {
		if value != "" {
			headers[key] = value
		}
	}

	client := &Client{
		name:       opts.Name,
		timeout:    timeout,
		limiter:    opts.Limiter,
		headers:    headers,
		httpClient: httpClient,
		logger:     opts.Logger,
	}
	client.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			if client.logger != nil {
				client.logger.Printf("circuit_breaker_state_changed provider=%s from=%s to=%s", name, from, to)
			}
		},
	})
	return client
}

// NewMinIntervalLimiter allows one call per interval. A non-positive interval
// disables limiting.
func NewMinIntervalLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) GetJSON(ctx context.Context, endpoint string, out any) *apperrors.AppError {
	return c.execute(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) PostJSON(ctx context.Context, endpoint string, body any, out any) *apperrors.AppError {
	encoded, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewInternal(
			"provider_request_failed",
			"failed to encode request body",
			map[string]any{"provider": c.name, "error": err.Error()},
		)
	}
	return c.execute(ctx, http.MethodPost, endpoint, encoded, out)
}

func (c *Client) execute(ctx context.Context, method string, endpoint string, body []byte, out any) *apperrors.AppError {
	return c.Do(ctx, func(requestCtx context.Context) *apperrors.AppError {
		return c.roundTrip(requestCtx, method, endpoint, body, out)
	})
}

// Do runs call behind the client's limiter, timeout and circuit breaker. It lets SDK-backed
// sources share the same guards as plain JSON endpoints.
func (c *Client) Do(ctx context.Context, call func(ctx context.Context) *apperrors.AppError) *apperrors.AppError {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.finish("cancelled", apperrors.NewProvider(
				"provider_request_failed",
				"rate limiter wait aborted",
				map[string]any{"provider": c.name, "error": err.Error()},
			))
		}
	}

	startedAt := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if appErr := call(requestCtx); appErr != nil {
			return nil, appErr
		}
		return nil, nil
	})
	metrics.ProviderRequestDuration.WithLabelValues(c.name).Observe(time.Since(startedAt).Seconds())

	if err == nil {
		return c.finish("ok", nil)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return c.finish("circuit_open", apperrors.NewProvider(
			"provider_circuit_open",
			"provider circuit breaker is open",
			map[string]any{"provider": c.name},
		))
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return c.finish("error", appErr)
	}
	return c.finish("error", apperrors.NewProvider(
		"provider_request_failed",
		"provider request failed",
		map[string]any{"provider": c.name, "error": err.Error()},
	))
}

func (c *Client) finish(outcome string, appErr *apperrors.AppError) *apperrors.AppError {
	metrics.ProviderRequestsTotal.WithLabelValues(c.name, outcome).Inc()
	return appErr
}

func (c *Client) roundTrip(ctx context.Context, method string, endpoint string, body []byte, out any) *apperrors.AppError {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return apperrors.NewProvider(
			"provider_request_failed",
			"failed to build provider request",
			map[string]any{"provider": c.name, "error": err.Error()},
		)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return apperrors.NewProvider(
			"provider_request_failed",
			"failed to call provider endpoint",
			map[string]any{"provider": c.name, "error": err.Error()},
		)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return apperrors.NewProvider(
			"provider_status_invalid",
			"provider endpoint returned non-200 status",
			map[string]any{"provider": c.name, "status_code": response.StatusCode},
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(response.Body, maxResponseBytes)).Decode(out); err != nil {
		return apperrors.NewProvider(
			"provider_payload_invalid",
			"failed to decode provider payload",
			map[string]any{"provider": c.name, "error": err.Error()},
		)
	}
	return nil
}
