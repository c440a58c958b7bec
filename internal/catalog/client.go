// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
client.go - TMDB Catalog Client

Every request passes through the same pipeline:

 1. Circuit breaker: while open, calls fail with *models.RateLimitedError
    carrying the remaining cooldown and never touch the network.
 2. Retry: one retry on transient failures (connection error, timeout, 5xx).
    4xx answers, 429 included, are never retried.
 3. Rate limiter: token bucket shared by all calls of the client.
 4. Semaphore: caps concurrent requests of the client.
 5. Per-call deadline: each attempt gets its own timeout.

The breaker counts rate limits and unavailability as failures and opens
after TripThreshold consecutive ones. Other 4xx responses (404 for a
removed title) leave it untouched.
*/

//nolint:staticcheck // File documentation, not package doc
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

const (
	service     = "tmdb"
	breakerName = "tmdb-api"

	// maxErrorBodySize limits how much of an error response is kept
	maxErrorBodySize = 4 * 1024
)

// ErrNotFound is returned when the catalog has no such title.
var ErrNotFound = errors.New("catalog: not found")

// Client is a TMDB v3 client shared by every generation cycle.
//
// Thread Safety: Safe for concurrent use.
type Client struct {
	baseURL     string
	apiKey      string
	language    string
	httpClient  *http.Client
	callTimeout time.Duration
	retryDelay  time.Duration
	cooldown    time.Duration

	limiter  *rate.Limiter
	sem      *semaphore.Weighted
	cb       *gobreaker.CircuitBreaker[[]byte]
	openedAt atomic.Int64 // unix nanos of the last transition to open
}

// NewClient creates a catalog client from configuration.
func NewClient(cfg *config.TMDBConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	tripThreshold := cfg.TripThreshold
	if tripThreshold == 0 {
		tripThreshold = 5
	}
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 30
	}
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		language:    cfg.Language,
		httpClient:  &http.Client{},
		callTimeout: timeout,
		retryDelay:  250 * time.Millisecond,
		cooldown:    cooldown,
		limiter:     rate.NewLimiter(limit, burst),
		sem:         semaphore.NewWeighted(int64(concurrency)),
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				!(errors.Is(err, models.ErrUpstreamRateLimited) || errors.Is(err, models.ErrUpstreamUnavailable))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				c.openedAt.Store(time.Now().UnixNano())
			}
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] Catalog state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// State reports the cooldown breaker as "closed", "half-open" or "open".
func (c *Client) State() string {
	return c.cb.State().String()
}

// get fetches path and decodes the JSON body into out. endpoint is the
// bounded label used for metrics.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	if !c.Configured() {
		return models.ErrNotConfigured
	}

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.fetchWithRetry(ctx, endpoint, path, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
			return &models.RateLimitedError{Service: service, RetryAfter: c.remainingCooldown()}
		}
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		return err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// remainingCooldown is the time left before the open breaker lets a probe through.
func (c *Client) remainingCooldown() time.Duration {
	opened := c.openedAt.Load()
	if opened == 0 {
		return c.cooldown
	}
	left := c.cooldown - time.Since(time.Unix(0, opened))
	if left < time.Second {
		return time.Second
	}
	return left.Round(time.Second)
}

// fetchWithRetry performs the request, retrying once on transient failure.
func (c *Client) fetchWithRetry(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	return retry.DoWithData(
		func() ([]byte, error) {
			return c.fetch(ctx, endpoint, path, query)
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			metrics.UpstreamRetries.WithLabelValues(service).Inc()
			logging.Debug().Err(err).Str("endpoint", endpoint).Msg("Retrying catalog request")
		}),
	)
}

// isTransient reports whether a failed attempt is worth repeating.
func isTransient(err error) bool {
	return errors.Is(err, models.ErrUpstreamUnavailable)
}

// fetch performs one attempt.
func (c *Client) fetch(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)
	metrics.CatalogInFlight.Inc()
	defer metrics.CatalogInFlight.Dec()

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)
	if c.language != "" && q.Get("language") == "" {
		q.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(service, endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &models.UnavailableError{Service: service, Err: err}
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(service, endpoint, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &models.UnavailableError{Service: service, Err: fmt.Errorf("read body: %w", err)}
		}
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &models.RateLimitedError{Service: service, RetryAfter: retryAfter(resp, c.cooldown)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode >= 500:
		return nil, &models.UnavailableError{Service: service, Err: fmt.Errorf("%s: status %d", path, resp.StatusCode)}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("tmdb %s: unexpected status %d: %s", path, resp.StatusCode, body)
	}
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
