// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
tautulli_client.go - Tautulli API Client

Tautulli is optional. When enabled it supplies trending titles used as seeds
for users without watch history.

Client Features:
  - HTTP client with configurable timeout
  - API key authentication
  - Automatic HTTP 429 rate limit handling with exponential backoff
  - JSON response parsing with generic type support

Related Files:
  - api_helpers.go: request builder and generic executeAPIRequest
  - tautulli_trending.go: get_home_stats and trending extraction
  - circuit_breaker.go: breaker wrapper used in production
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

const tautulliService = "tautulli"

// maxErrorBodySize limits the maximum amount of response body read for error reporting
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads the response body for error reporting (max 64KB)
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// TautulliClient handles communication with the Tautulli HTTP API.
//
// Thread Safety: Safe for concurrent use. Each request creates its own HTTP request.
type TautulliClient struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	maxRetries     int           // Maximum retries for rate limiting
	retryBaseDelay time.Duration // Base delay for exponential backoff
}

// NewTautulliClient creates a new Tautulli API client with the provided configuration.
func NewTautulliClient(cfg *config.TautulliConfig) *TautulliClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TautulliClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     3,
		retryBaseDelay: time.Second,
	}
}

// doRequestWithRateLimit performs an HTTP GET with automatic rate limit handling.
// The context is used for cancellation during backoff waits.
func (c *TautulliClient) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &models.UnavailableError{Service: tautulliService, Err: err}
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			return nil, &models.RateLimitedError{Service: tautulliService, RetryAfter: retryAfterHeader(resp, c.retryBaseDelay)}
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if d := retryAfterHeader(resp, 0); d > 0 {
			delay = d
		}
		metrics.UpstreamRetries.WithLabelValues(tautulliService).Inc()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
