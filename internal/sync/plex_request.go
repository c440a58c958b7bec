// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
plex_request.go - Plex HTTP Request Helpers

Request Configuration:
  - Authentication: X-Plex-Token header on all requests
  - JSON Accept: Accept: application/json header
  - Status Validation: anything but 200 is an error
  - Rate Limiting: Automatic retry with exponential backoff on HTTP 429

Transport failures are wrapped in *models.UnavailableError so callers can
tell an unreachable server from a bad response.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

const plexService = "plex"

// doJSONRequestWithQuery executes a GET against path and decodes the JSON body into result.
func (c *PlexClient) doJSONRequestWithQuery(ctx context.Context, path string, query url.Values, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	start := time.Now()
	resp, err := c.doRequestWithRateLimit(req)
	if err != nil {
		metrics.RecordUpstreamRequest(plexService, metricsEndpoint(path), 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(plexService, metricsEndpoint(path), resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		if resp.StatusCode >= 500 {
			return &models.UnavailableError{Service: plexService, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
		}
		return fmt.Errorf("plex %s: unexpected status %d: %s", path, resp.StatusCode, body)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doJSONRequest is a convenience wrapper for JSON API requests without query parameters
func (c *PlexClient) doJSONRequest(ctx context.Context, path string, result interface{}) error {
	return c.doJSONRequestWithQuery(ctx, path, nil, result)
}

// doRequestWithRateLimit executes HTTP request with automatic retry on rate limiting (HTTP 429).
// Backoff doubles from retryBaseDelay unless the server sends Retry-After.
func (c *PlexClient) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}
			return nil, &models.UnavailableError{Service: plexService, Err: err}
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		if attempt == c.maxRetries {
			return nil, &models.RateLimitedError{Service: plexService, RetryAfter: retryAfterHeader(resp, c.retryBaseDelay)}
		}

		retryDelay := c.retryBaseDelay * (1 << attempt)
		if d := retryAfterHeader(resp, 0); d > 0 {
			retryDelay = d
		}

		logging.Warn().Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Int("max_retries", c.maxRetries).Msg("Plex API rate limited (HTTP 429), retrying")
		metrics.UpstreamRetries.WithLabelValues(plexService).Inc()

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(retryDelay):
		}
	}
}

// retryAfterHeader parses a Retry-After header given in seconds, returning fallback when absent.
func retryAfterHeader(resp *http.Response, fallback time.Duration) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// metricsEndpoint collapses ids out of a path so metric labels stay bounded.
func metricsEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/library/metadata/"):
		return "/library/metadata/{key}"
	case strings.HasPrefix(path, "/library/sections/"):
		return "/library/sections/{id}/all"
	default:
		return path
	}
}
