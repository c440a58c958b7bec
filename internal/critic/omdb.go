// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

// Package critic looks up Rotten Tomatoes critic scores through OMDb.
package critic

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smartdiscovery/internal/cache"
	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

const (
	service            = "omdb"
	rottenTomatoesName = "Rotten Tomatoes"
	noScore            = -1
)

type omdbResponse struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Response string `json:"Response"`
	Error    string `json:"Error,omitempty"`
	Ratings  []struct {
		Source string `json:"Source"`
		Value  string `json:"Value"`
	} `json:"Ratings"`
}

// OMDbClient fetches critic scores, caching both scores and misses.
type OMDbClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	scores     *cache.TTLCache[int]
}

// NewOMDbClient creates an OMDb client from configuration.
func NewOMDbClient(cfg *config.OMDbConfig) *OMDbClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &OMDbClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		scores:     cache.NewTTLCache[int](ttl, cache.WithName("critic")),
	}
}

// Score returns the Rotten Tomatoes score (0-100) of a title. ok is false
// when OMDb has no such title or no critic score for it.
func (c *OMDbClient) Score(ctx context.Context, mt models.MediaType, title string, year int) (score int, ok bool, err error) {
	key := fmt.Sprintf("%s:%s:%d", mt, strings.ToLower(title), year)
	score, err = c.scores.GetOrLoad(ctx, key, func(ctx context.Context) (int, error) {
		return c.fetch(ctx, mt, title, year)
	})
	if err != nil {
		return 0, false, err
	}
	return score, score != noScore, nil
}

func (c *OMDbClient) fetch(ctx context.Context, mt models.MediaType, title string, year int) (int, error) {
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("t", title)
	if year > 0 {
		q.Set("y", strconv.Itoa(year))
	}
	if mt == models.MediaTypeShow {
		q.Set("type", "series")
	} else {
		q.Set("type", "movie")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), http.NoBody)
	if err != nil {
		return noScore, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(service, "/", 0, time.Since(start))
		if ctx.Err() != nil {
			return noScore, ctx.Err()
		}
		return noScore, &models.UnavailableError{Service: service, Err: err}
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(service, "/", resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return noScore, &models.RateLimitedError{Service: service, RetryAfter: time.Minute}
	case resp.StatusCode >= 500:
		return noScore, &models.UnavailableError{Service: service, Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return noScore, fmt.Errorf("omdb: unexpected status %d", resp.StatusCode)
	}

	var body omdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return noScore, fmt.Errorf("decode omdb response: %w", err)
	}
	if body.Response != "True" {
		// "Movie not found!" is a cacheable miss; anything else (bad key,
		// request limit) is not.
		if strings.Contains(strings.ToLower(body.Error), "not found") {
			return noScore, nil
		}
		return noScore, fmt.Errorf("omdb: %s", body.Error)
	}
	return rottenTomatoesScore(&body), nil
}

// rottenTomatoesScore parses "88%" out of the ratings list.
func rottenTomatoesScore(r *omdbResponse) int {
	for _, rating := range r.Ratings {
		if rating.Source != rottenTomatoesName {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(rating.Value), "%"))
		if err != nil || v < 0 || v > 100 {
			return noScore
		}
		return v
	}
	return noScore
}

// Configured reports whether an API key is set.
func (c *OMDbClient) Configured() bool {
	return c != nil && c.apiKey != ""
}
