// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
plex.go - Plex Media Server API Client

This file provides the core PlexClient struct and the watch history types
used by the taste profile builder.

PlexClient Features:
  - HTTP client with configurable timeout (default 30s)
  - X-Plex-Token authentication
  - Automatic rate limit handling with exponential backoff
  - Paged history reads newest first

API Methods in this file:
  - NewPlexClient(): Create authenticated client
  - GetHistory(): Fetch the most recent plays, optionally for one account

Related Files:
  - plex_request.go: HTTP request helpers
  - plex_library.go: Library sections, contents and metadata
  - plex_history.go: Conversion of history rows to models.WatchHistoryEntry
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/config"
)

// PlexClient handles communication with Plex Media Server API
type PlexClient struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
}

// PlexHistoryResponse represents the top-level response from /status/sessions/history/all
type PlexHistoryResponse struct {
	MediaContainer PlexMediaContainer `json:"MediaContainer"`
}

// PlexMediaContainer wraps the history metadata array
type PlexMediaContainer struct {
	Size      int            `json:"size"`
	TotalSize int            `json:"totalSize,omitempty"`
	Offset    int            `json:"offset,omitempty"`
	Metadata  []PlexMetadata `json:"Metadata"`
}

// PlexMetadata represents a single playback history entry from Plex
type PlexMetadata struct {
	RatingKey            string `json:"ratingKey"`
	Key                  string `json:"key"`
	ParentRatingKey      string `json:"parentRatingKey,omitempty"`
	GrandparentRatingKey string `json:"grandparentRatingKey,omitempty"`
	GrandparentKey       string `json:"grandparentKey,omitempty"`

	Type             string `json:"type"` // "movie", "episode", "track"
	Title            string `json:"title"`
	GrandparentTitle string `json:"grandparentTitle,omitempty"`
	OriginalTitle    string `json:"originalTitle,omitempty"`

	ViewedAt         int64          `json:"viewedAt"` // Unix seconds
	AccountID        int            `json:"accountID"`
	LibrarySectionID FlexibleString `json:"librarySectionID,omitempty"`

	Year int `json:"year,omitempty"`
}

// NewPlexClient creates a new Plex API client from configuration.
func NewPlexClient(cfg *config.PlexConfig) *PlexClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PlexClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     5,
		retryBaseDelay: time.Second,
	}
}

// HistoryQuery selects a window of watch history.
type HistoryQuery struct {
	AccountID string // Empty for every account
	Limit     int    // Most recent entries to return
	PageSize  int    // Entries per request
}

// GetHistory fetches up to q.Limit history rows sorted newest first.
//
// Endpoint: GET /status/sessions/history/all?sort=viewedAt:desc
func (c *PlexClient) GetHistory(ctx context.Context, q HistoryQuery) ([]PlexMetadata, error) {
	pageSize := q.PageSize
	if pageSize <= 0 || pageSize > q.Limit {
		pageSize = q.Limit
	}

	rows := make([]PlexMetadata, 0, pageSize)
	for start := 0; len(rows) < q.Limit; start += pageSize {
		query := url.Values{}
		query.Set("sort", "viewedAt:desc")
		if q.AccountID != "" {
			query.Set("accountID", q.AccountID)
		}
		query.Set("X-Plex-Container-Start", strconv.Itoa(start))
		query.Set("X-Plex-Container-Size", strconv.Itoa(pageSize))

		var historyResp PlexHistoryResponse
		if err := c.doJSONRequestWithQuery(ctx, "/status/sessions/history/all", query, &historyResp); err != nil {
			return nil, err
		}

		page := historyResp.MediaContainer.Metadata
		rows = append(rows, page...)
		if len(page) < pageSize {
			break
		}
	}

	if len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}
