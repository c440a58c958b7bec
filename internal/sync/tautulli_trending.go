// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package sync

import (
	"context"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

// TautulliHomeStats represents the API response from get_home_stats
type TautulliHomeStats struct {
	Response TautulliHomeStatsResponse `json:"response"`
}

type TautulliHomeStatsResponse struct {
	Result  string                `json:"result"`
	Message *string               `json:"message,omitempty"`
	Data    []TautulliHomeStatRow `json:"data"`
}

type TautulliHomeStatRow struct {
	StatID string                   `json:"stat_id"` // "popular_movies", "popular_tv", "top_users", ...
	Rows   []TautulliHomeStatDetail `json:"rows"`
}

type TautulliHomeStatDetail struct {
	Title        string         `json:"title,omitempty"`
	RatingKey    FlexibleString `json:"rating_key,omitempty"`
	UsersWatched int            `json:"users_watched,omitempty"`
	TotalPlays   int            `json:"total_plays,omitempty"`
	MediaType    string         `json:"media_type,omitempty"`
	Year         int            `json:"year,omitempty"`
	SectionID    int            `json:"section_id,omitempty"`
}

// TrendingItem is one title popular on the server over the stats window.
type TrendingItem struct {
	RatingKey string
	Title     string
	Year      int
	MediaType models.MediaType
}

// GetHomeStats retrieves home page statistics
func (c *TautulliClient) GetHomeStats(ctx context.Context, timeRange int, statID string, statsCount int) (*TautulliHomeStats, error) {
	req := newAPIRequest("get_home_stats").
		addIntParam("time_range", timeRange).
		addParam("stat_id", statID).
		addIntParam("stats_count", statsCount)

	return executeAPIRequest(ctx, c, req,
		func(r *TautulliHomeStats) string { return r.Response.Result },
		func(r *TautulliHomeStats) *string { return r.Response.Message },
	)
}

// trendingStatID is the home stat holding the most watched titles of a type.
func trendingStatID(mt models.MediaType) string {
	if mt == models.MediaTypeShow {
		return "popular_tv"
	}
	return "popular_movies"
}

// Trending returns up to limit popular titles of mt over the last days days.
// days is clamped to 1..365.
func (c *TautulliClient) Trending(ctx context.Context, mt models.MediaType, days, limit int) ([]TrendingItem, error) {
	days = min(max(days, 1), 365)
	statID := trendingStatID(mt)

	stats, err := c.GetHomeStats(ctx, days, statID, limit)
	if err != nil {
		return nil, err
	}
	return extractTrending(stats, statID, mt, limit), nil
}

// extractTrending picks the rows of statID out of a home stats response.
func extractTrending(stats *TautulliHomeStats, statID string, mt models.MediaType, limit int) []TrendingItem {
	var items []TrendingItem
	for _, block := range stats.Response.Data {
		if block.StatID != statID {
			continue
		}
		for _, row := range block.Rows {
			if row.RatingKey == "" {
				continue
			}
			items = append(items, TrendingItem{
				RatingKey: string(row.RatingKey),
				Title:     row.Title,
				Year:      row.Year,
				MediaType: mt,
			})
			if len(items) == limit {
				return items
			}
		}
		break
	}
	return items
}
