// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package models

import "time"

// WatchHistoryEntry is one play from the media server history. Episodes are
// reported against their show: TitleID is the show's rating key.
type WatchHistoryEntry struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	TitleID   string    `json:"title_id"`
	Title     string    `json:"title"`
	MediaType MediaType `json:"media_type"`
	Year      int       `json:"year,omitempty"`
	SectionID string    `json:"section_id,omitempty"`
	WatchedAt time.Time `json:"watched_at"`
}

// Seed is a title used as the basis of a "more like this" query.
type Seed struct {
	CatalogID int       `json:"catalog_id"`
	MediaType MediaType `json:"media_type"`
	Title     string    `json:"title,omitempty"`
	Weight    float64   `json:"weight"`
	GenreIDs  []int     `json:"genre_ids,omitempty"`
}

// Key returns the seed's title key.
func (s Seed) Key() TitleKey {
	return TitleKey{CatalogID: s.CatalogID, MediaType: s.MediaType}
}
