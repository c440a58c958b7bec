// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package models

import (
	"strings"
	"time"
)

// CandidateItem is a catalog title considered for recommendation.
type CandidateItem struct {
	CatalogID        int       `json:"catalog_id"`
	MediaType        MediaType `json:"media_type"`
	Title            string    `json:"title"`
	Year             int       `json:"year,omitempty"`
	Overview         string    `json:"overview,omitempty"`
	GenreIDs         []int     `json:"genre_ids,omitempty"`
	VoteAverage      float64   `json:"vote_average"`
	VoteCount        int       `json:"vote_count"`
	Popularity       float64   `json:"popularity,omitempty"`
	OriginalLanguage string    `json:"original_language,omitempty"`
	ReleaseDate      time.Time `json:"release_date"`
	Region           string    `json:"region,omitempty"` // Origin country when the list reports one
	ReleaseRegions   []string  `json:"release_regions,omitempty"`
	ContentRating    string    `json:"content_rating,omitempty"`
	Runtime          int       `json:"runtime,omitempty"`
	PosterPath       string    `json:"poster_path,omitempty"`
	Keywords         []string  `json:"keywords,omitempty"`
	CriticScore      *int      `json:"critic_score,omitempty"`
	CertifiedFresh   bool      `json:"certified_fresh,omitempty"`
}

// Key returns the candidate's title key.
func (c *CandidateItem) Key() TitleKey {
	return TitleKey{CatalogID: c.CatalogID, MediaType: c.MediaType}
}

// AvailableIn reports whether the title originates from, or is released
// or rated in, region. known is false when no country is on record.
func (c *CandidateItem) AvailableIn(region string) (available, known bool) {
	if c.Region == "" && len(c.ReleaseRegions) == 0 {
		return false, false
	}
	if strings.EqualFold(c.Region, region) {
		return true, true
	}
	for _, r := range c.ReleaseRegions {
		if strings.EqualFold(r, region) {
			return true, true
		}
	}
	return false, true
}

// Score is voteAverage x voteCount. A high average from a handful of votes
// ranks below a slightly lower average from thousands.
func (c *CandidateItem) Score() float64 {
	return c.VoteAverage * float64(c.VoteCount)
}
