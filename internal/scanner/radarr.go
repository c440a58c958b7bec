// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package scanner

import (
	"context"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/config"
	"github.com/tomtom215/smartdiscovery/internal/models"
	"github.com/tomtom215/smartdiscovery/internal/titles"
)

// radarrMovie is the subset of GET /api/v3/movie used for ownership.
type radarrMovie struct {
	Title     string `json:"title"`
	Year      int    `json:"year"`
	TMDBID    int    `json:"tmdbId"`
	Monitored bool   `json:"monitored"`
	HasFile   bool   `json:"hasFile"`
}

// RadarrClient lists the movies Radarr manages.
type RadarrClient struct {
	arrClient
	now func() time.Time
}

// NewRadarrClient creates a Radarr client.
func NewRadarrClient(cfg *config.ArrConfig) *RadarrClient {
	return &RadarrClient{arrClient: newArrClient(models.SourceRadarr, cfg), now: time.Now}
}

// List returns every movie with a TMDB id.
//
// Endpoint: GET /api/v3/movie
func (c *RadarrClient) List(ctx context.Context) ([]models.ScannerItem, error) {
	var movies []radarrMovie
	if err := c.getJSON(ctx, "/api/v3/movie", &movies); err != nil {
		return nil, err
	}

	scannedAt := c.now().UTC()
	items := make([]models.ScannerItem, 0, len(movies))
	for _, m := range movies {
		if m.TMDBID <= 0 {
			continue
		}
		items = append(items, models.ScannerItem{
			Source:          models.SourceRadarr,
			CatalogID:       m.TMDBID,
			MediaType:       models.MediaTypeMovie,
			Title:           m.Title,
			NormalizedTitle: titles.Normalize(m.Title),
			Year:            m.Year,
			Monitored:       m.Monitored,
			HasFile:         m.HasFile,
			ScannedAt:       scannedAt,
		})
	}
	return items, nil
}
