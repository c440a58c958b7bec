// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package models

import (
	"fmt"
	"strings"
)

// MediaType distinguishes movies from shows.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

// ParseMediaType accepts the spellings used by Plex ("movie", "show",
// "episode"), TMDB ("tv") and the *arr apps ("series").
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return MediaTypeMovie, nil
	case "show", "shows", "tv", "series", "episode", "season":
		return MediaTypeShow, nil
	default:
		return "", fmt.Errorf("unknown media type %q", s)
	}
}

// Valid reports whether m is one of the known media types.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeShow
}

// CatalogPath is the TMDB path segment for m.
func (m MediaType) CatalogPath() string {
	if m == MediaTypeShow {
		return "tv"
	}
	return "movie"
}

// TitleKey identifies a catalog title. TMDB movie and tv ids overlap, so
// the media type is part of the key.
type TitleKey struct {
	CatalogID int
	MediaType MediaType
}

func (k TitleKey) String() string {
	return fmt.Sprintf("%s:%d", k.MediaType, k.CatalogID)
}
