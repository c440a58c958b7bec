// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

/*
plex_library.go - Plex Library Content Methods

The alias index walks every movie and show section to map native rating
keys to catalog ids, so this file reads sections, their contents (with
external GUIDs) and single item metadata.

API Methods:
  - GetLibrarySections(): List all library sections
  - GetLibrarySectionContent(): Paginated content listing with GUIDs
  - GetAllSectionContent(): Every item of a section, page by page
  - GetMetadata(): Detailed item metadata by rating key

Pagination:
Library content endpoints support pagination via:
  - X-Plex-Container-Start: Starting index
  - X-Plex-Container-Size: Items per page
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

// librarySectionPageSize is the page size used when walking a whole section.
const librarySectionPageSize = 200

// FlexibleString accepts a JSON string or number. Plex reports some ids as either.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleString(s)
		return nil
	}
	*f = FlexibleString(data)
	return nil
}

// PlexLibrarySectionsResponse represents the response from GET /library/sections
type PlexLibrarySectionsResponse struct {
	MediaContainer struct {
		Size      int                  `json:"size"`
		Directory []PlexLibrarySection `json:"Directory,omitempty"`
	} `json:"MediaContainer"`
}

// PlexLibrarySection represents a single library section (Movies, TV Shows, etc.)
type PlexLibrarySection struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"` // "movie", "show", "artist", "photo"
}

// MediaType maps the section type to a discovery media type.
// ok is false for music and photo sections.
func (s *PlexLibrarySection) MediaType() (mt models.MediaType, ok bool) {
	switch s.Type {
	case "movie":
		return models.MediaTypeMovie, true
	case "show":
		return models.MediaTypeShow, true
	default:
		return "", false
	}
}

// PlexLibrarySectionContentResponse represents the response from GET /library/sections/{id}/all
// and GET /library/metadata/{key}
type PlexLibrarySectionContentResponse struct {
	MediaContainer struct {
		Size      int                   `json:"size"`
		TotalSize int                   `json:"totalSize,omitempty"`
		Offset    int                   `json:"offset,omitempty"`
		Metadata  []PlexLibraryMetadata `json:"Metadata,omitempty"`
	} `json:"MediaContainer"`
}

// PlexGuid is one external identifier, e.g. "imdb://tt0133093" or "tmdb://603".
type PlexGuid struct {
	ID string `json:"id"`
}

// PlexTag is a tag entry such as a genre.
type PlexTag struct {
	Tag string `json:"tag"`
}

// PlexLibraryMetadata represents a media item in a library section
type PlexLibraryMetadata struct {
	RatingKey        string         `json:"ratingKey"`
	Key              string         `json:"key"`
	GUID             string         `json:"guid,omitempty"` // Primary agent GUID
	Type             string         `json:"type"`
	Title            string         `json:"title"`
	OriginalTitle    string         `json:"originalTitle,omitempty"`
	Year             int            `json:"year,omitempty"`
	AddedAt          int64          `json:"addedAt,omitempty"`
	UpdatedAt        int64          `json:"updatedAt,omitempty"`
	LibrarySectionID FlexibleString `json:"librarySectionID,omitempty"`
	Guids            []PlexGuid     `json:"Guid,omitempty"` // External ids (requires includeGuids=1)
	Genre            []PlexTag      `json:"Genre,omitempty"`
}

// GUIDs returns every external identifier of the item, the agent GUID first.
func (m *PlexLibraryMetadata) GUIDs() []string {
	out := make([]string, 0, len(m.Guids)+1)
	if m.GUID != "" {
		out = append(out, m.GUID)
	}
	for _, g := range m.Guids {
		if g.ID != "" {
			out = append(out, g.ID)
		}
	}
	return out
}

// GenreNames returns the item's genre tags.
func (m *PlexLibraryMetadata) GenreNames() []string {
	out := make([]string, 0, len(m.Genre))
	for _, g := range m.Genre {
		out = append(out, g.Tag)
	}
	return out
}

// Changed returns the item's last modification time, falling back to when it was added.
func (m *PlexLibraryMetadata) Changed() time.Time {
	ts := m.UpdatedAt
	if ts == 0 {
		ts = m.AddedAt
	}
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// GetLibrarySections retrieves all library sections from Plex Media Server
//
// Endpoint: GET /library/sections
func (c *PlexClient) GetLibrarySections(ctx context.Context) ([]PlexLibrarySection, error) {
	var sectionsResp PlexLibrarySectionsResponse
	if err := c.doJSONRequest(ctx, "/library/sections", &sectionsResp); err != nil {
		return nil, err
	}
	return sectionsResp.MediaContainer.Directory, nil
}

// GetLibrarySectionContent retrieves one page of a library section with external GUIDs
//
// Endpoint: GET /library/sections/{sectionKey}/all?includeGuids=1
func (c *PlexClient) GetLibrarySectionContent(ctx context.Context, sectionKey string, start, size int) (*PlexLibrarySectionContentResponse, error) {
	query := url.Values{}
	query.Set("includeGuids", "1")
	query.Set("X-Plex-Container-Start", strconv.Itoa(start))
	query.Set("X-Plex-Container-Size", strconv.Itoa(size))

	var contentResp PlexLibrarySectionContentResponse
	if err := c.doJSONRequestWithQuery(ctx, "/library/sections/"+sectionKey+"/all", query, &contentResp); err != nil {
		return nil, err
	}
	return &contentResp, nil
}

// GetAllSectionContent walks a section page by page and returns every item.
func (c *PlexClient) GetAllSectionContent(ctx context.Context, sectionKey string) ([]PlexLibraryMetadata, error) {
	var items []PlexLibraryMetadata
	for start := 0; ; start += librarySectionPageSize {
		page, err := c.GetLibrarySectionContent(ctx, sectionKey, start, librarySectionPageSize)
		if err != nil {
			return nil, fmt.Errorf("section %s at %d: %w", sectionKey, start, err)
		}
		items = append(items, page.MediaContainer.Metadata...)

		got := len(page.MediaContainer.Metadata)
		total := page.MediaContainer.TotalSize
		if got < librarySectionPageSize || (total > 0 && start+got >= total) {
			return items, nil
		}
	}
}

// GetMetadata retrieves detailed metadata for a single item, GUIDs included.
//
// Endpoint: GET /library/metadata/{ratingKey}
func (c *PlexClient) GetMetadata(ctx context.Context, ratingKey string) (*PlexLibraryMetadata, error) {
	query := url.Values{"includeGuids": {"1"}}

	var resp PlexLibrarySectionContentResponse
	if err := c.doJSONRequestWithQuery(ctx, "/library/metadata/"+ratingKey, query, &resp); err != nil {
		return nil, err
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return nil, fmt.Errorf("plex metadata %s: not found", ratingKey)
	}
	return &resp.MediaContainer.Metadata[0], nil
}
