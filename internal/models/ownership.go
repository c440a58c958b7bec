// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package models

import "time"

// ResolutionMethod records which step of the alias chain produced a match.
type ResolutionMethod string

const (
	MethodDirectGUID      ResolutionMethod = "direct_guid"
	MethodIMDbGUID        ResolutionMethod = "imdb_guid"
	MethodTVDBGUID        ResolutionMethod = "tvdb_guid"
	MethodTitleYearSearch ResolutionMethod = "title_year_search"
	MethodUnresolved      ResolutionMethod = "unresolved"
)

// AliasRecord maps a library item to its catalog id. Unique on
// (NativeID, MediaType). CatalogID 0 with MethodUnresolved is a stored
// miss: it is kept so the item is not re-resolved on every sync, and it
// never contributes to an OwnedSet.
type AliasRecord struct {
	NativeID        string           `json:"native_id"`
	NativeTitle     string           `json:"native_title"`
	NormalizedTitle string           `json:"normalized_title"`
	MediaType       MediaType        `json:"media_type"`
	Year            int              `json:"year,omitempty"`
	Genres          []string         `json:"genres,omitempty"`
	CatalogID       int              `json:"catalog_id"`
	Method          ResolutionMethod `json:"resolution_method"`
	SourceUpdatedAt time.Time        `json:"source_updated_at"`
	ResolvedAt      time.Time        `json:"resolved_at"`
}

// Resolved reports whether the record carries a catalog id.
func (a *AliasRecord) Resolved() bool {
	return a.CatalogID > 0
}

// ScannerSource names an adjacent catalog.
type ScannerSource string

const (
	SourceRadarr ScannerSource = "radarr"
	SourceSonarr ScannerSource = "sonarr"
)

// ScannerItem is one title reported by an adjacent catalog. Only items
// with HasFile count as owned: a monitored entry with no file on disk is
// a wanted title, not an owned one.
type ScannerItem struct {
	Source          ScannerSource `json:"source"`
	CatalogID       int           `json:"catalog_id"`
	MediaType       MediaType     `json:"media_type"`
	Title           string        `json:"title"`
	NormalizedTitle string        `json:"normalized_title"`
	Year            int           `json:"year,omitempty"`
	Monitored       bool          `json:"monitored"`
	HasFile         bool          `json:"has_file"`
	ScannedAt       time.Time     `json:"scanned_at"`
}

// BlocklistEntry permanently excludes a title from discovery.
type BlocklistEntry struct {
	CatalogID int       `json:"catalog_id" validate:"required,gt=0"`
	MediaType MediaType `json:"media_type" validate:"required,mediatype"`
	Title     string    `json:"title,omitempty" validate:"max=512"`
	AddedBy   string    `json:"added_by"`
	AddedAt   time.Time `json:"added_at"`
}

// Key returns the entry's title key.
func (b *BlocklistEntry) Key() TitleKey {
	return TitleKey{CatalogID: b.CatalogID, MediaType: b.MediaType}
}

// OwnedSet is the per-request union of every ownership source. Titles are
// matched by catalog id first, then by normalized title within the same
// media type.
type OwnedSet struct {
	ids    map[TitleKey]struct{}
	titles map[MediaType]map[string]struct{}
}

// NewOwnedSet returns an empty set.
func NewOwnedSet() *OwnedSet {
	return &OwnedSet{
		ids:    make(map[TitleKey]struct{}),
		titles: make(map[MediaType]map[string]struct{}),
	}
}

// AddID marks a catalog id as owned. Non-positive ids are ignored.
func (o *OwnedSet) AddID(key TitleKey) {
	if key.CatalogID <= 0 {
		return
	}
	o.ids[key] = struct{}{}
}

// AddTitle marks a normalized title as owned.
func (o *OwnedSet) AddTitle(mt MediaType, normalized string) {
	if normalized == "" {
		return
	}
	m, ok := o.titles[mt]
	if !ok {
		m = make(map[string]struct{})
		o.titles[mt] = m
	}
	m[normalized] = struct{}{}
}

// ContainsID reports whether key is owned by id.
func (o *OwnedSet) ContainsID(key TitleKey) bool {
	_, ok := o.ids[key]
	return ok
}

// Owns reports whether the title is owned by id or by normalized title.
func (o *OwnedSet) Owns(key TitleKey, normalized string) bool {
	if o.ContainsID(key) {
		return true
	}
	if normalized == "" {
		return false
	}
	_, ok := o.titles[key.MediaType][normalized]
	return ok
}

// Len is the number of owned ids.
func (o *OwnedSet) Len() int {
	return len(o.ids)
}
