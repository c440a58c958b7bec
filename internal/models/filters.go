// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package models

import (
	"slices"
	"strings"

	"github.com/goccy/go-json"
)

// Filters are the user-selected constraints of one browsing session.
// Obscure and standard selection are mutually exclusive modes: Obscure
// true keeps only titles under the vote-count threshold, false keeps only
// titles at or above it.
type Filters struct {
	MediaType       MediaType `json:"media_type" validate:"required,mediatype"`
	Genres          []int     `json:"genres,omitempty" validate:"max=20,dive,gt=0"`
	MinYear         int       `json:"min_year,omitempty" validate:"omitempty,gte=1870,lte=2100"`
	MaxYear         int       `json:"max_year,omitempty" validate:"omitempty,gte=1870,lte=2100"`
	MinRating       float64   `json:"min_rating,omitempty" validate:"gte=0,lte=10"`
	MaxRuntime      int       `json:"max_runtime,omitempty" validate:"gte=0,lte=1000"`
	ContentRatings  []string  `json:"content_ratings,omitempty" validate:"max=20,dive,min=1,max=16"`
	Keywords        []string  `json:"keywords,omitempty" validate:"max=10,dive,min=1,max=64"`
	FutureOnly      bool      `json:"future_only,omitempty"`
	Obscure         bool      `json:"obscure,omitempty"`
	CertifiedFresh  bool      `json:"certified_fresh,omitempty"`
	CriticThreshold int       `json:"critic_threshold,omitempty" validate:"gte=0,lte=100"`
	Region          string    `json:"region,omitempty" validate:"omitempty,len=2,alpha"`
}

// Normalize sorts and trims the list fields so that two equivalent filter
// sets produce the same Fingerprint.
func (f *Filters) Normalize() {
	slices.Sort(f.Genres)
	f.Genres = slices.Compact(f.Genres)

	for i, r := range f.ContentRatings {
		f.ContentRatings[i] = strings.ToUpper(strings.TrimSpace(r))
	}
	slices.Sort(f.ContentRatings)
	f.ContentRatings = slices.Compact(f.ContentRatings)

	kept := f.Keywords[:0]
	for _, k := range f.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kept = append(kept, k)
		}
	}
	slices.Sort(kept)
	f.Keywords = slices.Compact(kept)

	f.Region = strings.ToUpper(f.Region)
}

// Fingerprint identifies the filter set. A different fingerprint means the
// user changed filters and the session must be discarded.
func (f *Filters) Fingerprint() string {
	cp := *f
	cp.Genres = slices.Clone(f.Genres)
	cp.ContentRatings = slices.Clone(f.ContentRatings)
	cp.Keywords = slices.Clone(f.Keywords)
	cp.Normalize()
	data, err := json.Marshal(cp)
	if err != nil {
		return ""
	}
	return string(data)
}
