// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package models

import "time"

// SessionState is one browsing session. ShuffleSeed is drawn once when the
// session is created and reused for every generation cycle of the session,
// so tie order never changes between pages. Cycle increases on every
// generation and lets late results from an abandoned cycle be dropped.
type SessionState struct {
	Key          string          `json:"key"`
	UserID       string          `json:"user_id"`
	Filters      Filters         `json:"filters"`
	Seeds        []Seed          `json:"seeds"`
	SeedOverride bool            `json:"seed_override,omitempty"`
	ShuffleSeed  int64           `json:"shuffle_seed"`
	Served       []TitleKey      `json:"served"`
	Remainder    []CandidateItem `json:"remainder"`
	EmptyCycles  int             `json:"empty_cycles"`
	Cycle        int64           `json:"cycle"`
	Exhausted    bool            `json:"exhausted"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ServedSet returns the served keys as a set.
func (s *SessionState) ServedSet() map[TitleKey]struct{} {
	set := make(map[TitleKey]struct{}, len(s.Served))
	for _, k := range s.Served {
		set[k] = struct{}{}
	}
	return set
}

// MarkServed appends the items to Served, skipping keys already present.
// It returns the items that were actually new.
func (s *SessionState) MarkServed(items []CandidateItem) []CandidateItem {
	seen := s.ServedSet()
	fresh := make([]CandidateItem, 0, len(items))
	for i := range items {
		k := items[i].Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		s.Served = append(s.Served, k)
		fresh = append(fresh, items[i])
	}
	return fresh
}
