// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package recommend

import (
	"slices"
	"strings"

	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

// Standard mode vote floors when none is configured. The higher floor
// applies once the fetched pool is large enough to afford it.
const (
	standardFloor      = 10
	standardFloorLarge = 20
	largePool          = 100
)

// filterStep keeps or drops one candidate. reason labels the drop.
type filterStep struct {
	reason string
	keep   func(*models.CandidateItem) bool
}

// filterList applies the filters that only need list data, in order.
func (g *Generator) filterList(items []models.CandidateItem, f *models.Filters, poolSize int) []models.CandidateItem {
	steps := g.listFilters(f, poolSize)
	counts := make(map[string]int)
	out := make([]models.CandidateItem, 0, len(items))
next:
	for i := range items {
		for _, s := range steps {
			if !s.keep(&items[i]) {
				counts[s.reason]++
				continue next
			}
		}
		out = append(out, items[i])
	}
	for reason, n := range counts {
		metrics.RecordFiltered(reason, n)
	}
	return out
}

func (g *Generator) listFilters(f *models.Filters, poolSize int) []filterStep {
	var steps []filterStep
	if f.MediaType != "" {
		steps = append(steps, filterStep{"media_type", func(c *models.CandidateItem) bool {
			return c.MediaType == f.MediaType
		}})
	}
	if len(f.Genres) > 0 {
		steps = append(steps, filterStep{"genre", func(c *models.CandidateItem) bool {
			return slices.ContainsFunc(c.GenreIDs, func(id int) bool { return slices.Contains(f.Genres, id) })
		}})
	}
	if f.MinYear > 0 || f.MaxYear > 0 {
		steps = append(steps, filterStep{"year", func(c *models.CandidateItem) bool {
			if c.Year == 0 {
				return false
			}
			return (f.MinYear == 0 || c.Year >= f.MinYear) && (f.MaxYear == 0 || c.Year <= f.MaxYear)
		}})
	}
	// Unreleased titles have no meaningful rating.
	if f.MinRating > 0 && !f.FutureOnly {
		steps = append(steps, filterStep{"rating", func(c *models.CandidateItem) bool {
			return c.VoteAverage >= f.MinRating
		}})
	}
	if f.FutureOnly {
		today := g.today()
		steps = append(steps, filterStep{"future", func(c *models.CandidateItem) bool {
			return !c.ReleaseDate.IsZero() && !c.ReleaseDate.Before(today)
		}})
	}
	return append(steps, g.modeFilters(f, poolSize)...)
}

// modeFilters split candidates into obscure and standard by vote count.
// Both modes use the same threshold, so outside future mode their results
// never overlap. Unreleased titles have no votes yet: in future mode
// obscure keeps every title and standard keeps only its language rule, so
// an English upcoming title can appear in both modes.
func (g *Generator) modeFilters(f *models.Filters, poolSize int) []filterStep {
	threshold := g.cfg.ObscureVoteThreshold
	if f.Obscure {
		if f.FutureOnly {
			return nil
		}
		return []filterStep{{"obscure", func(c *models.CandidateItem) bool {
			return c.VoteCount < threshold
		}}}
	}

	var steps []filterStep
	if !f.FutureOnly {
		floor := max(threshold, g.standardFloor(poolSize))
		steps = append(steps, filterStep{"votes", func(c *models.CandidateItem) bool {
			return c.VoteCount >= floor
		}})
	}
	if f.Region == "" {
		steps = append(steps, filterStep{"language", func(c *models.CandidateItem) bool {
			return c.OriginalLanguage == "en"
		}})
	}
	return steps
}

func (g *Generator) standardFloor(poolSize int) int {
	if g.cfg.StandardVoteFloor > 0 {
		return g.cfg.StandardVoteFloor
	}
	if poolSize >= largePool {
		return standardFloorLarge
	}
	return standardFloor
}

// detailReason applies the filters that need title details. It returns
// the drop reason, or "" to keep the title. The critic check is separate
// because it costs another upstream call.
func detailReason(c *models.CandidateItem, f *models.Filters) string {
	// Availability is only known once details list the release countries.
	if f.Region != "" {
		if ok, known := c.AvailableIn(f.Region); known && !ok {
			return "region"
		}
	}
	if len(f.ContentRatings) > 0 {
		rating := strings.ToUpper(c.ContentRating)
		if rating == "" {
			rating = "NR"
		}
		if !slices.Contains(f.ContentRatings, rating) {
			return "content_rating"
		}
	}
	// An unknown runtime passes.
	if f.MaxRuntime > 0 && c.Runtime > f.MaxRuntime {
		return "runtime"
	}
	if len(f.Keywords) > 0 && !matchesKeywords(c, f.Keywords) {
		return "keyword"
	}
	return ""
}

// matchesKeywords reports whether any term appears in the title or
// overview, or equals one of the title's catalog keywords.
func matchesKeywords(c *models.CandidateItem, terms []string) bool {
	text := strings.ToLower(c.Title + " " + c.Overview)
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(text, term) || slices.Contains(c.Keywords, term) {
			return true
		}
	}
	return false
}

// criticThreshold is the certified fresh cutoff for a request.
func (g *Generator) criticThreshold(f *models.Filters) int {
	if f.CriticThreshold > 0 {
		return f.CriticThreshold
	}
	return g.cfg.CriticThreshold
}
