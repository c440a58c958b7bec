// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package recommend

import (
	"math/rand"
	"sort"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

// rank orders items by descending score. Items with equal scores end up
// in an order fixed by shuffleSeed: the list is shuffled first and the
// stable sort keeps that order within each tie.
func rank(items []models.CandidateItem, shuffleSeed int64) []models.CandidateItem {
	out := make([]models.CandidateItem, len(items))
	copy(out, items)

	// Shuffle from a canonical order so the result depends only on the
	// set of items and the seed, not on fetch order.
	sort.Slice(out, func(i, j int) bool { return out[i].CatalogID < out[j].CatalogID })
	rng := rand.New(rand.NewSource(shuffleSeed)) //nolint:gosec // ordering, not security
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score() > out[j].Score() })
	return out
}
