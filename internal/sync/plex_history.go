// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package sync

import (
	"strconv"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

// ToHistoryEntry converts a Plex history row to a watch history entry.
// Episodes are reported against their show. ok is false for rows that are
// neither movies nor episodes (music, photos, clips).
func (m *PlexMetadata) ToHistoryEntry() (entry models.WatchHistoryEntry, ok bool) {
	entry = models.WatchHistoryEntry{
		UserID:    strconv.Itoa(m.AccountID),
		SectionID: string(m.LibrarySectionID),
		Year:      m.Year,
	}
	if m.ViewedAt > 0 {
		entry.WatchedAt = time.Unix(m.ViewedAt, 0).UTC()
	}

	switch m.Type {
	case "movie":
		entry.MediaType = models.MediaTypeMovie
		entry.TitleID = m.RatingKey
		entry.Title = m.Title
	case "episode":
		entry.MediaType = models.MediaTypeShow
		entry.TitleID = m.GrandparentRatingKey
		entry.Title = m.GrandparentTitle
		// The row's year is the episode's, not the show's.
		entry.Year = 0
	default:
		return entry, false
	}

	if entry.TitleID == "" || entry.Title == "" {
		return entry, false
	}
	return entry, true
}

// HistoryEntries converts rows in order, dropping unsupported ones.
func HistoryEntries(rows []PlexMetadata) []models.WatchHistoryEntry {
	out := make([]models.WatchHistoryEntry, 0, len(rows))
	for i := range rows {
		if e, ok := rows[i].ToHistoryEntry(); ok {
			out = append(out, e)
		}
	}
	return out
}
