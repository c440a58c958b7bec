// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package sync

import (
	"testing"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

func TestToHistoryEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		row    PlexMetadata
		wantOK bool
		want   models.WatchHistoryEntry
	}{
		{
			name: "movie",
			row: PlexMetadata{
				RatingKey: "10", Type: "movie", Title: "Heat", Year: 1995,
				ViewedAt: 1700000000, AccountID: 3, LibrarySectionID: "1",
			},
			wantOK: true,
			want: models.WatchHistoryEntry{
				UserID: "3", TitleID: "10", Title: "Heat", MediaType: models.MediaTypeMovie,
				Year: 1995, SectionID: "1", WatchedAt: time.Unix(1700000000, 0).UTC(),
			},
		},
		{
			name: "episode collapses to show",
			row: PlexMetadata{
				RatingKey: "501", GrandparentRatingKey: "500", Type: "episode",
				Title: "Pilot", GrandparentTitle: "Lost", Year: 2004, AccountID: 1, LibrarySectionID: "2",
			},
			wantOK: true,
			want: models.WatchHistoryEntry{
				UserID: "1", TitleID: "500", Title: "Lost", MediaType: models.MediaTypeShow, SectionID: "2",
			},
		},
		{
			name:   "track is skipped",
			row:    PlexMetadata{RatingKey: "9", Type: "track", Title: "Song"},
			wantOK: false,
		},
		{
			name:   "episode without show is skipped",
			row:    PlexMetadata{RatingKey: "9", Type: "episode", Title: "Orphan"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.row.ToHistoryEntry()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("entry = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHistoryEntriesKeepsOrder(t *testing.T) {
	t.Parallel()

	rows := []PlexMetadata{
		{RatingKey: "1", Type: "movie", Title: "A"},
		{RatingKey: "2", Type: "clip", Title: "B"},
		{RatingKey: "3", GrandparentRatingKey: "30", GrandparentTitle: "C", Type: "episode", Title: "e"},
	}
	got := HistoryEntries(rows)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].TitleID != "1" || got[1].TitleID != "30" {
		t.Errorf("order = %q, %q", got[0].TitleID, got[1].TitleID)
	}
}
