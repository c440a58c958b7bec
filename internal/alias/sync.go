// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package alias

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/models"
)

// SyncResult summarizes one Sync run.
type SyncResult struct {
	Sections   int `json:"sections"`   // Library sections walked
	Seen       int `json:"seen"`       // Items listed
	Unchanged  int `json:"unchanged"`  // Items whose stored record was reused
	Resolved   int `json:"resolved"`   // Items resolved to a catalog id this run
	Unresolved int `json:"unresolved"` // Items stored as misses this run
	Deferred   int `json:"deferred"`   // Items left for the next run
	Failed     int `json:"failed"`     // Items whose resolution errored
	Deleted    int `json:"deleted"`    // Records removed for items gone from the library
}

// Sync walks the movie and show libraries and brings the stored records up
// to date. It returns models.ErrScanInProgress if another Sync is running.
//
// Records are only deleted for a media type when every section of that type
// was listed successfully, so a transient failure never wipes the index.
func (idx *Index) Sync(ctx context.Context) (*SyncResult, error) {
	if !idx.syncMu.TryLock() {
		return nil, models.ErrScanInProgress
	}
	defer idx.syncMu.Unlock()

	sections, err := idx.library.GetLibrarySections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list library sections: %w", err)
	}

	res := &SyncResult{}
	stored := make(map[models.MediaType]map[string]*models.AliasRecord, 2)
	seen := make(map[models.MediaType]map[string]struct{}, 2)
	complete := make(map[models.MediaType]bool, 2)
	for _, mt := range []models.MediaType{models.MediaTypeMovie, models.MediaTypeShow} {
		records, err := idx.store.ListAliases(ctx, mt)
		if err != nil {
			return nil, fmt.Errorf("list %s aliases: %w", mt, err)
		}
		byID := make(map[string]*models.AliasRecord, len(records))
		for i := range records {
			byID[records[i].NativeID] = &records[i]
		}
		stored[mt] = byID
		seen[mt] = make(map[string]struct{})
		complete[mt] = true
	}

	budget := idx.maxPerRun
	var halted error
	for i := range sections {
		section := &sections[i]
		mt, ok := section.MediaType()
		if !ok {
			continue
		}
		if _, skip := idx.ignored[section.Key]; skip {
			continue
		}

		items, err := idx.library.GetAllSectionContent(ctx, section.Key)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			complete[mt] = false
			logging.Warn().Err(err).Str("section", section.Title).Msg("Failed to list library section")
			continue
		}
		res.Sections++

		for j := range items {
			item := ItemFromMetadata(&items[j], mt)
			if item.NativeID == "" {
				continue
			}
			res.Seen++
			seen[mt][item.NativeID] = struct{}{}

			if rec, ok := stored[mt][item.NativeID]; ok && idx.fresh(rec, &item) {
				res.Unchanged++
				continue
			}
			if budget == 0 || halted != nil {
				res.Deferred++
				continue
			}
			budget--

			rec, err := idx.Resolve(ctx, item, true)
			switch {
			case err == nil && rec.Resolved():
				res.Resolved++
			case err == nil:
				res.Unresolved++
			case ctx.Err() != nil:
				return res, ctx.Err()
			case errors.Is(err, models.ErrUpstreamRateLimited), errors.Is(err, models.ErrUpstreamUnavailable):
				// Stop resolving; the walk continues so removals are still applied
				halted = err
				res.Failed++
			default:
				res.Failed++
				logging.Warn().Err(err).Str("rating_key", item.NativeID).Msg("Alias resolution failed")
			}
		}
	}

	for mt, byID := range stored {
		if !complete[mt] {
			continue
		}
		var gone []string
		for id := range byID {
			if _, ok := seen[mt][id]; !ok {
				gone = append(gone, id)
			}
		}
		n, err := idx.store.DeleteAliases(ctx, mt, gone)
		if err != nil {
			return res, fmt.Errorf("delete removed %s aliases: %w", mt, err)
		}
		res.Deleted += int(n)
	}

	if halted != nil {
		logging.Warn().Err(halted).Int("deferred", res.Deferred).Msg("Alias sync stopped resolving early")
	}
	logging.Info().
		Int("sections", res.Sections).
		Int("seen", res.Seen).
		Int("resolved", res.Resolved).
		Int("unresolved", res.Unresolved).
		Int("deferred", res.Deferred).
		Int("deleted", res.Deleted).
		Msg("Alias sync complete")
	return res, nil
}
