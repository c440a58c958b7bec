// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

func scannerItem(source models.ScannerSource, id int, mt models.MediaType, hasFile bool) models.ScannerItem {
	return models.ScannerItem{
		Source:          source,
		CatalogID:       id,
		MediaType:       mt,
		Title:           "Title",
		NormalizedTitle: "title",
		Year:            2020,
		Monitored:       true,
		HasFile:         hasFile,
	}
}

func TestReplaceScannerItems(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := []models.ScannerItem{
		scannerItem(models.SourceRadarr, 1, models.MediaTypeMovie, true),
		scannerItem(models.SourceRadarr, 2, models.MediaTypeMovie, false),
	}
	if err := db.ReplaceScannerItems(ctx, models.SourceRadarr, first); err != nil {
		t.Fatalf("ReplaceScannerItems() error = %v", err)
	}
	if err := db.ReplaceScannerItems(ctx, models.SourceSonarr, []models.ScannerItem{
		scannerItem(models.SourceSonarr, 1, models.MediaTypeShow, true),
	}); err != nil {
		t.Fatalf("ReplaceScannerItems(sonarr) error = %v", err)
	}

	all, err := db.ScannerItems(ctx, models.MediaTypeMovie, false)
	if err != nil {
		t.Fatalf("ScannerItems() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("movie items = %d, want 2", len(all))
	}
	owned, err := db.ScannerItems(ctx, models.MediaTypeMovie, true)
	if err != nil {
		t.Fatalf("ScannerItems(owned) error = %v", err)
	}
	if len(owned) != 1 || owned[0].CatalogID != 1 {
		t.Errorf("owned movies = %+v", owned)
	}
	if owned[0].ScannedAt.IsZero() {
		t.Error("ScannedAt should default to now")
	}

	// A new snapshot replaces the old one for that source only
	second := []models.ScannerItem{
		scannerItem(models.SourceRadarr, 1, models.MediaTypeMovie, false),
		scannerItem(models.SourceRadarr, 3, models.MediaTypeMovie, true),
	}
	if err := db.ReplaceScannerItems(ctx, models.SourceRadarr, second); err != nil {
		t.Fatalf("ReplaceScannerItems() second error = %v", err)
	}
	movies, _ := db.ScannerItems(ctx, models.MediaTypeMovie, true)
	if len(movies) != 1 || movies[0].CatalogID != 3 {
		t.Errorf("owned movies after replace = %+v", movies)
	}
	shows, _ := db.ScannerItems(ctx, models.MediaTypeShow, true)
	if len(shows) != 1 {
		t.Errorf("sonarr snapshot touched: %+v", shows)
	}

	if err := db.ReplaceScannerItems(ctx, models.SourceRadarr, nil); err != nil {
		t.Fatalf("ReplaceScannerItems(nil) error = %v", err)
	}
	movies, _ = db.ScannerItems(ctx, models.MediaTypeMovie, false)
	if len(movies) != 0 {
		t.Errorf("empty snapshot left %d items", len(movies))
	}
}

func TestScanLeases(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	fixedClock(db, now)

	if err := db.AcquireLease(ctx, models.SourceRadarr, "node-a", 10*time.Minute); err != nil {
		t.Fatalf("AcquireLease() error = %v", err)
	}
	err := db.AcquireLease(ctx, models.SourceRadarr, "node-b", 10*time.Minute)
	if !errors.Is(err, models.ErrScanInProgress) {
		t.Fatalf("second AcquireLease() error = %v, want ErrScanInProgress", err)
	}
	if err := db.AcquireLease(ctx, models.SourceSonarr, "node-b", 10*time.Minute); err != nil {
		t.Fatalf("other source lease error = %v", err)
	}

	// Only the holder releases
	if err := db.ReleaseLease(ctx, models.SourceRadarr, "node-b"); err != nil {
		t.Fatalf("ReleaseLease() error = %v", err)
	}
	if err := db.AcquireLease(ctx, models.SourceRadarr, "node-c", 10*time.Minute); !errors.Is(err, models.ErrScanInProgress) {
		t.Errorf("lease released by non-holder: %v", err)
	}

	// An abandoned lease is taken over
	fixedClock(db, now.Add(11*time.Minute))
	if err := db.AcquireLease(ctx, models.SourceRadarr, "node-c", 10*time.Minute); err != nil {
		t.Errorf("AcquireLease() over stale lease error = %v", err)
	}
	if err := db.ReleaseLease(ctx, models.SourceRadarr, "node-c"); err != nil {
		t.Fatalf("ReleaseLease() error = %v", err)
	}
	if err := db.AcquireLease(ctx, models.SourceRadarr, "node-a", 10*time.Minute); err != nil {
		t.Errorf("AcquireLease() after release error = %v", err)
	}
}

func TestClearStaleLeases(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	fixedClock(db, now)
	if err := db.AcquireLease(ctx, models.SourceRadarr, "a", time.Hour); err != nil {
		t.Fatalf("AcquireLease() error = %v", err)
	}
	fixedClock(db, now.Add(30*time.Minute))
	if err := db.AcquireLease(ctx, models.SourceSonarr, "a", time.Hour); err != nil {
		t.Fatalf("AcquireLease() error = %v", err)
	}

	n, err := db.ClearStaleLeases(ctx, 20*time.Minute)
	if err != nil {
		t.Fatalf("ClearStaleLeases() error = %v", err)
	}
	if n != 1 {
		t.Errorf("cleared = %d, want 1", n)
	}

	n, err = db.ClearStaleLeases(ctx, 0)
	if err != nil {
		t.Fatalf("ClearStaleLeases(0) error = %v", err)
	}
	if n != 1 {
		t.Errorf("cleared on startup = %d, want 1", n)
	}
}
