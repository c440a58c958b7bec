// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

// ReplaceScannerItems swaps the stored snapshot of source for items in one
// transaction. Readers see either the old snapshot or the new one.
func (db *DB) ReplaceScannerItems(ctx context.Context, source models.ScannerSource, items []models.ScannerItem) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx, `DELETE FROM scanner_items WHERE source = ?`, string(source)); err != nil {
		return fmt.Errorf("failed to clear %s snapshot: %w", source, err)
	}

	if len(items) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO scanner_items (source, catalog_id, media_type, title, normalized_title, year, monitored, has_file, scanned_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (source, catalog_id, media_type) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("failed to prepare scanner insert: %w", err)
		}
		defer closeWithLog(stmt, "statement")

		now := db.now().UTC()
		for i := range items {
			it := &items[i]
			scannedAt := it.ScannedAt
			if scannedAt.IsZero() {
				scannedAt = now
			}
			if _, err := stmt.ExecContext(ctx, string(source), it.CatalogID, string(it.MediaType), it.Title,
				it.NormalizedTitle, it.Year, it.Monitored, it.HasFile, scannedAt.UTC()); err != nil {
				return fmt.Errorf("failed to insert scanner item %d: %w", it.CatalogID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s snapshot: %w", source, err)
	}
	return nil
}

// ScannerItems returns the stored scanner items of a media type across all
// sources. With ownedOnly set, only items with a file on disk are returned.
func (db *DB) ScannerItems(ctx context.Context, mt models.MediaType, ownedOnly bool) ([]models.ScannerItem, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT source, catalog_id, media_type, title, normalized_title, year, monitored, has_file, scanned_at
		FROM scanner_items WHERE media_type = ?`
	if ownedOnly {
		query += ` AND has_file`
	}
	query += ` ORDER BY source, catalog_id`

	rows, err := db.conn.QueryContext(ctx, query, string(mt))
	if err != nil {
		return nil, fmt.Errorf("failed to query scanner items: %w", err)
	}
	defer rows.Close()

	var items []models.ScannerItem
	for rows.Next() {
		var (
			it        models.ScannerItem
			source    string
			mediaType string
		)
		if err := rows.Scan(&source, &it.CatalogID, &mediaType, &it.Title, &it.NormalizedTitle, &it.Year,
			&it.Monitored, &it.HasFile, &it.ScannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scanner item: %w", err)
		}
		it.Source = models.ScannerSource(source)
		it.MediaType = models.MediaType(mediaType)
		it.ScannedAt = it.ScannedAt.UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scanner items: %w", err)
	}
	return items, nil
}
