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

// AddBlocklist blocklists a title. Adding an existing entry keeps the
// original AddedAt and AddedBy.
func (db *DB) AddBlocklist(ctx context.Context, entry *models.BlocklistEntry) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	addedAt := entry.AddedAt
	if addedAt.IsZero() {
		addedAt = db.now()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO blocklist (catalog_id, media_type, title, added_by, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (catalog_id, media_type) DO NOTHING`,
		entry.CatalogID, string(entry.MediaType), entry.Title, entry.AddedBy, addedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to add blocklist entry %s: %w", entry.Key(), err)
	}
	return nil
}

// RemoveBlocklist removes a title from the blocklist. It reports whether an
// entry existed.
func (db *DB) RemoveBlocklist(ctx context.Context, key models.TitleKey) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM blocklist WHERE catalog_id = ? AND media_type = ?`,
		key.CatalogID, string(key.MediaType))
	if err != nil {
		return false, fmt.Errorf("failed to remove blocklist entry %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ListBlocklist returns blocklist entries, newest first. An empty media
// type lists both.
func (db *DB) ListBlocklist(ctx context.Context, mt models.MediaType) ([]models.BlocklistEntry, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT catalog_id, media_type, title, added_by, added_at FROM blocklist`
	var args []any
	if mt != "" {
		query += ` WHERE media_type = ?`
		args = append(args, string(mt))
	}
	query += ` ORDER BY added_at DESC, catalog_id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocklist: %w", err)
	}
	defer rows.Close()

	var entries []models.BlocklistEntry
	for rows.Next() {
		var (
			e         models.BlocklistEntry
			mediaType string
		)
		if err := rows.Scan(&e.CatalogID, &mediaType, &e.Title, &e.AddedBy, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan blocklist entry: %w", err)
		}
		e.MediaType = models.MediaType(mediaType)
		e.AddedAt = e.AddedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blocklist: %w", err)
	}
	return entries, nil
}

// BlocklistKeys returns the blocklisted keys of a media type as a set.
func (db *DB) BlocklistKeys(ctx context.Context, mt models.MediaType) (map[models.TitleKey]struct{}, error) {
	entries, err := db.ListBlocklist(ctx, mt)
	if err != nil {
		return nil, err
	}
	keys := make(map[models.TitleKey]struct{}, len(entries))
	for i := range entries {
		keys[entries[i].Key()] = struct{}{}
	}
	return keys, nil
}
