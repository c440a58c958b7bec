// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

const aliasColumns = `native_id, media_type, native_title, normalized_title, year, genres,
	catalog_id, method, source_updated_at, resolved_at`

// UpsertAlias inserts or replaces the alias record for (NativeID, MediaType).
func (db *DB) UpsertAlias(ctx context.Context, rec *models.AliasRecord) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	genres, err := encodeGenres(rec.Genres)
	if err != nil {
		return err
	}
	resolvedAt := rec.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = db.now()
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO alias_records (`+aliasColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (native_id, media_type) DO UPDATE SET
			native_title = EXCLUDED.native_title,
			normalized_title = EXCLUDED.normalized_title,
			year = EXCLUDED.year,
			genres = EXCLUDED.genres,
			catalog_id = EXCLUDED.catalog_id,
			method = EXCLUDED.method,
			source_updated_at = EXCLUDED.source_updated_at,
			resolved_at = EXCLUDED.resolved_at`,
		rec.NativeID, string(rec.MediaType), rec.NativeTitle, rec.NormalizedTitle, rec.Year, genres,
		rec.CatalogID, string(rec.Method), nullTime(rec.SourceUpdatedAt), resolvedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert alias %s/%s: %w", rec.MediaType, rec.NativeID, err)
	}
	return nil
}

// GetAlias returns the alias record for a library item, or nil when the
// item has never been resolved.
func (db *DB) GetAlias(ctx context.Context, nativeID string, mt models.MediaType) (*models.AliasRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+aliasColumns+` FROM alias_records WHERE native_id = ? AND media_type = ?`,
		nativeID, string(mt))
	rec, err := scanAlias(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alias %s/%s: %w", mt, nativeID, err)
	}
	return rec, nil
}

// GetAliasByNativeID looks an item up by rating key alone. Rating keys are
// unique per server, so at most one media type matches.
func (db *DB) GetAliasByNativeID(ctx context.Context, nativeID string) (*models.AliasRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+aliasColumns+` FROM alias_records WHERE native_id = ? ORDER BY resolved_at DESC LIMIT 1`,
		nativeID)
	rec, err := scanAlias(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alias %s: %w", nativeID, err)
	}
	return rec, nil
}

// ListAliases returns every alias record of a media type, misses included.
func (db *DB) ListAliases(ctx context.Context, mt models.MediaType) ([]models.AliasRecord, error) {
	return db.queryAliases(ctx,
		`SELECT `+aliasColumns+` FROM alias_records WHERE media_type = ? ORDER BY native_id`, string(mt))
}

// ResolvedAliases returns the alias records of a media type that carry a
// catalog id.
func (db *DB) ResolvedAliases(ctx context.Context, mt models.MediaType) ([]models.AliasRecord, error) {
	return db.queryAliases(ctx,
		`SELECT `+aliasColumns+` FROM alias_records WHERE media_type = ? AND catalog_id > 0 ORDER BY native_id`, string(mt))
}

// DeleteAliases removes the records of items no longer in the library.
func (db *DB) DeleteAliases(ctx context.Context, mt models.MediaType, nativeIDs []string) (int64, error) {
	if len(nativeIDs) == 0 {
		return 0, nil
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM alias_records WHERE native_id = ? AND media_type = ?`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare alias delete: %w", err)
	}
	defer closeWithLog(stmt, "statement")

	var deleted int64
	for _, id := range nativeIDs {
		res, err := stmt.ExecContext(ctx, id, string(mt))
		if err != nil {
			return 0, fmt.Errorf("failed to delete alias %s/%s: %w", mt, id, err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit alias delete: %w", err)
	}
	return deleted, nil
}

// CountAliases returns resolved and total record counts for a media type.
func (db *DB) CountAliases(ctx context.Context, mt models.MediaType) (resolved, total int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE catalog_id > 0), COUNT(*)
		FROM alias_records WHERE media_type = ?`, string(mt)).Scan(&resolved, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count aliases: %w", err)
	}
	return resolved, total, nil
}

func (db *DB) queryAliases(ctx context.Context, query string, args ...any) ([]models.AliasRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	var records []models.AliasRecord
	for rows.Next() {
		rec, err := scanAlias(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aliases: %w", err)
	}
	return records, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlias(s rowScanner) (*models.AliasRecord, error) {
	var (
		rec             models.AliasRecord
		mediaType       string
		method          string
		genres          string
		sourceUpdatedAt sql.NullTime
	)
	err := s.Scan(&rec.NativeID, &mediaType, &rec.NativeTitle, &rec.NormalizedTitle, &rec.Year, &genres,
		&rec.CatalogID, &method, &sourceUpdatedAt, &rec.ResolvedAt)
	if err != nil {
		return nil, err
	}
	rec.MediaType = models.MediaType(mediaType)
	rec.Method = models.ResolutionMethod(method)
	if sourceUpdatedAt.Valid {
		rec.SourceUpdatedAt = sourceUpdatedAt.Time.UTC()
	}
	rec.ResolvedAt = rec.ResolvedAt.UTC()
	if rec.Genres, err = decodeGenres(genres); err != nil {
		return nil, err
	}
	return &rec, nil
}

func encodeGenres(genres []string) (string, error) {
	if len(genres) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(genres)
	if err != nil {
		return "", fmt.Errorf("failed to encode genres: %w", err)
	}
	return string(data), nil
}

func decodeGenres(s string) ([]string, error) {
	if s == "" || s == "[]" {
		return nil, nil
	}
	var genres []string
	if err := json.Unmarshal([]byte(s), &genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres: %w", err)
	}
	return genres, nil
}

// nullTime stores the zero time as NULL
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
