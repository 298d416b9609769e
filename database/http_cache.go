package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type CacheEntryRow struct {
	URL      string
	Body     []byte
	StoredAt time.Time
}

type CacheStats struct {
	Entries int
	Bytes   int64
}

func (d *Database) GetCacheEntry(ctx context.Context, url string) (CacheEntryRow, error) {
	r := CacheEntryRow{URL: url}
	var storedAt int64
	err := d.read.QueryRowContext(ctx, `
		SELECT body, stored_at FROM http_cache WHERE url = ?`, url).Scan(&r.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CacheEntryRow{}, ErrNotFound
	}
	if err != nil {
		return CacheEntryRow{}, fmt.Errorf("fetching cache entry: %w", err)
	}
	r.StoredAt = time.UnixMilli(storedAt).UTC()
	return r, nil
}

func (d *Database) SaveCacheEntry(ctx context.Context, r CacheEntryRow) error {
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO http_cache (url, body, stored_at)
		VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			body = excluded.body,
			stored_at = excluded.stored_at`,
		r.URL, r.Body, r.StoredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

func (d *Database) DeleteCacheEntry(ctx context.Context, url string) error {
	_, err := d.write.ExecContext(ctx, `DELETE FROM http_cache WHERE url = ?`, url)
	if err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// PurgeCacheEntries deletes entries stored at or before the given time.
func (d *Database) PurgeCacheEntries(ctx context.Context, before time.Time) (int64, error) {
	d.logger.Debug("purging http_cache", slog.Time("before", before))
	res, err := d.write.ExecContext(ctx, `DELETE FROM http_cache WHERE stored_at <= ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("error when purging http_cache: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		d.logger.Warn("can't get rows affected by purge", slog.String("table", "http_cache"), slog.Any("error", err))
		return 0, nil
	}
	d.logger.Debug(fmt.Sprintf("purged %d rows from http_cache", rows))
	return rows, nil
}

func (d *Database) CacheStats(ctx context.Context) (CacheStats, error) {
	var s CacheStats
	err := d.read.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(body)), 0) FROM http_cache`).Scan(&s.Entries, &s.Bytes)
	if err != nil {
		return CacheStats{}, fmt.Errorf("fetching cache stats: %w", err)
	}
	return s, nil
}
