package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type LogEntryRow struct {
	Timestamp time.Time
	Level     int
	Message   string
	Attrs     string
	RequestID string // Empty for records logged outside a request
}

func (r LogEntryRow) LevelString() string {
	return slog.Level(r.Level).String()
}

// LogQuery selects a page of log entries, newest first.
type LogQuery struct {
	MinLevel  slog.Level
	RequestID string // Only entries of this request, when set
	Page      int    // 1-based
	PageSize  int
}

func (d *Database) SaveLogEntry(ctx context.Context, r LogEntryRow) error {
	_, err := d.write.ExecContext(ctx, `
		INSERT INTO log (timestamp, level, message, attrs, request_id)
		VALUES (?, ?, ?, ?, ?)`,
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Level,
		r.Message,
		r.Attrs,
		r.RequestID)
	if err != nil {
		return fmt.Errorf("saving log entry: %w", err)
	}
	return nil
}

func (d *Database) GetLogEntries(ctx context.Context, q LogQuery) ([]LogEntryRow, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT timestamp, level, message, attrs, request_id
		FROM log
		WHERE level >= ? AND (? = '' OR request_id = ?)
		ORDER BY id DESC
		LIMIT ? OFFSET ?`,
		int(q.MinLevel), q.RequestID, q.RequestID, q.PageSize, (q.Page-1)*q.PageSize)
	if err != nil {
		return nil, fmt.Errorf("fetching log entries: %w", err)
	}
	defer rows.Close()

	var ts string
	var entries []LogEntryRow
	for rows.Next() {
		var r LogEntryRow
		if err := rows.Scan(&ts, &r.Level, &r.Message, &r.Attrs, &r.RequestID); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		r.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		entries = append(entries, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading log rows: %w", err)
	}

	return entries, nil
}

// PurgeLog keeps the newest maxLogEntries entries.
func (d *Database) PurgeLog(ctx context.Context, maxLogEntries int) (int64, error) {
	d.logger.Debug("purging log")
	res, err := d.write.ExecContext(ctx, `
		DELETE FROM log WHERE id <= (SELECT id FROM log ORDER BY id DESC LIMIT 1 OFFSET ?)`, maxLogEntries)
	if err != nil {
		return 0, fmt.Errorf("purging log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		d.logger.Warn("can't get rows affected by purge", slog.String("table", "log"), slog.Any("error", err))
		return 0, nil
	}
	return n, nil
}
