package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pdfsummarizer/internal/domain"
)

const defaultRecentLimit = 10

func (d *Database) RecordAttempt(ctx context.Context, a domain.Attempt) error {
	if strings.TrimSpace(a.SessionID) == "" {
		return errors.New("session ID is empty")
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	query := `insert into attempts
		(session_id, file_name, page_count, text_chars, outcome, error_kind, duration_ms, created_at)
		values (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query,
		a.SessionID,
		strings.TrimSpace(a.FileName),
		a.PageCount,
		a.TextChars,
		string(a.Outcome),
		string(a.ErrorKind),
		a.Duration.Milliseconds(),
		a.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	return nil
}

// RecentAttempts returns the newest attempts of one session first.
func (d *Database) RecentAttempts(ctx context.Context, sessionID string, limit int) ([]domain.Attempt, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	query := `select session_id, file_name, page_count, text_chars, outcome, error_kind, duration_ms, created_at
		from attempts
		where session_id = ?
		order by created_at desc, id desc
		limit ?`

	rows, err := d.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "RecentAttempts")
		}
	}()

	var attempts []domain.Attempt
	for rows.Next() {
		var (
			a          domain.Attempt
			outcome    string
			errorKind  string
			durationMs int64
			createdAt  int64
		)

		if err = rows.Scan(
			&a.SessionID,
			&a.FileName,
			&a.PageCount,
			&a.TextChars,
			&outcome,
			&errorKind,
			&durationMs,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		a.Outcome = domain.Outcome(outcome)
		a.ErrorKind = domain.ErrorKind(errorKind)
		a.Duration = time.Duration(durationMs) * time.Millisecond
		a.CreatedAt = time.UnixMilli(createdAt).UTC()

		attempts = append(attempts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return attempts, nil
}

// PruneAttempts deletes attempts created before the cutoff.
func (d *Database) PruneAttempts(ctx context.Context, before time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, "delete from attempts where created_at < ?", before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete attempts: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return n, nil
}
