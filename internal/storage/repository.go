package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/must-gpa/chartlet/internal/config"
)

const insertLookup = `
	INSERT INTO lookups (roll_number, kind, outcome, client_ip, request_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
`

// RecordLookup appends one history row.
func (db *DB) RecordLookup(ctx context.Context, rec LookupRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, insertLookup,
		rec.RollNumber, string(rec.Kind), rec.Outcome,
		nullString(rec.ClientIP), nullString(rec.RequestID), rec.CreatedAt.Unix())
	if err != nil {
		slog.ErrorContext(ctx, "failed to record lookup",
			"roll_number", rec.RollNumber,
			"error", err)
		return fmt.Errorf("failed to record lookup: %w", err)
	}

	if duration := time.Since(start); duration > config.DatabaseSlowQuery {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "RecordLookup",
			"duration_ms", duration.Milliseconds())
	}
	return nil
}

// RecordLookups appends many rows in one transaction. Range requests use
// this so a class of a hundred rolls costs one commit.
func (db *DB) RecordLookups(ctx context.Context, recs []LookupRecord) error {
	if len(recs) == 0 {
		return nil
	}

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertLookup)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for _, rec := range recs {
		created := rec.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := stmt.ExecContext(ctx,
			rec.RollNumber, string(rec.Kind), rec.Outcome,
			nullString(rec.ClientIP), nullString(rec.RequestID), created.Unix()); err != nil {
			return fmt.Errorf("failed to record lookup %s: %w", rec.RollNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	duration := time.Since(start)
	slog.DebugContext(ctx, "batch operation completed",
		"operation", "RecordLookups",
		"count", len(recs),
		"duration_ms", duration.Milliseconds())
	return nil
}

// RecentLookups returns the newest history rows for one roll number.
func (db *DB) RecentLookups(ctx context.Context, rollNumber string, limit int) ([]LookupRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, roll_number, kind, outcome, client_ip, request_id, created_at
		FROM lookups
		WHERE roll_number = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := db.conn.QueryContext(ctx, query, rollNumber, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query lookups",
			"roll_number", rollNumber,
			"error", err)
		return nil, fmt.Errorf("query lookups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []LookupRecord
	for rows.Next() {
		var (
			rec       LookupRecord
			kind      string
			clientIP  sql.NullString
			requestID sql.NullString
			created   int64
		)
		if err := rows.Scan(&rec.ID, &rec.RollNumber, &kind, &rec.Outcome, &clientIP, &requestID, &created); err != nil {
			return nil, fmt.Errorf("scan lookup: %w", err)
		}
		rec.Kind = LookupKind(kind)
		rec.ClientIP = clientIP.String
		rec.RequestID = requestID.String
		rec.CreatedAt = time.Unix(created, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Stats counts history rows per kind and outcome since the given time.
func (db *DB) Stats(ctx context.Context, since time.Time) ([]OutcomeCount, error) {
	query := `
		SELECT kind, outcome, COUNT(*)
		FROM lookups
		WHERE created_at >= ?
		GROUP BY kind, outcome
		ORDER BY kind, outcome
	`
	rows, err := db.conn.QueryContext(ctx, query, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []OutcomeCount
	for rows.Next() {
		var (
			c    OutcomeCount
			kind string
		)
		if err := rows.Scan(&kind, &c.Outcome, &c.Count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		c.Kind = LookupKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteLookupsBefore removes history rows older than cutoff and returns
// how many were deleted.
func (db *DB) DeleteLookupsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM lookups WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete lookups: %w", err)
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
