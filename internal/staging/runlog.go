package staging

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunRecord is one etl_runs row: the status of a named process step within
// a run, consumed by the monitoring endpoint.
type RunRecord struct {
	RunID      string     `json:"run_id"`
	Process    string     `json:"process"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Rows       int        `json:"rows_processed"`
}

// AppendRunRecord persists one run-log record. Logging failures must not
// abort a run; callers log and continue.
func (s *Store) AppendRunRecord(ctx context.Context, rec RunRecord) error {
	var finished sql.NullTime
	if rec.FinishedAt != nil {
		finished = sql.NullTime{Time: *rec.FinishedAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.bind(
		`INSERT INTO etl_runs (run_id, process, status, started_at, finished_at, error, rows_processed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		rec.RunID, rec.Process, rec.Status, rec.StartedAt.UTC(), finished, rec.Error, rec.Rows)
	if err != nil {
		return fmt.Errorf("append run record: %w", err)
	}
	return nil
}

// ListRunRecords returns the most recent run-log records, newest first.
func (s *Store) ListRunRecords(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, s.bind(
		`SELECT run_id, process, status, started_at, finished_at, error, rows_processed
		 FROM etl_runs ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var finished sql.NullTime
		if err := rows.Scan(&rec.RunID, &rec.Process, &rec.Status, &rec.StartedAt, &finished, &rec.Error, &rec.Rows); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			rec.FinishedAt = &t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	return out, nil
}
