package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazyhaar/vigil/internal/dbopen"
)

// InsertReport records a published report.
func (s *Store) InsertReport(ctx context.Context, rec *ReportRecord) error {
	_, err := dbopen.Exec(ctx, s.DB,
		`INSERT INTO report_history (id, sequence, summary, cycle_count,
		window_start, window_end, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Sequence, rec.Summary, rec.CycleCount,
		rec.WindowStart, rec.WindowEnd, rec.GeneratedAt,
	)
	return err
}

// RecentReports returns report records, newest first.
func (s *Store) RecentReports(ctx context.Context, limit int) ([]*ReportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, sequence, summary, cycle_count, window_start, window_end, generated_at
		FROM report_history ORDER BY generated_at DESC, sequence DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReports(rows)
}

// ReportsSince returns report records generated at or after the given time
// (epoch ms), oldest first. Used to rebuild the readable daily artifact.
func (s *Store) ReportsSince(ctx context.Context, sinceMs int64) ([]*ReportRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, sequence, summary, cycle_count, window_start, window_end, generated_at
		FROM report_history WHERE generated_at >= ?
		ORDER BY generated_at ASC, sequence ASC`, sinceMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReports(rows)
}

func scanReports(rows *sql.Rows) ([]*ReportRecord, error) {
	var result []*ReportRecord
	for rows.Next() {
		var r ReportRecord
		if err := rows.Scan(&r.ID, &r.Sequence, &r.Summary, &r.CycleCount,
			&r.WindowStart, &r.WindowEnd, &r.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan report history: %w", err)
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}
