package store

import (
	"context"
	"fmt"

	"github.com/hazyhaar/vigil/internal/dbopen"
)

// InsertCycle records a capture cycle outcome.
func (s *Store) InsertCycle(ctx context.Context, rec *CycleRecord) error {
	_, err := dbopen.Exec(ctx, s.DB,
		`INSERT INTO cycle_log (id, seq, status, chars, error, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Seq, rec.Status, rec.Chars, rec.Error, rec.DurationMs, rec.StartedAt,
	)
	return err
}

// RecentCycles returns cycle records, newest first.
func (s *Store) RecentCycles(ctx context.Context, limit int) ([]*CycleRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, seq, status, chars, error, duration_ms, started_at
		FROM cycle_log ORDER BY started_at DESC, seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*CycleRecord
	for rows.Next() {
		var r CycleRecord
		if err := rows.Scan(&r.ID, &r.Seq, &r.Status, &r.Chars, &r.Error,
			&r.DurationMs, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan cycle log: %w", err)
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}

// CycleCounts returns aggregate cycle counters grouped by status.
func (s *Store) CycleCounts(ctx context.Context) (*CycleStats, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM cycle_log GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &CycleStats{ByState: make(map[string]int64)}
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan cycle counts: %w", err)
		}
		stats.ByState[status] = count
		stats.Total += count
	}
	return stats, rows.Err()
}
