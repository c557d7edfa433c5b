package store

import (
	"database/sql"
	"time"
)

// Run records one completed aggregation for later inspection.
type Run struct {
	ID         int64
	Category   string
	RunDate    time.Time
	Mode       string // "day" or "snapshot"
	Samples    int
	MinValue   sql.NullFloat64
	MaxValue   sql.NullFloat64
	TotalValue sql.NullFloat64
	Units      sql.NullString
	DurationMS int64
	CreatedAt  time.Time
}

func (s *Store) InsertRun(r Run) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO runs (category, run_date, mode, samples, min_value, max_value, total_value, units, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Category, r.RunDate, r.Mode, r.Samples,
		r.MinValue, r.MaxValue, r.TotalValue, r.Units, r.DurationMS)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetRuns returns the most recent runs for a category, newest first.
func (s *Store) GetRuns(category string, limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, category, run_date, mode, samples, min_value, max_value, total_value, units, duration_ms, created_at
		FROM runs
		WHERE category = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, category, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Category, &r.RunDate, &r.Mode, &r.Samples,
			&r.MinValue, &r.MaxValue, &r.TotalValue, &r.Units, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
