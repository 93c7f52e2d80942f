package store

import (
	"fmt"
	"time"
)

// LoadSessions returns every session record in the order it was appended.
// Rows whose date cannot be parsed are skipped.
func (s *Store) LoadSessions() ([]SessionRecord, error) {
	rows, err := s.db.Query(`SELECT task, date, duration FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var date string
		if err := rows.Scan(&r.Task, &date, &r.Minutes); err != nil {
			return nil, err
		}
		d, err := time.ParseInLocation(DateLayout, date, time.Local)
		if err != nil {
			continue
		}
		r.Date = d
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveSessions replaces the stored history with records, keeping their order.
func (s *Store) SaveSessions(records []SessionRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		if _, err := tx.Exec(
			`INSERT INTO sessions (task, date, duration, created_at) VALUES (?, ?, ?, ?)`,
			r.Task, r.Date.Format(DateLayout), r.Minutes, now,
		); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}
	return tx.Commit()
}

// DailyTotals sums minutes per task per day for dates in [from, to).
func (s *Store) DailyTotals(from, to time.Time) ([]DailyTotal, error) {
	rows, err := s.db.Query(`
		SELECT date, task, COALESCE(SUM(duration), 0), COUNT(*)
		FROM sessions
		WHERE date >= ? AND date < ?
		GROUP BY date, task
		ORDER BY date, task`,
		from.Format(DateLayout), to.Format(DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()

	var totals []DailyTotal
	for rows.Next() {
		var dt DailyTotal
		if err := rows.Scan(&dt.Date, &dt.Task, &dt.Minutes, &dt.Sessions); err != nil {
			return nil, err
		}
		totals = append(totals, dt)
	}
	return totals, rows.Err()
}
