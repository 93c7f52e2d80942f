package store

import (
	"fmt"
	"strconv"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// TimerSettings reads the pomodoro settings, falling back to defaults for
// missing or malformed values.
func (s *Store) TimerSettings() TimerSettings {
	ts := DefaultTimerSettings()
	s.intSetting("pomodoro_focus", &ts.FocusSeconds)
	s.intSetting("pomodoro_short_break", &ts.ShortBreakSeconds)
	s.intSetting("pomodoro_long_break", &ts.LongBreakSeconds)
	s.intSetting("pomodoro_long_break_every", &ts.LongBreakEvery)
	if v, err := s.GetSetting("bell"); err == nil {
		ts.Bell = v != "off"
	}
	return ts
}

func (s *Store) intSetting(key string, dst *int) {
	v, err := s.GetSetting(key)
	if err != nil {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = n
	}
}
