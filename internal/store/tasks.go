package store

import (
	"fmt"
	"time"
)

// LoadTasks returns task names in the order they were added.
func (s *Store) LoadTasks() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM tasks ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tasks = append(tasks, name)
	}
	return tasks, rows.Err()
}

// SaveTasks replaces the stored task list. Later duplicates are dropped.
func (s *Store) SaveTasks(tasks []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i, name := range tasks {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO tasks (name, position, created_at) VALUES (?, ?, ?)`,
			name, i, now,
		); err != nil {
			return fmt.Errorf("insert task %q: %w", name, err)
		}
	}
	return tx.Commit()
}
