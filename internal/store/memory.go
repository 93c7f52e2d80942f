package store

import (
	"slices"
	"sync"
)

// MapStore keeps tasks and sessions in process memory. It satisfies the same
// load/save contract as Store and is meant for tests and dry runs.
type MapStore struct {
	mu       sync.RWMutex
	tasks    []string
	sessions []SessionRecord
}

func NewMapStore() *MapStore {
	return &MapStore{}
}

func (m *MapStore) LoadTasks() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.tasks), nil
}

func (m *MapStore) SaveTasks(tasks []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = slices.Clone(tasks)
	return nil
}

func (m *MapStore) LoadSessions() ([]SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.sessions), nil
}

func (m *MapStore) SaveSessions(records []SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = slices.Clone(records)
	return nil
}
