package memory

import (
	"context"
	"sync"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// TaskLogStore is an in-memory implementation of storage.TaskLogStore.
// Entries are kept in append order.
type TaskLogStore struct {
	mu      sync.RWMutex
	entries []models.TaskLogEntry
	ids     map[string]struct{}
}

// NewTaskLogStore creates a new in-memory task log.
func NewTaskLogStore() *TaskLogStore {
	return &TaskLogStore{ids: make(map[string]struct{})}
}

var _ storage.TaskLogStore = (*TaskLogStore)(nil)

func (s *TaskLogStore) Append(_ context.Context, e *models.TaskLogEntry) error {
	if e == nil || e.TaskID == "" || e.Action == "" {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[e.TaskID]; exists {
		return storage.ErrDuplicateKey
	}
	s.ids[e.TaskID] = struct{}{}
	s.entries = append(s.entries, *e)
	return nil
}

func (s *TaskLogStore) Recent(_ context.Context, limit int) ([]models.TaskLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.TaskLogEntry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

func (s *TaskLogStore) First(_ context.Context) (*models.TaskLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, storage.ErrNotFound
	}
	first := s.entries[0]
	for _, e := range s.entries[1:] {
		if e.Timestamp.Before(first.Timestamp) {
			first = e
		}
	}
	return &first, nil
}

func (s *TaskLogStore) Count(_ context.Context, action string, status models.TaskStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if e.Action == action && e.Status == status {
			n++
		}
	}
	return n, nil
}
