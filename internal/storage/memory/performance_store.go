package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// PerformanceStore is an in-memory implementation of storage.PerformanceStore.
type PerformanceStore struct {
	mu   sync.RWMutex
	data map[models.MarketType]models.MarketTypePerformance
}

// NewPerformanceStore creates a new in-memory performance store.
func NewPerformanceStore() *PerformanceStore {
	return &PerformanceStore{data: make(map[models.MarketType]models.MarketTypePerformance)}
}

var _ storage.PerformanceStore = (*PerformanceStore)(nil)

func (s *PerformanceStore) Upsert(_ context.Context, p *models.MarketTypePerformance) error {
	if p == nil || p.MarketType == "" {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[p.MarketType] = *p
	return nil
}

func (s *PerformanceStore) List(_ context.Context) ([]models.MarketTypePerformance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MarketTypePerformance, 0, len(s.data))
	for _, p := range s.data {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketType < out[j].MarketType })
	return out, nil
}
