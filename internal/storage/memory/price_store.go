package memory

import (
	"context"
	"sync"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// PriceStore is an in-memory implementation of storage.PriceStore.
type PriceStore struct {
	mu      sync.RWMutex
	records []models.PriceRecord
}

// NewPriceStore creates a new in-memory price history.
func NewPriceStore() *PriceStore {
	return &PriceStore{}
}

var _ storage.PriceStore = (*PriceStore)(nil)

func (s *PriceStore) AppendPrices(_ context.Context, records []models.PriceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *PriceStore) LatestPrices(_ context.Context, venue string, limit int) ([]models.PriceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.PriceRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Venue != venue {
			continue
		}
		out = append(out, s.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
