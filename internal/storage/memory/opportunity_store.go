package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// OpportunityStore is an in-memory implementation of storage.OpportunityStore.
type OpportunityStore struct {
	mu   sync.RWMutex
	data map[string]models.Opportunity // keyed by opportunity_id
}

// NewOpportunityStore creates a new in-memory opportunity store.
func NewOpportunityStore() *OpportunityStore {
	return &OpportunityStore{data: make(map[string]models.Opportunity)}
}

var _ storage.OpportunityStore = (*OpportunityStore)(nil)

func (s *OpportunityStore) ExpireBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, o := range s.data {
		if o.Status == models.OpportunityActive && o.DetectedAt.Before(cutoff) {
			o.Status = models.OpportunityExpired
			s.data[id] = o
			n++
		}
	}
	return n, nil
}

func (s *OpportunityStore) Upsert(_ context.Context, o *models.Opportunity) error {
	if o == nil || o.OpportunityID == "" {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[o.OpportunityID] = *o
	return nil
}

func (s *OpportunityStore) ListActive(_ context.Context, since time.Time, limit int) ([]models.Opportunity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Opportunity
	for _, o := range s.data {
		if o.Status == models.OpportunityActive && !o.DetectedAt.Before(since) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProfitPercentage != out[j].ProfitPercentage {
			return out[i].ProfitPercentage > out[j].ProfitPercentage
		}
		return out[i].OpportunityID < out[j].OpportunityID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
