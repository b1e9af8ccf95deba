package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]models.Position // keyed by position_id
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{data: make(map[string]models.Position)}
}

var _ storage.PositionStore = (*PositionStore)(nil)

func (s *PositionStore) Insert(_ context.Context, p *models.Position) error {
	if p == nil || p.PositionID == "" {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PositionID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[p.PositionID] = clonePosition(*p)
	return nil
}

func (s *PositionStore) Get(_ context.Context, positionID string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[positionID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := clonePosition(p)
	return &cp, nil
}

func (s *PositionStore) ListByStates(_ context.Context, states ...models.PositionState) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Position
	for _, p := range s.data {
		if len(states) == 0 || inStates(p.State, states) {
			out = append(out, clonePosition(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].PositionID < out[j].PositionID
	})
	return out, nil
}

func (s *PositionStore) Transition(_ context.Context, positionID string, from []models.PositionState, upd models.PositionUpdate) (bool, error) {
	if len(from) == 0 {
		return false, storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[positionID]
	if !exists || !inStates(p.State, from) {
		return false, nil
	}
	p.State = upd.State
	p.LastChecked = upd.LastChecked
	if upd.ActualProfit != nil {
		v := *upd.ActualProfit
		p.ActualProfit = &v
	}
	if upd.ResolvedAt != nil {
		t := *upd.ResolvedAt
		p.ResolvedAt = &t
	}
	s.data[positionID] = p
	return true, nil
}

func (s *PositionStore) Touch(_ context.Context, positionID string, states []models.PositionState, at time.Time) error {
	if len(states) == 0 {
		return storage.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, exists := s.data[positionID]; exists && inStates(p.State, states) {
		p.LastChecked = at
		s.data[positionID] = p
	}
	return nil
}

func (s *PositionStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

func (s *PositionStore) AggregateByMarketType(_ context.Context) ([]storage.MarketTypeAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[models.MarketType]float64)
	groups := make(map[models.MarketType]*storage.MarketTypeAggregate)
	for _, p := range s.data {
		agg, ok := groups[p.MarketType]
		if !ok {
			agg = &storage.MarketTypeAggregate{MarketType: p.MarketType}
			groups[p.MarketType] = agg
		}
		agg.Count++
		if p.TargetProfit > 0 {
			agg.Profitable++
		}
		sums[p.MarketType] += p.TargetProfitPct
	}

	out := make([]storage.MarketTypeAggregate, 0, len(groups))
	for mt, agg := range groups {
		agg.AvgProfitPct = sums[mt] / float64(agg.Count)
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketType < out[j].MarketType })
	return out, nil
}

func inStates(st models.PositionState, states []models.PositionState) bool {
	for _, s := range states {
		if st == s {
			return true
		}
	}
	return false
}

func clonePosition(p models.Position) models.Position {
	if p.ActualProfit != nil {
		v := *p.ActualProfit
		p.ActualProfit = &v
	}
	if p.ResolvedAt != nil {
		t := *p.ResolvedAt
		p.ResolvedAt = &t
	}
	return p
}
