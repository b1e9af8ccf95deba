package memory

import (
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// NewStores returns a fresh set of in-memory collections.
func NewStores() storage.Stores {
	return storage.Stores{
		Opportunities: NewOpportunityStore(),
		Positions:     NewPositionStore(),
		Performance:   NewPerformanceStore(),
		Tasks:         NewTaskLogStore(),
		Prices:        NewPriceStore(),
	}
}
