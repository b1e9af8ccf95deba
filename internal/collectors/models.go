package collectors

import (
	"context"

	"github.com/hetulpatel/arbhunter/internal/models"
)

// Venue identifies the platform a quote belongs to.
type Venue string

const (
	VenuePolymarket Venue = "polymarket"
	VenueKalshi     Venue = "kalshi"
)

// Display returns the human-facing venue label stored on opportunities.
func (v Venue) Display() string {
	switch v {
	case VenuePolymarket:
		return "Polymarket"
	case VenueKalshi:
		return "Kalshi"
	default:
		return string(v)
	}
}

// Source is implemented by venue-specific adapters (Polymarket, Kalshi, demo).
// Adapters skip records they cannot parse; an error means the venue as a whole
// could not be reached.
type Source interface {
	Name() Venue
	FetchPrices(ctx context.Context, limit int) ([]models.Quote, error)
}

// SourceFunc adapts a plain function into a Source.
type SourceFunc struct {
	Venue Venue
	Fn    func(ctx context.Context, limit int) ([]models.Quote, error)
}

func (s SourceFunc) Name() Venue { return s.Venue }

func (s SourceFunc) FetchPrices(ctx context.Context, limit int) ([]models.Quote, error) {
	return s.Fn(ctx, limit)
}
