package positions

import (
	"context"

	"github.com/hetulpatel/arbhunter/internal/models"
)

// Resolver computes the realized profit of a position whose market closed.
type Resolver interface {
	Resolve(ctx context.Context, p models.Position) (float64, error)
}

// ResolverFunc adapts a plain function into a Resolver.
type ResolverFunc func(ctx context.Context, p models.Position) (float64, error)

func (f ResolverFunc) Resolve(ctx context.Context, p models.Position) (float64, error) {
	return f(ctx, p)
}

// HedgedResolver assumes both legs filled at entry prices, so the position
// realizes exactly its target profit whichever side wins.
type HedgedResolver struct{}

func (HedgedResolver) Resolve(_ context.Context, p models.Position) (float64, error) {
	return p.TargetProfit, nil
}

// OrderPlacer submits both legs of a position and reports whether they filled.
type OrderPlacer interface {
	Place(ctx context.Context, p models.Position) (bool, error)
}

// PlacerFunc adapts a plain function into an OrderPlacer.
type PlacerFunc func(ctx context.Context, p models.Position) (bool, error)

func (f PlacerFunc) Place(ctx context.Context, p models.Position) (bool, error) {
	return f(ctx, p)
}

// PaperPlacer fills every order without touching a venue.
type PaperPlacer struct{}

func (PaperPlacer) Place(context.Context, models.Position) (bool, error) {
	return true, nil
}
