// Package demo serves a fixed quote table so the engine can run end to end
// without network access.
package demo

import (
	"context"
	"time"

	"github.com/hetulpatel/arbhunter/internal/collectors"
	"github.com/hetulpatel/arbhunter/internal/models"
)

// Interval is the fixed cycle interval used in demo mode.
const Interval = 10 * time.Second

type pair struct {
	event     string
	closeDays int
	poly      [2]float64
	kalshi    [2]float64
}

// Two of these events are priced so that one direction is arbitrageable;
// the rest sum above 1 both ways.
var table = []pair{
	{event: "Will the Fed cut rates in December?", closeDays: 45, poly: [2]float64{0.58, 0.44}, kalshi: [2]float64{0.47, 0.53}},
	{event: "Will Bitcoin close above $150k this year?", closeDays: 75, poly: [2]float64{0.31, 0.66}, kalshi: [2]float64{0.36, 0.62}},
	{event: "Will the Lakers win the NBA Finals?", closeDays: 200, poly: [2]float64{0.12, 0.88}, kalshi: [2]float64{0.14, 0.89}},
	{event: "Will GDP growth exceed 3% in Q4?", closeDays: 120, poly: [2]float64{0.40, 0.61}, kalshi: [2]float64{0.42, 0.61}},
	{event: "Will OpenAI release a new model before March?", closeDays: 150, poly: [2]float64{0.70, 0.35}, kalshi: [2]float64{0.66, 0.35}},
}

// Source returns quotes for one venue from the fixed table.
type Source struct {
	venue collectors.Venue
	now   func() time.Time
}

var _ collectors.Source = (*Source)(nil)

// NewSource builds a demo source reporting as venue. Close times are
// relative to now so demo positions do not expire immediately.
func NewSource(venue collectors.Venue, now func() time.Time) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{venue: venue, now: now}
}

// Sources returns the demo Polymarket and Kalshi pair.
func Sources(now func() time.Time) (*Source, *Source) {
	return NewSource(collectors.VenuePolymarket, now), NewSource(collectors.VenueKalshi, now)
}

func (s *Source) Name() collectors.Venue { return s.venue }

func (s *Source) FetchPrices(ctx context.Context, limit int) ([]models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := s.now().UTC().Truncate(24 * time.Hour)
	out := make([]models.Quote, 0, len(table))
	for i, row := range table {
		if limit > 0 && len(out) >= limit {
			break
		}
		prices := row.poly
		prefix := "demo-pm-"
		if s.venue == collectors.VenueKalshi {
			prices = row.kalshi
			prefix = "DEMO-K-"
		}
		out = append(out, models.Quote{
			MarketID:  prefix + string(rune('a'+i)),
			EventName: row.event,
			YesPrice:  prices[0],
			NoPrice:   prices[1],
			CloseTime: base.Add(time.Duration(row.closeDays) * 24 * time.Hour),
		})
	}
	return out, nil
}
