package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetulpatel/arbhunter/internal/collectors"
	"github.com/hetulpatel/arbhunter/internal/matcher"
)

func fixedNow() time.Time { return time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC) }

func TestSourcesYieldTwoOpportunities(t *testing.T) {
	pm, k := Sources(fixedNow)
	assert.Equal(t, collectors.VenuePolymarket, pm.Name())
	assert.Equal(t, collectors.VenueKalshi, k.Name())

	ctx := context.Background()
	pmQuotes, err := pm.FetchPrices(ctx, 0)
	require.NoError(t, err)
	kQuotes, err := k.FetchPrices(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pmQuotes, len(table))
	require.Len(t, kQuotes, len(table))

	opps := matcher.Match(pm.Name(), pmQuotes, k.Name(), kQuotes, 100)
	require.Len(t, opps, 2)

	var fed bool
	for _, o := range opps {
		if o.EventName != table[0].event {
			continue
		}
		fed = true
		assert.Equal(t, "Kalshi", o.PlatformA)
		assert.Equal(t, "Polymarket", o.PlatformB)
		assert.InDelta(t, 9.89, o.Profit, 1e-9)
		assert.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), o.ExpiresAt)
	}
	assert.True(t, fed)
}

func TestFetchPricesHonorsLimitAndContext(t *testing.T) {
	src := NewSource(collectors.VenueKalshi, fixedNow)
	quotes, err := src.FetchPrices(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "DEMO-K-a", quotes[0].MarketID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.FetchPrices(ctx, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
