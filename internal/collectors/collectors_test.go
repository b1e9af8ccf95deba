package collectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetulpatel/arbhunter/internal/models"
)

func TestNormalizePair(t *testing.T) {
	y, n, ok := NormalizePair(0.47, 0.53)
	require.True(t, ok)
	assert.Equal(t, 0.47, y)
	assert.Equal(t, 0.53, n)

	y, n, ok = NormalizePair(45, 50)
	require.True(t, ok)
	assert.Equal(t, 0.4737, y)
	assert.Equal(t, 0.5263, n)

	_, _, ok = NormalizePair(0, 0)
	assert.False(t, ok)
	_, _, ok = NormalizePair(-1, 2)
	assert.False(t, ok)
}

func TestVenueDisplay(t *testing.T) {
	assert.Equal(t, "Polymarket", VenuePolymarket.Display())
	assert.Equal(t, "Kalshi", VenueKalshi.Display())
	assert.Equal(t, "other", Venue("other").Display())
}

func TestSourceFunc(t *testing.T) {
	src := SourceFunc{Venue: VenueKalshi, Fn: func(_ context.Context, limit int) ([]models.Quote, error) {
		return make([]models.Quote, limit), nil
	}}
	assert.Equal(t, VenueKalshi, src.Name())
	quotes, err := src.FetchPrices(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, quotes, 3)
}
