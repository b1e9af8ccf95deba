package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hetulpatel/arbhunter/internal/models"
)

func perf(rates ...float64) []models.MarketTypePerformance {
	out := make([]models.MarketTypePerformance, len(rates))
	for i, r := range rates {
		out[i] = models.MarketTypePerformance{MarketType: models.MarketTypes[i%len(models.MarketTypes)], SuccessRate: r}
	}
	return out
}

func TestNextDefaultPolicy(t *testing.T) {
	s := New(DefaultPolicy())
	base := 60 * time.Second

	cases := []struct {
		name string
		perf []models.MarketTypePerformance
		want time.Duration
	}{
		{"no data", nil, base},
		{"fertile", perf(10, 75), 30 * time.Second},
		{"exactly fifty", perf(50), base},
		{"normal", perf(31, 5), base},
		{"exactly thirty", perf(30), 120 * time.Second},
		{"dry", perf(0, 12), 120 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.Next(tc.perf, base))
		})
	}
}

func TestNextFloorsAtMinimum(t *testing.T) {
	s := New(DefaultPolicy())
	assert.Equal(t, 30*time.Second, s.Next(perf(90), 40*time.Second))
	assert.Equal(t, 100*time.Second, s.Next(perf(90), 200*time.Second))
}

func TestNextCustomPolicy(t *testing.T) {
	s := New(Policy{FastAbove: 80, NormalAbove: 10, FastFactor: 0.25, SlowFactor: 3, MinInterval: time.Second})
	base := time.Minute
	assert.Equal(t, 15*time.Second, s.Next(perf(85), base))
	assert.Equal(t, base, s.Next(perf(60), base))
	assert.Equal(t, 3*time.Minute, s.Next(perf(5), base))
}

func TestNewFillsFactors(t *testing.T) {
	s := New(Policy{FastAbove: 50, NormalAbove: 30})
	assert.Equal(t, 0.5, s.Policy().FastFactor)
	assert.Equal(t, 2.0, s.Policy().SlowFactor)
}
