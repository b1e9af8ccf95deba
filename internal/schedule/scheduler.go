package schedule

import (
	"time"

	"github.com/hetulpatel/arbhunter/internal/models"
)

// Policy holds the thresholds of the interval heuristic. Rates are
// percentages in [0,100].
type Policy struct {
	FastAbove   float64
	NormalAbove float64
	FastFactor  float64
	SlowFactor  float64
	MinInterval time.Duration
}

// DefaultPolicy polls twice as fast when some category converts more than
// half the time, and half as often when none converts more than 30%.
func DefaultPolicy() Policy {
	return Policy{
		FastAbove:   50,
		NormalAbove: 30,
		FastFactor:  0.5,
		SlowFactor:  2,
		MinInterval: 30 * time.Second,
	}
}

// Scheduler picks the next poll interval from recent performance.
type Scheduler struct {
	policy Policy
}

func New(p Policy) *Scheduler {
	d := DefaultPolicy()
	if p.FastFactor <= 0 {
		p.FastFactor = d.FastFactor
	}
	if p.SlowFactor <= 0 {
		p.SlowFactor = d.SlowFactor
	}
	if p.MinInterval < 0 {
		p.MinInterval = 0
	}
	return &Scheduler{policy: p}
}

// Policy returns the active thresholds.
func (s *Scheduler) Policy() Policy {
	return s.policy
}

// Next returns the interval to wait before the next cycle.
func (s *Scheduler) Next(perf []models.MarketTypePerformance, base time.Duration) time.Duration {
	if len(perf) == 0 {
		return base
	}
	best := perf[0].SuccessRate
	for _, p := range perf[1:] {
		if p.SuccessRate > best {
			best = p.SuccessRate
		}
	}

	switch {
	case best > s.policy.FastAbove:
		return max(s.policy.MinInterval, scale(base, s.policy.FastFactor))
	case best > s.policy.NormalAbove:
		return base
	default:
		return scale(base, s.policy.SlowFactor)
	}
}

func scale(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}
