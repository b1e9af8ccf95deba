package fetch

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/tasklog"
)

const (
	DefaultMaxRetries   = 5
	DefaultBaseDelay    = time.Second
	DefaultMaxBaseDelay = 30 * time.Second
)

// Op fetches one batch of quotes.
type Op func(ctx context.Context) ([]models.Quote, error)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the context-aware Sleeper used outside tests.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Backoff is base * 2^attempt with attempt counted from 0.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	factor := math.Pow(2, float64(attempt))
	if float64(base)*factor >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(float64(base) * factor)
}

type Config struct {
	Name         string
	MaxRetries   int
	BaseDelay    time.Duration
	MaxBaseDelay time.Duration
	Tasks        *tasklog.Recorder
	Sleep        Sleeper
}

// Fetcher retries a venue call with exponential backoff. One Fetcher per
// venue keeps a failing venue's delay from leaking into the other.
type Fetcher struct {
	name       string
	maxRetries int
	initial    time.Duration
	maxBase    time.Duration
	tasks      *tasklog.Recorder
	sleep      Sleeper

	mu   sync.Mutex
	base time.Duration
}

func New(cfg Config) *Fetcher {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	base := cfg.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	maxBase := cfg.MaxBaseDelay
	if maxBase < base {
		maxBase = DefaultMaxBaseDelay
		if maxBase < base {
			maxBase = base
		}
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	name := cfg.Name
	if name == "" {
		name = "fetch"
	}
	return &Fetcher{
		name:       name,
		maxRetries: maxRetries,
		initial:    base,
		maxBase:    maxBase,
		tasks:      cfg.Tasks,
		sleep:      sleep,
		base:       base,
	}
}

// BaseDelay is the delay the next failure episode starts from.
func (f *Fetcher) BaseDelay() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.base
}

// Fetch runs op until it succeeds or the retries run out. It never returns
// an error: false means "no data for this venue this cycle".
func (f *Fetcher) Fetch(ctx context.Context, op Op) ([]models.Quote, bool) {
	base := f.BaseDelay()

	var lastErr error
	attempts := 0
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		attempts++
		quotes, err := op(ctx)
		if err == nil {
			f.setBase(f.initial)
			if attempt > 0 {
				logging.Infof("[%s] recovered after %d retries", f.name, attempt)
			}
			return quotes, true
		}
		lastErr = err

		if attempt == f.maxRetries-1 {
			break
		}
		wait := Backoff(base, attempt)
		logging.Warnf("[%s] attempt %d/%d failed, retrying in %s: %v", f.name, attempt+1, f.maxRetries, wait, err)
		f.tasks.Recordf(ctx, models.ActionFetchData, models.TaskRetry, err,
			"%s attempt %d/%d failed, retrying in %s", f.name, attempt+1, f.maxRetries, wait)

		if err := f.sleep(ctx, wait); err != nil {
			lastErr = err
			break
		}
	}

	if ctx.Err() == nil {
		f.setBase(min(base*2, f.maxBase))
	}
	logging.Errorf("[%s] giving up after %d attempts: %v", f.name, attempts, lastErr)
	f.tasks.Recordf(context.WithoutCancel(ctx), models.ActionFetchData, models.TaskFailure, lastErr,
		"%s failed after %d attempts", f.name, attempts)
	return nil, false
}

func (f *Fetcher) setBase(d time.Duration) {
	f.mu.Lock()
	f.base = d
	f.mu.Unlock()
}
