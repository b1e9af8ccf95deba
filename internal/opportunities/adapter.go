package opportunities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hetulpatel/arbhunter/internal/logging"
	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
)

// DefaultWindow is how long an opportunity stays active without being re-detected.
const DefaultWindow = 5 * time.Minute

type Config struct {
	Store  storage.OpportunityStore
	Window time.Duration
	Now    func() time.Time
}

// Adapter keeps the active opportunity set fresh on top of a store.
type Adapter struct {
	store  storage.OpportunityStore
	window time.Duration
	now    func() time.Time
}

func New(cfg Config) (*Adapter, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("opportunities: store is required")
	}
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Adapter{store: cfg.Store, window: window, now: now}, nil
}

// Window returns the freshness window.
func (a *Adapter) Window() time.Duration {
	return a.window
}

// ExpireStale marks active opportunities older than the window as expired.
// Running it twice in a row changes nothing the second time.
func (a *Adapter) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	n, err := a.store.ExpireBefore(ctx, now.UTC().Add(-a.window))
	if err != nil {
		return 0, fmt.Errorf("expire stale opportunities: %w", err)
	}
	if n > 0 {
		logging.Debugf("[opportunities] expired %d stale", n)
	}
	return n, nil
}

// Upsert writes opp keyed by its id. Duplicate-key races are benign since
// the write is idempotent.
func (a *Adapter) Upsert(ctx context.Context, opp *models.Opportunity) error {
	err := a.store.Upsert(ctx, opp)
	if errors.Is(err, storage.ErrDuplicateKey) {
		logging.Debugf("[opportunities] duplicate %s ignored", opp.OpportunityID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("upsert opportunity: %w", err)
	}
	return nil
}

// ListActive returns fresh active opportunities, most profitable first.
func (a *Adapter) ListActive(ctx context.Context, limit int) ([]models.Opportunity, error) {
	return a.store.ListActive(ctx, a.now().UTC().Add(-a.window), limit)
}

// Record expires stale entries and then upserts opps stamped with the
// current time. It returns how many were written.
func (a *Adapter) Record(ctx context.Context, opps []models.Opportunity) (int, error) {
	now := a.now().UTC()
	if _, err := a.ExpireStale(ctx, now); err != nil {
		return 0, err
	}

	var errs []error
	written := 0
	for i := range opps {
		opps[i].DetectedAt = now
		opps[i].Status = models.OpportunityActive
		if err := a.Upsert(ctx, &opps[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		written++
	}
	return written, errors.Join(errs...)
}
