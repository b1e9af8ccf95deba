package opportunities

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage"
	"github.com/hetulpatel/arbhunter/internal/storage/memory"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

// dupStore fails every upsert with a duplicate key error.
type dupStore struct {
	*memory.OpportunityStore
}

func (dupStore) Upsert(context.Context, *models.Opportunity) error {
	return fmt.Errorf("insert: %w", storage.ErrDuplicateKey)
}

// orderStore records call order.
type orderStore struct {
	*memory.OpportunityStore
	calls []string
}

func (s *orderStore) ExpireBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.calls = append(s.calls, "expire")
	return s.OpportunityStore.ExpireBefore(ctx, cutoff)
}

func (s *orderStore) Upsert(ctx context.Context, o *models.Opportunity) error {
	s.calls = append(s.calls, "upsert")
	return s.OpportunityStore.Upsert(ctx, o)
}

func newAdapter(t *testing.T, store storage.OpportunityStore, c *clock) *Adapter {
	t.Helper()
	a, err := New(Config{Store: store, Now: c.Now})
	require.NoError(t, err)
	return a
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestRecordExpiresThenUpserts(t *testing.T) {
	store := &orderStore{OpportunityStore: memory.NewOpportunityStore()}
	c := &clock{t: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	a := newAdapter(t, store, c)

	n, err := a.Record(context.Background(), []models.Opportunity{
		{OpportunityID: "x", ProfitPercentage: 3},
		{OpportunityID: "y", ProfitPercentage: 9},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"expire", "upsert", "upsert"}, store.calls)

	list, err := a.ListActive(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "y", list[0].OpportunityID)
	assert.True(t, list[0].DetectedAt.Equal(c.t))
}

func TestStaleOpportunitiesDropOut(t *testing.T) {
	store := memory.NewOpportunityStore()
	c := &clock{t: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	a := newAdapter(t, store, c)
	ctx := context.Background()

	_, err := a.Record(ctx, []models.Opportunity{{OpportunityID: "old"}})
	require.NoError(t, err)

	c.t = c.t.Add(6 * time.Minute)
	list, err := a.ListActive(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	n, err := a.ExpireStale(ctx, c.t)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = a.ExpireStale(ctx, c.t)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// re-detection revives the same record
	_, err = a.Record(ctx, []models.Opportunity{{OpportunityID: "old"}})
	require.NoError(t, err)
	list, err = a.ListActive(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDuplicateKeyIsSuccess(t *testing.T) {
	c := &clock{t: time.Now()}
	a := newAdapter(t, dupStore{memory.NewOpportunityStore()}, c)

	assert.NoError(t, a.Upsert(context.Background(), &models.Opportunity{OpportunityID: "x"}))
	n, err := a.Record(context.Background(), []models.Opportunity{{OpportunityID: "x"}})
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertSurfacesOtherErrors(t *testing.T) {
	c := &clock{t: time.Now()}
	a := newAdapter(t, memory.NewOpportunityStore(), c)
	err := a.Upsert(context.Background(), &models.Opportunity{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
