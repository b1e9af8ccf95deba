package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetulpatel/arbhunter/internal/models"
	"github.com/hetulpatel/arbhunter/internal/storage/memory"
	"github.com/hetulpatel/arbhunter/internal/tasklog"
)

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

// failing returns an op that fails n times and then succeeds.
func failing(n int) (Op, *int) {
	calls := 0
	return func(context.Context) ([]models.Quote, error) {
		calls++
		if calls <= n {
			return nil, errors.New("503 service unavailable")
		}
		return []models.Quote{{MarketID: "m"}}, nil
	}, &calls
}

func TestBackoffSequence(t *testing.T) {
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	for attempt, w := range want {
		assert.Equal(t, w, Backoff(time.Second, attempt))
	}
	assert.Equal(t, time.Second, Backoff(time.Second, -1))
	assert.Equal(t, time.Duration(1<<62), Backoff(1, 62))
	assert.Greater(t, Backoff(time.Hour, 100), time.Duration(0))
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	sleeper := &recordingSleeper{}
	tasks := memory.NewTaskLogStore()
	f := New(Config{Name: "polymarket", Tasks: tasklog.New(tasks, nil), Sleep: sleeper.Sleep})

	op, calls := failing(3)
	quotes, ok := f.Fetch(context.Background(), op)
	require.True(t, ok)
	assert.Len(t, quotes, 1)
	assert.Equal(t, 4, *calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeper.waits)

	n, err := tasks.Count(context.Background(), models.ActionFetchData, models.TaskRetry)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFetchExhaustsRetries(t *testing.T) {
	sleeper := &recordingSleeper{}
	tasks := memory.NewTaskLogStore()
	f := New(Config{Name: "kalshi", Tasks: tasklog.New(tasks, nil), Sleep: sleeper.Sleep})

	op, calls := failing(100)
	quotes, ok := f.Fetch(context.Background(), op)
	assert.False(t, ok)
	assert.Nil(t, quotes)
	assert.Equal(t, DefaultMaxRetries, *calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeper.waits)

	n, err := tasks.Count(context.Background(), models.ActionFetchData, models.TaskFailure)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = tasks.Count(context.Background(), models.ActionFetchData, models.TaskRetry)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestBaseDelayResetsOnSuccess(t *testing.T) {
	sleeper := &recordingSleeper{}
	f := New(Config{Sleep: sleeper.Sleep, MaxRetries: 2})

	op, _ := failing(100)
	_, ok := f.Fetch(context.Background(), op)
	require.False(t, ok)
	assert.Equal(t, 2*time.Second, f.BaseDelay())

	_, ok = f.Fetch(context.Background(), op)
	require.False(t, ok)
	assert.Equal(t, 4*time.Second, f.BaseDelay())
	// second episode started from the inflated base
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.waits)

	okOp, _ := failing(0)
	_, ok = f.Fetch(context.Background(), okOp)
	require.True(t, ok)
	assert.Equal(t, time.Second, f.BaseDelay())
}

func TestBaseDelayCapped(t *testing.T) {
	sleeper := &recordingSleeper{}
	f := New(Config{Sleep: sleeper.Sleep, MaxRetries: 1, BaseDelay: 20 * time.Second})
	op, _ := failing(100)
	f.Fetch(context.Background(), op)
	assert.Equal(t, DefaultMaxBaseDelay, f.BaseDelay())
	f.Fetch(context.Background(), op)
	assert.Equal(t, DefaultMaxBaseDelay, f.BaseDelay())
}

func TestFetchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	op := func(context.Context) ([]models.Quote, error) {
		calls++
		cancel()
		return nil, errors.New("timeout")
	}
	f := New(Config{})

	start := time.Now()
	_, ok := f.Fetch(ctx, op)
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, DefaultBaseDelay, f.BaseDelay())
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
