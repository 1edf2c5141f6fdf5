package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestProfileDefaultsForNewUser(t *testing.T) {
	store, _ := newTestStore(t)

	p, err := store.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, p.DebatesUsed)
	assert.Equal(t, TierFree, p.Tier)
	assert.Equal(t, DefaultLimits[TierFree], p.DebatesLimit)
	assert.True(t, p.WindowResetAt.After(time.Now()))
}

func TestProfileReadsStoredFields(t *testing.T) {
	store, mr := newTestStore(t)
	resetAt := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	mr.HSet("usage:user-1", "used", "7", "tier", TierPro, "reset_at", resetAt.Format(time.RFC3339))

	p, err := store.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 7, p.DebatesUsed)
	assert.Equal(t, TierPro, p.Tier)
	assert.Equal(t, DefaultLimits[TierPro], p.DebatesLimit)
	assert.True(t, p.WindowResetAt.Equal(resetAt))
}

func TestIncrementIsAtomic(t *testing.T) {
	store, mr := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Increment(context.Background(), "user-1"))
		}()
	}
	wg.Wait()

	assert.Equal(t, "20", mr.HGet("usage:user-1", "used"))
}

func TestResetWindow(t *testing.T) {
	store, mr := newTestStore(t)
	mr.HSet("usage:user-1", "used", "9")
	resetAt := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.ResetWindow(context.Background(), "user-1", resetAt))
	assert.Equal(t, "0", mr.HGet("usage:user-1", "used"))
	assert.Equal(t, resetAt.Format(time.RFC3339), mr.HGet("usage:user-1", "reset_at"))
}

func TestGateAllowsUnderLimit(t *testing.T) {
	store, mr := newTestStore(t)
	mr.HSet("usage:user-1", "used", "3", "reset_at", time.Now().Add(time.Hour).Format(time.RFC3339))
	gate := NewGate(store, nil, nil)

	p, err := gate.Check(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.DebatesUsed)
}

func TestGateRefusesAtLimit(t *testing.T) {
	store, mr := newTestStore(t)
	mr.HSet("usage:user-1", "used", "10", "reset_at", time.Now().Add(time.Hour).Format(time.RFC3339))
	gate := NewGate(store, nil, nil)

	_, err := gate.Check(context.Background(), "user-1")
	require.Error(t, err)
	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 10, limitErr.Used)
	assert.Equal(t, DefaultLimits[TierFree], limitErr.Limit)
}

func TestGateResetsExpiredWindow(t *testing.T) {
	store, mr := newTestStore(t)
	mr.HSet("usage:user-1",
		"used", "10",
		"reset_at", time.Now().Add(-time.Hour).Format(time.RFC3339),
	)
	gate := NewGate(store, nil, nil)

	p, err := gate.Check(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Zero(t, p.DebatesUsed)
	assert.Equal(t, "0", mr.HGet("usage:user-1", "used"))
	assert.True(t, p.WindowResetAt.After(time.Now()))
}

func TestGateSkipsGuests(t *testing.T) {
	store, _ := newTestStore(t)
	gate := NewGate(store, nil, nil)

	p, err := gate.Check(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, p)

	gate.Record(context.Background(), "")
}

func TestGateFailsOpenOnStoreError(t *testing.T) {
	gate := NewGate(&failingStore{}, nil, nil)

	p, err := gate.Check(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, p)

	// Record must not surface the failure either.
	gate.Record(context.Background(), "user-1")
}

type failingStore struct{}

func (failingStore) Profile(context.Context, string) (*Profile, error) {
	return nil, errors.New("redis down")
}
func (failingStore) ResetWindow(context.Context, string, time.Time) error {
	return errors.New("redis down")
}
func (failingStore) Increment(context.Context, string) error {
	return errors.New("redis down")
}

func TestFirstOfNextMonth(t *testing.T) {
	got := firstOfNextMonth(time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), got)

	// December rolls into January.
	got = firstOfNextMonth(time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), got)
}
