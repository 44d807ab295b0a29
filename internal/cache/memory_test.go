package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTTLExpiresLazily(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTL(time.Hour, 10, clock.Now)

	require.NoError(t, c.Set(ctx, "/cards?q=name:pikachu", []byte(`{"data":[]}`)))

	clock.Advance(59 * time.Minute)
	got, err := c.Get(ctx, "/cards?q=name:pikachu")
	require.NoError(t, err)
	assert.Equal(t, `{"data":[]}`, string(got))

	n, _ := c.Len(ctx)
	assert.Equal(t, 1, n)

	clock.Advance(time.Minute)
	_, err = c.Get(ctx, "/cards?q=name:pikachu")
	assert.ErrorIs(t, err, ErrCacheMiss)

	n, _ = c.Len(ctx)
	assert.Equal(t, 0, n)
}

func TestTTLEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewTTL(time.Hour, 2, nil)

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	require.NoError(t, c.Set(ctx, "b", []byte("2")))
	_, err := c.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "c", []byte("3")))

	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = c.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestTTLOverwriteRefreshesExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewTTL(time.Minute, 0, clock.Now)

	require.NoError(t, c.Set(ctx, "k", []byte("old")))
	clock.Advance(50 * time.Second)
	require.NoError(t, c.Set(ctx, "k", []byte("new")))
	clock.Advance(50 * time.Second)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}
