package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, time.Hour), mr
}

func TestRedisRoundTripAndExpiry(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "/sets")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "/sets", []byte(`{"data":[1]}`)))
	assert.True(t, mr.Exists(keyPrefix+"/sets"))
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"/sets"))

	got, err := c.Get(ctx, "/sets")
	require.NoError(t, err)
	assert.Equal(t, `{"data":[1]}`, string(got))

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mr.FastForward(time.Hour)
	_, err = c.Get(ctx, "/sets")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisLenIgnoresForeignKeys(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:1", "x"))
	require.NoError(t, c.Set(context.Background(), "/cards", []byte("y")))

	n, err := c.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisUnavailable(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "/cards")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
