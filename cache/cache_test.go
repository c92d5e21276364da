package cache

import (
	"context"
	"testing"
	"time"

	"recipe-restful/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "auth:abc", []byte(`{"id":1}`), time.Minute))
	got, found, err := store.Get(ctx, "auth:abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"id":1}`, string(got))

	require.NoError(t, store.Delete(ctx, "auth:abc"))
	_, found, err = store.Get(ctx, "auth:abc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Minute))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedisClient(config.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStore(rdb, time.Minute)
	exerciseStore(t, store)

	require.NoError(t, store.Set(context.Background(), "ttl", []byte("v"), 0))
	assert.True(t, mr.Exists("recipe:ttl"))
	assert.Equal(t, time.Minute, mr.TTL("recipe:ttl"))
}
