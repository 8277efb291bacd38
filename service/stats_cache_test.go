package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	data    map[string]int
	flushed []string
	fail    error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{data: make(map[string]int)}
}

func (r *recordingStore) load(ctx context.Context, key string) (int, error) {
	return r.data[key], nil
}

func (r *recordingStore) flush(ctx context.Context, key string, value int) error {
	if r.fail != nil {
		return r.fail
	}
	r.flushed = append(r.flushed, key)
	r.data[key] = value
	return nil
}

func TestStatsCache_GetLoadsWithoutInserting(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	store.data["a"] = 7
	cache := NewStatsCache(2, store.load, store.flush)

	v, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.False(t, cache.Contains("a"))
	assert.Equal(t, 0, cache.Len())

	v, err = cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestStatsCache_EvictionFlushesLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	cache := NewStatsCache(2, store.load, store.flush)

	var evicted []string
	cache.OnEvict(func(key string) { evicted = append(evicted, key) })

	require.NoError(t, cache.Set(ctx, "a", 1))
	require.NoError(t, cache.Set(ctx, "b", 2))

	// Touch a so b becomes the eviction candidate
	_, err := cache.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "c", 3))

	assert.Equal(t, []string{"b"}, store.flushed)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, store.data["b"])
	assert.False(t, cache.Contains("b"))
	assert.True(t, cache.Contains("a"))
	assert.True(t, cache.Contains("c"))
	assert.Equal(t, 1, cache.Evictions())

	// An evicted value is reloaded from the store
	v, err := cache.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestStatsCache_UpdatingResidentKeyNeverEvicts(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	cache := NewStatsCache(2, store.load, store.flush)

	require.NoError(t, cache.Set(ctx, "a", 1))
	require.NoError(t, cache.Set(ctx, "b", 2))
	require.NoError(t, cache.Set(ctx, "a", 10))

	assert.Empty(t, store.flushed)
	assert.Equal(t, 2, cache.Len())

	v, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}

func TestStatsCache_FlushFailureKeepsVictim(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	cache := NewStatsCache(1, store.load, store.flush)

	require.NoError(t, cache.Set(ctx, "a", 1))

	store.fail = errors.New("disk full")
	err := cache.Set(ctx, "b", 2)

	require.Error(t, err)
	assert.ErrorIs(t, err, store.fail)
	assert.True(t, cache.Contains("a"))
	assert.False(t, cache.Contains("b"))
	assert.Equal(t, 0, cache.Evictions())
}

func TestStatsCache_FlushAllOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	cache := NewStatsCache(3, store.load, store.flush)

	require.NoError(t, cache.Set(ctx, "a", 1))
	require.NoError(t, cache.Set(ctx, "b", 2))
	require.NoError(t, cache.Set(ctx, "c", 3))
	_, err := cache.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, cache.FlushAll(ctx))

	assert.Equal(t, []string{"b", "c", "a"}, store.flushed)
	assert.Equal(t, 3, cache.Len())
}
