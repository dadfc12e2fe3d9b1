package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/skillhub/internal/models"
)

func newTestCache(t *testing.T, ttl time.Duration) (*CategoryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewCategoryCache(client, ttl), mr
}

func TestCategoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t, time.Minute)

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	in := []*models.Category{
		{ID: "dev", Name: models.LocalizedText{Ko: "개발", En: "Dev"}, Icon: "💻"},
		{ID: "meta", Name: models.LocalizedText{En: "Meta"}},
	}
	require.NoError(t, cache.Set(ctx, in))

	out, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, out)

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, _ = cache.Get(ctx)
	assert.False(t, ok)
}

func TestCategoryCacheExpires(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t, time.Minute)

	require.NoError(t, cache.Set(ctx, []*models.Category{{ID: "dev"}}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCategoryCacheDropsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t, 0)

	require.NoError(t, mr.Set(categoriesKey, "not json"))
	_, ok, err := cache.Get(ctx)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(categoriesKey))
}

func TestNewClientFailsWithoutServer(t *testing.T) {
	_, err := NewClient(context.Background(), "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	assert.NoError(t, cache.HealthCheck(context.Background()))
	mr.Close()
	assert.Error(t, cache.HealthCheck(context.Background()))
}
