package menus

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"MenuAPI/internal/cache"
	"MenuAPI/internal/v0/dishes"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	entries     map[string]map[int64]string
	gen         int64
	gets, sets  int
	invalidated int
	getErr      error
	// afterGet runs once a lookup missed, before the caller computes labels
	afterGet func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]map[int64]string{}}
}

func (m *memoryCache) key(gen int64, week string) string {
	return strconv.FormatInt(gen, 10) + ":" + week
}

func (m *memoryCache) Get(_ context.Context, week string) (map[int64]string, int64, bool, error) {
	m.gets++
	if m.getErr != nil {
		return nil, 0, false, m.getErr
	}
	labels, ok := m.entries[m.key(m.gen, week)]
	if !ok && m.afterGet != nil {
		m.afterGet()
		return nil, m.gen - 1, false, nil
	}
	return labels, m.gen, ok, nil
}

func (m *memoryCache) Set(_ context.Context, gen int64, week string, labels map[int64]string) error {
	m.sets++
	m.entries[m.key(gen, week)] = labels
	return nil
}

func (m *memoryCache) Invalidate(context.Context) error {
	m.invalidated++
	m.gen++
	return nil
}

func (m *memoryCache) cached(week string) (map[int64]string, bool) {
	labels, ok := m.entries[m.key(m.gen, week)]
	return labels, ok
}

func seedUsage(t *testing.T, f *fixture, weekStart string, dishID int64) {
	t.Helper()
	data := NewMenuData()
	data[Monday].Dishes[dishes.CategoryMain] = dishID
	_, err := f.repo.Create(context.Background(), weekStart, data, StatusDraft, nil)
	require.NoError(t, err)
}

func TestLastUsedService_WithoutCache(t *testing.T) {
	f := newFixture(t)
	seedUsage(t, f, "2025-12-22", f.byCat[dishes.CategoryMain])

	svc := NewLastUsedService(f.repo, nil)
	labels, err := svc.Labels(context.Background(), monday)
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{f.byCat[dishes.CategoryMain]: "2 weeks ago"}, labels)

	// no cache configured
	svc.Invalidate(context.Background())
}

func TestLastUsedService_CachesPerWeek(t *testing.T) {
	f := newFixture(t)
	seedUsage(t, f, thisWeek, f.byCat[dishes.CategoryMain])

	mc := newMemoryCache()
	svc := NewLastUsedService(f.repo, mc)
	ctx := context.Background()

	first, err := svc.Labels(ctx, monday.Add(36*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "this week", first[f.byCat[dishes.CategoryMain]])
	assert.Equal(t, 1, mc.sets)
	_, ok := mc.cached(thisWeek)
	assert.True(t, ok)

	// any day of the week shares the entry
	second, err := svc.Labels(ctx, monday.Add(4*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mc.sets)

	next, err := svc.Labels(ctx, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, "1 week ago", next[f.byCat[dishes.CategoryMain]])
	assert.Equal(t, 2, mc.sets)

	svc.Invalidate(ctx)
	assert.Equal(t, 1, mc.invalidated)
	_, ok = mc.cached(thisWeek)
	assert.False(t, ok)
}

func TestLastUsedService_InvalidateDuringMissIsNotCached(t *testing.T) {
	f := newFixture(t)
	seedUsage(t, f, "2025-12-15", f.byCat[dishes.CategoryMain])

	mc := newMemoryCache()
	svc := NewLastUsedService(f.repo, mc)
	ctx := context.Background()

	// the generation moves on between the miss and the write-back
	mc.afterGet = func() {
		mc.afterGet = nil
		require.NoError(t, mc.Invalidate(ctx))
	}
	labels, err := svc.Labels(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, "3 weeks ago", labels[f.byCat[dishes.CategoryMain]])

	_, ok := mc.cached(thisWeek)
	assert.False(t, ok)

	seedUsage(t, f, thisWeek, f.byCat[dishes.CategoryMain])
	fresh, err := svc.Labels(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, "this week", fresh[f.byCat[dishes.CategoryMain]])
}

func TestLastUsedService_CancelledCallerStillComputes(t *testing.T) {
	f := newFixture(t)
	seedUsage(t, f, thisWeek, f.byCat[dishes.CategoryMain])

	mc := newMemoryCache()
	svc := NewLastUsedService(f.repo, mc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	labels, err := svc.Labels(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, "this week", labels[f.byCat[dishes.CategoryMain]])
	_, ok := mc.cached(thisWeek)
	assert.True(t, ok)
}

func TestLastUsedService_CacheErrorFallsBackToDatabase(t *testing.T) {
	f := newFixture(t)
	seedUsage(t, f, thisWeek, f.byCat[dishes.CategoryMain])

	mc := newMemoryCache()
	mc.getErr = errors.New("connection refused")
	svc := NewLastUsedService(f.repo, mc)

	labels, err := svc.Labels(context.Background(), monday)
	require.NoError(t, err)
	assert.Equal(t, "this week", labels[f.byCat[dishes.CategoryMain]])
}

func TestLastUsedService_Redis(t *testing.T) {
	f := newFixture(t)
	seedUsage(t, f, "2025-12-29", f.byCat[dishes.CategoryMain])

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewLastUsedService(f.repo, cache.NewLastUsedCache(client, time.Hour))
	ctx := context.Background()

	labels, err := svc.Labels(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, "1 week ago", labels[f.byCat[dishes.CategoryMain]])
	assert.NotEmpty(t, mr.Keys())

	// a new menu is only visible once the cache is invalidated
	seedUsage(t, f, thisWeek, f.byCat[dishes.CategoryMain])
	stale, err := svc.Labels(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, "1 week ago", stale[f.byCat[dishes.CategoryMain]])

	svc.Invalidate(ctx)
	fresh, err := svc.Labels(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, "this week", fresh[f.byCat[dishes.CategoryMain]])
}
