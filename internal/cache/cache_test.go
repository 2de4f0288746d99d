package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oldphonedeals/internal/listview"
)

type memCache struct {
	mu   sync.Mutex
	m    map[string][]byte
	fail error
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return nil, c.fail
	}
	v, ok := c.m[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	c.m[key] = value
	return nil
}

type results []string

func (r *results) ObserveCache(result string) { *r = append(*r, result) }

type item struct {
	ID    string `json:"id"`
	Price int    `json:"price"`
}

func TestCollection_ReadThrough(t *testing.T) {
	calls := 0
	origin := listview.CollectionFetcherFunc[item](func(context.Context, listview.Filters) ([]item, error) {
		calls++
		return []item{{ID: "a", Price: calls}}, nil
	})
	var seen results
	fetch := Collection[item](&memCache{}, time.Minute, "phones", origin, &seen)
	ctx := context.Background()
	filters := listview.Filters{"brand": "Sony"}

	first, err := fetch.FetchAll(ctx, filters)
	require.NoError(t, err)
	second, err := fetch.FetchAll(ctx, filters)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	_, err = fetch.FetchAll(ctx, listview.Filters{"brand": "LG"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "different filters use a different key")

	refreshed, err := fetch.FetchAll(listview.WithRefresh(ctx), filters)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, refreshed[0].Price)

	cached, err := fetch.FetchAll(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, 3, cached[0].Price, "refresh result is written back")

	assert.Equal(t, results{ResultMiss, ResultHit, ResultMiss, ResultBypass, ResultHit}, seen)
}

func TestCollection_CacheFailureFallsThrough(t *testing.T) {
	calls := 0
	origin := listview.CollectionFetcherFunc[item](func(context.Context, listview.Filters) ([]item, error) {
		calls++
		return []item{{ID: "a"}}, nil
	})
	fetch := Collection[item](&memCache{fail: errors.New("redis down")}, time.Minute, "logs", origin, nil)

	items, err := fetch.FetchAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, calls)
}

func TestCollection_OriginErrorIsReturned(t *testing.T) {
	boom := errors.New("502 bad gateway")
	origin := listview.CollectionFetcherFunc[item](func(context.Context, listview.Filters) ([]item, error) {
		return nil, boom
	})
	fetch := Collection[item](&memCache{}, time.Minute, "logs", origin, nil)

	_, err := fetch.FetchAll(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestCollection_DisabledWithoutTTL(t *testing.T) {
	origin := listview.CollectionFetcherFunc[item](func(context.Context, listview.Filters) ([]item, error) {
		return nil, nil
	})
	fetch := Collection[item](Nop{}, 0, "logs", origin, nil)
	_, isWrapped := fetch.(*collection[item])
	assert.False(t, isWrapped)
}

func TestKey_IgnoresUnsetFilters(t *testing.T) {
	assert.Equal(t,
		Key("phones", listview.Filters{"brand": "Apple"}),
		Key("phones", listview.Filters{"brand": "Apple", "search": "", "x": nil}))
	assert.NotEqual(t, Key("phones", nil), Key("reviews", nil))
}
