package geocoding

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"golang.org/x/sync/singleflight"
)

// CachedProvider wraps a Provider with an in-memory LRU cache.
// Concurrent identical lookups from different conversations share one upstream call.
type CachedProvider struct {
	Provider
	cache   *lruCache
	group   singleflight.Group
	metrics *metrics.Metrics
}

// NewCachedProvider creates a cache decorator around a provider.
func NewCachedProvider(inner Provider, maxEntries int, m *metrics.Metrics) *CachedProvider {
	return &CachedProvider{
		Provider: inner,
		cache:    newLRUCache(maxEntries),
		metrics:  m,
	}
}

// FindByQuery serves repeated queries from the cache.
// The upstream call is shared, so it runs detached from the cancellation of whichever caller started it.
func (c *CachedProvider) FindByQuery(ctx context.Context, apiKey, query string) ([]models.Location, error) {
	key := fmt.Sprintf("fwd:%s|%s", apiKey, query)
	shared := context.WithoutCancel(ctx)
	return c.lookup(key, "forward", func() ([]models.Location, error) {
		return c.Provider.FindByQuery(shared, apiKey, query)
	})
}

// FindByPoint serves repeated reverse lookups from the cache.
func (c *CachedProvider) FindByPoint(ctx context.Context, apiKey string, lat, lon float64) ([]models.Location, error) {
	key := fmt.Sprintf("rev:%s|%.6f,%.6f", apiKey, lat, lon)
	shared := context.WithoutCancel(ctx)
	return c.lookup(key, "reverse", func() ([]models.Location, error) {
		return c.Provider.FindByPoint(shared, apiKey, lat, lon)
	})
}

func (c *CachedProvider) lookup(key, method string, fetch func() ([]models.Location, error)) ([]models.Location, error) {
	if result, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		return cloneLocations(result), nil
	}
	c.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		result, err := fetch()
		if err != nil {
			return nil, err
		}
		// Only cache non-empty results so transient "not found" responses can be retried.
		if len(result) > 0 {
			c.cache.put(key, result)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return cloneLocations(v.([]models.Location)), nil
}

// cloneLocations keeps dialogs from mutating cached entries in place.
func cloneLocations(in []models.Location) []models.Location {
	out := make([]models.Location, len(in))
	for i := range in {
		out[i] = *in[i].Clone()
	}
	return out
}

// lruCache is a simple thread-safe LRU cache for candidate sets.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value []models.Location
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) ([]models.Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(e)
	return e.Value.(*cacheEntry).value, true
}

func (c *lruCache) put(key string, value []models.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.Value.(*cacheEntry).value = value
		c.order.MoveToFront(e)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: value})

	if c.order.Len() > c.maxEntries {
		tail := c.order.Back()
		c.order.Remove(tail)
		delete(c.entries, tail.Value.(*cacheEntry).key)
	}
}
