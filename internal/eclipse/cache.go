package eclipse

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/anttikuosmanen-rgb/passcast/internal/metrics"
)

// shadowKey identifies one cached evaluation: one satellite in one
// time bucket.
type shadowKey struct {
	catalogID int
	bucket    int64 // bucket start, unix seconds
}

type shadowEntry struct {
	key      shadowKey
	inShadow bool
}

// ShadowCache is a bounded LRU cache of shadow evaluations. Recency is
// access order, so a hot working set survives even when scans sweep many
// cold buckets through the cache. Safe for concurrent use, though the
// worker pool gives each worker its own instance.
type ShadowCache struct {
	mu    sync.Mutex
	max   int
	ll    *list.List // front is most recently used
	items map[shadowKey]*list.Element

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewShadowCache creates a cache bounded to max entries. Non-positive max
// selects the default.
func NewShadowCache(max int) *ShadowCache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &ShadowCache{
		max:   max,
		ll:    list.New(),
		items: make(map[shadowKey]*list.Element),
	}
}

// lookup returns the cached value for k and whether it was present,
// marking the entry most recently used on a hit.
func (c *ShadowCache) lookup(k shadowKey) (bool, bool) {
	c.mu.Lock()
	el, ok := c.items[k]
	if ok {
		c.ll.MoveToFront(el)
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		metrics.IncShadowCacheMisses()
		return false, false
	}
	c.hits.Add(1)
	metrics.IncShadowCacheHits()
	return el.Value.(*shadowEntry).inShadow, true
}

// store inserts or refreshes k, evicting the least recently used entry
// when the bound is exceeded.
func (c *ShadowCache) store(k shadowKey, inShadow bool) {
	c.mu.Lock()
	if el, ok := c.items[k]; ok {
		el.Value.(*shadowEntry).inShadow = inShadow
		c.ll.MoveToFront(el)
		c.mu.Unlock()
		return
	}

	c.items[k] = c.ll.PushFront(&shadowEntry{key: k, inShadow: inShadow})

	var evicted bool
	if c.ll.Len() > c.max {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*shadowEntry).key)
		evicted = true
	}
	c.mu.Unlock()

	if evicted {
		c.evictions.Add(1)
		metrics.IncShadowCacheEvictions()
	}
}

// Clear drops all entries. Counters are preserved.
func (c *ShadowCache) Clear() {
	c.mu.Lock()
	c.ll.Init()
	c.items = make(map[shadowKey]*list.Element)
	c.mu.Unlock()
}

// Len returns the current entry count.
func (c *ShadowCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// CacheStats holds cache counters for stats reporting.
type CacheStats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Stats returns a snapshot of the cache counters.
func (c *ShadowCache) Stats() CacheStats {
	return CacheStats{
		Entries:   c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
