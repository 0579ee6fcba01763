package eclipse

import "testing"

func key(id int, bucket int64) shadowKey {
	return shadowKey{catalogID: id, bucket: bucket}
}

func TestShadowCacheBasic(t *testing.T) {
	c := NewShadowCache(10)

	if _, ok := c.lookup(key(25544, 0)); ok {
		t.Fatal("lookup on empty cache reported a hit")
	}

	c.store(key(25544, 0), true)
	v, ok := c.lookup(key(25544, 0))
	if !ok || !v {
		t.Fatalf("lookup = (%v, %v), want (true, true)", v, ok)
	}

	// Same bucket, different satellite is a different entry.
	if _, ok := c.lookup(key(20580, 0)); ok {
		t.Fatal("catalog IDs must not share entries")
	}

	stats := c.Stats()
	if stats.Entries != 1 || stats.Hits != 1 || stats.Misses != 2 {
		t.Errorf("stats = %+v, want 1 entry, 1 hit, 2 misses", stats)
	}
}

func TestShadowCacheUpdateExisting(t *testing.T) {
	c := NewShadowCache(10)
	c.store(key(1, 0), true)
	c.store(key(1, 0), false)

	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
	if v, _ := c.lookup(key(1, 0)); v {
		t.Error("second store did not overwrite the value")
	}
}

func TestShadowCacheBound(t *testing.T) {
	c := NewShadowCache(100)
	for i := 0; i < 150; i++ {
		c.store(key(1, int64(i)), i%2 == 0)
	}

	if c.Len() != 100 {
		t.Errorf("Len = %d, want 100", c.Len())
	}
	if ev := c.Stats().Evictions; ev != 50 {
		t.Errorf("evictions = %d, want 50", ev)
	}

	// The oldest 50 are gone, the newest 100 remain.
	if _, ok := c.lookup(key(1, 0)); ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok := c.lookup(key(1, 149)); !ok {
		t.Error("newest entry was evicted")
	}
}

func TestShadowCacheLRUOrder(t *testing.T) {
	c := NewShadowCache(3)
	c.store(key(1, 1), true)
	c.store(key(1, 2), true)
	c.store(key(1, 3), true)

	// Touch the oldest entry so it becomes most recent.
	if _, ok := c.lookup(key(1, 1)); !ok {
		t.Fatal("entry 1 missing before eviction")
	}

	// Inserting a fourth entry must evict entry 2, not entry 1.
	c.store(key(1, 4), true)

	if _, ok := c.lookup(key(1, 1)); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.lookup(key(1, 2)); ok {
		t.Error("least recently used entry survived")
	}
	if _, ok := c.lookup(key(1, 3)); !ok {
		t.Error("entry 3 should have survived")
	}
	if _, ok := c.lookup(key(1, 4)); !ok {
		t.Error("entry 4 should have survived")
	}
}

func TestShadowCacheClear(t *testing.T) {
	c := NewShadowCache(10)
	c.store(key(1, 1), true)
	c.store(key(1, 2), false)
	c.lookup(key(1, 1))

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.lookup(key(1, 1)); ok {
		t.Error("entry survived Clear")
	}
	// Counters survive so hit rates stay meaningful across clears.
	if c.Stats().Hits != 1 {
		t.Errorf("hits after Clear = %d, want 1", c.Stats().Hits)
	}
}

func TestShadowCacheDefaultSize(t *testing.T) {
	c := NewShadowCache(0)
	if c.max != DefaultCacheSize {
		t.Errorf("max = %d, want %d", c.max, DefaultCacheSize)
	}
}

func BenchmarkShadowCacheLookup(b *testing.B) {
	c := NewShadowCache(DefaultCacheSize)
	for i := 0; i < DefaultCacheSize; i++ {
		c.store(key(25544, int64(i)), i%3 == 0)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.lookup(key(25544, int64(i%DefaultCacheSize)))
	}
}
