package assets

import "sync"

// DefaultCacheBytes bounds the file cache. Wall textures and sounds are
// small; whole maps are forgotten by their loader once parsed.
const DefaultCacheBytes = 32 << 20

// CacheStats are the counters of a Cache.
type CacheStats struct {
	Hits    int
	Misses  int
	Entries int
	Bytes   int64
}

// Cache holds whole files up to a total size. When full, the oldest entries
// are evicted first.
type Cache struct {
	mu    sync.Mutex
	limit int64
	data  map[string][]byte
	order []string
	stats CacheStats
}

// NewCache creates a cache holding at most limit bytes.
func NewCache(limit int64) *Cache {
	return &Cache{
		limit: limit,
		data:  make(map[string][]byte),
	}
}

// Get returns a cached file and counts the hit or miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return data, ok
}

// Set stores a file. Files larger than the whole cache are not kept.
func (c *Cache) Set(key string, data []byte) {
	size := int64(len(data))
	if size > c.limit {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.deleteLocked(key)
	for c.stats.Bytes+size > c.limit && len(c.order) > 0 {
		c.deleteLocked(c.order[0])
	}
	c.data[key] = data
	c.order = append(c.order, key)
	c.stats.Bytes += size
	c.stats.Entries++
}

// Delete drops one file.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(key)
}

func (c *Cache) deleteLocked(key string) {
	data, ok := c.data[key]
	if !ok {
		return
	}
	delete(c.data, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.stats.Bytes -= int64(len(data))
	c.stats.Entries--
}

// Clear empties the cache and keeps the hit and miss counts.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.order = nil
	c.stats.Bytes = 0
	c.stats.Entries = 0
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
