package stitch

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// RenderCache caches rendered fragments with LRU eviction and TTL. Keys are
// content-derived, so a changed fragment or snippet simply misses.
type RenderCache struct {
	entries map[string]*cacheEntry
	head    *cacheEntry
	tail    *cacheEntry
	size    int64
	maxSize int64
	ttl     time.Duration
	hits    int64
	misses  int64
	mutex   sync.Mutex
}

type cacheEntry struct {
	key      string
	value    []byte
	cachedAt time.Time
	prev     *cacheEntry
	next     *cacheEntry
}

// NewRenderCache creates a cache bounded to maxSize bytes of rendered text
// with the given entry TTL.
func NewRenderCache(maxSize int64, ttl time.Duration) *RenderCache {
	return &RenderCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// CacheKey derives a cache key from the fragment content hash and the
// hashes of everything the fragment includes.
func CacheKey(fragmentHash string, includeHashes []string) string {
	digest := xxhash.New()
	digest.WriteString(fragmentHash)
	for _, h := range includeHashes {
		digest.WriteString("\x00")
		digest.WriteString(h)
	}
	return fmt.Sprintf("%016x", digest.Sum64())
}

// Get returns the cached rendering for key, if present and fresh.
func (c *RenderCache) Get(key string) ([]byte, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if c.ttl > 0 && time.Since(entry.cachedAt) > c.ttl {
		c.remove(entry)
		c.misses++
		return nil, false
	}

	c.moveToFront(entry)
	c.hits++

	return entry.value, true
}

// Set stores a rendering under key, evicting old entries as needed.
func (c *RenderCache) Set(key string, value []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, exists := c.entries[key]; exists {
		c.size += int64(len(value)) - int64(len(existing.value))
		existing.value = value
		existing.cachedAt = time.Now()
		c.moveToFront(existing)
		c.evict()
		return
	}

	entry := &cacheEntry{
		key:      key,
		value:    value,
		cachedAt: time.Now(),
	}
	c.entries[key] = entry
	c.size += int64(len(value))
	c.pushFront(entry)
	c.evict()
}

// Stats returns hit and miss counts since creation.
func (c *RenderCache) Stats() (hits, misses int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.hits, c.misses
}

// Clear empties the cache.
func (c *RenderCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.head = nil
	c.tail = nil
	c.size = 0
}

// evict removes least-recently-used entries until the cache fits maxSize.
// Callers must hold the mutex.
func (c *RenderCache) evict() {
	for c.size > c.maxSize && c.tail != nil {
		c.remove(c.tail)
	}
}

func (c *RenderCache) remove(entry *cacheEntry) {
	delete(c.entries, entry.key)
	c.size -= int64(len(entry.value))
	c.unlink(entry)
}

func (c *RenderCache) pushFront(entry *cacheEntry) {
	entry.next = c.head
	entry.prev = nil
	if c.head != nil {
		c.head.prev = entry
	}
	c.head = entry
	if c.tail == nil {
		c.tail = entry
	}
}

func (c *RenderCache) unlink(entry *cacheEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
	entry.prev = nil
	entry.next = nil
}

func (c *RenderCache) moveToFront(entry *cacheEntry) {
	if c.head == entry {
		return
	}
	c.unlink(entry)
	c.pushFront(entry)
}
