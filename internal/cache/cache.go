// internal/cache/cache.go
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/parscrape/pkg/models"
)

// Cache stores reduced scrape responses keyed by request fingerprint.
type Cache interface {
	// Get returns the cached response and whether it was found and fresh.
	Get(key string) (*models.ScrapeResponse, bool)

	// Set stores a response for ttl, evicting older entries if needed.
	Set(key string, resp *models.ScrapeResponse, ttl time.Duration) error

	// Delete removes an entry; missing keys are not an error.
	Delete(key string) error

	// Clear removes all entries.
	Clear() error

	// Close stops background cleanup.
	Close()
}

type cacheEntry struct {
	Data      *models.ScrapeResponse
	ExpiresAt time.Time
	Key       string
	Size      int64
}

// MemoryCache is an in-memory LRU bounded by an approximate byte size.
type MemoryCache struct {
	store   map[string]*list.Element
	lruList *list.List
	mu      sync.Mutex
	maxSize int64
	size    int64
	ttl     time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	hits    uint64
	misses  uint64
}

// NewMemoryCache creates a cache holding roughly maxSizeBytes of responses.
// defaultTTL applies when Set is called with a non-positive ttl.
func NewMemoryCache(maxSizeBytes int64, defaultTTL time.Duration) *MemoryCache {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 100 * 1024 * 1024
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &MemoryCache{
		store:   make(map[string]*list.Element),
		lruList: list.New(),
		maxSize: maxSizeBytes,
		ttl:     defaultTTL,
		ctx:     ctx,
		cancel:  cancel,
	}

	go c.cleanupExpired(time.Minute)

	return c
}

// Get retrieves a cached response and marks it most recently used.
func (mc *MemoryCache) Get(key string) (*models.ScrapeResponse, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	element, exists := mc.store[key]
	if !exists {
		mc.misses++
		return nil, false
	}

	entry := element.Value.(*cacheEntry)
	if time.Now().After(entry.ExpiresAt) {
		mc.misses++
		mc.removeElement(element)
		return nil, false
	}

	mc.lruList.MoveToFront(element)
	mc.hits++

	log.Debug().Str("key", key).Msg("Cache hit")
	return entry.Data, true
}

// Set stores resp under key.
func (mc *MemoryCache) Set(key string, resp *models.ScrapeResponse, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = mc.ttl
	}
	size := estimateSize(resp)

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if element, exists := mc.store[key]; exists {
		mc.removeElement(element)
	}

	for mc.size+size > mc.maxSize && mc.lruList.Len() > 0 {
		mc.evictLRU()
	}

	entry := &cacheEntry{
		Data:      resp,
		ExpiresAt: time.Now().Add(ttl),
		Key:       key,
		Size:      size,
	}
	mc.store[key] = mc.lruList.PushFront(entry)
	mc.size += size

	log.Debug().
		Str("key", key).
		Dur("ttl", ttl).
		Int64("size_bytes", size).
		Msg("Cached response")

	return nil
}

// Delete removes a cached response
func (mc *MemoryCache) Delete(key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if element, exists := mc.store[key]; exists {
		mc.removeElement(element)
	}
	return nil
}

// Clear removes all cached responses
func (mc *MemoryCache) Clear() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.store = make(map[string]*list.Element)
	mc.lruList = list.New()
	mc.size = 0
	mc.hits = 0
	mc.misses = 0
	return nil
}

// Close stops the background cleanup goroutine
func (mc *MemoryCache) Close() {
	mc.cancel()
}

// removeElement must be called with mu held.
func (mc *MemoryCache) removeElement(element *list.Element) {
	entry := element.Value.(*cacheEntry)
	mc.lruList.Remove(element)
	delete(mc.store, entry.Key)
	mc.size -= entry.Size
}

// evictLRU must be called with mu held.
func (mc *MemoryCache) evictLRU() {
	element := mc.lruList.Back()
	if element == nil {
		return
	}
	log.Debug().Str("key", element.Value.(*cacheEntry).Key).Msg("Evicted from cache (LRU)")
	mc.removeElement(element)
}

func (mc *MemoryCache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			now := time.Now()
			var next *list.Element
			for element := mc.lruList.Front(); element != nil; element = next {
				next = element.Next()
				if now.After(element.Value.(*cacheEntry).ExpiresAt) {
					mc.removeElement(element)
				}
			}
			mc.mu.Unlock()
		case <-mc.ctx.Done():
			return
		}
	}
}

// Stats reports entry count, size and hit rate.
func (mc *MemoryCache) Stats() map[string]interface{} {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	hitRate := 0.0
	if total := mc.hits + mc.misses; total > 0 {
		hitRate = float64(mc.hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"entries":    mc.lruList.Len(),
		"size_bytes": mc.size,
		"max_size":   mc.maxSize,
		"hits":       mc.hits,
		"misses":     mc.misses,
		"hit_rate":   hitRate,
	}
}

// estimateSize approximates the memory held by resp.
func estimateSize(resp *models.ScrapeResponse) int64 {
	size := int64(len(resp.URL) + len(resp.Text) + len(resp.Markdown) + len(resp.Title))
	for _, u := range resp.URLs {
		size += int64(len(u)) + 16
	}
	return size + 256
}
