// internal/cache/cache.go
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	urlutil "github.com/law-makers/leadcrawl/internal/utils/url"
	"github.com/rs/zerolog/log"
)

// Cache stores harvested e-mail lists per website so that chains sharing one
// domain are crawled once per run.
type Cache interface {
	// Get returns the cached addresses for key. An empty, non-nil slice is a
	// cached "nothing found" result.
	Get(key string) ([]string, bool)

	// Set stores addresses under key for ttl, replacing any previous entry.
	Set(key string, emails []string, ttl time.Duration) error

	// Delete removes key. Missing keys are not an error.
	Delete(key string) error

	// Clear drops every entry.
	Clear() error

	// Close stops background cleanup.
	Close()
}

type cacheEntry struct {
	Emails    []string
	ExpiresAt time.Time
	Key       string
}

// MemoryCache is an in-memory Cache with LRU eviction by entry count.
type MemoryCache struct {
	store      map[string]*list.Element
	lruList    *list.List
	mu         sync.Mutex
	maxEntries int
	ctx        context.Context
	cancel     context.CancelFunc
	hits       uint64
	misses     uint64
	now        func() time.Time
}

// NewMemoryCache creates a cache holding at most maxEntries websites.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}

	ctx, cancel := context.WithCancel(context.Background())

	cache := &MemoryCache{
		store:      make(map[string]*list.Element),
		lruList:    list.New(),
		maxEntries: maxEntries,
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves cached addresses and marks the entry as recently used.
func (mc *MemoryCache) Get(key string) ([]string, bool) {
	mc.mu.Lock()
	element, exists := mc.store[key]
	if !exists {
		mc.misses++
		mc.mu.Unlock()
		return nil, false
	}

	entry := element.Value.(*cacheEntry)

	if mc.now().After(entry.ExpiresAt) {
		mc.misses++
		mc.lruList.Remove(element)
		delete(mc.store, key)
		mc.mu.Unlock()
		return nil, false
	}

	mc.lruList.MoveToFront(element)
	mc.hits++
	out := append([]string{}, entry.Emails...)
	mc.mu.Unlock()

	log.Debug().Str("key", key).Int("emails", len(out)).Msg("Cache hit")
	return out, true
}

// Set stores addresses with a TTL.
func (mc *MemoryCache) Set(key string, emails []string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry := &cacheEntry{
		Emails:    append([]string{}, emails...),
		ExpiresAt: mc.now().Add(ttl),
		Key:       key,
	}

	if element, exists := mc.store[key]; exists {
		element.Value = entry
		mc.lruList.MoveToFront(element)
		log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Updated cache entry")
		return nil
	}

	for mc.lruList.Len() >= mc.maxEntries {
		mc.evictLRU()
	}

	mc.store[key] = mc.lruList.PushFront(entry)

	log.Debug().
		Str("key", key).
		Dur("ttl", ttl).
		Int("emails", len(emails)).
		Msg("Cached website emails")

	return nil
}

// Delete removes a cached entry.
func (mc *MemoryCache) Delete(key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if element, exists := mc.store[key]; exists {
		mc.lruList.Remove(element)
		delete(mc.store, key)
		log.Debug().Str("key", key).Msg("Deleted from cache")
	}

	return nil
}

// Clear removes all entries and resets counters.
func (mc *MemoryCache) Clear() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.store = make(map[string]*list.Element)
	mc.lruList = list.New()
	mc.hits = 0
	mc.misses = 0

	log.Debug().Msg("Cache cleared")
	return nil
}

// Close stops the background cleanup goroutine.
func (mc *MemoryCache) Close() {
	mc.cancel()
	log.Debug().Msg("Cache closed")
}

// evictLRU must be called with the lock held.
func (mc *MemoryCache) evictLRU() {
	element := mc.lruList.Back()
	if element == nil {
		return
	}

	entry := element.Value.(*cacheEntry)
	mc.lruList.Remove(element)
	delete(mc.store, entry.Key)

	log.Debug().Str("key", entry.Key).Msg("Evicted from cache (LRU)")
}

func (mc *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mu.Lock()
			now := mc.now()

			var next *list.Element
			for element := mc.lruList.Front(); element != nil; element = next {
				next = element.Next()
				entry := element.Value.(*cacheEntry)
				if now.After(entry.ExpiresAt) {
					mc.lruList.Remove(element)
					delete(mc.store, entry.Key)
				}
			}
			mc.mu.Unlock()
		case <-mc.ctx.Done():
			return
		}
	}
}

// Stats returns entry count and hit rate.
func (mc *MemoryCache) Stats() map[string]interface{} {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	hitRate := 0.0
	total := mc.hits + mc.misses
	if total > 0 {
		hitRate = float64(mc.hits) / float64(total) * 100
	}

	return map[string]interface{}{
		"entries":     mc.lruList.Len(),
		"max_entries": mc.maxEntries,
		"hits":        mc.hits,
		"misses":      mc.misses,
		"hit_rate":    hitRate,
	}
}

// KeyFromURL keys a website by its registrable domain so www. and shop.
// variants share one entry.
func KeyFromURL(rawURL string) string {
	if d := urlutil.RegistrableDomain(rawURL); d != "" {
		return d
	}
	return rawURL
}
