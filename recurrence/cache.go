package recurrence

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/routina/routina/dates"
)

// cacheEntry represents one cached expansion result.
type cacheEntry struct {
	keys       []dates.Key
	expiresAt  time.Time
	accessedAt time.Time
}

// OccurrenceCache caches Generate results. Materialization re-runs on every
// cursor move with mostly unchanged schedules and windows, so identical
// expansions repeat constantly; the cache key hashes every generation input
// so a stale hit is impossible.
type OccurrenceCache struct {
	entries         map[string]*cacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// CacheConfig holds configuration for the occurrence cache.
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before cleanup
	CleanupInterval time.Duration // How often to run cleanup
}

// DefaultCacheConfig provides sensible defaults for occurrence caching.
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewOccurrenceCache creates a new occurrence cache with the given
// configuration. Zero values fall back to DefaultCacheConfig.
func NewOccurrenceCache(config CacheConfig) *OccurrenceCache {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheConfig.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}

	cache := &OccurrenceCache{
		entries:         make(map[string]*cacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// cacheKey hashes all inputs that influence expansion.
func (c *OccurrenceCache) cacheKey(sched Schedule, window dates.Window) string {
	hasher := sha256.New()

	hasher.Write([]byte(sched.Start))
	hasher.Write([]byte(sched.Rule.Frequency))
	hasher.Write([]byte(strconv.Itoa(sched.Rule.Interval)))

	for _, wd := range sched.Rule.ByWeekday {
		hasher.Write([]byte{byte('W'), byte(wd)})
	}
	for _, md := range sched.Rule.ByMonthday {
		hasher.Write([]byte{byte('M'), byte(md)})
	}

	hasher.Write([]byte(sched.Rule.End.Type))
	hasher.Write([]byte(sched.Rule.End.OnDate))
	hasher.Write([]byte(strconv.Itoa(sched.Rule.End.Count)))

	for _, ex := range sched.Exceptions {
		hasher.Write([]byte{'X'})
		hasher.Write([]byte(ex))
	}

	hasher.Write([]byte(window.Start))
	hasher.Write([]byte(window.End))

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// Get retrieves a cached result if it exists and hasn't expired.
func (c *OccurrenceCache) Get(sched Schedule, window dates.Window) ([]dates.Key, bool) {
	key := c.cacheKey(sched, window)

	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	now := time.Now()
	if now.After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.entries, key)
		c.mutex.Unlock()
		return nil, false
	}

	c.mutex.Lock()
	entry.accessedAt = now
	c.mutex.Unlock()

	return entry.keys, true
}

// Set stores a result in the cache.
func (c *OccurrenceCache) Set(sched Schedule, window dates.Window, keys []dates.Key) {
	key := c.cacheKey(sched, window)
	now := time.Now()

	entry := &cacheEntry{
		keys:       keys,
		expiresAt:  now.Add(c.ttl),
		accessedAt: now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry

	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup removes expired entries and the least recently accessed entries
// when over the limit. Caller must hold the write lock.
func (c *OccurrenceCache) cleanup() {
	now := time.Now()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}

	if len(c.entries) > c.maxEntries {
		type keyAccess struct {
			key        string
			accessedAt time.Time
		}

		var keyAccessList []keyAccess
		for key, entry := range c.entries {
			keyAccessList = append(keyAccessList, keyAccess{
				key:        key,
				accessedAt: entry.accessedAt,
			})
		}

		// Sort by access time (oldest first)
		for i := 0; i < len(keyAccessList)-1; i++ {
			for j := i + 1; j < len(keyAccessList); j++ {
				if keyAccessList[i].accessedAt.After(keyAccessList[j].accessedAt) {
					keyAccessList[i], keyAccessList[j] = keyAccessList[j], keyAccessList[i]
				}
			}
		}

		entriesToRemove := len(c.entries) - c.maxEntries
		for i := 0; i < entriesToRemove && i < len(keyAccessList); i++ {
			delete(c.entries, keyAccessList[i].key)
		}
	}
}

// cleanupLoop runs periodic cleanup.
func (c *OccurrenceCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache.
func (c *OccurrenceCache) Close() {
	close(c.stopCleanup)
	c.mutex.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics.
func (c *OccurrenceCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entryCount := len(c.entries)
	expiredCount := 0
	now := time.Now()

	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			expiredCount++
		}
	}

	return CacheStats{
		TotalEntries:   entryCount,
		ExpiredEntries: expiredCount,
		ActiveEntries:  entryCount - expiredCount,
	}
}

// CacheStats provides information about cache usage.
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
