package report

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
)

type cacheEntry struct {
	once   sync.Once
	report *Report
	err    error
}

// Cache memoises reports by input. Each entry is computed exactly once and
// then shared read-only, so concurrent callers with the same key wait on the
// first computation instead of repeating it. There is no expiry: an entry is
// a pure function of its key.
type Cache struct {
	mu    sync.Mutex
	store map[string]*cacheEntry
}

var globalCache *Cache
var cacheOnce sync.Once

func NewCache() *Cache {
	return &Cache{store: make(map[string]*cacheEntry)}
}

// GetCache returns the process-wide cache, or nil when disabled with
// DISABLE_ANALYSIS_CACHE=true. All methods accept a nil *Cache.
func GetCache() *Cache {
	if os.Getenv("DISABLE_ANALYSIS_CACHE") == "true" {
		return nil
	}
	cacheOnce.Do(func() {
		globalCache = NewCache()
	})
	return globalCache
}

// GetOrCompute returns the report for key, running compute on first use.
// hit is true when the result came from an earlier call.
func (c *Cache) GetOrCompute(key string, compute func() (*Report, error)) (rep *Report, hit bool, err error) {
	if c == nil {
		rep, err = compute()
		return rep, false, err
	}

	c.mu.Lock()
	entry, exists := c.store[key]
	if !exists {
		entry = &cacheEntry{}
		c.store[key] = entry
	}
	c.mu.Unlock()

	hit = true
	entry.once.Do(func() {
		hit = false
		entry.report, entry.err = compute()
	})
	return entry.report, hit, entry.err
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*cacheEntry)
}

// CacheKey combines a series fingerprint and a config hash.
func CacheKey(fingerprint, configHash string) string {
	hash := sha256.Sum256([]byte(fingerprint + ":" + configHash))
	return hex.EncodeToString(hash[:])
}
