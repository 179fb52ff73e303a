// backend/cache/cache.go
package cache

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Cache is the in-process TTL key-value tier. Entries expire a fixed duration
// after Set; a periodic sweep removes expired entries and Get treats an
// expired-but-unswept entry as a miss. The cache is purely advisory: its
// absence changes latency and upstream load, never correctness.
//
// Values are stored without defensive copying. Callers must not mutate a
// returned value in place if they intend to re-read consistent state.
//
// Construct instances with New and pass them by reference; there is no
// package-level cache, so tests can run isolated instances.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration

	hits          int64
	misses        int64
	upstreamCalls int64

	now  func() time.Time
	stop chan struct{}
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of the process-wide cache counters.
// Counters reset only on process restart.
type Stats struct {
	Hits          int64  `json:"hits"`
	Misses        int64  `json:"misses"`
	UpstreamCalls int64  `json:"apiCalls"`
	HitRate       string `json:"hitRate"`
	Keys          int    `json:"keys"`
}

// New creates a cache with the given default TTL. If sweepInterval is
// positive, a background sweep removes expired entries on that cadence until
// Stop is called.
func New(defaultTTL, sweepInterval time.Duration) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	}
	return c
}

// Stop terminates the background sweep, if any.
func (c *Cache) Stop() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
}

// Get returns the cached value for key, or (nil, false) on a miss. An entry
// past its expiry counts as a miss even if the sweep has not removed it yet.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with a per-entry TTL override.
func (c *Cache) SetTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Delete removes a single key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DeleteMatching removes every key whose full string matches the glob
// pattern, where "*" matches any sequence of characters. Returns the number
// of keys removed.
func (c *Cache) DeleteMatching(pattern string) int {
	re, err := compileGlob(pattern)
	if err != nil {
		log.Printf("WARN Cache: invalid invalidation pattern %q: %v", pattern, err)
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k := range c.entries {
		if re.MatchString(k) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Flush removes all entries. Counters are preserved.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Keys returns all non-expired keys.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	keys := make([]string, 0, len(c.entries))
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// IncrementUpstreamCalls bumps the government-API call counter. The gateway
// calls this once per attempt group regardless of outcome.
func (c *Cache) IncrementUpstreamCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upstreamCalls++
}

// Stats reports the counters plus the hit rate as a percentage with two
// decimals ("0" when no lookups have happened yet).
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	hitRate := "0"
	if total > 0 {
		hitRate = fmt.Sprintf("%.2f", float64(c.hits)/float64(total)*100)
	}

	now := c.now()
	keys := 0
	for _, e := range c.entries {
		if !now.After(e.expiresAt) {
			keys++
		}
	}

	return Stats{
		Hits:          c.hits,
		Misses:        c.misses,
		UpstreamCalls: c.upstreamCalls,
		HitRate:       hitRate,
		Keys:          keys,
	}
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// compileGlob turns a "*"-glob into an anchored regexp, quoting everything
// else literally.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
}
