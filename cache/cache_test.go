// backend/cache/cache_test.go
package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *time.Time) {
	t.Helper()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	c := New(5*time.Minute, 0) // no background sweep in tests
	c.now = func() time.Time { return now }
	t.Cleanup(c.Stop)
	return c, &now
}

func TestSetThenGet(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("district:D001:2024-2025:Jan", "payload")

	v, ok := c.Get("district:D001:2024-2025:Jan")
	require.True(t, ok)
	assert.Equal(t, "payload", v)
}

func TestExpiredEntryIsAMiss(t *testing.T) {
	c, now := newTestCache(t)

	c.SetTTL("k", "v", 30*time.Second)

	*now = now.Add(31 * time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok, "expired-but-unswept entry must behave as a miss")
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	c, now := newTestCache(t)

	c.SetTTL("old", "v", 10*time.Second)
	c.SetTTL("fresh", "v", 10*time.Minute)

	*now = now.Add(time.Minute)
	c.sweep()

	assert.ElementsMatch(t, []string{"fresh"}, c.Keys())
}

func TestDeleteMatching(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("district:D001:2024-2025:Jan", 1)
	c.Set("comparison:D001", 2)
	c.Set("district:D002:2024-2025:Jan", 3)
	c.Set("state:09:districts", 4)

	removed := c.DeleteMatching("*D001*")
	assert.Equal(t, 2, removed)

	for _, k := range c.Keys() {
		assert.NotContains(t, k, "D001")
	}
	assert.ElementsMatch(t, []string{"district:D002:2024-2025:Jan", "state:09:districts"}, c.Keys())
}

func TestDeleteMatchingQuotesRegexMeta(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("history:D001:2024-01:2024-12", 1)
	c.Set("history:D001x2024-01x2024-12", 2)

	// A literal dash/colon pattern must not be interpreted as regexp syntax.
	removed := c.DeleteMatching("history:D001:2024-01:2024-12")
	assert.Equal(t, 1, removed)
	assert.ElementsMatch(t, []string{"history:D001x2024-01x2024-12"}, c.Keys())
}

func TestFlush(t *testing.T) {
	c, _ := newTestCache(t)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Flush()
	assert.Empty(t, c.Keys())
}

func TestHitRate(t *testing.T) {
	c, _ := newTestCache(t)

	assert.Equal(t, "0", c.Stats().HitRate, "no lookups yet")

	c.Set("k", "v")
	for i := 0; i < 3; i++ {
		_, ok := c.Get("k")
		require.True(t, ok)
	}
	_, ok := c.Get("absent")
	require.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(3), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, "75.00", stats.HitRate)
	assert.Equal(t, 1, stats.Keys)
}

func TestUpstreamCallCounter(t *testing.T) {
	c, _ := newTestCache(t)

	c.IncrementUpstreamCalls()
	c.IncrementUpstreamCalls()
	assert.Equal(t, int64(2), c.Stats().UpstreamCalls)
}

func TestSetTTLZeroFallsBackToDefault(t *testing.T) {
	c, now := newTestCache(t)

	c.SetTTL("k", "v", 0)

	*now = now.Add(4 * time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry should live for the 5m default TTL")

	*now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "district:D001:2024-2025:Jan", DistrictDataKey("D001", "2024-2025", "Jan"))
	assert.Equal(t, "history:D001:2024-01:2024-12", HistoryKey("D001", "2024-01", "2024-12"))
	assert.Equal(t, "comparison:D001", ComparisonKey("D001"))
	assert.Equal(t, "state:09:districts", StateDistrictsKey("09"))
	assert.Equal(t, "location:203.0.113.9", LocationKey("203.0.113.9"))
	assert.Equal(t, "popular:districts", PopularDistrictsKey())

	// Distinct identities never collide.
	assert.NotEqual(t, DistrictDataKey("D001", "2024-2025", "Jan"), DistrictDataKey("D001", "2024-2025", "Jun"))
	assert.NotEqual(t, ComparisonKey("D001"), DistrictDataKey("D001", "2024-2025", "Jan"))
}
