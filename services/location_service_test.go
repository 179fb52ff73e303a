// backend/services/location_service_test.go
package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramdarpan/mgnrega/backend/cache"
)

func newTestLocationService(t *testing.T, lookupURL string) *LocationService {
	t.Helper()
	c := cache.New(5*time.Minute, 0)
	t.Cleanup(c.Stop)
	return &LocationService{
		cache:      c,
		httpClient: &http.Client{Timeout: time.Second},
		lookupURL:  lookupURL,
		ttl:        7 * 24 * time.Hour,
	}
}

func TestDetectResolvesStateCode(t *testing.T) {
	var lookups int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&lookups, 1)
		assert.Equal(t, "/203.0.113.9", r.URL.Path)
		w.Write([]byte(`{"status":"success","country":"India","regionName":"Maharashtra","city":"Pune"}`))
	}))
	defer srv.Close()

	s := newTestLocationService(t, srv.URL)

	loc := s.Detect(context.Background(), "203.0.113.9")
	require.NotNil(t, loc)
	assert.Equal(t, "Maharashtra", loc.State)
	assert.Equal(t, "27", loc.StateCode)
	assert.Equal(t, "Pune", loc.City)

	// Second lookup for the same IP is served from cache.
	loc = s.Detect(context.Background(), "203.0.113.9")
	require.NotNil(t, loc)
	assert.Equal(t, int64(1), atomic.LoadInt64(&lookups))
}

func TestDetectDegradesToNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail"}`))
	}))
	defer srv.Close()

	s := newTestLocationService(t, srv.URL)

	assert.Nil(t, s.Detect(context.Background(), "203.0.113.9"))
	assert.Nil(t, s.Detect(context.Background(), ""))
	assert.Empty(t, s.cache.Keys(), "failures are never cached")
}

func TestDetectUnknownRegionHasNoStateCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","country":"France","regionName":"Bretagne","city":"Rennes"}`))
	}))
	defer srv.Close()

	s := newTestLocationService(t, srv.URL)

	loc := s.Detect(context.Background(), "198.51.100.7")
	require.NotNil(t, loc)
	assert.Empty(t, loc.StateCode)
}
