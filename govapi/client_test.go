// backend/govapi/client_test.go
package govapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramdarpan/mgnrega/backend/config"
	"github.com/gramdarpan/mgnrega/backend/models"
)

type fakeCounter struct{ n int64 }

func (f *fakeCounter) IncrementUpstreamCalls() { atomic.AddInt64(&f.n, 1) }

func newTestClient(serverURL string, counter UpstreamCounter) *Client {
	return NewClient(config.GovAPIConfig{
		BaseURL:          serverURL,
		APIKey:           "test-key",
		TimeoutMs:        2000,
		MaxRetries:       3,
		RetryBaseDelayMs: 1,
		RecordLimit:      50,
	}, counter)
}

const recordJSON = `{
	"district_code": "3116", "district_name": "PUNE",
	"state_code": "31", "state_name": "MAHARASHTRA",
	"fin_year": "2024-2025", "month": "Jan",
	"Total_Households_Worked": "12,345",
	"Approved_Labour_Budget": 500000
}`

func TestFetchDistrictDataRetriesThenSucceeds(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&requests, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "MAHARASHTRA", r.URL.Query().Get("filters[state_name]"))
		assert.Equal(t, "3116", r.URL.Query().Get("filters[district_code]"))
		assert.Equal(t, "2024-2025", r.URL.Query().Get("filters[fin_year]"))
		assert.Equal(t, "Jan", r.URL.Query().Get("filters[month]"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"records": [` + recordJSON + `], "total": 1}`))
	}))
	defer srv.Close()

	counter := &fakeCounter{}
	c := newTestClient(srv.URL, counter)

	rec, err := c.FetchDistrictData(context.Background(), "3116", "MAHARASHTRA", "2024-2025", "Jan")
	require.NoError(t, err)
	assert.Equal(t, int64(3), atomic.LoadInt64(&requests), "two failures then a success")
	assert.Equal(t, int64(1), atomic.LoadInt64(&counter.n), "one logical upstream call, not one per attempt")

	assert.Equal(t, "PUNE", rec.DistrictName)
	assert.Equal(t, "12,345", rec.TotalHouseholdsWorked, "upstream strings preserved verbatim")
	assert.Equal(t, "500000", rec.ApprovedLabourBudget, "numeric values stringified")
	assert.Equal(t, "api", rec.FetchedFrom)
}

func TestFetchDistrictDataExhaustedRetries(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	counter := &fakeCounter{}
	c := newTestClient(srv.URL, counter)

	_, err := c.FetchDistrictData(context.Background(), "3116", "MAHARASHTRA", "2024-2025", "Jan")

	var ue *models.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.False(t, ue.Timeout)
	assert.Equal(t, int64(3), atomic.LoadInt64(&requests))
	assert.Equal(t, int64(1), atomic.LoadInt64(&counter.n), "failures still count as one upstream call")
}

func TestFetchDistrictDataTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"records": []}`))
	}))
	defer srv.Close()

	c := NewClient(config.GovAPIConfig{
		BaseURL:          srv.URL,
		TimeoutMs:        20,
		MaxRetries:       1,
		RetryBaseDelayMs: 1,
		RecordLimit:      50,
	}, nil)

	_, err := c.FetchDistrictData(context.Background(), "3116", "MAHARASHTRA", "2024-2025", "Jan")

	var ue *models.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Timeout)
}

func TestFetchDistrictDataEmptyResultIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records": [], "total": 0}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCounter{})

	_, err := c.FetchDistrictData(context.Background(), "9999", "MAHARASHTRA", "2024-2025", "Jan")

	var nfe *models.NotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestFetchDistrictDataMissingStateNameNeverCallsUpstream(t *testing.T) {
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
	}))
	defer srv.Close()

	counter := &fakeCounter{}
	c := newTestClient(srv.URL, counter)

	_, err := c.FetchDistrictData(context.Background(), "3116", "", "2024-2025", "Jan")

	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, atomic.LoadInt64(&requests))
	assert.Zero(t, atomic.LoadInt64(&counter.n))
}

func TestFetchDistrictsDeduplicatesByCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records": [
			{"district_code": "3116", "district_name": "PUNE", "state_code": "31", "state_name": "MAHARASHTRA"},
			{"district_code": "3117", "district_name": "SATARA", "state_code": "31", "state_name": "MAHARASHTRA"},
			{"district_code": "3116", "district_name": "PUNE (UPDATED)", "state_code": "31", "state_name": "MAHARASHTRA"},
			{"district_code": "", "district_name": "BROKEN", "state_code": "31", "state_name": "MAHARASHTRA"}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCounter{})

	districts, err := c.FetchDistricts(context.Background(), "MAHARASHTRA")
	require.NoError(t, err)
	require.Len(t, districts, 2)
	assert.Equal(t, "3116", districts[0].DistrictCode)
	assert.Equal(t, "PUNE (UPDATED)", districts[0].DistrictName, "last occurrence wins")
	assert.Equal(t, "3117", districts[1].DistrictCode)
}

func TestFetchStates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"records": [
			{"state_code": "31", "state_name": "MAHARASHTRA"},
			{"state_code": "09", "state_name": "UTTAR PRADESH"},
			{"state_code": "31", "state_name": "MAHARASHTRA"}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &fakeCounter{})

	states, err := c.FetchStates(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "MAHARASHTRA", states[0].StateName)
	assert.Equal(t, "09", states[1].StateCode)
}
