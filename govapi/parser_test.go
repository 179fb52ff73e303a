// backend/govapi/parser_test.go
package govapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramdarpan/mgnrega/backend/models"
)

func baseRaw() map[string]any {
	return map[string]any{
		"district_code": "3116",
		"district_name": "PUNE",
		"state_code":    "31",
		"state_name":    "MAHARASHTRA",
		"fin_year":      "2024-2025",
		"month":         "Jan",
	}
}

func TestNormalizeMapsUpstreamKeys(t *testing.T) {
	raw := baseRaw()
	raw["Total_Households_Worked"] = "1,200"
	raw["percentage_payments_gererated_within_15_days"] = "98.5"
	raw["Approved_Labour_Budget"] = json.Number("500000")

	rec, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "3116", rec.DistrictCode)
	assert.Equal(t, "1,200", rec.TotalHouseholdsWorked)
	assert.Equal(t, "98.5", rec.PercentPaymentsWithin15Days)
	assert.Equal(t, "500000", rec.ApprovedLabourBudget)
	assert.Equal(t, "api", rec.FetchedFrom)
}

func TestNormalizeRejectsMissingIdentityFields(t *testing.T) {
	for _, missing := range requiredFields {
		raw := baseRaw()
		raw[missing] = "  "

		_, err := Normalize(raw)
		var ve *models.ValidationError
		assert.ErrorAs(t, err, &ve, "missing %s", missing)
	}
}

func TestNormalizeTrimsIdentityFields(t *testing.T) {
	raw := baseRaw()
	raw["district_code"] = " 3116 "
	raw["month"] = "Jan "

	rec, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "3116", rec.DistrictCode)
	assert.Equal(t, "Jan", rec.Month)
}

func TestToNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"NA", 0},
		{"n/a", 0},
		{"-", 0},
		{"12345", 12345},
		{"12,345", 12345},
		{"1,23,456.78", 123456.78},
		{" 98.5 ", 98.5},
		{"garbage", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToNumber(tc.in), "input %q", tc.in)
	}
}

func TestCheckLatestPeriod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="sidebar">Archive: January 2020</div>
			<div class="report-header"><h2>MGNREGA At a Glance</h2>
			<p>Data published for June 2025</p></div>
		</body></html>`))
	}))
	defer srv.Close()

	month, year, err := CheckLatestPeriod(srv.URL, "div.report-header")
	require.NoError(t, err)
	assert.Equal(t, "Jun", month)
	assert.Equal(t, 2025, year)
}

func TestCheckLatestPeriodNoLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Nothing here</p></body></html>`))
	}))
	defer srv.Close()

	_, _, err := CheckLatestPeriod(srv.URL, "")
	require.Error(t, err)
}
