// backend/govapi/client.go
package govapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gramdarpan/mgnrega/backend/config"
	"github.com/gramdarpan/mgnrega/backend/models"
	"github.com/gramdarpan/mgnrega/backend/retry"
)

// UpstreamCounter is the slice of the cache the client needs: one counter
// bumped per logical upstream call, successful or not.
type UpstreamCounter interface {
	IncrementUpstreamCalls()
}

// Client talks to the public government statistics API. Every fetch is
// wrapped in retry with exponential backoff, and each attempt races a
// timeout.
type Client struct {
	baseURL        string
	apiKey         string
	timeout        time.Duration
	maxRetries     int
	retryBaseDelay time.Duration
	recordLimit    int
	httpClient     *http.Client
	counter        UpstreamCounter
}

func NewClient(cfg config.GovAPIConfig, counter UpstreamCounter) *Client {
	return &Client{
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		timeout:        time.Duration(cfg.TimeoutMs) * time.Millisecond,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		recordLimit:    cfg.RecordLimit,
		// Per-attempt deadlines come from retry.WithTimeout, so the
		// transport itself carries none.
		httpClient: &http.Client{},
		counter:    counter,
	}
}

type apiResponse struct {
	Records []map[string]any `json:"records"`
	Total   int              `json:"total"`
}

// FetchDistrictData fetches the single record for one district and period.
// The upstream dataset is only filterable by state name, so the caller must
// resolve it first; a missing state name is a ValidationError and is never
// sent upstream.
func (c *Client) FetchDistrictData(ctx context.Context, districtCode, stateName, finYear, month string) (*models.Record, error) {
	if stateName == "" {
		return nil, &models.ValidationError{Message: "state name is required for an upstream fetch"}
	}

	start := time.Now()
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.recordLimit))
	params.Set("filters[state_name]", stateName)
	params.Set("filters[fin_year]", finYear)
	params.Set("filters[district_code]", districtCode)
	params.Set("filters[month]", month)

	resp, err := c.fetch(ctx, params)
	if err != nil {
		log.Printf("ERROR Service: GovAPI: fetch for district %s (%s %s) failed: %v", districtCode, finYear, month, err)
		return nil, err
	}
	if len(resp.Records) == 0 {
		return nil, &models.NotFoundError{
			Resource: "record",
			Message:  fmt.Sprintf("no upstream data for district %s (%s %s)", districtCode, finYear, month),
		}
	}

	rec, err := Normalize(resp.Records[0])
	if err != nil {
		return nil, err
	}
	log.Printf("Service: GovAPI: fetched district %s (%s %s) in %s", districtCode, finYear, month, time.Since(start).Round(time.Millisecond))
	return rec, nil
}

// FetchDistricts discovers the districts of a state from its record set.
// The upstream pages can repeat a district across periods; duplicates are
// collapsed by code keeping the last occurrence seen.
func (c *Client) FetchDistricts(ctx context.Context, stateName string) ([]models.District, error) {
	if stateName == "" {
		return nil, &models.ValidationError{Message: "state name is required to discover districts"}
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.recordLimit))
	params.Set("filters[state_name]", stateName)

	resp, err := c.fetch(ctx, params)
	if err != nil {
		log.Printf("ERROR Service: GovAPI: district discovery for %s failed: %v", stateName, err)
		return nil, err
	}

	var order []string
	byCode := make(map[string]models.District)
	for _, raw := range resp.Records {
		code := stringify(raw["district_code"])
		name := stringify(raw["district_name"])
		if code == "" || name == "" {
			continue
		}
		if _, seen := byCode[code]; !seen {
			order = append(order, code)
		}
		byCode[code] = models.District{
			DistrictCode: code,
			DistrictName: name,
			StateCode:    stringify(raw["state_code"]),
			StateName:    stringify(raw["state_name"]),
		}
	}

	districts := make([]models.District, 0, len(order))
	for _, code := range order {
		districts = append(districts, byCode[code])
	}
	log.Printf("Service: GovAPI: discovered %d districts for %s", len(districts), stateName)
	return districts, nil
}

// FetchStates samples the dataset and extracts the distinct states present.
func (c *Client) FetchStates(ctx context.Context) ([]models.State, error) {
	params := url.Values{}
	params.Set("limit", "100")

	resp, err := c.fetch(ctx, params)
	if err != nil {
		log.Printf("ERROR Service: GovAPI: state discovery failed: %v", err)
		return nil, err
	}

	var order []string
	byCode := make(map[string]models.State)
	for _, raw := range resp.Records {
		code := stringify(raw["state_code"])
		name := stringify(raw["state_name"])
		if code == "" || name == "" {
			continue
		}
		if _, seen := byCode[code]; !seen {
			order = append(order, code)
		}
		byCode[code] = models.State{StateCode: code, StateName: name}
	}

	states := make([]models.State, 0, len(order))
	for _, code := range order {
		states = append(states, byCode[code])
	}
	return states, nil
}

// fetch runs one logical upstream call: counter bump, then retried,
// timeout-raced GETs. Exhausted retries surface as an UpstreamError whose
// Timeout flag reflects whether the last failure was the timer winning.
func (c *Client) fetch(ctx context.Context, params url.Values) (*apiResponse, error) {
	if c.counter != nil {
		c.counter.IncrementUpstreamCalls()
	}

	resp, err := retry.Do(ctx, c.maxRetries, c.retryBaseDelay, func(ctx context.Context) (*apiResponse, error) {
		return retry.WithTimeout(ctx, c.timeout, func(ctx context.Context) (*apiResponse, error) {
			return c.doGet(ctx, params)
		})
	})
	if err != nil {
		var te *retry.TimeoutError
		return nil, &models.UpstreamError{Message: err.Error(), Timeout: errors.As(err, &te)}
	}
	return resp, nil
}

func (c *Client) doGet(ctx context.Context, params url.Values) (*apiResponse, error) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("api-key", c.apiKey)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", res.StatusCode)
	}

	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	var out apiResponse
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}
	return &out, nil
}
