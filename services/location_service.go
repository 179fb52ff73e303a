// backend/services/location_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gramdarpan/mgnrega/backend/cache"
	"github.com/gramdarpan/mgnrega/backend/config"
	"github.com/gramdarpan/mgnrega/backend/models"
)

// stateCodes maps upstream state names to their census codes, used to
// preselect a state from a resolved request origin.
var stateCodes = map[string]string{
	"ANDHRA PRADESH":    "28",
	"ARUNACHAL PRADESH": "12",
	"ASSAM":             "18",
	"BIHAR":             "10",
	"CHHATTISGARH":      "22",
	"GOA":               "30",
	"GUJARAT":           "24",
	"HARYANA":           "06",
	"HIMACHAL PRADESH":  "02",
	"JHARKHAND":         "20",
	"KARNATAKA":         "29",
	"KERALA":            "32",
	"MADHYA PRADESH":    "23",
	"MAHARASHTRA":       "27",
	"MANIPUR":           "14",
	"MEGHALAYA":         "17",
	"MIZORAM":           "15",
	"NAGALAND":          "13",
	"ODISHA":            "21",
	"PUNJAB":            "03",
	"RAJASTHAN":         "08",
	"SIKKIM":            "11",
	"TAMIL NADU":        "33",
	"TELANGANA":         "36",
	"TRIPURA":           "16",
	"UTTAR PRADESH":     "09",
	"UTTARAKHAND":       "05",
	"WEST BENGAL":       "19",
	"JAMMU AND KASHMIR": "01",
	"LADAKH":            "37",
	"PUDUCHERRY":        "34",
	"DELHI":             "07",
}

// LocationService resolves a client IP to a state so the dashboard can
// preselect it. Resolution is best effort: every failure degrades to "no
// location", never to an error.
type LocationService struct {
	cache      *cache.Cache
	httpClient *http.Client
	lookupURL  string
	ttl        time.Duration
}

func NewLocationService(c *cache.Cache) *LocationService {
	return &LocationService{
		cache:      c,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		lookupURL:  "http://ip-api.com/json",
		ttl:        time.Duration(config.AppConfig.Cache.LocationTTLSeconds) * time.Second,
	}
}

type ipAPIResponse struct {
	Status     string `json:"status"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
}

// Detect resolves an IP to a Location, or nil when it cannot.
func (s *LocationService) Detect(ctx context.Context, ip string) *models.Location {
	if ip == "" {
		return nil
	}

	key := cache.LocationKey(ip)
	if v, ok := s.cache.Get(key); ok {
		if loc, ok := v.(*models.Location); ok {
			return loc
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s?fields=status,country,regionName,city", s.lookupURL, ip), nil)
	if err != nil {
		return nil
	}
	res, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("WARN Service: Location: lookup for %s failed: %v", ip, err)
		return nil
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.Printf("WARN Service: Location: lookup for %s returned status %d", ip, res.StatusCode)
		return nil
	}

	var body ipAPIResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		log.Printf("WARN Service: Location: failed to decode lookup response for %s: %v", ip, err)
		return nil
	}
	if body.Status != "success" {
		return nil
	}

	loc := &models.Location{
		State:     body.RegionName,
		StateCode: stateCodes[strings.ToUpper(body.RegionName)],
		City:      body.City,
		Country:   body.Country,
	}
	s.cache.SetTTL(key, loc, s.ttl)
	return loc
}
