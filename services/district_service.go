// backend/services/district_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gramdarpan/mgnrega/backend/cache"
	"github.com/gramdarpan/mgnrega/backend/config"
	"github.com/gramdarpan/mgnrega/backend/govapi"
	"github.com/gramdarpan/mgnrega/backend/models"
)

// RecordStore is the slice of the record table the orchestrator needs.
type RecordStore interface {
	SaveRecord(r *models.Record) error
	GetRecord(districtCode, finYear, month string) (*models.Record, error)
	GetRecordRange(districtCode string, startIndex, endIndex int) ([]models.Record, error)
	GetRecentForDistrict(districtCode string, limit int) ([]models.Record, error)
	GetLatestForDistrict(districtCode string) (*models.Record, error)
	GetLatestGlobal(limit int) ([]models.Record, error)
	StateAverage(stateCode string) (*models.StateAverage, error)
	ActiveDistricts(windowDays, limit int) ([]models.ActiveDistrict, error)
	DeleteBeforePeriod(periodIndex int) (int64, error)
	CountRecords() (int64, error)
}

// DistrictRegistry is the district and state registry surface.
type DistrictRegistry interface {
	UpsertDistricts(districts []models.District) (int, error)
	GetDistrict(districtCode string) (*models.District, error)
	GetDistrictsByState(stateCode string) ([]models.District, error)
	UpsertStates(states []models.State) (int, error)
	GetState(stateCode string) (*models.State, error)
	ListStates() ([]models.State, error)
	CountDistricts() (int64, error)
}

// UpstreamGateway is the government API surface the orchestrator consumes.
type UpstreamGateway interface {
	FetchDistrictData(ctx context.Context, districtCode, stateName, finYear, month string) (*models.Record, error)
	FetchDistricts(ctx context.Context, stateName string) ([]models.District, error)
	FetchStates(ctx context.Context) ([]models.State, error)
}

// DistrictService orchestrates every read across the three tiers: cache,
// database, upstream API. It owns the freshness policy and the fallback
// chain, and stamps each result with the tier that produced it.
type DistrictService struct {
	cache    *cache.Cache
	records  RecordStore
	registry DistrictRegistry
	gateway  UpstreamGateway

	refreshDays   int
	hotTTL        time.Duration
	historicalTTL time.Duration
	districtsTTL  time.Duration
	comparisonTTL time.Duration
	activeWindow  int

	now   func() time.Time
	group singleflight.Group
}

func NewDistrictService(c *cache.Cache, records RecordStore, registry DistrictRegistry, gateway UpstreamGateway) *DistrictService {
	cfg := config.AppConfig
	return &DistrictService{
		cache:         c,
		records:       records,
		registry:      registry,
		gateway:       gateway,
		refreshDays:   cfg.DataFreshness.RefreshDays,
		hotTTL:        time.Duration(cfg.Cache.HotTTLSeconds) * time.Second,
		historicalTTL: time.Duration(cfg.Cache.HistoricalTTLSeconds) * time.Second,
		districtsTTL:  time.Duration(cfg.Cache.DistrictsTTLSeconds) * time.Second,
		comparisonTTL: time.Duration(cfg.Cache.ComparisonTTLSeconds) * time.Second,
		activeWindow:  cfg.DataFreshness.ActiveWindowDays,
		now:           time.Now,
	}
}

// GetDistrictData serves one (district, period) record through the tier
// chain: cache hit, fresh database row, upstream fetch, stale-data fallback.
// Concurrent misses on the same key are coalesced so the upstream sees one
// call.
func (s *DistrictService) GetDistrictData(ctx context.Context, districtCode, finYear, month string) (*models.ServiceResult, error) {
	key := cache.DistrictDataKey(districtCode, finYear, month)
	if v, ok := s.cache.Get(key); ok {
		return &models.ServiceResult{Success: true, Source: models.SourceCache, Data: v}, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.fetchDistrictData(ctx, key, districtCode, finYear, month)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ServiceResult), nil
}

func (s *DistrictService) fetchDistrictData(ctx context.Context, key, districtCode, finYear, month string) (*models.ServiceResult, error) {
	dbRec, err := s.records.GetRecord(districtCode, finYear, month)
	if err != nil {
		// A broken database still leaves the upstream tier; degrade rather
		// than fail the request here.
		log.Printf("WARN Service: District: database lookup for %s failed, continuing to upstream: %v", key, err)
		dbRec = nil
	}

	if dbRec != nil && !IsStale(dbRec.UpdatedAt, s.refreshDays, s.now()) {
		s.cache.SetTTL(key, dbRec, s.ttlForPeriod(finYear, month))
		return &models.ServiceResult{Success: true, Source: models.SourceDatabase, Data: dbRec}, nil
	}

	if dbRec != nil {
		log.Printf("Service: District: data for %s is older than %d days, refreshing from upstream", key, s.refreshDays)
	}

	stateName := s.resolveStateName(districtCode, dbRec)
	fresh, fetchErr := s.gateway.FetchDistrictData(ctx, districtCode, stateName, finYear, month)
	if fetchErr == nil {
		s.storeFetched(fresh)
		s.cache.SetTTL(key, fresh, s.ttlForPeriod(finYear, month))
		return &models.ServiceResult{Success: true, Source: models.SourceAPI, Data: fresh}, nil
	}
	log.Printf("WARN Service: District: upstream fetch for %s failed: %v", key, fetchErr)

	// Fallback chain: the stale exact record, then the district's latest
	// known record. Fallback results are never cached so the next request
	// retries the upstream.
	if dbRec != nil {
		return &models.ServiceResult{
			Success: true,
			Source:  models.SourceDatabaseFallback,
			Data:    dbRec,
			Message: "upstream unavailable, serving last known data",
		}, nil
	}
	if latest, lerr := s.records.GetLatestForDistrict(districtCode); lerr == nil && latest != nil {
		return &models.ServiceResult{
			Success: true,
			Source:  models.SourceDatabaseFallback,
			Data:    latest,
			Message: fmt.Sprintf("no data for %s %s, serving latest available period (%s %s)", finYear, month, latest.FinYear, latest.Month),
		}, nil
	}

	return nil, fetchErr
}

// storeFetched persists an upstream record and auto-registers its district.
// Persistence failures are logged, not fatal: the caller already holds the
// data.
func (s *DistrictService) storeFetched(rec *models.Record) {
	idx, err := PeriodIndex(rec.FinYear, rec.Month)
	if err != nil {
		log.Printf("WARN Service: District: upstream record for %s has unusable period (%s %s): %v", rec.DistrictCode, rec.FinYear, rec.Month, err)
		return
	}
	rec.PeriodIndex = idx
	rec.UpdatedAt = s.now()

	if err := s.records.SaveRecord(rec); err != nil {
		log.Printf("ERROR Service: District: failed to persist record for %s: %v", rec.DistrictCode, err)
	}
	if _, err := s.registry.UpsertDistricts([]models.District{{
		DistrictCode: rec.DistrictCode,
		DistrictName: rec.DistrictName,
		StateCode:    rec.StateCode,
		StateName:    rec.StateName,
	}}); err != nil {
		log.Printf("WARN Service: District: failed to register district %s: %v", rec.DistrictCode, err)
	}
}

func (s *DistrictService) resolveStateName(districtCode string, dbRec *models.Record) string {
	if dbRec != nil && dbRec.StateName != "" {
		return dbRec.StateName
	}
	if d, err := s.registry.GetDistrict(districtCode); err == nil && d != nil {
		return d.StateName
	}
	return ""
}

func (s *DistrictService) ttlForPeriod(finYear, month string) time.Duration {
	if IsCurrentPeriod(finYear, month, s.now()) {
		return s.hotTTL
	}
	return s.historicalTTL
}

// GetHistory returns a district's records between two calendar months
// (inclusive, "YYYY-MM"), oldest first, with a trend summary once at least
// twelve points exist.
func (s *DistrictService) GetHistory(ctx context.Context, districtCode, start, end string) (*models.ServiceResult, error) {
	startYear, startMonth, err := ParseCalendar(start)
	if err != nil {
		return nil, err
	}
	endYear, endMonth, err := ParseCalendar(end)
	if err != nil {
		return nil, err
	}
	startIdx := CalendarIndex(startYear, startMonth)
	endIdx := CalendarIndex(endYear, endMonth)
	if startIdx > endIdx {
		return nil, &models.ValidationError{Message: "start period must not be after end period"}
	}

	key := cache.HistoryKey(districtCode, start, end)
	if v, ok := s.cache.Get(key); ok {
		return &models.ServiceResult{Success: true, Source: models.SourceCache, Data: v}, nil
	}

	recordsInRange, err := s.records.GetRecordRange(districtCode, startIdx, endIdx)
	if err != nil {
		return nil, err
	}
	if len(recordsInRange) == 0 {
		return nil, &models.NotFoundError{
			Resource: "history",
			Message:  fmt.Sprintf("no records for district %s between %s and %s", districtCode, start, end),
		}
	}

	resp := &models.HistoryResponse{
		DistrictCode: districtCode,
		Period:       models.PeriodRange{Start: start, End: end},
		DataPoints:   len(recordsInRange),
		Data:         recordsInRange,
		Trends:       computeTrends(recordsInRange),
	}
	s.cache.SetTTL(key, resp, s.historicalTTL)
	return &models.ServiceResult{Success: true, Source: models.SourceDatabase, Data: resp}, nil
}

// computeTrends compares the most recent six points against the six before
// them on Total_Households_Worked. Fewer than twelve points is not enough
// signal.
func computeTrends(recs []models.Record) *models.Trends {
	if len(recs) < 12 {
		return nil
	}

	recent := recs[len(recs)-6:]
	older := recs[len(recs)-12 : len(recs)-6]

	recentAvg := avgHouseholds(recent)
	olderAvg := avgHouseholds(older)

	var change float64
	if olderAvg != 0 {
		change = (recentAvg - olderAvg) / olderAvg * 100
	}

	trend := "stable"
	switch {
	case change > 5:
		trend = "increasing"
	case change < -5:
		trend = "decreasing"
	}

	return &models.Trends{
		RecentAverage:    recentAvg,
		OlderAverage:     olderAvg,
		PercentageChange: change,
		Trend:            trend,
	}
}

func avgHouseholds(recs []models.Record) float64 {
	if len(recs) == 0 {
		return 0
	}
	var sum float64
	for _, r := range recs {
		sum += govapi.ToNumber(r.TotalHouseholdsWorked)
	}
	return sum / float64(len(recs))
}

// GetComparison compares a district's recent average against its state's
// average over the primary indicators.
func (s *DistrictService) GetComparison(ctx context.Context, districtCode string) (*models.ServiceResult, error) {
	key := cache.ComparisonKey(districtCode)
	if v, ok := s.cache.Get(key); ok {
		return &models.ServiceResult{Success: true, Source: models.SourceCache, Data: v}, nil
	}

	recent, err := s.records.GetRecentForDistrict(districtCode, 6)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, &models.NotFoundError{
			Resource: "comparison",
			Message:  fmt.Sprintf("no records for district %s", districtCode),
		}
	}

	stateAvg, err := s.records.StateAverage(recent[0].StateCode)
	if err != nil {
		return nil, err
	}

	comp := &models.Comparison{StateAverage: *stateAvg}
	comp.District.Code = districtCode
	comp.District.Name = recent[0].DistrictName
	comp.District.RecentData = recent

	if stateAvg.AvgHouseholds > 0 {
		districtAvg := avgHouseholds(recent)
		index := (districtAvg - stateAvg.AvgHouseholds) / stateAvg.AvgHouseholds * 100
		status := "Average"
		switch {
		case index > 10:
			status = "Above Average"
		case index < -10:
			status = "Below Average"
		}
		comp.Performance = &models.Performance{
			DistrictAverage:  districtAvg,
			StateAverage:     stateAvg.AvgHouseholds,
			PerformanceIndex: index,
			Status:           status,
		}
	}

	s.cache.SetTTL(key, comp, s.comparisonTTL)
	return &models.ServiceResult{Success: true, Source: models.SourceDatabase, Data: comp}, nil
}

// ListDistricts returns a state's districts from the registry, discovering
// them from the upstream when the registry has none yet.
func (s *DistrictService) ListDistricts(ctx context.Context, stateCode string) (*models.ServiceResult, error) {
	key := cache.StateDistrictsKey(stateCode)
	if v, ok := s.cache.Get(key); ok {
		return &models.ServiceResult{Success: true, Source: models.SourceCache, Data: v}, nil
	}

	districts, err := s.registry.GetDistrictsByState(stateCode)
	if err != nil {
		return nil, err
	}
	if len(districts) > 0 {
		s.cache.SetTTL(key, districts, s.districtsTTL)
		return &models.ServiceResult{Success: true, Source: models.SourceDatabase, Data: districts}, nil
	}

	state, err := s.registry.GetState(stateCode)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, &models.NotFoundError{Resource: "state", Message: fmt.Sprintf("state %s is not registered", stateCode)}
	}

	discovered, err := s.gateway.FetchDistricts(ctx, state.StateName)
	if err != nil {
		return nil, err
	}
	if len(discovered) == 0 {
		return nil, &models.NotFoundError{Resource: "districts", Message: fmt.Sprintf("no districts found for state %s", stateCode)}
	}
	if _, err := s.registry.UpsertDistricts(discovered); err != nil {
		log.Printf("WARN Service: District: failed to register discovered districts for state %s: %v", stateCode, err)
	}

	s.cache.SetTTL(key, discovered, s.districtsTTL)
	return &models.ServiceResult{Success: true, Source: models.SourceAPI, Data: discovered}, nil
}

// ListStates returns the state registry.
func (s *DistrictService) ListStates(ctx context.Context) (*models.ServiceResult, error) {
	states, err := s.registry.ListStates()
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, &models.NotFoundError{Resource: "states", Message: "state registry is empty, bootstrap it first"}
	}
	return &models.ServiceResult{Success: true, Source: models.SourceDatabase, Data: states}, nil
}

// BootstrapStates discovers states from the upstream and registers them.
func (s *DistrictService) BootstrapStates(ctx context.Context) (int, error) {
	states, err := s.gateway.FetchStates(ctx)
	if err != nil {
		return 0, err
	}
	saved, err := s.registry.UpsertStates(states)
	if err != nil {
		return 0, err
	}
	log.Printf("Service: District: bootstrapped %d states", saved)
	return saved, nil
}

// PopularDistricts ranks districts by recent activity (a 7 day window).
func (s *DistrictService) PopularDistricts(ctx context.Context) (*models.ServiceResult, error) {
	key := cache.PopularDistrictsKey()
	if v, ok := s.cache.Get(key); ok {
		return &models.ServiceResult{Success: true, Source: models.SourceCache, Data: v}, nil
	}

	active, err := s.records.ActiveDistricts(7, 100)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		// A quiet window still deserves an answer: rank by the most recently
		// updated records instead. Not cached, so real activity takes over on
		// the next request.
		if fallback := s.latestKnownDistricts(100); len(fallback) > 0 {
			return &models.ServiceResult{
				Success: true,
				Source:  models.SourceDatabaseFallback,
				Data:    fallback,
				Message: "no recent activity, listing most recently updated districts",
			}, nil
		}
	}
	s.cache.Set(key, active)
	return &models.ServiceResult{Success: true, Source: models.SourceDatabase, Data: active}, nil
}

// latestKnownDistricts builds a district ranking from the most recently
// updated records, one entry per district, newest first.
func (s *DistrictService) latestKnownDistricts(limit int) []models.ActiveDistrict {
	latest, err := s.records.GetLatestGlobal(limit)
	if err != nil {
		log.Printf("WARN Service: District: latest-record fallback for popular districts failed: %v", err)
		return nil
	}
	seen := make(map[string]bool)
	var out []models.ActiveDistrict
	for _, r := range latest {
		if seen[r.DistrictCode] {
			continue
		}
		seen[r.DistrictCode] = true
		out = append(out, models.ActiveDistrict{
			DistrictCode: r.DistrictCode,
			DistrictName: r.DistrictName,
			StateName:    r.StateName,
			RecordCount:  1,
			LastUpdated:  r.UpdatedAt.Format(time.RFC3339),
		})
	}
	return out
}

// WarmCacheIfCold re-primes the cache for the most active districts when the
// hit rate has dropped below the threshold and the cache holds fewer than
// maxKeys entries. Returns how many districts were warmed.
func (s *DistrictService) WarmCacheIfCold(ctx context.Context, hitRatePercent float64, maxKeys, topDistricts int) int {
	stats := s.cache.Stats()
	total := stats.Hits + stats.Misses
	rate := 0.0
	if total > 0 {
		rate = float64(stats.Hits) / float64(total) * 100
	}
	if rate >= hitRatePercent || stats.Keys >= maxKeys {
		return 0
	}

	active, err := s.records.ActiveDistricts(s.activeWindow, topDistricts)
	if err != nil {
		log.Printf("WARN Service: District: cache warming skipped, active district query failed: %v", err)
		return 0
	}

	finYear, month := CurrentPeriod(s.now())
	warmed := 0
	for _, d := range active {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.GetDistrictData(ctx, d.DistrictCode, finYear, month); err != nil {
			log.Printf("WARN Service: District: warming %s failed: %v", d.DistrictCode, err)
			continue
		}
		warmed++
	}
	if warmed > 0 {
		log.Printf("Service: District: warmed cache for %d active districts", warmed)
	}
	return warmed
}

// InvalidateDistrict drops every cached entry touching a district after its
// data changes.
func (s *DistrictService) InvalidateDistrict(districtCode string) {
	removed := s.cache.DeleteMatching("*" + districtCode + "*")
	if removed > 0 {
		log.Printf("Service: District: invalidated %d cache entries for district %s", removed, districtCode)
	}
}
