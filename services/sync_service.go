// backend/services/sync_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/gramdarpan/mgnrega/backend/cache"
	"github.com/gramdarpan/mgnrega/backend/config"
	"github.com/gramdarpan/mgnrega/backend/govapi"
	"github.com/gramdarpan/mgnrega/backend/models"
)

// SyncResult summarizes one refresh run.
type SyncResult struct {
	Period     string    `json:"period"`
	Districts  int       `json:"districts"`
	Saved      int       `json:"saved"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
}

// SyncService refreshes recently active districts from the upstream for the
// latest published period. One run at a time; per-district failures are
// collected and logged, never abort the run.
type SyncService struct {
	cache     *cache.Cache
	records   RecordStore
	gateway   UpstreamGateway
	snapshots SnapshotStore

	delay          time.Duration
	activeWindow   int
	activeLimit    int
	cleanupDays    int
	portalURL      string
	portalSelector string

	// Injection points for tests.
	checkPortal func(portalURL, selector string) (month string, year int, err error)
	sleep       func(ctx context.Context, d time.Duration)
	now         func() time.Time

	mu      sync.Mutex
	running bool
	lastRun *SyncResult
}

func NewSyncService(c *cache.Cache, records RecordStore, gateway UpstreamGateway, snapshots SnapshotStore) *SyncService {
	cfg := config.AppConfig
	return &SyncService{
		cache:          c,
		records:        records,
		gateway:        gateway,
		snapshots:      snapshots,
		delay:          time.Duration(cfg.DataFreshness.SyncDelayMs) * time.Millisecond,
		activeWindow:   cfg.DataFreshness.ActiveWindowDays,
		activeLimit:    cfg.DataFreshness.ActiveLimit,
		cleanupDays:    cfg.DataFreshness.CleanupDays,
		portalURL:      cfg.GovAPI.PortalURL,
		portalSelector: cfg.GovAPI.PortalPeriodSelector,
		checkPortal:    govapi.CheckLatestPeriod,
		sleep: func(ctx context.Context, d time.Duration) {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
			}
		},
		now: time.Now,
	}
}

// TriggerSync starts a refresh run in the background. A run already in
// progress is a conflict.
func (s *SyncService) TriggerSync() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return &models.ConflictError{Message: "a sync is already running"}
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		res := s.run(context.Background())
		s.mu.Lock()
		s.running = false
		s.lastRun = res
		s.mu.Unlock()
	}()
	return nil
}

// RunOnce runs a refresh synchronously. Used by the scheduler; a run already
// in progress is skipped.
func (s *SyncService) RunOnce(ctx context.Context) *SyncResult {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("Service: Sync: refresh already running, skipping this tick")
		return nil
	}
	s.running = true
	s.mu.Unlock()

	res := s.run(ctx)
	s.mu.Lock()
	s.running = false
	s.lastRun = res
	s.mu.Unlock()
	return res
}

// Status reports whether a run is in progress and the last run's summary.
func (s *SyncService) Status() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"running": s.running,
		"lastRun": s.lastRun,
	}
}

func (s *SyncService) run(ctx context.Context) *SyncResult {
	start := s.now()
	finYear, month := s.targetPeriod()
	result := &SyncResult{
		Period:    fmt.Sprintf("%s %s", finYear, month),
		StartedAt: start,
	}
	log.Printf("Service: Sync: refreshing active districts for %s", result.Period)

	active, err := s.records.ActiveDistricts(s.activeWindow, s.activeLimit)
	if err != nil {
		result.Error = err.Error()
		log.Printf("ERROR Service: Sync: active district query failed: %v", err)
		return result
	}
	result.Districts = len(active)
	if len(active) == 0 {
		log.Println("Service: Sync: no recently active districts, nothing to refresh")
		return result
	}

	snapID, err := s.snapshots.Create("etl", "")
	if err != nil {
		log.Printf("WARN Service: Sync: failed to open ingestion snapshot: %v", err)
		snapID = 0
	}

	var merr *multierror.Error
	for i, d := range active {
		if i > 0 {
			// Advisory pacing so the upstream never sees a burst.
			s.sleep(ctx, s.delay)
		}
		if ctx.Err() != nil {
			merr = multierror.Append(merr, ctx.Err())
			break
		}

		rec, err := s.gateway.FetchDistrictData(ctx, d.DistrictCode, d.StateName, finYear, month)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("district %s: %w", d.DistrictCode, err))
			log.Printf("WARN Service: Sync: refresh of district %s failed: %v", d.DistrictCode, err)
			continue
		}

		idx, err := PeriodIndex(rec.FinYear, rec.Month)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("district %s: %w", d.DistrictCode, err))
			continue
		}
		rec.PeriodIndex = idx
		rec.UpdatedAt = s.now()
		if err := s.records.SaveRecord(rec); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("district %s: %w", d.DistrictCode, err))
			continue
		}

		s.cache.DeleteMatching("*" + d.DistrictCode + "*")
		result.Saved++
	}
	result.Failed = result.Districts - result.Saved
	result.DurationMs = s.now().Sub(start).Milliseconds()

	if err := merr.ErrorOrNil(); err != nil {
		result.Error = err.Error()
	}
	if snapID != 0 {
		if err := s.snapshots.Finalize(snapID, result.Saved, merr.ErrorOrNil() == nil, result.Error, result.DurationMs); err != nil {
			log.Printf("WARN Service: Sync: failed to finalize snapshot %d: %v", snapID, err)
		}
	}

	log.Printf("Service: Sync: refreshed %d/%d districts in %dms", result.Saved, result.Districts, result.DurationMs)
	return result
}

// targetPeriod picks the period to refresh: the portal's latest published
// period when a portal is configured and reachable, the wall clock otherwise.
func (s *SyncService) targetPeriod() (finYear, month string) {
	if s.portalURL != "" && s.checkPortal != nil {
		m, y, err := s.checkPortal(s.portalURL, s.portalSelector)
		if err == nil {
			if ord, ok := MonthOrdinal(m); ok {
				if fy, mn, perr := PeriodFromCalendar(y, ord+1); perr == nil {
					return fy, mn
				}
			}
		} else {
			log.Printf("WARN Service: Sync: portal period check failed, using wall clock: %v", err)
		}
	}
	return CurrentPeriod(s.now())
}

// CleanupOldRecords drops records whose period is older than the retention
// window and flushes the cache when anything went away.
func (s *SyncService) CleanupOldRecords() error {
	cutoff := s.now().AddDate(0, 0, -s.cleanupDays)
	idx := CalendarIndex(cutoff.Year(), int(cutoff.Month()))

	n, err := s.records.DeleteBeforePeriod(idx)
	if err != nil {
		log.Printf("ERROR Service: Sync: cleanup failed: %v", err)
		return err
	}
	if n > 0 {
		s.cache.Flush()
		log.Printf("Service: Sync: removed %d records older than %d days", n, s.cleanupDays)
	}
	return nil
}
