// backend/jobs/scheduler.go
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/gramdarpan/mgnrega/backend/config"
	"github.com/gramdarpan/mgnrega/backend/services"
)

// Scheduler drives the background maintenance loops on plain tickers: a
// daily refresh of active districts, periodic adaptive cache warming, and
// retention cleanup.
type Scheduler struct {
	districts *services.DistrictService
	sync      *services.SyncService

	refreshInterval time.Duration
	warmInterval    time.Duration
	cleanupInterval time.Duration

	warmHitRate float64
	warmMaxKeys int
	warmTop     int

	stop chan struct{}
}

func NewScheduler(districts *services.DistrictService, sync *services.SyncService) *Scheduler {
	cfg := config.AppConfig
	return &Scheduler{
		districts:       districts,
		sync:            sync,
		refreshInterval: cfg.Jobs.RefreshInterval,
		warmInterval:    cfg.Jobs.WarmInterval,
		cleanupInterval: cfg.Jobs.CleanupInterval,
		warmHitRate:     cfg.Cache.WarmHitRatePercent,
		warmMaxKeys:     cfg.Cache.WarmMaxKeys,
		warmTop:         cfg.Cache.WarmTopDistricts,
		stop:            make(chan struct{}),
	}
}

// Start launches the loops. Each loop runs until Stop.
func (s *Scheduler) Start() {
	log.Printf("Jobs: scheduler starting (refresh %s, warm %s, cleanup %s)",
		s.refreshInterval, s.warmInterval, s.cleanupInterval)
	go s.loop(s.refreshInterval, s.refreshTick)
	go s.loop(s.warmInterval, s.warmTick)
	go s.loop(s.cleanupInterval, s.cleanupTick)
}

// Stop halts all loops. In-flight ticks finish on their own.
func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) loop(interval time.Duration, tick func()) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			tick()
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) refreshTick() {
	if res := s.sync.RunOnce(context.Background()); res != nil && res.Error != "" {
		log.Printf("WARN Jobs: scheduled refresh finished with errors: %s", res.Error)
	}
}

func (s *Scheduler) warmTick() {
	s.districts.WarmCacheIfCold(context.Background(), s.warmHitRate, s.warmMaxKeys, s.warmTop)
}

func (s *Scheduler) cleanupTick() {
	if err := s.sync.CleanupOldRecords(); err != nil {
		log.Printf("WARN Jobs: scheduled cleanup failed: %v", err)
	}
}
