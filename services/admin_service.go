// backend/services/admin_service.go
package services

import (
	"fmt"
	"log"
	"time"

	"github.com/gramdarpan/mgnrega/backend/cache"
	"github.com/gramdarpan/mgnrega/backend/models"
)

// SnapshotStore is the ingestion audit surface.
type SnapshotStore interface {
	Create(source, rawData string) (int64, error)
	Finalize(id int64, recordCount int, success bool, errorMessage string, processingTimeMs int64) error
	Recent(limit, offset int) ([]models.Snapshot, error)
	CountSnapshots() (int64, error)
}

// AdminService backs the operator endpoints: bulk ingestion, cache control
// and system stats.
type AdminService struct {
	cache     *cache.Cache
	records   RecordStore
	registry  DistrictRegistry
	snapshots SnapshotStore
	now       func() time.Time
}

func NewAdminService(c *cache.Cache, records RecordStore, registry DistrictRegistry, snapshots SnapshotStore) *AdminService {
	return &AdminService{
		cache:     c,
		records:   records,
		registry:  registry,
		snapshots: snapshots,
		now:       time.Now,
	}
}

// UploadRecords ingests a batch of records one by one: each row is validated,
// upserted and its district auto-registered. Partial success is reported per
// record, never rolled back. The whole batch is audited as one snapshot.
func (s *AdminService) UploadRecords(recs []models.Record, source, rawPayload string) (*models.UploadResults, error) {
	if len(recs) == 0 {
		return nil, &models.ValidationError{Message: "no records in upload"}
	}

	start := s.now()
	snapID, err := s.snapshots.Create(source, rawPayload)
	if err != nil {
		log.Printf("WARN Service: Admin: failed to open ingestion snapshot: %v", err)
		snapID = 0
	}

	results := &models.UploadResults{}
	touched := map[string]bool{}
	for i := range recs {
		rec := &recs[i]
		if err := s.ingestOne(rec, source); err != nil {
			results.Failed++
			results.Errors = append(results.Errors, models.UploadError{
				Record: fmt.Sprintf("%s/%s/%s", rec.DistrictCode, rec.FinYear, rec.Month),
				Error:  err.Error(),
			})
			continue
		}
		results.Success++
		touched[rec.DistrictCode] = true
	}

	for code := range touched {
		s.cache.DeleteMatching("*" + code + "*")
	}

	if snapID != 0 {
		errMsg := ""
		if results.Failed > 0 {
			errMsg = fmt.Sprintf("%d of %d records failed", results.Failed, len(recs))
		}
		elapsed := s.now().Sub(start).Milliseconds()
		if err := s.snapshots.Finalize(snapID, results.Success, results.Failed == 0, errMsg, elapsed); err != nil {
			log.Printf("WARN Service: Admin: failed to finalize snapshot %d: %v", snapID, err)
		}
	}

	log.Printf("Service: Admin: ingested %d records (%d failed) from %s", results.Success, results.Failed, source)
	return results, nil
}

func (s *AdminService) ingestOne(rec *models.Record, source string) error {
	if rec.DistrictCode == "" || rec.DistrictName == "" || rec.StateCode == "" || rec.StateName == "" {
		return &models.ValidationError{Message: "district_code, district_name, state_code and state_name are required"}
	}

	idx, err := PeriodIndex(rec.FinYear, rec.Month)
	if err != nil {
		return err
	}
	rec.PeriodIndex = idx
	if rec.FetchedFrom == "" {
		rec.FetchedFrom = source
	}

	if err := s.records.SaveRecord(rec); err != nil {
		return err
	}
	if _, err := s.registry.UpsertDistricts([]models.District{{
		DistrictCode: rec.DistrictCode,
		DistrictName: rec.DistrictName,
		StateCode:    rec.StateCode,
		StateName:    rec.StateName,
	}}); err != nil {
		log.Printf("WARN Service: Admin: failed to register district %s: %v", rec.DistrictCode, err)
	}
	return nil
}

// ClearCache drops entries matching pattern, or everything when pattern is
// empty. Returns how many entries went away.
func (s *AdminService) ClearCache(pattern string) int {
	if pattern == "" {
		n := len(s.cache.Keys())
		s.cache.Flush()
		log.Printf("Service: Admin: flushed cache (%d entries)", n)
		return n
	}
	n := s.cache.DeleteMatching(pattern)
	log.Printf("Service: Admin: cleared %d cache entries matching %q", n, pattern)
	return n
}

// Stats assembles the system overview: cache counters plus store sizes and
// recently active districts.
func (s *AdminService) Stats() (map[string]any, error) {
	recordCount, err := s.records.CountRecords()
	if err != nil {
		return nil, err
	}
	districtCount, err := s.registry.CountDistricts()
	if err != nil {
		return nil, err
	}
	snapshotCount, err := s.snapshots.CountSnapshots()
	if err != nil {
		return nil, err
	}
	active, err := s.records.ActiveDistricts(7, 10)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"cache": s.cache.Stats(),
		"database": map[string]any{
			"records":   recordCount,
			"districts": districtCount,
			"snapshots": snapshotCount,
		},
		"activeDistricts": active,
	}, nil
}

// Snapshots pages through the ingestion audit trail, newest first.
func (s *AdminService) Snapshots(limit, offset int) ([]models.Snapshot, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.snapshots.Recent(limit, offset)
}
