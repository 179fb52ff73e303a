// backend/services/admin_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramdarpan/mgnrega/backend/cache"
	"github.com/gramdarpan/mgnrega/backend/models"
)

type fakeSnapshots struct {
	created   []string
	finalized []bool
	lastError string
	lastCount int
	recent    []models.Snapshot
}

func (f *fakeSnapshots) Create(source, rawData string) (int64, error) {
	f.created = append(f.created, source)
	return int64(len(f.created)), nil
}

func (f *fakeSnapshots) Finalize(id int64, recordCount int, success bool, errorMessage string, processingTimeMs int64) error {
	f.finalized = append(f.finalized, success)
	f.lastError = errorMessage
	f.lastCount = recordCount
	return nil
}

func (f *fakeSnapshots) Recent(limit, offset int) ([]models.Snapshot, error) {
	return f.recent, nil
}

func (f *fakeSnapshots) CountSnapshots() (int64, error) {
	return int64(len(f.created)), nil
}

func newTestAdminService(t *testing.T, fr *fakeRecords, freg *fakeRegistry, fs *fakeSnapshots) *AdminService {
	t.Helper()
	c := cache.New(5*time.Minute, 0)
	t.Cleanup(c.Stop)
	if fr.byKey == nil {
		fr.byKey = map[string]*models.Record{}
	}
	if freg.districts == nil {
		freg.districts = map[string]*models.District{}
	}
	return &AdminService{
		cache:     c,
		records:   fr,
		registry:  freg,
		snapshots: fs,
		now:       func() time.Time { return testNow },
	}
}

func uploadRecord(code, finYear, month string) models.Record {
	return models.Record{
		DistrictCode: code,
		DistrictName: "PUNE",
		StateCode:    "27",
		StateName:    "MAHARASHTRA",
		FinYear:      finYear,
		Month:        month,
	}
}

func TestUploadRecordsReportsPerRecordOutcomes(t *testing.T) {
	fr := &fakeRecords{}
	fs := &fakeSnapshots{}
	s := newTestAdminService(t, fr, &fakeRegistry{}, fs)

	bad := uploadRecord("3117", "2024-2025", "Jan")
	bad.Month = "January" // not a valid month name

	results, err := s.UploadRecords([]models.Record{
		uploadRecord("3116", "2024-2025", "Jan"),
		bad,
		uploadRecord("3116", "2024-2025", "Feb"),
	}, "manual", "{}")

	require.NoError(t, err)
	assert.Equal(t, 2, results.Success)
	assert.Equal(t, 1, results.Failed)
	require.Len(t, results.Errors, 1)
	assert.Contains(t, results.Errors[0].Record, "3117")

	require.Len(t, fr.saved, 2)
	idx, _ := PeriodIndex("2024-2025", "Jan")
	assert.Equal(t, idx, fr.saved[0].PeriodIndex)
	assert.Equal(t, "manual", fr.saved[0].FetchedFrom)

	// Partial failure is audited as an unsuccessful snapshot.
	require.Len(t, fs.finalized, 1)
	assert.False(t, fs.finalized[0])
	assert.Equal(t, 2, fs.lastCount)
	assert.Contains(t, fs.lastError, "1 of 3")
}

func TestUploadRecordsInvalidatesTouchedDistricts(t *testing.T) {
	fr := &fakeRecords{}
	s := newTestAdminService(t, fr, &fakeRegistry{}, &fakeSnapshots{})

	s.cache.Set(cache.DistrictDataKey("3116", "2024-2025", "Jan"), 1)
	s.cache.Set(cache.DistrictDataKey("3999", "2024-2025", "Jan"), 2)

	_, err := s.UploadRecords([]models.Record{uploadRecord("3116", "2024-2025", "Feb")}, "manual", "")
	require.NoError(t, err)

	_, ok := s.cache.Get(cache.DistrictDataKey("3116", "2024-2025", "Jan"))
	assert.False(t, ok, "touched district invalidated")
	_, ok = s.cache.Get(cache.DistrictDataKey("3999", "2024-2025", "Jan"))
	assert.True(t, ok, "untouched district kept")
}

func TestUploadRecordsEmptyBatch(t *testing.T) {
	s := newTestAdminService(t, &fakeRecords{}, &fakeRegistry{}, &fakeSnapshots{})

	_, err := s.UploadRecords(nil, "manual", "")
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestClearCache(t *testing.T) {
	s := newTestAdminService(t, &fakeRecords{}, &fakeRegistry{}, &fakeSnapshots{})

	s.cache.Set(cache.DistrictDataKey("3116", "2024-2025", "Jan"), 1)
	s.cache.Set(cache.ComparisonKey("3116"), 2)
	s.cache.Set(cache.ComparisonKey("3117"), 3)

	assert.Equal(t, 2, s.ClearCache("*3116*"))
	assert.Equal(t, 1, s.ClearCache(""), "empty pattern flushes everything")
	assert.Empty(t, s.cache.Keys())
}

func TestStats(t *testing.T) {
	fr := &fakeRecords{
		byKey:  map[string]*models.Record{"a": nil, "b": nil},
		active: []models.ActiveDistrict{{DistrictCode: "3116"}},
	}
	s := newTestAdminService(t, fr, &fakeRegistry{}, &fakeSnapshots{})

	stats, err := s.Stats()
	require.NoError(t, err)
	db := stats["database"].(map[string]any)
	assert.Equal(t, int64(2), db["records"])
	assert.Len(t, stats["activeDistricts"], 1)
}
