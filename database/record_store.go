// backend/database/record_store.go
package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gramdarpan/mgnrega/backend/govapi"
	"github.com/gramdarpan/mgnrega/backend/models"
)

// indicatorColumns lists the 30 indicator columns in the fixed order used by
// every statement in this file. indicatorValues and indicatorPtrs must stay
// in the same order.
var indicatorColumns = []string{
	"Approved_Labour_Budget",
	"Average_Wage_rate_per_day_per_person",
	"Average_days_of_employment_provided_per_Household",
	"Differently_abled_persons_worked",
	"Material_and_skilled_Wages",
	"Number_of_Completed_Works",
	"Number_of_GPs_with_NIL_exp",
	"Number_of_Ongoing_Works",
	"Persondays_of_Central_Liability_so_far",
	"SC_persondays",
	"SC_workers_against_active_workers",
	"ST_persondays",
	"ST_workers_against_active_workers",
	"Total_Adm_Expenditure",
	"Total_Exp",
	"Total_Households_Worked",
	"Total_Individuals_Worked",
	"Total_No_of_Active_Job_Cards",
	"Total_No_of_Active_Workers",
	"Total_No_of_HHs_completed_100_Days_of_Wage_Employment",
	"Total_No_of_JobCards_issued",
	"Total_No_of_Workers",
	"Total_No_of_Works_Takenup",
	"Wages",
	"Women_Persondays",
	"percent_of_Category_B_Works",
	"percent_of_Expenditure_on_Agriculture_Allied_Works",
	"percent_of_NRM_Expenditure",
	"percentage_payments_gererated_within_15_days",
	"Remarks",
}

func indicatorValues(r *models.Record) []any {
	return []any{
		r.ApprovedLabourBudget,
		r.AverageWageRatePerDay,
		r.AverageDaysPerHousehold,
		r.DifferentlyAbledWorked,
		r.MaterialAndSkilledWages,
		r.CompletedWorks,
		r.GPsWithNilExp,
		r.OngoingWorks,
		r.PersondaysCentralLiability,
		r.SCPersondays,
		r.SCWorkersAgainstActive,
		r.STPersondays,
		r.STWorkersAgainstActive,
		r.TotalAdmExpenditure,
		r.TotalExp,
		r.TotalHouseholdsWorked,
		r.TotalIndividualsWorked,
		r.TotalActiveJobCards,
		r.TotalActiveWorkers,
		r.HouseholdsCompleted100Days,
		r.TotalJobCardsIssued,
		r.TotalWorkers,
		r.TotalWorksTakenup,
		r.Wages,
		r.WomenPersondays,
		r.PercentCategoryBWorks,
		r.PercentExpAgricultureAllied,
		r.PercentNRMExpenditure,
		r.PercentPaymentsWithin15Days,
		r.Remarks,
	}
}

func indicatorPtrs(r *models.Record) []any {
	return []any{
		&r.ApprovedLabourBudget,
		&r.AverageWageRatePerDay,
		&r.AverageDaysPerHousehold,
		&r.DifferentlyAbledWorked,
		&r.MaterialAndSkilledWages,
		&r.CompletedWorks,
		&r.GPsWithNilExp,
		&r.OngoingWorks,
		&r.PersondaysCentralLiability,
		&r.SCPersondays,
		&r.SCWorkersAgainstActive,
		&r.STPersondays,
		&r.STWorkersAgainstActive,
		&r.TotalAdmExpenditure,
		&r.TotalExp,
		&r.TotalHouseholdsWorked,
		&r.TotalIndividualsWorked,
		&r.TotalActiveJobCards,
		&r.TotalActiveWorkers,
		&r.HouseholdsCompleted100Days,
		&r.TotalJobCardsIssued,
		&r.TotalWorkers,
		&r.TotalWorksTakenup,
		&r.Wages,
		&r.WomenPersondays,
		&r.PercentCategoryBWorks,
		&r.PercentExpAgricultureAllied,
		&r.PercentNRMExpenditure,
		&r.PercentPaymentsWithin15Days,
		&r.Remarks,
	}
}

var (
	insertColumns = append([]string{
		"district_code", "district_name", "state_code", "state_name",
		"fin_year", "month", "period_index",
	}, append(append([]string{}, indicatorColumns...), "fetched_from")...)

	selectColumns = append([]string{"id"}, append(append([]string{}, insertColumns...), "created_at", "updated_at")...)

	selectList = strings.Join(selectColumns, ", ")
)

// upsertSQL replaces the full indicator set on conflict. updated_at is
// touched explicitly so a refresh that re-saves identical values still
// resets the staleness clock.
var upsertSQL = func() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(insertColumns)), ", ")
	var updates []string
	for _, col := range insertColumns[1:] { // everything but district_code
		if col == "fin_year" || col == "month" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}
	updates = append(updates, "updated_at = NOW()")
	return fmt.Sprintf(
		"INSERT INTO mgnrega_records (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		strings.Join(insertColumns, ", "), placeholders, strings.Join(updates, ", "),
	)
}()

// RecordStore persists and queries period records.
type RecordStore struct {
	DB *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{DB: db}
}

// SaveRecord upserts one full record keyed on (district_code, fin_year,
// month). The caller must have set PeriodIndex.
func (s *RecordStore) SaveRecord(r *models.Record) error {
	args := []any{
		r.DistrictCode, r.DistrictName, r.StateCode, r.StateName,
		r.FinYear, r.Month, r.PeriodIndex,
	}
	args = append(args, indicatorValues(r)...)
	args = append(args, r.FetchedFrom)

	if _, err := s.DB.Exec(upsertSQL, args...); err != nil {
		return &models.StorageError{Op: "save record", Err: err}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var r models.Record
	dests := []any{
		&r.ID, &r.DistrictCode, &r.DistrictName, &r.StateCode, &r.StateName,
		&r.FinYear, &r.Month, &r.PeriodIndex,
	}
	dests = append(dests, indicatorPtrs(&r)...)
	dests = append(dests, &r.FetchedFrom, &r.CreatedAt, &r.UpdatedAt)
	if err := row.Scan(dests...); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRecord returns the record for one (district, period) key, or nil when
// no row exists.
func (s *RecordStore) GetRecord(districtCode, finYear, month string) (*models.Record, error) {
	row := s.DB.QueryRow(
		"SELECT "+selectList+" FROM mgnrega_records WHERE district_code = ? AND fin_year = ? AND month = ?",
		districtCode, finYear, month,
	)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StorageError{Op: "get record", Err: err}
	}
	return r, nil
}

// GetRecordRange returns a district's records with period_index in
// [startIndex, endIndex], oldest first.
func (s *RecordStore) GetRecordRange(districtCode string, startIndex, endIndex int) ([]models.Record, error) {
	rows, err := s.DB.Query(
		"SELECT "+selectList+" FROM mgnrega_records WHERE district_code = ? AND period_index BETWEEN ? AND ? ORDER BY period_index ASC",
		districtCode, startIndex, endIndex,
	)
	if err != nil {
		return nil, &models.StorageError{Op: "get record range", Err: err}
	}
	defer rows.Close()
	return collectRecords(rows, "get record range")
}

// GetRecentForDistrict returns a district's most recent records, newest
// first.
func (s *RecordStore) GetRecentForDistrict(districtCode string, limit int) ([]models.Record, error) {
	rows, err := s.DB.Query(
		"SELECT "+selectList+" FROM mgnrega_records WHERE district_code = ? ORDER BY period_index DESC LIMIT ?",
		districtCode, limit,
	)
	if err != nil {
		return nil, &models.StorageError{Op: "get recent records", Err: err}
	}
	defer rows.Close()
	return collectRecords(rows, "get recent records")
}

// GetLatestForDistrict returns a district's most recent record by period, or
// nil when the district has no rows at all.
func (s *RecordStore) GetLatestForDistrict(districtCode string) (*models.Record, error) {
	row := s.DB.QueryRow(
		"SELECT "+selectList+" FROM mgnrega_records WHERE district_code = ? ORDER BY period_index DESC LIMIT 1",
		districtCode,
	)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StorageError{Op: "get latest record", Err: err}
	}
	return r, nil
}

// GetLatestGlobal returns the most recently updated records across all
// districts.
func (s *RecordStore) GetLatestGlobal(limit int) ([]models.Record, error) {
	rows, err := s.DB.Query(
		"SELECT "+selectList+" FROM mgnrega_records ORDER BY updated_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, &models.StorageError{Op: "get latest records", Err: err}
	}
	defer rows.Close()
	return collectRecords(rows, "get latest records")
}

func collectRecords(rows *sql.Rows, op string) ([]models.Record, error) {
	var out []models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			log.Printf("ERROR DB: failed to scan record row: %v", err)
			continue
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: op, Err: err}
	}
	return out, nil
}

// StateAverage averages the two primary indicators over a state's most
// recent sibling records (at most 100 rows).
func (s *RecordStore) StateAverage(stateCode string) (*models.StateAverage, error) {
	rows, err := s.DB.Query(
		"SELECT Total_Households_Worked, Total_Exp FROM mgnrega_records WHERE state_code = ? ORDER BY period_index DESC, updated_at DESC LIMIT 100",
		stateCode,
	)
	if err != nil {
		return nil, &models.StorageError{Op: "state average", Err: err}
	}
	defer rows.Close()

	var households, expenditure float64
	var n int
	for rows.Next() {
		var hh, exp string
		if err := rows.Scan(&hh, &exp); err != nil {
			log.Printf("ERROR DB: failed to scan state average row: %v", err)
			continue
		}
		households += govapi.ToNumber(hh)
		expenditure += govapi.ToNumber(exp)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "state average", Err: err}
	}
	if n == 0 {
		return &models.StateAverage{}, nil
	}
	return &models.StateAverage{
		AvgHouseholds:  households / float64(n),
		AvgExpenditure: expenditure / float64(n),
	}, nil
}

// ActiveDistricts ranks districts by update recency within the window.
func (s *RecordStore) ActiveDistricts(windowDays, limit int) ([]models.ActiveDistrict, error) {
	rows, err := s.DB.Query(`
		SELECT district_code, district_name, state_name, COUNT(*), MAX(updated_at)
		FROM mgnrega_records
		WHERE updated_at >= NOW() - INTERVAL ? DAY
		GROUP BY district_code, district_name, state_name
		ORDER BY MAX(updated_at) DESC
		LIMIT ?`,
		windowDays, limit,
	)
	if err != nil {
		return nil, &models.StorageError{Op: "active districts", Err: err}
	}
	defer rows.Close()

	var out []models.ActiveDistrict
	for rows.Next() {
		var d models.ActiveDistrict
		var lastUpdated time.Time
		if err := rows.Scan(&d.DistrictCode, &d.DistrictName, &d.StateName, &d.RecordCount, &lastUpdated); err != nil {
			log.Printf("ERROR DB: failed to scan active district row: %v", err)
			continue
		}
		d.LastUpdated = lastUpdated.Format(time.RFC3339)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "active districts", Err: err}
	}
	return out, nil
}

// DeleteBeforePeriod removes records whose period predates the cutoff index
// and reports how many rows went away.
func (s *RecordStore) DeleteBeforePeriod(periodIndex int) (int64, error) {
	res, err := s.DB.Exec("DELETE FROM mgnrega_records WHERE period_index < ?", periodIndex)
	if err != nil {
		return 0, &models.StorageError{Op: "delete old records", Err: err}
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CountRecords returns the total number of stored records.
func (s *RecordStore) CountRecords() (int64, error) {
	var n int64
	if err := s.DB.QueryRow("SELECT COUNT(*) FROM mgnrega_records").Scan(&n); err != nil {
		return 0, &models.StorageError{Op: "count records", Err: err}
	}
	return n, nil
}
