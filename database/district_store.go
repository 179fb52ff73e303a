// backend/database/district_store.go
package database

import (
	"database/sql"
	"log"

	"github.com/gramdarpan/mgnrega/backend/models"
)

// DistrictStore maintains the district and state registries. Registrations
// are upserts; entries are never deleted.
type DistrictStore struct {
	DB *sql.DB
}

func NewDistrictStore(db *sql.DB) *DistrictStore {
	return &DistrictStore{DB: db}
}

// UpsertDistricts registers or refreshes a batch of districts. Each row is
// its own statement; one bad row does not block the rest.
func (s *DistrictStore) UpsertDistricts(districts []models.District) (int, error) {
	if len(districts) == 0 {
		return 0, nil
	}

	stmt, err := s.DB.Prepare(`
		INSERT INTO districts (district_code, district_name, state_code, state_name)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			district_name = VALUES(district_name),
			state_code = VALUES(state_code),
			state_name = VALUES(state_name)`)
	if err != nil {
		return 0, &models.StorageError{Op: "prepare district upsert", Err: err}
	}
	defer stmt.Close()

	saved := 0
	for _, d := range districts {
		if d.DistrictCode == "" || d.DistrictName == "" {
			continue
		}
		if _, err := stmt.Exec(d.DistrictCode, d.DistrictName, d.StateCode, d.StateName); err != nil {
			log.Printf("ERROR DB: failed to upsert district %s: %v", d.DistrictCode, err)
			continue
		}
		saved++
	}
	return saved, nil
}

// GetDistrict returns one district by code, or nil when unregistered.
func (s *DistrictStore) GetDistrict(districtCode string) (*models.District, error) {
	var d models.District
	err := s.DB.QueryRow(`
		SELECT id, district_code, district_name, state_code, state_name, created_at, updated_at
		FROM districts WHERE district_code = ?`,
		districtCode,
	).Scan(&d.ID, &d.DistrictCode, &d.DistrictName, &d.StateCode, &d.StateName, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StorageError{Op: "get district", Err: err}
	}
	return &d, nil
}

// GetDistrictsByState lists a state's registered districts, name order.
func (s *DistrictStore) GetDistrictsByState(stateCode string) ([]models.District, error) {
	rows, err := s.DB.Query(`
		SELECT id, district_code, district_name, state_code, state_name, created_at, updated_at
		FROM districts WHERE state_code = ? ORDER BY district_name ASC`,
		stateCode,
	)
	if err != nil {
		return nil, &models.StorageError{Op: "get districts by state", Err: err}
	}
	defer rows.Close()

	var out []models.District
	for rows.Next() {
		var d models.District
		if err := rows.Scan(&d.ID, &d.DistrictCode, &d.DistrictName, &d.StateCode, &d.StateName, &d.CreatedAt, &d.UpdatedAt); err != nil {
			log.Printf("ERROR DB: failed to scan district row: %v", err)
			continue
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "get districts by state", Err: err}
	}
	return out, nil
}

// CountDistricts returns the number of registered districts.
func (s *DistrictStore) CountDistricts() (int64, error) {
	var n int64
	if err := s.DB.QueryRow("SELECT COUNT(*) FROM districts").Scan(&n); err != nil {
		return 0, &models.StorageError{Op: "count districts", Err: err}
	}
	return n, nil
}

// UpsertStates registers or refreshes the state registry.
func (s *DistrictStore) UpsertStates(states []models.State) (int, error) {
	if len(states) == 0 {
		return 0, nil
	}

	stmt, err := s.DB.Prepare(`
		INSERT INTO states (state_code, state_name)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE state_name = VALUES(state_name)`)
	if err != nil {
		return 0, &models.StorageError{Op: "prepare state upsert", Err: err}
	}
	defer stmt.Close()

	saved := 0
	for _, st := range states {
		if st.StateCode == "" || st.StateName == "" {
			continue
		}
		if _, err := stmt.Exec(st.StateCode, st.StateName); err != nil {
			log.Printf("ERROR DB: failed to upsert state %s: %v", st.StateCode, err)
			continue
		}
		saved++
	}
	return saved, nil
}

// GetState returns one state by code, or nil when unknown.
func (s *DistrictStore) GetState(stateCode string) (*models.State, error) {
	var st models.State
	err := s.DB.QueryRow("SELECT state_code, state_name FROM states WHERE state_code = ?", stateCode).
		Scan(&st.StateCode, &st.StateName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &models.StorageError{Op: "get state", Err: err}
	}
	return &st, nil
}

// ListStates returns the full state registry, name order.
func (s *DistrictStore) ListStates() ([]models.State, error) {
	rows, err := s.DB.Query("SELECT state_code, state_name FROM states ORDER BY state_name ASC")
	if err != nil {
		return nil, &models.StorageError{Op: "list states", Err: err}
	}
	defer rows.Close()

	var out []models.State
	for rows.Next() {
		var st models.State
		if err := rows.Scan(&st.StateCode, &st.StateName); err != nil {
			log.Printf("ERROR DB: failed to scan state row: %v", err)
			continue
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list states", Err: err}
	}
	return out, nil
}
