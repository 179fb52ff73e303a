// backend/database/snapshot_store.go
package database

import (
	"database/sql"
	"log"

	"github.com/gramdarpan/mgnrega/backend/models"
)

// SnapshotStore writes the append-only ingestion audit trail. A snapshot is
// created when an ingestion starts and finalized exactly once with its
// terminal status.
type SnapshotStore struct {
	DB *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{DB: db}
}

// Create opens a snapshot row and returns its id.
func (s *SnapshotStore) Create(source, rawData string) (int64, error) {
	res, err := s.DB.Exec(
		"INSERT INTO ingestion_snapshots (source, raw_data) VALUES (?, ?)",
		source, rawData,
	)
	if err != nil {
		return 0, &models.StorageError{Op: "create snapshot", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &models.StorageError{Op: "create snapshot", Err: err}
	}
	return id, nil
}

// Finalize records the terminal outcome of an ingestion.
func (s *SnapshotStore) Finalize(id int64, recordCount int, success bool, errorMessage string, processingTimeMs int64) error {
	_, err := s.DB.Exec(`
		UPDATE ingestion_snapshots
		SET record_count = ?, success = ?, error_message = ?, processing_time_ms = ?
		WHERE id = ?`,
		recordCount, success, errorMessage, processingTimeMs, id,
	)
	if err != nil {
		return &models.StorageError{Op: "finalize snapshot", Err: err}
	}
	return nil
}

// Recent lists snapshots newest first, without raw payloads.
func (s *SnapshotStore) Recent(limit, offset int) ([]models.Snapshot, error) {
	rows, err := s.DB.Query(`
		SELECT id, source, record_count, success, COALESCE(error_message, ''), processing_time_ms, fetched_at
		FROM ingestion_snapshots
		ORDER BY fetched_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, &models.StorageError{Op: "list snapshots", Err: err}
	}
	defer rows.Close()

	var out []models.Snapshot
	for rows.Next() {
		var snap models.Snapshot
		if err := rows.Scan(&snap.ID, &snap.Source, &snap.RecordCount, &snap.Success, &snap.ErrorMessage, &snap.ProcessingTimeMs, &snap.FetchedAt); err != nil {
			log.Printf("ERROR DB: failed to scan snapshot row: %v", err)
			continue
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "list snapshots", Err: err}
	}
	return out, nil
}

// CountSnapshots returns the audit trail length.
func (s *SnapshotStore) CountSnapshots() (int64, error) {
	var n int64
	if err := s.DB.QueryRow("SELECT COUNT(*) FROM ingestion_snapshots").Scan(&n); err != nil {
		return 0, &models.StorageError{Op: "count snapshots", Err: err}
	}
	return n, nil
}
