// backend/database/schema.go
package database

import (
	"database/sql"
	"fmt"
)

// schemaStatements create every table the backend needs. Indicator columns
// carry the government API's own field names so the mapping between upstream
// payloads, rows and JSON responses stays one-to-one.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS states (
		id INT AUTO_INCREMENT PRIMARY KEY,
		state_code VARCHAR(8) NOT NULL UNIQUE,
		state_name VARCHAR(128) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS districts (
		id INT AUTO_INCREMENT PRIMARY KEY,
		district_code VARCHAR(8) NOT NULL UNIQUE,
		district_name VARCHAR(128) NOT NULL,
		state_code VARCHAR(8) NOT NULL,
		state_name VARCHAR(128) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_districts_state (state_code)
	)`,

	`CREATE TABLE IF NOT EXISTS mgnrega_records (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		district_code VARCHAR(8) NOT NULL,
		district_name VARCHAR(128) NOT NULL,
		state_code VARCHAR(8) NOT NULL,
		state_name VARCHAR(128) NOT NULL,
		fin_year VARCHAR(12) NOT NULL,
		month VARCHAR(3) NOT NULL,
		period_index INT NOT NULL,
		Approved_Labour_Budget VARCHAR(64) NOT NULL DEFAULT '',
		Average_Wage_rate_per_day_per_person VARCHAR(64) NOT NULL DEFAULT '',
		Average_days_of_employment_provided_per_Household VARCHAR(64) NOT NULL DEFAULT '',
		Differently_abled_persons_worked VARCHAR(64) NOT NULL DEFAULT '',
		Material_and_skilled_Wages VARCHAR(64) NOT NULL DEFAULT '',
		Number_of_Completed_Works VARCHAR(64) NOT NULL DEFAULT '',
		Number_of_GPs_with_NIL_exp VARCHAR(64) NOT NULL DEFAULT '',
		Number_of_Ongoing_Works VARCHAR(64) NOT NULL DEFAULT '',
		Persondays_of_Central_Liability_so_far VARCHAR(64) NOT NULL DEFAULT '',
		SC_persondays VARCHAR(64) NOT NULL DEFAULT '',
		SC_workers_against_active_workers VARCHAR(64) NOT NULL DEFAULT '',
		ST_persondays VARCHAR(64) NOT NULL DEFAULT '',
		ST_workers_against_active_workers VARCHAR(64) NOT NULL DEFAULT '',
		Total_Adm_Expenditure VARCHAR(64) NOT NULL DEFAULT '',
		Total_Exp VARCHAR(64) NOT NULL DEFAULT '',
		Total_Households_Worked VARCHAR(64) NOT NULL DEFAULT '',
		Total_Individuals_Worked VARCHAR(64) NOT NULL DEFAULT '',
		Total_No_of_Active_Job_Cards VARCHAR(64) NOT NULL DEFAULT '',
		Total_No_of_Active_Workers VARCHAR(64) NOT NULL DEFAULT '',
		Total_No_of_HHs_completed_100_Days_of_Wage_Employment VARCHAR(64) NOT NULL DEFAULT '',
		Total_No_of_JobCards_issued VARCHAR(64) NOT NULL DEFAULT '',
		Total_No_of_Workers VARCHAR(64) NOT NULL DEFAULT '',
		Total_No_of_Works_Takenup VARCHAR(64) NOT NULL DEFAULT '',
		Wages VARCHAR(64) NOT NULL DEFAULT '',
		Women_Persondays VARCHAR(64) NOT NULL DEFAULT '',
		percent_of_Category_B_Works VARCHAR(64) NOT NULL DEFAULT '',
		percent_of_Expenditure_on_Agriculture_Allied_Works VARCHAR(64) NOT NULL DEFAULT '',
		percent_of_NRM_Expenditure VARCHAR(64) NOT NULL DEFAULT '',
		percentage_payments_gererated_within_15_days VARCHAR(64) NOT NULL DEFAULT '',
		Remarks VARCHAR(255) NOT NULL DEFAULT '',
		fetched_from ENUM('api','manual','etl') NOT NULL DEFAULT 'api',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_records_identity (district_code, fin_year, month),
		INDEX idx_records_district_period (district_code, period_index),
		INDEX idx_records_state_period (state_code, period_index),
		INDEX idx_records_updated (updated_at)
	)`,

	`CREATE TABLE IF NOT EXISTS ingestion_snapshots (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		source VARCHAR(32) NOT NULL,
		raw_data MEDIUMTEXT,
		record_count INT NOT NULL DEFAULT 0,
		success BOOLEAN NOT NULL DEFAULT FALSE,
		error_message TEXT,
		processing_time_ms BIGINT NOT NULL DEFAULT 0,
		fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_snapshots_fetched (fetched_at)
	)`,
}

// EnsureSchema creates any missing tables. Statements are idempotent, so
// running on every startup is safe.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
