package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS flights (
			id TEXT PRIMARY KEY,
			flight_number TEXT NOT NULL,
			departure_airport TEXT NOT NULL,
			arrival_airport TEXT NOT NULL,
			scheduled_departure DATETIME NOT NULL,
			scheduled_arrival DATETIME NOT NULL,
			actual_departure DATETIME,
			actual_arrival DATETIME,
			distance_km REAL,
			status TEXT NOT NULL,
			disruption_cause TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_number ON flights(flight_number)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_status ON flights(status)`,
		`CREATE INDEX IF NOT EXISTS idx_flights_sched_dep ON flights(scheduled_departure)`,

		`CREATE TABLE IF NOT EXISTS claims (
			id TEXT PRIMARY KEY,
			flight_id TEXT NOT NULL,
			passenger_name TEXT NOT NULL,
			passenger_email TEXT NOT NULL,
			region TEXT NOT NULL,
			incident_type TEXT NOT NULL,
			extraordinary INTEGER NOT NULL DEFAULT 0,
			extraordinary_cause TEXT NOT NULL DEFAULT '',
			reported_delay_minutes INTEGER,
			notice_days_before_departure INTEGER,
			status TEXT NOT NULL,
			manual_amount REAL,
			reviewed_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (flight_id) REFERENCES flights(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_flight ON claims(flight_id)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_region ON claims(region)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_created_at ON claims(created_at)`,

		`CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			claim_id TEXT NOT NULL,
			trigger_kind TEXT NOT NULL,
			eligible INTEGER NOT NULL,
			compensation_amount REAL,
			currency TEXT NOT NULL,
			regulation TEXT NOT NULL,
			reasons TEXT NOT NULL,
			requirements TEXT NOT NULL,
			requires_manual_review INTEGER NOT NULL,
			evaluated_at DATETIME NOT NULL,
			FOREIGN KEY (claim_id) REFERENCES claims(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_claim ON assessments(claim_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_evaluated_at ON assessments(evaluated_at)`,

		`CREATE TABLE IF NOT EXISTS flight_reports (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			format TEXT NOT NULL,
			file_hash TEXT UNIQUE NOT NULL,
			record_count INTEGER NOT NULL,
			ingested_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_flight_reports_source ON flight_reports(source)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:60], err)
		}
	}

	return nil
}
