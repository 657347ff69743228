package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: Initial schema
	`CREATE TABLE IF NOT EXISTS check_records (
		id                  TEXT PRIMARY KEY,
		signal              TEXT NOT NULL CHECK(signal IN ('sending_quota', 'reputation')),
		status              TEXT NOT NULL,
		action              TEXT NOT NULL DEFAULT '',
		utilization_percent REAL NOT NULL DEFAULT 0.0,
		volume              REAL NOT NULL DEFAULT 0.0,
		max_volume          REAL NOT NULL DEFAULT 0.0,
		critical_count      INTEGER NOT NULL DEFAULT 0,
		warning_count       INTEGER NOT NULL DEFAULT 0,
		ok_count            INTEGER NOT NULL DEFAULT 0,
		skipped             INTEGER NOT NULL DEFAULT 0,
		timestamp           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_checks_signal ON check_records(signal);
	CREATE INDEX IF NOT EXISTS idx_checks_status ON check_records(status);
	CREATE INDEX IF NOT EXISTS idx_checks_timestamp ON check_records(timestamp);

	CREATE TABLE IF NOT EXISTS deliveries (
		id          TEXT PRIMARY KEY,
		backend     TEXT NOT NULL,
		identifier  TEXT NOT NULL,
		status_code INTEGER NOT NULL DEFAULT 0,
		dry_run     INTEGER NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT '',
		timestamp   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_deliveries_backend ON deliveries(backend);
	CREATE INDEX IF NOT EXISTS idx_deliveries_timestamp ON deliveries(timestamp);

	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	// Ensure migration tracking table exists
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
