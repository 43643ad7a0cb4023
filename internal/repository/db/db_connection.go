package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

const schemaMeasurements = `
CREATE TABLE IF NOT EXISTS measurements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chainage REAL NOT NULL,
    ts TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    value REAL NOT NULL,
    sensor_id TEXT NOT NULL,
    quality REAL,
    speed_kmh REAL
);
`

const schemaMeasurementIndexes = `
CREATE INDEX IF NOT EXISTS idx_measurements_ts ON measurements (ts);
CREATE INDEX IF NOT EXISTS idx_measurements_sensor ON measurements (sensor_id, ts);
CREATE INDEX IF NOT EXISTS idx_measurements_chainage ON measurements (chainage);
`

const schemaDefects = `
CREATE TABLE IF NOT EXISTS defects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chainage REAL NOT NULL,
    defect_type TEXT NOT NULL,
    severity INTEGER NOT NULL,
    description TEXT,
    measurement_id INTEGER REFERENCES measurements(id),
    generated_at TIMESTAMP NOT NULL,
    reviewed BOOLEAN NOT NULL DEFAULT 0,
    reviewed_by TEXT,
    reviewed_at TIMESTAMP
);
`

const schemaDefectIndexes = `
CREATE INDEX IF NOT EXISTS idx_defects_generated ON defects (generated_at);
CREATE INDEX IF NOT EXISTS idx_defects_severity ON defects (severity);
`

// InitDB opens/creates the SQLite database file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite tolerates a single writer; keep the pool tiny.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaMeasurements,
		schemaMeasurementIndexes,
		schemaDefects,
		schemaDefectIndexes,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
