// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

// Package history records every run's per-unit measurements to a local
// sqlite database, purely as a supplemental amenity (§3c): nothing on
// the discovery/measure/diff/report path depends on it, so a Store
// method failing never fails a run. The schema-migration shape is
// grounded on the teacher's sibling pack member's storage package
// (InitializeDatabase / versioned migrations table).
package history

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/onosproject/yab/internal/runid"
)

// schemaVersion is the current migration level; bump and add a branch in
// migrate when the schema changes.
const schemaVersion = 1

// Store persists run history to a sqlite database at path.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// applies any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening history database")
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return errors.Wrap(err, "creating migrations table")
	}

	var current int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&current); err != nil {
		return errors.Wrap(err, "reading migration version")
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning migration")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`CREATE TABLE runs (
		run_id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		baseline TEXT NOT NULL
	)`); err != nil {
		return errors.Wrap(err, "creating runs table")
	}
	if _, err := tx.Exec(`CREATE TABLE measurements (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES runs(run_id),
		unit TEXT NOT NULL,
		instructions INTEGER NOT NULL,
		classification TEXT NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	)`); err != nil {
		return errors.Wrap(err, "creating measurements table")
	}
	if _, err := tx.Exec(`CREATE INDEX idx_measurements_unit ON measurements(unit)`); err != nil {
		return errors.Wrap(err, "indexing measurements")
	}
	if _, err := tx.Exec(`INSERT INTO migrations (version) VALUES (?)`, schemaVersion); err != nil {
		return errors.Wrap(err, "recording migration version")
	}
	return tx.Commit()
}

// Run is a started run awaiting measurement records.
type Run struct {
	ID        string
	startedAt time.Time
}

// StartRun begins a new run record under a fresh petname run id.
func (s *Store) StartRun(baselineName string, now time.Time) (Run, error) {
	run := Run{ID: runid.New(), startedAt: now}
	_, err := s.db.Exec(`INSERT INTO runs (run_id, started_at, baseline) VALUES (?, ?, ?)`,
		run.ID, run.startedAt, baselineName)
	if err != nil {
		return Run{}, errors.Wrap(err, "recording run start")
	}
	return run, nil
}

// RecordMeasurement appends one unit's outcome to run.
func (s *Store) RecordMeasurement(run Run, unit string, instructions int64, classification string, now time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO measurements (id, run_id, unit, instructions, classification, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), run.ID, unit, instructions, classification, now,
	)
	return errors.Wrap(err, "recording measurement")
}

// UnitHistory is one recorded measurement of a unit, most recent last.
type UnitHistory struct {
	RunID          string
	Instructions   int64
	Classification string
	RecordedAt     time.Time
}

// History returns every recorded measurement of unit, oldest first.
func (s *Store) History(unit string) ([]UnitHistory, error) {
	rows, err := s.db.Query(
		`SELECT run_id, instructions, classification, recorded_at FROM measurements WHERE unit = ? ORDER BY recorded_at ASC`,
		unit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying unit history")
	}
	defer rows.Close()

	var out []UnitHistory
	for rows.Next() {
		var h UnitHistory
		if err := rows.Scan(&h.RunID, &h.Instructions, &h.Classification, &h.RecordedAt); err != nil {
			return nil, errors.Wrap(err, "scanning unit history row")
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
