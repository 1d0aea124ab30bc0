//go:build sqlite

package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/stick-sim/stick/runtime"

	_ "modernc.org/sqlite"
)

// SQLiteExporter persists spike and voltage records to a SQLite database
// instead of the flat binary format export.go writes. Grounded on
// wizardbeard-protogonos/internal/storage/sqlite.go's SQLiteStore: a mutex-
// guarded *sql.DB, an idempotent Init/createTables, and
// writes that replace a run's rows (DELETE then INSERT, in one transaction).
type SQLiteExporter struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteExporter returns an exporter for the database at path. Call Init
// before writing anything. The error return exists to keep this
// constructor's signature identical to the !sqlite build's stub.
func NewSQLiteExporter(path string) (Exporter, error) {
	return &SQLiteExporter{path: path}, nil
}

// Init opens the database (creating it if absent) and ensures the spike and
// voltage tables exist.
func (e *SQLiteExporter) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.path == "" {
		return errors.New("stick: export: sqlite path is required")
	}
	if e.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", e.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createExportTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	e.db = db
	return nil
}

// Close releases the underlying database handle. Safe to call on an
// exporter that was never Init'd.
func (e *SQLiteExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}

func (e *SQLiteExporter) getDB() (*sql.DB, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.db == nil {
		return nil, errors.New("stick: export: exporter is not initialized")
	}
	return e.db, nil
}

func createExportTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS spikes (
			run_id TEXT NOT NULL,
			uid TEXT NOT NULL,
			time REAL NOT NULL
		);
		CREATE TABLE IF NOT EXISTS voltages (
			run_id TEXT NOT NULL,
			uid TEXT NOT NULL,
			time REAL NOT NULL,
			v REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS spikes_by_time ON spikes(run_id, time, uid);
		CREATE INDEX IF NOT EXISTS voltages_by_time ON voltages(run_id, time, uid);
	`)
	return err
}

// WriteRun persists every spike and voltage record from sim under runID,
// replacing any rows previously written for that run.
func (e *SQLiteExporter) WriteRun(ctx context.Context, runID string, sim *runtime.Simulator) error {
	db, err := e.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM spikes WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("stick: export: clear spikes for run %s: %w", runID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM voltages WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("stick: export: clear voltages for run %s: %w", runID, err)
	}

	spikeStmt, err := tx.PrepareContext(ctx, `INSERT INTO spikes (run_id, uid, time) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer spikeStmt.Close()
	for _, r := range CollectSpikeRecords(sim) {
		if _, err := spikeStmt.ExecContext(ctx, runID, r.UID, r.Time); err != nil {
			return fmt.Errorf("stick: export: insert spike (%s,%v): %w", r.UID, r.Time, err)
		}
	}

	voltageStmt, err := tx.PrepareContext(ctx, `INSERT INTO voltages (run_id, uid, time, v) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer voltageStmt.Close()
	for _, r := range CollectVoltageRecords(sim) {
		if _, err := voltageStmt.ExecContext(ctx, runID, r.UID, r.Time, r.V); err != nil {
			return fmt.Errorf("stick: export: insert voltage (%s,%v): %w", r.UID, r.Time, err)
		}
	}

	return tx.Commit()
}

// ReadSpikes returns every spike record written for runID, ascending by
// (time, uid) via the spikes_by_time index.
func (e *SQLiteExporter) ReadSpikes(ctx context.Context, runID string) ([]SpikeRecord, error) {
	db, err := e.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT uid, time FROM spikes WHERE run_id = ? ORDER BY time, uid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SpikeRecord
	for rows.Next() {
		var r SpikeRecord
		if err := rows.Scan(&r.UID, &r.Time); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
