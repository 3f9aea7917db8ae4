// Package store сохраняет запуски решателя и результаты бенчмарков в SQLite.
// Сам решатель состояния не хранит; пишет только CLI.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Repository — операции хранения, нужные CLI.
type Repository interface {
	SaveRun(run *Run) error
	Runs(limit int) ([]Run, error)
	Assignments(runID string) ([]AssignmentRow, error)
	SaveBench(batchID string, records []BenchRow) error
	Bench(batchID string) ([]BenchRow, error)
	Close() error
}

// DB реализует Repository поверх SQLite.
type DB struct {
	db *sql.DB
}

var _ Repository = (*DB)(nil)

// New открывает базу SQLite и создаёт схему, если её нет.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := tune(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to tune database: %w", err)
	}

	d := &DB{db: db}
	if err := d.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return d, nil
}

// tune: WAL для параллельного чтения во время бенчмарка, внешние ключи для каскадного удаления.
func tune(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS solve_runs (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			instance TEXT NOT NULL,
			algo TEXT NOT NULL,
			aircraft INTEGER NOT NULL,
			stands INTEGER NOT NULL,
			horizon INTEGER NOT NULL,
			status TEXT NOT NULL,
			proven INTEGER NOT NULL,
			stopped TEXT,
			cost INTEGER,
			nodes INTEGER NOT NULL,
			duration_ms REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_assignments (
			run_id TEXT NOT NULL REFERENCES solve_runs(id) ON DELETE CASCADE,
			aircraft TEXT NOT NULL,
			stand TEXT,
			start_slot INTEGER,
			end_slot INTEGER,
			cost INTEGER NOT NULL,
			PRIMARY KEY (run_id, aircraft)
		)`,
		`CREATE TABLE IF NOT EXISTS bench_records (
			batch_id TEXT NOT NULL,
			algo TEXT NOT NULL,
			aircraft INTEGER NOT NULL,
			stands INTEGER NOT NULL,
			horizon INTEGER NOT NULL,
			runs INTEGER NOT NULL,
			feasible INTEGER NOT NULL,
			optimal INTEGER NOT NULL,
			time_best_ms REAL,
			time_mean_ms REAL,
			time_std_ms REAL,
			cost_best INTEGER,
			cost_mean REAL,
			cost_std REAL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_solve_runs_created_at ON solve_runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bench_records_batch ON bench_records(batch_id)`,
	}
	for _, stmt := range schema {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
