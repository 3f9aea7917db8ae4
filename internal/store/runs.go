package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"standAlloc/internal/apron"
	"standAlloc/internal/opt"
)

// Run — один сохранённый запуск решателя.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Instance   string
	Algo       string
	Aircraft   int
	Stands     int
	Horizon    int
	Status     opt.Status
	Proven     bool
	Stopped    opt.StopReason
	Cost       sql.NullInt64
	Nodes      int
	DurationMs float64

	Assignments []AssignmentRow
}

// AssignmentRow хранит идентификаторы, а не индексы: файлы экземпляров могут меняться.
type AssignmentRow struct {
	Aircraft string
	Stand    sql.NullString
	Start    sql.NullInt64
	End      sql.NullInt64
	Cost     int
}

// NewRun собирает запись по результату; ID генерируется.
func NewRun(name, algo string, inst *apron.Instance, res opt.Result) *Run {
	run := &Run{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Instance:   name,
		Algo:       algo,
		Aircraft:   inst.NumAircraft(),
		Stands:     inst.NumStands(),
		Horizon:    inst.Horizon,
		Status:     res.Status,
		Proven:     res.Proven,
		Stopped:    res.Stopped,
		Nodes:      res.Iterations,
		DurationMs: float64(res.Duration.Microseconds()) / 1000.0,
	}
	if res.Solution == nil {
		return run
	}
	run.Cost = sql.NullInt64{Int64: int64(res.Cost), Valid: true}
	for _, a := range res.Solution.Assignments {
		row := AssignmentRow{Aircraft: inst.Aircraft[a.Aircraft].ID, Cost: a.Cost}
		if a.Stand != apron.NoStand {
			row.Stand = sql.NullString{String: inst.Stands[a.Stand], Valid: true}
			row.Start = sql.NullInt64{Int64: int64(a.Start), Valid: true}
			row.End = sql.NullInt64{Int64: int64(a.End), Valid: true}
		}
		run.Assignments = append(run.Assignments, row)
	}
	return run
}

// SaveRun пишет запуск и его назначения в одной транзакции.
func (d *DB) SaveRun(run *Run) error {
	if run == nil {
		return fmt.Errorf("run is nil")
	}
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO solve_runs (
		id, created_at, instance, algo, aircraft, stands, horizon,
		status, proven, stopped, cost, nodes, duration_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.Instance, run.Algo, run.Aircraft, run.Stands, run.Horizon,
		string(run.Status), run.Proven, string(run.Stopped), run.Cost, run.Nodes, run.DurationMs,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO run_assignments (
		run_id, aircraft, stand, start_slot, end_slot, cost
	) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range run.Assignments {
		if _, err := stmt.Exec(run.ID, a.Aircraft, a.Stand, a.Start, a.End, a.Cost); err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Runs возвращает последние запуски, новые первыми. Назначения не загружаются.
func (d *DB) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(`SELECT
		id, created_at, instance, algo, aircraft, stands, horizon,
		status, proven, stopped, cost, nodes, duration_ms
	FROM solve_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			status  string
			stopped sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Instance, &r.Algo, &r.Aircraft, &r.Stands, &r.Horizon,
			&status, &r.Proven, &stopped, &r.Cost, &r.Nodes, &r.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Status = opt.Status(status)
		r.Stopped = opt.StopReason(stopped.String)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) Assignments(runID string) ([]AssignmentRow, error) {
	rows, err := d.db.Query(`SELECT aircraft, stand, start_slot, end_slot, cost
		FROM run_assignments WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var out []AssignmentRow
	for rows.Next() {
		var a AssignmentRow
		if err := rows.Scan(&a.Aircraft, &a.Stand, &a.Start, &a.End, &a.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
