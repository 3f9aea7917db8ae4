package store

import (
	"fmt"

	"standAlloc/internal/bench"
)

// BenchRow — строка сводки бенчмарка.
type BenchRow = bench.Record

// SaveBench пишет сводку одного прогона бенчмарка пакетно.
func (d *DB) SaveBench(batchID string, records []BenchRow) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO bench_records (
		batch_id, algo, aircraft, stands, horizon, runs, feasible, optimal,
		time_best_ms, time_mean_ms, time_std_ms, cost_best, cost_mean, cost_std
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(
			batchID, r.Algo, r.Aircraft, r.Stands, r.Horizon, r.Runs, r.Feasible, r.Optimal,
			r.TimeBestMs, r.TimeMeanMs, r.TimeStdMs, r.CostBest, r.CostMean, r.CostStd,
		); err != nil {
			return fmt.Errorf("failed to insert bench record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Bench читает сводку пакета в порядке записи.
func (d *DB) Bench(batchID string) ([]BenchRow, error) {
	rows, err := d.db.Query(`SELECT
		algo, aircraft, stands, horizon, runs, feasible, optimal,
		time_best_ms, time_mean_ms, time_std_ms, cost_best, cost_mean, cost_std
	FROM bench_records WHERE batch_id = ? ORDER BY rowid`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bench records: %w", err)
	}
	defer rows.Close()

	var out []BenchRow
	for rows.Next() {
		var r BenchRow
		if err := rows.Scan(&r.Algo, &r.Aircraft, &r.Stands, &r.Horizon, &r.Runs, &r.Feasible, &r.Optimal,
			&r.TimeBestMs, &r.TimeMeanMs, &r.TimeStdMs, &r.CostBest, &r.CostMean, &r.CostStd); err != nil {
			return nil, fmt.Errorf("failed to scan bench record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
