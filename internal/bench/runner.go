// Package bench сравнивает точный поиск и эвристики на случайных
// экземплярах: несколько запусков на конфигурацию, сводка в CSV.
package bench

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"standAlloc/internal/apron"
	"standAlloc/internal/opt"
)

// Algorithm создаёт решатель для каждого запуска; seed различает запуски эвристик.
type Algorithm struct {
	Name    string
	Factory func(seed int64) opt.Optimizer
}

// Case — конфигурация случайного экземпляра.
type Case struct {
	Aircraft     int
	Stands       int
	Horizon      int
	MaxDuration  int
	InstanceSeed int64
}

// Instance строит экземпляр случая; одинаковый сид даёт одинаковый экземпляр.
func (c Case) Instance() *apron.Instance {
	rng := rand.New(rand.NewSource(c.InstanceSeed))
	return apron.RandomInstance(c.Aircraft, c.Stands, c.Horizon, c.MaxDuration, 100, 999, rng)
}

type Record struct {
	Algo     string
	Aircraft int
	Stands   int
	Horizon  int
	Runs     int

	// Feasible — запуски с допустимым решением, Optimal — с доказанной оптимальностью.
	Feasible int
	Optimal  int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	// Статистика стоимости только по запускам с решением.
	CostBest int
	CostMean float64
	CostStd  float64
}

// Runner запускает алгоритм Runs раз с сидами BaseSeed, BaseSeed+1, ...
type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 — без ограничения
}

// runOnce выполняет один запуск и проверяет решение независимо от решателя.
func (r Runner) runOnce(ctx context.Context, inst *apron.Instance, op opt.Optimizer) (opt.Result, float64, error) {
	if r.PerRunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		defer cancel()
	}
	started := time.Now()
	res, err := op.Solve(ctx, inst)
	ms := float64(time.Since(started).Microseconds()) / 1000.0
	// Таймаут запуска — исчерпанный бюджет, а не сбой: эвристика вернула лучшее найденное.
	if err != nil && res.Stopped == opt.StopContext && errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return res, ms, err
	}
	if res.Solution != nil {
		if err := apron.Verify(inst, res.Solution); err != nil {
			return res, ms, fmt.Errorf("%w: %v", opt.ErrInternalInconsistency, err)
		}
	}
	return res, ms, nil
}

// RunCase прогоняет алгоритм на экземпляре конфигурации и собирает статистику.
func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	inst := c.Instance()
	rec := Record{
		Algo:     algo.Name,
		Aircraft: c.Aircraft,
		Stands:   c.Stands,
		Horizon:  c.Horizon,
		Runs:     r.Runs,
	}

	var (
		costs []int
		times []float64
	)
	for run := 0; run < r.Runs; run++ {
		res, ms, err := r.runOnce(ctx, inst, algo.Factory(r.BaseSeed+int64(run)))
		if err != nil {
			return Record{}, fmt.Errorf("%s run %d: %w", algo.Name, run, err)
		}
		times = append(times, ms)
		if res.Solution != nil {
			costs = append(costs, res.Cost)
		}
		if res.Status == opt.StatusOptimal {
			rec.Optimal++
		}
	}

	cs, ts := Calc(costs), Calc(times)
	rec.Feasible = cs.N
	rec.CostBest, rec.CostMean, rec.CostStd = cs.Best, cs.Mean, cs.Std
	rec.TimeBestMs, rec.TimeMeanMs, rec.TimeStdMs = ts.Best, ts.Mean, ts.Std
	return rec, nil
}

var csvHeader = []string{
	"algo", "aircraft", "stands", "horizon", "runs",
	"feasible", "optimal",
	"time_best_ms", "time_mean_ms", "time_std_ms",
	"cost_best", "cost_mean", "cost_std",
}

func (r Record) csvRow() []string {
	i := strconv.Itoa
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return []string{
		r.Algo, i(r.Aircraft), i(r.Stands), i(r.Horizon), i(r.Runs),
		i(r.Feasible), i(r.Optimal),
		f(r.TimeBestMs), f(r.TimeMeanMs), f(r.TimeStdMs),
		i(r.CostBest), f(r.CostMean), f(r.CostStd),
	}
}

// WriteCSV пишет сводку в CSV, создавая недостающие каталоги.
func WriteCSV(path string, records []Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write(r.csvRow()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
