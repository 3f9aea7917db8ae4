package main

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"standAlloc/internal/apron"
	"standAlloc/internal/bench"
	"standAlloc/internal/bnb"
	"standAlloc/internal/opt"
	"standAlloc/internal/sa"
	"standAlloc/internal/ts"
)

// Фабрики

func newBnBFactory(cfg bnb.Config) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, _ := bnb.New(cfg, nil)
		return solver
	}
}

func newSAFactory(cfg sa.Config) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, _ := sa.New(cfg, rand.New(rand.NewSource(seed)))
		return solver
	}
}

func newTSFactory(cfg ts.Config) func(seed int64) opt.Optimizer {
	return func(seed int64) opt.Optimizer {
		solver, _ := ts.New(cfg, rand.New(rand.NewSource(seed)))
		return solver
	}
}

var benchOpts struct {
	out          string
	cases        string
	algos        string
	runs         int
	baseSeed     int64
	instanceSeed int64
	perRunTO     time.Duration

	bnbWorkers   int
	bnbTimeLimit time.Duration

	saIterPerAircraft int
	saIter            int
	saT0              float64
	saTmin            float64
	saAlpha           float64
	saNeigh           string

	tsIterPerAircraft int
	tsIter            int
	tsTenure          int
	tsTenureRand      int
	tsNeighbors       int
	tsNeigh           string
	tsStall           int
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Сравнить точный поиск и эвристики на случайных экземплярах",
	Args:  cobra.NoArgs,
	RunE:  runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringVar(&benchOpts.out, "out", "artifacts/results.csv", "путь к выходному CSV-файлу")
	f.StringVar(&benchOpts.cases, "cases", "6x3x12,10x4x24,14x5x32", "конфигурации: суда x стоянки x горизонт (через запятую)")
	f.StringVar(&benchOpts.algos, "algos", "BNB,TS,SA", "список алгоритмов: BNB, TS, SA (через запятую)")
	f.IntVar(&benchOpts.runs, "runs", 10, "количество запусков каждого алгоритма (с разными сидами)")
	f.Int64Var(&benchOpts.baseSeed, "seed", 1000, "базовый сид для запусков алгоритмов")
	f.Int64Var(&benchOpts.instanceSeed, "instance_seed", 777, "базовый сид для генерации экземпляров (фиксирован для конфигурации)")
	f.DurationVar(&benchOpts.perRunTO, "per_run_timeout", 0, "таймаут одного запуска; 0 — без ограничения")

	// --- Ветви и границы ---
	f.IntVar(&benchOpts.bnbWorkers, "bnb_workers", 1, "число потоков поиска")
	f.DurationVar(&benchOpts.bnbTimeLimit, "bnb_time_limit", 0, "ограничение времени поиска; 0 — без ограничения")

	// --- Алгоритм имитации отжига ---
	f.IntVar(&benchOpts.saIterPerAircraft, "sa_iter_per_aircraft", sa.DefaultConfig().IterationsPerAircraft, "итераций на одно судно (используется, если sa_iter == 0)")
	f.IntVar(&benchOpts.saIter, "sa_iter", 0, "общее количество итераций (0 => sa_iter_per_aircraft × суда)")
	f.Float64Var(&benchOpts.saT0, "sa_t0", sa.DefaultConfig().InitialTemp, "начальная температура")
	f.Float64Var(&benchOpts.saTmin, "sa_tmin", sa.DefaultConfig().FinalTemp, "конечная температура")
	f.Float64Var(&benchOpts.saAlpha, "sa_alpha", sa.DefaultConfig().Alpha, "коэффициент охлаждения (alpha)")
	f.StringVar(&benchOpts.saNeigh, "sa_neigh", string(sa.DefaultConfig().Neighborhood), "тип окрестности: swap | insert")

	// --- Табу-поиск ---
	f.IntVar(&benchOpts.tsIterPerAircraft, "ts_iter_per_aircraft", ts.DefaultConfig().IterationsPerAircraft, "итераций на одно судно (используется, если ts_iter == 0)")
	f.IntVar(&benchOpts.tsIter, "ts_iter", 0, "общее количество итераций (0 => ts_iter_per_aircraft × суда)")
	f.IntVar(&benchOpts.tsTenure, "ts_tenure", ts.DefaultConfig().TabuTenure, "длина табу-списка (в итерациях)")
	f.IntVar(&benchOpts.tsTenureRand, "ts_tenure_rand", ts.DefaultConfig().TabuTenureRand, "случайное добавление к сроку табу [0..rand]")
	f.IntVar(&benchOpts.tsNeighbors, "ts_neighbors", ts.DefaultConfig().NeighborsPerIter, "количество рассматриваемых соседей на итерацию")
	f.StringVar(&benchOpts.tsNeigh, "ts_neigh", string(ts.DefaultConfig().Neighborhood), "тип окрестности: insert | swap")
	f.IntVar(&benchOpts.tsStall, "ts_stall", 0, "остановка после стольких итераций без улучшения; 0 — без остановки")
}

func runBench(cmd *cobra.Command, args []string) error {
	cases, err := parseCases(benchOpts.cases, benchOpts.instanceSeed)
	if err != nil {
		return fmt.Errorf("конфликт: %w", err)
	}

	bnbCfg := bnb.Config{
		Workers:   benchOpts.bnbWorkers,
		TimeLimit: benchOpts.bnbTimeLimit,
	}
	if err := bnbCfg.Validate(); err != nil {
		return fmt.Errorf("конфликт в конфигурации ветвей и границ: %w", err)
	}

	saCfg := sa.Config{
		Iterations:            benchOpts.saIter,
		IterationsPerAircraft: benchOpts.saIterPerAircraft,
		InitialTemp:           benchOpts.saT0,
		FinalTemp:             benchOpts.saTmin,
		Alpha:                 benchOpts.saAlpha,
		Neighborhood:          apron.Neighborhood(benchOpts.saNeigh),
	}
	if err := saCfg.Validate(); err != nil {
		return fmt.Errorf("конфликт в конфигурации алгоритма имитации отжига: %w", err)
	}

	tsCfg := ts.Config{
		Iterations:            benchOpts.tsIter,
		IterationsPerAircraft: benchOpts.tsIterPerAircraft,
		TabuTenure:            benchOpts.tsTenure,
		TabuTenureRand:        benchOpts.tsTenureRand,
		NeighborsPerIter:      benchOpts.tsNeighbors,
		Neighborhood:          apron.Neighborhood(benchOpts.tsNeigh),
		MaxStall:              benchOpts.tsStall,
	}
	if err := tsCfg.Validate(); err != nil {
		return fmt.Errorf("конфликт в конфигурации табу-поиска: %w", err)
	}

	available := map[string]bench.Algorithm{
		"BNB": {Name: "BNB", Factory: newBnBFactory(bnbCfg)},
		"TS":  {Name: "TS", Factory: newTSFactory(tsCfg)},
		"SA":  {Name: "SA", Factory: newSAFactory(saCfg)},
	}

	var selected []bench.Algorithm
	for _, a := range splitCSV(benchOpts.algos) {
		al, ok := available[strings.ToUpper(a)]
		if !ok {
			return fmt.Errorf("алгоритм %q не предоставлен в программе; доступные: %v", a, keys(available))
		}
		selected = append(selected, al)
	}

	runner := bench.Runner{
		Runs:          benchOpts.runs,
		BaseSeed:      benchOpts.baseSeed,
		PerRunTimeout: benchOpts.perRunTO,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var records []bench.Record
	for _, c := range cases {
		for _, a := range selected {
			logger.Info().
				Str("algo", a.Name).
				Int("aircraft", c.Aircraft).
				Int("stands", c.Stands).
				Int("horizon", c.Horizon).
				Int("runs", runner.Runs).
				Msg("запуск")

			rec, err := runner.RunCase(ctx, c, a)
			if err != nil {
				return err
			}
			records = append(records, rec)

			logger.Info().
				Str("algo", a.Name).
				Int("feasible", rec.Feasible).
				Int("optimal", rec.Optimal).
				Int("cost_best", rec.CostBest).
				Float64("cost_mean", rec.CostMean).
				Float64("cost_std", rec.CostStd).
				Float64("time_mean_ms", rec.TimeMeanMs).
				Float64("time_std_ms", rec.TimeStdMs).
				Msg("готово")
		}
	}

	if err := bench.WriteCSV(benchOpts.out, records); err != nil {
		return fmt.Errorf("ошибка при записи в CSV: %w", err)
	}
	logger.Info().Str("path", benchOpts.out).Msg("saved")

	db, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		batch := uuid.NewString()
		if err := db.SaveBench(batch, records); err != nil {
			return err
		}
		logger.Info().Str("batch", batch).Msg("bench records stored")
	}
	return nil
}

// helpers

// parseCases разбирает список "AxSxH" или "AxSxHxD", где D — максимальная длительность.
func parseCases(s string, baseInstanceSeed int64) ([]bench.Case, error) {
	parts := splitCSV(s)
	cases := make([]bench.Case, 0, len(parts))

	for i, p := range parts {
		dims, err := parseDims(p)
		if err != nil {
			return nil, err
		}
		c := bench.Case{
			Aircraft:    dims[0],
			Stands:      dims[1],
			Horizon:     dims[2],
			MaxDuration: max(1, dims[2]/4),
		}
		if len(dims) == 4 {
			c.MaxDuration = dims[3]
		}
		c.InstanceSeed = baseInstanceSeed + int64(i)*10_000 + int64(c.Aircraft)*100 + int64(c.Stands)
		cases = append(cases, c)
	}

	return cases, nil
}

func parseDims(p string) ([]int, error) {
	fields := strings.Split(p, "x")
	if len(fields) != 3 && len(fields) != 4 {
		return nil, fmt.Errorf("конфигурация %q невалидной схемы, пример: 10x4x24", p)
	}
	dims := make([]int, len(fields))
	for k, f := range fields {
		v, err := atoiStrict(f)
		if err != nil {
			return nil, fmt.Errorf("конфигурация %q: %w", p, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("конфигурация %q: все размеры должны быть > 0", p)
		}
		dims[k] = v
	}
	if len(dims) == 3 {
		return dims, nil
	}
	if dims[3] > dims[2] {
		return nil, fmt.Errorf("конфигурация %q: длительность больше горизонта", p)
	}
	return dims, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiStrict(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
