package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"standAlloc/internal/apron"
	"standAlloc/internal/bnb"
	"standAlloc/internal/opt"
	"standAlloc/internal/report"
	"standAlloc/internal/sa"
	"standAlloc/internal/scenario"
	"standAlloc/internal/store"
	"standAlloc/internal/ts"
)

var solveOpts struct {
	builtin   string
	random    string
	seed      int64
	algo      string
	workers   int
	timeLimit string
	nodeLimit int
	output    string
	noStore   bool
}

var solveCmd = &cobra.Command{
	Use:   "solve [scenario.yaml]",
	Short: "Решить один экземпляр",
	Long: "Решает экземпляр из YAML-файла, встроенный пример (--builtin) или случайный (--random AxSxH).\n" +
		"Неразрешимость — нормальный исход и не считается ошибкой.",
	Args: cobra.MaximumNArgs(1),
	RunE: runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVar(&solveOpts.builtin, "builtin", "", "встроенный пример: small | large")
	f.StringVar(&solveOpts.random, "random", "", "случайный экземпляр: суда x стоянки x горизонт[x длительность], например 10x4x24")
	f.Int64Var(&solveOpts.seed, "seed", 777, "сид случайного экземпляра и эвристик")
	f.StringVar(&solveOpts.algo, "algo", "bnb", "алгоритм: bnb | ts | sa")
	f.IntVar(&solveOpts.workers, "workers", 0, "число потоков поиска (0 — из конфигурации)")
	f.StringVar(&solveOpts.timeLimit, "time-limit", "", "ограничение времени, например 5s (пусто — из конфигурации)")
	f.IntVar(&solveOpts.nodeLimit, "node-limit", -1, "ограничение числа ветвлений (-1 — из конфигурации)")
	f.StringVarP(&solveOpts.output, "output", "o", "table", "формат вывода: table | yaml")
	f.BoolVar(&solveOpts.noStore, "no-store", false, "не сохранять запуск в базу")
}

func loadScenario(args []string) (*scenario.Scenario, error) {
	sources := 0
	for _, set := range []bool{len(args) == 1, solveOpts.builtin != "", solveOpts.random != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return nil, errors.New("укажите ровно один источник: файл, --builtin или --random")
	}
	switch {
	case len(args) == 1:
		return scenario.LoadFile(args[0])
	case solveOpts.builtin != "":
		return scenario.Builtin(solveOpts.builtin)
	}
	dims, err := parseDims(solveOpts.random)
	if err != nil {
		return nil, err
	}
	maxDuration := max(1, dims[2]/4)
	if len(dims) == 4 {
		maxDuration = dims[3]
	}
	inst := apron.RandomInstance(dims[0], dims[1], dims[2], maxDuration, 100, 999,
		rand.New(rand.NewSource(solveOpts.seed)))
	return scenario.Random(inst, solveOpts.seed), nil
}

func solverConfig() (bnb.Config, error) {
	bc := bnb.DefaultConfig()
	bc.Workers = cfg.Solver.Workers
	bc.TimeLimit = cfg.Solver.TimeLimit
	bc.NodeLimit = cfg.Solver.NodeLimit
	if solveOpts.workers > 0 {
		bc.Workers = solveOpts.workers
	}
	if solveOpts.timeLimit != "" {
		d, err := time.ParseDuration(solveOpts.timeLimit)
		if err != nil {
			return bc, fmt.Errorf("--time-limit: %w", err)
		}
		bc.TimeLimit = d
	}
	if solveOpts.nodeLimit >= 0 {
		bc.NodeLimit = solveOpts.nodeLimit
	}
	return bc, bc.Validate()
}

// writeResult выбирает формат вывода.
func writeResult(w io.Writer, format string, inst *apron.Instance, res opt.Result) error {
	switch format {
	case "table":
		return report.Table(w, inst, res)
	case "yaml":
		return report.YAML(w, inst, res)
	}
	return fmt.Errorf("неизвестный формат вывода %q; доступные: table, yaml", format)
}

// interrupted сообщает, что эвристика остановлена отменой ctx и вернула
// лучшее найденное решение вместе с ошибкой ctx.
func interrupted(res opt.Result, err error) bool {
	return res.Stopped == opt.StopContext &&
		(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func runSolve(cmd *cobra.Command, args []string) error {
	if solveOpts.output != "table" && solveOpts.output != "yaml" {
		return fmt.Errorf("неизвестный формат вывода %q; доступные: table, yaml", solveOpts.output)
	}
	sc, err := loadScenario(args)
	if err != nil {
		return err
	}
	for _, w := range sc.Warnings {
		logger.Warn().Str("scenario", sc.Name).Msg(w)
	}
	inst := sc.Instance

	var reg *prometheus.Registry
	if cfg.Metrics.Textfile != "" {
		reg = prometheus.NewRegistry()
	}

	var solver opt.Optimizer
	switch solveOpts.algo {
	case "bnb":
		bc, err := solverConfig()
		if err != nil {
			return err
		}
		obs, err := searchObserver(reg)
		if err != nil {
			return err
		}
		s, err := bnb.New(bc, obs)
		if err != nil {
			return err
		}
		solver = s
	case "ts":
		s, err := ts.New(ts.DefaultConfig(), rand.New(rand.NewSource(solveOpts.seed)))
		if err != nil {
			return err
		}
		solver = s
	case "sa":
		s, err := sa.New(sa.DefaultConfig(), rand.New(rand.NewSource(solveOpts.seed)))
		if err != nil {
			return err
		}
		solver = s
	default:
		return fmt.Errorf("неизвестный алгоритм %q", solveOpts.algo)
	}

	logger.Info().
		Str("scenario", sc.Name).
		Str("algo", solveOpts.algo).
		Int("aircraft", inst.NumAircraft()).
		Int("stands", inst.NumStands()).
		Int("horizon", inst.Horizon).
		Msg("solving")

	res, err := solver.Solve(cmd.Context(), inst)
	switch {
	case err == nil:
	case interrupted(res, err) && !errors.Is(err, opt.ErrInternalInconsistency):
		logger.Warn().Err(err).Msg("search interrupted, reporting best found")
	default:
		if errors.Is(err, opt.ErrInternalInconsistency) {
			logger.Error().Err(err).Msg("solver produced an inconsistent assignment")
		}
		return err
	}
	if res.Solution != nil {
		if err := apron.Verify(inst, res.Solution); err != nil {
			return fmt.Errorf("%w: %v", opt.ErrInternalInconsistency, err)
		}
	}

	logger.Info().
		Str("status", string(res.Status)).
		Bool("proven", res.Proven).
		Int("cost", res.Cost).
		Int("nodes", res.Iterations).
		Dur("duration", res.Duration).
		Msg("solved")

	flushMetrics(reg)

	if !solveOpts.noStore {
		db, err := openStore(cfg.DBPath)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
			if err := db.SaveRun(store.NewRun(sc.Name, solveOpts.algo, inst, res)); err != nil {
				logger.Error().Err(err).Msg("failed to save run")
			}
		}
	}

	return writeResult(os.Stdout, solveOpts.output, inst, res)
}
