// Package bnb — точный поиск назначения стоянок методом ветвей и границ
// поверх модели cp.
//
// Ветвление идёт по судам: выбирается нерешённое судно с наименьшим
// числом допустимых стоянок (при равенстве — раньше прибывающее),
// его стоянки перебираются по возрастанию стоимости. После каждого
// выбора работает пропагатор, затем узел отсекается, если нижняя
// оценка не лучше рекорда.
//
// Ветви первого выбранного судна независимы и при Workers > 1
// обходятся параллельно; потоки делят только рекорд.
package bnb

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"standAlloc/internal/apron"
	"standAlloc/internal/cp"
	"standAlloc/internal/opt"
)

// Solver — точный поиск, реализует opt.Optimizer. Observer может быть nil.
type Solver struct {
	Cfg      Config
	Observer Observer
}

// New возвращает солвер с валидацией конфигурации. obs может быть nil.
func New(cfg Config, obs Observer) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{Cfg: cfg, Observer: obs}, nil
}

// Solve ищет назначение минимальной стоимости.
//
// Ошибка возвращается только для некорректного экземпляра
// (opt.ErrInvalidInstance) и для нарушенной согласованности модели
// (opt.ErrInternalInconsistency). Неразрешимость и остановка по бюджету
// или по ctx передаются через Result.Status и Result.Stopped; при остановке
// возвращается лучшее найденное решение без доказательства оптимальности.
func (s *Solver) Solve(ctx context.Context, inst *apron.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}

	obs := s.Observer
	if obs == nil {
		obs = NopObserver{}
	}

	root, err := cp.New(inst)
	if err != nil {
		return opt.Result{}, err
	}

	sr := &search{
		ctx:       ctx,
		inst:      inst,
		obs:       obs,
		best:      newIncumbent(),
		nodeLimit: int64(s.Cfg.NodeLimit),
	}
	if s.Cfg.TimeLimit > 0 {
		sr.deadline = start.Add(s.Cfg.TimeLimit)
	}

	if root.Post() {
		if err := s.run(sr, root); err != nil {
			return opt.Result{}, err
		}
	}

	res := opt.Result{
		Evaluations: int(sr.evals.Load()),
		Iterations:  int(sr.nodes.Load()),
		Duration:    time.Since(start),
		Stopped:     sr.stopReason(),
		Meta: map[string]any{
			"workers":      s.Cfg.Workers,
			"prunes":       sr.prunes.Load(),
			"failures":     sr.fails.Load(),
			"propagations": sr.propagations.Load() + int64(root.Propagations),
		},
	}

	sol := sr.best.solution()
	switch {
	case sol != nil && res.Stopped == opt.StopNone:
		res.Status, res.Proven = opt.StatusOptimal, true
	case sol != nil:
		res.Status = opt.StatusFeasible
	case res.Stopped == opt.StopNone:
		res.Status, res.Proven = opt.StatusInfeasible, true
	default:
		res.Status = opt.StatusUnknown
	}
	if sol != nil {
		res.Solution = sol
		res.Cost = sol.TotalCost
	}
	return res, nil
}

// run обходит дерево от согласованного корня.
func (s *Solver) run(sr *search, root *cp.Model) error {
	first := selectAircraft(root)
	if first < 0 {
		// Всё решено пропагацией в корне.
		return sr.newWorker(root).record(0)
	}

	opts := orderedOptions(root, first, nil)

	if s.Cfg.Workers <= 1 || len(opts) < 2 {
		w := sr.newWorker(root)
		for idx, stand := range opts {
			w.branch = idx
			if err := w.try(0, first, stand); err != nil {
				return err
			}
			if sr.stopped.Load() {
				break
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(sr.ctx)
	g.SetLimit(s.Cfg.Workers)
	sr.ctx = gctx
	for idx, stand := range opts {
		idx, stand := idx, stand
		g.Go(func() error {
			// Корень после Post больше не меняется, копировать его безопасно.
			w := sr.newWorker(root.Clone())
			w.branch = idx
			defer func() { sr.propagations.Add(int64(w.md.Propagations)) }()
			return w.try(0, first, stand)
		})
	}
	return g.Wait()
}
