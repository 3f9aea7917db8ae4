// Package sa — имитация отжига по приоритетам судов с жадным декодированием.
package sa

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"standAlloc/internal/apron"
	"standAlloc/internal/opt"
)

// Solver — реализация имитации отжига. Rng задаёт воспроизводимость запуска.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

var errNilRng = errors.New("генератор случайных чисел не инициализирован (nil)")

// New возвращает солвер с проверенной конфигурацией; rng не может быть nil.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errNilRng
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

// Solve не доказывает оптимальность: статус StatusFeasible или,
// если лучший приоритет оставил суда без стоянки, StatusUnknown.
func (s *Solver) Solve(ctx context.Context, inst *apron.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, errNilRng
	}

	dec, err := apron.NewDecoder(inst)
	if err != nil {
		return opt.Result{}, err
	}
	objective := func(p apron.Priority) int { return dec.MustDecode(p).Objective(dec.Penalty) }

	n := inst.NumAircraft()
	nb := s.Cfg.Neighborhood

	curr := apron.Shuffled(n, s.Rng)
	currObj := objective(curr)
	cand := make(apron.Priority, n)
	best := append(apron.Priority(nil), curr...)
	bestObj := currObj
	evals := 1

	temp := s.Cfg.InitialTemp
	iters := 0
	for ; iters < s.Cfg.budget(n) && temp > s.Cfg.FinalTemp && n >= 2; iters++ {
		if err := ctx.Err(); err != nil {
			res, rerr := opt.FromPriority(dec, best, start, map[string]any{"T": temp, "best_objective": bestObj})
			res.Evaluations, res.Iterations, res.Stopped = evals, iters, opt.StopContext
			return res, errors.Join(err, rerr)
		}

		copy(cand, curr)
		nb.Apply(cand, apron.RandomMove(n, s.Rng))
		candObj := objective(cand)
		evals++

		// Улучшение принимается всегда, ухудшение — по критерию Метрополиса.
		delta := candObj - currObj
		if delta <= 0 || s.Rng.Float64() < math.Exp(-float64(delta)/temp) {
			curr, cand = cand, curr
			currObj = candObj
			if currObj < bestObj {
				bestObj = currObj
				copy(best, curr)
			}
		}
		temp *= s.Cfg.Alpha
	}

	res, err := opt.FromPriority(dec, best, start, map[string]any{
		"initial_temp":   s.Cfg.InitialTemp,
		"final_temp":     s.Cfg.FinalTemp,
		"alpha":          s.Cfg.Alpha,
		"neighborhood":   string(nb),
		"best_objective": bestObj,
	})
	res.Evaluations, res.Iterations = evals, iters
	return res, err
}
