// Package ts — табу-поиск по приоритетам судов. Приоритет декодируется
// жадно (apron.Decoder), поэтому любой найденный результат допустим,
// но оптимальность не доказывается. Используется как эталон для
// сравнения с точным поиском.
package ts

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"standAlloc/internal/apron"
	"standAlloc/internal/opt"
)

// Solver — реализация табу-поиска. Rng задаёт воспроизводимость запуска.
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

// candidate — лучший ход итерации среди оценённых.
type candidate struct {
	move apron.Move
	ac   int // судно, которое двигает ход
	obj  int
	ok   bool
}

func (c *candidate) consider(m apron.Move, ac, obj int) {
	if !c.ok || obj < c.obj {
		*c = candidate{move: m, ac: ac, obj: obj, ok: true}
	}
}

// Solve возвращает лучший найденный приоритет в виде решения. При отмене
// ctx результат содержит рекорд, Stopped = opt.StopContext, а ошибка
// оборачивает ctx.Err().
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
	if n < 2 {
		// Ходов нет, порядок не влияет на декодирование.
		res, err := opt.FromPriority(dec, apron.Identity(n), start, nil)
		res.Evaluations = 1
		return res, err
	}

	nb := s.Cfg.Neighborhood
	curr := apron.Shuffled(n, s.Rng)
	cand := make(apron.Priority, n)
	best := append(apron.Priority(nil), curr...)
	bestObj := objective(curr)
	evals := 1

	tabu := newTabuList(max(32, 4*(s.Cfg.TabuTenure+s.Cfg.TabuTenureRand)))

	iters, stall := 0, 0
	for iter := 0; iter < s.Cfg.budget(n); iter++ {
		if err := ctx.Err(); err != nil {
			res, rerr := opt.FromPriority(dec, best, start, map[string]any{"best_objective": bestObj})
			res.Evaluations, res.Iterations, res.Stopped = evals, iters, opt.StopContext
			return res, errors.Join(err, rerr)
		}
		iters++

		// allowed — лучший ход, разрешённый табу-списком или аспирацией;
		// fallback — лучший ход вообще, на случай если запрещены все.
		var allowed, fallback candidate
		for k := 0; k < s.Cfg.NeighborsPerIter; k++ {
			m := apron.RandomMove(n, s.Rng)
			ac := curr[m.From]

			copy(cand, curr)
			nb.Apply(cand, m)
			obj := objective(cand)
			evals++

			fallback.consider(m, ac, obj)
			if !tabu.IsTabu(moveKey(ac, m), iter) || obj < bestObj {
				allowed.consider(m, ac, obj)
			}
		}
		chosen := allowed
		if !chosen.ok {
			chosen = fallback
		}

		nb.Apply(curr, chosen.move)
		tenure := s.Cfg.TabuTenure
		if s.Cfg.TabuTenureRand > 0 {
			tenure += s.Rng.Intn(s.Cfg.TabuTenureRand + 1)
		}
		tabu.Add(moveKey(chosen.ac, chosen.move.Reverse()), iter+tenure)

		if chosen.obj < bestObj {
			bestObj = chosen.obj
			copy(best, curr)
			stall = 0
		} else {
			stall++
		}
		if s.Cfg.MaxStall > 0 && stall >= s.Cfg.MaxStall {
			break
		}
	}

	res, err := opt.FromPriority(dec, best, start, map[string]any{
		"tabu_tenure":        s.Cfg.TabuTenure,
		"tabu_tenure_rand":   s.Cfg.TabuTenureRand,
		"neighbors_per_iter": s.Cfg.NeighborsPerIter,
		"neighborhood":       string(nb),
		"best_objective":     bestObj,
	})
	res.Evaluations, res.Iterations = evals, iters
	return res, err
}

// tabuList хранит сроки запрета ходов: map для проверки и кольцо
// ключей фиксированной ёмкости, вытесняющее самые старые записи.
type tabuList struct {
	expiry map[uint64]int
	ring   []tabuEntry
	pos    int
}

type tabuEntry struct {
	key    uint64
	expiry int
}

func newTabuList(capacity int) *tabuList {
	capacity = max(capacity, 8)
	return &tabuList{
		expiry: make(map[uint64]int, 2*capacity),
		ring:   make([]tabuEntry, capacity),
	}
}

// IsTabu сообщает, запрещён ли ход на итерации iter.
func (t *tabuList) IsTabu(key uint64, iter int) bool {
	exp, ok := t.expiry[key]
	return ok && exp > iter
}

func (t *tabuList) Add(key uint64, expiry int) {
	// Вытесняемая запись удаляется, только если ключ с тех пор не продлевали.
	if old := t.ring[t.pos]; old.key != 0 && t.expiry[old.key] == old.expiry {
		delete(t.expiry, old.key)
	}
	t.ring[t.pos] = tabuEntry{key: key, expiry: expiry}
	t.expiry[key] = expiry
	t.pos = (t.pos + 1) % len(t.ring)
}

// moveKey упаковывает судно и позиции хода; +1 отличает ключ от пустой ячейки кольца.
func moveKey(ac int, m apron.Move) uint64 {
	const bits = 21
	const mask = 1<<bits - 1
	return (uint64(ac+1)&mask)<<(2*bits) | (uint64(m.From)&mask)<<bits | uint64(m.To)&mask
}
