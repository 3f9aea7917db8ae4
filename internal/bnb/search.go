package bnb

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"standAlloc/internal/apron"
	"standAlloc/internal/cp"
	"standAlloc/internal/opt"
)

// incumbent — лучшее найденное решение, общее для всех потоков.
// Стоимость читается атомарно, запись идёт под мьютексом.
// При равной стоимости предпочтение у меньшего номера ветви, поэтому
// результат не зависит от порядка завершения потоков.
type incumbent struct {
	cost atomic.Int64

	mu     sync.Mutex
	branch int
	sol    *apron.Solution
}

func newIncumbent() *incumbent {
	b := &incumbent{branch: math.MaxInt}
	b.cost.Store(math.MaxInt64)
	return b
}

// prunes сообщает, что узел с нижней оценкой lb из ветви branch
// не может дать решение лучше текущего.
func (b *incumbent) prunes(lb, branch int) bool {
	best := b.cost.Load()
	switch {
	case int64(lb) < best:
		return false
	case int64(lb) > best:
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return branch >= b.branch
}

// offer принимает решение, если оно лучше рекорда. accepted вызывается
// под блокировкой, поэтому наблюдатели видят рекорды в порядке принятия.
func (b *incumbent) offer(sol *apron.Solution, branch int, accepted func()) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	cost := int64(sol.TotalCost)
	best := b.cost.Load()
	if cost > best || (cost == best && branch >= b.branch) {
		return false
	}
	b.sol = sol
	b.branch = branch
	b.cost.Store(cost)
	if accepted != nil {
		accepted()
	}
	return true
}

func (b *incumbent) value() int {
	c := b.cost.Load()
	if c == math.MaxInt64 {
		return -1
	}
	return int(c)
}

func (b *incumbent) solution() *apron.Solution {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sol
}

// search — состояние одного запуска, общее для потоков.
type search struct {
	ctx       context.Context
	inst      *apron.Instance
	obs       Observer
	best      *incumbent
	nodeLimit int64
	// deadline — граница Config.TimeLimit, нулевая без ограничения.
	deadline time.Time

	nodes  atomic.Int64
	evals  atomic.Int64
	prunes atomic.Int64
	fails  atomic.Int64

	// propagations копий модели из параллельных потоков.
	propagations atomic.Int64

	stopped atomic.Bool
	reason  atomic.Value // opt.StopReason
}

func (sr *search) stop(r opt.StopReason) {
	if sr.stopped.CompareAndSwap(false, true) {
		sr.reason.Store(r)
	}
}

func (sr *search) stopReason() opt.StopReason {
	if r, ok := sr.reason.Load().(opt.StopReason); ok {
		return r
	}
	return opt.StopNone
}

// halt — кооперативная проверка бюджета перед каждым ветвлением.
func (sr *search) halt() bool {
	if sr.stopped.Load() {
		return true
	}
	if !sr.deadline.IsZero() && !time.Now().Before(sr.deadline) {
		sr.stop(opt.StopTimeLimit)
		return true
	}
	if sr.ctx.Err() != nil {
		sr.stop(opt.StopContext)
		return true
	}
	if sr.nodeLimit > 0 && sr.nodes.Load() >= sr.nodeLimit {
		sr.stop(opt.StopNodeLimit)
		return true
	}
	return false
}

// worker обходит поддерево на собственной копии модели.
type worker struct {
	*search
	md     *cp.Model
	branch int
	bufs   [][]int
}

func (sr *search) newWorker(md *cp.Model) *worker {
	return &worker{search: sr, md: md}
}

// selectAircraft выбирает нерешённое судно с наименьшим числом стоянок,
// при равенстве — с более ранним прибытием, затем с меньшим номером.
// -1 означает, что присваивание полное.
func selectAircraft(md *cp.Model) int {
	inst := md.Instance()
	best, bestCount := -1, 0
	for i, a := range inst.Aircraft {
		if md.Resolved(i) {
			continue
		}
		c := md.Count(i)
		if best < 0 || c < bestCount ||
			(c == bestCount && a.Arrival < inst.Aircraft[best].Arrival) {
			best, bestCount = i, c
		}
	}
	return best
}

// orderedOptions возвращает допустимые стоянки судна по возрастанию стоимости.
func orderedOptions(md *cp.Model, aircraft int, buf []int) []int {
	opts := md.Options(aircraft, buf)
	inst := md.Instance()
	sort.SliceStable(opts, func(a, b int) bool {
		return inst.Cost(aircraft, opts[a]) < inst.Cost(aircraft, opts[b])
	})
	return opts
}

// lowerBound — стоимость зафиксированных судов плюс самая дешёвая
// оставшаяся стоянка для каждого нерешённого.
func lowerBound(md *cp.Model) int {
	inst := md.Instance()
	lb := 0
	for i, a := range inst.Aircraft {
		if a.Duration == 0 {
			continue
		}
		if s := md.Stand(i); s != apron.NoStand {
			lb += inst.Cost(i, s)
			continue
		}
		cheapest := math.MaxInt
		for s := 0; s < inst.NumStands(); s++ {
			if md.Use(i, s) != cp.False && inst.Cost(i, s) < cheapest {
				cheapest = inst.Cost(i, s)
			}
		}
		if cheapest != math.MaxInt {
			lb += cheapest
		}
	}
	return lb
}

func (w *worker) buf(depth int) []int {
	for len(w.bufs) <= depth {
		w.bufs = append(w.bufs, make([]int, 0, w.inst.NumStands()))
	}
	return w.bufs[depth]
}

// try фиксирует судно на стоянке, пропагирует, отсекает по оценке и
// спускается глубже. Модель возвращается в исходное состояние.
func (w *worker) try(depth, aircraft, stand int) error {
	if w.halt() {
		return nil
	}
	w.nodes.Add(1)

	ev := Event{
		Branch:    w.branch,
		Depth:     depth,
		Aircraft:  aircraft,
		Stand:     stand,
		Bound:     -1,
		Incumbent: w.best.value(),
	}
	w.obs.Branch(ev)

	mark := w.md.Mark()
	defer w.md.Undo(mark)

	if !w.md.Assign(aircraft, stand) {
		w.fails.Add(1)
		w.obs.Fail(ev)
		return nil
	}

	ev.Bound = lowerBound(w.md)
	if w.best.prunes(ev.Bound, w.branch) {
		w.prunes.Add(1)
		ev.Incumbent = w.best.value()
		w.obs.Prune(ev)
		return nil
	}
	return w.dfs(depth + 1)
}

func (w *worker) dfs(depth int) error {
	i := selectAircraft(w.md)
	if i < 0 {
		return w.record(depth)
	}
	opts := orderedOptions(w.md, i, w.buf(depth))
	w.bufs[depth] = opts

	// Обойдённая стоянка запрещается для следующих братьев.
	mark := w.md.Mark()
	defer w.md.Undo(mark)
	for k, s := range opts {
		if err := w.try(depth, i, s); err != nil {
			return err
		}
		if w.stopped.Load() {
			return nil
		}
		if k < len(opts)-1 && !w.md.Forbid(i, s) {
			return nil
		}
	}
	return nil
}

func (w *worker) record(depth int) error {
	sol, err := w.md.Extract()
	if err != nil {
		return err
	}
	w.evals.Add(1)
	w.best.offer(sol, w.branch, func() {
		w.obs.Incumbent(Event{
			Branch:    w.branch,
			Depth:     depth,
			Aircraft:  -1,
			Stand:     apron.NoStand,
			Bound:     sol.TotalCost,
			Incumbent: sol.TotalCost,
		})
	})
	return nil
}
