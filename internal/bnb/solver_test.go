package bnb

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standAlloc/internal/apron"
	"standAlloc/internal/opt"
)

func mustInstance(t *testing.T, stands, horizon int, arrivals, durations []int, costs [][]int) *apron.Instance {
	t.Helper()
	inst, err := apron.FromTables(stands, horizon, arrivals, durations, costs)
	require.NoError(t, err)
	return inst
}

func solve(t *testing.T, cfg Config, inst *apron.Instance) opt.Result {
	t.Helper()
	s, err := New(cfg, nil)
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)
	return res
}

// bruteForce перебирает все назначения и возвращает минимальную стоимость; -1 — решений нет.
func bruteForce(inst *apron.Instance) int {
	n, m := inst.NumAircraft(), inst.NumStands()
	stands := make([]int, n)
	best := -1
	var rec func(i int)
	rec = func(i int) {
		if i == n {
			sol := &apron.Solution{Assignments: make([]apron.Assignment, n)}
			for k, s := range stands {
				a := apron.Assignment{Aircraft: k, Stand: s}
				if s != apron.NoStand {
					a.Start, a.End = inst.Window(k)
					a.Cost = inst.Cost(k, s)
					sol.TotalCost += a.Cost
				}
				sol.Assignments[k] = a
			}
			if apron.Verify(inst, sol) == nil && (best < 0 || sol.TotalCost < best) {
				best = sol.TotalCost
			}
			return
		}
		if inst.Aircraft[i].Duration == 0 {
			stands[i] = apron.NoStand
			rec(i + 1)
			return
		}
		for s := 0; s < m; s++ {
			stands[i] = s
			rec(i + 1)
		}
	}
	rec(0)
	return best
}

func smallInstance(t *testing.T) *apron.Instance {
	return mustInstance(t, 3, 5,
		[]int{1, 2, 0},
		[]int{3, 3, 2},
		[][]int{{1000, 500, 500}, {1000, 500, 500}, {100, 500, 500}})
}

func largeInstance(t *testing.T) *apron.Instance {
	durations := []int{3, 4, 5, 2, 3, 4, 2, 3, 2, 4, 3, 3}
	arrivals := make([]int, len(durations))
	costs := make([][]int, len(durations))
	for i := range durations {
		arrivals[i] = i
		costs[i] = make([]int, 5)
		for j := range costs[i] {
			costs[i][j] = (i + j + 1) * 100
		}
	}
	return mustInstance(t, 5, 24, arrivals, durations, costs)
}

func TestSolveSmall(t *testing.T) {
	inst := smallInstance(t)
	res := solve(t, DefaultConfig(), inst)

	require.Equal(t, opt.StatusOptimal, res.Status)
	assert.True(t, res.Proven)
	assert.Equal(t, opt.StopNone, res.Stopped)
	assert.Equal(t, 1100, res.Cost)
	require.NoError(t, apron.Verify(inst, res.Solution))

	a := res.Solution.Assignments[2]
	assert.Equal(t, 0, a.Stand)
	assert.Equal(t, 0, a.Start)
	assert.Equal(t, 2, a.End)
	assert.ElementsMatch(t, []int{1, 2},
		[]int{res.Solution.Assignments[0].Stand, res.Solution.Assignments[1].Stand})
}

func TestSolveInfeasible(t *testing.T) {
	inst := mustInstance(t, 1, 5, []int{0, 0}, []int{3, 3}, [][]int{{1}, {1}})
	res := solve(t, DefaultConfig(), inst)

	assert.Equal(t, opt.StatusInfeasible, res.Status)
	assert.True(t, res.Proven)
	assert.Nil(t, res.Solution)
	assert.False(t, res.Feasible())
}

func TestSolveZeroDuration(t *testing.T) {
	inst := mustInstance(t, 2, 4,
		[]int{0, 1, 2},
		[]int{2, 0, 2},
		[][]int{{5, 9}, {1, 1}, {5, 9}})
	res := solve(t, DefaultConfig(), inst)

	require.Equal(t, opt.StatusOptimal, res.Status)
	assert.Equal(t, apron.NoStand, res.Solution.Assignments[1].Stand)
	assert.Zero(t, res.Solution.Assignments[1].Cost)
	// Окна [0,2) и [2,4) не пересекаются, обоим достаётся стоянка 0.
	assert.Equal(t, 10, res.Cost)
	assert.NoError(t, apron.Verify(inst, res.Solution))
}

func TestSolveArrivalBeyondHorizon(t *testing.T) {
	inst := mustInstance(t, 2, 5, []int{0, 7}, []int{1, 2}, [][]int{{1, 1}, {1, 1}})
	res := solve(t, DefaultConfig(), inst)

	assert.Equal(t, opt.StatusInfeasible, res.Status)
	assert.True(t, res.Proven)
	assert.Zero(t, res.Iterations)
}

func TestSolveEmptyInstance(t *testing.T) {
	inst := mustInstance(t, 0, 0, nil, nil, nil)
	res := solve(t, DefaultConfig(), inst)

	require.Equal(t, opt.StatusOptimal, res.Status)
	assert.Zero(t, res.Cost)
	assert.Empty(t, res.Solution.Assignments)
}

func TestSolveRejectsInvalidInstance(t *testing.T) {
	s, err := New(DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = s.Solve(context.Background(), &apron.Instance{Horizon: 3, Aircraft: []apron.Aircraft{{ID: "a"}}})
	assert.ErrorIs(t, err, opt.ErrInvalidInstance)
}

func TestSolveMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	for k := 0; k < 60; k++ {
		n := 2 + rng.Intn(5)
		m := 1 + rng.Intn(3)
		inst := apron.RandomInstance(n, m, 6, 4, 1, 6, rng)

		t.Run(fmt.Sprintf("case%d_%dx%d", k, n, m), func(t *testing.T) {
			want := bruteForce(inst)
			res := solve(t, DefaultConfig(), inst)
			assert.True(t, res.Proven)
			if want < 0 {
				assert.Equal(t, opt.StatusInfeasible, res.Status)
				return
			}
			require.Equal(t, opt.StatusOptimal, res.Status)
			assert.Equal(t, want, res.Cost)
			assert.NoError(t, apron.Verify(inst, res.Solution))
		})
	}
}

func TestSolveIsDeterministic(t *testing.T) {
	inst := largeInstance(t)
	first := solve(t, DefaultConfig(), inst)
	second := solve(t, DefaultConfig(), inst)

	require.Equal(t, opt.StatusOptimal, first.Status)
	assert.Equal(t, first.Solution, second.Solution)
	assert.Equal(t, first.Iterations, second.Iterations)
}

func TestParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	instances := []*apron.Instance{largeInstance(t)}
	for k := 0; k < 10; k++ {
		instances = append(instances, apron.RandomInstance(8, 3, 10, 4, 1, 5, rng))
	}
	for k, inst := range instances {
		seq := solve(t, DefaultConfig(), inst)
		par := solve(t, Config{Workers: 4}, inst)

		assert.Equal(t, seq.Status, par.Status, "instance %d", k)
		assert.Equal(t, seq.Cost, par.Cost, "instance %d", k)
		// При равной стоимости побеждает меньшая ветвь, поэтому решение то же.
		assert.Equal(t, seq.Solution, par.Solution, "instance %d", k)
		assert.Equal(t, 4, par.Meta["workers"])
	}
}

func TestAddingStandNeverIncreasesCost(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for k := 0; k < 20; k++ {
		inst := apron.RandomInstance(6, 2, 8, 4, 1, 9, rng)
		extra := make([]int, inst.NumAircraft())
		for i := range extra {
			extra[i] = 1 + rng.Intn(9)
		}
		more, err := inst.WithStand("extra", extra)
		require.NoError(t, err)

		base := solve(t, DefaultConfig(), inst)
		wider := solve(t, DefaultConfig(), more)

		if base.Feasible() {
			require.True(t, wider.Feasible(), "instance %d", k)
			assert.LessOrEqual(t, wider.Cost, base.Cost, "instance %d", k)
		}
	}
}

func TestNodeLimitStopsSearch(t *testing.T) {
	res := solve(t, Config{Workers: 1, NodeLimit: 1}, largeInstance(t))

	assert.Equal(t, opt.StopNodeLimit, res.Stopped)
	assert.False(t, res.Proven)
	assert.Equal(t, opt.StatusUnknown, res.Status)
	assert.Equal(t, 1, res.Iterations)
}

func TestNodeLimitKeepsIncumbent(t *testing.T) {
	inst := largeInstance(t)
	full := solve(t, DefaultConfig(), inst)
	require.Equal(t, opt.StatusOptimal, full.Status)
	require.Greater(t, full.Iterations, 1)

	// Бюджет кончается раньше, чем доказана оптимальность.
	res := solve(t, Config{Workers: 1, NodeLimit: full.Iterations - 1}, inst)
	assert.Equal(t, opt.StopNodeLimit, res.Stopped)
	assert.False(t, res.Proven)
	if res.Solution != nil {
		assert.Equal(t, opt.StatusFeasible, res.Status)
		assert.GreaterOrEqual(t, res.Cost, full.Cost)
		assert.NoError(t, apron.Verify(inst, res.Solution))
	} else {
		assert.Equal(t, opt.StatusUnknown, res.Status)
	}
}

func TestCancelledContext(t *testing.T) {
	s, err := New(DefaultConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Solve(ctx, largeInstance(t))
	require.NoError(t, err)
	assert.Equal(t, opt.StopContext, res.Stopped)
	assert.Equal(t, opt.StatusUnknown, res.Status)
	assert.False(t, res.Proven)
	assert.Zero(t, res.Iterations)
}

// slowAfterIncumbent замедляет ветвления после первого рекорда,
// чтобы ограничение времени наступило раньше доказательства.
type slowAfterIncumbent struct {
	NopObserver
	found atomic.Bool
}

func (o *slowAfterIncumbent) Branch(Event) {
	if o.found.Load() {
		time.Sleep(2 * time.Millisecond)
	}
}

func (o *slowAfterIncumbent) Incumbent(Event) { o.found.Store(true) }

func TestTimeLimitStopsSearch(t *testing.T) {
	inst := apron.RandomInstance(40, 8, 40, 6, 1, 1000, rand.New(rand.NewSource(1)))

	s, err := New(Config{Workers: 1, TimeLimit: 50 * time.Millisecond}, &slowAfterIncumbent{})
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)

	assert.Equal(t, opt.StopTimeLimit, res.Stopped)
	assert.False(t, res.Proven)
	assert.NotEqual(t, opt.StatusOptimal, res.Status)
	if res.Solution != nil {
		assert.Equal(t, opt.StatusFeasible, res.Status)
		assert.NoError(t, apron.Verify(inst, res.Solution))
	}
}

func TestExpiredTimeLimitBeforeFirstBranch(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			res := solve(t, Config{Workers: workers, TimeLimit: time.Nanosecond}, largeInstance(t))
			assert.Equal(t, opt.StopTimeLimit, res.Stopped)
			assert.Equal(t, opt.StatusUnknown, res.Status)
			assert.False(t, res.Proven)
			assert.Zero(t, res.Iterations)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Workers: 0}.Validate())
	assert.Error(t, Config{Workers: 1, TimeLimit: -1}.Validate())
	assert.Error(t, Config{Workers: 1, NodeLimit: -1}.Validate())

	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

type recorder struct {
	mu         sync.Mutex
	branches   int
	fails      int
	prunes     int
	incumbents []int
}

func (r *recorder) Branch(Event) {
	r.mu.Lock()
	r.branches++
	r.mu.Unlock()
}

func (r *recorder) Fail(Event) {
	r.mu.Lock()
	r.fails++
	r.mu.Unlock()
}

func (r *recorder) Prune(ev Event) {
	r.mu.Lock()
	r.prunes++
	r.mu.Unlock()
}

func (r *recorder) Incumbent(ev Event) {
	r.mu.Lock()
	r.incumbents = append(r.incumbents, ev.Incumbent)
	r.mu.Unlock()
}

func TestObserverSeesSearch(t *testing.T) {
	rec := &recorder{}
	s, err := New(DefaultConfig(), Observers(nil, rec))
	require.NoError(t, err)

	res, err := s.Solve(context.Background(), largeInstance(t))
	require.NoError(t, err)
	require.Equal(t, opt.StatusOptimal, res.Status)

	assert.Equal(t, res.Iterations, rec.branches)
	assert.Equal(t, res.Meta["prunes"], int64(rec.prunes))
	assert.Equal(t, res.Meta["failures"], int64(rec.fails))
	require.NotEmpty(t, rec.incumbents)
	assert.Equal(t, res.Cost, rec.incumbents[len(rec.incumbents)-1])
	for k := 1; k < len(rec.incumbents); k++ {
		assert.Less(t, rec.incumbents[k], rec.incumbents[k-1])
	}
}

func TestParallelIncumbentEventsInAcceptanceOrder(t *testing.T) {
	inst := largeInstance(t)
	for run := 0; run < 5; run++ {
		rec := &recorder{}
		s, err := New(Config{Workers: 4}, rec)
		require.NoError(t, err)

		res, err := s.Solve(context.Background(), inst)
		require.NoError(t, err)
		require.Equal(t, opt.StatusOptimal, res.Status)
		require.NotEmpty(t, rec.incumbents)

		// Равная стоимость допустима: её принимает ветвь с меньшим номером.
		assert.Equal(t, res.Cost, rec.incumbents[len(rec.incumbents)-1])
		for k := 1; k < len(rec.incumbents); k++ {
			assert.LessOrEqual(t, rec.incumbents[k], rec.incumbents[k-1])
		}
	}
}

func TestObserversCollapse(t *testing.T) {
	assert.Equal(t, NopObserver{}, Observers())
	assert.Equal(t, NopObserver{}, Observers(nil))

	rec := &recorder{}
	assert.Same(t, rec, Observers(nil, rec))
}

func TestIncumbentTieBreak(t *testing.T) {
	b := newIncumbent()
	assert.Equal(t, -1, b.value())
	assert.False(t, b.prunes(1000, 0))

	var accepted []int
	note := func(cost int) func() {
		return func() { accepted = append(accepted, cost) }
	}
	assert.True(t, b.offer(&apron.Solution{TotalCost: 10}, 2, note(10)))
	assert.False(t, b.offer(&apron.Solution{TotalCost: 10}, 3, note(10)))
	assert.True(t, b.offer(&apron.Solution{TotalCost: 10}, 1, note(10)))
	assert.True(t, b.offer(&apron.Solution{TotalCost: 9}, 5, note(9)))
	assert.False(t, b.offer(&apron.Solution{TotalCost: 12}, 0, note(12)))
	assert.Equal(t, 9, b.value())
	assert.Equal(t, []int{10, 10, 9}, accepted)

	assert.False(t, b.prunes(8, 7))
	assert.True(t, b.prunes(10, 0))
	assert.True(t, b.prunes(9, 5))
	assert.False(t, b.prunes(9, 4))
}
