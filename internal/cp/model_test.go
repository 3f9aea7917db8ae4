package cp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standAlloc/internal/apron"
)

func newModel(t *testing.T, stands, horizon int, arrivals, durations []int, costs [][]int) *Model {
	t.Helper()
	inst, err := apron.FromTables(stands, horizon, arrivals, durations, costs)
	require.NoError(t, err)
	md, err := New(inst)
	require.NoError(t, err)
	return md
}

// Три судна, три стоянки, горизонт 5; стоянка 0 дешёвая только для судна 2.
func smallModel(t *testing.T) *Model {
	return newModel(t, 3, 5,
		[]int{1, 2, 0},
		[]int{3, 3, 2},
		[][]int{{1000, 500, 500}, {1000, 500, 500}, {100, 500, 500}})
}

func TestNewRejectsInvalid(t *testing.T) {
	_, err := New(&apron.Instance{Horizon: -1})
	assert.ErrorIs(t, err, apron.ErrInvalidInstance)
}

func TestPostForbidsBeforeArrival(t *testing.T) {
	md := smallModel(t)
	require.True(t, md.Post())

	for s := 0; s < 3; s++ {
		assert.Equal(t, False, md.Occ(0, s, 0))
		assert.Equal(t, False, md.Occ(1, s, 0))
		assert.Equal(t, False, md.Occ(1, s, 1))
		assert.Equal(t, Unset, md.Occ(2, s, 0))
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, 3, md.Count(i))
		assert.False(t, md.Resolved(i))
	}
	assert.False(t, md.Complete())
}

func TestAssignFixesWindowAndExcludesOthers(t *testing.T) {
	md := smallModel(t)
	require.True(t, md.Post())

	require.True(t, md.Assign(2, 0))
	assert.Equal(t, 0, md.Stand(2))
	assert.Equal(t, False, md.Use(2, 1))
	assert.Equal(t, False, md.Use(2, 2))
	assert.Equal(t, True, md.Occ(2, 0, 0))
	assert.Equal(t, True, md.Occ(2, 0, 1))
	for slot := 2; slot < 5; slot++ {
		assert.Equal(t, False, md.Occ(2, 0, slot))
	}

	// Слот 1 стоянки 0 занят, окно судна 0 начинается в слоте 1.
	assert.Equal(t, False, md.Use(0, 0))
	assert.Equal(t, []int{1, 2}, md.Options(0, nil))
	// Окно судна 1 начинается в слоте 2, стоянка 0 ему ещё доступна.
	assert.Equal(t, 3, md.Count(1))
}

func TestPropagationCompletesAssignment(t *testing.T) {
	md := smallModel(t)
	require.True(t, md.Post())
	require.True(t, md.Assign(2, 0))
	require.True(t, md.Assign(0, 1))

	// Стоянка 1 занята судном 0 в слотах 2..3.
	assert.Equal(t, False, md.Use(1, 1))
	require.True(t, md.Assign(1, 2))
	assert.True(t, md.Complete())

	for i := 0; i < 3; i++ {
		for s := 0; s < 3; s++ {
			for slot := 0; slot < 5; slot++ {
				assert.NotEqual(t, Unset, md.Occ(i, s, slot), md.dump(i))
			}
		}
	}

	sol, err := md.Extract()
	require.NoError(t, err)
	assert.Equal(t, 1100, sol.TotalCost)
	assert.NoError(t, apron.Verify(md.Instance(), sol))
}

func TestSingleRemainingStandIsForced(t *testing.T) {
	md := smallModel(t)
	require.True(t, md.Post())

	require.True(t, md.Forbid(0, 0))
	require.True(t, md.Forbid(0, 1))
	assert.Equal(t, 2, md.Stand(0))
	assert.Equal(t, True, md.Occ(0, 2, 1))
}

func TestConflictDetected(t *testing.T) {
	// Двум судам нужна единственная стоянка одновременно.
	md := newModel(t, 1, 5, []int{0, 0}, []int{3, 3}, [][]int{{1}, {1}})
	require.True(t, md.Post())

	mark := md.Mark()
	assert.False(t, md.Assign(0, 0))
	md.Undo(mark)
	assert.Equal(t, Unset, md.Use(0, 0))
	assert.Equal(t, Unset, md.Use(1, 0))

	assert.False(t, md.Forbid(1, 0))
}

func TestPostFailsWhenWindowOverrunsHorizon(t *testing.T) {
	md := newModel(t, 2, 5, []int{0, 6}, []int{1, 2}, [][]int{{1, 1}, {1, 1}})
	assert.False(t, md.Post())

	md = newModel(t, 2, 5, []int{0, 4}, []int{1, 2}, [][]int{{1, 1}, {1, 1}})
	assert.False(t, md.Post())
}

func TestPostFailsWithoutStands(t *testing.T) {
	md := newModel(t, 0, 5, []int{0}, []int{1}, [][]int{{}})
	assert.False(t, md.Post())
}

func TestZeroDurationAircraftNeedsNoStand(t *testing.T) {
	md := newModel(t, 1, 3, []int{0, 1}, []int{2, 0}, [][]int{{10}, {70}})
	require.True(t, md.Post())

	assert.True(t, md.Resolved(1))
	assert.Zero(t, md.Count(1))
	assert.Equal(t, apron.NoStand, md.Stand(1))

	require.True(t, md.Assign(0, 0))
	require.True(t, md.Complete())

	sol, err := md.Extract()
	require.NoError(t, err)
	assert.Equal(t, apron.NoStand, sol.Assignments[1].Stand)
	assert.Zero(t, sol.Assignments[1].Cost)
	assert.Equal(t, 10, sol.TotalCost)
}

func TestZeroDurationBeyondHorizonIsFeasible(t *testing.T) {
	md := newModel(t, 1, 3, []int{9}, []int{0}, [][]int{{5}})
	require.True(t, md.Post())
	assert.True(t, md.Complete())
}

func TestNoReturnAfterVacating(t *testing.T) {
	md := newModel(t, 1, 6, []int{0}, []int{2}, [][]int{{1}})
	require.True(t, md.Post())

	require.True(t, md.setOcc(0, 0, 1, True))
	require.True(t, md.setOcc(0, 0, 2, False))
	require.True(t, md.propagate())

	for slot := 2; slot < 6; slot++ {
		assert.Equal(t, False, md.Occ(0, 0, slot))
	}
	assert.Equal(t, True, md.Use(0, 0))
	assert.Equal(t, True, md.Occ(0, 0, 0))
}

func TestOccupancyOutsideWindowFails(t *testing.T) {
	md := newModel(t, 1, 6, []int{0}, []int{2}, [][]int{{1}})
	require.True(t, md.Post())

	mark := md.Mark()
	require.True(t, md.setOcc(0, 0, 4, True))
	assert.False(t, md.propagate())
	md.Undo(mark)
	assert.Equal(t, Unset, md.Occ(0, 0, 4))
}

func TestUndoRestoresState(t *testing.T) {
	md := smallModel(t)
	require.True(t, md.Post())

	occ := append([]Tri(nil), md.occ...)
	use := append([]Tri(nil), md.use...)
	mark := md.Mark()

	require.True(t, md.Assign(2, 0))
	require.True(t, md.Assign(0, 1))
	md.Undo(mark)

	assert.Equal(t, occ, md.occ)
	assert.Equal(t, use, md.use)
	assert.Equal(t, mark, md.Mark())
}

func TestCloneIsIndependent(t *testing.T) {
	md := smallModel(t)
	require.True(t, md.Post())

	c := md.Clone()
	assert.Zero(t, c.Mark())
	require.True(t, c.Assign(2, 0))
	assert.Equal(t, 0, c.Stand(2))
	assert.Equal(t, apron.NoStand, md.Stand(2))
	assert.Equal(t, Unset, md.Use(2, 0))
}

func TestExtractRejectsUndecided(t *testing.T) {
	md := smallModel(t)
	require.True(t, md.Post())

	_, err := md.Extract()
	assert.ErrorIs(t, err, ErrInternalInconsistency)
}

func TestExtractRejectsBrokenContiguity(t *testing.T) {
	md := smallModel(t)
	require.True(t, md.Post())
	require.True(t, md.Assign(2, 0))
	require.True(t, md.Assign(0, 1))
	require.True(t, md.Assign(1, 2))

	md.occ[md.occIdx(0, 1, 2)] = False
	_, err := md.Extract()
	assert.ErrorIs(t, err, ErrInternalInconsistency)
}

func TestExtractRejectsLateStart(t *testing.T) {
	md := smallModel(t)
	require.True(t, md.Post())
	require.True(t, md.Assign(2, 0))
	require.True(t, md.Assign(0, 1))
	require.True(t, md.Assign(1, 2))

	// Сдвиг блока на слот позже: длительность та же, начало не совпадает с прибытием.
	md.occ[md.occIdx(0, 1, 1)] = False
	md.occ[md.occIdx(0, 1, 4)] = True
	_, err := md.Extract()
	assert.ErrorIs(t, err, ErrInternalInconsistency)
	assert.Contains(t, err.Error(), "starts at slot 2, arrival is 1")
	assert.Contains(t, err.Error(), "Y[1]=1 X=00111")
}

func TestTriString(t *testing.T) {
	assert.Equal(t, "?", Unset.String())
	assert.Equal(t, "0", False.String())
	assert.Equal(t, "1", True.String())
}
