package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standAlloc/internal/apron"
	"standAlloc/internal/bench"
	"standAlloc/internal/opt"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "standalloc.db"))
	require.NoError(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })
	return db
}

func smallResult(t *testing.T) (*apron.Instance, opt.Result) {
	t.Helper()
	inst, err := apron.NewInstance(4,
		[]string{"A1", "B2"},
		[]apron.Aircraft{
			{ID: "SU-1402", Arrival: 0, Duration: 2},
			{ID: "TOW-7", Arrival: 1, Duration: 0},
		},
		[][]int{{10, 20}, {5, 5}})
	require.NoError(t, err)
	return inst, opt.Result{
		Status:     opt.StatusOptimal,
		Proven:     true,
		Cost:       10,
		Iterations: 2,
		Duration:   3 * time.Millisecond,
		Solution: &apron.Solution{
			Assignments: []apron.Assignment{
				{Aircraft: 0, Stand: 0, Start: 0, End: 2, Cost: 10},
				{Aircraft: 1, Stand: apron.NoStand},
			},
			TotalCost: 10,
		},
	}
}

func TestNew(t *testing.T) {
	db := setupTestDB(t)
	runs, err := db.Runs(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSaveRunAndAssignments(t *testing.T) {
	db := setupTestDB(t)
	inst, res := smallResult(t)

	run := NewRun("small", "bnb", inst, res)
	require.NoError(t, db.SaveRun(run))

	runs, err := db.Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "small", got.Instance)
	assert.Equal(t, "bnb", got.Algo)
	assert.Equal(t, opt.StatusOptimal, got.Status)
	assert.True(t, got.Proven)
	assert.Equal(t, opt.StopNone, got.Stopped)
	assert.True(t, got.Cost.Valid)
	assert.EqualValues(t, 10, got.Cost.Int64)
	assert.Equal(t, 2, got.Aircraft)
	assert.InDelta(t, 3.0, got.DurationMs, 1e-9)

	rows, err := db.Assignments(run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SU-1402", rows[0].Aircraft)
	assert.Equal(t, "A1", rows[0].Stand.String)
	assert.EqualValues(t, 2, rows[0].End.Int64)
	assert.Equal(t, "TOW-7", rows[1].Aircraft)
	assert.False(t, rows[1].Stand.Valid)
	assert.False(t, rows[1].Start.Valid)
}

func TestSaveRunWithoutSolution(t *testing.T) {
	db := setupTestDB(t)
	inst, _ := smallResult(t)

	run := NewRun("blocked", "bnb", inst, opt.Result{Status: opt.StatusUnknown, Stopped: opt.StopNodeLimit})
	require.NoError(t, db.SaveRun(run))

	runs, err := db.Runs(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Cost.Valid)
	assert.Equal(t, opt.StopNodeLimit, runs[0].Stopped)

	rows, err := db.Assignments(run.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	inst, res := smallResult(t)

	older := NewRun("first", "bnb", inst, res)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := NewRun("second", "ts", inst, res)
	require.NoError(t, db.SaveRun(older))
	require.NoError(t, db.SaveRun(newer))

	runs, err := db.Runs(5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "second", runs[0].Instance)
	assert.Equal(t, "first", runs[1].Instance)

	runs, err = db.Runs(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSaveRunRejectsDuplicateID(t *testing.T) {
	db := setupTestDB(t)
	inst, res := smallResult(t)

	run := NewRun("small", "bnb", inst, res)
	require.NoError(t, db.SaveRun(run))
	assert.Error(t, db.SaveRun(run))
	assert.Error(t, db.SaveRun(nil))
}

func TestSaveBench(t *testing.T) {
	db := setupTestDB(t)
	records := []bench.Record{
		{Algo: "BNB", Aircraft: 6, Stands: 3, Horizon: 12, Runs: 2, Feasible: 2, Optimal: 2, CostBest: 900, CostMean: 900, TimeMeanMs: 1.25},
		{Algo: "SA", Aircraft: 6, Stands: 3, Horizon: 12, Runs: 2, Feasible: 2, CostBest: 950, CostMean: 975, CostStd: 35.3553},
	}
	require.NoError(t, db.SaveBench("batch-1", records))
	require.NoError(t, db.SaveBench("batch-2", records[:1]))
	require.NoError(t, db.SaveBench("batch-3", nil))

	got, err := db.Bench("batch-1")
	require.NoError(t, err)
	assert.Equal(t, records, got)

	got, err = db.Bench("batch-2")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = db.Bench("missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}
