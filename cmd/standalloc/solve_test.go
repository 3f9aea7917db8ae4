package main

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"standAlloc/internal/apron"
	"standAlloc/internal/opt"
	"standAlloc/internal/ts"
)

func TestLoadScenarioRandomMaxDuration(t *testing.T) {
	saved := solveOpts
	t.Cleanup(func() { solveOpts = saved })

	solveOpts.builtin = ""
	solveOpts.random = "6x2x10x1"
	solveOpts.seed = 5

	sc, err := loadScenario(nil)
	require.NoError(t, err)
	require.Equal(t, 6, sc.Instance.NumAircraft())
	assert.Equal(t, 2, sc.Instance.NumStands())
	for _, a := range sc.Instance.Aircraft {
		assert.Equal(t, 1, a.Duration)
	}
}

func TestLoadScenarioSingleSource(t *testing.T) {
	saved := solveOpts
	t.Cleanup(func() { solveOpts = saved })

	solveOpts.builtin = "small"
	solveOpts.random = "6x2x10"
	_, err := loadScenario(nil)
	assert.Error(t, err)

	solveOpts.random = ""
	sc, err := loadScenario(nil)
	require.NoError(t, err)
	assert.Equal(t, "small", sc.Name)
}

func TestWriteResultFormats(t *testing.T) {
	sc, err := loadBuiltin(t, "small")
	require.NoError(t, err)
	res := opt.Result{Status: opt.StatusUnknown, Stopped: opt.StopTimeLimit}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, "table", sc, res))
	assert.Contains(t, buf.String(), "time_limit")

	buf.Reset()
	require.NoError(t, writeResult(&buf, "yaml", sc, res))
	assert.Contains(t, buf.String(), "stopped: time_limit")

	buf.Reset()
	assert.Error(t, writeResult(&buf, "json", sc, res))
	assert.Empty(t, buf.String())
}

func TestInterruptedHeuristicIsNormalStop(t *testing.T) {
	inst := apron.RandomInstance(8, 3, 12, 4, 100, 999, rand.New(rand.NewSource(3)))
	s, err := ts.New(ts.DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := s.Solve(ctx, inst)
	require.Error(t, err)
	assert.True(t, interrupted(res, err))

	assert.False(t, interrupted(opt.Result{Stopped: opt.StopNodeLimit}, context.Canceled))
	assert.False(t, interrupted(opt.Result{Stopped: opt.StopContext}, errors.New("disk full")))
	assert.False(t, interrupted(opt.Result{}, nil))
}

func loadBuiltin(t *testing.T, name string) (*apron.Instance, error) {
	t.Helper()
	saved := solveOpts
	t.Cleanup(func() { solveOpts = saved })
	solveOpts.builtin, solveOpts.random = name, ""
	sc, err := loadScenario(nil)
	if err != nil {
		return nil, err
	}
	return sc.Instance, nil
}
