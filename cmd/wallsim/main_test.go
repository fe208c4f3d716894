package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/wallsim/internal/config"
	"github.com/san-kum/wallsim/internal/logging"
	"github.com/san-kum/wallsim/internal/sim"
	"github.com/san-kum/wallsim/internal/wall"
)

func resetFlags(t *testing.T) {
	t.Helper()
	preset, configID = "", ""
	settings = config.DefaultSettings()
	logger = logging.Discard()
}

func TestSelectWall(t *testing.T) {
	resetFlags(t)

	_, err := selectWall(nil, nil)
	assert.ErrorIs(t, err, errNoWall)

	preset = "example"
	w, err := selectWall(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, wall.Configuration{{21, 25, 28}, {17}, {17, 22, 17, 19, 17}}, w)

	_, err = selectWall([]string{"wall.yaml"}, nil)
	assert.ErrorIs(t, err, errNoWall)

	preset = "nope"
	_, err = selectWall(nil, nil)
	assert.ErrorContains(t, err, "unknown preset")
}

func TestSelectWallFromFile(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "wall.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- [27]\n- [27, 27]\n"), 0644))

	w, err := selectWall([]string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, wall.Configuration{{27}, {27, 27}}, w)
}

func TestSweepWallDefaultsToExample(t *testing.T) {
	resetFlags(t)

	w, err := sweepWall(nil)
	require.NoError(t, err)
	assert.Equal(t, config.GetPreset("example"), w)

	preset = "small"
	_, err = sweepWall([]string{"x.yaml"})
	assert.Error(t, err)
}

func TestEngineConfig(t *testing.T) {
	resetFlags(t)
	settings.Strategy = sim.StrategyProcess
	settings.MaxWorkers = 3

	cfg, err := engineConfig()
	require.NoError(t, err)
	assert.Equal(t, sim.StrategyProcess, cfg.Executor.Name())
	assert.Equal(t, 3, cfg.MaxWorkers)
	assert.Equal(t, settings.DayTimeout, cfg.DayTimeout)

	settings.Strategy = "carrier-pigeon"
	_, err = engineConfig()
	assert.Error(t, err)
}
