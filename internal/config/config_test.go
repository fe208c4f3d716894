package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/wallsim/internal/wall"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.Strategy != "goroutine" {
		t.Errorf("expected strategy goroutine, got %s", s.Strategy)
	}
	if s.DayTimeout <= 0 {
		t.Error("day timeout should be positive")
	}
	require.NoError(t, s.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"strategy", func(s *Settings) { s.Strategy = "threads" }},
		{"max workers", func(s *Settings) { s.MaxWorkers = -1 }},
		{"day timeout", func(s *Settings) { s.DayTimeout = 0 }},
		{"log backend", func(s *Settings) { s.LogBackend = "postgres" }},
		{"log format", func(s *Settings) { s.LogFormat = "xml" }},
		{"data dir", func(s *Settings) { s.DataDir = "" }},
		{"max profiles", func(s *Settings) { s.Limits.MaxProfiles = 0 }},
		{"cache", func(s *Settings) { s.Cache.MaxCost = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallsim.yaml")

	s := DefaultSettings()
	s.Strategy = "process"
	s.MaxWorkers = 4
	s.DayTimeout = 90 * time.Second
	s.Limits.MaxProfileLength = 50
	require.NoError(t, Save(path, s))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: process\nday_timeout: 2s\nmax_profiles: 10\n"), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "process", s.Strategy)
	assert.Equal(t, 2*time.Second, s.DayTimeout)
	assert.Equal(t, 10, s.Limits.MaxProfiles)
	assert.Equal(t, wall.DefaultMaxProfileLength, s.Limits.MaxProfileLength)
	assert.Equal(t, DefaultDataDir, s.DataDir)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: fibers\n"), 0644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestLoadOrDefault(t *testing.T) {
	s, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	s, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestGetPreset(t *testing.T) {
	w := GetPreset("small")
	require.NotNil(t, w)
	assert.Equal(t, 12, w.RemainingFeet())

	w[0][0] = 0
	assert.Equal(t, 27, Presets["small"][0][0])

	assert.Nil(t, GetPreset("nonexistent"))
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		assert.NoError(t, Presets[name].Validate(wall.DefaultLimits()), name)
	}
	assert.Equal(t, []string{"example", "finished", "small", "staggered", "tall"}, ListPresets())
}

func TestWallFiles(t *testing.T) {
	dir := t.TempDir()
	w := wall.Configuration{{21, 25, 28}, {17}}

	for _, name := range []string{"wall.json", "wall.yaml", "wall.yml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveWall(path, w))
		loaded, err := LoadWall(path)
		require.NoError(t, err, name)
		assert.Equal(t, w, loaded, name)
	}
}

func TestParseWall(t *testing.T) {
	w, err := ParseWall([]byte("[[27],[27,27],[28,29,30]]"), ".json")
	require.NoError(t, err)
	assert.Equal(t, wall.Configuration{{27}, {27, 27}, {28, 29, 30}}, w)

	w, err = ParseWall([]byte("- [1, 2]\n- [3]\n"), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, wall.Configuration{{1, 2}, {3}}, w)

	_, err = ParseWall([]byte("{not json"), ".json")
	assert.ErrorIs(t, err, wall.ErrInvalidConfiguration)
}
