package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, mgl64.Vec2{0, 980}, cfg.Physics.Gravity)
	assert.Equal(t, 20, cfg.Physics.Iterations)
	assert.InDelta(t, 1.0/60.0, cfg.Physics.FixedStep, 1e-9)
	assert.Equal(t, 8, cfg.Physics.MaxSubSteps)
	assert.Equal(t, 1.0, cfg.Physics.Material.Density)
	assert.Equal(t, 50*time.Millisecond, cfg.Script.Timeout)
	assert.Equal(t, 960, cfg.Window.Width)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
physics:
  gravity: [0, -10]
  iterations: 5
script:
  timeout: 1s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, mgl64.Vec2{0, -10}, cfg.Physics.Gravity)
	assert.Equal(t, 5, cfg.Physics.Iterations)
	assert.Equal(t, 8, cfg.Physics.MaxSubSteps)
	assert.Equal(t, time.Second, cfg.Script.Timeout)
	assert.Equal(t, "scenegraph", cfg.Window.Title)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "iterations", body: "physics:\n  iterations: 0\n"},
		{name: "negative step", body: "physics:\n  fixed_step: -1\n"},
		{name: "substeps", body: "physics:\n  max_substeps: -2\n"},
		{name: "damping", body: "physics:\n  damping: 2\n"},
		{name: "window", body: "window:\n  width: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")

	_, err = Load(writeConfig(t, "physics: [1, 2"))
	assert.ErrorContains(t, err, "parsing config file")
}

func TestLogger(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.LogLevel = "loud"
	_, err = cfg.Logger()
	assert.Error(t, err)
}
