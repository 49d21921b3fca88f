package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "canterbury", cfg.Sim.Scenario)
	assert.Equal(t, 1.0, cfg.Sim.Speed)
	assert.True(t, cfg.Sim.AutoChores)
	assert.Equal(t, 100*time.Millisecond, cfg.Sim.TickInterval)
	assert.Equal(t, "@every 5m", cfg.Storage.AutosaveCron)
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "farm.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"FARMSIM_SCENARIO=waikato\nFARMSIM_SEED=99\nFARMSIM_SPEED=2.5\nFARMSIM_LOG_LEVEL=debug\nFARMSIM_LOG_FORMAT=json\n"), 0o644))
	// godotenv never overrides variables already present.
	for _, k := range []string{"FARMSIM_SCENARIO", "FARMSIM_SEED", "FARMSIM_SPEED", "FARMSIM_LOG_LEVEL", "FARMSIM_LOG_FORMAT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "waikato", cfg.Sim.Scenario)
	assert.EqualValues(t, 99, cfg.Sim.Seed)
	assert.Equal(t, 2.5, cfg.Sim.Speed)

	lvl, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
	_, isJSON := cfg.Log.Handler(os.Stderr).(*slog.JSONHandler)
	assert.True(t, isJSON)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	cases := map[string]string{
		"FARMSIM_PORT":          "eighty",
		"FARMSIM_SCENARIO":      "atlantis",
		"FARMSIM_SPEED":         "50",
		"FARMSIM_AUTOSAVE_CRON": "whenever",
		"FARMSIM_AUTO_CHORES":   "maybe",
		"FARMSIM_LOG_FORMAT":    "xml",
		"FARMSIM_LOG_LEVEL":     "loud",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
