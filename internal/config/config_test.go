package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shikigami/battle-server-go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "battle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	opts := game.DefaultOptions()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, opts.MaxTurns, cfg.Battle.MaxTurns)
	assert.Equal(t, opts.StartMana, cfg.Battle.StartMana)
	assert.Equal(t, opts.StallLimit, cfg.Battle.StallLimit)
	assert.Equal(t, DefaultRoster(), cfg.Roster)
	assert.Equal(t, 50*time.Millisecond, cfg.Trace.StepInterval)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
battle:
  seed: 42
  max_turns: 30
  start_mana: 2
  resist_prevents_buff: true
roster:
  - no: 3
    team_id: 0
    level: 35
  - no: 1
    team_id: 1
    equipments: [1]
replay:
  enabled: true
  directory: out
trace:
  step_interval: 10ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, int64(42), cfg.Battle.Seed)
	assert.True(t, cfg.Replay.Enabled)
	assert.Equal(t, "out", cfg.Replay.Directory)
	assert.Equal(t, 10*time.Millisecond, cfg.Trace.StepInterval)
	assert.Equal(t, []game.RosterEntry{
		{No: 3, TeamID: 0, Level: 35},
		{No: 1, TeamID: 1, Equipments: []int{1}},
	}, cfg.Roster)

	opts := cfg.Battle.Options()
	assert.Equal(t, int64(42), opts.Seed)
	assert.Equal(t, 30, opts.MaxTurns)
	assert.Equal(t, 2, opts.StartMana)
	assert.True(t, opts.ResistPreventsBuff)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "battle: [unterminated\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BATTLE_BATTLE_SEED", "99")
	t.Setenv("BATTLE_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Battle.Seed)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero max turns", func(c *Config) { c.Battle.MaxTurns = 0 }},
		{"negative steps", func(c *Config) { c.Battle.MaxSteps = -1 }},
		{"zero stall limit", func(c *Config) { c.Battle.StallLimit = 0 }},
		{"negative mana", func(c *Config) { c.Battle.StartMana = -1 }},
		{"replay without dir", func(c *Config) { c.Replay.Enabled = true; c.Replay.Directory = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
