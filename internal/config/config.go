// Package config loads battle runner configuration from a file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/shikigami/battle-server-go/internal/game"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BATTLE_BATTLE_SEED.
const EnvPrefix = "BATTLE"

// Config is the complete runner configuration.
type Config struct {
	Logging LoggingConfig      `mapstructure:"logging"`
	Battle  BattleConfig       `mapstructure:"battle"`
	Roster  []game.RosterEntry `mapstructure:"roster"`
	Replay  ReplayConfig       `mapstructure:"replay"`
	Trace   TraceConfig        `mapstructure:"trace"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BattleConfig holds the engine options of every battle the runner starts.
type BattleConfig struct {
	Seed               int64 `mapstructure:"seed"`
	MaxTurns           int   `mapstructure:"max_turns"`
	MaxSteps           int   `mapstructure:"max_steps"`
	StallLimit         int   `mapstructure:"stall_limit"`
	StartMana          int   `mapstructure:"start_mana"`
	ResistPreventsBuff bool  `mapstructure:"resist_prevents_buff"`
}

// ReplayConfig controls replay capture.
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// TraceConfig configures the trace viewer.
type TraceConfig struct {
	Address      string        `mapstructure:"address"`
	StepInterval time.Duration `mapstructure:"step_interval"`
}

// Options converts the battle section into engine options.
func (c BattleConfig) Options() game.Options {
	return game.Options{
		Seed:               c.Seed,
		MaxTurns:           c.MaxTurns,
		StallLimit:         c.StallLimit,
		StartMana:          c.StartMana,
		ResistPreventsBuff: c.ResistPreventsBuff,
	}
}

// DefaultRoster is used when the configuration names no roster.
func DefaultRoster() []game.RosterEntry {
	return []game.RosterEntry{
		{No: 1, TeamID: game.TeamLeft, Equipments: []int{1}},
		{No: 2, TeamID: game.TeamLeft},
		{No: 3, TeamID: game.TeamRight},
		{No: 4, TeamID: game.TeamRight},
	}
}

func setDefaults(v *viper.Viper) {
	opts := game.DefaultOptions()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("battle.seed", opts.Seed)
	v.SetDefault("battle.max_turns", opts.MaxTurns)
	v.SetDefault("battle.max_steps", 1_000_000)
	v.SetDefault("battle.stall_limit", opts.StallLimit)
	v.SetDefault("battle.start_mana", opts.StartMana)
	v.SetDefault("battle.resist_prevents_buff", opts.ResistPreventsBuff)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "replays")

	v.SetDefault("trace.address", ":8090")
	v.SetDefault("trace.step_interval", 50*time.Millisecond)
}

// Load reads the configuration at path. A missing file leaves the defaults
// in place; a file that cannot be parsed is an error. Environment variables
// override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if len(cfg.Roster) == 0 {
		cfg.Roster = DefaultRoster()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no battle can run with.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	if c.Battle.MaxTurns <= 0 {
		return fmt.Errorf("battle.max_turns must be positive, got %d", c.Battle.MaxTurns)
	}
	if c.Battle.MaxSteps < 0 {
		return fmt.Errorf("battle.max_steps must not be negative, got %d", c.Battle.MaxSteps)
	}
	if c.Battle.StallLimit <= 0 {
		return fmt.Errorf("battle.stall_limit must be positive, got %d", c.Battle.StallLimit)
	}
	if c.Battle.StartMana < 0 {
		return fmt.Errorf("battle.start_mana must not be negative, got %d", c.Battle.StartMana)
	}
	if c.Replay.Enabled && c.Replay.Directory == "" {
		return errors.New("replay.directory is required when replays are enabled")
	}
	if c.Trace.StepInterval < 0 {
		return fmt.Errorf("trace.step_interval must not be negative, got %s", c.Trace.StepInterval)
	}
	return nil
}
