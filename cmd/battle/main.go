package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shikigami/battle-server-go/internal/config"
	"github.com/shikigami/battle-server-go/internal/game"
	"github.com/shikigami/battle-server-go/internal/game/heroes"
	"github.com/shikigami/battle-server-go/internal/logging"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	seed       = flag.Int64("seed", -1, "override battle.seed when not negative")
	replayDir  = flag.String("replay-dir", "", "save the replay into this directory")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *seed >= 0 {
		cfg.Battle.Seed = *seed
	}
	if *replayDir != "" {
		cfg.Replay.Enabled = true
		cfg.Replay.Directory = *replayDir
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting battle runner",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.Int64("seed", cfg.Battle.Seed),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	battle := game.NewBattle(cfg.Battle.Options(), heroes.Default(), cfg.Roster, logger)
	for _, rejected := range battle.Rejected() {
		logger.Warn("roster entry rejected", zap.Error(rejected))
	}

	var recorder *game.ReplayRecorder
	if cfg.Replay.Enabled {
		recorder = game.NewReplayRecorder(logger, cfg.Replay.Directory)
		recorder.StartRecording(battle.ID().String())
	}

	if err := battle.Run(ctx, cfg.Battle.MaxSteps); err != nil {
		logger.Error("battle did not finish", zap.Error(err))
		os.Exit(1)
	}

	sum, err := battle.Snapshot().ComputeChecksum()
	if err != nil {
		logger.Fatal("failed to compute checksum", zap.Error(err))
	}
	logger.Info("battle finished",
		zap.String("battle_id", battle.ID().String()),
		zap.Int("winner", battle.Winner()),
		zap.Int("turns", battle.Turn()),
		zap.Uint64("steps", battle.Scheduler().Executed()),
		zap.String("checksum", sum.Hash),
	)

	if recorder != nil {
		if err := recorder.Capture(battle); err != nil {
			logger.Fatal("failed to capture replay", zap.Error(err))
		}
		if err := recorder.SaveReplay(battle.ID().String()); err != nil {
			logger.Fatal("failed to save replay", zap.Error(err))
		}
	}
}
