package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/okian/epvprep/internal/config"
	"github.com/okian/epvprep/internal/testmatches"
	"github.com/okian/epvprep/pkg/logger"
)

func main() {
	def := testmatches.DefaultConfig()
	var (
		dir      = flag.String("dir", "data", "Working directory; files go to <dir>/events and <dir>/three-sixty")
		matches  = flag.Int("matches", def.Matches, "Number of matches to generate")
		events   = flag.Int("events", def.EventsPerMatch, "Events per match")
		coverage = flag.Float64("coverage", def.Coverage, "Share of events with a 360 frame")
		shots    = flag.Float64("shot-rate", def.ShotRate, "Share of possessions ending in a shot")
		goals    = flag.Float64("goal-rate", def.GoalRate, "Share of shots that are goals")
		missing  = flag.Int("missing-events", 0, "Matches written with a 360 file only")
		workers  = flag.Int("workers", def.Workers, "Number of concurrent writers")
		seed     = flag.Uint64("seed", def.Seed, "Random seed")
		first    = flag.Int("first-id", def.FirstMatchID, "Id of the first match")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := def
	cfg.EventsDir = filepath.Join(*dir, config.DirEvents)
	cfg.ThreeSixtyDir = filepath.Join(*dir, config.DirThreeSixty)
	cfg.Matches = *matches
	cfg.EventsPerMatch = *events
	cfg.Coverage = *coverage
	cfg.ShotRate = *shots
	cfg.GoalRate = *goals
	cfg.MissingEvents = *missing
	cfg.Workers = *workers
	cfg.Seed = *seed
	cfg.FirstMatchID = *first

	if _, err := testmatches.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "generation failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}
