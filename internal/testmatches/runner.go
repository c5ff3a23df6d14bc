package testmatches

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/epvprep/internal/adapters/mq/worker"
	"github.com/okian/epvprep/internal/adapters/repository"
	"github.com/okian/epvprep/internal/domain/types"
	"github.com/okian/epvprep/pkg/logger"
)

// Run generates cfg.Matches matches and writes their events and 360 files.
// The last cfg.MissingEvents matches get a 360 file only.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	if cfg.Matches < 0 || cfg.EventsPerMatch < 0 || cfg.MissingEvents > cfg.Matches {
		return Stats{}, fmt.Errorf("invalid generation config: %d matches, %d events, %d missing",
			cfg.Matches, cfg.EventsPerMatch, cfg.MissingEvents)
	}
	start := time.Now()
	log := logger.Get().Named("generate")
	log.Info(ctx, "generating matches",
		logger.Int("matches", cfg.Matches),
		logger.Int("events_per_match", cfg.EventsPerMatch),
		logger.Float64("coverage", cfg.Coverage),
		logger.Int("workers", cfg.Workers),
	)

	events := repository.NewFileStore(cfg.EventsDir)
	threeSixty := repository.NewFileStore(cfg.ThreeSixtyDir)

	index := make(map[string]int, cfg.Matches)
	ids := make([]string, cfg.Matches)
	for i := range ids {
		ids[i] = strconv.Itoa(cfg.FirstMatchID + i)
		index[ids[i]] = i
	}
	withoutEvents := cfg.Matches - cfg.MissingEvents

	var (
		mu    sync.Mutex
		stats Stats
	)
	write := func(ctx context.Context, matchID string) (types.MatchResult, error) {
		i := index[matchID]
		m := Generate(cfg, i)
		if err := threeSixty.WriteFrames(ctx, m.ID, m.Frames); err != nil {
			return types.MatchResult{}, err
		}
		missing := i >= withoutEvents
		if !missing {
			if err := events.WriteEvents(ctx, m.ID, m.Events); err != nil {
				return types.MatchResult{}, err
			}
		}

		mu.Lock()
		stats.Matches++
		stats.Frames += len(m.Frames)
		if missing {
			stats.MissingEvents++
		} else {
			stats.Events += len(m.Events)
			stats.Shots += m.Shots
			stats.Goals += m.Goals
		}
		mu.Unlock()
		return types.MatchResult{MatchID: m.ID, Status: types.StatusOK, EventsOut: len(m.Events)}, nil
	}

	pool := worker.NewPool(cfg.Workers, worker.ProcessorFunc(write), worker.WithPoolLogger(log))
	if _, err := pool.Run(ctx, ids); err != nil {
		return stats, fmt.Errorf("generate matches: %w", err)
	}

	log.Info(ctx, "generated matches",
		logger.Int("matches", stats.Matches),
		logger.Int("events", stats.Events),
		logger.Int("frames", stats.Frames),
		logger.Int("goals", stats.Goals),
		logger.Duration("took", time.Since(start)),
	)
	return stats, nil
}
