package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/epvprep/internal/adapters/repository"
	"github.com/okian/epvprep/internal/domain/coverage"
	"github.com/okian/epvprep/internal/domain/label"
	"github.com/okian/epvprep/internal/domain/merge"
	"github.com/okian/epvprep/internal/domain/model"
	"github.com/okian/epvprep/internal/domain/types"
	"github.com/okian/epvprep/pkg/logger"
	"github.com/okian/epvprep/pkg/metrics"
)

func (s *Service) mergeMatch(ctx context.Context, matchID string) (types.MatchResult, error) {
	res := types.MatchResult{MatchID: matchID, Status: types.StatusOK}

	if !s.events.Exists(ctx, matchID) {
		return skipped(res, types.ReasonMissingEvents), nil
	}
	frames, err := s.threeSixty.ReadFrames(ctx, matchID)
	if err != nil {
		return readFailure(res, err)
	}
	events, err := s.events.ReadEvents(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrMissingInput) {
			return skipped(res, types.ReasonMissingEvents), nil
		}
		return res, err
	}

	merged, err := merge.Merge(events, frames, merge.WithDuplicatePolicy(s.policy))
	if err != nil {
		metrics.RecordDuplicateKeys(string(s.policy), merged.Stats.DuplicateKeys)
		return res, fmt.Errorf("%s: %w", s.threeSixty.Path(matchID), err)
	}
	st := merged.Stats
	if st.DuplicateKeys > 0 {
		metrics.RecordDuplicateKeys(string(s.policy), st.DuplicateKeys)
		s.logger.Warn(ctx, "duplicate event_uuid keys in 360 file",
			logger.String("match", matchID),
			logger.String("policy", string(s.policy)),
			logger.Int("count", st.DuplicateKeys),
			logger.Any("repeats", st.Repeats),
		)
	}
	metrics.RecordMergeCounts(st.Matched, st.Frames, st.UnkeyedFrames, st.OrphanFrames)

	if err := s.merged.WriteEvents(context.WithoutCancel(ctx), matchID, merged.Events); err != nil {
		return res, err
	}

	res.EventsIn = len(events)
	res.EventsOut = len(merged.Events)
	res.Counters = map[string]int{
		types.CounterMatched:       st.Matched,
		types.CounterFrames:        st.Frames,
		types.CounterDuplicateKeys: st.DuplicateKeys,
		types.CounterUnkeyedFrames: st.UnkeyedFrames,
		types.CounterOrphanFrames:  st.OrphanFrames,
	}
	metrics.RecordEventsRead(string(types.StageMerge), len(events))
	metrics.RecordEventsWritten(string(types.StageMerge), len(merged.Events))
	s.logger.Debug(ctx, "match merged",
		logger.String("match", matchID),
		logger.Int("events", len(events)),
		logger.Int("matched", st.Matched),
		logger.Int("frames", st.Frames),
	)
	return res, nil
}

func (s *Service) labelMatch(ctx context.Context, matchID string) (types.MatchResult, error) {
	res := types.MatchResult{MatchID: matchID, Status: types.StatusOK}

	events, err := s.merged.ReadEvents(ctx, matchID)
	if err != nil {
		return readFailure(res, err)
	}
	st := label.Label(events)
	if err := s.labeled.WriteEvents(context.WithoutCancel(ctx), matchID, events); err != nil {
		return res, err
	}

	res.EventsIn = len(events)
	res.EventsOut = len(events)
	res.Counters = map[string]int{
		types.CounterGoalPossessions: st.GoalPossessions,
		types.CounterPositive:        st.Positive,
	}
	metrics.RecordLabelCounts(st.GoalPossessions, st.Positive)
	metrics.RecordEventsRead(string(types.StageLabel), len(events))
	metrics.RecordEventsWritten(string(types.StageLabel), len(events))
	s.logger.Debug(ctx, "match labeled",
		logger.String("match", matchID),
		logger.Int("events", len(events)),
		logger.Int("goal_possessions", st.GoalPossessions),
		logger.Int("positive", st.Positive),
	)
	return res, nil
}

func (s *Service) filterMatch(ctx context.Context, matchID string) (types.MatchResult, error) {
	res := types.MatchResult{MatchID: matchID, Status: types.StatusOK}

	events, err := s.labeled.ReadEvents(ctx, matchID)
	if err != nil {
		return readFailure(res, err)
	}
	kept, st := coverage.Filter(events)
	if err := s.labeled360.WriteEvents(context.WithoutCancel(ctx), matchID, kept); err != nil {
		return res, err
	}

	res.EventsIn = st.Total
	res.EventsOut = st.Kept
	res.Counters = map[string]int{
		types.CounterKept:    st.Kept,
		types.CounterDropped: st.Dropped(),
	}
	metrics.RecordEventsRead(string(types.StageFilter), st.Total)
	metrics.RecordEventsWritten(string(types.StageFilter), st.Kept)
	s.logger.Debug(ctx, "match filtered",
		logger.String("match", matchID),
		logger.Int("events", st.Total),
		logger.Int("kept", st.Kept),
		logger.String("coverage", st.Coverage().String()),
	)
	return res, nil
}

func (s *Service) exportMatch(ctx context.Context, matchID string) (types.MatchResult, error) {
	res := types.MatchResult{MatchID: matchID, Status: types.StatusOK}

	events, err := s.labeled360.ReadEvents(ctx, matchID)
	if err != nil {
		return readFailure(res, err)
	}
	counts, err := s.exporter.Write(context.WithoutCancel(ctx), matchID, events)
	if err != nil {
		return res, err
	}

	res.EventsIn = len(events)
	res.EventsOut = counts.Events
	res.Counters = map[string]int{
		types.CounterRows:       counts.Events,
		types.CounterPlayerRows: counts.Players,
	}
	metrics.RecordRowsExported("events", counts.Events)
	metrics.RecordRowsExported("players", counts.Players)
	metrics.RecordEventsRead(string(types.StageExport), len(events))
	s.logger.Debug(ctx, "match exported",
		logger.String("match", matchID),
		logger.Int("rows", counts.Events),
		logger.Int("player_rows", counts.Players),
	)
	return res, nil
}

// readFailure turns a vanished input into a skip and keeps every other
// read error fatal.
func readFailure(res types.MatchResult, err error) (types.MatchResult, error) {
	if errors.Is(err, repository.ErrMissingInput) {
		return skipped(res, types.ReasonMissingInput), nil
	}
	return res, err
}

func skipped(res types.MatchResult, reason string) types.MatchResult {
	res.Status = types.StatusSkipped
	res.Reason = reason
	return res
}

// readAll loads every match file of a directory in id order.
func readAll(ctx context.Context, store *repository.FileStore, visit func(matchID string, events []model.Event)) (int, error) {
	ids, err := store.ListMatches(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		events, err := store.ReadEvents(ctx, id)
		if err != nil {
			return 0, err
		}
		visit(id, events)
	}
	return len(ids), nil
}
