// Package service runs the pipeline stages over per-match files.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/epvprep/internal/adapters/export"
	workerpool "github.com/okian/epvprep/internal/adapters/mq/worker"
	"github.com/okian/epvprep/internal/adapters/repository"
	"github.com/okian/epvprep/internal/config"
	"github.com/okian/epvprep/internal/domain/merge"
	"github.com/okian/epvprep/internal/domain/types"
	"github.com/okian/epvprep/pkg/logger"
	"github.com/okian/epvprep/pkg/metrics"
)

// Ledger stores the outcome of each stage run.
type Ledger interface {
	Record(ctx context.Context, report *types.StageReport, runErr error) error
}

// Service runs stages with a fixed set of directories.
type Service struct {
	paths config.Paths

	threeSixty *repository.FileStore
	events     *repository.FileStore
	merged     *repository.FileStore
	labeled    *repository.FileStore
	labeled360 *repository.FileStore
	exportDir  *repository.FileStore
	exporter   *export.Writer

	workerCount     int
	queueSize       int
	policy          merge.Policy
	ledger          Ledger
	metricsTextfile string
	newRunID        func() string
	now             func() time.Time

	logger logger.Logger
}

// New constructs a Service over the given stage directories.
func New(paths config.Paths, opts ...Option) *Service {
	s := &Service{
		paths:       paths,
		threeSixty:  repository.NewFileStore(paths.ThreeSixty),
		events:      repository.NewFileStore(paths.Events),
		merged:      repository.NewFileStore(paths.Merged),
		labeled:     repository.NewFileStore(paths.Labeled),
		labeled360:  repository.NewFileStore(paths.Labeled360),
		exportDir:   repository.NewFileStore(paths.Export),
		exporter:    export.NewWriter(paths.Export),
		workerCount: 1,
		queueSize:   64,
		policy:      merge.PolicyFirst,
		newRunID:    newRunID,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("pipeline")
	}
	return s
}

// NewFromConfig constructs a Service from loaded configuration. The ledger
// is opened by the caller and passed with WithLedger.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Service, error) {
	policy, err := merge.ParsePolicy(cfg.DuplicatePolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	base := []Option{
		WithWorkerCount(cfg.Workers),
		WithQueueSize(cfg.QueueSize),
		WithDuplicatePolicy(policy),
		WithMetricsTextfile(cfg.MetricsTextfile),
	}
	return New(cfg.Paths, append(base, opts...)...), nil
}

// Paths returns the stage directories.
func (s *Service) Paths() config.Paths { return s.paths }

// RunStage runs one stage over every match in its input directory.
func (s *Service) RunStage(ctx context.Context, stage types.Stage) (*types.StageReport, error) {
	switch stage {
	case types.StageMerge:
		return s.RunMerge(ctx)
	case types.StageLabel:
		return s.RunLabel(ctx)
	case types.StageFilter:
		return s.RunFilter(ctx)
	case types.StageExport:
		return s.RunExport(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
}

// RunAll chains merge, label, filter and export. It stops at the first
// stage that fails and returns the reports of the stages that ran.
func (s *Service) RunAll(ctx context.Context) ([]*types.StageReport, error) {
	reports := make([]*types.StageReport, 0, len(types.Stages))
	for _, stage := range types.Stages {
		report, err := s.RunStage(ctx, stage)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			return reports, fmt.Errorf("%s: %w", stage, err)
		}
	}
	return reports, nil
}

// RunMerge joins 360 frames onto events. Matches are listed from the 360
// directory; a match without an events file is skipped.
func (s *Service) RunMerge(ctx context.Context) (*types.StageReport, error) {
	return s.run(ctx, types.StageMerge, s.threeSixty, s.merged, workerpool.ProcessorFunc(s.mergeMatch))
}

// RunLabel labels merged events by possession outcome.
func (s *Service) RunLabel(ctx context.Context) (*types.StageReport, error) {
	return s.run(ctx, types.StageLabel, s.merged, s.labeled, workerpool.ProcessorFunc(s.labelMatch))
}

// RunFilter keeps labeled events that carry a freeze frame.
func (s *Service) RunFilter(ctx context.Context) (*types.StageReport, error) {
	return s.run(ctx, types.StageFilter, s.labeled, s.labeled360, workerpool.ProcessorFunc(s.filterMatch))
}

// RunExport writes the filtered events to Parquet.
func (s *Service) RunExport(ctx context.Context) (*types.StageReport, error) {
	return s.run(ctx, types.StageExport, s.labeled360, s.exportDir, workerpool.ProcessorFunc(s.exportMatch))
}

func (s *Service) run(ctx context.Context, stage types.Stage, in, out *repository.FileStore, proc workerpool.Processor) (*types.StageReport, error) {
	log := s.logger.Named(string(stage))
	report := &types.StageReport{
		RunID:     s.newRunID(),
		Stage:     stage,
		StartedAt: s.now(),
	}
	log = log.With(logger.String("run", report.RunID))
	log.Info(ctx, "stage started",
		logger.String("input", in.Dir()),
		logger.String("output", out.Dir()),
		logger.Int("workers", s.workerCount),
	)

	unlock, err := out.Lock(ctx)
	if err != nil {
		metrics.RecordError(string(stage), "lock")
		return nil, err
	}
	defer func() {
		if uerr := unlock(); uerr != nil {
			log.Warn(ctx, "failed to release stage lock", logger.Error(uerr))
		}
	}()

	ids, err := in.ListMatches(ctx)
	if err != nil {
		metrics.RecordError(string(stage), "list")
		return nil, err
	}

	pool := workerpool.NewPool(s.workerCount, proc,
		workerpool.WithQueueCapacity(s.queueSize),
		workerpool.WithPoolLogger(log),
	)
	results, runErr := pool.Run(ctx, ids)

	report.Matches = results
	report.Sort()
	report.Duration = s.now().Sub(report.StartedAt)

	for _, m := range report.Matches {
		if m.Status == types.StatusSkipped {
			log.Warn(ctx, "match skipped",
				logger.String("match", m.MatchID),
				logger.String("reason", m.Reason),
			)
		}
	}
	s.observe(stage, report)

	// Bookkeeping must land even when the run was interrupted.
	bctx := context.WithoutCancel(ctx)
	if s.ledger != nil {
		if err := s.ledger.Record(bctx, report, runErr); err != nil {
			log.Warn(ctx, "failed to record run in ledger", logger.Error(err))
			metrics.RecordError("ledger", "record")
		}
	}
	if err := metrics.WriteTextfile(s.metricsTextfile); err != nil {
		log.Warn(ctx, "failed to write metrics textfile", logger.Error(err))
	}

	fields := []logger.Field{
		logger.Int("matches", len(ids)),
		logger.Int("ok", report.Count(types.StatusOK)),
		logger.Int("skipped", report.Count(types.StatusSkipped)),
		logger.Int("failed", report.Count(types.StatusFailed)),
		logger.Int("events_in", report.EventsIn()),
		logger.Int("events_out", report.EventsOut()),
		logger.Duration("took", report.Duration),
	}
	if runErr != nil {
		log.Error(ctx, "stage aborted", append(fields, logger.Error(runErr))...)
		return report, runErr
	}
	log.Info(ctx, "stage finished", fields...)
	return report, nil
}

func (s *Service) observe(stage types.Stage, report *types.StageReport) {
	name := string(stage)
	for _, m := range report.Matches {
		switch m.Status {
		case types.StatusOK:
			metrics.RecordMatchProcessed(name)
		case types.StatusSkipped:
			metrics.RecordMatchSkipped(name, m.Reason)
		case types.StatusFailed:
			metrics.RecordMatchFailed(name)
			metrics.RecordError(name, errorKind(m.Err))
		}
		metrics.RecordMatchDuration(name, float64(m.Duration.Milliseconds()))
	}
	metrics.UpdateLastRun(name, float64(report.StartedAt.Unix()))
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, repository.ErrMalformedInput):
		return "malformed"
	case errors.Is(err, merge.ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "other"
	}
}
