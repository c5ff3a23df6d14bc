package service

import (
	"time"

	"github.com/okian/epvprep/internal/adapters/ledger"
	"github.com/okian/epvprep/internal/domain/merge"
	"github.com/okian/epvprep/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets how many matches are processed at once.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the pending match job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDuplicatePolicy sets how repeated event_uuid keys are resolved.
func WithDuplicatePolicy(p merge.Policy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithLedger records every stage run.
func WithLedger(l Ledger) Option {
	return func(s *Service) {
		s.ledger = l
	}
}

// WithMetricsTextfile flushes metrics to path after each stage.
func WithMetricsTextfile(path string) Option {
	return func(s *Service) {
		s.metricsTextfile = path
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunIDs replaces the run id generator.
func WithRunIDs(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newRunID = next
		}
	}
}

func newRunID() string { return ledger.NewRunID() }
