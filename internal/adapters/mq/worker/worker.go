// Package worker runs stage processors over match jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/epvprep/internal/adapters/mq/queue"
	"github.com/okian/epvprep/internal/domain/types"
	"github.com/okian/epvprep/pkg/logger"
	"github.com/okian/epvprep/pkg/metrics"
)

const defaultQueueCapacity = 64

// Processor runs one stage over one match. A returned error is fatal for
// the whole batch; skips and per-match anomalies belong in the result.
type Processor interface {
	Process(ctx context.Context, matchID string) (types.MatchResult, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, matchID string) (types.MatchResult, error)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, matchID string) (types.MatchResult, error) {
	return f(ctx, matchID)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Result is one finished job.
type Result struct {
	Seq   int
	Match types.MatchResult
	Err   error
}

// InMemoryWorker pulls jobs off a queue and hands them to a Processor.
type InMemoryWorker struct {
	queue  Queue
	proc   Processor
	name   string
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, proc Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue: q,
		proc:  proc,
		name:  "worker",
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes jobs until the queue is drained or ctx is canceled. Each
// finished job is sent on results.
func (w *InMemoryWorker) Run(ctx context.Context, results chan<- Result) {
	for job := range w.queue.Dequeue(ctx) {
		results <- w.process(ctx, job)
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) Result {
	metrics.IncWorkerActive()
	defer metrics.DecWorkerActive()

	start := time.Now()
	res, err := w.proc.Process(ctx, job.MatchID)
	if res.MatchID == "" {
		res.MatchID = job.MatchID
	}
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}
	if err != nil {
		res.Status = types.StatusFailed
		res.Err = err
		w.logger.Error(ctx, "match failed",
			logger.String("match", job.MatchID),
			logger.Error(err),
		)
	}
	return Result{Seq: job.Seq, Match: res, Err: err}
}

// Pool runs a fixed number of workers over a batch of matches.
type Pool struct {
	workerCount   int
	queueCapacity int
	proc          Processor
	logger        logger.Logger
}

// NewPool creates a new worker pool. workerCount below 1 runs one worker.
func NewPool(workerCount int, proc Processor, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		workerCount:   workerCount,
		queueCapacity: defaultQueueCapacity,
		proc:          proc,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}
	return p
}

// Run processes every match and returns the results in input order. The
// first fatal error cancels the jobs not yet started; it is returned with
// the results of the jobs that did run. When several jobs fail, the error
// of the earliest one in input order is returned, preferring real failures
// over jobs that stopped on cancellation.
func (p *Pool) Run(ctx context.Context, matchIDs []string) ([]types.MatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(p.queueCapacity))
	results := make(chan Result, p.workerCount)

	go func() {
		defer func() { _ = q.Close() }()
		for i, id := range matchIDs {
			if err := q.Submit(ctx, queue.Job{Seq: i, MatchID: id}); err != nil {
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		w := NewInMemoryWorker(q, p.proc,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger.Named("worker-"+strconv.Itoa(i))),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx, results)
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]Result, 0, len(matchIDs))
	for r := range results {
		if r.Err != nil {
			cancel()
		}
		collected = append(collected, r)
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].Seq < collected[j].Seq })

	out := make([]types.MatchResult, 0, len(collected))
	var firstErr, cancelErr error
	for _, r := range collected {
		out = append(out, r.Match)
		if r.Err == nil {
			continue
		}
		wrapped := fmt.Errorf("match %s: %w", r.Match.MatchID, r.Err)
		switch {
		case errors.Is(r.Err, context.Canceled):
			if cancelErr == nil {
				cancelErr = wrapped
			}
		case firstErr == nil:
			firstErr = wrapped
		}
	}
	if firstErr == nil {
		firstErr = cancelErr
	}
	if firstErr == nil && len(out) < len(matchIDs) {
		if err := ctx.Err(); err != nil {
			firstErr = err
		}
	}
	return out, firstErr
}
