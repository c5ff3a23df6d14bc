package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if err := q.Submit(ctx, Job{Seq: 0, MatchID: "3895302"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	job := <-q.Dequeue(ctx)
	if job.MatchID != "3895302" {
		t.Errorf("expected 3895302, got %v", job.MatchID)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if err := q.Submit(ctx, Job{Seq: 0, MatchID: "a"}); err != nil {
		t.Fatalf("submit a: %v", err)
	}
	if err := q.Submit(ctx, Job{Seq: 1, MatchID: "b"}); err != nil {
		t.Fatalf("submit b: %v", err)
	}

	tctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := q.Submit(tctx, Job{Seq: 2, MatchID: "c"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded while full, got %v", err)
	}
}

func TestInMemoryQueue_SubmitWaitsForRoom(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx := context.Background()
	const n = 50

	go func() {
		for i := 0; i < n; i++ {
			if err := q.Submit(ctx, Job{Seq: i, MatchID: fmt.Sprintf("m%d", i)}); err != nil {
				t.Errorf("submit %d: %v", i, err)
				return
			}
		}
		_ = q.Close()
	}()

	seen := 0
	for job := range q.Dequeue(ctx) {
		if job.Seq != seen {
			t.Errorf("expected seq %d, got %d", seen, job.Seq)
		}
		seen++
	}
	if seen != n {
		t.Errorf("expected %d jobs, got %d", n, seen)
	}
}

func TestInMemoryQueue_ConcurrentConsumers(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		if err := q.Submit(ctx, Job{Seq: i}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	_ = q.Close()

	var mu sync.Mutex
	got := make(map[int]bool)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range q.Dequeue(ctx) {
				mu.Lock()
				if got[job.Seq] {
					t.Errorf("job %d delivered twice", job.Seq)
				}
				got[job.Seq] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(got) != 100 {
		t.Errorf("expected 100 jobs, got %d", len(got))
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if err := q.Submit(ctx, Job{MatchID: "x"}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, ok := <-q.Dequeue(ctx); ok {
		t.Error("expected dequeue channel to be closed")
	}
}

func TestInMemoryQueue_DequeueStopsOnCancel(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	ch := q.Dequeue(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected no job after cancel")
		}
	case <-time.After(time.Second):
		t.Error("dequeue channel did not close after cancel")
	}
}
