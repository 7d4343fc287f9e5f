package render_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
	"github.com/hyeonjw1106/really-big-bang/internal/render"
)

func TestLocalPoolDrivesJobs(t *testing.T) {
	var mu sync.Mutex
	driven := make(map[string]int)
	done := make(chan struct{}, 8)

	pool := render.NewLocalPool(func(_ context.Context, jobID string) error {
		mu.Lock()
		driven[jobID]++
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, 2, 8, nil)
	defer pool.Close()

	jobs := []string{"job_a", "job_b", "job_c"}
	for _, id := range jobs {
		if err := pool.Enqueue(context.Background(), id); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	for range jobs {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for jobs to drive")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, id := range jobs {
		if driven[id] != 1 {
			t.Errorf("job %s driven %d times, want 1", id, driven[id])
		}
	}
}

func TestLocalPoolRejectsWhenFull(t *testing.T) {
	block := make(chan struct{})
	pool := render.NewLocalPool(func(_ context.Context, _ string) error {
		<-block
		return nil
	}, 1, 1, nil)
	defer func() {
		close(block)
		pool.Close()
	}()

	// Fill the single worker plus the single buffered slot, then some
	// margin for scheduling: eventually Enqueue must fail fast.
	var sawExhausted bool
	for i := 0; i < 10; i++ {
		err := pool.Enqueue(context.Background(), "job_overflow")
		if err != nil {
			if errors.GetCode(err) != errors.CodeResourceExhaust {
				t.Fatalf("error code = %s, want RESOURCE_EXHAUSTED", errors.GetCode(err))
			}
			sawExhausted = true
			break
		}
	}
	if !sawExhausted {
		t.Fatal("a full pool never rejected an enqueue")
	}
}

func TestLocalPoolCloseStopsWorkers(t *testing.T) {
	pool := render.NewLocalPool(func(_ context.Context, _ string) error {
		return nil
	}, 2, 4, nil)

	closed := make(chan struct{})
	go func() {
		pool.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
}
