package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestQueueRunsInOrderOnDrain(t *testing.T) {
	q := NewQueue(8)
	var got []int
	for i := range 3 {
		if err := q.Post(context.Background(), func() { got = append(got, i) }); err != nil {
			t.Fatal(err)
		}
	}
	if len(got) != 0 {
		t.Fatal("posted functions ran before Drain")
	}
	if n := q.Drain(); n != 3 {
		t.Errorf("Drain() = %d, want 3", n)
	}
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("order = %v", got)
	}
	if n := q.Drain(); n != 0 {
		t.Errorf("second Drain() = %d, want 0", n)
	}
}

func TestQueuePostDuringDrainWaits(t *testing.T) {
	q := NewQueue(8)
	ran := 0
	_ = q.Post(context.Background(), func() {
		_ = q.Post(context.Background(), func() { ran++ })
	})
	if n := q.Drain(); n != 1 {
		t.Fatalf("Drain() = %d, want 1", n)
	}
	if ran != 0 {
		t.Error("function posted while draining ran in the same drain")
	}
	q.Drain()
	if ran != 1 {
		t.Errorf("ran = %d after second drain", ran)
	}
}

func TestQueuePostFullHonoursContext(t *testing.T) {
	q := NewQueue(1)
	_ = q.Post(context.Background(), func() {})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Post(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Post on full queue = %v, want deadline exceeded", err)
	}
}

func TestQueueConcurrentPosters(t *testing.T) {
	q := NewQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				_ = q.Post(ctx, func() {})
			}
		}()
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	total := 0
	deadline := time.After(5 * time.Second)
	for total < 80 {
		select {
		case <-deadline:
			t.Fatalf("drained %d of 80", total)
		default:
		}
		total += q.Drain()
	}
	<-done
}
