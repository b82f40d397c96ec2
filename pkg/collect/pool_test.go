package collect

import (
	"context"
	"math/rand"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestMapPreservesOrder(t *testing.T) {
	items := []int{5, 3, 8, 1, 9, 2}
	got := Map(context.Background(), 4, items, func(_ context.Context, i int, v int) int {
		// Random jitter so completion order differs from input order.
		time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
		return v * 10
	})
	want := []int{50, 30, 80, 10, 90, 20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Map() = %v, want %v", got, want)
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	const workers = 3
	var inFlight, peak atomic.Int32

	items := make([]int, 20)
	Map(context.Background(), workers, items, func(_ context.Context, i int, v int) int {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return 0
	})

	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrency = %d, want <= %d", got, workers)
	}
}

func TestMapSequentialWhenSingleWorker(t *testing.T) {
	var order []int
	Map(context.Background(), 1, []int{1, 2, 3}, func(_ context.Context, i int, v int) int {
		order = append(order, v)
		return v
	})
	if !reflect.DeepEqual(order, []int{1, 2, 3}) {
		t.Errorf("sequential order = %v", order)
	}
}

func TestMapCancelledContextSkipsWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	got := Map(ctx, 4, []int{1, 2, 3}, func(_ context.Context, i int, v int) int {
		calls.Add(1)
		return v
	})
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want 0 after cancellation", calls.Load())
	}
	if len(got) != 3 {
		t.Errorf("result slots = %d, want 3 (zero-valued)", len(got))
	}
}

func TestMapEmptyInput(t *testing.T) {
	got := Map(context.Background(), 4, nil, func(_ context.Context, i int, v int) int { return v })
	if len(got) != 0 {
		t.Errorf("Map(nil) = %v, want empty", got)
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten([][]int{{1, 2}, nil, {3}})
	if !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("Flatten = %v", got)
	}
}
