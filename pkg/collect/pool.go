package collect

import (
	"context"
	"sync"
)

// Map runs fn over items with at most workers concurrent invocations,
// writing each result into its pre-assigned input-index slot so the output
// order is independent of scheduling. With workers <= 1 or a single item,
// execution degrades to sequential.
//
// Cancellation is cooperative: once ctx is done no new invocations start;
// slots for skipped items keep their zero value.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, index int, item T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	if workers <= 1 || len(items) == 1 {
		for i, item := range items {
			if ctx.Err() != nil {
				break
			}
			results[i] = fn(ctx, i, item)
		}
		return results
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			results[i] = fn(ctx, i, item)
		}(i, item)
	}
	wg.Wait()
	return results
}

// Flatten concatenates slices, dropping nils, preserving slot order.
func Flatten[T any](slices [][]T) []T {
	var out []T
	for _, s := range slices {
		out = append(out, s...)
	}
	return out
}
