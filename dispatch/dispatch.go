// Package dispatch fans a batch of independent operations out over a
// bounded worker pool and collects results positionally.
package dispatch

import (
	"context"
	"sync"
)

// Result holds the outcome of one operation: a value or an error,
// never both.
type Result[T any] struct {
	Value T
	Err   error
}

// WorkFunc executes the operation at index i of the batch.
type WorkFunc[T any] func(ctx context.Context, i int) (T, error)

// Run executes fn for each of n inputs with at most workers goroutines
// in flight. The returned slice has length n and slot i always holds
// the outcome of input i, regardless of completion order. Workers that
// cannot acquire a slot before ctx ends record the context error in
// their slot.
func Run[T any](ctx context.Context, n, workers int, fn WorkFunc[T]) []Result[T] {
	if workers <= 0 || workers > n {
		workers = n
	}

	results := make([]Result[T], n)
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() {
					<-sem
				}()
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return
			}

			v, err := fn(ctx, i)
			results[i] = Result[T]{Value: v, Err: err}
		}()
	}
	wg.Wait()

	return results
}
