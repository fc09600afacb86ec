// Package parallel runs bounded data-parallel loops.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers returns n if positive, otherwise GOMAXPROCS.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// For calls fn(i) for every i in [0, n) using at most workers goroutines
// and returns after all calls finish. With one worker the loop runs on the
// calling goroutine.
func For(n, workers int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers = Workers(workers)
	if workers == 1 || n == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// ForChunks splits [0, n) into contiguous chunks of at least grain elements
// and calls fn(lo, hi) for each chunk in parallel.
func ForChunks(n, grain, workers int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if grain < 1 {
		grain = 1
	}
	chunks := (n + grain - 1) / grain
	For(chunks, workers, func(c int) {
		lo := c * grain
		fn(lo, min(lo+grain, n))
	})
}

// ForErr is For with error propagation; the first error is returned after
// every started call finishes.
func ForErr(n, workers int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	var g errgroup.Group
	g.SetLimit(Workers(workers))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}
