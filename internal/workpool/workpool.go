// Package workpool runs data-parallel loops over point indices.
package workpool

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers resolves a requested worker count: values <= 0 mean one worker
// per available CPU.
func Workers(requested int) int {
	if requested > 0 {
		return requested
	}
	return runtime.GOMAXPROCS(0)
}

// ForEach calls fn(i) once for every i in [0, n). The range is split into
// contiguous blocks, one per worker, and ForEach returns after every call
// has finished. fn must only write state owned by index i.
func ForEach(n, workers int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers = Workers(workers)
	if workers > n {
		workers = n
	}
	if workers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	block := (n + workers - 1) / workers
	for start := 0; start < n; start += block {
		end := min(start+block, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
