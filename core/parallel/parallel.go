// Package parallel provides the worker fan-out primitives used for
// cross-class fitting and per-sample scoring loops.
package parallel

import (
	"runtime"
	"sync"
)

// ForEachIndex runs fn(i) for every i in [0, n), fanning the indices out
// over at most NumCPU workers and joining before returning. Each index is
// an independent task; fn must not share mutable state across indices.
func ForEachIndex(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()
}

// Parallelize splits [0, items) into contiguous chunks, one per available
// CPU, and executes fn(start, end) on each chunk concurrently.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	workers := runtime.NumCPU()
	if workers > items {
		workers = items
	}
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunk
		end := start + chunk
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items is at or below
// threshold, and via Parallelize otherwise. Small scoring batches are not
// worth the goroutine overhead.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
