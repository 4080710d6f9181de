package mesh

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelThreshold is the element count below which loops stay serial.
const DefaultParallelThreshold = 4096

var parallelThreshold atomic.Int64

func init() {
	parallelThreshold.Store(DefaultParallelThreshold)
}

// SetParallelThreshold changes the element count at which ParallelFor fans out.
// Zero or negative disables parallelism.
func SetParallelThreshold(n int) {
	parallelThreshold.Store(int64(n))
}

// ParallelThreshold returns the current fan-out threshold.
func ParallelThreshold() int {
	return int(parallelThreshold.Load())
}

// ParallelFor calls fn over disjoint [lo, hi) ranges covering [0, n).
// Ranges run concurrently once n reaches threshold; fn must only touch its own range.
// A threshold of zero or less keeps the loop serial.
func ParallelFor(n, threshold int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if threshold <= 0 || n < threshold || workers < 2 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}
