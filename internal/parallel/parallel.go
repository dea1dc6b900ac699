// Package parallel splits index ranges across goroutines.
//
// Work is divided into contiguous chunks, one per worker, and For blocks
// until every chunk has run. Small inputs run on the calling goroutine.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config configures parallel processing behavior.
type Config struct {
	// Workers is the number of worker goroutines. 0 means runtime.GOMAXPROCS(0).
	Workers int

	// Grain is the minimum number of items per worker. If the total number
	// of items is below Grain*Workers, work runs sequentially.
	Grain int
}

// EffectiveWorkers returns the number of workers the configuration uses.
func (c Config) EffectiveWorkers() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

func (c Config) grain() int {
	if c.Grain <= 0 {
		return 1
	}
	return c.Grain
}

// For calls fn(start, end) over contiguous sub-ranges covering [0, n).
// Ranges never overlap and are processed exactly once.
func For(c Config, n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := c.EffectiveWorkers()
	if workers == 1 || n < c.grain()*workers {
		fn(0, n)
		return
	}

	var g errgroup.Group
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}
