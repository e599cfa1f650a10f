// Package parallel splits grid passes into row bands processed concurrently.
//
// Every pass follows the same snapshot → compute → apply shape: workers read
// a snapshot that no one writes during the pass and write only the rows of
// their own band, so results do not depend on how rows were split.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultMinRows is the row count below which a pass runs on the calling
// goroutine. Below this, single-threaded is faster due to goroutine overhead.
const DefaultMinRows = 64

// Options controls fan-out.
type Options struct {
	MinRows int // 0 = DefaultMinRows
	Workers int // 0 = GOMAXPROCS
}

// workChunk represents a range of rows for a worker to process.
type workChunk struct {
	start, end int
}

// Rows calls fn over disjoint [y0, y1) bands that together cover [0, h).
// fn must only write state owned by rows in its band.
func Rows(h int, opts Options, fn func(y0, y1 int)) {
	minRows := opts.MinRows
	if minRows <= 0 {
		minRows = DefaultMinRows
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if h < minRows || workers < 2 {
		fn(0, h)
		return
	}
	if workers > h {
		workers = h
	}

	chunks := make([]workChunk, 0, workers)
	band := (h + workers - 1) / workers
	for start := 0; start < h; start += band {
		end := start + band
		if end > h {
			end = h
		}
		chunks = append(chunks, workChunk{start, end})
	}

	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for _, c := range chunks {
		go func(c workChunk) {
			defer wg.Done()
			fn(c.start, c.end)
		}(c)
	}
	wg.Wait()
}
