package terrain

import (
	"math/bits"

	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/rng"
)

// validSubdivisionSize reports whether n has the form 2^k + 1.
func validSubdivisionSize(n int) bool {
	return n >= 2 && (n-1)&(n-2) == 0
}

// nextSubdivisionSize returns the smallest 2^k + 1 that is >= n.
func nextSubdivisionSize(n int) int {
	if validSubdivisionSize(n) {
		return n
	}
	return 1<<bits.Len(uint(n-2)) + 1
}

// diamondSquare fills an n×n field (n = 2^k + 1) by midpoint displacement.
// Only the initial amplitude depends on roughness; it halves after every
// diamond+square pass. The field is returned unnormalized.
func diamondSquare(n int, roughness float64, src rng.Source) *grid.Field {
	f := grid.New(n, n)
	g := f.Data
	at := func(r, c int) int { return r*n + c }

	g[at(0, 0)] = src.Float64()
	g[at(0, n-1)] = src.Float64()
	g[at(n-1, 0)] = src.Float64()
	g[at(n-1, n-1)] = src.Float64()

	step := n - 1
	scale := roughness
	for step > 1 {
		half := step / 2

		// Diamond step: square centres
		for r := 0; r < n-1; r += step {
			for c := 0; c < n-1; c += step {
				avg := (g[at(r, c)] + g[at(r+step, c)] + g[at(r, c+step)] + g[at(r+step, c+step)]) * 0.25
				g[at(r+half, c+half)] = avg + (src.Float64()-0.5)*scale
			}
		}

		// Square step: edge midpoints, averaging whichever neighbors exist
		for r := 0; r < n; r += half {
			for c := (r + half) % step; c < n; c += step {
				var sum float64
				cnt := 0
				if r-half >= 0 {
					sum += g[at(r-half, c)]
					cnt++
				}
				if r+half < n {
					sum += g[at(r+half, c)]
					cnt++
				}
				if c-half >= 0 {
					sum += g[at(r, c-half)]
					cnt++
				}
				if c+half < n {
					sum += g[at(r, c+half)]
					cnt++
				}
				g[at(r, c)] = sum/float64(cnt) + (src.Float64()-0.5)*scale
			}
		}

		step = half
		scale *= 0.5
	}
	return f
}
