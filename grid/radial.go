package grid

import (
	"math"
	"sync"
)

// RadialBins groups the cells of an H×W frequency grid by integer distance
// from the zero frequency, measured after centering the spectrum
// (zero frequency at (W/2, H/2)). Indices refer to the unshifted transform.
// Bins depend only on the shape and are immutable once built.
type RadialBins struct {
	W, H  int
	Radii []int   // ascending, includes 0
	Cells [][]int // Cells[i] holds flat indices whose radius is Radii[i]
}

type shapeKey struct{ w, h int }

var (
	radialMu    sync.Mutex
	radialCache = map[shapeKey]*RadialBins{}
)

// Bins returns the cached radial bins for the given shape, building them on
// first use.
func Bins(w, h int) *RadialBins {
	key := shapeKey{w, h}
	radialMu.Lock()
	defer radialMu.Unlock()
	if b, ok := radialCache[key]; ok {
		return b
	}
	b := buildRadialBins(w, h)
	radialCache[key] = b
	return b
}

func buildRadialBins(w, h int) *RadialBins {
	cx, cy := w/2, h/2
	maxR := int(math.Hypot(float64(w), float64(h))) + 1
	byRadius := make([][]int, maxR+1)
	for ky := 0; ky < h; ky++ {
		sy := (ky+h/2)%h - cy
		for kx := 0; kx < w; kx++ {
			sx := (kx+w/2)%w - cx
			r := int(math.Hypot(float64(sx), float64(sy)))
			byRadius[r] = append(byRadius[r], ky*w+kx)
		}
	}
	b := &RadialBins{W: w, H: h}
	for r, cells := range byRadius {
		if len(cells) == 0 {
			continue
		}
		b.Radii = append(b.Radii, r)
		b.Cells = append(b.Cells, cells)
	}
	return b
}
