package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/terrafract/grid"
)

// BoxCountDimension estimates the fractal dimension of the surface of f by
// differential box counting. Heights are normalized and scaled to the
// smaller side M; for box sizes s = 2, 4, ... up to M/2 each s×s column
// needs floor(max/s) - floor(min/s) + 1 boxes. The dimension is the slope of
// log N(s) against log(1/s). A plane gives 2, rough surfaces approach 3.
func BoxCountDimension(f *grid.Field) (float64, error) {
	m := min(f.W, f.H)
	if m < 8 {
		return 0, fmt.Errorf("%w: field %dx%d is too small for box counting", grid.ErrInvalidParameter, f.W, f.H)
	}
	z := f.Normalized()
	zscale := float64(m)

	var xs, ys []float64
	for s := 2; s <= m/2; s *= 2 {
		var n float64
		for by := 0; by+s <= z.H; by += s {
			for bx := 0; bx+s <= z.W; bx += s {
				lo, hi := math.Inf(1), math.Inf(-1)
				for y := by; y < by+s; y++ {
					for x := bx; x < bx+s; x++ {
						v := z.Data[y*z.W+x] * zscale
						lo = math.Min(lo, v)
						hi = math.Max(hi, v)
					}
				}
				n += math.Floor(hi/float64(s)) - math.Floor(lo/float64(s)) + 1
			}
		}
		xs = append(xs, math.Log(1/float64(s)))
		ys = append(ys, math.Log(n))
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope, nil
}
