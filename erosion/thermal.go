package erosion

import (
	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/parallel"
)

// Thermal slumps material down slopes steeper than the talus threshold.
//
// Each iteration is a Jacobi step: every interior cell hands 0.5*(slope-talus)
// to each orthogonal neighbor lower than it by more than talus, with all
// slopes measured on the iteration-start heights. Border cells receive
// material but never give any. The input is normalized before the first
// iteration and the result is renormalized.
func Thermal(f *grid.Field, p ThermalParams) (*grid.Field, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cur := f.Normalized()
	next := grid.New(cur.W, cur.H)
	for it := 0; it < p.Iterations; it++ {
		thermalStep(cur, next, p.Talus, p.Parallel)
		cur, next = next, cur
	}
	cur.Normalize()
	return cur, nil
}

// thermalStep writes one iteration of src into dst. Each cell gathers its own
// outflow and the inflow from its neighbors, so bands never write outside
// their rows.
func thermalStep(src, dst *grid.Field, talus float64, opts parallel.Options) {
	w, h := src.W, src.H
	z := src.Data
	parallel.Rows(h, opts, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				here := z[i]
				var delta float64
				self := interior(y, x, h, w)
				for _, d := range neighbors {
					ny, nx := y+d[0], x+d[1]
					if !src.In(nx, ny) {
						continue
					}
					there := z[ny*w+nx]
					if self {
						if s := here - there; s > talus {
							delta -= 0.5 * (s - talus)
						}
					}
					if interior(ny, nx, h, w) {
						if s := there - here; s > talus {
							delta += 0.5 * (s - talus)
						}
					}
				}
				dst.Data[i] = here + delta
			}
		}
	})
}
