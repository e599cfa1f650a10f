package erosion

import (
	"log/slog"

	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/parallel"
)

// HydraulicState is the full simulation state after a hydraulic run. Height
// is not renormalized; Hydraulic does that.
type HydraulicState struct {
	Height   *grid.Field
	Water    *grid.Field
	Sediment *grid.Field // dissolved material carried by the water
}

// Hydraulic rains on the field, routes water to lower neighbors and
// dissolves height in proportion to the flow. The input is normalized first
// and the result renormalized. The water and sediment grids are discarded.
func Hydraulic(f *grid.Field, p HydraulicParams) (*grid.Field, error) {
	st, err := RunHydraulic(f, p)
	if err != nil {
		return nil, err
	}
	st.Height.Normalize()
	return st.Height, nil
}

// RunHydraulic runs the simulation and returns its final state.
//
// Per iteration every cell gets Rain units of water. Each interior cell then
// compares its surface (height + water) with its four neighbors and sends
// water to the lower ones in proportion to the drop. Every unit of flow
// removes Solubility units of height from the source and adds them to the
// destination's sediment. With Deposition > 0 that fraction of sediment
// settles back into the height at the end of the iteration.
func RunHydraulic(f *grid.Field, p HydraulicParams) (*HydraulicState, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	st := &HydraulicState{
		Height:   f.Normalized(),
		Water:    grid.New(f.W, f.H),
		Sediment: grid.New(f.W, f.H),
	}
	if p.Iterations == 0 {
		return st, nil
	}

	var buf *bufferedScratch
	if p.Scheme == SchemeBuffered {
		buf = newBufferedScratch(f.W, f.H)
	}
	for it := 0; it < p.Iterations; it++ {
		for i := range st.Water.Data {
			st.Water.Data[i] += p.Rain
		}
		switch p.Scheme {
		case SchemeBuffered:
			buf.step(st, p.Solubility, p.Parallel)
		default:
			inPlaceStep(st, p.Solubility)
		}
		if p.Deposition > 0 {
			deposit(st, p.Deposition)
		}
	}

	slog.Debug("hydraulic erosion finished",
		"scheme", p.Scheme.String(),
		"iterations", p.Iterations,
		"water_mean", st.Water.Mean(),
		"sediment_mean", st.Sediment.Mean(),
	)
	return st, nil
}

// inPlaceStep is the order-dependent scan: cells are visited row-major, every
// flow mutates the shared grids immediately, and a cell with several lower
// neighbors sends each successive flow from its remaining water.
func inPlaceStep(st *HydraulicState, solubility float64) {
	w, h := st.Height.W, st.Height.H
	z, wat, sed := st.Height.Data, st.Water.Data, st.Sediment.Data

	var lows [4]struct {
		idx  int
		drop float64
	}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			surface := z[i] + wat[i]
			n := 0
			var total float64
			for _, d := range neighbors {
				j := (y+d[0])*w + x + d[1]
				if drop := surface - (z[j] + wat[j]); drop > 0 {
					lows[n].idx, lows[n].drop = j, drop
					total += drop
					n++
				}
			}
			if total <= 0 {
				continue
			}
			for k := 0; k < n; k++ {
				flow := wat[i] * lows[k].drop / total
				wat[i] -= flow
				wat[lows[k].idx] += flow
				dissolved := solubility * flow
				z[i] -= dissolved
				sed[lows[k].idx] += dissolved
			}
		}
	}
}

// bufferedScratch holds the snapshot and per-cell drop totals for the
// simultaneous scheme, reused across iterations.
type bufferedScratch struct {
	z, wat []float64 // iteration-start height and water
	total  []float64 // sum of positive drops to neighbors, interior cells only
}

func newBufferedScratch(w, h int) *bufferedScratch {
	return &bufferedScratch{
		z:     make([]float64, w*h),
		wat:   make([]float64, w*h),
		total: make([]float64, w*h),
	}
}

// step moves water simultaneously. An interior cell sends its whole
// iteration-start water to its lower neighbors in proportion to the drop.
// Every cell then gathers its own outflow and inflow from the snapshot, so
// the result does not depend on row partitioning.
func (b *bufferedScratch) step(st *HydraulicState, solubility float64, opts parallel.Options) {
	w, h := st.Height.W, st.Height.H
	copy(b.z, st.Height.Data)
	copy(b.wat, st.Water.Data)
	z, wat, total := b.z, b.wat, b.total

	surface := func(i int) float64 { return z[i] + wat[i] }

	parallel.Rows(h, opts, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				total[i] = 0
				if !interior(y, x, h, w) {
					continue
				}
				s := surface(i)
				for _, d := range neighbors {
					if drop := s - surface((y+d[0])*w+x+d[1]); drop > 0 {
						total[i] += drop
					}
				}
			}
		}
	})

	parallel.Rows(h, opts, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				var out, in float64
				if total[i] > 0 {
					out = wat[i]
				}
				for _, d := range neighbors {
					ny, nx := y+d[0], x+d[1]
					if !st.Height.In(nx, ny) {
						continue
					}
					j := ny*w + nx
					if total[j] <= 0 {
						continue
					}
					if drop := surface(j) - surface(i); drop > 0 {
						in += wat[j] * drop / total[j]
					}
				}
				st.Water.Data[i] = wat[i] - out + in
				st.Height.Data[i] = z[i] - solubility*out
				st.Sediment.Data[i] += solubility * in
			}
		}
	})
}

// deposit settles a fraction of carried sediment back into the height field.
func deposit(st *HydraulicState, rate float64) {
	z, sed := st.Height.Data, st.Sediment.Data
	for i := range sed {
		settled := sed[i] * rate
		z[i] += settled
		sed[i] -= settled
	}
}
