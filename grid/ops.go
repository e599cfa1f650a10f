package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// EqualizeMean shifts every value by a constant so the field mean equals
// target. Values are not clipped, so the result may leave [0,1].
func EqualizeMean(f *Field, target float64) *Field {
	out := f.Copy()
	floats.AddConst(target-out.Mean(), out.Data)
	return out
}

// Bump raises the terrain with a Gaussian brush centred on (cx, cy) and
// clips the result to [0,1]. The field is modified in place.
func Bump(f *Field, cx, cy, radius, height float64) error {
	if radius <= 0 {
		return fmt.Errorf("%w: bump radius %v must be positive", ErrInvalidParameter, radius)
	}
	denom := 2 * radius * radius
	for y := 0; y < f.H; y++ {
		dy := float64(y) - cy
		for x := 0; x < f.W; x++ {
			dx := float64(x) - cx
			i := y*f.W + x
			v := f.Data[i] + height*math.Exp(-(dx*dx+dy*dy)/denom)
			f.Data[i] = math.Min(1, math.Max(0, v))
		}
	}
	return nil
}
