package biome

import (
	"math"

	"github.com/pthm-cable/terrafract/grid"
)

// Slope returns the gradient magnitude of f normalized to [0,1].
func Slope(f *grid.Field) *grid.Field {
	dy, dx := grid.Gradient(f)
	out := grid.New(f.W, f.H)
	for i := range out.Data {
		out.Data[i] = math.Hypot(dx.Data[i], dy.Data[i])
	}
	out.Normalize()
	return out
}

// Wetness blurs the inverted height field so low ground scores high, then
// normalizes to [0,1].
func Wetness(f *grid.Field, sigma float64) *grid.Field {
	inv := grid.New(f.W, f.H)
	for i, z := range f.Data {
		inv.Data[i] = 1 - z
	}
	wet := grid.GaussianBlur(inv, sigma)
	wet.Normalize()
	return wet
}
