// Package grid provides the dense height-field type and the grid utilities
// shared by every terrain stage: normalization, bounds-safe neighbor access,
// smoothing, gradients, distance transforms and radial spectral binning.
package grid

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrInvalidParameter is returned when a caller-supplied parameter is
	// rejected before any computation starts.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrShapeMismatch is returned when two grids that must share a shape do not.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Field is a W×H grid of real values stored row-major (Data[y*W+x]).
type Field struct {
	W, H int
	Data []float64
}

// New allocates a zeroed field.
func New(w, h int) *Field {
	return &Field{W: w, H: h, Data: make([]float64, w*h)}
}

// FromRows builds a field from a slice of equal-length rows.
func FromRows(rows [][]float64) (*Field, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrInvalidParameter)
	}
	w := len(rows[0])
	f := New(w, len(rows))
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, y, len(row), w)
		}
		copy(f.Data[y*w:], row)
	}
	return f, nil
}

// At returns the value at (x, y).
func (f *Field) At(x, y int) float64 { return f.Data[y*f.W+x] }

// Set stores v at (x, y).
func (f *Field) Set(x, y int, v float64) { f.Data[y*f.W+x] = v }

// In reports whether (x, y) lies inside the grid.
func (f *Field) In(x, y int) bool {
	return x >= 0 && x < f.W && y >= 0 && y < f.H
}

// AtClamped returns the value at (x, y) with coordinates clamped to the
// grid edge, so neighbor lookups never go out of bounds.
func (f *Field) AtClamped(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= f.W {
		x = f.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= f.H {
		y = f.H - 1
	}
	return f.Data[y*f.W+x]
}

// Copy returns a deep copy.
func (f *Field) Copy() *Field {
	c := New(f.W, f.H)
	copy(c.Data, f.Data)
	return c
}

// SameShape reports whether g has the same dimensions as f.
func (f *Field) SameShape(g *Field) bool {
	return f.W == g.W && f.H == g.H
}

// CheckShape returns ErrShapeMismatch if the dimensions differ.
func CheckShape(name string, want, got *Field) error {
	if want.W != got.W || want.H != got.H {
		return fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrShapeMismatch, name, got.W, got.H, want.W, want.H)
	}
	return nil
}

// MinMax returns the smallest and largest values.
func (f *Field) MinMax() (lo, hi float64) {
	if len(f.Data) == 0 {
		return 0, 0
	}
	return floats.Min(f.Data), floats.Max(f.Data)
}

// Mean returns the arithmetic mean.
func (f *Field) Mean() float64 {
	if len(f.Data) == 0 {
		return 0
	}
	return floats.Sum(f.Data) / float64(len(f.Data))
}

// Normalize rescales the field in place to [0,1]. A constant field has zero
// range; it is shifted to all zeros and the divide is skipped.
func (f *Field) Normalize() {
	if len(f.Data) == 0 {
		return
	}
	lo := floats.Min(f.Data)
	floats.AddConst(-lo, f.Data)
	hi := floats.Max(f.Data)
	if hi > 0 {
		// Divide rather than scale by 1/hi so the peak lands exactly on 1.
		for i := range f.Data {
			f.Data[i] /= hi
		}
	}
}

// Normalized returns a normalized copy, leaving f untouched.
func (f *Field) Normalized() *Field {
	c := f.Copy()
	c.Normalize()
	return c
}
