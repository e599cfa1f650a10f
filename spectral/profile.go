// Package spectral measures the radial power spectrum of height fields and
// fits fractal-noise parameters to it.
package spectral

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/parallel"
)

// PowerProfile is the isotropic power spectrum of a field: Power[i] is the
// mean squared magnitude of the Fourier coefficients whose integer distance
// from the zero frequency is Radius[i]. The zero radius is excluded.
type PowerProfile struct {
	Radius []float64
	Power  []float64
}

// Len returns the number of radial bins.
func (p *PowerProfile) Len() int { return len(p.Radius) }

// Profile computes the radial power spectrum of f.
func Profile(f *grid.Field) *PowerProfile {
	return ProfileWith(f, parallel.Options{})
}

// ProfileWith is Profile with explicit worker settings for the transform.
func ProfileWith(f *grid.Field, opts parallel.Options) *PowerProfile {
	coeff := fft2(f, opts)
	bins := grid.Bins(f.W, f.H)

	p := &PowerProfile{
		Radius: make([]float64, 0, len(bins.Radii)),
		Power:  make([]float64, 0, len(bins.Radii)),
	}
	for i, r := range bins.Radii {
		if r == 0 {
			continue
		}
		var sum float64
		for _, idx := range bins.Cells[i] {
			c := coeff[idx]
			sum += real(c)*real(c) + imag(c)*imag(c)
		}
		p.Radius = append(p.Radius, float64(r))
		p.Power = append(p.Power, sum/float64(len(bins.Cells[i])))
	}
	return p
}

// fft2 returns the unnormalized 2-D DFT of f, row-major and unshifted.
// Rows are transformed first, then columns; each band owns its own plan.
func fft2(f *grid.Field, opts parallel.Options) []complex128 {
	w, h := f.W, f.H
	data := make([]complex128, w*h)
	for i, v := range f.Data {
		data[i] = complex(v, 0)
	}

	parallel.Rows(h, opts, func(y0, y1 int) {
		plan := fourier.NewCmplxFFT(w)
		for y := y0; y < y1; y++ {
			row := data[y*w : (y+1)*w]
			plan.Coefficients(row, row)
		}
	})

	// Column bands; each column is only touched by one band.
	parallel.Rows(w, opts, func(x0, x1 int) {
		plan := fourier.NewCmplxFFT(h)
		col := make([]complex128, h)
		for x := x0; x < x1; x++ {
			for y := 0; y < h; y++ {
				col[y] = data[y*w+x]
			}
			plan.Coefficients(col, col)
			for y := 0; y < h; y++ {
				data[y*w+x] = col[y]
			}
		}
	})
	return data
}
