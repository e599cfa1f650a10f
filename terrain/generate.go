package terrain

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/parallel"
	"github.com/pthm-cable/terrafract/rng"
)

// Result is a generated height field plus what the caller needs to detect
// adjustments made on its behalf.
type Result struct {
	Field     *grid.Field
	Requested int  // size the caller asked for
	Resized   bool // true when Field is larger than Requested (diamond-square rounding)
	// Noise is the primitive actually summed by FBM; meaningless for
	// diamond-square.
	Noise NoiseSource
}

// Generate produces a normalized size×size height field. Diamond-square
// rounds size up to the next 2^k+1 and reports it through Result.Resized.
// The same params, size and seed always give a bit-identical field.
func Generate(p Params, size int, seed int64) (*Result, error) {
	return GenerateWith(p, size, seed, parallel.Options{})
}

// GenerateWith is Generate with explicit worker settings.
func GenerateWith(p Params, size int, seed int64, opts parallel.Options) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil generator params", grid.ErrInvalidParameter)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if size < 2 {
		return nil, fmt.Errorf("%w: size %d must be at least 2", grid.ErrInvalidParameter, size)
	}

	res := &Result{Requested: size}
	src := rng.New(seed)

	switch p := p.(type) {
	case DiamondSquare:
		n := nextSubdivisionSize(size)
		if n != size {
			res.Resized = true
			slog.Warn("resizing grid for diamond-square", "requested", size, "size", n)
		}
		res.Field = diamondSquare(n, p.Roughness, src)
		res.Field.Normalize()
	case FBM:
		res.Noise = p.Noise
		if p.Noise == NoiseSmooth {
			slog.Warn("fbm using smoothed random fallback instead of coherent noise", "noise", p.Noise.String())
			res.Field = smoothFallback(size, src)
		} else {
			res.Field = fbm(size, p, seed, opts)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported generator %T", grid.ErrInvalidParameter, p)
	}

	slog.Debug("generated height field",
		"kind", p.Kind().String(),
		"size", res.Field.W,
		"seed", seed,
	)
	return res, nil
}
