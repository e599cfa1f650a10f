package terrain

import (
	perlin "github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/parallel"
	"github.com/pthm-cable/terrafract/rng"
)

// noise2 is a single-octave coherent noise primitive.
type noise2 interface {
	Eval2(x, y float64) float64
}

// perlinNoise adapts go-perlin to noise2. With one octave alpha and beta
// have no effect, so the raw gradient noise is returned.
type perlinNoise struct {
	p *perlin.Perlin
}

func (n perlinNoise) Eval2(x, y float64) float64 { return n.p.Noise2D(x, y) }

func newNoise(src NoiseSource, seed int64) noise2 {
	switch src {
	case NoiseSimplex:
		return opensimplex.New(seed)
	default:
		return perlinNoise{perlin.NewPerlin(2, 2, 1, seed)}
	}
}

// fbm sums octaves of coherent noise over an n×n field. Cell (row i, col j)
// samples the noise at (i/scale, j/scale) times the octave frequency.
func fbm(n int, p FBM, seed int64, opts parallel.Options) *grid.Field {
	f := grid.New(n, n)
	noise := newNoise(p.Noise, seed)

	parallel.Rows(n, opts, func(y0, y1 int) {
		for i := y0; i < y1; i++ {
			x := float64(i) / p.Scale
			for j := 0; j < n; j++ {
				y := float64(j) / p.Scale
				amp, freq := 1.0, 1.0
				var val float64
				for o := 0; o < p.Octaves; o++ {
					val += amp * noise.Eval2(x*freq, y*freq)
					amp *= p.Persistence
					freq *= p.Lacunarity
				}
				f.Data[i*n+j] = val
			}
		}
	})

	f.Normalize()
	return f
}

// smoothFallback is the substitute used when no coherent-noise primitive is
// wanted: a seeded uniform random field blurred with sigma = n/8. It ignores
// the octave parameters, so its spectrum differs from the noise-based path.
func smoothFallback(n int, src rng.Source) *grid.Field {
	base := grid.New(n, n)
	for i := range base.Data {
		base.Data[i] = src.Float64()
	}
	f := grid.GaussianBlur(base, float64(n)/8)
	f.Normalize()
	return f
}
