package spectral

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/terrafract/config"
	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/terrain"
)

// Regression is a straight-line fit of log power against log radius.
type Regression struct {
	Slope     float64
	Intercept float64
	RSquared  float64
	Bins      int // number of radial bins used
}

// FitExponent regresses log(Power) on log(Radius) over bins with
// lo <= radius <= hi. Bins with zero power are skipped. At least two bins
// must qualify.
func FitExponent(p *PowerProfile, lo, hi float64) (Regression, error) {
	var xs, ys []float64
	for i, r := range p.Radius {
		if r < lo || r > hi || !(p.Power[i] > 0) {
			continue
		}
		xs = append(xs, math.Log(r))
		ys = append(ys, math.Log(p.Power[i]))
	}
	if len(xs) < 2 {
		return Regression{}, fmt.Errorf("%w: %d usable bins in radius range [%v, %v]",
			grid.ErrInvalidParameter, len(xs), lo, hi)
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Regression{
		Slope:     beta,
		Intercept: alpha,
		RSquared:  stat.RSquared(xs, ys, nil, alpha, beta),
		Bins:      len(xs),
	}, nil
}

// FitOptions holds the fit window and the heuristics that turn a spectral
// exponent into generator parameters.
type FitOptions struct {
	MinRadius   float64 // lower edge of the fit window
	MaxFraction float64 // upper edge as a fraction of the smaller side

	Persistence float64
	Lacunarity  float64
	Octaves     int
}

// DefaultFitOptions returns the built-in fit settings.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		MinRadius:   5,
		MaxFraction: 1.0 / 3,
		Persistence: 0.5,
		Lacunarity:  2.0,
		Octaves:     6,
	}
}

// FitOptionsFromConfig reads the spectral and reverse config sections.
func FitOptionsFromConfig(cfg *config.Config) FitOptions {
	return FitOptions{
		MinRadius:   cfg.Spectral.FitMinRadius,
		MaxFraction: cfg.Spectral.FitMaxFraction,
		Persistence: cfg.Reverse.Persistence,
		Lacunarity:  cfg.Reverse.Lacunarity,
		Octaves:     cfg.Reverse.Octaves,
	}
}

// FitResult is a spectral fit and the FBM parameters derived from it.
type FitResult struct {
	Regression
	Beta float64 // spectral exponent, power ~ radius^-Beta
	H    float64 // Hurst exponent, clip((Beta-2)/2, 0, 1)

	Persistence float64
	Lacunarity  float64
	Octaves     int
	Scale       float64
}

// Params returns the FBM generator parameters of the fit.
func (r *FitResult) Params() terrain.FBM {
	return terrain.FBM{
		Octaves:     r.Octaves,
		Persistence: r.Persistence,
		Lacunarity:  r.Lacunarity,
		Scale:       r.Scale,
		Noise:       terrain.NoisePerlin,
	}
}

// LogValue implements slog.LogValuer.
func (r *FitResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("beta", r.Beta),
		slog.Float64("hurst", r.H),
		slog.Float64("r_squared", r.RSquared),
		slog.Int("bins", r.Bins),
		slog.Float64("persistence", r.Persistence),
		slog.Float64("scale", r.Scale),
	)
}

// Fit normalizes a copy of f, measures its power spectrum and fits the
// spectral exponent over [MinRadius, MaxFraction*min(W,H)]. When that window
// holds fewer than two usable bins the whole profile is used instead. A
// field with no usable bins at all (a constant field) fits Beta = 0.
func Fit(f *grid.Field, opts FitOptions) (*FitResult, error) {
	if f.W < 2 || f.H < 2 {
		return nil, fmt.Errorf("%w: field %dx%d is too small to fit", grid.ErrInvalidParameter, f.W, f.H)
	}
	if opts.Octaves < 1 || !(opts.Lacunarity > 0) {
		return nil, fmt.Errorf("%w: fit heuristics %+v", grid.ErrInvalidParameter, opts)
	}
	z := f.Normalized()
	prof := Profile(z)

	lo := opts.MinRadius
	hi := math.Floor(float64(min(z.W, z.H)) * opts.MaxFraction)
	reg, err := FitExponent(prof, lo, hi)
	if err != nil {
		slog.Warn("spectral fit window too narrow, using full profile",
			"min_radius", lo,
			"max_radius", hi,
			"bins", prof.Len(),
		)
		reg, err = FitExponent(prof, 0, math.Inf(1))
		if err != nil {
			slog.Warn("no usable spectral bins, assuming flat spectrum", "width", z.W, "height", z.H)
			reg = Regression{}
		}
	}

	beta := -reg.Slope
	res := &FitResult{
		Regression:  reg,
		Beta:        beta,
		H:           math.Max(0, math.Min(1, (beta-2)/2)),
		Persistence: opts.Persistence,
		Lacunarity:  opts.Lacunarity,
		Octaves:     opts.Octaves,
		Scale:       float64(max(z.W, z.H)) / 2,
	}
	slog.Debug("spectral fit", "fit", res)
	return res, nil
}

// Reconstruct synthesizes a size×size field from the fitted parameters.
func Reconstruct(fit *FitResult, size int, seed int64) (*grid.Field, error) {
	res, err := terrain.Generate(fit.Params(), size, seed)
	if err != nil {
		return nil, fmt.Errorf("reconstructing from fit: %w", err)
	}
	return res.Field, nil
}

// ReverseEngineer fits f and reconstructs a synthetic field with as many
// rows as f.
func ReverseEngineer(f *grid.Field, seed int64, opts FitOptions) (*FitResult, *grid.Field, error) {
	fit, err := Fit(f, opts)
	if err != nil {
		return nil, nil, err
	}
	synth, err := Reconstruct(fit, f.H, seed)
	if err != nil {
		return nil, nil, err
	}
	return fit, synth, nil
}
