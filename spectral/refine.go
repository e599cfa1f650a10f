package spectral

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/terrafract/grid"
)

// Persistence is kept inside this range while refining.
const (
	minPersistence = 0.05
	maxPersistence = 0.95
)

// Refine searches persistence and scale around an initial fit so that a
// field reconstructed with seed has a log power spectrum as close as possible
// to f's. It uses Nelder-Mead with at most evals reconstructions and returns
// a copy of fit with the improved values. Octaves and lacunarity are kept.
func Refine(f *grid.Field, fit *FitResult, seed int64, evals int) (*FitResult, error) {
	if evals < 1 {
		return nil, fmt.Errorf("%w: refine evaluations %d", grid.ErrInvalidParameter, evals)
	}
	target := Profile(f.Normalized())
	size := f.H
	trial := *fit

	// x = (persistence, log scale)
	objective := func(x []float64) float64 {
		trial.Persistence = clampPersistence(x[0])
		trial.Scale = math.Exp(x[1])
		synth, err := Reconstruct(&trial, size, seed)
		if err != nil {
			return math.Inf(1)
		}
		d := spectrumDistance(target, logSpectrum(Profile(synth)))
		// Pull the simplex back inside the persistence range.
		if x[0] != trial.Persistence {
			d += math.Abs(x[0] - trial.Persistence)
		}
		return d
	}

	start := objective([]float64{fit.Persistence, math.Log(fit.Scale)})
	res, err := optimize.Minimize(
		optimize.Problem{Func: objective},
		[]float64{fit.Persistence, math.Log(fit.Scale)},
		&optimize.Settings{FuncEvaluations: evals},
		&optimize.NelderMead{},
	)
	if err != nil {
		return nil, fmt.Errorf("refining fit: %w", err)
	}

	out := *fit
	if res.F < start {
		out.Persistence = clampPersistence(res.X[0])
		out.Scale = math.Exp(res.X[1])
	}
	slog.Debug("refined spectral fit",
		"start_distance", start,
		"distance", math.Min(res.F, start),
		"evaluations", res.FuncEvaluations,
		"status", res.Status.String(),
	)
	return &out, nil
}

func clampPersistence(p float64) float64 {
	return math.Max(minPersistence, math.Min(maxPersistence, p))
}

// logSpectrum maps radius to log power, skipping empty bins.
func logSpectrum(p *PowerProfile) map[float64]float64 {
	m := make(map[float64]float64, p.Len())
	for i, r := range p.Radius {
		if p.Power[i] > 0 {
			m[r] = math.Log(p.Power[i])
		}
	}
	return m
}

// spectrumDistance is the variance of the log-power difference over the
// radii of target that b also has. Using the variance ignores a constant
// offset, so overall amplitude does not count.
func spectrumDistance(target *PowerProfile, b map[float64]float64) float64 {
	diffs := make([]float64, 0, target.Len())
	for i, r := range target.Radius {
		if !(target.Power[i] > 0) {
			continue
		}
		if vb, ok := b[r]; ok {
			diffs = append(diffs, math.Log(target.Power[i])-vb)
		}
	}
	if len(diffs) == 0 {
		return math.Inf(1)
	}
	_, variance := stat.PopMeanVariance(diffs, nil)
	return variance
}
