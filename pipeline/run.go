package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/terrafract/biome"
	"github.com/pthm-cable/terrafract/cliffs"
	"github.com/pthm-cable/terrafract/erosion"
	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/parallel"
	"github.com/pthm-cable/terrafract/rivers"
	"github.com/pthm-cable/terrafract/spectral"
	"github.com/pthm-cable/terrafract/telemetry"
	"github.com/pthm-cable/terrafract/terrain"
)

// Recorder receives stage summaries. *telemetry.OutputManager implements it.
type Recorder interface {
	RecordStage(telemetry.StageStats) error
	RecordSpectrum([]telemetry.SpectrumRow) error
	WritePerf(stats telemetry.PerfStats, runs int) error
}

// Output is everything a run produced.
type Output struct {
	Field   *grid.Field
	Resized bool // generator rounded the requested size up
	Stages  []telemetry.StageStats

	Texture *biome.Texture
	Biomes  *biome.Map
	Rivers  []rivers.Polyline
	Fit     *spectral.FitResult
}

// Runner executes recipes and keeps timing across runs.
type Runner struct {
	// Spectra records the radial power spectrum after every height stage.
	Spectra bool
	// LogStats logs every stage summary at Info.
	LogStats bool

	rec      Recorder
	parallel parallel.Options
	perf     *telemetry.PerfCollector
	runs     int
}

// NewRunner creates a runner. rec may be nil.
func NewRunner(rec Recorder, opts parallel.Options) *Runner {
	return &Runner{
		rec:      rec,
		parallel: opts,
		perf:     telemetry.NewPerfCollector(16),
	}
}

// Run executes a recipe with a throwaway runner.
func Run(r Recipe, rec Recorder) (*Output, error) {
	return NewRunner(rec, parallel.Options{}).Run(r)
}

// Runs returns the number of completed runs.
func (r *Runner) Runs() int { return r.runs }

// Perf returns timing statistics over recent runs.
func (r *Runner) Perf() telemetry.PerfStats { return r.perf.Stats() }

// Run generates the recipe's height field, applies its stages in order and
// analyzes the result. The same recipe always produces the same field.
func (r *Runner) Run(rc Recipe) (*Output, error) {
	if rc.Generator == nil {
		return nil, fmt.Errorf("%w: recipe %q has no generator", grid.ErrInvalidParameter, rc.Name)
	}

	start := time.Now()
	r.perf.StartRun()
	out, err := r.run(rc)
	r.perf.EndRun()
	if err != nil {
		return nil, err
	}
	r.runs++

	slog.Info("pipeline run complete",
		"recipe", rc.Name,
		"size", out.Field.W,
		"seed", rc.Seed,
		"stages", len(out.Stages),
		"elapsed_us", time.Since(start).Microseconds(),
	)
	return out, nil
}

func (r *Runner) run(rc Recipe) (*Output, error) {
	out := &Output{}

	// stage times fn and records the height field it leaves behind.
	stage := func(name string, fn func(f *grid.Field) (*grid.Field, error)) error {
		r.perf.StartStage(name)
		t0 := time.Now()
		f, err := fn(out.Field)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		out.Field = f
		r.record(out, rc, name, time.Since(t0))
		return nil
	}

	if err := stage(telemetry.StageGenerate, func(*grid.Field) (*grid.Field, error) {
		res, err := terrain.GenerateWith(rc.Generator, rc.Size, rc.Seed, r.parallel)
		if err != nil {
			return nil, err
		}
		out.Resized = res.Resized
		return res.Field, nil
	}); err != nil {
		return nil, err
	}
	if p := rc.Thermal; p != nil {
		if err := stage(telemetry.StageThermal, func(f *grid.Field) (*grid.Field, error) {
			return erosion.Thermal(f, *p)
		}); err != nil {
			return nil, err
		}
	}
	if p := rc.Hydraulic; p != nil {
		if err := stage(telemetry.StageHydraulic, func(f *grid.Field) (*grid.Field, error) {
			return erosion.Hydraulic(f, *p)
		}); err != nil {
			return nil, err
		}
	}
	if p := rc.Cliffs; p != nil {
		if err := stage(telemetry.StageCliffs, func(f *grid.Field) (*grid.Field, error) {
			return cliffs.Apply(f, *p, rc.Seed)
		}); err != nil {
			return nil, err
		}
	}

	if o := rc.Biome; o != nil {
		r.perf.StartStage(telemetry.StageBiome)
		tex, m, err := biome.Synthesize(out.Field, *o)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", telemetry.StageBiome, err)
		}
		out.Texture, out.Biomes = tex, m
	}
	if p := rc.Rivers; p != nil {
		r.perf.StartStage(telemetry.StageRivers)
		lines, err := rivers.Network(out.Field, *p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", telemetry.StageRivers, err)
		}
		out.Rivers = lines
	}
	if o := rc.Fit; o != nil {
		r.perf.StartStage(telemetry.StageSpectral)
		fit, err := spectral.Fit(out.Field, *o)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", telemetry.StageSpectral, err)
		}
		if rc.Refine > 0 {
			fit, err = spectral.Refine(out.Field, fit, rc.Seed, rc.Refine)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", telemetry.StageSpectral, err)
			}
		}
		out.Fit = fit
	}
	return out, nil
}

// record summarizes the current field and hands it to the recorder. Recorder
// failures are logged, not returned; the terrain itself is still valid.
func (r *Runner) record(out *Output, rc Recipe, name string, elapsed time.Duration) {
	stats := telemetry.ComputeStageStats(name, out.Field, elapsed)
	stats.Run = r.runs
	stats.Seed = rc.Seed
	out.Stages = append(out.Stages, stats)

	if r.LogStats {
		stats.LogStats()
	}
	if r.rec == nil {
		return
	}
	if err := r.rec.RecordStage(stats); err != nil {
		slog.Error("failed to write stage stats", "stage", name, "error", err)
	}
	if r.Spectra {
		prof := spectral.ProfileWith(out.Field, r.parallel)
		rows := telemetry.SpectrumRows(r.runs, name, prof.Radius, prof.Power)
		if err := r.rec.RecordSpectrum(rows); err != nil {
			slog.Error("failed to write spectrum", "stage", name, "error", err)
		}
	}
}

// FlushPerf logs the timing window and writes it to the recorder.
func (r *Runner) FlushPerf() error {
	stats := r.perf.Stats()
	stats.LogStats()
	if r.rec == nil {
		return nil
	}
	if err := r.rec.WritePerf(stats, r.runs); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}
