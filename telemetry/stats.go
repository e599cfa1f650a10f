// Package telemetry summarizes pipeline stages and writes them as CSV.
package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/terrafract/grid"
)

// StageStats holds summary statistics for the field produced by one stage.
type StageStats struct {
	Run   int    `csv:"run"`
	Stage string `csv:"stage"`
	Seed  int64  `csv:"seed"`

	Width  int `csv:"width"`
	Height int `csv:"height"`

	// Height distribution
	Min  float64 `csv:"min"`
	Max  float64 `csv:"max"`
	Mean float64 `csv:"mean"`
	Std  float64 `csv:"std"`
	P10  float64 `csv:"p10"`
	P50  float64 `csv:"p50"`
	P90  float64 `csv:"p90"`

	ElapsedUS int64 `csv:"elapsed_us"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStageStats summarizes f as produced by stage.
func ComputeStageStats(stage string, f *grid.Field, elapsed time.Duration) StageStats {
	s := StageStats{
		Stage:     stage,
		Width:     f.W,
		Height:    f.H,
		ElapsedUS: elapsed.Microseconds(),
	}
	if len(f.Data) == 0 {
		return s
	}

	s.Min = floats.Min(f.Data)
	s.Max = floats.Max(f.Data)
	s.Mean, s.Std = stat.PopMeanStdDev(f.Data, nil)

	sorted := make([]float64, len(f.Data))
	copy(sorted, f.Data)
	sort.Float64s(sorted)
	s.P10 = Percentile(sorted, 0.10)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s StageStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("run", s.Run),
		slog.String("stage", s.Stage),
		slog.Int("width", s.Width),
		slog.Int("height", s.Height),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("p10", s.P10),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
		slog.Int64("elapsed_us", s.ElapsedUS),
	)
}

// LogStats logs the stage stats using slog.
func (s StageStats) LogStats() {
	slog.Info("stage",
		"run", s.Run,
		"stage", s.Stage,
		"size", s.Width,
		"mean", s.Mean,
		"std", s.Std,
		"p50", s.P50,
		"elapsed_us", s.ElapsedUS,
	)
}

// SpectrumRow is one radial bin of a stage's power spectrum.
type SpectrumRow struct {
	Run    int     `csv:"run"`
	Stage  string  `csv:"stage"`
	Radius float64 `csv:"radius"`
	Power  float64 `csv:"power"`
}

// SpectrumRows pairs radius and power slices into rows. Extra elements of
// the longer slice are ignored.
func SpectrumRows(run int, stage string, radius, power []float64) []SpectrumRow {
	n := min(len(radius), len(power))
	rows := make([]SpectrumRow, n)
	for i := range rows {
		rows[i] = SpectrumRow{Run: run, Stage: stage, Radius: radius[i], Power: power[i]}
	}
	return rows
}
