package telemetry

import (
	"log/slog"
	"time"
)

// Stage names for the pipeline.
const (
	StageGenerate  = "generate"
	StageThermal   = "thermal"
	StageHydraulic = "hydraulic"
	StageCliffs    = "cliffs"
	StageBiome     = "biome"
	StageRivers    = "rivers"
	StageSpectral  = "spectral"
)

// Stages lists pipeline stages in execution order.
var Stages = []string{
	StageGenerate, StageThermal, StageHydraulic, StageCliffs,
	StageBiome, StageRivers, StageSpectral,
}

// PerfSample holds timing data for a single pipeline run.
type PerfSample struct {
	RunDuration time.Duration
	Stages      map[string]time.Duration
}

// PerfCollector tracks pipeline timings over a rolling window of runs.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentStages map[string]time.Duration
	runStart      time.Time
	stageStart    time.Time
	lastStage     string
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of runs to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 16
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentStages: make(map[string]time.Duration),
	}
}

// StartRun begins timing a new pipeline run.
func (p *PerfCollector) StartRun() {
	p.runStart = time.Now()
	p.currentStages = make(map[string]time.Duration)
	p.lastStage = ""
}

// StartStage begins timing a specific stage, ending the previous one.
func (p *PerfCollector) StartStage(stage string) time.Duration {
	now := time.Now()
	var prev time.Duration
	if p.lastStage != "" {
		prev = now.Sub(p.stageStart)
		p.currentStages[p.lastStage] += prev
	}
	p.stageStart = now
	p.lastStage = stage
	return prev
}

// EndRun finishes timing the current run and records the sample. It returns
// the duration of the final stage.
func (p *PerfCollector) EndRun() time.Duration {
	now := time.Now()
	var last time.Duration
	if p.lastStage != "" {
		last = now.Sub(p.stageStart)
		p.currentStages[p.lastStage] += last
	}

	p.samples[p.writeIndex] = PerfSample{
		RunDuration: now.Sub(p.runStart),
		Stages:      p.currentStages,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastStage = ""
	return last
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Run timing
	AvgRunDuration time.Duration
	MinRunDuration time.Duration
	MaxRunDuration time.Duration

	// Stage breakdown (average durations)
	StageAvg map[string]time.Duration

	// Stage percentages of total run time
	StagePct map[string]float64

	// Throughput
	RunsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			StageAvg: make(map[string]time.Duration),
			StagePct: make(map[string]float64),
		}
	}

	var total time.Duration
	var minRun, maxRun time.Duration
	stageSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.RunDuration

		if i == 0 || s.RunDuration < minRun {
			minRun = s.RunDuration
		}
		if s.RunDuration > maxRun {
			maxRun = s.RunDuration
		}

		for stage, dur := range s.Stages {
			stageSum[stage] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	stageAvg := make(map[string]time.Duration)
	stagePct := make(map[string]float64)
	for stage, sum := range stageSum {
		stageAvg[stage] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			stagePct[stage] = float64(stageAvg[stage]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgRunDuration: avg,
		MinRunDuration: minRun,
		MaxRunDuration: maxRun,
		StageAvg:       stageAvg,
		StagePct:       stagePct,
		RunsPerSecond:  perSec,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_run_us", s.AvgRunDuration.Microseconds(),
		"min_run_us", s.MinRunDuration.Microseconds(),
		"max_run_us", s.MaxRunDuration.Microseconds(),
	}

	for _, stage := range Stages {
		if pct, ok := s.StagePct[stage]; ok && pct > 0.1 {
			attrs = append(attrs, stage+"_pct", float64(int(pct*10))/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_run_us", s.AvgRunDuration.Microseconds()),
		slog.Int64("min_run_us", s.MinRunDuration.Microseconds()),
		slog.Int64("max_run_us", s.MaxRunDuration.Microseconds()),
		slog.Float64("runs_per_sec", s.RunsPerSecond),
	}

	for _, stage := range Stages {
		if pct, ok := s.StagePct[stage]; ok {
			attrs = append(attrs, slog.Float64(stage+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Runs         int     `csv:"runs"`
	AvgRunUS     int64   `csv:"avg_run_us"`
	MinRunUS     int64   `csv:"min_run_us"`
	MaxRunUS     int64   `csv:"max_run_us"`
	RunsPerSec   float64 `csv:"runs_per_sec"`
	GeneratePct  float64 `csv:"generate_pct"`
	ThermalPct   float64 `csv:"thermal_pct"`
	HydraulicPct float64 `csv:"hydraulic_pct"`
	CliffsPct    float64 `csv:"cliffs_pct"`
	BiomePct     float64 `csv:"biome_pct"`
	RiversPct    float64 `csv:"rivers_pct"`
	SpectralPct  float64 `csv:"spectral_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(runs int) PerfStatsCSV {
	return PerfStatsCSV{
		Runs:         runs,
		AvgRunUS:     s.AvgRunDuration.Microseconds(),
		MinRunUS:     s.MinRunDuration.Microseconds(),
		MaxRunUS:     s.MaxRunDuration.Microseconds(),
		RunsPerSec:   s.RunsPerSecond,
		GeneratePct:  s.StagePct[StageGenerate],
		ThermalPct:   s.StagePct[StageThermal],
		HydraulicPct: s.StagePct[StageHydraulic],
		CliffsPct:    s.StagePct[StageCliffs],
		BiomePct:     s.StagePct[StageBiome],
		RiversPct:    s.StagePct[StageRivers],
		SpectralPct:  s.StagePct[StageSpectral],
	}
}
