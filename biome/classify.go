// Package biome classifies height fields into terrain categories and renders
// them as shaded color textures.
package biome

import (
	"fmt"
	"math"

	"github.com/pthm-cable/terrafract/config"
	"github.com/pthm-cable/terrafract/grid"
)

// Biome is a terrain category code.
type Biome uint8

const (
	Water Biome = iota
	Sand
	Grass
	Forest
	Rock
	Snow

	numBiomes
)

var biomeNames = [numBiomes]string{"water", "sand", "grass", "forest", "rock", "snow"}

func (b Biome) String() string {
	if b < numBiomes {
		return biomeNames[b]
	}
	return fmt.Sprintf("Biome(%d)", uint8(b))
}

// Thresholds are the elevation bands and lowland split used by the
// classifier. Elevation bounds must be non-decreasing in field order.
//
// With the defaults Snow is 1.0, so snow never appears on a normalized field.
// Lower Snow below 1 to get snow caps.
type Thresholds struct {
	Water  float64 // at or below: water
	Sand   float64 // at or below: sand
	Grass  float64 // at or below: grass or lowland forest
	Forest float64 // at or below: highland forest
	Rock   float64 // at or below: rock; above is alpine
	Snow   float64 // alpine cells strictly above: snow

	GrassMaxSlope   float64 // lowland cells need a slope below this to be grass
	GrassMaxWetness float64 // and a wetness below this
}

// DefaultThresholds returns the built-in bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Water:           0.2,
		Sand:            0.3,
		Grass:           0.6,
		Forest:          0.8,
		Rock:            0.9,
		Snow:            1.0,
		GrassMaxSlope:   0.5,
		GrassMaxWetness: 0.6,
	}
}

// ThresholdsFromConfig reads the bands from the biome config section.
func ThresholdsFromConfig(cfg *config.Config) Thresholds {
	b := cfg.Biome
	return Thresholds{
		Water:           b.WaterThreshold,
		Sand:            b.SandThreshold,
		Grass:           b.GrassThreshold,
		Forest:          b.ForestThreshold,
		Rock:            b.RockThreshold,
		Snow:            b.SnowThreshold,
		GrassMaxSlope:   b.GrassMaxSlope,
		GrassMaxWetness: b.GrassMaxWet,
	}
}

// Validate rejects NaN bounds and elevation bands out of order.
func (t Thresholds) Validate() error {
	bands := [...]float64{t.Water, t.Sand, t.Grass, t.Forest, t.Rock, t.Snow}
	for i, v := range bands {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: threshold %d is NaN", grid.ErrInvalidParameter, i)
		}
		if i > 0 && v < bands[i-1] {
			return fmt.Errorf("%w: thresholds must be non-decreasing, got %v", grid.ErrInvalidParameter, bands)
		}
	}
	if math.IsNaN(t.GrassMaxSlope) || math.IsNaN(t.GrassMaxWetness) {
		return fmt.Errorf("%w: lowland split is NaN", grid.ErrInvalidParameter)
	}
	return nil
}

// sample is what a rule looks at for one cell.
type sample struct {
	z, slope, wet float64
}

// rule assigns biome to the first sample it matches.
type rule struct {
	biome Biome
	match func(s sample) bool
}

// rules builds the ordered decision chain. The final rule always matches.
func (t Thresholds) rules() []rule {
	return []rule{
		{Water, func(s sample) bool { return s.z <= t.Water }},
		{Sand, func(s sample) bool { return s.z <= t.Sand }},
		{Grass, func(s sample) bool {
			return s.z <= t.Grass && s.slope < t.GrassMaxSlope && s.wet < t.GrassMaxWetness
		}},
		// Steep or wet lowland falls through to here as well.
		{Forest, func(s sample) bool { return s.z <= t.Forest }},
		{Rock, func(s sample) bool { return s.z <= t.Rock }},
		{Snow, func(s sample) bool { return s.z > t.Snow }},
		{Rock, func(sample) bool { return true }},
	}
}

func classify(chain []rule, s sample) Biome {
	for _, r := range chain {
		if r.match(s) {
			return r.biome
		}
	}
	return Rock
}

// Map is a grid of biome codes, row-major like grid.Field.
type Map struct {
	W, H  int
	Cells []Biome
}

// At returns the biome at column x, row y.
func (m *Map) At(x, y int) Biome { return m.Cells[y*m.W+x] }

// Counts returns the number of cells per biome.
func (m *Map) Counts() [numBiomes]int {
	var c [numBiomes]int
	for _, b := range m.Cells {
		if b < numBiomes {
			c[b]++
		}
	}
	return c
}

// ClassifyWith assigns a biome to every cell from elevation, slope and
// wetness. All three fields must share a shape.
func ClassifyWith(f, slope, wetness *grid.Field, t Thresholds) (*Map, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := grid.CheckShape("slope", f, slope); err != nil {
		return nil, err
	}
	if err := grid.CheckShape("wetness", f, wetness); err != nil {
		return nil, err
	}
	chain := t.rules()
	m := &Map{W: f.W, H: f.H, Cells: make([]Biome, len(f.Data))}
	for i, z := range f.Data {
		m.Cells[i] = classify(chain, sample{z: z, slope: slope.Data[i], wet: wetness.Data[i]})
	}
	return m, nil
}

// Classify derives slope and wetness (wetness blurred with sigma) and then
// classifies the field.
func Classify(f *grid.Field, t Thresholds, sigma float64) (*Map, error) {
	return ClassifyWith(f, Slope(f), Wetness(f, sigma), t)
}
