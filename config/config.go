// Package config provides configuration loading and access for the terrain engine.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable default of the engine.
type Config struct {
	Generator GeneratorConfig         `yaml:"generator"`
	Thermal   ThermalConfig           `yaml:"thermal"`
	Hydraulic HydraulicConfig         `yaml:"hydraulic"`
	Cliffs    CliffsConfig            `yaml:"cliffs"`
	Biome     BiomeConfig             `yaml:"biome"`
	Spectral  SpectralConfig          `yaml:"spectral"`
	Reverse   ReverseConfig           `yaml:"reverse"`
	Rivers    RiversConfig            `yaml:"rivers"`
	Parallel  ParallelConfig          `yaml:"parallel"`
	Presets   map[string]PresetConfig `yaml:"presets"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GeneratorConfig holds height-field generator defaults.
type GeneratorConfig struct {
	Algorithm   string  `yaml:"algorithm"` // diamond-square | fbm
	Size        int     `yaml:"size"`
	Seed        int64   `yaml:"seed"`
	Roughness   float64 `yaml:"roughness"`   // Diamond-square initial amplitude
	Octaves     int     `yaml:"octaves"`     // FBM layers
	Persistence float64 `yaml:"persistence"` // FBM amplitude multiplier per octave
	Lacunarity  float64 `yaml:"lacunarity"`  // FBM frequency multiplier per octave
	Scale       float64 `yaml:"scale"`       // FBM feature size in cells
	Noise       string  `yaml:"noise"`       // perlin | simplex | smooth
}

// ThermalConfig holds thermal erosion defaults.
type ThermalConfig struct {
	Iterations int     `yaml:"iterations"`
	Talus      float64 `yaml:"talus"` // Height difference above which material slides
}

// HydraulicConfig holds hydraulic erosion defaults.
type HydraulicConfig struct {
	Iterations int     `yaml:"iterations"`
	Rain       float64 `yaml:"rain"`       // Water added to every cell per iteration
	Solubility float64 `yaml:"solubility"` // Height dissolved per unit of flow
	Deposition float64 `yaml:"deposition"` // Fraction of sediment settled per iteration (0 = never)
	Scheme     string  `yaml:"scheme"`     // in-place | buffered
}

// CliffsConfig holds Voronoi cliff defaults.
type CliffsConfig struct {
	Sites       int     `yaml:"sites"`
	RidgeHeight float64 `yaml:"ridge_height"`
}

// BiomeConfig holds classification and texture defaults.
type BiomeConfig struct {
	WaterThreshold  float64          `yaml:"water_threshold"`
	SandThreshold   float64          `yaml:"sand_threshold"`
	GrassThreshold  float64          `yaml:"grass_threshold"`
	ForestThreshold float64          `yaml:"forest_threshold"`  // Upper edge of highland forest
	RockThreshold   float64          `yaml:"rock_threshold"`    // Alpine line
	SnowThreshold   float64          `yaml:"snow_threshold"`    // Alpine cells strictly above become snow
	SmoothingSigma  float64          `yaml:"smoothing_sigma"`   // Wetness blur
	CoastalWidth    float64          `yaml:"coastal_width"`     // Wet-sand band in cells
	GrassMaxSlope   float64          `yaml:"grass_max_slope"`   // Lowland cells at or above become forest
	GrassMaxWet     float64          `yaml:"grass_max_wetness"` // Lowland cells at or above become forest
	Colors          map[string][]int `yaml:"colors"`            // 0-255 RGB per biome name
}

// SpectralConfig holds power-spectrum fit defaults.
type SpectralConfig struct {
	FitMinRadius   float64 `yaml:"fit_min_radius"`
	FitMaxFraction float64 `yaml:"fit_max_fraction"` // Upper radius as a fraction of the smaller side
}

// ReverseConfig holds the heuristics used to turn a fit into FBM parameters.
type ReverseConfig struct {
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
	Octaves     int     `yaml:"octaves"`
	RefineEvals int     `yaml:"refine_evals"`
}

// RiversConfig holds river extraction defaults.
type RiversConfig struct {
	Threshold    float64 `yaml:"threshold"`     // Minimum accumulation for a river cell
	SmoothPasses int     `yaml:"smooth_passes"` // Chaikin iterations
}

// ParallelConfig holds worker fan-out settings.
type ParallelConfig struct {
	MinRows int `yaml:"min_rows"` // Below this many rows work runs single-threaded
	Workers int `yaml:"workers"`  // 0 = GOMAXPROCS
}

// PresetConfig is a named terrain recipe. Zero-valued stage fields mean the
// stage is skipped; generator fields left at zero inherit GeneratorConfig.
type PresetConfig struct {
	Algorithm      string  `yaml:"algorithm"`
	Roughness      float64 `yaml:"roughness"`
	Octaves        int     `yaml:"octaves"`
	Persistence    float64 `yaml:"persistence"`
	Lacunarity     float64 `yaml:"lacunarity"`
	Scale          float64 `yaml:"scale"`
	ThermalIters   int     `yaml:"thermal_iters"`
	HydraulicIters int     `yaml:"hydraulic_iters"`
	CliffSites     int     `yaml:"cliff_sites"`
	RidgeHeight    float64 `yaml:"ridge_height"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	PresetNames []string              // sorted preset names
	Colors      map[string][3]float64 // Biome.Colors scaled to [0,1]
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

// validate rejects settings no stage could run with.
func (c *Config) validate() error {
	b := c.Biome
	th := []float64{b.WaterThreshold, b.SandThreshold, b.GrassThreshold, b.ForestThreshold, b.RockThreshold, b.SnowThreshold}
	for i := 1; i < len(th); i++ {
		if th[i] < th[i-1] {
			return fmt.Errorf("biome thresholds must be non-decreasing, got %v", th)
		}
	}
	for name, rgb := range b.Colors {
		if len(rgb) != 3 {
			return fmt.Errorf("biome color %q needs 3 components, got %d", name, len(rgb))
		}
	}
	if c.Generator.Size < 2 {
		return fmt.Errorf("generator.size must be at least 2, got %d", c.Generator.Size)
	}
	if c.Spectral.FitMaxFraction <= 0 || c.Spectral.FitMaxFraction > 1 {
		return fmt.Errorf("spectral.fit_max_fraction must be in (0,1], got %v", c.Spectral.FitMaxFraction)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.PresetNames = c.Derived.PresetNames[:0]
	for name := range c.Presets {
		c.Derived.PresetNames = append(c.Derived.PresetNames, name)
	}
	sort.Strings(c.Derived.PresetNames)

	c.Derived.Colors = make(map[string][3]float64, len(c.Biome.Colors))
	for name, rgb := range c.Biome.Colors {
		c.Derived.Colors[name] = [3]float64{
			float64(rgb[0]) / 255,
			float64(rgb[1]) / 255,
			float64(rgb[2]) / 255,
		}
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
