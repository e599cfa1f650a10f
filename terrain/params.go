// Package terrain generates normalized fractal height fields from a seed.
package terrain

import (
	"fmt"
	"math"
	"strings"

	"github.com/pthm-cable/terrafract/config"
	"github.com/pthm-cable/terrafract/grid"
)

// Kind identifies a generator algorithm.
type Kind uint8

const (
	KindDiamondSquare Kind = iota
	KindFBM
)

func (k Kind) String() string {
	switch k {
	case KindDiamondSquare:
		return "diamond-square"
	case KindFBM:
		return "fbm"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind maps an algorithm name to its Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "diamond-square":
		return KindDiamondSquare, nil
	case "fbm", "fractal-brownian-motion":
		return KindFBM, nil
	}
	return 0, fmt.Errorf("%w: unknown algorithm %q", grid.ErrInvalidParameter, s)
}

// NoiseSource selects the coherent-noise primitive summed by the FBM generator.
type NoiseSource uint8

const (
	NoisePerlin  NoiseSource = iota // classic gradient noise
	NoiseSimplex                    // OpenSimplex
	NoiseSmooth                     // fallback: Gaussian-smoothed random field
)

func (n NoiseSource) String() string {
	switch n {
	case NoisePerlin:
		return "perlin"
	case NoiseSimplex:
		return "simplex"
	case NoiseSmooth:
		return "smooth"
	}
	return fmt.Sprintf("NoiseSource(%d)", uint8(n))
}

// ParseNoise maps a noise name to its NoiseSource. Empty means perlin.
func ParseNoise(s string) (NoiseSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "perlin":
		return NoisePerlin, nil
	case "simplex", "opensimplex":
		return NoiseSimplex, nil
	case "smooth", "fallback":
		return NoiseSmooth, nil
	}
	return 0, fmt.Errorf("%w: unknown noise source %q", grid.ErrInvalidParameter, s)
}

// Params is the per-generator parameter set. The concrete types are
// DiamondSquare and FBM.
type Params interface {
	Kind() Kind
	Validate() error
	isParams()
}

// DiamondSquare parameterizes midpoint-displacement subdivision.
type DiamondSquare struct {
	Roughness float64 // initial perturbation amplitude
}

func (DiamondSquare) Kind() Kind { return KindDiamondSquare }
func (DiamondSquare) isParams()  {}

// Validate checks the roughness is a finite non-negative number.
func (p DiamondSquare) Validate() error {
	if p.Roughness < 0 || math.IsNaN(p.Roughness) || math.IsInf(p.Roughness, 0) {
		return fmt.Errorf("%w: roughness %v", grid.ErrInvalidParameter, p.Roughness)
	}
	return nil
}

// FBM parameterizes fractal-sum-of-noise synthesis.
type FBM struct {
	Octaves     int
	Persistence float64 // amplitude multiplier per octave
	Lacunarity  float64 // frequency multiplier per octave
	Scale       float64 // sample coordinates are divided by this
	Noise       NoiseSource
}

func (FBM) Kind() Kind { return KindFBM }
func (FBM) isParams()  {}

// Validate checks octave count, scale and lacunarity.
func (p FBM) Validate() error {
	switch {
	case p.Octaves < 1:
		return fmt.Errorf("%w: octaves %d must be at least 1", grid.ErrInvalidParameter, p.Octaves)
	case !(p.Scale > 0):
		return fmt.Errorf("%w: scale %v must be positive", grid.ErrInvalidParameter, p.Scale)
	case !(p.Lacunarity > 0):
		return fmt.Errorf("%w: lacunarity %v must be positive", grid.ErrInvalidParameter, p.Lacunarity)
	case math.IsNaN(p.Persistence):
		return fmt.Errorf("%w: persistence is NaN", grid.ErrInvalidParameter)
	case p.Noise > NoiseSmooth:
		return fmt.Errorf("%w: noise source %v", grid.ErrInvalidParameter, p.Noise)
	}
	return nil
}

// NewParams builds the parameter case for an algorithm name from generator
// config values. Unknown algorithms are rejected.
func NewParams(algorithm string, gc config.GeneratorConfig) (Params, error) {
	kind, err := ParseKind(algorithm)
	if err != nil {
		return nil, err
	}
	var p Params
	switch kind {
	case KindDiamondSquare:
		p = DiamondSquare{Roughness: gc.Roughness}
	case KindFBM:
		noise, err := ParseNoise(gc.Noise)
		if err != nil {
			return nil, err
		}
		p = FBM{
			Octaves:     gc.Octaves,
			Persistence: gc.Persistence,
			Lacunarity:  gc.Lacunarity,
			Scale:       gc.Scale,
			Noise:       noise,
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// FromConfig builds the configured default generator.
func FromConfig(gc config.GeneratorConfig) (Params, error) {
	return NewParams(gc.Algorithm, gc)
}
