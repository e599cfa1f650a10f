// Package pipeline chains the generator, erosion, cliff and analysis stages
// into a single run and records a summary of every stage.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/terrafract/biome"
	"github.com/pthm-cable/terrafract/cliffs"
	"github.com/pthm-cable/terrafract/config"
	"github.com/pthm-cable/terrafract/erosion"
	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/rivers"
	"github.com/pthm-cable/terrafract/spectral"
	"github.com/pthm-cable/terrafract/terrain"
)

// Recipe describes one terrain run. Nil stage pointers are skipped.
type Recipe struct {
	Name      string
	Generator terrain.Params
	Size      int
	Seed      int64

	// Height-field stages, applied in this order.
	Thermal   *erosion.ThermalParams
	Hydraulic *erosion.HydraulicParams
	Cliffs    *cliffs.Params

	// Analysis of the final height field.
	Biome  *biome.Options
	Rivers *rivers.Params
	Fit    *spectral.FitOptions
	// Refine bounds the reconstructions spent refining the fit. Zero skips
	// refinement.
	Refine int
}

// DefaultRecipe builds a recipe with the configured generator and every
// stage enabled at its configured defaults.
func DefaultRecipe(cfg *config.Config) (Recipe, error) {
	gen, err := terrain.FromConfig(cfg.Generator)
	if err != nil {
		return Recipe{}, fmt.Errorf("generator: %w", err)
	}
	hyd, err := erosion.HydraulicFromConfig(cfg)
	if err != nil {
		return Recipe{}, fmt.Errorf("hydraulic: %w", err)
	}
	th := erosion.ThermalFromConfig(cfg)
	cl := cliffs.FromConfig(cfg)
	bo := biome.OptionsFromConfig(cfg)
	rv := rivers.FromConfig(cfg)
	fo := spectral.FitOptionsFromConfig(cfg)

	return Recipe{
		Name:      "default",
		Generator: gen,
		Size:      cfg.Generator.Size,
		Seed:      cfg.Generator.Seed,
		Thermal:   &th,
		Hydraulic: &hyd,
		Cliffs:    &cl,
		Biome:     &bo,
		Rivers:    &rv,
		Fit:       &fo,
		Refine:    cfg.Reverse.RefineEvals,
	}, nil
}

// PresetRecipe builds the named preset. Generator fields the preset leaves
// at zero inherit the generator config; erosion and cliff stages run only
// when the preset gives them a nonzero iteration or site count, with the
// remaining settings taken from config. Biome synthesis is always enabled.
func PresetRecipe(name string, cfg *config.Config) (Recipe, error) {
	pc, ok := cfg.Presets[name]
	if !ok {
		return Recipe{}, fmt.Errorf("%w: unknown preset %q (have %s)",
			grid.ErrInvalidParameter, name, strings.Join(cfg.Derived.PresetNames, ", "))
	}

	gc := cfg.Generator
	if pc.Algorithm != "" {
		gc.Algorithm = pc.Algorithm
	}
	if pc.Roughness != 0 {
		gc.Roughness = pc.Roughness
	}
	if pc.Octaves != 0 {
		gc.Octaves = pc.Octaves
	}
	if pc.Persistence != 0 {
		gc.Persistence = pc.Persistence
	}
	if pc.Lacunarity != 0 {
		gc.Lacunarity = pc.Lacunarity
	}
	if pc.Scale != 0 {
		gc.Scale = pc.Scale
	}
	gen, err := terrain.FromConfig(gc)
	if err != nil {
		return Recipe{}, fmt.Errorf("preset %s: %w", name, err)
	}

	bo := biome.OptionsFromConfig(cfg)
	r := Recipe{
		Name:      name,
		Generator: gen,
		Size:      gc.Size,
		Seed:      gc.Seed,
		Biome:     &bo,
	}
	if pc.ThermalIters > 0 {
		th := erosion.ThermalFromConfig(cfg)
		th.Iterations = pc.ThermalIters
		r.Thermal = &th
	}
	if pc.HydraulicIters > 0 {
		hyd, err := erosion.HydraulicFromConfig(cfg)
		if err != nil {
			return Recipe{}, fmt.Errorf("preset %s: %w", name, err)
		}
		hyd.Iterations = pc.HydraulicIters
		r.Hydraulic = &hyd
	}
	if pc.CliffSites > 0 {
		cl := cliffs.FromConfig(cfg)
		cl.Sites = pc.CliffSites
		if pc.RidgeHeight != 0 {
			cl.RidgeHeight = pc.RidgeHeight
		}
		r.Cliffs = &cl
	}
	return r, nil
}
