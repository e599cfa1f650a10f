// Package erosion ages height fields with thermal (talus slumping) and
// hydraulic (rain, runoff and dissolution) simulations.
package erosion

import (
	"fmt"
	"math"
	"strings"

	"github.com/pthm-cable/terrafract/config"
	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/parallel"
)

// ThermalParams controls thermal erosion.
type ThermalParams struct {
	Iterations int
	Talus      float64 // height difference above which material slides

	Parallel parallel.Options
}

// Validate rejects negative counts and thresholds.
func (p ThermalParams) Validate() error {
	if p.Iterations < 0 {
		return fmt.Errorf("%w: thermal iterations %d", grid.ErrInvalidParameter, p.Iterations)
	}
	if p.Talus < 0 || math.IsNaN(p.Talus) {
		return fmt.Errorf("%w: talus %v", grid.ErrInvalidParameter, p.Talus)
	}
	return nil
}

// Scheme selects the hydraulic update order.
type Scheme uint8

const (
	// SchemeInPlace scans cells in row-major order and lets each cell see
	// water already moved by cells before it. Serial.
	SchemeInPlace Scheme = iota
	// SchemeBuffered moves all water simultaneously from an iteration-start
	// snapshot. Row-parallel and independent of scan order.
	SchemeBuffered
)

func (s Scheme) String() string {
	switch s {
	case SchemeInPlace:
		return "in-place"
	case SchemeBuffered:
		return "buffered"
	}
	return fmt.Sprintf("Scheme(%d)", uint8(s))
}

// ParseScheme maps a scheme name to its Scheme. Empty means in-place.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "in-place", "inplace":
		return SchemeInPlace, nil
	case "buffered", "simultaneous":
		return SchemeBuffered, nil
	}
	return 0, fmt.Errorf("%w: unknown hydraulic scheme %q", grid.ErrInvalidParameter, s)
}

// HydraulicParams controls hydraulic erosion.
type HydraulicParams struct {
	Iterations int
	Rain       float64 // water added to every cell per iteration
	Solubility float64 // height dissolved per unit of flow
	Deposition float64 // fraction of carried sediment settled per iteration, in [0,1]
	Scheme     Scheme

	Parallel parallel.Options // used by SchemeBuffered only
}

// Validate rejects negative amounts and unknown schemes.
func (p HydraulicParams) Validate() error {
	switch {
	case p.Iterations < 0:
		return fmt.Errorf("%w: hydraulic iterations %d", grid.ErrInvalidParameter, p.Iterations)
	case p.Rain < 0 || math.IsNaN(p.Rain):
		return fmt.Errorf("%w: rain %v", grid.ErrInvalidParameter, p.Rain)
	case p.Solubility < 0 || math.IsNaN(p.Solubility):
		return fmt.Errorf("%w: solubility %v", grid.ErrInvalidParameter, p.Solubility)
	case !(p.Deposition >= 0 && p.Deposition <= 1):
		return fmt.Errorf("%w: deposition %v must be in [0,1]", grid.ErrInvalidParameter, p.Deposition)
	case p.Scheme > SchemeBuffered:
		return fmt.Errorf("%w: scheme %v", grid.ErrInvalidParameter, p.Scheme)
	}
	return nil
}

func parallelOptions(pc config.ParallelConfig) parallel.Options {
	return parallel.Options{MinRows: pc.MinRows, Workers: pc.Workers}
}

// ThermalFromConfig returns the configured thermal defaults.
func ThermalFromConfig(cfg *config.Config) ThermalParams {
	return ThermalParams{
		Iterations: cfg.Thermal.Iterations,
		Talus:      cfg.Thermal.Talus,
		Parallel:   parallelOptions(cfg.Parallel),
	}
}

// HydraulicFromConfig returns the configured hydraulic defaults.
func HydraulicFromConfig(cfg *config.Config) (HydraulicParams, error) {
	scheme, err := ParseScheme(cfg.Hydraulic.Scheme)
	if err != nil {
		return HydraulicParams{}, err
	}
	return HydraulicParams{
		Iterations: cfg.Hydraulic.Iterations,
		Rain:       cfg.Hydraulic.Rain,
		Solubility: cfg.Hydraulic.Solubility,
		Deposition: cfg.Hydraulic.Deposition,
		Scheme:     scheme,
		Parallel:   parallelOptions(cfg.Parallel),
	}, nil
}

// neighbors are the four orthogonal offsets in the order they are visited.
var neighbors = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// interior reports whether (y, x) is strictly inside an h×w grid.
func interior(y, x, h, w int) bool {
	return y > 0 && y < h-1 && x > 0 && x < w-1
}
