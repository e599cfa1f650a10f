// Package rivers extracts river networks from a height field by D8 flow
// accumulation.
package rivers

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/pthm-cable/terrafract/config"
	"github.com/pthm-cable/terrafract/grid"
)

// d8 lists the eight neighbor offsets as (row, col); ties between equally low
// neighbors go to the first in this order.
var d8 = [8][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// Params controls river extraction.
type Params struct {
	Threshold    float64 // cells with accumulation above this are river
	SmoothPasses int     // Chaikin corner-cutting passes
}

// Validate rejects negative values.
func (p Params) Validate() error {
	if p.Threshold < 0 || math.IsNaN(p.Threshold) {
		return fmt.Errorf("%w: river threshold %v", grid.ErrInvalidParameter, p.Threshold)
	}
	if p.SmoothPasses < 0 {
		return fmt.Errorf("%w: smooth passes %d", grid.ErrInvalidParameter, p.SmoothPasses)
	}
	return nil
}

// FromConfig returns the configured river defaults.
func FromConfig(cfg *config.Config) Params {
	return Params{Threshold: cfg.Rivers.Threshold, SmoothPasses: cfg.Rivers.SmoothPasses}
}

// downstream returns the flat index of the lowest neighbor strictly below
// cell i, or -1 for a pit.
func downstream(f *grid.Field, i int) int {
	y, x := i/f.W, i%f.W
	lowest, next := f.Data[i], -1
	for _, d := range d8 {
		ny, nx := y+d[0], x+d[1]
		if !f.In(nx, ny) {
			continue
		}
		j := ny*f.W + nx
		if f.Data[j] < lowest {
			lowest, next = f.Data[j], j
		}
	}
	return next
}

// Accumulate returns, for every cell, the number of cells whose steepest
// descent path passes through it (itself included). Cells are visited from
// highest to lowest so each passes on its full upstream total.
func Accumulate(f *grid.Field) *grid.Field {
	acc := grid.New(f.W, f.H)
	order := make([]int, len(f.Data))
	for i := range order {
		acc.Data[i] = 1
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(f.Data[b], f.Data[a])
	})
	for _, i := range order {
		if j := downstream(f, i); j >= 0 {
			acc.Data[j] += acc.Data[i]
		}
	}
	return acc
}

// Point is a position in cell units: X is the column, Y the row.
type Point struct{ X, Y float64 }

// Polyline is an ordered river course, upstream first.
type Polyline []Point

// Extract traces river courses through cells whose accumulation exceeds
// threshold. Starting from each unvisited river cell in row-major order, it
// follows steepest descent until the flow leaves the river mask or reaches a
// cell already traced, which is kept as the junction point. Single-cell
// courses are dropped.
func Extract(f, acc *grid.Field, threshold float64) ([]Polyline, error) {
	if err := grid.CheckShape("accumulation", f, acc); err != nil {
		return nil, err
	}
	river := func(i int) bool { return acc.Data[i] > threshold }
	visited := make([]bool, len(f.Data))
	at := func(i int) Point { return Point{X: float64(i % f.W), Y: float64(i / f.W)} }

	var out []Polyline
	for start := range f.Data {
		if !river(start) || visited[start] {
			continue
		}
		var line Polyline
		for i := start; ; {
			line = append(line, at(i))
			visited[i] = true
			next := downstream(f, i)
			if next < 0 || !river(next) {
				break
			}
			if visited[next] {
				line = append(line, at(next))
				break
			}
			i = next
		}
		if len(line) > 1 {
			out = append(out, line)
		}
	}
	return out, nil
}

// Chaikin cuts every corner of the line at 1/4 and 3/4 along each segment,
// passes times. Endpoints are kept so smoothed tributaries still meet their
// junctions.
func Chaikin(line Polyline, passes int) Polyline {
	for p := 0; p < passes && len(line) > 1; p++ {
		next := make(Polyline, 0, 2*len(line))
		next = append(next, line[0])
		for i := 0; i+1 < len(line); i++ {
			a, b := line[i], line[i+1]
			next = append(next,
				Point{0.75*a.X + 0.25*b.X, 0.75*a.Y + 0.25*b.Y},
				Point{0.25*a.X + 0.75*b.X, 0.25*a.Y + 0.75*b.Y},
			)
		}
		next = append(next, line[len(line)-1])
		line = next
	}
	return line
}

// Network accumulates flow over f, extracts the river courses and smooths
// them.
func Network(f *grid.Field, p Params) ([]Polyline, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	acc := Accumulate(f)
	lines, err := Extract(f, acc, p.Threshold)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i] = Chaikin(lines[i], p.SmoothPasses)
	}
	slog.Debug("river network extracted", "rivers", len(lines), "threshold", p.Threshold)
	return lines, nil
}
