// Package cliffs raises ridges along the vertices of a random Voronoi diagram.
package cliffs

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/pthm-cable/terrafract/config"
	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/parallel"
	"github.com/pthm-cable/terrafract/rng"
)

// siteStream keeps cliff sites independent of the generator's draws when
// both use the same seed.
const siteStream = 0xc11ff5

// Params controls cliff synthesis.
type Params struct {
	Sites       int     // number of random Voronoi sites
	RidgeHeight float64 // peak height added at a Voronoi vertex, before renormalizing

	Parallel parallel.Options
}

// Validate rejects negative site counts and non-finite heights.
func (p Params) Validate() error {
	if p.Sites < 0 {
		return fmt.Errorf("%w: sites %d", grid.ErrInvalidParameter, p.Sites)
	}
	if math.IsNaN(p.RidgeHeight) || math.IsInf(p.RidgeHeight, 0) {
		return fmt.Errorf("%w: ridge height %v", grid.ErrInvalidParameter, p.RidgeHeight)
	}
	return nil
}

// FromConfig returns the configured cliff defaults.
func FromConfig(cfg *config.Config) Params {
	return Params{
		Sites:       cfg.Cliffs.Sites,
		RidgeHeight: cfg.Cliffs.RidgeHeight,
		Parallel:    parallel.Options{MinRows: cfg.Parallel.MinRows, Workers: cfg.Parallel.Workers},
	}
}

// Apply scatters Sites points uniformly over the field, finds the vertices of
// their Voronoi diagram and adds RidgeHeight*exp(-d²/(2w²)) to every cell,
// where d is the distance to the nearest vertex and w = H/Sites. The result is
// renormalized.
//
// Fewer than three sites, or sites with no finite Voronoi vertex (all
// collinear), leave the terrain unridged; a normalized copy is returned.
func Apply(f *grid.Field, p Params, seed int64) (*grid.Field, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Sites < 3 {
		slog.Debug("too few cliff sites, skipping ridges", "sites", p.Sites)
		return f.Normalized(), nil
	}

	// Points are (row, col) like the grid index.
	src := rng.Derive(seed, siteStream)
	sites := make([]point, p.Sites)
	for i := range sites {
		sites[i].x = src.Float64() * float64(f.H)
		sites[i].y = src.Float64() * float64(f.W)
	}
	verts := voronoiVertices(sites)
	if len(verts) == 0 {
		slog.Warn("no finite voronoi vertex, skipping ridges", "sites", p.Sites)
		return f.Normalized(), nil
	}

	pts := make(kdtree.Points, len(verts))
	for i, v := range verts {
		pts[i] = kdtree.Point{v.x, v.y}
	}
	tree := kdtree.New(pts, false)

	width := float64(f.H) / float64(p.Sites)
	denom := 2 * width * width
	out := grid.New(f.W, f.H)
	parallel.Rows(f.H, p.Parallel, func(y0, y1 int) {
		q := make(kdtree.Point, 2)
		for y := y0; y < y1; y++ {
			for x := 0; x < f.W; x++ {
				q[0], q[1] = float64(y), float64(x)
				_, d2 := tree.Nearest(q)
				i := y*f.W + x
				out.Data[i] = f.Data[i] + p.RidgeHeight*math.Exp(-d2/denom)
			}
		}
	})

	slog.Debug("cliffs applied", "sites", p.Sites, "vertices", len(verts))
	out.Normalize()
	return out, nil
}
