package cliffs

import (
	"math"

	"github.com/fogleman/delaunay"
)

type point struct{ x, y float64 }

// triangle indexes three sites and caches its circumcircle. Degenerate
// triangles have ok == false.
type triangle struct {
	a, b, c int
	cc      point
	r2      float64
	ok      bool
}

func newTriangle(pts []point, a, b, c int) triangle {
	t := triangle{a: a, b: b, c: c}
	t.cc, t.ok = circumcenter(pts[a], pts[b], pts[c])
	if t.ok {
		dx, dy := pts[a].x-t.cc.x, pts[a].y-t.cc.y
		t.r2 = dx*dx + dy*dy
	} else {
		t.r2 = math.Inf(1)
	}
	return t
}

// circumcenter returns the circumcenter of triangle (a,b,c).
// ok=false if the triangle is degenerate (area near zero).
func circumcenter(a, b, c point) (point, bool) {
	d := 2 * (a.x*(b.y-c.y) + b.x*(c.y-a.y) + c.x*(a.y-b.y))
	const eps = 1e-12
	if math.Abs(d) < eps {
		return point{}, false
	}
	a2 := a.x*a.x + a.y*a.y
	b2 := b.x*b.x + b.y*b.y
	c2 := c.x*c.x + c.y*c.y
	ux := (a2*(b.y-c.y) + b2*(c.y-a.y) + c2*(a.y-b.y)) / d
	uy := (a2*(c.x-b.x) + b2*(a.x-c.x) + c2*(b.x-a.x)) / d
	return point{ux, uy}, true
}

// triangulate returns the Delaunay triangles of sites. The result is empty
// for fewer than three sites or when every site is collinear.
func triangulate(sites []point) []triangle {
	if len(sites) < 3 {
		return nil
	}
	pts := make([]delaunay.Point, len(sites))
	for i, p := range sites {
		pts[i] = delaunay.Point{X: p.x, Y: p.y}
	}
	tri, err := delaunay.Triangulate(pts)
	if err != nil {
		// Only degenerate input fails.
		return nil
	}
	out := make([]triangle, 0, len(tri.Triangles)/3)
	for i := 0; i+2 < len(tri.Triangles); i += 3 {
		out = append(out, newTriangle(sites, tri.Triangles[i], tri.Triangles[i+1], tri.Triangles[i+2]))
	}
	return out
}

// voronoiVertices returns the circumcenters of the non-degenerate Delaunay
// triangles of sites, which are the finite vertices of their Voronoi diagram.
func voronoiVertices(sites []point) []point {
	tris := triangulate(sites)
	verts := make([]point, 0, len(tris))
	for _, t := range tris {
		if t.ok {
			verts = append(verts, t.cc)
		}
	}
	return verts
}
