package cliffs

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/terrafract/config"
	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/parallel"
	"github.com/pthm-cable/terrafract/rng"
)

func ramp(w, h int) *grid.Field {
	f := grid.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, float64(x+y))
		}
	}
	return f
}

func TestCircumcenter(t *testing.T) {
	cc, ok := circumcenter(point{0, 0}, point{2, 0}, point{0, 2})
	if !ok {
		t.Fatal("right triangle reported degenerate")
	}
	if math.Abs(cc.x-1) > 1e-12 || math.Abs(cc.y-1) > 1e-12 {
		t.Errorf("expected (1,1), got (%v,%v)", cc.x, cc.y)
	}
	if _, ok := circumcenter(point{0, 0}, point{1, 1}, point{2, 2}); ok {
		t.Error("collinear points must be degenerate")
	}
}

func TestTriangulateSquare(t *testing.T) {
	// Four corners of a slightly skewed quad triangulate into two triangles.
	tris := triangulate([]point{{0, 0}, {10, 0}, {10, 10}, {0, 10.5}})
	if len(tris) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(tris))
	}
}

// inCircumcircle reports whether p lies strictly inside the circumcircle of
// t, with a relative tolerance for points on the circle.
func inCircumcircle(t triangle, p point) bool {
	dx, dy := p.x-t.cc.x, p.y-t.cc.y
	return dx*dx+dy*dy < t.r2*(1-1e-9)
}

func uses(t triangle, i int) bool { return t.a == i || t.b == i || t.c == i }

func TestTriangulateDelaunayProperty(t *testing.T) {
	pts := []point{{1, 1}, {8, 2}, {4, 7}, {9, 9}, {2, 9}, {5, 4}, {7, 6}}
	tris := triangulate(pts)
	if len(tris) == 0 {
		t.Fatal("no triangles")
	}
	for _, tr := range tris {
		if !tr.ok {
			t.Errorf("degenerate triangle %v", tr)
			continue
		}
		for i, p := range pts {
			if !uses(tr, i) && inCircumcircle(tr, p) {
				t.Errorf("point %d lies inside circumcircle of %v", i, tr)
			}
		}
	}
}

// bruteForceDelaunay counts the triples of pts whose circumcircle holds no
// other point.
func bruteForceDelaunay(pts []point) int {
	n := 0
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			for k := j + 1; k < len(pts); k++ {
				tr := newTriangle(pts, i, j, k)
				if !tr.ok {
					continue
				}
				empty := true
				for m, p := range pts {
					if m != i && m != j && m != k && inCircumcircle(tr, p) {
						empty = false
						break
					}
				}
				if empty {
					n++
				}
			}
		}
	}
	return n
}

func TestTriangulateKeepsHullTriangles(t *testing.T) {
	const extent = 257
	for seed := int64(0); seed < 200; seed++ {
		src := rng.Derive(seed, siteStream)
		sites := make([]point, 10)
		for i := range sites {
			sites[i] = point{src.Float64() * extent, src.Float64() * extent}
		}
		got, want := len(triangulate(sites)), bruteForceDelaunay(sites)
		if got != want {
			t.Errorf("seed %d: %d triangles, want %d", seed, got, want)
		}
	}
}

func TestVoronoiVerticesCollinear(t *testing.T) {
	if v := voronoiVertices([]point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}); len(v) != 0 {
		t.Errorf("collinear sites should give no finite vertex, got %d", len(v))
	}
}

func TestApplyShapeAndRange(t *testing.T) {
	in := ramp(40, 32)
	out, err := Apply(in, Params{Sites: 10, RidgeHeight: 0.5}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !out.SameShape(in) {
		t.Fatalf("shape changed to %dx%d", out.W, out.H)
	}
	lo, hi := out.MinMax()
	if lo != 0 || hi != 1 {
		t.Errorf("expected [0,1], got [%v, %v]", lo, hi)
	}
}

func TestApplyFewSitesIsNormalizedCopy(t *testing.T) {
	in := ramp(16, 16)
	for _, sites := range []int{0, 1, 2} {
		out, err := Apply(in, Params{Sites: sites, RidgeHeight: 0.5}, 3)
		if err != nil {
			t.Fatal(err)
		}
		want := in.Normalized()
		for i := range want.Data {
			if out.Data[i] != want.Data[i] {
				t.Fatalf("sites=%d: cell %d changed", sites, i)
			}
		}
	}
}

func TestApplyDeterministic(t *testing.T) {
	in := ramp(64, 64)
	p := Params{Sites: 12, RidgeHeight: 0.8}
	a, err := Apply(in, p, 42)
	if err != nil {
		t.Fatal(err)
	}
	p.Parallel = parallel.Options{MinRows: 1, Workers: 4}
	b, err := Apply(in, p, 42)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("cell %d differs between runs", i)
		}
	}
}

func TestApplyRejectsInvalid(t *testing.T) {
	if _, err := Apply(ramp(8, 8), Params{Sites: -1}, 0); !errors.Is(err, grid.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := Apply(ramp(8, 8), Params{Sites: 5, RidgeHeight: math.NaN()}, 0); !errors.Is(err, grid.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	if err := config.Init(""); err != nil {
		t.Fatal(err)
	}
	p := FromConfig(config.Cfg())
	if p.Sites != 10 || p.RidgeHeight != 0.5 {
		t.Errorf("unexpected defaults %+v", p)
	}
}
