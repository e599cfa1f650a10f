package terrain

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/terrafract/config"
	"github.com/pthm-cable/terrafract/grid"
)

func init() {
	config.MustInit("")
}

func assertNormalized(t *testing.T, f *grid.Field) {
	t.Helper()
	lo, hi := f.MinMax()
	if lo != 0 || hi != 1 {
		t.Errorf("expected min 0 and max 1, got [%v, %v]", lo, hi)
	}
}

func TestNextSubdivisionSize(t *testing.T) {
	tests := []struct{ in, want int }{
		{2, 2},
		{3, 3},
		{5, 5},
		{6, 9},
		{33, 33},
		{34, 65},
		{200, 257},
		{257, 257},
	}
	for _, tt := range tests {
		if got := nextSubdivisionSize(tt.in); got != tt.want {
			t.Errorf("nextSubdivisionSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDiamondSquareRoundsSize(t *testing.T) {
	res, err := Generate(DiamondSquare{Roughness: 1}, 200, 7)
	if err != nil {
		t.Fatal(err)
	}
	if res.Field.W != 257 || res.Field.H != 257 {
		t.Errorf("expected 257x257, got %dx%d", res.Field.W, res.Field.H)
	}
	if !res.Resized || res.Requested != 200 {
		t.Errorf("expected resize to be reported, got Resized=%v Requested=%d", res.Resized, res.Requested)
	}
	assertNormalized(t, res.Field)
}

func TestDiamondSquareKeepsValidSize(t *testing.T) {
	res, err := Generate(DiamondSquare{Roughness: 0.5}, 33, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Resized || res.Field.W != 33 {
		t.Errorf("33 is a valid size, got %d (resized=%v)", res.Field.W, res.Resized)
	}
	assertNormalized(t, res.Field)
}

func TestDiamondSquareZeroRoughness(t *testing.T) {
	// Only the corners are random; the interior interpolates them.
	res, err := Generate(DiamondSquare{Roughness: 0}, 17, 3)
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := res.Field.MinMax()
	if lo < 0 || hi > 1 {
		t.Errorf("out of range: [%v, %v]", lo, hi)
	}
}

// scripted replays fixed draws in order.
type scripted struct {
	vals []float64
	next int
}

func (s *scripted) Float64() float64 {
	v := s.vals[s.next]
	s.next++
	return v
}

func TestDiamondSquareAmplitudeSchedule(t *testing.T) {
	// Corners, then every first-pass draw at 1 (+0.5 amplitude) and every
	// second-pass draw at 0 (-0.5 amplitude).
	vals := []float64{0.2, 0.4, 0.6, 0.8}
	for i := 0; i < 1+4; i++ {
		vals = append(vals, 1)
	}
	for i := 0; i < 4+12; i++ {
		vals = append(vals, 0)
	}
	src := &scripted{vals: vals}
	const r = 2.0
	f := diamondSquare(5, r, src)

	if src.next != len(vals) {
		t.Fatalf("consumed %d draws, want %d", src.next, len(vals))
	}

	// Corners as drawn: (0,0), (0,4), (4,0), (4,4) in (row, col).
	v00, v04, v40, v44 := 0.2, 0.4, 0.6, 0.8
	first, second := 0.5*r, -0.25*r

	v22 := (v00+v40+v04+v44)*0.25 + first
	v02 := (v22+v00+v04)/3 + first
	v20 := (v00+v40+v22)/3 + first
	v24 := (v04+v44+v22)/3 + first
	v42 := (v22+v40+v44)/3 + first
	v11 := (v00+v20+v02+v22)*0.25 + second
	v01 := (v11+v00+v02)/3 + second

	// At takes (x, y) = (col, row).
	tests := []struct {
		name     string
		row, col int
		want     float64
	}{
		{"corner", 0, 0, v00},
		{"centre", 2, 2, v22},
		{"top edge", 0, 2, v02},
		{"left edge", 2, 0, v20},
		{"right edge", 2, 4, v24},
		{"bottom edge", 4, 2, v42},
		{"second pass centre", 1, 1, v11},
		{"second pass edge", 0, 1, v01},
	}
	for _, tt := range tests {
		if got := f.At(tt.col, tt.row); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s (%d,%d) = %v, want %v", tt.name, tt.row, tt.col, got, tt.want)
		}
	}
}

func TestFBMShapeAndRange(t *testing.T) {
	for _, noise := range []NoiseSource{NoisePerlin, NoiseSimplex, NoiseSmooth} {
		t.Run(noise.String(), func(t *testing.T) {
			p := FBM{Octaves: 3, Persistence: 0.5, Lacunarity: 2, Scale: 10, Noise: noise}
			res, err := Generate(p, 32, 0)
			if err != nil {
				t.Fatal(err)
			}
			if res.Field.W != 32 || res.Field.H != 32 {
				t.Errorf("expected 32x32, got %dx%d", res.Field.W, res.Field.H)
			}
			if res.Resized {
				t.Error("fbm must never resize")
			}
			if res.Noise != noise {
				t.Errorf("expected noise %v reported, got %v", noise, res.Noise)
			}
			assertNormalized(t, res.Field)
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cases := []Params{
		DiamondSquare{Roughness: 1.2},
		FBM{Octaves: 4, Persistence: 0.6, Lacunarity: 2.5, Scale: 20, Noise: NoisePerlin},
		FBM{Octaves: 4, Persistence: 0.6, Lacunarity: 2.5, Scale: 20, Noise: NoiseSimplex},
		FBM{Octaves: 1, Persistence: 0.5, Lacunarity: 2, Scale: 20, Noise: NoiseSmooth},
	}
	for _, p := range cases {
		a, err := Generate(p, 65, 99)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Generate(p, 65, 99)
		if err != nil {
			t.Fatal(err)
		}
		for i := range a.Field.Data {
			if a.Field.Data[i] != b.Field.Data[i] {
				t.Fatalf("%v: cell %d differs between runs: %v vs %v", p.Kind(), i, a.Field.Data[i], b.Field.Data[i])
			}
		}
	}
}

func TestGenerateSeedsDiffer(t *testing.T) {
	a, _ := Generate(DiamondSquare{Roughness: 1}, 17, 1)
	b, _ := Generate(DiamondSquare{Roughness: 1}, 17, 2)
	same := true
	for i := range a.Field.Data {
		if a.Field.Data[i] != b.Field.Data[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds gave identical fields")
	}
}

func TestGenerateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		size int
	}{
		{"nil params", nil, 33},
		{"negative roughness", DiamondSquare{Roughness: -1}, 33},
		{"zero octaves", FBM{Octaves: 0, Persistence: 0.5, Lacunarity: 2, Scale: 10}, 32},
		{"zero scale", FBM{Octaves: 2, Persistence: 0.5, Lacunarity: 2, Scale: 0}, 32},
		{"tiny size", DiamondSquare{Roughness: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Generate(tt.p, tt.size, 0); !errors.Is(err, grid.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"diamond-square", "FBM", "fractal-brownian-motion"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q): %v", s, err)
		}
	}
	if _, err := ParseKind("midpoint"); !errors.Is(err, grid.ErrInvalidParameter) {
		t.Errorf("expected unknown kind to be rejected, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	p, err := FromConfig(config.Cfg().Generator)
	if err != nil {
		t.Fatal(err)
	}
	ds, ok := p.(DiamondSquare)
	if !ok {
		t.Fatalf("expected DiamondSquare from defaults, got %T", p)
	}
	if ds.Roughness != 1.0 {
		t.Errorf("expected roughness 1.0, got %v", ds.Roughness)
	}

	gc := config.Cfg().Generator
	gc.Noise = "simplex"
	p, err = NewParams("fbm", gc)
	if err != nil {
		t.Fatal(err)
	}
	if f := p.(FBM); f.Noise != NoiseSimplex || f.Octaves != 6 {
		t.Errorf("unexpected fbm params %+v", f)
	}

	gc.Noise = "worley"
	if _, err := NewParams("fbm", gc); !errors.Is(err, grid.ErrInvalidParameter) {
		t.Errorf("expected unknown noise to be rejected, got %v", err)
	}
}
