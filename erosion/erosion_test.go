package erosion

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/terrafract/config"
	"github.com/pthm-cable/terrafract/grid"
	"github.com/pthm-cable/terrafract/parallel"
)

func init() {
	config.MustInit("")
}

// bumpy builds a deterministic non-constant field with several peaks.
func bumpy(w, h int) *grid.Field {
	f := grid.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx, fy := float64(x)/float64(w), float64(y)/float64(h)
			f.Set(x, y, math.Sin(7*fx)*math.Cos(5*fy)+0.3*math.Sin(23*fx*fy))
		}
	}
	return f
}

func sum(f *grid.Field) float64 {
	var s float64
	for _, v := range f.Data {
		s += v
	}
	return s
}

func assertNormalized(t *testing.T, f *grid.Field) {
	t.Helper()
	lo, hi := f.MinMax()
	if lo != 0 || hi != 1 {
		t.Errorf("expected [0,1], got [%v, %v]", lo, hi)
	}
}

func TestThermalZeroIterations(t *testing.T) {
	in := bumpy(20, 16)
	out, err := Thermal(in, ThermalParams{Iterations: 0, Talus: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	want := in.Normalized()
	for i := range want.Data {
		if out.Data[i] != want.Data[i] {
			t.Fatalf("cell %d: got %v, want %v", i, out.Data[i], want.Data[i])
		}
	}
	if out == in {
		t.Error("expected a new field, got the input")
	}
}

func TestThermalShapeAndRange(t *testing.T) {
	in := bumpy(24, 18)
	out, err := Thermal(in, ThermalParams{Iterations: 5, Talus: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	if out.W != 24 || out.H != 18 {
		t.Errorf("expected 24x18, got %dx%d", out.W, out.H)
	}
	assertNormalized(t, out)
}

func TestThermalStepConservesMass(t *testing.T) {
	src := bumpy(16, 16).Normalized()
	dst := grid.New(16, 16)
	thermalStep(src, dst, 0.01, parallel.Options{})
	if d := math.Abs(sum(dst) - sum(src)); d > 1e-9 {
		t.Errorf("mass changed by %v", d)
	}
}

func TestThermalPartitionIndependent(t *testing.T) {
	in := bumpy(40, 40)
	serial, err := Thermal(in, ThermalParams{Iterations: 4, Talus: 0.01, Parallel: parallel.Options{Workers: 1}})
	if err != nil {
		t.Fatal(err)
	}
	banded, err := Thermal(in, ThermalParams{Iterations: 4, Talus: 0.01, Parallel: parallel.Options{MinRows: 1, Workers: 7}})
	if err != nil {
		t.Fatal(err)
	}
	for i := range serial.Data {
		if serial.Data[i] != banded.Data[i] {
			t.Fatalf("cell %d differs: %v vs %v", i, serial.Data[i], banded.Data[i])
		}
	}
}

func TestHydraulicShapeAndRange(t *testing.T) {
	for _, scheme := range []Scheme{SchemeInPlace, SchemeBuffered} {
		t.Run(scheme.String(), func(t *testing.T) {
			p := HydraulicParams{Iterations: 5, Rain: 0.01, Solubility: 0.1, Scheme: scheme}
			out, err := Hydraulic(bumpy(24, 20), p)
			if err != nil {
				t.Fatal(err)
			}
			if out.W != 24 || out.H != 20 {
				t.Errorf("expected 24x20, got %dx%d", out.W, out.H)
			}
			assertNormalized(t, out)
		})
	}
}

func TestHydraulicZeroIterations(t *testing.T) {
	in := bumpy(12, 12)
	out, err := Hydraulic(in, HydraulicParams{Iterations: 0, Rain: 0.01, Solubility: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	want := in.Normalized()
	for i := range want.Data {
		if out.Data[i] != want.Data[i] {
			t.Fatalf("cell %d: got %v, want %v", i, out.Data[i], want.Data[i])
		}
	}
}

func TestHydraulicConservation(t *testing.T) {
	const iters, rain = 6, 0.01
	for _, scheme := range []Scheme{SchemeInPlace, SchemeBuffered} {
		t.Run(scheme.String(), func(t *testing.T) {
			in := bumpy(16, 16)
			st, err := RunHydraulic(in, HydraulicParams{Iterations: iters, Rain: rain, Solubility: 0.1, Scheme: scheme})
			if err != nil {
				t.Fatal(err)
			}
			wantWater := float64(iters) * rain * float64(len(in.Data))
			if d := math.Abs(sum(st.Water) - wantWater); d > 1e-9 {
				t.Errorf("water not conserved: got %v, want %v", sum(st.Water), wantWater)
			}
			// Dissolved height moves into sediment.
			wantMass := sum(in.Normalized())
			if d := math.Abs(sum(st.Height) + sum(st.Sediment) - wantMass); d > 1e-9 {
				t.Errorf("height+sediment changed by %v", d)
			}
		})
	}
}

// peakState is a 4x4 state with one unit of water everywhere and a single
// raised interior cell at row 1, col 1.
func peakState() *HydraulicState {
	st := &HydraulicState{
		Height:   grid.New(4, 4),
		Water:    grid.New(4, 4),
		Sediment: grid.New(4, 4),
	}
	for i := range st.Water.Data {
		st.Water.Data[i] = 1
	}
	st.Height.Set(1, 1, 2)
	return st
}

func TestHydraulicInPlaceSeesEarlierFlow(t *testing.T) {
	const sol = 0.5
	st := peakState()
	inPlaceStep(st, sol)

	// The peak drains a quarter of its remaining water into each neighbor in
	// turn: down, up, right, left.
	p0 := 0.25
	p1 := (1 - p0) * 0.25
	p2 := (1 - p0 - p1) * 0.25
	p3 := (1 - p0 - p1 - p2) * 0.25

	// Row 1 col 2 is visited next and now sits above its flat neighbors, so
	// it passes a third of its remaining water down, up, then right.
	w := 1 + p2
	q0 := w / 3
	q1 := (w - q0) / 3
	q2 := (w - q0 - q1) / 3

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"water above peak", st.Water.At(1, 0), 1 + p1},
		{"water left of peak", st.Water.At(0, 1), 1 + p3},
		{"water above second cell", st.Water.At(2, 0), 1 + q1},
		{"water right of second cell", st.Water.At(3, 1), 1 + q2},
		{"sediment above peak", st.Sediment.At(1, 0), sol * p1},
		{"peak height", st.Height.At(1, 1), 2 - sol*(p0+p1+p2+p3)},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-12 {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	// From the iteration-start snapshot the second cell is level with its
	// neighbors and moves nothing.
	buf := peakState()
	newBufferedScratch(4, 4).step(buf, sol, parallel.Options{})
	if got := buf.Water.At(2, 0); got != 1 {
		t.Errorf("buffered: water above second cell = %v, want 1", got)
	}
}

func TestHydraulicFlatFieldUnchanged(t *testing.T) {
	flat := grid.New(10, 10)
	for i := range flat.Data {
		flat.Data[i] = 0.4
	}
	out, err := Hydraulic(flat, HydraulicParams{Iterations: 3, Rain: 0.01, Solubility: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out.Data {
		if v != 0 {
			t.Fatalf("cell %d: expected 0, got %v", i, v)
		}
	}
}

func TestHydraulicFullDeposition(t *testing.T) {
	st, err := RunHydraulic(bumpy(16, 16), HydraulicParams{Iterations: 4, Rain: 0.01, Solubility: 0.1, Deposition: 1})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range st.Sediment.Data {
		if v != 0 {
			t.Fatalf("cell %d: expected all sediment deposited, got %v", i, v)
		}
	}
}

func TestHydraulicBufferedPartitionIndependent(t *testing.T) {
	in := bumpy(48, 48)
	p := HydraulicParams{Iterations: 5, Rain: 0.01, Solubility: 0.1, Scheme: SchemeBuffered}
	p.Parallel = parallel.Options{Workers: 1}
	serial, err := Hydraulic(in, p)
	if err != nil {
		t.Fatal(err)
	}
	p.Parallel = parallel.Options{MinRows: 1, Workers: 5}
	banded, err := Hydraulic(in, p)
	if err != nil {
		t.Fatal(err)
	}
	for i := range serial.Data {
		if serial.Data[i] != banded.Data[i] {
			t.Fatalf("cell %d differs: %v vs %v", i, serial.Data[i], banded.Data[i])
		}
	}
}

func TestRejectsInvalidParams(t *testing.T) {
	f := bumpy(8, 8)
	if _, err := Thermal(f, ThermalParams{Iterations: -1}); !errors.Is(err, grid.ErrInvalidParameter) {
		t.Errorf("thermal: expected ErrInvalidParameter, got %v", err)
	}
	bad := []HydraulicParams{
		{Iterations: -1},
		{Iterations: 1, Rain: -0.1},
		{Iterations: 1, Solubility: -1},
		{Iterations: 1, Deposition: 2},
		{Iterations: 1, Scheme: Scheme(9)},
	}
	for _, p := range bad {
		if _, err := Hydraulic(f, p); !errors.Is(err, grid.ErrInvalidParameter) {
			t.Errorf("hydraulic %+v: expected ErrInvalidParameter, got %v", p, err)
		}
	}
}

func TestParseScheme(t *testing.T) {
	tests := []struct {
		in   string
		want Scheme
	}{
		{"", SchemeInPlace},
		{"in-place", SchemeInPlace},
		{"Buffered", SchemeBuffered},
	}
	for _, tt := range tests {
		got, err := ParseScheme(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseScheme(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseScheme("jacobi"); !errors.Is(err, grid.ErrInvalidParameter) {
		t.Errorf("expected unknown scheme to be rejected, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Cfg()
	th := ThermalFromConfig(cfg)
	if th.Iterations != 10 || th.Talus != 0.01 {
		t.Errorf("unexpected thermal defaults %+v", th)
	}
	hy, err := HydraulicFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if hy.Iterations != 50 || hy.Rain != 0.01 || hy.Solubility != 0.1 || hy.Scheme != SchemeInPlace {
		t.Errorf("unexpected hydraulic defaults %+v", hy)
	}
}

func TestTimelapse(t *testing.T) {
	th := ThermalParams{Iterations: 1, Talus: 0.01}
	hy := HydraulicParams{Iterations: 1, Rain: 0.01, Solubility: 0.1}
	frames, err := Timelapse(bumpy(16, 16), 4, &th, &hy)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(frames))
	}
	for i, fr := range frames {
		if fr.W != 16 || fr.H != 16 {
			t.Errorf("frame %d: wrong shape %dx%d", i, fr.W, fr.H)
		}
	}
	if frames[0] == frames[1] {
		t.Error("frames must be independent copies")
	}
	if _, err := Timelapse(bumpy(4, 4), -1, nil, nil); !errors.Is(err, grid.ErrInvalidParameter) {
		t.Errorf("expected negative steps to be rejected, got %v", err)
	}
}

func BenchmarkThermal(b *testing.B) {
	f := bumpy(257, 257)
	p := ThermalParams{Iterations: 10, Talus: 0.01}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := Thermal(f, p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkHydraulicInPlace(b *testing.B) {
	f := bumpy(257, 257)
	p := HydraulicParams{Iterations: 10, Rain: 0.01, Solubility: 0.1}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := Hydraulic(f, p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkHydraulicBuffered(b *testing.B) {
	f := bumpy(257, 257)
	p := HydraulicParams{Iterations: 10, Rain: 0.01, Solubility: 0.1, Scheme: SchemeBuffered}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := Hydraulic(f, p); err != nil {
			b.Fatal(err)
		}
	}
}
