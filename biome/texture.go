package biome

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/terrafract/config"
	"github.com/pthm-cable/terrafract/grid"
)

// RGB is a color with channels in [0,1].
type RGB [3]float64

// Palette holds one color per biome.
type Palette [numBiomes]RGB

// DefaultPalette returns the built-in biome colors.
func DefaultPalette() Palette {
	c := func(r, g, b int) RGB { return RGB{float64(r) / 255, float64(g) / 255, float64(b) / 255} }
	return Palette{
		Water:  c(70, 130, 180),
		Sand:   c(194, 178, 128),
		Grass:  c(34, 139, 34),
		Forest: c(0, 100, 0),
		Rock:   c(128, 128, 128),
		Snow:   c(255, 250, 250),
	}
}

// PaletteFromConfig overlays the configured colors on the defaults. Unknown
// names are ignored.
func PaletteFromConfig(cfg *config.Config) Palette {
	p := DefaultPalette()
	for b := Biome(0); b < numBiomes; b++ {
		if rgb, ok := cfg.Derived.Colors[b.String()]; ok {
			p[b] = RGB(rgb)
		}
	}
	return p
}

// Texture is an RGB image with channels in [0,1], row-major, three values
// per cell.
type Texture struct {
	W, H int
	Pix  []float64
}

func newTexture(w, h int) *Texture {
	return &Texture{W: w, H: h, Pix: make([]float64, 3*w*h)}
}

// At returns the color at column x, row y.
func (t *Texture) At(x, y int) RGB {
	i := 3 * (y*t.W + x)
	return RGB{t.Pix[i], t.Pix[i+1], t.Pix[i+2]}
}

func (t *Texture) set(i int, c RGB) {
	copy(t.Pix[3*i:3*i+3], c[:])
}

// channel copies one color channel out as a field.
func (t *Texture) channel(c int) *grid.Field {
	f := grid.New(t.W, t.H)
	for i := range f.Data {
		f.Data[i] = t.Pix[3*i+c]
	}
	return f
}

const (
	shadeBase   = 0.7
	shadeHeight = 0.3
	edgeKeep    = 0.7 // weight of the sharp color on biome boundaries
	edgeSigma   = 0.3
)

// RenderTexture colors a classified field.
//
// Sand within coastalWidth cells of water fades toward the water color with
// distance. Every cell is then shaded by 0.7+0.3*z and clipped to [0,1].
// Cells whose biome differs from any orthogonal neighbor are blended 30%
// toward a lightly blurred copy to soften the boundary.
func RenderTexture(f *grid.Field, m *Map, coastalWidth float64, pal Palette) (*Texture, error) {
	if m == nil || m.W != f.W || m.H != f.H {
		mw, mh := 0, 0
		if m != nil {
			mw, mh = m.W, m.H
		}
		return nil, fmt.Errorf("%w: biome map is %dx%d, height field is %dx%d",
			grid.ErrShapeMismatch, mw, mh, f.W, f.H)
	}
	if len(m.Cells) != m.W*m.H {
		return nil, fmt.Errorf("%w: biome map has %d cells, want %d",
			grid.ErrShapeMismatch, len(m.Cells), m.W*m.H)
	}
	for i, b := range m.Cells {
		if b >= numBiomes {
			return nil, fmt.Errorf("%w: cell %d has unknown biome %d", grid.ErrInvalidParameter, i, b)
		}
	}
	if coastalWidth < 0 || math.IsNaN(coastalWidth) {
		return nil, fmt.Errorf("%w: coastal width %v", grid.ErrInvalidParameter, coastalWidth)
	}
	w, h := f.W, f.H
	tex := newTexture(w, h)
	for i, b := range m.Cells {
		tex.set(i, pal[b])
	}

	if coastalWidth > 0 {
		blendCoast(tex, m, coastalWidth, pal)
	}

	for i, z := range f.Data {
		shade := shadeBase + shadeHeight*z
		for c := 0; c < 3; c++ {
			tex.Pix[3*i+c] = clamp01(tex.Pix[3*i+c] * shade)
		}
	}

	softenEdges(tex, m)
	return tex, nil
}

// blendCoast mixes sand toward water by distance to the nearest water cell.
func blendCoast(tex *Texture, m *Map, width float64, pal Palette) {
	water := make([]bool, len(m.Cells))
	for i, b := range m.Cells {
		water[i] = b == Water
	}
	dist := grid.DistanceTransform(water, m.W, m.H)
	sand, sea := pal[Sand], pal[Water]
	for i, b := range m.Cells {
		if b != Sand || dist.Data[i] > width {
			continue
		}
		t := clamp01(dist.Data[i] / width)
		var c RGB
		for k := range c {
			c[k] = t*sand[k] + (1-t)*sea[k]
		}
		tex.set(i, c)
	}
}

// softenEdges blends boundary cells toward a blurred texture. Neighbors
// outside the grid count as the cell itself.
func softenEdges(tex *Texture, m *Map) {
	var blurred [3]*grid.Field
	for c := range blurred {
		blurred[c] = grid.GaussianBlur(tex.channel(c), edgeSigma)
	}
	w, h := m.W, m.H
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b := m.At(x, y)
			edge := (y > 0 && m.At(x, y-1) != b) ||
				(y < h-1 && m.At(x, y+1) != b) ||
				(x > 0 && m.At(x-1, y) != b) ||
				(x < w-1 && m.At(x+1, y) != b)
			if !edge {
				continue
			}
			i := y*w + x
			for c := 0; c < 3; c++ {
				tex.Pix[3*i+c] = edgeKeep*tex.Pix[3*i+c] + (1-edgeKeep)*blurred[c].Data[i]
			}
		}
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Options bundles everything Synthesize needs.
type Options struct {
	Thresholds     Thresholds
	SmoothingSigma float64 // wetness blur
	CoastalWidth   float64
	Palette        Palette
}

// DefaultOptions returns the built-in settings.
func DefaultOptions() Options {
	return Options{
		Thresholds:     DefaultThresholds(),
		SmoothingSigma: 3,
		CoastalWidth:   2,
		Palette:        DefaultPalette(),
	}
}

// OptionsFromConfig reads Options from the biome config section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Thresholds:     ThresholdsFromConfig(cfg),
		SmoothingSigma: cfg.Biome.SmoothingSigma,
		CoastalWidth:   cfg.Biome.CoastalWidth,
		Palette:        PaletteFromConfig(cfg),
	}
}

// Synthesize classifies f and renders its texture in one call.
func Synthesize(f *grid.Field, opts Options) (*Texture, *Map, error) {
	m, err := Classify(f, opts.Thresholds, opts.SmoothingSigma)
	if err != nil {
		return nil, nil, fmt.Errorf("classifying biomes: %w", err)
	}
	tex, err := RenderTexture(f, m, opts.CoastalWidth, opts.Palette)
	if err != nil {
		return nil, nil, fmt.Errorf("rendering texture: %w", err)
	}
	counts := m.Counts()
	slog.Debug("biomes synthesized",
		"water", counts[Water],
		"sand", counts[Sand],
		"grass", counts[Grass],
		"forest", counts[Forest],
		"rock", counts[Rock],
		"snow", counts[Snow],
	)
	return tex, m, nil
}
