package grid

import "math"

// gaussianKernel returns normalized weights for offsets -r..r, truncated at
// four standard deviations.
func gaussianKernel(sigma float64) []float64 {
	r := int(4*sigma + 0.5)
	k := make([]float64, 2*r+1)
	var sum float64
	for i := -r; i <= r; i++ {
		w := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		k[i+r] = w
		sum += w
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// reflect maps an out-of-range index back into [0,n) by mirroring about the
// edge with the edge sample repeated (d c b a | a b c d | d c b a).
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i - 1
	}
	return i
}

// GaussianBlur returns a separably smoothed copy of f. sigma <= 0 returns a copy.
func GaussianBlur(f *Field, sigma float64) *Field {
	if sigma <= 0 {
		return f.Copy()
	}
	k := gaussianKernel(sigma)
	r := len(k) / 2

	tmp := New(f.W, f.H)
	for y := 0; y < f.H; y++ {
		row := f.Data[y*f.W : (y+1)*f.W]
		for x := 0; x < f.W; x++ {
			var acc float64
			for i := -r; i <= r; i++ {
				acc += k[i+r] * row[reflect(x+i, f.W)]
			}
			tmp.Data[y*f.W+x] = acc
		}
	}

	out := New(f.W, f.H)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			var acc float64
			for i := -r; i <= r; i++ {
				acc += k[i+r] * tmp.Data[reflect(y+i, f.H)*f.W+x]
			}
			out.Data[y*f.W+x] = acc
		}
	}
	return out
}

// Gradient returns the finite-difference derivatives along y and x: central
// differences inside, one-sided differences at the edges. An axis of length
// one has zero derivative.
func Gradient(f *Field) (dy, dx *Field) {
	dy, dx = New(f.W, f.H), New(f.W, f.H)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			i := y*f.W + x
			dx.Data[i] = diff(f, x, y, 1, 0)
			dy.Data[i] = diff(f, x, y, 0, 1)
		}
	}
	return dy, dx
}

func diff(f *Field, x, y, sx, sy int) float64 {
	n, p := f.W, x
	if sy != 0 {
		n, p = f.H, y
	}
	switch {
	case n < 2:
		return 0
	case p == 0:
		return f.At(x+sx, y+sy) - f.At(x, y)
	case p == n-1:
		return f.At(x, y) - f.At(x-sx, y-sy)
	default:
		return (f.At(x+sx, y+sy) - f.At(x-sx, y-sy)) / 2
	}
}

// DistanceTransform returns, for every cell, the exact Euclidean distance to
// the nearest cell where mask is true. Cells in the mask get 0. When the mask
// has no true cell every distance is +Inf.
func DistanceTransform(mask []bool, w, h int) *Field {
	out := New(w, h)
	inf := math.Inf(1)
	found := false
	for i, m := range mask {
		if m {
			out.Data[i] = 0
			found = true
		} else {
			out.Data[i] = inf
		}
	}
	if !found {
		return out
	}

	n := w
	if h > n {
		n = h
	}
	col := make([]float64, n)
	res := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = out.Data[y*w+x]
		}
		sqdt1D(col[:h], res[:h], v, z)
		for y := 0; y < h; y++ {
			out.Data[y*w+x] = res[y]
		}
	}
	for y := 0; y < h; y++ {
		row := out.Data[y*w : (y+1)*w]
		copy(col, row)
		sqdt1D(col[:w], res[:w], v, z)
		copy(row, res[:w])
	}
	for i, d := range out.Data {
		out.Data[i] = math.Sqrt(d)
	}
	return out
}

// sqdt1D is the lower-envelope-of-parabolas squared distance transform
// (Felzenszwalb & Huttenlocher). Infinite samples never enter the envelope.
func sqdt1D(f, d []float64, v []int, z []float64) {
	n := len(f)
	k := -1
	for q := 0; q < n; q++ {
		if math.IsInf(f[q], 1) {
			continue
		}
		for k >= 0 {
			p := v[k]
			s := ((f[q] + float64(q*q)) - (f[p] + float64(p*p))) / float64(2*(q-p))
			if s > z[k] {
				k++
				v[k] = q
				z[k] = s
				z[k+1] = math.Inf(1)
				break
			}
			k--
		}
		if k < 0 {
			k = 0
			v[0] = q
			z[0] = math.Inf(-1)
			z[1] = math.Inf(1)
		}
	}
	if k < 0 {
		for q := range d {
			d[q] = math.Inf(1)
		}
		return
	}
	j := 0
	for q := 0; q < n; q++ {
		for z[j+1] < float64(q) {
			j++
		}
		dq := float64(q - v[j])
		d[q] = dq*dq + f[v[j]]
	}
}
