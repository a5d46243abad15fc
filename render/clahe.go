package render

import (
	"fmt"
	"math"
	"sort"
)

// Contrast limited adaptive histogram equalization constants.
const (
	claheGrid      = 8 // tiles along each axis
	claheBins      = 256
	claheClipLimit = 0.03 // fraction of a tile's pixels allowed per bin
)

// enhance equalizes r in place. Color rasters are equalized on their value
// channel, every channel being scaled by the same ratio so hue is kept.
func enhance(r *raster) error {
	switch {
	case r.dims() == 2:
		r.pix = equalize(r.pix, r.shape[0], r.shape[1])
	case r.channels() == 1:
		r.pix = equalize(r.pix, r.shape[0], r.shape[1])
	case r.channels() == 3:
		equalizeColor(r)
	default:
		return fmt.Errorf("%w: cannot equalize shape %v", ErrUnsupportedPixelShape, r.shape)
	}
	return nil
}

func equalizeColor(r *raster) {
	n := r.shape[0] * r.shape[1]
	value := make([]uint8, n)
	for i := 0; i < n; i++ {
		p := r.pix[i*3 : i*3+3]
		value[i] = max(p[0], p[1], p[2])
	}
	eq := equalize(value, r.shape[0], r.shape[1])
	for i := 0; i < n; i++ {
		p := r.pix[i*3 : i*3+3]
		if value[i] == 0 {
			p[0], p[1], p[2] = eq[i], eq[i], eq[i]
			continue
		}
		ratio := float64(eq[i]) / float64(value[i])
		for c := range p {
			p[c] = toByte(float64(p[c]) * ratio)
		}
	}
}

// equalize returns the CLAHE mapping of a rows x cols plane. Each tile of
// the grid gets a clipped histogram mapping and every pixel blends the
// mappings of its four nearest tile centers.
func equalize(pix []uint8, rows, cols int) []uint8 {
	ty := tileBounds(rows)
	tx := tileBounds(cols)
	cy := tileCenters(ty)
	cx := tileCenters(tx)

	luts := make([][][claheBins]float64, len(ty)-1)
	for i := range luts {
		luts[i] = make([][claheBins]float64, len(tx)-1)
		for j := range luts[i] {
			luts[i][j] = tileMapping(pix, cols, ty[i], ty[i+1], tx[j], tx[j+1])
		}
	}

	out := make([]uint8, len(pix))
	for y := 0; y < rows; y++ {
		i0, i1, wy := neighbors(float64(y), cy)
		for x := 0; x < cols; x++ {
			j0, j1, wx := neighbors(float64(x), cx)
			v := pix[y*cols+x]
			top := (1-wx)*luts[i0][j0][v] + wx*luts[i0][j1][v]
			bottom := (1-wx)*luts[i1][j0][v] + wx*luts[i1][j1][v]
			out[y*cols+x] = toByte((1-wy)*top + wy*bottom)
		}
	}
	return out
}

// tileBounds splits n pixels into at most claheGrid tiles and returns the
// n+1 boundaries.
func tileBounds(n int) []int {
	tiles := min(claheGrid, n)
	b := make([]int, tiles+1)
	for i := range b {
		b[i] = i * n / tiles
	}
	return b
}

func tileCenters(bounds []int) []float64 {
	c := make([]float64, len(bounds)-1)
	for i := range c {
		c[i] = float64(bounds[i]+bounds[i+1]-1) / 2
	}
	return c
}

// neighbors finds the tile centers surrounding p and the weight of the
// second one. Outside the outermost centers the nearest tile is used alone.
func neighbors(p float64, centers []float64) (int, int, float64) {
	last := len(centers) - 1
	if p <= centers[0] {
		return 0, 0, 0
	}
	if p >= centers[last] {
		return last, last, 0
	}
	i := sort.SearchFloat64s(centers, p)
	if centers[i] == p {
		return i, i, 0
	}
	return i - 1, i, (p - centers[i-1]) / (centers[i] - centers[i-1])
}

func tileMapping(pix []uint8, stride, y0, y1, x0, x1 int) [claheBins]float64 {
	var hist [claheBins]int
	for y := y0; y < y1; y++ {
		for _, v := range pix[y*stride+x0 : y*stride+x1] {
			hist[v]++
		}
	}
	npix := (y1 - y0) * (x1 - x0)
	clipHistogram(hist[:], max(1, int(claheClipLimit*float64(npix))))

	var lut [claheBins]float64
	cdf := 0
	for v, n := range hist {
		cdf += n
		lut[v] = math.Min(255, float64(cdf)*255/float64(npix))
	}
	return lut
}

// clipHistogram caps every bin at limit and spreads the excess evenly over
// all bins. The remainder goes to bins at a regular stride from the first.
func clipHistogram(hist []int, limit int) {
	excess := 0
	for i, n := range hist {
		if n > limit {
			excess += n - limit
			hist[i] = limit
		}
	}
	if excess == 0 {
		return
	}
	each := excess / len(hist)
	for i := range hist {
		hist[i] += each
	}
	if rem := excess % len(hist); rem > 0 {
		step := len(hist) / rem
		for i := 0; i < rem; i++ {
			hist[i*step]++
		}
	}
}
