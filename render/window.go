package render

import (
	"math"

	"dicom-archive/dicom"
)

// Window is a display intensity window.
type Window struct {
	Level float64 `json:"level"`
	Width float64 `json:"width"`
}

// fallbackWindow is reported for objects without window attributes or
// samples to compute one from.
var fallbackWindow = Window{Level: 127, Width: 255}

// computeWindow spans the full sample range of px. A flat array gets width 1.
func computeWindow(px *dicom.PixelArray) Window {
	lo, hi := px.MinMax()
	w := Window{Level: (lo + hi) / 2, Width: hi - lo}
	if w.Width <= 0 {
		w.Width = 1
	}
	return w
}

// applyWindow maps every sample of px through w into 8 bits.
//
// Widths above one use the linear VOI function of PS3.3 C.11.2.1.2, which
// keeps 0 and 255 fixed for level 128 width 256. Widths in (0, 1] clip to
// [level-width/2, level+width/2] and rescale. A zero or negative width
// binarizes at the level.
func applyWindow(px *dicom.PixelArray, w Window) []uint8 {
	out := make([]uint8, len(px.Data))
	c, width := w.Level, w.Width
	for i, v := range px.Data {
		var y float64
		switch {
		case width > 1:
			lower := c - 0.5 - (width-1)/2
			upper := c - 0.5 + (width-1)/2
			switch {
			case v <= lower:
				y = 0
			case v > upper:
				y = 255
			default:
				y = (v-(c-0.5))*255/(width-1) + 127.5
			}
		case width > 0:
			lo, hi := c-width/2, c+width/2
			y = (math.Min(math.Max(v, lo), hi) - lo) / width * 255
		default:
			if v >= c {
				y = 255
			}
		}
		out[i] = toByte(y)
	}
	return out
}

// toByte clips y to [0,255] and truncates it.
func toByte(y float64) uint8 {
	switch {
	case math.IsNaN(y) || y <= 0:
		return 0
	case y >= 255:
		return 255
	default:
		return uint8(y)
	}
}
