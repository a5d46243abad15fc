package render

import (
	"fmt"
	"image"
	"strings"
)

// Photometric interpretations handled explicitly.
const (
	Monochrome1  = "MONOCHROME1"
	Monochrome2  = "MONOCHROME2"
	RGB          = "RGB"
	PaletteColor = "PALETTE COLOR"
)

// toImage builds the output raster for the interpretation pi. Shapes that do
// not fit pi fail with ErrUnsupportedPixelShape and are never reshaped.
func toImage(r *raster, pi string) (image.Image, error) {
	pi = strings.ToUpper(strings.TrimSpace(pi))
	switch {
	case pi == Monochrome1:
		if r.dims() != 2 {
			return nil, shapeError(pi, r)
		}
		img := gray(r)
		for i, v := range img.Pix {
			img.Pix[i] = 255 - v
		}
		return img, nil
	case pi == Monochrome2 || pi == "":
		if r.dims() != 2 {
			return nil, shapeError(pi, r)
		}
		return gray(r), nil
	case pi == RGB || strings.HasPrefix(pi, "YBR_"):
		// YBR samples arrive already converted to RGB by the decoder
		if r.channels() != 3 {
			return nil, shapeError(pi, r)
		}
		return rgb(r), nil
	case pi == PaletteColor:
		// the decoder resolves the palette to gray or RGB samples
		switch {
		case r.dims() == 2:
			return gray(r), nil
		case r.channels() == 3:
			return rgb(r), nil
		}
		return nil, shapeError(pi, r)
	default:
		switch {
		case r.dims() == 2, r.channels() == 1:
			return gray(r), nil
		case r.channels() == 3:
			return rgb(r), nil
		}
		return nil, shapeError(pi, r)
	}
}

func shapeError(pi string, r *raster) error {
	return fmt.Errorf("%w: %v for photometric interpretation %q", ErrUnsupportedPixelShape, r.shape, pi)
}

func gray(r *raster) *image.Gray {
	rows, cols := r.shape[0], r.shape[1]
	return &image.Gray{Pix: r.pix, Stride: cols, Rect: image.Rect(0, 0, cols, rows)}
}

func rgb(r *raster) *image.NRGBA {
	rows, cols := r.shape[0], r.shape[1]
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for i := 0; i < rows*cols; i++ {
		copy(img.Pix[i*4:i*4+3], r.pix[i*3:i*3+3])
		img.Pix[i*4+3] = 0xff
	}
	return img
}
