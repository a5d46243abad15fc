// Package render turns stored pixel samples into windowed 8-bit PNG images.
package render

import (
	"errors"
	"fmt"

	"dicom-archive/dicom"
)

// Options are the caller's render parameters. Nil window fields fall back
// to the object's own window, then to one computed from the samples.
type Options struct {
	WindowLevel *float64
	WindowWidth *float64
	Enhance     bool
}

// Result is an encoded image and the parameters it was rendered with.
type Result struct {
	Image       []byte
	ContentType string
	Window      Window
	Enhanced    bool
}

// Process renders the first frame of ds.
func Process(ds dicom.Dataset, opts Options) (*Result, error) {
	px, err := samples(ds)
	if err != nil {
		return nil, err
	}
	w := resolveWindow(ds, px, opts)

	r := &raster{shape: px.Shape, pix: applyWindow(px, w)}
	if opts.Enhance {
		if err := enhance(r); err != nil {
			return nil, err
		}
	}

	img, err := toImage(r, dicom.String(ds, "PhotometricInterpretation"))
	if err != nil {
		return nil, err
	}
	out, err := encode(img)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &Result{Image: out, ContentType: ContentType, Window: w, Enhanced: opts.Enhance}, nil
}

// DefaultWindow reports the window Process would use without overrides.
// Objects lacking both window attributes and samples get level 127 width 255.
func DefaultWindow(ds dicom.Dataset) (Window, error) {
	level, levelOK := dicom.Float(ds, "WindowCenter")
	width, widthOK := dicom.Float(ds, "WindowWidth")
	if levelOK && widthOK {
		return Window{Level: level, Width: width}, nil
	}

	px, err := samples(ds)
	switch {
	case err == nil:
		return resolveWindow(ds, px, Options{}), nil
	case errors.Is(err, ErrNoPixelData):
		w := fallbackWindow
		if levelOK {
			w.Level = level
		}
		if widthOK {
			w.Width = width
		}
		return w, nil
	default:
		return Window{}, err
	}
}

// samples loads the pixel array, keeps the first frame of multi-frame
// objects and applies the modality rescale.
func samples(ds dicom.Dataset) (*dicom.PixelArray, error) {
	px, err := ds.Pixels()
	if err != nil {
		return nil, err
	}
	if px == nil || px.Len() == 0 {
		return nil, ErrNoPixelData
	}
	if err := px.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPixelShape, err)
	}

	if dicom.Int(ds, "NumberOfFrames") > 1 && px.Dims() > 2 {
		if px, err = px.Index(0); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedPixelShape, err)
		}
	}

	slope, slopeOK := dicom.Float(ds, "RescaleSlope")
	intercept, interceptOK := dicom.Float(ds, "RescaleIntercept")
	if slopeOK && interceptOK {
		px = px.Clone()
		for i, v := range px.Data {
			px.Data[i] = v*slope + intercept
		}
	}
	return px, nil
}

// resolveWindow picks level and width independently: override, then the
// object's attribute, then the computed full-range window.
func resolveWindow(ds dicom.Dataset, px *dicom.PixelArray, opts Options) Window {
	w := computeWindow(px)

	if opts.WindowLevel != nil {
		w.Level = *opts.WindowLevel
	} else if level, ok := dicom.Float(ds, "WindowCenter"); ok {
		w.Level = level
	}
	if opts.WindowWidth != nil {
		w.Width = *opts.WindowWidth
	} else if width, ok := dicom.Float(ds, "WindowWidth"); ok {
		w.Width = width
	}
	return w
}
