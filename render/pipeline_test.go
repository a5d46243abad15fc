package render

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"dicom-archive/dicom"
)

func ptr(f float64) *float64 { return &f }

var fullRange = Options{WindowLevel: ptr(128), WindowWidth: ptr(256)}

func decodePNG(t *testing.T, res *Result) image.Image {
	t.Helper()
	if res.ContentType != "image/png" {
		t.Fatalf("content type = %q", res.ContentType)
	}
	img, err := png.Decode(bytes.NewReader(res.Image))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	return img
}

func grayPixels(t *testing.T, img image.Image) []uint8 {
	t.Helper()
	g, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("image is %T, want *image.Gray", img)
	}
	var out []uint8
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, g.GrayAt(x, y).Y)
		}
	}
	return out
}

func TestProcessWindowing(t *testing.T) {
	ds := dicom.NewObject(nil).WithPixels(array([]int{2, 2}, 0, 100, 200, 255))

	res, err := Process(ds, fullRange)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := grayPixels(t, decodePNG(t, res)); !bytes.Equal(got, []uint8{0, 100, 200, 255}) {
		t.Errorf("full range = %v", got)
	}
	if res.Window != (Window{Level: 128, Width: 256}) || res.Enhanced {
		t.Errorf("result window %+v enhanced %v", res.Window, res.Enhanced)
	}

	res, err = Process(ds, Options{WindowLevel: ptr(128), WindowWidth: ptr(0)})
	if err != nil {
		t.Fatal(err)
	}
	if got := grayPixels(t, decodePNG(t, res)); !bytes.Equal(got, []uint8{0, 0, 255, 255}) {
		t.Errorf("binarized = %v", got)
	}
}

func TestProcessSelectsFirstFrame(t *testing.T) {
	frames := func(other float64) *dicom.Object {
		px := array([]int{3, 2, 2},
			0, 100, 200, 255,
			other, other, other, other,
			other, 3*other, other, other)
		return dicom.NewObject(map[string]any{"NumberOfFrames": "3"}).WithPixels(px)
	}

	var outputs [][]uint8
	for _, other := range []float64{0, 777, -5000} {
		res, err := Process(frames(other), fullRange)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		img := decodePNG(t, res)
		if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
			t.Fatalf("bounds = %v, want 2x2", img.Bounds())
		}
		outputs = append(outputs, grayPixels(t, img))
	}
	for _, got := range outputs {
		if !bytes.Equal(got, []uint8{0, 100, 200, 255}) {
			t.Errorf("frame 0 output = %v", got)
		}
	}
}

func TestProcessSingleFrameKeepsArray(t *testing.T) {
	// a 3-D array without a multi-frame declaration is not sliced
	ds := dicom.NewObject(map[string]any{"NumberOfFrames": "1"}).WithPixels(array([]int{2, 1, 1}, 0, 255))
	if _, err := Process(ds, fullRange); !errors.Is(err, ErrUnsupportedPixelShape) {
		t.Errorf("err = %v, want ErrUnsupportedPixelShape", err)
	}
}

func TestProcessInvertsMonochrome1(t *testing.T) {
	ds := dicom.NewObject(map[string]any{"PhotometricInterpretation": " monochrome1 "}).
		WithPixels(array([]int{1, 2}, 0, 255))
	res, err := Process(ds, fullRange)
	if err != nil {
		t.Fatal(err)
	}
	if got := grayPixels(t, decodePNG(t, res)); !bytes.Equal(got, []uint8{255, 0}) {
		t.Errorf("got %v, want [255 0]", got)
	}
}

func TestProcessRescale(t *testing.T) {
	ds := dicom.NewObject(map[string]any{
		"RescaleSlope":     "2",
		"RescaleIntercept": "-100",
	}).WithPixels(array([]int{1, 2}, 50, 100))

	res, err := Process(ds, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Window != (Window{Level: 50, Width: 100}) {
		t.Errorf("computed window = %+v, want level 50 width 100", res.Window)
	}
	if got := grayPixels(t, decodePNG(t, res)); !bytes.Equal(got, []uint8{0, 255}) {
		t.Errorf("got %v", got)
	}
	if px, _ := ds.Pixels(); px.Data[0] != 50 {
		t.Error("rescale modified the dataset's samples")
	}

	// slope alone is ignored
	ds = dicom.NewObject(map[string]any{"RescaleSlope": "2"}).WithPixels(array([]int{1, 2}, 50, 100))
	res, _ = Process(ds, Options{})
	if res.Window != (Window{Level: 75, Width: 50}) {
		t.Errorf("window without intercept = %+v", res.Window)
	}
}

func TestProcessNoPixelData(t *testing.T) {
	if _, err := Process(dicom.NewObject(nil), Options{}); !errors.Is(err, ErrNoPixelData) {
		t.Errorf("err = %v, want ErrNoPixelData", err)
	}
}

func TestProcessEnhance(t *testing.T) {
	const n = 32
	px := dicom.NewPixelArray(n, n)
	for i := range px.Data {
		px.Data[i] = float64(i % 97)
	}
	res, err := Process(dicom.NewObject(nil).WithPixels(px), Options{Enhance: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Enhanced {
		t.Error("Enhanced flag not set")
	}
	if b := decodePNG(t, res).Bounds(); b.Dx() != n || b.Dy() != n {
		t.Errorf("bounds = %v", b)
	}
}

func TestPhotometricDispatch(t *testing.T) {
	tests := []struct {
		pi      string
		shape   []int
		wantRGB bool
		wantErr bool
	}{
		{"MONOCHROME2", []int{2, 2}, false, false},
		{"", []int{2, 2}, false, false},
		{"MONOCHROME2", []int{2, 2, 3}, false, true},
		{"MONOCHROME1", []int{2, 2, 1}, false, true},
		{"RGB", []int{2, 2, 3}, true, false},
		{"RGB", []int{2, 2}, false, true},
		{"YBR_FULL_422", []int{2, 2, 3}, true, false},
		{"YBR_FULL", []int{2, 2, 4}, false, true},
		{"PALETTE COLOR", []int{2, 2}, false, false},
		{"PALETTE COLOR", []int{2, 2, 3}, true, false},
		{"PALETTE COLOR", []int{2, 2, 1}, false, true},
		{"HSV", []int{2, 2}, false, false},
		{"HSV", []int{2, 2, 1}, false, false},
		{"HSV", []int{2, 2, 3}, true, false},
		{"HSV", []int{2, 2, 2}, false, true},
		{"HSV", []int{2, 2, 2, 2}, false, true},
	}
	for _, tt := range tests {
		n := 1
		for _, d := range tt.shape {
			n *= d
		}
		img, err := toImage(&raster{shape: tt.shape, pix: make([]uint8, n)}, tt.pi)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedPixelShape) {
				t.Errorf("%q %v: err = %v, want ErrUnsupportedPixelShape", tt.pi, tt.shape, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q %v: %v", tt.pi, tt.shape, err)
			continue
		}
		if _, isRGB := img.(*image.NRGBA); isRGB != tt.wantRGB {
			t.Errorf("%q %v: image is %T", tt.pi, tt.shape, img)
		}
	}
}

func TestProcessRGB(t *testing.T) {
	ds := dicom.NewObject(map[string]any{"PhotometricInterpretation": "RGB"}).
		WithPixels(array([]int{1, 1, 3}, 255, 100, 0))
	res, err := Process(ds, fullRange)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := decodePNG(t, res).At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 100 || b>>8 != 0 {
		t.Errorf("pixel = %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestDefaultWindow(t *testing.T) {
	tests := []struct {
		name string
		ds   dicom.Dataset
		want Window
	}{
		{
			"attributes",
			dicom.NewObject(map[string]any{"WindowCenter": `40\60`, "WindowWidth": []string{"400", "1500"}}),
			Window{Level: 40, Width: 400},
		},
		{
			"computed",
			dicom.NewObject(nil).WithPixels(array([]int{1, 3}, -10, 0, 30)),
			Window{Level: 10, Width: 40},
		},
		{
			"level attribute with computed width",
			dicom.NewObject(map[string]any{"WindowCenter": "5"}).WithPixels(array([]int{1, 2}, 0, 30)),
			Window{Level: 5, Width: 30},
		},
		{
			"no samples",
			dicom.NewObject(map[string]any{"WindowWidth": "80"}),
			Window{Level: 127, Width: 80},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultWindow(tt.ds)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
