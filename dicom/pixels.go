package dicom

import (
	"fmt"
	"math"
)

// PixelArray is a dense row-major array of samples. Its shape is
// [frames,] rows, cols [, samples]: the frame axis is present only for
// multi-frame objects and the sample axis only for multi-sample pixels.
type PixelArray struct {
	Shape []int
	Data  []float64
}

// NewPixelArray allocates a zeroed array of the given shape.
func NewPixelArray(shape ...int) *PixelArray {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &PixelArray{Shape: append([]int(nil), shape...), Data: make([]float64, n)}
}

// Dims returns the number of dimensions.
func (a *PixelArray) Dims() int {
	return len(a.Shape)
}

// Len returns the number of samples.
func (a *PixelArray) Len() int {
	return len(a.Data)
}

// Validate reports whether the shape and the data length agree.
func (a *PixelArray) Validate() error {
	n := 1
	for _, d := range a.Shape {
		if d <= 0 {
			return fmt.Errorf("invalid dimension %d in shape %v", d, a.Shape)
		}
		n *= d
	}
	if len(a.Shape) == 0 || n != len(a.Data) {
		return fmt.Errorf("shape %v does not match %d samples", a.Shape, len(a.Data))
	}
	return nil
}

// Index returns the sub-array at position i of the first axis, sharing no
// storage with a.
func (a *PixelArray) Index(i int) (*PixelArray, error) {
	if a.Dims() < 2 {
		return nil, fmt.Errorf("cannot index a %d-dimensional array", a.Dims())
	}
	if i < 0 || i >= a.Shape[0] {
		return nil, fmt.Errorf("index %d out of range [0,%d)", i, a.Shape[0])
	}
	stride := len(a.Data) / a.Shape[0]
	out := &PixelArray{
		Shape: append([]int(nil), a.Shape[1:]...),
		Data:  make([]float64, stride),
	}
	copy(out.Data, a.Data[i*stride:(i+1)*stride])
	return out, nil
}

// Clone returns a deep copy.
func (a *PixelArray) Clone() *PixelArray {
	return &PixelArray{
		Shape: append([]int(nil), a.Shape...),
		Data:  append([]float64(nil), a.Data...),
	}
}

// MinMax returns the smallest and largest sample. An empty array yields 0, 0.
func (a *PixelArray) MinMax() (float64, float64) {
	if len(a.Data) == 0 {
		return 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range a.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
