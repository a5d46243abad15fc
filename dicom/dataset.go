// Package dicom exposes the narrow view of a decoded DICOM object that the
// catalog and the renderer depend on, plus an adapter over
// github.com/suyashkumar/dicom implementing it.
package dicom

import (
	"errors"
	"io"
)

var (
	// ErrInvalidEncoding is returned when the decoder rejects the input.
	ErrInvalidEncoding = errors.New("dicom: invalid encoding")
	// ErrNoPixelData is returned when the object carries no pixel samples.
	ErrNoPixelData = errors.New("dicom: no pixel data")
)

// Dataset is a decoded DICOM object addressed by element keyword.
type Dataset interface {
	// Value returns the raw value stored under keyword, e.g. "PatientID".
	// The second result is false when the element is absent.
	Value(keyword string) (any, bool)
	// Pixels returns the raw samples of the PixelData element. It returns
	// ErrNoPixelData when the element is absent or empty.
	Pixels() (*PixelArray, error)
	// Elements lists every non-pixel element in tag order.
	Elements() []Element
}

// Decoder turns an encoded DICOM stream into a Dataset.
type Decoder interface {
	Decode(r io.Reader, size int64) (Dataset, error)
}

// Element is a single attribute of a Dataset.
type Element struct {
	Tag     string `json:"tag"` // GGGGEEEE, upper case hex
	VR      string `json:"vr"`
	Keyword string `json:"keyword"`
	Value   any    `json:"value"`
}
