package render

import (
	"errors"

	"dicom-archive/dicom"
	"dicom-archive/fs"
)

var (
	// ErrNoPixelData is returned when the object carries no samples.
	ErrNoPixelData = dicom.ErrNoPixelData
	// ErrUnsupportedPixelShape is returned when the array dimensions do not
	// fit the photometric interpretation.
	ErrUnsupportedPixelShape = errors.New("render: unsupported pixel shape")
)

// ErrorKind labels a render failure for status mapping and metrics.
type ErrorKind string

const (
	KindPathTraversal         ErrorKind = "path_traversal"
	KindFileNotFound          ErrorKind = "file_not_found"
	KindInvalidEncoding       ErrorKind = "invalid_encoding"
	KindNoPixelData           ErrorKind = "no_pixel_data"
	KindUnsupportedPixelShape ErrorKind = "unsupported_pixel_shape"
	KindOther                 ErrorKind = "other"
)

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, fs.ErrPathTraversal):
		return KindPathTraversal
	case errors.Is(err, fs.ErrFileNotFound):
		return KindFileNotFound
	case errors.Is(err, dicom.ErrInvalidEncoding):
		return KindInvalidEncoding
	case errors.Is(err, ErrNoPixelData):
		return KindNoPixelData
	case errors.Is(err, ErrUnsupportedPixelShape):
		return KindUnsupportedPixelShape
	default:
		return KindOther
	}
}
