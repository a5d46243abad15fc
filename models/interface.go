// Package models contains the catalog records: patients, studies, series
// and images.
package models

import "github.com/suyashkumar/dicom/pkg/tag"

// DicomObject is a catalog record identified by a DICOM attribute.
type DicomObject interface {
	GetObjectIdFieldTag() tag.Tag
}

const (
	// NoneToken fills free-text fields that have no value yet.
	NoneToken = "none"
	// StatusUnset is the initial study status.
	StatusUnset = 0
)
