package models

import (
	"time"

	"github.com/go-ozzo/ozzo-validation"
	"github.com/go-pg/pg/orm"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Image is keyed by SOPInstanceUID and belongs to one Series. Path is the
// stored-file reference relative to the storage root.
type Image struct {
	TableName struct{} `sql:"image" json:"-"`

	ID        int       `sql:",pk" json:"key"`
	CreatedAt time.Time `json:"created_at"`
	SeriesKey int       `json:"series_key"`

	SOPInstanceUID            string `json:"sop_instance_uid" dicom:"SOPInstanceUID"`
	SOPClassUID               string `json:"sop_class_uid" dicom:"SOPClassUID"`
	ImageType                 string `json:"image_type" dicom:"ImageType"`
	InstanceNumber            int    `json:"instance_number" dicom:"InstanceNumber"`
	ContentDate               string `json:"content_date" dicom:"ContentDate"`
	ContentTime               string `json:"content_time" dicom:"ContentTime"`
	AcquisitionDate           string `json:"acquisition_date" dicom:"AcquisitionDate"`
	AcquisitionTime           string `json:"acquisition_time" dicom:"AcquisitionTime"`
	AcquisitionNumber         int    `json:"acquisition_number" dicom:"AcquisitionNumber"`
	NumberOfFrames            int    `json:"number_of_frames" dicom:"NumberOfFrames"`
	SamplesPerPixel           int    `json:"samples_per_pixel" dicom:"SamplesPerPixel"`
	PhotometricInterpretation string `json:"photometric_interpretation" dicom:"PhotometricInterpretation"`
	BitsAllocated             int    `json:"bits_allocated" dicom:"BitsAllocated"`
	Rows                      int    `json:"rows" dicom:"Rows"`
	Columns                   int    `json:"columns" dicom:"Columns"`
	Path                      string `json:"path"`
	PatientID                 string `json:"patient_id" dicom:"PatientID"`
}

func (i *Image) GetObjectIdFieldTag() tag.Tag {
	return tag.SOPInstanceUID
}

// BeforeInsert hook executed before database insert operation.
func (i *Image) BeforeInsert(db orm.DB) error {
	i.CreatedAt = time.Now()
	return i.Validate()
}

// Validate validates Image struct and returns validation errors.
func (i *Image) Validate() error {
	return validation.ValidateStruct(i,
		validation.Field(&i.SOPInstanceUID, validation.Required, validation.Length(1, 128)),
		validation.Field(&i.SeriesKey, validation.Required),
		validation.Field(&i.Path, validation.Required),
	)
}
