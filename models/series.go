package models

import (
	"time"

	"github.com/go-ozzo/ozzo-validation"
	"github.com/go-pg/pg/orm"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Series is keyed by SeriesInstanceUID and belongs to one Study.
type Series struct {
	TableName struct{} `sql:"series" json:"-"`

	ID        int       `sql:",pk" json:"key"`
	CreatedAt time.Time `json:"created_at"`
	StudyKey  int       `json:"study_key"`

	SeriesInstanceUID              string `json:"series_instance_uid" dicom:"SeriesInstanceUID"`
	SeriesNumber                   int    `json:"series_number" dicom:"SeriesNumber"`
	SeriesDate                     string `json:"series_date" dicom:"SeriesDate"`
	SeriesTime                     string `json:"series_time" dicom:"SeriesTime"`
	SeriesDescription              string `json:"series_description" dicom:"SeriesDescription"`
	Modality                       string `json:"modality" dicom:"Modality"`
	PatientPosition                string `json:"patient_position" dicom:"PatientPosition"`
	ContrastBolusAgent             string `json:"contrast_bolus_agent" dicom:"ContrastBolusAgent"`
	Manufacturer                   string `json:"manufacturer" dicom:"Manufacturer"`
	ManufacturerModelName          string `json:"manufacturer_model_name" dicom:"ManufacturerModelName"`
	BodyPartExamined               string `json:"body_part_examined" dicom:"BodyPartExamined"`
	ProtocolName                   string `json:"protocol_name" dicom:"ProtocolName"`
	NumberOfSeriesRelatedInstances int    `json:"number_of_series_related_instances" dicom:"NumberOfSeriesRelatedInstances"`
	FrameOfReferenceUID            string `json:"frame_of_reference_uid" dicom:"FrameOfReferenceUID"`
	LocalizerInstanceUID           string `json:"localizer_instance_uid"`
	UserComments                   string `json:"user_comments"`
	SeriesPriority                 int    `sql:",notnull" json:"series_priority"`
	SeriesRate                     int    `sql:",notnull" json:"series_rate"`
	ReviewDate                     string `json:"review_date"`
	ReviewTime                     string `json:"review_time"`
	InsertionDate                  string `json:"insertion_date"`
	SpecificCharacterSet           string `json:"specific_character_set" dicom:"SpecificCharacterSet"`
	FramesInSeries                 int    `json:"frames_in_series"`
	StudyInstanceUID               string `json:"study_instance_uid" dicom:"StudyInstanceUID"`
	Path                           string `json:"path"`
}

func (s *Series) GetObjectIdFieldTag() tag.Tag {
	return tag.SeriesInstanceUID
}

// BeforeInsert hook executed before database insert operation.
func (s *Series) BeforeInsert(db orm.DB) error {
	s.CreatedAt = time.Now()
	return s.Validate()
}

// Validate validates Series struct and returns validation errors.
func (s *Series) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.SeriesInstanceUID, validation.Required, validation.Length(1, 128)),
		validation.Field(&s.StudyKey, validation.Required),
	)
}
