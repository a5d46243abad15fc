package models

import (
	"time"

	"github.com/go-ozzo/ozzo-validation"
	"github.com/go-pg/pg/orm"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Study is keyed by StudyInstanceUID and belongs to one Patient.
type Study struct {
	TableName struct{} `sql:"study" json:"-"`

	ID         int       `sql:",pk" json:"key"`
	CreatedAt  time.Time `json:"created_at"`
	PatientKey int       `json:"patient_key"`

	StudyInstanceUID              string `json:"study_instance_uid" dicom:"StudyInstanceUID"`
	StudyID                       string `json:"study_id" dicom:"StudyID"`
	StudyDate                     string `json:"study_date" dicom:"StudyDate"`
	StudyTime                     string `json:"study_time" dicom:"StudyTime"`
	StudyDescription              string `json:"study_description" dicom:"StudyDescription"`
	AccessionNumber               string `json:"accession_number" dicom:"AccessionNumber"`
	ReferringPhysicianName        string `json:"referring_physician_name" dicom:"ReferringPhysicianName"`
	ModalitiesInStudy             string `json:"modalities_in_study" dicom:"ModalitiesInStudy"`
	NumberOfStudyRelatedSeries    int    `json:"number_of_study_related_series" dicom:"NumberOfStudyRelatedSeries"`
	NumberOfStudyRelatedInstances int    `json:"number_of_study_related_instances" dicom:"NumberOfStudyRelatedInstances"`
	StationName                   string `json:"station_name" dicom:"StationName"`
	InstitutionalDepartmentName   string `json:"institutional_department_name" dicom:"InstitutionalDepartmentName"`
	PatientAge                    string `json:"patient_age" dicom:"PatientAge"`
	PatientWeight                 string `json:"patient_weight" dicom:"PatientWeight"`
	InstitutionName               string `json:"institution_name" dicom:"InstitutionName"`
	FramesInStudy                 int    `json:"frames_in_study"`
	StudyComments                 string `json:"study_comments" dicom:"StudyComments"`
	StudyStatus                   int    `sql:",notnull" json:"study_status"`
	StudyStatusToken              string `json:"study_status_token"`
	Path                          string `json:"path"`
}

func (s *Study) GetObjectIdFieldTag() tag.Tag {
	return tag.StudyInstanceUID
}

// BeforeInsert hook executed before database insert operation.
func (s *Study) BeforeInsert(db orm.DB) error {
	s.CreatedAt = time.Now()
	return s.Validate()
}

// Validate validates Study struct and returns validation errors.
func (s *Study) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.StudyInstanceUID, validation.Required, validation.Length(1, 128)),
		validation.Field(&s.PatientKey, validation.Required),
	)
}
