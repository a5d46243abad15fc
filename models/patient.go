package models

import (
	"time"

	"github.com/go-ozzo/ozzo-validation"
	"github.com/go-pg/pg/orm"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Patient is keyed by PatientID.
type Patient struct {
	TableName struct{} `sql:"patient" json:"-"`

	ID        int       `sql:",pk" json:"key"`
	CreatedAt time.Time `json:"created_at"`

	PatientID            string `json:"patient_id" dicom:"PatientID"`
	PatientName          string `json:"patient_name" dicom:"PatientName"`
	PatientBirthDate     string `json:"patient_birth_date" dicom:"PatientBirthDate"`
	PatientSex           string `json:"patient_sex" dicom:"PatientSex"`
	SpecificCharacterSet string `json:"specific_character_set" dicom:"SpecificCharacterSet"`
	Path                 string `json:"path"`
}

func (p *Patient) GetObjectIdFieldTag() tag.Tag {
	return tag.PatientID
}

// BeforeInsert hook executed before database insert operation.
func (p *Patient) BeforeInsert(db orm.DB) error {
	p.CreatedAt = time.Now()
	return p.Validate()
}

// Validate validates Patient struct and returns validation errors.
func (p *Patient) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.PatientID, validation.Required, validation.Length(1, 128)),
	)
}
