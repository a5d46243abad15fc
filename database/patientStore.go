package database

import (
	"context"

	"github.com/go-pg/pg"

	"dicom-archive/models"
)

// PatientStore implements database operations for patient management.
type PatientStore struct {
	db *pg.DB
}

// NewPatientStore returns a PatientStore implementation.
func NewPatientStore(db *pg.DB) *PatientStore {
	return &PatientStore{
		db: db,
	}
}

// FindPatient gets a patient by its natural key.
func (s *PatientStore) FindPatient(ctx context.Context, patientID string) (*models.Patient, error) {
	p := new(models.Patient)
	err := s.db.WithContext(ctx).Model(p).
		Where("patient_id = ?", patientID).
		Limit(1).
		Select()
	if err != nil {
		return nil, storeError(err)
	}
	return p, nil
}

// GetPatient gets a patient by key.
func (s *PatientStore) GetPatient(ctx context.Context, key int) (*models.Patient, error) {
	p := &models.Patient{ID: key}
	if err := s.db.WithContext(ctx).Model(p).WherePK().Select(); err != nil {
		return nil, storeError(err)
	}
	return p, nil
}

// CreatePatient creates a new patient.
func (s *PatientStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	_, err := s.db.WithContext(ctx).Model(p).Insert()
	return storeError(err)
}
