// Package catalog resolves decoded DICOM objects into the Patient, Study,
// Series and Image records of the archive.
package catalog

import (
	"context"

	"dicom-archive/models"
)

// PatientStore persists patients. Find returns ErrNotFound when no patient
// has the natural key, Create returns ErrConflict when one already does.
type PatientStore interface {
	FindPatient(ctx context.Context, patientID string) (*models.Patient, error)
	CreatePatient(ctx context.Context, p *models.Patient) error
}

type StudyStore interface {
	FindStudy(ctx context.Context, studyInstanceUID string) (*models.Study, error)
	CreateStudy(ctx context.Context, s *models.Study) error
}

type SeriesStore interface {
	FindSeries(ctx context.Context, seriesInstanceUID string) (*models.Series, error)
	CreateSeries(ctx context.Context, s *models.Series) error
}

type ImageStore interface {
	FindImage(ctx context.Context, sopInstanceUID string) (*models.Image, error)
	CreateImage(ctx context.Context, i *models.Image) error
}

// Store is the write side used during ingestion.
type Store interface {
	PatientStore
	StudyStore
	SeriesStore
	ImageStore
}

// Reader is the read side used by the web layer.
type Reader interface {
	GetPatient(ctx context.Context, key int) (*models.Patient, error)
	FindStudy(ctx context.Context, studyInstanceUID string) (*models.Study, error)
	FindSeries(ctx context.Context, seriesInstanceUID string) (*models.Series, error)
	FindImage(ctx context.Context, sopInstanceUID string) (*models.Image, error)
	SearchStudies(ctx context.Context, f StudyFilter) ([]*StudyRow, error)
	ListSeries(ctx context.Context, studyKey int) ([]*models.Series, error)
	ListImages(ctx context.Context, seriesKey int) ([]*models.Image, error)
	FindStudiesForLink(ctx context.Context, patientID, accessionNumber string, limit int) ([]*models.Study, error)
	Summary(ctx context.Context) (*Summary, error)
}

// Catalog is a complete record store.
type Catalog interface {
	Store
	Reader
}

// DefaultSearchLimit bounds SearchStudies when the filter sets no limit.
const DefaultSearchLimit = 50

// StudyFilter selects studies. Text fields match case-insensitive
// substrings, StudyDate matches exactly. Empty fields match everything.
type StudyFilter struct {
	StudyInstanceUID string
	PatientID        string
	PatientName      string
	AccessionNumber  string
	StudyDate        string
	Limit            int
	Offset           int
}

// StudyRow is a study joined with its patient.
type StudyRow struct {
	models.Study
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
	PatientSex  string `json:"patient_sex"`
}

type ModalityCount struct {
	Modality string `json:"modality"`
	Count    int    `json:"count"`
}

type Summary struct {
	Patients   int             `json:"patients"`
	Studies    int             `json:"studies"`
	Series     int             `json:"series"`
	Images     int             `json:"images"`
	Modalities []ModalityCount `json:"modalities"`
}
