package database

import (
	"context"

	"github.com/go-pg/pg"

	"dicom-archive/models"
)

// StudyStore implements database operations for study management.
type StudyStore struct {
	db *pg.DB
}

// NewStudyStore returns a StudyStore implementation.
func NewStudyStore(db *pg.DB) *StudyStore {
	return &StudyStore{
		db: db,
	}
}

// FindStudy gets a study by study instance UID.
func (s *StudyStore) FindStudy(ctx context.Context, studyInstanceUID string) (*models.Study, error) {
	study := new(models.Study)
	err := s.db.WithContext(ctx).Model(study).
		Where("study_instance_uid = ?", studyInstanceUID).
		Limit(1).
		Select()
	if err != nil {
		return nil, storeError(err)
	}
	return study, nil
}

// CreateStudy creates a new study.
func (s *StudyStore) CreateStudy(ctx context.Context, study *models.Study) error {
	_, err := s.db.WithContext(ctx).Model(study).Insert()
	return storeError(err)
}
