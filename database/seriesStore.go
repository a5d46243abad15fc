package database

import (
	"context"

	"github.com/go-pg/pg"

	"dicom-archive/models"
)

// SeriesStore implements database operations for series management.
type SeriesStore struct {
	db *pg.DB
}

// NewSeriesStore returns a SeriesStore implementation.
func NewSeriesStore(db *pg.DB) *SeriesStore {
	return &SeriesStore{
		db: db,
	}
}

// FindSeries gets a series by series instance UID.
func (s *SeriesStore) FindSeries(ctx context.Context, seriesInstanceUID string) (*models.Series, error) {
	series := new(models.Series)
	err := s.db.WithContext(ctx).Model(series).
		Where("series_instance_uid = ?", seriesInstanceUID).
		Limit(1).
		Select()
	if err != nil {
		return nil, storeError(err)
	}
	return series, nil
}

// ListSeries lists the series of a study by series number.
func (s *SeriesStore) ListSeries(ctx context.Context, studyKey int) ([]*models.Series, error) {
	var result []*models.Series
	query := s.db.WithContext(ctx).Model(&result).Where("study_key = ?", studyKey)
	options := &SelectQueryOptions{OrderBy: []string{"series_number ASC", "series_instance_uid ASC"}}
	if err := options.Apply(query).Select(); err != nil {
		return nil, storeError(err)
	}
	return result, nil
}

// CreateSeries creates a new series.
func (s *SeriesStore) CreateSeries(ctx context.Context, series *models.Series) error {
	_, err := s.db.WithContext(ctx).Model(series).Insert()
	return storeError(err)
}
