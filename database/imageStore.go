package database

import (
	"context"

	"github.com/go-pg/pg"

	"dicom-archive/models"
)

// ImageStore implements database operations for image management.
type ImageStore struct {
	db *pg.DB
}

// NewImageStore returns an ImageStore implementation.
func NewImageStore(db *pg.DB) *ImageStore {
	return &ImageStore{
		db: db,
	}
}

// FindImage gets an image by SOP instance UID.
func (s *ImageStore) FindImage(ctx context.Context, sopInstanceUID string) (*models.Image, error) {
	img := new(models.Image)
	err := s.db.WithContext(ctx).Model(img).
		Where("sop_instance_uid = ?", sopInstanceUID).
		Limit(1).
		Select()
	if err != nil {
		return nil, storeError(err)
	}
	return img, nil
}

// ListImages lists the images of a series by instance number.
func (s *ImageStore) ListImages(ctx context.Context, seriesKey int) ([]*models.Image, error) {
	var result []*models.Image
	query := s.db.WithContext(ctx).Model(&result).Where("series_key = ?", seriesKey)
	options := &SelectQueryOptions{OrderBy: []string{"instance_number ASC", "sop_instance_uid ASC"}}
	if err := options.Apply(query).Select(); err != nil {
		return nil, storeError(err)
	}
	return result, nil
}

// CreateImage creates a new image.
func (s *ImageStore) CreateImage(ctx context.Context, img *models.Image) error {
	_, err := s.db.WithContext(ctx).Model(img).Insert()
	return storeError(err)
}
