package database

import (
	"context"
	"strings"

	"github.com/go-pg/pg"

	"dicom-archive/catalog"
	"dicom-archive/models"
)

// CatalogStore is the postgres catalog.Catalog.
type CatalogStore struct {
	*PatientStore
	*StudyStore
	*SeriesStore
	*ImageStore

	db *pg.DB
}

// NewCatalogStore returns a CatalogStore on db.
func NewCatalogStore(db *pg.DB) *CatalogStore {
	return &CatalogStore{
		PatientStore: NewPatientStore(db),
		StudyStore:   NewStudyStore(db),
		SeriesStore:  NewSeriesStore(db),
		ImageStore:   NewImageStore(db),
		db:           db,
	}
}

const studySearchQuery = `
SELECT s.*, p.patient_id, p.patient_name, p.patient_sex
FROM study AS s
JOIN patient AS p ON p.id = s.patient_key`

// SearchStudies lists studies newest first.
func (c *CatalogStore) SearchStudies(ctx context.Context, f catalog.StudyFilter) ([]*catalog.StudyRow, error) {
	var (
		where  []string
		params []interface{}
	)
	if f.StudyInstanceUID != "" {
		where = append(where, "s.study_instance_uid = ?")
		params = append(params, f.StudyInstanceUID)
	}
	if f.PatientID != "" {
		where = append(where, "p.patient_id ILIKE ?")
		params = append(params, likePattern(f.PatientID))
	}
	if f.PatientName != "" {
		where = append(where, "p.patient_name ILIKE ?")
		params = append(params, likePattern(f.PatientName))
	}
	if f.AccessionNumber != "" {
		where = append(where, "s.accession_number ILIKE ?")
		params = append(params, likePattern(f.AccessionNumber))
	}
	if f.StudyDate != "" {
		where = append(where, "s.study_date = ?")
		params = append(params, f.StudyDate)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = catalog.DefaultSearchLimit
	}

	q := studySearchQuery
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, " AND ")
	}
	q += "\nORDER BY s.study_date DESC NULLS LAST, p.patient_name ASC, s.id ASC\nLIMIT ? OFFSET ?"
	params = append(params, limit, f.Offset)

	var rows []*catalog.StudyRow
	if _, err := c.db.WithContext(ctx).Query(&rows, q, params...); err != nil {
		return nil, storeError(err)
	}
	return rows, nil
}

// FindStudiesForLink lists at most limit studies of a patient under an
// accession number.
func (c *CatalogStore) FindStudiesForLink(ctx context.Context, patientID, accessionNumber string, limit int) ([]*models.Study, error) {
	var studies []*models.Study
	_, err := c.db.WithContext(ctx).Query(&studies, `
SELECT s.*
FROM study AS s
JOIN patient AS p ON p.id = s.patient_key
WHERE p.patient_id = ? AND s.accession_number = ?
ORDER BY s.id
LIMIT ?`, patientID, accessionNumber, limit)
	if err != nil {
		return nil, storeError(err)
	}
	return studies, nil
}

// Summary counts the catalog's records.
func (c *CatalogStore) Summary(ctx context.Context) (*catalog.Summary, error) {
	db := c.db.WithContext(ctx)
	sum := &catalog.Summary{}

	var err error
	if sum.Patients, err = db.Model((*models.Patient)(nil)).Count(); err != nil {
		return nil, storeError(err)
	}
	if sum.Studies, err = db.Model((*models.Study)(nil)).Count(); err != nil {
		return nil, storeError(err)
	}
	if sum.Series, err = db.Model((*models.Series)(nil)).Count(); err != nil {
		return nil, storeError(err)
	}
	if sum.Images, err = db.Model((*models.Image)(nil)).Count(); err != nil {
		return nil, storeError(err)
	}

	stringQuery := "SELECT coalesce(modality, '') AS modality, COUNT(*) AS count FROM series GROUP BY 1 ORDER BY 1"
	if _, err := db.Query(&sum.Modalities, stringQuery); err != nil {
		return nil, storeError(err)
	}
	return sum, nil
}

// likePattern wraps s for a substring ILIKE match, escaping wildcards.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
