package database

import (
	"errors"
	"fmt"

	"github.com/go-pg/pg"

	"dicom-archive/catalog"
)

// uniqueViolation is the SQLSTATE of a unique constraint violation.
const uniqueViolation = "23505"

// storeError classifies a go-pg error into the catalog's error kinds.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pg.ErrNoRows) {
		return catalog.ErrNotFound
	}
	var pgErr pg.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
		return fmt.Errorf("%w: %s", catalog.ErrConflict, pgErr.Field('n'))
	}
	return fmt.Errorf("%w: %v", catalog.ErrRecordStore, err)
}
