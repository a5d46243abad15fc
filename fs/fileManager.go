package fs

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"dicom-archive/dicom"
)

// DicomExt is the extension of every stored file.
const DicomExt = ".dcm"

// ErrNoInstanceUID is returned when a dataset cannot be placed because it
// has no SOP instance UID.
var ErrNoInstanceUID = errors.New("fs: dataset has no SOP instance UID")

// DirectoryFor names the directory a dataset is stored under: its accession
// number stripped to letters, digits, '-' and '_', or the SOP instance UID
// when nothing survives.
func DirectoryFor(ds dicom.Dataset) string {
	if name := Sanitize(dicom.String(ds, "AccessionNumber")); name != "" {
		return name
	}
	return dicom.String(ds, "SOPInstanceUID")
}

// Sanitize drops every rune that is not a letter, a digit, '-' or '_'.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return -1
	}, s)
}

// RelativePath returns <directory>/<sop-instance-uid>.dcm, the reference
// recorded in the catalog for ds.
func RelativePath(ds dicom.Dataset) (string, error) {
	sop := dicom.String(ds, "SOPInstanceUID")
	if sop == "" {
		return "", ErrNoInstanceUID
	}
	return path.Join(DirectoryFor(ds), sop+DicomExt), nil
}

// Layout writes files below a storage root.
type Layout struct {
	resolver *Resolver
}

// NewLayout returns a Layout writing through resolver.
func NewLayout(resolver *Resolver) *Layout {
	return &Layout{resolver: resolver}
}

// Resolver returns the resolver confining the layout.
func (l *Layout) Resolver() *Resolver {
	return l.resolver
}

// Save durably writes data at the relative reference ref and returns the
// absolute path. The file appears atomically: readers see either nothing or
// the complete content.
func (l *Layout) Save(ref string, data []byte) (string, error) {
	dst, err := l.resolver.Resolve(ref)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}

	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("fs: publish %s: %w", ref, err)
	}
	return dst, nil
}
