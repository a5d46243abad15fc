// Package ingest stores received DICOM files and records them in the
// catalog: decode, place under the storage layout, then resolve the
// Patient, Study, Series and Image records.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"dicom-archive/catalog"
	"dicom-archive/dicom"
	"dicom-archive/fs"
)

// Outcome describes one stored file.
type Outcome struct {
	SOPInstanceUID string `json:"sop_instance_uid"`
	Ref            string `json:"ref"`
	*catalog.Result
}

// Service is shared by the DICOMweb, SCP and batch entry points.
type Service struct {
	decoder  dicom.Decoder
	layout   *fs.Layout
	resolver *catalog.Resolver
	log      logrus.FieldLogger
}

// NewService returns a Service writing through layout and recording into
// resolver.
func NewService(decoder dicom.Decoder, layout *fs.Layout, resolver *catalog.Resolver, log logrus.FieldLogger) *Service {
	if decoder == nil {
		decoder = dicom.NewParser()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{decoder: decoder, layout: layout, resolver: resolver, log: log}
}

// Store decodes a Part 10 file, writes it at its layout path and catalogs
// it. The file is durable before the catalog sees it.
func (s *Service) Store(ctx context.Context, data []byte) (*Outcome, error) {
	ds, err := s.decoder.Decode(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	ref, err := s.layoutRef(ds)
	if err != nil {
		return nil, err
	}
	if _, err := s.layout.Save(ref, data); err != nil {
		return nil, fmt.Errorf("save %s: %w", ref, err)
	}
	return s.record(ctx, ds, ref)
}

// StoreFile ingests the file at path. It is always recorded at its layout
// path: a file already there is catalogued in place, any other is copied
// there and the original left untouched.
func (s *Service) StoreFile(ctx context.Context, path string) (*Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ds, err := s.decoder.Decode(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	ref, err := s.layoutRef(ds)
	if err != nil {
		return nil, err
	}
	if current, err := s.layout.Resolver().Relative(path); err != nil || current != ref {
		if _, err := s.layout.Save(ref, data); err != nil {
			return nil, fmt.Errorf("save %s: %w", ref, err)
		}
	}
	return s.record(ctx, ds, ref)
}

// layoutRef is the stored reference of ds. The accession fallback changes
// where the file lands, so it is logged.
func (s *Service) layoutRef(ds dicom.Dataset) (string, error) {
	ref, err := fs.RelativePath(ds)
	if err != nil {
		if errors.Is(err, fs.ErrNoInstanceUID) {
			return "", fmt.Errorf("%w: %v", catalog.ErrMissingIdentifier, err)
		}
		return "", err
	}
	if fs.Sanitize(dicom.String(ds, "AccessionNumber")) == "" {
		s.log.WithFields(logrus.Fields{
			"sop_instance_uid": dicom.String(ds, "SOPInstanceUID"),
			"ref":              ref,
		}).Warn("no usable accession number, storing under the SOP instance UID")
	}
	return ref, nil
}

func (s *Service) record(ctx context.Context, ds dicom.Dataset, ref string) (*Outcome, error) {
	res, err := s.resolver.Ingest(ctx, ds, ref)
	if err != nil {
		return nil, err
	}
	out := &Outcome{SOPInstanceUID: dicom.String(ds, "SOPInstanceUID"), Ref: ref, Result: res}
	s.log.WithFields(logrus.Fields{
		"sop_instance_uid": out.SOPInstanceUID,
		"ref":              ref,
		"created":          res.Created,
	}).Info("instance stored")
	return out, nil
}

// Rejected reports whether err is a property of the data set itself rather
// than of the archive, i.e. resending the same bytes cannot succeed.
func Rejected(err error) bool {
	return errors.Is(err, dicom.ErrInvalidEncoding) || errors.Is(err, catalog.ErrMissingIdentifier)
}
