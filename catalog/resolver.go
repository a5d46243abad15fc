package catalog

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"dicom-archive/dicom"
	"dicom-archive/metrics"
	"dicom-archive/models"
)

// Prefixes of synthesized natural keys, followed by the SOP instance UID.
const (
	UnknownPatientPrefix = "UNKNOWN_PATIENT_"
	UnknownStudyPrefix   = "UNKNOWN_STUDY_"
	UnknownSeriesPrefix  = "UNKNOWN_SERIES_"
)

var tracer = otel.Tracer("dicom-archive/catalog")

// Resolver maps datasets to catalog records, creating them on first sight.
// It is safe for concurrent use when the store enforces natural-key
// uniqueness.
type Resolver struct {
	store Store
	log   logrus.FieldLogger
}

// NewResolver returns a Resolver writing to store.
func NewResolver(store Store, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{store: store, log: log}
}

// Result holds the keys produced by one ingestion. Created is false when the
// image was already catalogued.
type Result struct {
	PatientKey int  `json:"patient_key"`
	StudyKey   int  `json:"study_key"`
	SeriesKey  int  `json:"series_key"`
	ImageKey   int  `json:"image_key"`
	Created    bool `json:"created"`
}

// Ingest records ds, whose file has already been written at ref relative to
// the storage root. Patient, Study, Series and Image are resolved in that
// order and the first failure stops the chain. A dataset without a SOP
// instance UID is refused before any record is created.
func (r *Resolver) Ingest(ctx context.Context, ds dicom.Dataset, ref string) (res *Result, err error) {
	ctx, span := tracer.Start(ctx, "catalog.Ingest")
	defer func() {
		switch {
		case err != nil:
			metrics.IngestTotal.WithLabelValues("failed").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case res.Created:
			metrics.IngestTotal.WithLabelValues("created").Inc()
		default:
			metrics.IngestTotal.WithLabelValues("duplicate").Inc()
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("dicom.ref", ref))

	// every fallback key derives from the SOP instance UID
	if dicom.String(ds, "SOPInstanceUID") == "" {
		return nil, ErrMissingIdentifier
	}

	hint := path.Dir(ref)
	res = &Result{}
	if res.PatientKey, err = r.ResolvePatient(ctx, ds, hint); err != nil {
		return nil, err
	}
	if res.StudyKey, err = r.ResolveStudy(ctx, ds, res.PatientKey, hint); err != nil {
		return nil, err
	}
	if res.SeriesKey, err = r.ResolveSeries(ctx, ds, res.StudyKey, hint); err != nil {
		return nil, err
	}
	if res.ImageKey, res.Created, err = r.ResolveImage(ctx, ds, res.SeriesKey, ref); err != nil {
		return nil, err
	}
	return res, nil
}

// ResolvePatient returns the key of the patient named by ds, creating it
// when absent.
func (r *Resolver) ResolvePatient(ctx context.Context, ds dicom.Dataset, pathHint string) (int, error) {
	id, synthesized := naturalKey(ds, "PatientID", UnknownPatientPrefix)
	if synthesized {
		r.log.WithFields(logrus.Fields{
			"sop_instance_uid": dicom.String(ds, "SOPInstanceUID"),
			"natural_key":      id,
		}).Warn("dataset has no PatientID, using synthesized key")
	}

	return getOrCreate(ctx, "patient",
		func(ctx context.Context) (int, error) {
			p, err := r.store.FindPatient(ctx, id)
			if err != nil {
				return 0, err
			}
			return p.ID, nil
		},
		func(ctx context.Context) (int, error) {
			p := &models.Patient{
				PatientID:            id,
				PatientName:          dicom.String(ds, "PatientName"),
				PatientBirthDate:     dicom.String(ds, "PatientBirthDate"),
				PatientSex:           dicom.String(ds, "PatientSex"),
				SpecificCharacterSet: dicom.String(ds, "SpecificCharacterSet"),
				Path:                 pathHint,
			}
			if err := r.store.CreatePatient(ctx, p); err != nil {
				return 0, err
			}
			return p.ID, nil
		},
	)
}

// ResolveStudy returns the key of the study named by ds, creating it under
// patientKey when absent. A study created without an accession number takes
// its instance UID as accession number.
func (r *Resolver) ResolveStudy(ctx context.Context, ds dicom.Dataset, patientKey int, pathHint string) (int, error) {
	uid, synthesized := naturalKey(ds, "StudyInstanceUID", UnknownStudyPrefix)
	if synthesized {
		r.log.WithFields(logrus.Fields{
			"sop_instance_uid": dicom.String(ds, "SOPInstanceUID"),
			"natural_key":      uid,
		}).Warn("dataset has no StudyInstanceUID, using synthesized key")
	}

	return getOrCreate(ctx, "study",
		func(ctx context.Context) (int, error) {
			s, err := r.store.FindStudy(ctx, uid)
			if err != nil {
				return 0, err
			}
			return s.ID, nil
		},
		func(ctx context.Context) (int, error) {
			accession := dicom.String(ds, "AccessionNumber")
			if accession == "" {
				accession = uid
				r.log.WithField("study_instance_uid", uid).
					Warn("dataset has no AccessionNumber, recording the study instance UID instead")
			}
			s := &models.Study{
				PatientKey:                    patientKey,
				StudyInstanceUID:              uid,
				StudyID:                       dicom.String(ds, "StudyID"),
				StudyDate:                     dicom.String(ds, "StudyDate"),
				StudyTime:                     dicom.String(ds, "StudyTime"),
				StudyDescription:              dicom.String(ds, "StudyDescription"),
				AccessionNumber:               accession,
				ReferringPhysicianName:        dicom.String(ds, "ReferringPhysicianName"),
				ModalitiesInStudy:             dicom.String(ds, "ModalitiesInStudy"),
				NumberOfStudyRelatedSeries:    dicom.Int(ds, "NumberOfStudyRelatedSeries"),
				NumberOfStudyRelatedInstances: dicom.Int(ds, "NumberOfStudyRelatedInstances"),
				StationName:                   dicom.String(ds, "StationName"),
				InstitutionalDepartmentName:   dicom.String(ds, "InstitutionalDepartmentName"),
				PatientAge:                    dicom.String(ds, "PatientAge"),
				PatientWeight:                 dicom.String(ds, "PatientWeight"),
				InstitutionName:               dicom.String(ds, "InstitutionName"),
				FramesInStudy:                 dicom.Int(ds, "NumberOfFrames"),
				StudyComments:                 dicom.String(ds, "StudyComments"),
				StudyStatus:                   models.StatusUnset,
				StudyStatusToken:              models.NoneToken,
				Path:                          pathHint,
			}
			if err := r.store.CreateStudy(ctx, s); err != nil {
				return 0, err
			}
			return s.ID, nil
		},
	)
}

// ResolveSeries returns the key of the series named by ds, creating it under
// studyKey when absent. Only the creating image is recorded as localizer.
func (r *Resolver) ResolveSeries(ctx context.Context, ds dicom.Dataset, studyKey int, pathHint string) (int, error) {
	uid, synthesized := naturalKey(ds, "SeriesInstanceUID", UnknownSeriesPrefix)
	if synthesized {
		r.log.WithFields(logrus.Fields{
			"sop_instance_uid": dicom.String(ds, "SOPInstanceUID"),
			"natural_key":      uid,
		}).Warn("dataset has no SeriesInstanceUID, using synthesized key")
	}
	studyUID, _ := naturalKey(ds, "StudyInstanceUID", UnknownStudyPrefix)

	return getOrCreate(ctx, "series",
		func(ctx context.Context) (int, error) {
			s, err := r.store.FindSeries(ctx, uid)
			if err != nil {
				return 0, err
			}
			return s.ID, nil
		},
		func(ctx context.Context) (int, error) {
			s := &models.Series{
				StudyKey:                       studyKey,
				SeriesInstanceUID:              uid,
				SeriesNumber:                   dicom.Int(ds, "SeriesNumber"),
				SeriesDate:                     dicom.String(ds, "SeriesDate"),
				SeriesTime:                     dicom.String(ds, "SeriesTime"),
				SeriesDescription:              dicom.String(ds, "SeriesDescription"),
				Modality:                       dicom.String(ds, "Modality"),
				PatientPosition:                dicom.String(ds, "PatientPosition"),
				ContrastBolusAgent:             dicom.String(ds, "ContrastBolusAgent"),
				Manufacturer:                   dicom.String(ds, "Manufacturer"),
				ManufacturerModelName:          dicom.String(ds, "ManufacturerModelName"),
				BodyPartExamined:               dicom.String(ds, "BodyPartExamined"),
				ProtocolName:                   dicom.String(ds, "ProtocolName"),
				NumberOfSeriesRelatedInstances: dicom.Int(ds, "NumberOfSeriesRelatedInstances"),
				FrameOfReferenceUID:            dicom.String(ds, "FrameOfReferenceUID"),
				LocalizerInstanceUID:           dicom.String(ds, "SOPInstanceUID"),
				UserComments:                   models.NoneToken,
				ReviewDate:                     models.NoneToken,
				ReviewTime:                     models.NoneToken,
				InsertionDate:                  models.NoneToken,
				SpecificCharacterSet:           dicom.String(ds, "SpecificCharacterSet"),
				FramesInSeries:                 dicom.Int(ds, "NumberOfFrames"),
				StudyInstanceUID:               studyUID,
				Path:                           pathHint,
			}
			if err := r.store.CreateSeries(ctx, s); err != nil {
				return 0, err
			}
			return s.ID, nil
		},
	)
}

// ResolveImage inserts the image named by ds under seriesKey. An image that
// is already catalogued is absorbed: its key is returned with created set to
// false and no error.
func (r *Resolver) ResolveImage(ctx context.Context, ds dicom.Dataset, seriesKey int, ref string) (key int, created bool, err error) {
	sop := dicom.String(ds, "SOPInstanceUID")
	if sop == "" {
		return 0, false, ErrMissingIdentifier
	}

	existing, err := r.store.FindImage(ctx, sop)
	switch {
	case err == nil:
		return existing.ID, false, nil
	case !errors.Is(err, ErrNotFound):
		return 0, false, err
	}

	patientID, _ := naturalKey(ds, "PatientID", UnknownPatientPrefix)
	img := &models.Image{
		SeriesKey:                 seriesKey,
		SOPInstanceUID:            sop,
		SOPClassUID:               dicom.String(ds, "SOPClassUID"),
		ImageType:                 dicom.String(ds, "ImageType"),
		InstanceNumber:            dicom.Int(ds, "InstanceNumber"),
		ContentDate:               dicom.String(ds, "ContentDate"),
		ContentTime:               dicom.String(ds, "ContentTime"),
		AcquisitionDate:           dicom.String(ds, "AcquisitionDate"),
		AcquisitionTime:           dicom.String(ds, "AcquisitionTime"),
		AcquisitionNumber:         dicom.Int(ds, "AcquisitionNumber"),
		NumberOfFrames:            dicom.Int(ds, "NumberOfFrames"),
		SamplesPerPixel:           dicom.Int(ds, "SamplesPerPixel"),
		PhotometricInterpretation: dicom.String(ds, "PhotometricInterpretation"),
		BitsAllocated:             dicom.Int(ds, "BitsAllocated"),
		Rows:                      dicom.Int(ds, "Rows"),
		Columns:                   dicom.Int(ds, "Columns"),
		Path:                      ref,
		PatientID:                 patientID,
	}
	err = r.store.CreateImage(ctx, img)
	switch {
	case err == nil:
		return img.ID, true, nil
	case errors.Is(err, ErrConflict):
		metrics.CatalogConflicts.WithLabelValues("image").Inc()
		existing, err := r.store.FindImage(ctx, sop)
		if err != nil {
			return 0, false, fmt.Errorf("%w: image %s unreadable after conflict: %v", ErrRecordStore, sop, err)
		}
		return existing.ID, false, nil
	default:
		return 0, false, err
	}
}

// getOrCreate looks a record up and creates it when absent. A conflicting
// insert means a concurrent ingestion won the race; the winner is re-read
// once and its key returned.
func getOrCreate(ctx context.Context, entity string, find, create func(context.Context) (int, error)) (int, error) {
	key, err := find(ctx)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	key, err = create(ctx)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrConflict) {
		return 0, err
	}

	metrics.CatalogConflicts.WithLabelValues(entity).Inc()
	key, err = find(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %s unreadable after conflict: %v", ErrRecordStore, entity, err)
	}
	return key, nil
}

// naturalKey returns the keyword's value, or prefix+SOPInstanceUID when it
// is empty.
func naturalKey(ds dicom.Dataset, keyword, prefix string) (string, bool) {
	if v := dicom.String(ds, keyword); v != "" {
		return v, false
	}
	return prefix + dicom.String(ds, "SOPInstanceUID"), true
}
