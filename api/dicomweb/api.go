// Package dicomweb serves the catalog over the DICOMweb QIDO-RS, WADO-RS and
// STOW-RS surfaces.
package dicomweb

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"dicom-archive/api/app"
	"dicom-archive/api/httperr"
	"dicom-archive/catalog"
	"dicom-archive/dicom"
	"dicom-archive/fs"
	"dicom-archive/ingest"
	"dicom-archive/logging"
	"dicom-archive/models"
)

type ctxKey int

const (
	ctxStudy ctxKey = iota
	ctxSeries
	ctxInstance
	ctxRequestType
)

// Ingester stores one Part 10 file.
type Ingester interface {
	Store(ctx context.Context, data []byte) (*ingest.Outcome, error)
}

// API provides application resources and handlers.
type API struct {
	QIDO *QIDOResource
	STOW *STOWResource
	WADO *WADOResource

	reader catalog.Reader
}

// NewAPI configures and returns the DICOMweb API. Uploads larger than
// uploadMax bytes are refused.
func NewAPI(reader catalog.Reader, ingester Ingester, renderer app.Renderer, files *fs.Resolver, decoder dicom.Decoder, uploadMax int64) (*API, error) {
	if reader == nil || ingester == nil || renderer == nil || files == nil {
		return nil, errors.New("dicomweb: missing collaborator")
	}
	if decoder == nil {
		decoder = dicom.NewParser()
	}

	api := &API{
		QIDO:   NewQIDOResource(reader),
		STOW:   NewSTOWResource(ingester, uploadMax),
		WADO:   NewWADOResource(reader, renderer, files, decoder),
		reader: reader,
	}
	return api, nil
}

// Router provides application routes.
func (a *API) Router() *chi.Mux {
	r := chi.NewRouter()

	// QIDO group
	r.Group(func(r chi.Router) {
		r.Use(a.ctx)
		r.Get("/studies", a.QIDO.studies)
		r.Get("/studies/{studyUID}/series", a.QIDO.series)
		r.Get("/studies/{studyUID}/series/{seriesUID}/instances", a.QIDO.instances)
	})

	// WADO group
	r.Group(func(r chi.Router) {
		r.Use(a.ctx)
		r.With(withRequestType(requestTypeDefault)).Get("/studies/{studyUID}", a.WADO.study)
		r.With(withRequestType(requestTypeDefault)).Get("/studies/{studyUID}/series/{seriesUID}", a.WADO.series)
		r.With(withRequestType(requestTypeDefault)).Get("/studies/{studyUID}/series/{seriesUID}/instances/{instanceUID}", a.WADO.instance)

		r.With(withRequestType(requestTypeMetadata)).Get("/studies/{studyUID}/metadata", a.WADO.study)
		r.With(withRequestType(requestTypeMetadata)).Get("/studies/{studyUID}/series/{seriesUID}/metadata", a.WADO.series)
		r.With(withRequestType(requestTypeMetadata)).Get("/studies/{studyUID}/series/{seriesUID}/instances/{instanceUID}/metadata", a.WADO.instance)

		r.With(withRequestType(requestTypeRendered)).Get("/studies/{studyUID}/series/{seriesUID}/instances/{instanceUID}/rendered", a.WADO.instance)
	})

	// STOW group
	r.Group(func(r chi.Router) {
		r.Post("/studies", a.STOW.save)
	})

	return r
}

// ctx loads the study, series and instance named in the path. A child that
// does not belong to its parent is reported as not found.
func (a *API) ctx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var study *models.Study
		if studyUID := chi.URLParam(r, "studyUID"); studyUID != "" {
			s, err := a.reader.FindStudy(ctx, studyUID)
			if err != nil {
				notFoundOr(w, r, err)
				return
			}
			study = s
			ctx = context.WithValue(ctx, ctxStudy, study)
		}

		var series *models.Series
		if seriesUID := chi.URLParam(r, "seriesUID"); seriesUID != "" {
			s, err := a.reader.FindSeries(ctx, seriesUID)
			if err != nil {
				notFoundOr(w, r, err)
				return
			}
			if study == nil || s.StudyKey != study.ID {
				render.Render(w, r, httperr.ErrNotFound)
				return
			}
			series = s
			ctx = context.WithValue(ctx, ctxSeries, series)
		}

		if instanceUID := chi.URLParam(r, "instanceUID"); instanceUID != "" {
			img, err := a.reader.FindImage(ctx, instanceUID)
			if err != nil {
				notFoundOr(w, r, err)
				return
			}
			if series == nil || img.SeriesKey != series.ID {
				render.Render(w, r, httperr.ErrNotFound)
				return
			}
			ctx = context.WithValue(ctx, ctxInstance, img)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func notFoundOr(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, catalog.ErrNotFound) {
		log(r).WithError(err).Error("load path objects")
	}
	render.Render(w, r, httperr.FromError(err))
}

func log(r *http.Request) logrus.FieldLogger {
	return logging.GetLogEntry(r)
}
