// Package app serves the viewer resources: study search and detail, EMR
// deep links, catalog summary and rendered images.
package app

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"dicom-archive/catalog"
	"dicom-archive/logging"
	pixels "dicom-archive/render"
)

// Renderer renders stored files by catalog reference.
type Renderer interface {
	Render(ctx context.Context, ref string, opts pixels.Options) (*pixels.Result, error)
	DefaultWindow(ctx context.Context, ref string) (pixels.Window, error)
}

// API provides application resources and handlers.
type API struct {
	Studies *StudyResource
	Summary *SummaryResource
	Images  *ImageResource
}

// NewAPI configures and returns application API.
func NewAPI(reader catalog.Reader, renderer Renderer) (*API, error) {
	api := &API{
		Studies: NewStudyResource(reader),
		Summary: NewSummaryResource(reader),
		Images:  NewImageResource(renderer),
	}
	return api, nil
}

// Router provides application routes.
func (a *API) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/studies", a.Studies.search)
	r.Get("/studies/{studyUID}", a.Studies.get)
	r.Get("/studyid", a.Studies.link)
	r.Get("/summary", a.Summary.get)

	r.Get("/image_data/*", a.Images.data)
	r.Get("/image_metadata/*", a.Images.metadata)

	return r
}

func log(r *http.Request) logrus.FieldLogger {
	return logging.GetLogEntry(r)
}
