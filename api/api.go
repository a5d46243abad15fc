// Package api configures an http server for the viewer and DICOMweb resources.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"dicom-archive/api/app"
	"dicom-archive/api/dicomweb"
	"dicom-archive/catalog"
	"dicom-archive/dicom"
	"dicom-archive/fs"
	"dicom-archive/logging"
	"dicom-archive/metrics"
)

// Options collects the collaborators of the HTTP surface.
type Options struct {
	Reader    catalog.Reader
	Ingester  dicomweb.Ingester
	Renderer  app.Renderer
	Files     *fs.Resolver
	Decoder   dicom.Decoder
	Logger    *logrus.Logger
	Timeout   time.Duration
	UploadMax int64
	CORS      bool
}

// New configures application resources and routes.
func New(opts Options) (*chi.Mux, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	appAPI, err := app.NewAPI(opts.Reader, opts.Renderer)
	if err != nil {
		logger.WithField("module", "app").Error(err)
		return nil, err
	}

	dicomwebAPI, err := dicomweb.NewAPI(opts.Reader, opts.Ingester, opts.Renderer, opts.Files, opts.Decoder, opts.UploadMax)
	if err != nil {
		logger.WithField("module", "dicomweb").Error(err)
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(timeout))

	r.Use(logging.NewStructuredLogger(logger))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// use CORS middleware if the viewer is not served by this api, e.g. from other domain or CDN
	if opts.CORS {
		r.Use(corsConfig().Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Mount("/api", appAPI.Router())
	r.Mount("/dicomweb", dicomwebAPI.Router())

	return r, nil
}

func corsConfig() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", app.HeaderCurrentWL, app.HeaderCurrentWW, app.HeaderCurrentEnhance},
		AllowCredentials: true,
		MaxAge:           86400, // Maximum value not ignored by any of major browsers
	})
}
