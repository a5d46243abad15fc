package app

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dicom-archive/api/httperr"
	pixels "dicom-archive/render"
)

// Response headers carrying the parameters an image was rendered with.
const (
	HeaderCurrentWL      = "X-Current-WL"
	HeaderCurrentWW      = "X-Current-WW"
	HeaderCurrentEnhance = "X-Current-Enhance"
)

// ImageResource renders stored files addressed by their catalog path.
type ImageResource struct {
	Renderer Renderer
}

func NewImageResource(renderer Renderer) *ImageResource {
	return &ImageResource{Renderer: renderer}
}

// RenderOptions reads wl, ww and enhance from the query. Unparseable window
// values are ignored so the default window applies.
func RenderOptions(r *http.Request) pixels.Options {
	q := r.URL.Query()
	return pixels.Options{
		WindowLevel: parseFloat(q.Get("wl")),
		WindowWidth: parseFloat(q.Get("ww")),
		Enhance:     strings.EqualFold(q.Get("enhance"), "clahe"),
	}
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// WriteImage writes a rendered image with its window headers.
func WriteImage(w http.ResponseWriter, res *pixels.Result) {
	h := w.Header()
	h.Set("Content-Type", res.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(res.Image)))
	h.Set(HeaderCurrentWL, strconv.FormatFloat(res.Window.Level, 'f', -1, 64))
	h.Set(HeaderCurrentWW, strconv.FormatFloat(res.Window.Width, 'f', -1, 64))
	h.Set(HeaderCurrentEnhance, strconv.FormatBool(res.Enhanced))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Image)
}

func (rs *ImageResource) data(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "*")
	res, err := rs.Renderer.Render(r.Context(), ref, RenderOptions(r))
	if err != nil {
		log(r).WithError(err).WithField("ref", ref).Warn("render image")
		render.Render(w, r, httperr.FromError(err))
		return
	}
	WriteImage(w, res)
}

type ImageMetadataResponse struct {
	DefaultWL float64 `json:"default_wl"`
	DefaultWW float64 `json:"default_ww"`
	Filename  string  `json:"filename"`
}

func (rs *ImageResource) metadata(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "*")
	win, err := rs.Renderer.DefaultWindow(r.Context(), ref)
	if err != nil {
		log(r).WithError(err).WithField("ref", ref).Warn("default window")
		render.Render(w, r, httperr.FromError(err))
		return
	}
	render.JSON(w, r, &ImageMetadataResponse{DefaultWL: win.Level, DefaultWW: win.Width, Filename: ref})
}
