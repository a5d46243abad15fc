package app

import (
	"net/http"

	"github.com/go-chi/render"

	"dicom-archive/api/httperr"
	"dicom-archive/catalog"
)

type SummaryResource struct {
	Catalog catalog.Reader
}

func NewSummaryResource(reader catalog.Reader) *SummaryResource {
	return &SummaryResource{Catalog: reader}
}

func (rs *SummaryResource) get(w http.ResponseWriter, r *http.Request) {
	summary, err := rs.Catalog.Summary(r.Context())
	if err != nil {
		log(r).WithError(err).Error("catalog summary")
		render.Render(w, r, httperr.FromError(err))
		return
	}
	if summary.Modalities == nil {
		summary.Modalities = []catalog.ModalityCount{}
	}
	render.JSON(w, r, summary)
}
