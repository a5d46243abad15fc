package app

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"dicom-archive/api/httperr"
	"dicom-archive/catalog"
)

// StudyResource implements the study handlers.
type StudyResource struct {
	Catalog catalog.Reader
}

// NewStudyResource creates and returns a StudyResource.
func NewStudyResource(reader catalog.Reader) *StudyResource {
	return &StudyResource{Catalog: reader}
}

func (rs *StudyResource) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.StudyFilter{
		PatientID:       q.Get("patient_id"),
		PatientName:     q.Get("patient_name"),
		AccessionNumber: q.Get("accession_number"),
		StudyDate:       q.Get("study_date"),
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		filter.Offset = v
	}

	rows, err := rs.Catalog.SearchStudies(r.Context(), filter)
	if err != nil {
		log(r).WithError(err).Error("search studies")
		render.Render(w, r, httperr.FromError(err))
		return
	}
	if rows == nil {
		rows = []*catalog.StudyRow{}
	}
	render.JSON(w, r, rows)
}

func (rs *StudyResource) get(w http.ResponseWriter, r *http.Request) {
	detail, err := catalog.LoadStudy(r.Context(), rs.Catalog, chi.URLParam(r, "studyUID"))
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			log(r).WithError(err).Error("load study")
		}
		render.Render(w, r, httperr.FromError(err))
		return
	}
	render.JSON(w, r, detail)
}

// link resolves an EMR deep link: patient_id and accession_number select the
// study, image_sop_instance_uid optionally names the image to open.
func (rs *StudyResource) link(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := catalog.LinkRequest{
		PatientID:       q.Get("patient_id"),
		AccessionNumber: q.Get("accession_number"),
		SOPInstanceUID:  q.Get("image_sop_instance_uid"),
	}
	if req.PatientID == "" || req.AccessionNumber == "" {
		render.Render(w, r, httperr.ErrInvalidRequest(errors.New("patient_id and accession_number are required")))
		return
	}

	link, err := catalog.ResolveLink(r.Context(), rs.Catalog, req)
	if err != nil {
		log(r).WithError(err).WithField("patient_id", req.PatientID).Warn("resolve link")
		render.Render(w, r, httperr.FromError(err))
		return
	}
	render.JSON(w, r, link)
}
