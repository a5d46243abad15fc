package dicomweb

import (
	"fmt"
	"net/http"
	"path"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-archive/api/httperr"
	"dicom-archive/catalog"
	"dicom-archive/models"
	"dicom-archive/utils"
)

// defaultQIDOLimit applies when the request names no limit.
const defaultQIDOLimit = 10

// QIDOResource implements the search handlers.
type QIDOResource struct {
	Reader catalog.Reader
}

// NewQIDOResource creates and returns a QIDOResource.
func NewQIDOResource(reader catalog.Reader) *QIDOResource {
	return &QIDOResource{Reader: reader}
}

type QIDOResponse []map[string]any

// newQIDOResponse formats each result with the attributes of its parents
// merged in, as a flat DICOM JSON object.
func newQIDOResponse(results [][]models.DicomObject, rd *QIDORequest) QIDOResponse {
	s := make(QIDOResponse, 0, len(results))
	for _, objects := range results {
		formatted := make([]map[string]any, 0, len(objects))
		for i := len(objects) - 1; i >= 0; i-- {
			formatted = append(formatted, utils.FormatDicomObject(objects[i], rd.IncludedFields, rd.IncludeAllFields))
		}
		s = append(s, utils.MergeObjects(formatted...))
	}
	return s
}

type QIDORequest struct {
	Limit            int
	Offset           int
	IncludedFields   map[tag.Tag]bool
	IncludeAllFields bool
	Filters          map[tag.Tag][]string
}

func getQIDORequest(r *http.Request) *QIDORequest {
	data := &QIDORequest{
		Limit:          defaultQIDOLimit,
		IncludedFields: map[tag.Tag]bool{},
		Filters:        map[tag.Tag][]string{},
	}

	explicit := false
	for key, value := range r.URL.Query() {
		switch key {
		case "limit":
			if limit, err := strconv.Atoi(value[0]); err == nil && limit > 0 {
				data.Limit = limit
			}
		case "offset":
			if offset, err := strconv.Atoi(value[0]); err == nil && offset >= 0 {
				data.Offset = offset
			}
		case "includefield":
			explicit = true
			for _, fields := range value {
				for _, field := range strings.Split(fields, ",") {
					if field == "all" {
						data.IncludeAllFields = true
						continue
					}
					if fieldTag, err := utils.GetTagByNameOrCode(field); err == nil {
						data.IncludedFields[fieldTag] = true
					}
				}
			}
		default:
			fieldTag, err := utils.GetTagByNameOrCode(key)
			if err != nil {
				continue
			}
			data.Filters[fieldTag] = append(data.Filters[fieldTag], strings.Split(value[0], ",")...)
			// a filtered attribute is always returned
			data.IncludedFields[fieldTag] = true
		}
	}

	if !explicit {
		data.IncludeAllFields = true
	}
	return data
}

// studyFilter moves the filters the catalog can evaluate into a StudyFilter.
// The remaining ones are matched against the returned rows.
func (rd *QIDORequest) studyFilter() (catalog.StudyFilter, map[tag.Tag][]string) {
	f := catalog.StudyFilter{}
	rest := map[tag.Tag][]string{}
	for t, values := range rd.Filters {
		if len(values) != 1 || strings.ContainsAny(values[0], "*?") {
			rest[t] = values
			continue
		}
		switch t {
		case tag.StudyInstanceUID:
			f.StudyInstanceUID = values[0]
		case tag.PatientID:
			f.PatientID = values[0]
		case tag.PatientName:
			f.PatientName = values[0]
		case tag.AccessionNumber:
			f.AccessionNumber = values[0]
		case tag.StudyDate:
			f.StudyDate = values[0]
		default:
			rest[t] = values
		}
	}
	return f, rest
}

func (rs *QIDOResource) studies(w http.ResponseWriter, r *http.Request) {
	requestData := getQIDORequest(r)
	filter, rest := requestData.studyFilter()

	// catalog paging only holds when nothing is filtered afterwards
	if len(rest) == 0 {
		filter.Limit, filter.Offset = requestData.Limit, requestData.Offset
	} else {
		filter.Limit = maxInMemoryMatches
	}

	rows, err := rs.Reader.SearchStudies(r.Context(), filter)
	if err != nil {
		log(r).WithError(err).Error("search studies")
		render.Render(w, r, httperr.FromError(err))
		return
	}

	var results [][]models.DicomObject
	for _, row := range rows {
		study := row.Study
		patient := &models.Patient{PatientID: row.PatientID, PatientName: row.PatientName, PatientSex: row.PatientSex}
		results = append(results, []models.DicomObject{&study, patient})
	}
	if len(rest) > 0 {
		results = page(matchAll(results, rest), requestData.Offset, requestData.Limit)
	}
	render.Respond(w, r, newQIDOResponse(results, requestData))
}

func (rs *QIDOResource) series(w http.ResponseWriter, r *http.Request) {
	requestData := getQIDORequest(r)
	study := r.Context().Value(ctxStudy).(*models.Study)

	seriesList, err := rs.Reader.ListSeries(r.Context(), study.ID)
	if err != nil {
		log(r).WithError(err).Error("list series")
		render.Render(w, r, httperr.FromError(err))
		return
	}

	results := make([][]models.DicomObject, 0, len(seriesList))
	for _, series := range seriesList {
		results = append(results, []models.DicomObject{series, study})
	}
	results = page(matchAll(results, requestData.Filters), requestData.Offset, requestData.Limit)
	render.Respond(w, r, newQIDOResponse(results, requestData))
}

func (rs *QIDOResource) instances(w http.ResponseWriter, r *http.Request) {
	requestData := getQIDORequest(r)
	study := r.Context().Value(ctxStudy).(*models.Study)
	series := r.Context().Value(ctxSeries).(*models.Series)

	images, err := rs.Reader.ListImages(r.Context(), series.ID)
	if err != nil {
		log(r).WithError(err).Error("list images")
		render.Render(w, r, httperr.FromError(err))
		return
	}

	results := make([][]models.DicomObject, 0, len(images))
	for _, img := range images {
		results = append(results, []models.DicomObject{img, series, study})
	}
	results = page(matchAll(results, requestData.Filters), requestData.Offset, requestData.Limit)
	render.Respond(w, r, newQIDOResponse(results, requestData))
}

// maxInMemoryMatches bounds the studies fetched when filters are evaluated
// outside the catalog.
const maxInMemoryMatches = 1000

// matchAll keeps the results whose attributes satisfy every filter. A filter
// on an attribute the catalog does not hold is ignored. Values may use the
// * and ? wildcards.
func matchAll(results [][]models.DicomObject, filters map[tag.Tag][]string) [][]models.DicomObject {
	if len(filters) == 0 {
		return results
	}
	var out [][]models.DicomObject
	for _, objects := range results {
		attrs := attributes(objects...)
		ok := true
		for t, values := range filters {
			v, known := attrs[t]
			if known && !matchAny(v, values) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, objects)
		}
	}
	return out
}

func matchAny(value string, patterns []string) bool {
	for _, p := range patterns {
		if strings.ContainsAny(p, "*?") {
			if ok, err := path.Match(strings.ToLower(p), strings.ToLower(value)); err == nil && ok {
				return true
			}
			continue
		}
		if value == p {
			return true
		}
	}
	return false
}

// attributes flattens the dicom-tagged fields of objects. Earlier objects
// win.
func attributes(objects ...models.DicomObject) map[tag.Tag]string {
	attrs := map[tag.Tag]string{}
	for _, object := range objects {
		rv := reflect.ValueOf(object).Elem()
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			tagInfo, err := tag.FindByName(rt.Field(i).Tag.Get("dicom"))
			if err != nil {
				continue
			}
			if _, seen := attrs[tagInfo.Tag]; !seen {
				attrs[tagInfo.Tag] = fmt.Sprint(rv.Field(i).Interface())
			}
		}
	}
	return attrs
}

func page(results [][]models.DicomObject, offset, limit int) [][]models.DicomObject {
	if offset >= len(results) {
		return nil
	}
	results = results[offset:]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
