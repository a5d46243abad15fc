package dicomweb

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/go-chi/render"

	"dicom-archive/api/app"
	"dicom-archive/api/httperr"
	"dicom-archive/catalog"
	"dicom-archive/dicom"
	"dicom-archive/fs"
	"dicom-archive/models"
	"dicom-archive/utils"
)

type RequestType int

const (
	requestTypeDefault RequestType = iota
	requestTypeMetadata
	requestTypeRendered
)

func withRequestType(t RequestType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxRequestType, t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WADOResource implements the retrieve handlers.
type WADOResource struct {
	Reader   catalog.Reader
	Renderer app.Renderer
	Files    *fs.Resolver
	Decoder  dicom.Decoder
}

// NewWADOResource creates and returns a WADOResource.
func NewWADOResource(reader catalog.Reader, renderer app.Renderer, files *fs.Resolver, decoder dicom.Decoder) *WADOResource {
	return &WADOResource{Reader: reader, Renderer: renderer, Files: files, Decoder: decoder}
}

func (rs *WADOResource) study(w http.ResponseWriter, r *http.Request) {
	study := r.Context().Value(ctxStudy).(*models.Study)

	seriesList, err := rs.Reader.ListSeries(r.Context(), study.ID)
	if err != nil {
		render.Render(w, r, httperr.FromError(err))
		return
	}
	var images []*models.Image
	for _, series := range seriesList {
		list, err := rs.Reader.ListImages(r.Context(), series.ID)
		if err != nil {
			render.Render(w, r, httperr.FromError(err))
			return
		}
		images = append(images, list...)
	}
	rs.respond(w, r, images)
}

func (rs *WADOResource) series(w http.ResponseWriter, r *http.Request) {
	series := r.Context().Value(ctxSeries).(*models.Series)

	images, err := rs.Reader.ListImages(r.Context(), series.ID)
	if err != nil {
		render.Render(w, r, httperr.FromError(err))
		return
	}
	rs.respond(w, r, images)
}

func (rs *WADOResource) instance(w http.ResponseWriter, r *http.Request) {
	img := r.Context().Value(ctxInstance).(*models.Image)
	rs.respond(w, r, []*models.Image{img})
}

func (rs *WADOResource) respond(w http.ResponseWriter, r *http.Request, images []*models.Image) {
	if len(images) == 0 {
		render.Render(w, r, httperr.ErrNotFound)
		return
	}

	requestType, _ := r.Context().Value(ctxRequestType).(RequestType)
	switch requestType {
	case requestTypeMetadata:
		rs.metadata(w, r, images)
	case requestTypeRendered:
		rs.rendered(w, r, images[0])
	default:
		rs.stream(w, r, images)
	}
}

func (rs *WADOResource) rendered(w http.ResponseWriter, r *http.Request, img *models.Image) {
	res, err := rs.Renderer.Render(r.Context(), img.Path, app.RenderOptions(r))
	if err != nil {
		log(r).WithError(err).WithField("sop_instance_uid", img.SOPInstanceUID).Warn("render instance")
		render.Render(w, r, httperr.FromError(err))
		return
	}
	app.WriteImage(w, res)
}

func (rs *WADOResource) metadata(w http.ResponseWriter, r *http.Request, images []*models.Image) {
	responseData := make([]map[string]any, 0, len(images))
	for _, img := range images {
		ds, err := rs.decode(img.Path)
		if err != nil {
			log(r).WithError(err).WithField("sop_instance_uid", img.SOPInstanceUID).Warn("read metadata")
			render.Render(w, r, httperr.FromError(err))
			return
		}
		responseData = append(responseData, utils.FormatElements(ds.Elements()))
	}
	render.Respond(w, r, responseData)
}

func (rs *WADOResource) decode(ref string) (dicom.Dataset, error) {
	f, err := rs.Files.Open(ref)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return rs.Decoder.Decode(f, info.Size())
}

// stream writes the stored files as multipart/related. Errors before
// the first part are rendered; later ones can only end the stream.
func (rs *WADOResource) stream(w http.ResponseWriter, r *http.Request, images []*models.Image) {
	mw := multipart.NewWriter(w)

	partHeaders := textproto.MIMEHeader{}
	partHeaders.Set("Content-Type", mediaTypeDICOM)

	for i, img := range images {
		file, err := rs.Files.Open(img.Path)
		if err != nil {
			log(r).WithError(err).WithField("sop_instance_uid", img.SOPInstanceUID).Error("open stored file")
			if i == 0 {
				render.Render(w, r, httperr.FromError(err))
			}
			return
		}
		if i == 0 {
			w.Header().Set("Content-Type", fmt.Sprintf("%s; type=%q; boundary=%s", mediaTypeMultipart, mediaTypeDICOM, mw.Boundary()))
			w.WriteHeader(http.StatusOK)
		}

		partWriter, err := mw.CreatePart(partHeaders)
		if err == nil {
			_, err = io.Copy(partWriter, file)
		}
		file.Close()
		if err != nil {
			log(r).WithError(err).WithField("sop_instance_uid", img.SOPInstanceUID).Error("write part")
			return
		}
	}

	if err := mw.Close(); err != nil {
		log(r).WithError(err).Error("close multipart response")
	}
}
