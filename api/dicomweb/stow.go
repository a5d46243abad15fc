package dicomweb

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dicom-archive/api/httperr"
	"dicom-archive/ingest"
	"dicom-archive/logging"
)

const (
	mediaTypeDICOM     = "application/dicom"
	mediaTypeMultipart = "multipart/related"

	defaultUploadMax = 512 << 20
)

// STOWResource implements the store handler.
type STOWResource struct {
	Ingester  Ingester
	UploadMax int64
}

// NewSTOWResource creates and returns a STOWResource.
func NewSTOWResource(ingester Ingester, uploadMax int64) *STOWResource {
	if uploadMax <= 0 {
		uploadMax = defaultUploadMax
	}
	return &STOWResource{Ingester: ingester, UploadMax: uploadMax}
}

type StoredInstance struct {
	SOPInstanceUID string `json:"sop_instance_uid"`
	Ref            string `json:"ref"`
	Created        bool   `json:"created"`
}

type FailedInstance struct {
	Part     int    `json:"part"`
	Reason   string `json:"reason"`
	Rejected bool   `json:"rejected"`
}

type STOWResponse struct {
	UploadID string           `json:"upload_id"`
	Stored   []StoredInstance `json:"stored"`
	Failed   []FailedInstance `json:"failed"`
}

// status is 200 when every part was stored, 202 when some were and 409
// when none were.
func (s *STOWResponse) status() int {
	switch {
	case len(s.Failed) == 0:
		return http.StatusOK
	case len(s.Stored) > 0:
		return http.StatusAccepted
	default:
		return http.StatusConflict
	}
}

func (rs *STOWResource) save(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > rs.UploadMax {
		render.Render(w, r, httperr.FromError(httperr.ErrTooLarge))
		return
	}
	body := http.MaxBytesReader(w, r.Body, rs.UploadMax)
	defer body.Close()

	uploadID := uuid.NewString()
	logging.LogEntrySetField(r, "upload_id", uploadID)

	parts, err := readParts(r.Header.Get("Content-Type"), body)
	if err != nil {
		log(r).WithError(err).Warn("read upload")
		render.Render(w, r, httperr.FromError(err))
		return
	}
	if len(parts) == 0 {
		render.Render(w, r, httperr.FromError(fmt.Errorf("%w: no DICOM parts in request", httperr.ErrBadRequest)))
		return
	}

	resp := &STOWResponse{UploadID: uploadID, Stored: []StoredInstance{}, Failed: []FailedInstance{}}
	for i, part := range parts {
		if part.err != nil {
			resp.Failed = append(resp.Failed, FailedInstance{Part: i, Reason: part.err.Error(), Rejected: true})
			continue
		}
		out, err := rs.Ingester.Store(r.Context(), part.data)
		if err != nil {
			rejected := ingest.Rejected(err)
			log(r).WithError(err).WithFields(logrus.Fields{"part": i, "rejected": rejected}).Warn("store part")
			resp.Failed = append(resp.Failed, FailedInstance{Part: i, Reason: err.Error(), Rejected: rejected})
			continue
		}
		resp.Stored = append(resp.Stored, StoredInstance{SOPInstanceUID: out.SOPInstanceUID, Ref: out.Ref, Created: out.Created})
	}

	log(r).WithFields(logrus.Fields{"stored": len(resp.Stored), "failed": len(resp.Failed)}).Info("upload complete")
	render.Status(r, resp.status())
	render.Respond(w, r, resp)
}

type uploadPart struct {
	data []byte
	err  error
}

// readParts returns the DICOM payloads of a request body: the whole body
// for application/dicom, each part for multipart/related. A part of another
// media type is kept as a failed part.
func readParts(contentType string, body io.Reader) ([]uploadPart, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httperr.ErrUnsupportedMedia, err)
	}

	switch mediaType {
	case mediaTypeDICOM:
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, bodyError(err)
		}
		return []uploadPart{{data: data}}, nil

	case mediaTypeMultipart:
		if t := params["type"]; t != "" && t != mediaTypeDICOM {
			return nil, fmt.Errorf("%w: multipart type %q", httperr.ErrUnsupportedMedia, t)
		}
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("%w: multipart boundary missing", httperr.ErrBadRequest)
		}

		var parts []uploadPart
		mr := multipart.NewReader(body, boundary)
		for {
			p, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return parts, nil
			}
			if err != nil {
				return nil, bodyError(err)
			}
			data, err := io.ReadAll(p)
			p.Close()
			if err != nil {
				return nil, bodyError(err)
			}
			if ct := p.Header.Get("Content-Type"); ct != "" {
				if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != mediaTypeDICOM {
					parts = append(parts, uploadPart{err: fmt.Errorf("%w: part of type %q", httperr.ErrUnsupportedMedia, ct)})
					continue
				}
			}
			parts = append(parts, uploadPart{data: data})
		}

	default:
		return nil, fmt.Errorf("%w: %s", httperr.ErrUnsupportedMedia, mediaType)
	}
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit %d bytes", httperr.ErrTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %v", httperr.ErrBadRequest, err)
}
