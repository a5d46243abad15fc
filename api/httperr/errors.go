// Package httperr renders application errors as JSON responses.
package httperr

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"dicom-archive/catalog"
	pixels "dicom-archive/render"
)

// The list of error types returned from the resource handlers.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrTooLarge         = errors.New("request body too large")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// ErrResponse renderer type for handling all sorts of errors.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	ErrorText  string `json:"error,omitempty"` // application-level error message, for debugging
	Kind       string `json:"kind,omitempty"`
}

// Render sets the response status.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrInvalidRequest returns status 400 Bad Request for malformed request body.
func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     http.StatusText(http.StatusBadRequest),
		ErrorText:      err.Error(),
	}
}

var (
	// ErrNotFound returns status 404 Not Found for invalid resource request.
	ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: http.StatusText(http.StatusNotFound)}

	// ErrInternalServerError returns status 500 Internal Server Error.
	ErrInternalServerError = &ErrResponse{HTTPStatusCode: http.StatusInternalServerError, StatusText: http.StatusText(http.StatusInternalServerError)}
)

// StatusOf maps an application error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrAmbiguous):
		return http.StatusConflict
	}
	switch pixels.KindOf(err) {
	case pixels.KindPathTraversal:
		return http.StatusForbidden
	case pixels.KindFileNotFound:
		return http.StatusNotFound
	case pixels.KindInvalidEncoding, pixels.KindNoPixelData, pixels.KindUnsupportedPixelShape:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// FromError builds the response for err. Internal errors keep their cause
// out of the body.
func FromError(err error) render.Renderer {
	status := StatusOf(err)
	resp := &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
	}
	if status != http.StatusInternalServerError {
		resp.ErrorText = err.Error()
		if kind := pixels.KindOf(err); kind != pixels.KindOther {
			resp.Kind = string(kind)
		}
	}
	return resp
}
