package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"dicom-archive/catalog"
	"dicom-archive/dicom"
	"dicom-archive/fs"
	pixels "dicom-archive/render"
)

type stubRenderer struct {
	err     error
	gotRef  string
	gotOpts pixels.Options
}

func (s *stubRenderer) Render(ctx context.Context, ref string, opts pixels.Options) (*pixels.Result, error) {
	s.gotRef, s.gotOpts = ref, opts
	if s.err != nil {
		return nil, s.err
	}
	w := pixels.Window{Level: 40, Width: 400}
	if opts.WindowLevel != nil {
		w.Level = *opts.WindowLevel
	}
	return &pixels.Result{Image: []byte("png"), ContentType: pixels.ContentType, Window: w, Enhanced: opts.Enhance}, nil
}

func (s *stubRenderer) DefaultWindow(ctx context.Context, ref string) (pixels.Window, error) {
	s.gotRef = ref
	if s.err != nil {
		return pixels.Window{}, s.err
	}
	return pixels.Window{Level: 40.5, Width: 400}, nil
}

func newTestAPI(t *testing.T, renderer Renderer) *API {
	t.Helper()
	store := catalog.NewMemStore()
	logger, _ := test.NewNullLogger()
	resolver := catalog.NewResolver(store, logger)
	for _, values := range []map[string]any{
		{"PatientID": "P1", "PatientName": "Doe^Jane", "StudyInstanceUID": "1.1", "AccessionNumber": "A1",
			"StudyDate": "20240101", "SeriesInstanceUID": "1.1.1", "Modality": "CT", "SOPInstanceUID": "1.1.1.1"},
		{"PatientID": "P2", "PatientName": "Roe^Rick", "StudyInstanceUID": "2.1", "AccessionNumber": "A2",
			"StudyDate": "20240202", "SeriesInstanceUID": "2.1.1", "Modality": "MR", "SOPInstanceUID": "2.1.1.1"},
	} {
		ds := dicom.NewObject(values)
		ref, _ := fs.RelativePath(ds)
		if _, err := resolver.Ingest(context.Background(), ds, ref); err != nil {
			t.Fatal(err)
		}
	}
	api, err := NewAPI(store, renderer)
	if err != nil {
		t.Fatal(err)
	}
	return api
}

func do(t *testing.T, api *API, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSearchStudies(t *testing.T) {
	api := newTestAPI(t, &stubRenderer{})

	rec := do(t, api, "/studies")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var rows []catalog.StudyRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].StudyInstanceUID != "2.1" {
		t.Errorf("rows = %+v", rows)
	}

	rec = do(t, api, "/studies?patient_name=doe")
	rows = nil
	json.Unmarshal(rec.Body.Bytes(), &rows)
	if len(rows) != 1 || rows[0].PatientID != "P1" {
		t.Errorf("filtered rows = %+v", rows)
	}

	rec = do(t, api, "/studies?patient_id=nobody")
	if rec.Body.String() != "[]\n" {
		t.Errorf("empty search body = %q", rec.Body.String())
	}
}

func TestGetStudy(t *testing.T) {
	api := newTestAPI(t, &stubRenderer{})

	rec := do(t, api, "/studies/1.1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var detail catalog.StudyDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatal(err)
	}
	if detail.Patient.PatientID != "P1" || len(detail.Series) != 1 {
		t.Fatalf("detail = %+v", detail)
	}
	if images := detail.Images(); len(images) != 1 || images[0].Path != "A1/1.1.1.1.dcm" {
		t.Errorf("images = %+v", images)
	}

	if rec := do(t, api, "/studies/9.9"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown study status = %d", rec.Code)
	}
}

func TestStudyLink(t *testing.T) {
	api := newTestAPI(t, &stubRenderer{})

	tests := []struct {
		target string
		status int
	}{
		{"/studyid?patient_id=P1&accession_number=A1", http.StatusOK},
		{"/studyid?patient_id=P1&accession_number=A2", http.StatusNotFound},
		{"/studyid?patient_id=P1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := do(t, api, tt.target); rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.target, rec.Code, tt.status)
		}
	}

	rec := do(t, api, "/studyid?patient_id=P1&accession_number=A1&image_sop_instance_uid=1.1.1.1")
	var link catalog.Link
	json.Unmarshal(rec.Body.Bytes(), &link)
	if link.StudyInstanceUID != "1.1" || link.InitialImagePath != "A1/1.1.1.1.dcm" {
		t.Errorf("link = %+v", link)
	}
}

func TestSummary(t *testing.T) {
	rec := do(t, newTestAPI(t, &stubRenderer{}), "/summary")
	var sum catalog.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Patients != 2 || sum.Images != 2 || len(sum.Modalities) != 2 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestImageData(t *testing.T) {
	renderer := &stubRenderer{}
	api := newTestAPI(t, renderer)

	rec := do(t, api, "/image_data/A1/1.1.1.1.dcm?wl=30&ww=abc&enhance=CLAHE")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if renderer.gotRef != "A1/1.1.1.1.dcm" {
		t.Errorf("ref = %q", renderer.gotRef)
	}
	if renderer.gotOpts.WindowWidth != nil || !renderer.gotOpts.Enhance {
		t.Errorf("options = %+v", renderer.gotOpts)
	}
	h := rec.Header()
	if h.Get("Content-Type") != "image/png" || h.Get(HeaderCurrentWL) != "30" || h.Get(HeaderCurrentWW) != "400" || h.Get(HeaderCurrentEnhance) != "true" {
		t.Errorf("headers = %v", h)
	}
	if rec.Body.String() != "png" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestImageDataErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fs.ErrPathTraversal, http.StatusForbidden},
		{fs.ErrFileNotFound, http.StatusNotFound},
		{dicom.ErrInvalidEncoding, http.StatusUnprocessableEntity},
		{pixels.ErrNoPixelData, http.StatusUnprocessableEntity},
		{pixels.ErrUnsupportedPixelShape, http.StatusUnprocessableEntity},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		api := newTestAPI(t, &stubRenderer{err: tt.err})
		if rec := do(t, api, "/image_data/x.dcm"); rec.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
		if rec := do(t, api, "/image_metadata/x.dcm"); rec.Code != tt.status {
			t.Errorf("metadata %v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
	}
}

func TestImageMetadata(t *testing.T) {
	rec := do(t, newTestAPI(t, &stubRenderer{}), "/image_metadata/A1/1.1.1.1.dcm")
	var meta ImageMetadataResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &meta); err != nil {
		t.Fatal(err)
	}
	if meta != (ImageMetadataResponse{DefaultWL: 40.5, DefaultWW: 400, Filename: "A1/1.1.1.1.dcm"}) {
		t.Errorf("metadata = %+v", meta)
	}
}
