package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"dicom-archive/catalog"
	"dicom-archive/dicom"
	"dicom-archive/fs"
	"dicom-archive/ingest"
)

type mapDecoder map[string]dicom.Dataset

func (m mapDecoder) Decode(r io.Reader, size int64) (dicom.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if ds, ok := m[string(data)]; ok {
		return ds, nil
	}
	return nil, dicom.ErrInvalidEncoding
}

func TestIngestDir(t *testing.T) {
	files, err := fs.NewResolver(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := test.NewNullLogger()
	store := catalog.NewMemStore()
	dec := mapDecoder{"a": dicom.NewObject(map[string]any{
		"PatientID": "P1", "StudyInstanceUID": "1.2", "SeriesInstanceUID": "1.2.1",
		"AccessionNumber": "ACC", "SOPInstanceUID": "1.2.1.1",
	})}
	a := &archive{
		log:    logger,
		files:  files,
		store:  store,
		ingest: ingest.NewService(dec, fs.NewLayout(files), catalog.NewResolver(store, logger), logger),
	}

	src := t.TempDir()
	for name, body := range map[string]string{
		"a.dcm":          "a",
		"nested/b.dcm":   "a",
		"notes.txt":      "hello",
		"broken/bad.DCM": "zzz",
	} {
		p := filepath.Join(src, filepath.FromSlash(name))
		os.MkdirAll(filepath.Dir(p), 0o755)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	sum, err := ingestDir(context.Background(), a, src)
	if err != nil {
		t.Fatalf("ingestDir: %v", err)
	}
	if *sum != (ingestSummary{ingested: 1, duplicate: 1, failed: 1, skipped: 1}) {
		t.Errorf("summary = %+v", *sum)
	}
	if _, err := os.Stat(filepath.Join(files.Root(), "ACC", "1.2.1.1.dcm")); err != nil {
		t.Errorf("file not copied into the layout: %v", err)
	}

	if _, err := ingestDir(context.Background(), a, filepath.Join(src, "missing")); err == nil {
		t.Error("walking a missing directory succeeded")
	}
}
