package catalog

import (
	"context"
	"errors"
	"testing"

	"dicom-archive/dicom"
)

func seedCatalog(t *testing.T) *MemStore {
	t.Helper()
	store := NewMemStore()
	r, _ := newTestResolver(store)
	ctx := context.Background()

	ingest := func(values map[string]any) {
		t.Helper()
		ds := dicom.NewObject(values)
		if _, err := r.Ingest(ctx, ds, "ACC/"+dicom.String(ds, "SOPInstanceUID")+".dcm"); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}

	for _, img := range []struct {
		sop, series, seriesNumber, instance string
	}{
		{"1.3", "1.2.840.1.9", "5", "2"},
		{"1.1", "1.2.840.1.1", "1", "2"},
		{"1.2", "1.2.840.1.1", "1", "1"},
		{"1.4", "1.2.840.1.9", "5", "1"},
	} {
		values := sampleDataset(img.sop)
		values["SeriesInstanceUID"] = img.series
		values["SeriesNumber"] = img.seriesNumber
		values["InstanceNumber"] = img.instance
		ingest(values)
	}

	other := sampleDataset("2.1")
	other["PatientID"] = "P002"
	other["PatientName"] = "Roe^Richard"
	other["StudyInstanceUID"] = "1.2.840.2"
	other["SeriesInstanceUID"] = "1.2.840.2.1"
	other["StudyDate"] = "20240301"
	other["Modality"] = "MR"
	ingest(other)

	// second study of P001 under the same accession: the link becomes ambiguous
	dup := sampleDataset("3.1")
	dup["StudyInstanceUID"] = "1.2.840.3"
	dup["SeriesInstanceUID"] = "1.2.840.3.1"
	dup["AccessionNumber"] = "ACC-DUP"
	ingest(dup)
	dup2 := sampleDataset("3.2")
	dup2["StudyInstanceUID"] = "1.2.840.4"
	dup2["SeriesInstanceUID"] = "1.2.840.4.1"
	dup2["AccessionNumber"] = "ACC-DUP"
	ingest(dup2)
	return store
}

func TestLoadStudyOrdering(t *testing.T) {
	store := seedCatalog(t)
	detail, err := LoadStudy(context.Background(), store, "1.2.840.1")
	if err != nil {
		t.Fatalf("LoadStudy: %v", err)
	}
	if detail.Patient.PatientID != "P001" {
		t.Errorf("patient = %q", detail.Patient.PatientID)
	}
	if len(detail.Series) != 2 || detail.Series[0].SeriesNumber != 1 {
		t.Fatalf("series order wrong: %+v", detail.Series)
	}
	var got []string
	for _, img := range detail.Images() {
		got = append(got, img.SOPInstanceUID)
	}
	want := []string{"1.2", "1.1", "1.4", "1.3"}
	if len(got) != len(want) {
		t.Fatalf("images = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("images = %v, want %v", got, want)
			break
		}
	}

	if _, err := LoadStudy(context.Background(), store, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveLink(t *testing.T) {
	store := seedCatalog(t)
	ctx := context.Background()

	link, err := ResolveLink(ctx, store, LinkRequest{PatientID: "P001", AccessionNumber: "ACC-1", SOPInstanceUID: "1.4"})
	if err != nil {
		t.Fatalf("ResolveLink: %v", err)
	}
	if link.StudyInstanceUID != "1.2.840.1" || link.InitialImage != "1.4" || link.InitialImagePath != "ACC/1.4.dcm" {
		t.Errorf("link = %+v", link)
	}

	link, err = ResolveLink(ctx, store, LinkRequest{PatientID: "P001", AccessionNumber: "ACC-1", SOPInstanceUID: "2.1"})
	if err != nil {
		t.Fatal(err)
	}
	if link.InitialImage != "1.2" {
		t.Errorf("foreign image should fall back to the first image, got %q", link.InitialImage)
	}

	if _, err := ResolveLink(ctx, store, LinkRequest{PatientID: "P404", AccessionNumber: "ACC-1"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := ResolveLink(ctx, store, LinkRequest{PatientID: "P001", AccessionNumber: "ACC-DUP"}); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("err = %v, want ErrAmbiguous", err)
	}
}

func TestSearchStudies(t *testing.T) {
	store := seedCatalog(t)
	ctx := context.Background()

	rows, err := store.SearchStudies(ctx, StudyFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if rows[0].StudyInstanceUID != "1.2.840.2" {
		t.Errorf("newest study first, got %q", rows[0].StudyInstanceUID)
	}

	rows, _ = store.SearchStudies(ctx, StudyFilter{PatientName: "roe"})
	if len(rows) != 1 || rows[0].PatientID != "P002" {
		t.Errorf("name filter = %+v", rows)
	}
	rows, _ = store.SearchStudies(ctx, StudyFilter{AccessionNumber: "dup", Limit: 1})
	if len(rows) != 1 {
		t.Errorf("limit not applied: %d rows", len(rows))
	}
	rows, _ = store.SearchStudies(ctx, StudyFilter{StudyDate: "20240301"})
	if len(rows) != 1 {
		t.Errorf("date filter = %d rows", len(rows))
	}
	rows, _ = store.SearchStudies(ctx, StudyFilter{Offset: 10})
	if len(rows) != 0 {
		t.Errorf("offset past end returned %d rows", len(rows))
	}
}

func TestSummaryModalities(t *testing.T) {
	store := seedCatalog(t)
	sum, err := store.Summary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Patients != 2 || sum.Studies != 4 || sum.Images != 7 {
		t.Errorf("summary = %+v", sum)
	}
	if len(sum.Modalities) != 2 || sum.Modalities[0].Modality != "CT" || sum.Modalities[0].Count != 4 {
		t.Errorf("modalities = %+v", sum.Modalities)
	}
}
