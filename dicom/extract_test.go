package dicom

import "testing"

func TestString(t *testing.T) {
	ds := NewObject(map[string]any{
		"PatientID":       []string{"  P001 ", "P002"},
		"PatientName":     "Doe^John ",
		"AccessionNumber": []string{},
		"StudyID":         nil,
		"Rows":            []int{512},
		"RescaleSlope":    1.5,
		"Manufacturer":    []byte("ACME\x00"),
	})

	tests := []struct {
		keyword string
		want    string
	}{
		{"PatientID", "P001"},
		{"PatientName", "Doe^John"},
		{"AccessionNumber", ""},
		{"StudyID", ""},
		{"StudyDate", ""},
		{"Rows", "512"},
		{"RescaleSlope", "1.5"},
		{"Manufacturer", "ACME"},
	}
	for _, tt := range tests {
		if got := String(ds, tt.keyword); got != tt.want {
			t.Errorf("String(%s) = %q, want %q", tt.keyword, got, tt.want)
		}
	}
}

func TestInt(t *testing.T) {
	ds := NewObject(map[string]any{
		"Rows":              []int{512, 1},
		"Columns":           256,
		"InstanceNumber":    []string{" 7 "},
		"SeriesNumber":      "abc",
		"NumberOfFrames":    "",
		"AcquisitionNumber": []float64{3.9},
		"BitsAllocated":     []uint16{16},
		"SamplesPerPixel":   nil,
	})

	tests := []struct {
		keyword string
		want    int
	}{
		{"Rows", 512},
		{"Columns", 256},
		{"InstanceNumber", 7},
		{"SeriesNumber", 0},
		{"NumberOfFrames", 0},
		{"AcquisitionNumber", 3},
		{"BitsAllocated", 16},
		{"SamplesPerPixel", 0},
		{"Missing", 0},
	}
	for _, tt := range tests {
		if got := Int(ds, tt.keyword); got != tt.want {
			t.Errorf("Int(%s) = %d, want %d", tt.keyword, got, tt.want)
		}
	}
}

func TestFloat(t *testing.T) {
	ds := NewObject(map[string]any{
		"WindowCenter":     []string{"40", "400"},
		"WindowWidth":      `350\1500`,
		"RescaleSlope":     []float64{2},
		"RescaleIntercept": "bogus",
	})

	if v, ok := Float(ds, "WindowCenter"); !ok || v != 40 {
		t.Errorf("WindowCenter = %v, %v, want 40, true", v, ok)
	}
	if v, ok := Float(ds, "WindowWidth"); !ok || v != 350 {
		t.Errorf("WindowWidth = %v, %v, want 350, true", v, ok)
	}
	if v, ok := Float(ds, "RescaleSlope"); !ok || v != 2 {
		t.Errorf("RescaleSlope = %v, %v, want 2, true", v, ok)
	}
	if _, ok := Float(ds, "RescaleIntercept"); ok {
		t.Error("unparseable RescaleIntercept reported as present")
	}
	if _, ok := Float(ds, "Missing"); ok {
		t.Error("absent element reported as present")
	}
}

func TestNilDataset(t *testing.T) {
	if got := String(nil, "PatientID"); got != "" {
		t.Errorf("String(nil) = %q", got)
	}
	if got := Int(nil, "Rows"); got != 0 {
		t.Errorf("Int(nil) = %d", got)
	}
}
