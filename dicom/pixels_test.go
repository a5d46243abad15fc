package dicom

import (
	"errors"
	"testing"
)

func TestPixelArrayIndex(t *testing.T) {
	px := &PixelArray{Shape: []int{3, 2, 2}, Data: []float64{
		1, 2, 3, 4,
		50, 60, 70, 80,
		900, 900, 900, 900,
	}}

	frame, err := px.Index(1)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(frame.Shape) != 2 || frame.Shape[0] != 2 || frame.Shape[1] != 2 {
		t.Fatalf("shape = %v, want [2 2]", frame.Shape)
	}
	want := []float64{50, 60, 70, 80}
	for i, v := range want {
		if frame.Data[i] != v {
			t.Errorf("data[%d] = %v, want %v", i, frame.Data[i], v)
		}
	}

	frame.Data[0] = -1
	if px.Data[4] != 50 {
		t.Error("Index shares storage with the source array")
	}

	if _, err := px.Index(3); err == nil {
		t.Error("expected out of range error")
	}
}

func TestPixelArrayMinMax(t *testing.T) {
	px := &PixelArray{Shape: []int{2, 2}, Data: []float64{5, -3, 12, 0}}
	lo, hi := px.MinMax()
	if lo != -3 || hi != 12 {
		t.Errorf("MinMax = %v, %v, want -3, 12", lo, hi)
	}
}

func TestPixelArrayValidate(t *testing.T) {
	if err := NewPixelArray(2, 3).Validate(); err != nil {
		t.Errorf("valid array rejected: %v", err)
	}
	bad := &PixelArray{Shape: []int{2, 3}, Data: make([]float64, 5)}
	if err := bad.Validate(); err == nil {
		t.Error("mismatched array accepted")
	}
}

func TestObjectPixels(t *testing.T) {
	if _, err := NewObject(nil).Pixels(); !errors.Is(err, ErrNoPixelData) {
		t.Errorf("err = %v, want ErrNoPixelData", err)
	}
	obj := NewObject(nil).WithPixels(NewPixelArray(1, 1))
	if _, err := obj.Pixels(); err != nil {
		t.Errorf("Pixels: %v", err)
	}
}

func TestObjectElements(t *testing.T) {
	obj := NewObject(map[string]any{
		"SOPInstanceUID": "1.2.3",
		"PatientID":      "P1",
	})
	elements := obj.Elements()
	if len(elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(elements))
	}
	if elements[0].Keyword != "SOPInstanceUID" || elements[0].Tag != "00080018" {
		t.Errorf("first element = %+v", elements[0])
	}
	if elements[1].VR != "LO" {
		t.Errorf("PatientID VR = %q, want LO", elements[1].VR)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := NewParser().DecodeBytes([]byte("definitely not a dicom file"))
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("err = %v, want ErrInvalidEncoding", err)
	}
}
