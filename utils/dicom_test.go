package utils

import (
	"reflect"
	"testing"

	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-archive/dicom"
	"dicom-archive/models"
)

func TestGetTagByNameOrCode(t *testing.T) {
	for _, in := range []string{"PatientID", "00100020"} {
		got, err := GetTagByNameOrCode(in)
		if err != nil || got != tag.PatientID {
			t.Errorf("GetTagByNameOrCode(%q) = %v, %v", in, got, err)
		}
	}
	for _, in := range []string{"", "NotATag", "0010002"} {
		if _, err := GetTagByNameOrCode(in); err == nil {
			t.Errorf("GetTagByNameOrCode(%q) succeeded", in)
		}
	}
}

func TestFormatValueForResponse(t *testing.T) {
	tests := []struct {
		vr    string
		value any
		want  []any
	}{
		{"UI", "1.2.3", []any{"1.2.3"}},
		{"CS", `ORIGINAL\PRIMARY`, []any{"ORIGINAL", "PRIMARY"}},
		{"LO", "  ", nil},
		{"IS", 7, []any{7}},
		{"DS", []float64{0.5, 1.5}, []any{0.5, 1.5}},
		{"PN", []string{"Doe^Jane"}, []any{&PatientNameValueStruct{Alphabetic: "Doe^Jane"}}},
		{"OB", []byte("AB\x00"), []any{"AB"}},
		{"LO", nil, nil},
	}
	for _, tc := range tests {
		if got := FormatValueForResponse(tc.vr, tc.value); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("FormatValueForResponse(%s, %#v) = %#v, want %#v", tc.vr, tc.value, got, tc.want)
		}
	}
}

func TestFormatDicomObject(t *testing.T) {
	s := &models.Series{SeriesInstanceUID: "1.2.3", Modality: "MR", SeriesNumber: 4, Path: "x"}

	all := FormatDicomObject(s, nil, true)
	if _, ok := all["0020000E"]; !ok {
		t.Errorf("SeriesInstanceUID missing: %v", all)
	}
	for k := range all {
		if len(k) != 8 {
			t.Errorf("unexpected key %q", k)
		}
	}
	desc := all["0008103E"].(map[string]any)
	if _, ok := desc["Value"]; ok {
		t.Errorf("empty SeriesDescription has a Value: %v", desc)
	}

	some := FormatDicomObject(s, map[tag.Tag]bool{tag.Modality: true}, false)
	if len(some) != 1 {
		t.Fatalf("got %d attributes, want 1", len(some))
	}
	modality := some["00080060"].(map[string]any)
	if modality["vr"] != "CS" || !reflect.DeepEqual(modality["Value"], []any{"MR"}) {
		t.Errorf("Modality = %v", modality)
	}
}

func TestFormatElements(t *testing.T) {
	got := FormatElements([]dicom.Element{
		{Tag: "00100010", VR: "PN", Value: []string{"Roe^Rick"}},
		{Tag: "0028010a", VR: "US", Value: []int{16}},
	})
	if _, ok := got["0028010A"]; !ok {
		t.Errorf("keys not upper cased: %v", got)
	}
	name := got["00100010"].(map[string]any)["Value"].([]any)
	if name[0].(*PatientNameValueStruct).Alphabetic != "Roe^Rick" {
		t.Errorf("PatientName = %v", name)
	}
}

func TestMergeObjects(t *testing.T) {
	got := MergeObjects(map[string]any{"a": 1, "b": 1}, map[string]any{"b": 2})
	if got["a"] != 1 || got["b"] != 2 {
		t.Errorf("MergeObjects = %v", got)
	}
}
