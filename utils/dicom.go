// Package utils formats catalog records and data set elements as DICOM JSON
// and parses DICOMweb attribute references.
package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-archive/dicom"
	"dicom-archive/models"
)

var tagCode = regexp.MustCompile(`^[0-9a-fA-F]{8}$`)

// GetTagByNameOrCode accepts a keyword such as "PatientID" or a GGGGEEEE
// hex code.
func GetTagByNameOrCode(tagName string) (tag.Tag, error) {
	var (
		tagInfo tag.Info
		err     error
	)
	if tagCode.MatchString(tagName) {
		group, _ := strconv.ParseUint(tagName[0:4], 16, 16)
		elem, _ := strconv.ParseUint(tagName[4:], 16, 16)
		tagInfo, err = tag.Find(tag.Tag{Group: uint16(group), Element: uint16(elem)})
	} else {
		tagInfo, err = tag.FindByName(tagName)
	}
	if err != nil {
		return tag.Tag{}, fmt.Errorf("invalid tag name or code %q", tagName)
	}
	return tagInfo.Tag, nil
}

// TagKey is the DICOM JSON attribute key of t.
func TagKey(t tag.Tag) string {
	return fmt.Sprintf("%04X%04X", t.Group, t.Element)
}

type PatientNameValueStruct struct {
	Alphabetic  string `json:",omitempty"`
	Ideographic string `json:",omitempty"`
	Phonetic    string `json:",omitempty"`
}

// FormatValueForResponse converts a stored value to a DICOM JSON Value
// array. Empty values yield nil so the attribute is sent without Value.
func FormatValueForResponse(vr string, value any) []any {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return nil
	}
	if b, ok := value.([]byte); ok {
		value = strings.TrimRight(string(b), "\x00 ")
		rv = reflect.ValueOf(value)
	}

	var out []any
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			out = append(out, formatScalar(vr, rv.Index(i).Interface()))
		}
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		if s == "" {
			return nil
		}
		for _, part := range strings.Split(s, `\`) {
			out = append(out, formatScalar(vr, part))
		}
	default:
		out = append(out, formatScalar(vr, value))
	}
	return out
}

func formatScalar(vr string, v any) any {
	if vr == "PN" {
		return &PatientNameValueStruct{Alphabetic: strings.TrimSpace(fmt.Sprint(v))}
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return v
}

// FormatDicomObject renders the dicom-tagged fields of a catalog record.
// With includeAllFields false only the tags in includedFields are kept.
func FormatDicomObject(object models.DicomObject, includedFields map[tag.Tag]bool, includeAllFields bool) map[string]any {
	formatted := map[string]any{}

	rv := reflect.ValueOf(object)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return formatted
		}
		rv = rv.Elem()
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tagInfo, err := tag.FindByName(field.Tag.Get("dicom"))
		if err != nil {
			continue
		}
		if !includeAllFields && !includedFields[tagInfo.Tag] {
			continue
		}

		entry := map[string]any{"vr": tagInfo.VR}
		if value := FormatValueForResponse(tagInfo.VR, rv.Field(i).Interface()); value != nil {
			entry["Value"] = value
		}
		formatted[TagKey(tagInfo.Tag)] = entry
	}
	return formatted
}

// FormatElements renders data set elements as a DICOM JSON object.
func FormatElements(elements []dicom.Element) map[string]any {
	formatted := make(map[string]any, len(elements))
	for _, e := range elements {
		entry := map[string]any{"vr": e.VR}
		if value := FormatValueForResponse(e.VR, e.Value); value != nil {
			entry["Value"] = value
		}
		formatted[strings.ToUpper(e.Tag)] = entry
	}
	return formatted
}

// MergeObjects merges DICOM JSON objects, later ones winning.
func MergeObjects(objects ...map[string]any) map[string]any {
	merged := map[string]any{}
	for _, o := range objects {
		for k, v := range o {
			merged[k] = v
		}
	}
	return merged
}
