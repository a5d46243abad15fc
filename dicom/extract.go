package dicom

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// String returns the element as a trimmed string. Absent or null elements
// yield "", multi-valued elements yield their first value.
func String(ds Dataset, keyword string) string {
	v, ok := lookup(ds, keyword)
	if !ok {
		return ""
	}
	return strings.TrimSpace(scalarString(v))
}

// Int returns the element as an integer. Absent, null or non-numeric
// elements yield 0, multi-valued elements yield their first value.
func Int(ds Dataset, keyword string) int {
	v, ok := lookup(ds, keyword)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case int:
		return t
	case int8:
		return int(t)
	case int16:
		return int(t)
	case int32:
		return int(t)
	case int64:
		return int(t)
	case uint8:
		return int(t)
	case uint16:
		return int(t)
	case uint32:
		return int(t)
	case uint64:
		return int(t)
	case float32:
		return truncate(float64(t))
	case float64:
		return truncate(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// Float returns the element as a float64 and whether a numeric value was
// present. Decimal strings holding several backslash separated values yield
// the first one.
func Float(ds Dataset, keyword string) (float64, bool) {
	v, ok := lookup(ds, keyword)
	if !ok {
		return 0, false
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case string:
		s := strings.TrimSpace(strings.SplitN(t, `\`, 2)[0])
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// lookup fetches the value and reduces multi-valued elements to their first
// entry. Byte strings are kept whole.
func lookup(ds Dataset, keyword string) (any, bool) {
	if ds == nil {
		return nil, false
	}
	v, ok := ds.Value(keyword)
	if !ok || v == nil {
		return nil, false
	}
	if b, isBytes := v.([]byte); isBytes {
		return strings.TrimRight(string(b), "\x00 "), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Len() == 0 {
			return nil, false
		}
		first := rv.Index(0)
		if first.Kind() == reflect.Interface || first.Kind() == reflect.Pointer {
			if first.IsNil() {
				return nil, false
			}
		}
		return first.Interface(), true
	}
	return v, true
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func truncate(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}
