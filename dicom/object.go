package dicom

import (
	"fmt"
	"sort"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// Object is an in-memory Dataset keyed by element keyword. It backs synthetic
// objects and tests.
type Object struct {
	Values    map[string]any
	PixelData *PixelArray
}

// NewObject returns an Object holding values.
func NewObject(values map[string]any) *Object {
	if values == nil {
		values = map[string]any{}
	}
	return &Object{Values: values}
}

// WithPixels attaches pixel samples and returns the receiver.
func (o *Object) WithPixels(px *PixelArray) *Object {
	o.PixelData = px
	return o
}

func (o *Object) Value(keyword string) (any, bool) {
	v, ok := o.Values[keyword]
	return v, ok
}

func (o *Object) Pixels() (*PixelArray, error) {
	if o.PixelData == nil || o.PixelData.Len() == 0 {
		return nil, ErrNoPixelData
	}
	return o.PixelData, nil
}

func (o *Object) Elements() []Element {
	elements := make([]Element, 0, len(o.Values))
	for keyword, value := range o.Values {
		el := Element{Keyword: keyword, Value: value}
		if info, err := tag.FindByName(keyword); err == nil {
			el.Tag = fmt.Sprintf("%04X%04X", info.Tag.Group, info.Tag.Element)
			el.VR = info.VR
		}
		elements = append(elements, el)
	}
	sort.Slice(elements, func(i, j int) bool {
		if elements[i].Tag != elements[j].Tag {
			return elements[i].Tag < elements[j].Tag
		}
		return elements[i].Keyword < elements[j].Keyword
	})
	return elements
}
