package dicom

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // baseline JPEG encapsulated frames
	_ "image/png"
	"io"

	sdicom "github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Parser decodes DICOM Part 10 streams with github.com/suyashkumar/dicom.
type Parser struct{}

// NewParser returns a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Decode parses size bytes from r. Any parse failure is reported as
// ErrInvalidEncoding.
func (p *Parser) Decode(r io.Reader, size int64) (Dataset, error) {
	ds, err := sdicom.Parse(r, size, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return &parsedDataset{ds: ds}, nil
}

// DecodeBytes parses an in-memory Part 10 file.
func (p *Parser) DecodeBytes(data []byte) (Dataset, error) {
	return p.Decode(bytes.NewReader(data), int64(len(data)))
}

type parsedDataset struct {
	ds sdicom.Dataset
}

func (d *parsedDataset) Value(keyword string) (any, bool) {
	info, err := tag.FindByName(keyword)
	if err != nil {
		return nil, false
	}
	element, err := d.ds.FindElementByTag(info.Tag)
	if err != nil || element == nil || element.Value == nil {
		return nil, false
	}
	return element.Value.GetValue(), true
}

func (d *parsedDataset) Elements() []Element {
	var elements []Element
	for _, element := range d.ds.Elements {
		if element == nil || element.Value == nil {
			continue
		}
		if element.ValueRepresentation == tag.VRPixelData || element.ValueRepresentation == tag.VRSequence {
			continue
		}
		el := Element{
			Tag:   fmt.Sprintf("%04X%04X", element.Tag.Group, element.Tag.Element),
			Value: element.Value.GetValue(),
		}
		if info, err := tag.Find(element.Tag); err == nil {
			el.Keyword = info.Name
			el.VR = info.VR
		}
		elements = append(elements, el)
	}
	return elements
}

func (d *parsedDataset) Pixels() (*PixelArray, error) {
	element, err := d.ds.FindElementByTag(tag.PixelData)
	if err != nil || element == nil || element.Value == nil {
		return nil, ErrNoPixelData
	}
	info, ok := element.Value.GetValue().(sdicom.PixelDataInfo)
	if !ok || len(info.Frames) == 0 {
		return nil, ErrNoPixelData
	}

	signed := Int(d, "PixelRepresentation") == 1
	bitsStored := Int(d, "BitsStored")

	var (
		rows, cols, samples int
		data                []float64
	)
	for i, fr := range info.Frames {
		var (
			r, c, s int
			buf     []float64
		)
		if fr.Encapsulated {
			img, _, err := image.Decode(bytes.NewReader(fr.EncapsulatedData.Data))
			if err != nil {
				return nil, fmt.Errorf("%w: frame %d: %v", ErrInvalidEncoding, i, err)
			}
			r, c, s, buf = imageSamples(img)
		} else {
			r, c = fr.NativeData.Rows, fr.NativeData.Cols
			if len(fr.NativeData.Data) > 0 {
				s = len(fr.NativeData.Data[0])
			}
			bits := bitsStored
			if bits <= 0 || bits > fr.NativeData.BitsPerSample {
				bits = fr.NativeData.BitsPerSample
			}
			buf = make([]float64, 0, len(fr.NativeData.Data)*s)
			for _, px := range fr.NativeData.Data {
				for _, v := range px {
					if signed {
						v = signExtend(v, bits)
					}
					buf = append(buf, float64(v))
				}
			}
		}
		if i == 0 {
			rows, cols, samples = r, c, s
			data = make([]float64, 0, len(info.Frames)*len(buf))
		} else if r != rows || c != cols || s != samples {
			return nil, fmt.Errorf("%w: frame %d is %dx%dx%d, frame 0 is %dx%dx%d",
				ErrInvalidEncoding, i, r, c, s, rows, cols, samples)
		}
		data = append(data, buf...)
	}
	if len(data) == 0 {
		return nil, ErrNoPixelData
	}

	shape := []int{rows, cols}
	if len(info.Frames) > 1 {
		shape = append([]int{len(info.Frames)}, shape...)
	}
	if samples > 1 {
		shape = append(shape, samples)
	}
	px := &PixelArray{Shape: shape, Data: data}
	if err := px.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return px, nil
}

// signExtend reads the low bits of v as a two's complement sample. The
// decoder hands native samples over as unsigned words.
func signExtend(v, bits int) int {
	if bits <= 0 || bits >= 63 {
		return v
	}
	v &= 1<<bits - 1
	if v >= 1<<(bits-1) {
		v -= 1 << bits
	}
	return v
}

// imageSamples flattens a decoded frame. Gray images keep one sample per
// pixel, everything else is converted to RGB.
func imageSamples(img image.Image) (rows, cols, samples int, data []float64) {
	b := img.Bounds()
	rows, cols = b.Dy(), b.Dx()
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		samples = 1
		data = make([]float64, 0, rows*cols)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
				if _, isGray8 := img.(*image.Gray); isGray8 {
					data = append(data, float64(g.Y>>8))
				} else {
					data = append(data, float64(g.Y))
				}
			}
		}
	default:
		samples = 3
		data = make([]float64, 0, rows*cols*3)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				data = append(data, float64(r>>8), float64(g>>8), float64(bl>>8))
			}
		}
	}
	return rows, cols, samples, data
}
