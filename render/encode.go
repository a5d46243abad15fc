package render

import (
	"bytes"
	"image"
	"image/png"
)

// ContentType of every rendered image.
const ContentType = "image/png"

var encoder = png.Encoder{CompressionLevel: png.DefaultCompression}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
