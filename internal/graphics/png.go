package graphics

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// NormalizePNG returns data unchanged when it already is a PNG and otherwise
// transcodes it. The document renderer only embeds PNG.
func NormalizePNG(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, pngMagic) {
		return data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("transcode image: %w", err)
	}
	return buf.Bytes(), nil
}
