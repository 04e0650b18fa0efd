package render

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// Poster scales img to fit within maxWidth x maxHeight, preserving the
// aspect ratio, and encodes it as PNG.
func Poster(img image.Image, maxWidth, maxHeight int) ([]byte, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width > maxWidth || height > maxHeight {
		ratio := float64(width) / float64(height)
		if float64(maxWidth)/float64(maxHeight) > ratio {
			width = int(float64(maxHeight) * ratio)
			height = maxHeight
		} else {
			height = int(float64(maxWidth) / ratio)
			width = maxWidth
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
