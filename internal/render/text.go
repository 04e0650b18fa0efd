package render

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// taglineTTF is Go Medium, the closest Go font to a 600 weight.
var taglineTTF = gomedium.TTF

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}

// textLayer prerenders the title and tagline, which do not animate, onto a
// transparent overlay. rect covers every painted pixel.
type textLayer struct {
	img  *image.RGBA
	rect image.Rectangle
}

func newTextLayer(sc Scene, scale float64) (*textLayer, error) {
	titleFace, err := newFace(gobold.TTF, 72*scale)
	if err != nil {
		return nil, err
	}
	defer titleFace.Close()
	tagFace, err := newFace(taglineTTF, 28*scale)
	if err != nil {
		return nil, err
	}
	defer tagFace.Close()

	bounds := image.Rect(0, 0, sc.Width, sc.Height)
	layer := &textLayer{img: image.NewRGBA(bounds)}
	cx := float64(sc.Width) / 2
	cy := float64(sc.Height) / 2

	// Title: dark outline first, then the warm gradient fill on top.
	mask := image.NewAlpha(bounds)
	tr := drawCentered(mask, image.Opaque, titleFace, sc.Title, cx, cy+80*scale)
	stroke := 5 * scale
	tr = tr.Inset(-int(stroke) - 2).Intersect(bounds)
	outline := dilate(mask, tr, stroke)
	draw.DrawMask(layer.img, tr, image.NewUniform(rgba(0, 0, 0, 0.55)), image.Point{}, outline, tr.Min, draw.Over)
	fill := &linearGradient{
		x0: cx - 200*scale, x1: cx + 200*scale,
		stops: []gradientStop{
			{0, hex(0xffe066)},
			{0.5, hex(0xffb13b)},
			{1, hex(0xffd700)},
		},
	}
	draw.DrawMask(layer.img, tr, fill, tr.Min, mask, tr.Min, draw.Over)

	gr := drawCentered(layer.img, image.NewUniform(rgba(255, 255, 255, 0.9)), tagFace, sc.Tagline, cx, cy+160*scale)

	layer.rect = tr.Union(gr).Intersect(bounds)
	return layer, nil
}

// drawCentered draws s horizontally centered on cx with its top edge at top,
// and returns the painted bounds.
func drawCentered(dst draw.Image, src image.Image, face font.Face, s string, cx, top float64) image.Rectangle {
	b, adv := font.BoundString(face, s)
	x := fixed.Int26_6((cx - float64(adv)/128) * 64)
	y := fixed.Int26_6(top*64) + face.Metrics().Ascent
	d := &font.Drawer{Dst: dst, Src: src, Face: face, Dot: fixed.Point26_6{X: x, Y: y}}
	d.DrawString(s)
	return image.Rect(
		(x+b.Min.X).Floor(), (y+b.Min.Y).Floor(),
		(x+b.Max.X).Ceil(), (y+b.Max.Y).Ceil(),
	)
}

func (l *textLayer) drawOver(dst draw.Image) {
	draw.Draw(dst, l.rect, l.img, l.rect.Min, draw.Over)
}
