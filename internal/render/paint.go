package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

type pt struct{ X, Y float64 }

// infinite matches the bounds image.Uniform reports.
var infinite = image.Rectangle{
	Min: image.Point{X: -1e9, Y: -1e9},
	Max: image.Point{X: 1e9, Y: 1e9},
}

func rgba(r, g, b uint8, a float64) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(a * 255))}
}

func hex(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

type gradientStop struct {
	at float64
	c  color.NRGBA
}

// linearGradient is an infinite image whose color varies along the axis
// from (x0, y0) to (x1, y1), clamped past either end.
type linearGradient struct {
	x0, y0, x1, y1 float64
	stops          []gradientStop
}

func (g *linearGradient) ColorModel() color.Model { return color.NRGBAModel }
func (g *linearGradient) Bounds() image.Rectangle { return infinite }

func (g *linearGradient) At(x, y int) color.Color {
	dx, dy := g.x1-g.x0, g.y1-g.y0
	t := 0.0
	if l := dx*dx + dy*dy; l > 0 {
		t = ((float64(x)+0.5-g.x0)*dx + (float64(y)+0.5-g.y0)*dy) / l
	}
	return g.colorAt(t)
}

func (g *linearGradient) colorAt(t float64) color.NRGBA {
	stops := g.stops
	if t <= stops[0].at {
		return stops[0].c
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].at {
			a, b := stops[i-1], stops[i]
			return lerpColor(a.c, b.c, (t-a.at)/(b.at-a.at))
		}
	}
	return stops[len(stops)-1].c
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	l := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t)) }
	return color.NRGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: l(a.A, b.A)}
}

// fillPolygon paints the antialiased polygon with src composited over dst.
// Source coordinates are absolute, so gradients line up across shapes.
func fillPolygon(dst draw.Image, pts []pt, src image.Image) {
	if len(pts) < 3 {
		return
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	r := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	if r.Empty() || !r.Overlaps(dst.Bounds()) {
		return
	}

	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	z.DrawOp = draw.Src
	z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(dst, r, src, r.Min, mask, image.Point{}, draw.Over)
}

func rect(x, y, w, h float64) []pt {
	return []pt{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

// rotRect is a w x h rectangle centered on (cx, cy) rotated by angle radians.
func rotRect(cx, cy, w, h, angle float64) []pt {
	sin, cos := math.Sincos(angle)
	hw, hh := w/2, h/2
	corners := []pt{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	for i, c := range corners {
		corners[i] = pt{cx + c.X*cos - c.Y*sin, cy + c.X*sin + c.Y*cos}
	}
	return corners
}

// transform scales pts by k and moves them to (cx, cy).
func transform(pts []pt, cx, cy, k float64) []pt {
	out := make([]pt, len(pts))
	for i, p := range pts {
		out[i] = pt{cx + p.X*k, cy + p.Y*k}
	}
	return out
}

// strokeRect draws a width-w border centered on the edges of the rectangle.
func strokeRect(dst draw.Image, x, y, rw, rh, w float64, c color.Color) {
	src := image.NewUniform(c)
	h := w / 2
	fillPolygon(dst, rect(x-h, y-h, rw+w, w), src)
	fillPolygon(dst, rect(x-h, y+rh-h, rw+w, w), src)
	fillPolygon(dst, rect(x-h, y+h, w, rh-w), src)
	fillPolygon(dst, rect(x+rw-h, y+h, w, rh-w), src)
}

// dilate grows the coverage of mask inside r by radius pixels, taking the
// maximum alpha under a disc.
func dilate(mask *image.Alpha, r image.Rectangle, radius float64) *image.Alpha {
	out := image.NewAlpha(mask.Bounds())
	n := int(math.Ceil(radius))
	var offsets []image.Point
	for dy := -n; dy <= n; dy++ {
		for dx := -n; dx <= n; dx++ {
			if float64(dx*dx+dy*dy) <= radius*radius {
				offsets = append(offsets, image.Point{dx, dy})
			}
		}
	}
	b := mask.Bounds()
	r = r.Intersect(b)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			var m uint8
			for _, o := range offsets {
				p := image.Point{x + o.X, y + o.Y}
				if !p.In(b) {
					continue
				}
				if a := mask.AlphaAt(p.X, p.Y).A; a > m {
					m = a
					if m == 0xff {
						break
					}
				}
			}
			out.SetAlpha(x, y, color.Alpha{A: m})
		}
	}
	return out
}
