package render

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

var (
	friesGold   = image.NewUniform(hex(0xf6c945))
	friesAmber  = image.NewUniform(hex(0xe9ab2f))
	friesTip    = image.NewUniform(hex(0xc98a1c))
	cartonRed   = image.NewUniform(hex(0xd62828))
	cartonRim   = image.NewUniform(hex(0xb71c1c))
	cartonBadge = image.NewUniform(hex(0xffcc00))
	spriteShade = image.NewUniform(rgba(0, 0, 0, 0.12))
	heroGlow    = image.NewUniform(rgba(255, 187, 0, 0.6/4))
)

// drawFry paints one falling fry stick of the given height centered on
// (cx, cy), with a soft shadow underneath.
func drawFry(dst draw.Image, cx, cy, size, angle float64) {
	w := size * 0.24
	fillPolygon(dst, rotRect(cx, cy, w+6, size+6, angle), spriteShade)
	fillPolygon(dst, rotRect(cx, cy, w+3, size+3, angle), spriteShade)
	fillPolygon(dst, rotRect(cx, cy, w, size, angle), friesGold)

	// Browned tip along the top sixth of the stick.
	sin, cos := math.Sincos(angle)
	off := -size * 5 / 12
	tx, ty := cx-off*sin, cy+off*cos
	fillPolygon(dst, rotRect(tx, ty, w, size/6, angle), friesTip)
}

// The hero carton is modelled in a 200x200 box centered on the origin.
var (
	heroHull = []pt{{-74, -104}, {74, -104}, {74, -12}, {57, 98}, {-57, 98}, {-74, -12}}
	carton   = []pt{{-72, -10}, {72, -10}, {56, 96}, {-56, 96}}
	rim      = []pt{{-74, -14}, {74, -14}, {73, -2}, {-73, -2}}
	badge    = []pt{{-22, 28}, {0, 48}, {22, 28}, {22, 42}, {0, 62}, {-22, 42}}
)

// drawHero paints the fries carton centered on (cx, cy) scaled by k, with a
// warm glow around it.
func drawHero(dst draw.Image, cx, cy, k float64) {
	for i := 4; i >= 1; i-- {
		grow := 1 + 0.05*float64(i)
		fillPolygon(dst, transform(heroHull, cx, cy, k*grow), heroGlow)
	}

	for i := 0; i < 7; i++ {
		d := float64(i - 3)
		top := -96 + math.Abs(d)*8
		h := 10 - top
		x := d * 18
		angle := d * 0.05
		sin, cos := math.Sincos(angle)
		// Rotate each stick about its base so the bunch fans out.
		mx, my := x-(-h/2)*sin, 10+(-h/2)*cos
		stick := rotRect(mx, my, 16, h, angle)
		src := friesGold
		if i%2 == 1 {
			src = friesAmber
		}
		fillPolygon(dst, transform(stick, cx, cy, k), src)
	}

	fillPolygon(dst, transform(carton, cx, cy, k), cartonRed)
	fillPolygon(dst, transform(rim, cx, cy, k), cartonRim)
	fillPolygon(dst, transform(badge, cx, cy, k), cartonBadge)
}
