// Package render paints the animated title card onto an RGBA surface.
package render

import (
	"image"
	"math"
	"time"

	"github.com/satindergrewal/fryreel/internal/particles"
)

// The layout is specified against this frame size and scaled linearly.
const (
	ReferenceWidth  = 1280
	ReferenceHeight = 720
)

// Scene describes the static parts of the card.
type Scene struct {
	Width, Height int
	Title         string
	Tagline       string
}

// DefaultScene is the 1280x720 french fries card.
func DefaultScene() Scene {
	return Scene{
		Width:   ReferenceWidth,
		Height:  ReferenceHeight,
		Title:   "FRENCH FRIES",
		Tagline: "crispy • golden • salty • shareable",
	}
}

// FrameState is what changes between frames.
type FrameState struct {
	Elapsed   time.Duration
	Duration  time.Duration
	Particles []particles.Particle
}

// Progress is elapsed/duration capped at 1.
func (f FrameState) Progress() float64 {
	if f.Duration <= 0 {
		return 1
	}
	return math.Min(1, float64(f.Elapsed)/float64(f.Duration))
}

// Surface is the drawing target whose pixels are captured as video.
type Surface struct {
	Img *image.RGBA
}

// NewSurface allocates a width x height surface.
func NewSurface(width, height int) *Surface {
	return &Surface{Img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Renderer paints frames of one Scene. Layers that never change are
// rendered once at construction.
type Renderer struct {
	scene Scene
	scale float64
	base  *image.RGBA // background gradient + vignette
	text  *textLayer
}

// NewRenderer prepares the static layers for sc.
func NewRenderer(sc Scene) (*Renderer, error) {
	scale := math.Min(float64(sc.Width)/ReferenceWidth, float64(sc.Height)/ReferenceHeight)
	text, err := newTextLayer(sc, scale)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		scene: sc,
		scale: scale,
		base:  background(sc.Width, sc.Height),
		text:  text,
	}, nil
}

// Scale is the factor applied to reference-size measurements.
func (r *Renderer) Scale() float64 { return r.scale }

// Render paints one complete frame for time t (seconds). Later layers
// occlude earlier ones: background, particles, hero, text, progress bar.
func (r *Renderer) Render(s *Surface, t float64, st FrameState) {
	dst := s.Img
	copy(dst.Pix, r.base.Pix)

	k := r.scale
	w, h := float64(r.scene.Width), float64(r.scene.Height)

	spin := math.Sin(t*1.2) * 0.1
	for _, p := range st.Particles {
		offset := math.Sin(t*2+p.X*0.01) * 20 * p.Sway * k
		drawFry(dst, p.X+offset, p.Y, p.Size*k, p.Rotation+spin)
	}

	pulse := 1 + math.Sin(t*2.5)*0.04
	drawHero(dst, w/2, h/2-40*k, pulse*k)

	r.text.drawOver(dst)

	barW := w * 0.6
	barH := 10 * k
	barX := (w - barW) / 2
	barY := h - 80*k
	fillPolygon(dst, rect(barX, barY, barW, barH), image.NewUniform(rgba(255, 255, 255, 0.08)))
	if pct := st.Progress(); pct > 0 {
		fillPolygon(dst, rect(barX, barY, barW*pct, barH), image.NewUniform(hex(0xffcc00)))
	}
	strokeRect(dst, barX, barY, barW, barH, 2*k, rgba(0, 0, 0, 0.6))
}

// background paints the vertical gradient and the radial vignette.
func background(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	top, bottom := hex(0x1a1f33), hex(0x0e111a)

	cx, cy := float64(width)/2, float64(height)/2
	r0 := math.Min(float64(width), float64(height)) / 4
	r1 := math.Max(float64(width), float64(height)) / 1.1

	for y := 0; y < height; y++ {
		c := lerpColor(top, bottom, (float64(y)+0.5)/float64(height))
		for x := 0; x < width; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			v := math.Max(0, math.Min(1, (d-r0)/(r1-r0)))
			keep := 1 - 0.65*v
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(float64(c.R)*keep + 0.5)
			img.Pix[i+1] = uint8(float64(c.G)*keep + 0.5)
			img.Pix[i+2] = uint8(float64(c.B)*keep + 0.5)
			img.Pix[i+3] = 0xff
		}
	}
	return img
}
