// Package framebuffer owns the RGBA pixel memory that sketches draw into and
// the display reads from.
//
// A Surface has exactly one backing buffer. The drawing context, the image
// returned by Image and the read-only View all alias that buffer, so a write
// through any of them is visible to every holder on its next read without a
// copy or flush. Surfaces are not synchronized: writers and readers must run
// on the same event loop goroutine.
package framebuffer

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// DefaultClearColor is the backdrop a stopped sketch leaves behind.
var DefaultClearColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}

// Surface is a fixed-size, always opaque RGBA pixel grid.
type Surface struct {
	img *image.RGBA
}

// New allocates a w x h surface, opaque black.
func New(w, h int) *Surface {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	s := &Surface{img: image.NewRGBA(image.Rect(0, 0, w, h))}
	s.Clear(color.RGBA{})
	return s
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int {
	return s.img.Rect.Dx()
}

// Height returns the surface height in pixels.
func (s *Surface) Height() int {
	return s.img.Rect.Dy()
}

// Clear overwrites the colour channels of every pixel with c. Alpha is set
// to 255 regardless of c.A.
func (s *Surface) Clear(c color.RGBA) {
	pix := s.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = 0xff
	}
}

// Image returns the mutable image aliasing the surface memory.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Pixels returns the raw RGBA bytes, row-major with stride 4*Width.
func (s *Surface) Pixels() []byte {
	return s.img.Pix
}

// Context returns a gg drawing context that rasterizes straight into the
// surface memory.
func (s *Surface) Context() *gg.Context {
	return gg.NewContextForRGBA(s.img)
}

// View returns a read-only image over the surface memory.
func (s *Surface) View() image.Image {
	return view{img: s.img}
}

// Snapshot copies the current pixels into a new image.
func (s *Surface) Snapshot() *image.RGBA {
	cp := image.NewRGBA(s.img.Rect)
	copy(cp.Pix, s.img.Pix)
	return cp
}

type view struct {
	img *image.RGBA
}

func (v view) ColorModel() color.Model { return v.img.ColorModel() }
func (v view) Bounds() image.Rectangle { return v.img.Bounds() }
func (v view) At(x, y int) color.Color { return v.img.At(x, y) }
