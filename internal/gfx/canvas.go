// Package gfx is the drawing API sketches import as "peyote/gfx".
//
// A Canvas keeps Processing-style pen state (fill, stroke, weight) and
// draws through a gg context straight into a framebuffer surface.
package gfx

import (
	"image/color"

	"github.com/fogleman/gg"
	"github.com/pirateninja/peyote/internal/framebuffer"
)

// Canvas draws onto one surface.
type Canvas struct {
	surface  *framebuffer.Surface
	dc       *gg.Context
	fill     color.NRGBA
	stroke   color.NRGBA
	noFill   bool
	noStroke bool
	weight   float64
	frame    func() int
}

// NewCanvas binds a canvas to s with a white fill, black stroke and a
// weight of 1.
func NewCanvas(s *framebuffer.Surface) *Canvas {
	c := &Canvas{surface: s, dc: s.Context()}
	c.Reset()
	return c
}

// Reset restores the default pen state.
func (c *Canvas) Reset() {
	c.fill = color.NRGBA{255, 255, 255, 255}
	c.stroke = color.NRGBA{0, 0, 0, 255}
	c.noFill = false
	c.noStroke = false
	c.weight = 1
}

// SetFrameSource sets the function Frame reports.
func (c *Canvas) SetFrameSource(fn func() int) {
	c.frame = fn
}

// Frame returns the number of completed draw calls of the running sketch.
func (c *Canvas) Frame() int {
	if c.frame == nil {
		return 0
	}
	return c.frame()
}

// Width returns the surface width.
func (c *Canvas) Width() int { return c.surface.Width() }

// Height returns the surface height.
func (c *Canvas) Height() int { return c.surface.Height() }

// Background clears the whole surface to an opaque colour.
func (c *Canvas) Background(r, g, b int) {
	c.surface.Clear(color.RGBA{R: clamp(r), G: clamp(g), B: clamp(b), A: 255})
}

// Fill sets an opaque fill colour and enables filling.
func (c *Canvas) Fill(r, g, b int) { c.FillA(r, g, b, 255) }

// FillA sets a fill colour with alpha. The surface stays opaque; a
// translucent fill blends with what is already there.
func (c *Canvas) FillA(r, g, b, a int) {
	c.fill = nrgba(r, g, b, a)
	c.noFill = false
}

// NoFill disables filling.
func (c *Canvas) NoFill() { c.noFill = true }

// Stroke sets an opaque stroke colour and enables outlines.
func (c *Canvas) Stroke(r, g, b int) { c.StrokeA(r, g, b, 255) }

// StrokeA sets a stroke colour with alpha.
func (c *Canvas) StrokeA(r, g, b, a int) {
	c.stroke = nrgba(r, g, b, a)
	c.noStroke = false
}

// NoStroke disables outlines.
func (c *Canvas) NoStroke() { c.noStroke = true }

// StrokeWeight sets the outline width in pixels.
func (c *Canvas) StrokeWeight(w float64) {
	if w < 0 {
		w = 0
	}
	c.weight = w
}

// Circle draws a circle centred on (x, y).
func (c *Canvas) Circle(x, y, radius float64) {
	c.dc.DrawCircle(x, y, radius)
	c.paint()
}

// Ellipse draws an axis-aligned ellipse centred on (x, y).
func (c *Canvas) Ellipse(x, y, rx, ry float64) {
	c.dc.DrawEllipse(x, y, rx, ry)
	c.paint()
}

// Rect draws a rectangle with its top-left corner at (x, y).
func (c *Canvas) Rect(x, y, w, h float64) {
	c.dc.DrawRectangle(x, y, w, h)
	c.paint()
}

// Line draws a stroked segment. It is invisible under NoStroke.
func (c *Canvas) Line(x1, y1, x2, y2 float64) {
	if c.noStroke || c.weight == 0 {
		return
	}
	c.dc.DrawLine(x1, y1, x2, y2)
	c.dc.SetColor(c.stroke)
	c.dc.SetLineWidth(c.weight)
	c.dc.Stroke()
}

// Point replaces one pixel with the stroke colour.
func (c *Canvas) Point(x, y float64) {
	if c.noStroke {
		return
	}
	c.surface.Image().SetRGBA(int(x), int(y), color.RGBA{R: c.stroke.R, G: c.stroke.G, B: c.stroke.B, A: 255})
}

// SetPixel writes an opaque colour to one pixel, ignoring pen state.
// Out-of-bounds coordinates are ignored.
func (c *Canvas) SetPixel(x, y, r, g, b int) {
	c.surface.Image().SetRGBA(x, y, color.RGBA{R: clamp(r), G: clamp(g), B: clamp(b), A: 255})
}

// GetPixel returns the colour channels of one pixel.
func (c *Canvas) GetPixel(x, y int) (r, g, b int) {
	p := c.surface.Image().RGBAAt(x, y)
	return int(p.R), int(p.G), int(p.B)
}

func (c *Canvas) paint() {
	switch {
	case !c.noFill && (!c.noStroke && c.weight > 0):
		c.dc.SetColor(c.fill)
		c.dc.FillPreserve()
		c.dc.SetColor(c.stroke)
		c.dc.SetLineWidth(c.weight)
		c.dc.Stroke()
	case !c.noFill:
		c.dc.SetColor(c.fill)
		c.dc.Fill()
	case !c.noStroke && c.weight > 0:
		c.dc.SetColor(c.stroke)
		c.dc.SetLineWidth(c.weight)
		c.dc.Stroke()
	default:
		c.dc.ClearPath()
	}
}

func nrgba(r, g, b, a int) color.NRGBA {
	return color.NRGBA{R: clamp(r), G: clamp(g), B: clamp(b), A: clamp(a)}
}

func clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
