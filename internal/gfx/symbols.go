package gfx

import (
	"reflect"

	"github.com/traefik/yaegi/interp"
)

// ImportPath is the path sketches import the drawing API from.
const ImportPath = "peyote/gfx"

// Symbols exposes c to interpreted sketches as package gfx.
func Symbols(c *Canvas) interp.Exports {
	return interp.Exports{
		ImportPath + "/gfx": {
			"Background":   reflect.ValueOf(c.Background),
			"Fill":         reflect.ValueOf(c.Fill),
			"FillA":        reflect.ValueOf(c.FillA),
			"NoFill":       reflect.ValueOf(c.NoFill),
			"Stroke":       reflect.ValueOf(c.Stroke),
			"StrokeA":      reflect.ValueOf(c.StrokeA),
			"NoStroke":     reflect.ValueOf(c.NoStroke),
			"StrokeWeight": reflect.ValueOf(c.StrokeWeight),
			"Circle":       reflect.ValueOf(c.Circle),
			"Ellipse":      reflect.ValueOf(c.Ellipse),
			"Rect":         reflect.ValueOf(c.Rect),
			"Line":         reflect.ValueOf(c.Line),
			"Point":        reflect.ValueOf(c.Point),
			"SetPixel":     reflect.ValueOf(c.SetPixel),
			"GetPixel":     reflect.ValueOf(c.GetPixel),
			"Width":        reflect.ValueOf(c.Width),
			"Height":       reflect.ValueOf(c.Height),
			"Frame":        reflect.ValueOf(c.Frame),
		},
	}
}
