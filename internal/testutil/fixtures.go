package testutil

import "fmt"

// SampleSketch fills the surface red on every frame and prints once from
// setup.
const SampleSketch = `package sketch

import (
	"fmt"

	"peyote/gfx"
)

var frames = 0

func Setup() {
	fmt.Println("setup")
	gfx.Background(0, 0, 0)
}

func Draw() {
	frames++
	gfx.NoStroke()
	gfx.Fill(255, 0, 0)
	gfx.Rect(0, 0, float64(gfx.Width()), float64(gfx.Height()))
}
`

// SampleHelpers is a module with no hooks.
const SampleHelpers = `package helpers

func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
`

// SketchUsingHelpers returns a sketch for project that imports the
// SampleHelpers module and paints the green channel clamped by it.
func SketchUsingHelpers(project string) string {
	return fmt.Sprintf(`package sketch

import (
	"peyote/gfx"

	"%s/helpers"
)

func Draw() {
	gfx.Background(0, helpers.Clamp(300, 0, 200), 0)
}
`, project)
}

// SampleSetupOnly paints in setup and has no draw hook.
const SampleSetupOnly = `package sketch

import "peyote/gfx"

func Setup() {
	gfx.Background(0, 0, 255)
}
`

// SampleSyntaxError does not parse.
const SampleSyntaxError = `package broken

func Draw( {
`

// FaultingSketch returns a sketch whose Draw returns an error on frame n.
func FaultingSketch(n int) string {
	return fmt.Sprintf(`package sketch

import "errors"

var calls = 0

func Draw() error {
	calls++
	if calls == %d {
		return errors.New("frame %d failed")
	}
	return nil
}
`, n, n)
}

// SampleModules returns a complete sketch keyed by basename.
// Returns a new map each time to prevent test interference.
func SampleModules() map[string]string {
	return map[string]string{
		"sketch":  SampleSketch,
		"helpers": SampleHelpers,
	}
}
