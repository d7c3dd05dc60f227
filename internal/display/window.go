// Package display shows a framebuffer surface in a desktop window.
//
// The window drives the event loop: every ebiten Update drains the callbacks
// posted to the loop, so draw ticks, sketch calls and pixel uploads all run
// on the game goroutine one after another.
package display

import (
	"context"
	"errors"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pirateninja/peyote/internal/eventloop"
	"github.com/pirateninja/peyote/internal/framebuffer"
	"github.com/pirateninja/peyote/internal/logging"
)

// Options configures a Window.
type Options struct {
	Title  string
	Width  int
	Height int
	Scale  int
	// TPS is the update rate, which bounds how often posted callbacks run.
	TPS int
	// QuitKeys close the window when pressed.
	QuitKeys []ebiten.Key
}

// Window is an ebiten game presenting one surface.
type Window struct {
	opts    Options
	surface *framebuffer.Surface
	loop    *eventloop.Loop
	image   *ebiten.Image
	refresh refresher
	ctx     context.Context
	pressed func(ebiten.Key) bool
	log     *logging.Logger
}

// New creates a window over a fresh surface. Callbacks posted to loop run
// inside Update.
func New(opts Options, loop *eventloop.Loop) *Window {
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	if opts.TPS < 1 {
		opts.TPS = ebiten.DefaultTPS
	}
	w := &Window{
		opts:    opts,
		surface: framebuffer.New(opts.Width, opts.Height),
		loop:    loop,
		pressed: ebiten.IsKeyPressed,
		log:     logging.With("component", "display"),
	}
	w.surface.Clear(framebuffer.DefaultClearColor)
	w.refresh.pending = true
	return w
}

// Surface returns the surface sketches draw into.
func (w *Window) Surface() *framebuffer.Surface {
	return w.surface
}

// StartRefresh repaints the window from the surface at most fps times per
// second.
func (w *Window) StartRefresh(fps int) {
	w.refresh.start(fps)
	w.log.Debug("Refresh started", "fps", fps)
}

// StopRefresh stops periodic repaints after one final repaint.
func (w *Window) StopRefresh() {
	w.refresh.stop()
	w.log.Debug("Refresh stopped")
}

// Run opens the window and blocks until it is closed or ctx is cancelled.
// It must be called from the main goroutine.
func (w *Window) Run(ctx context.Context) error {
	w.ctx = ctx
	ebiten.SetWindowTitle(w.opts.Title)
	ebiten.SetWindowSize(w.surface.Width()*w.opts.Scale, w.surface.Height()*w.opts.Scale)
	ebiten.SetTPS(w.opts.TPS)

	w.log.Info("Opening window", "title", w.opts.Title, "width", w.surface.Width(), "height", w.surface.Height())
	err := ebiten.RunGame(w)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if w.ctx != nil && w.ctx.Err() != nil {
		return ebiten.Termination
	}
	for _, k := range w.opts.QuitKeys {
		if w.pressed(k) {
			w.log.Info("Quit key pressed", "key", k.String())
			return ebiten.Termination
		}
	}
	w.loop.RunPending()
	return nil
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	if w.image == nil {
		w.image = ebiten.NewImage(w.surface.Width(), w.surface.Height())
	}
	if w.refresh.due(time.Now()) {
		w.image.WritePixels(w.surface.Pixels())
	}
	screen.DrawImage(w.image, nil)
}

// Layout implements ebiten.Game.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return w.surface.Width(), w.surface.Height()
}
