package framebuffer

import (
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"os"

	"github.com/pirateninja/peyote/internal/logging"
)

// ErrNoFrames is wrapped by the ExportError returned for an empty sequence.
var ErrNoFrames = errors.New("no frames to save")

// ExportError reports a failed image or animation export.
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// IsExportError checks if an error is an ExportError.
func IsExportError(err error) bool {
	var ee *ExportError
	return errors.As(err, &ee)
}

// Offscreen is a surface without a live window. It satisfies the executor's
// display contract with no-op refresh control, records frames and adds file
// export.
type Offscreen struct {
	surface *Surface
	frames  []image.Image
}

// NewOffscreen allocates an offscreen surface of w x h pixels.
func NewOffscreen(w, h int) *Offscreen {
	return &Offscreen{surface: New(w, h)}
}

// Surface returns the backing surface.
func (o *Offscreen) Surface() *Surface {
	return o.surface
}

// StartRefresh is a no-op; nothing repaints offscreen.
func (o *Offscreen) StartRefresh(fps int) {}

// StopRefresh is a no-op.
func (o *Offscreen) StopRefresh() {}

// Record appends a copy of the current pixels to the recorded frames.
func (o *Offscreen) Record() {
	o.frames = append(o.frames, o.surface.Snapshot())
}

// Frames returns the recorded frames in order.
func (o *Offscreen) Frames() []image.Image {
	return o.frames
}

// SavePNG writes the last recorded frame as a PNG file, or the current
// pixels when nothing was recorded.
func (o *Offscreen) SavePNG(path string) error {
	if n := len(o.frames); n > 0 {
		return SavePNG(path, o.frames[n-1])
	}
	return SavePNG(path, o.surface.View())
}

// SaveGIF writes the recorded frames as a looping animated GIF; see SaveGIF.
func (o *Offscreen) SaveGIF(path string, durationMS int) error {
	return SaveGIF(path, o.frames, durationMS)
}

// SavePNG encodes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		logging.Error("Failed to save PNG", "path", path, "error", err)
		return &ExportError{Format: "png", Path: path, Err: err}
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		logging.Error("Failed to save PNG", "path", path, "error", err)
		return &ExportError{Format: "png", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &ExportError{Format: "png", Path: path, Err: err}
	}
	logging.Info("Saved PNG", "path", path)
	return nil
}

// SaveGIF quantizes frames to a fixed palette and writes them as an
// animation that loops forever, each frame shown for durationMS. An empty
// sequence fails before anything is written.
func SaveGIF(path string, frames []image.Image, durationMS int) error {
	if len(frames) == 0 {
		logging.Error("No frames to save", "path", path)
		return &ExportError{Format: "gif", Path: path, Err: ErrNoFrames}
	}

	// GIF delays are in hundredths of a second.
	delay := durationMS / 10
	if delay < 1 {
		delay = 1
	}

	anim := &gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		b := frame.Bounds()
		p := image.NewPaletted(b, palette.Plan9)
		draw.FloydSteinberg.Draw(p, b, frame, b.Min)
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, delay)
	}

	f, err := os.Create(path)
	if err != nil {
		logging.Error("Failed to save GIF", "path", path, "error", err)
		return &ExportError{Format: "gif", Path: path, Err: err}
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		f.Close()
		logging.Error("Failed to save GIF", "path", path, "error", err)
		return &ExportError{Format: "gif", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &ExportError{Format: "gif", Path: path, Err: err}
	}
	logging.Info("Saved GIF", "path", path, "frames", len(frames))
	return nil
}
