package testutil

import (
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/pirateninja/peyote/internal/framebuffer"
	"github.com/pirateninja/peyote/internal/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertOpaque asserts that every pixel of s has full alpha.
func AssertOpaque(t *testing.T, s *framebuffer.Surface) {
	t.Helper()
	pix := s.Pixels()
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0xff {
			require.Failf(t, "surface not opaque", "pixel %d has alpha %d", i/4, pix[i])
		}
	}
}

// AssertPixel asserts the colour of one pixel.
func AssertPixel(t *testing.T, img image.Image, x, y int, expected color.RGBA) {
	t.Helper()
	actual := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	assert.Equal(t, expected, actual, "pixel (%d,%d) mismatch", x, y)
}

// AssertNotRegistered asserts that no module with any of the qualified
// names is loaded in the process.
func AssertNotRegistered(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		assert.False(t, loader.Registered(name), "module %s still registered", name)
	}
}

// ConsoleRecorder collects console output. It works as an io.Writer and as
// a console callback through Print.
type ConsoleRecorder struct {
	mu    sync.Mutex
	parts []string
}

// Write implements io.Writer.
func (c *ConsoleRecorder) Write(p []byte) (int, error) {
	c.Print(string(p))
	return len(p), nil
}

// Print records one chunk of console text.
func (c *ConsoleRecorder) Print(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts = append(c.parts, text)
}

// Text returns everything recorded so far.
func (c *ConsoleRecorder) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.parts, "")
}

// Count returns how often substr occurs in the recorded text.
func (c *ConsoleRecorder) Count(substr string) int {
	return strings.Count(c.Text(), substr)
}
