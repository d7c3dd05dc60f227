package framebuffer

import (
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertOpaque(t *testing.T, s *Surface) {
	t.Helper()
	pix := s.Pixels()
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0xff {
			t.Fatalf("pixel %d has alpha %d", i/4, pix[i])
		}
	}
}

func TestNew_IsOpaqueBlack(t *testing.T) {
	t.Parallel()

	s := New(8, 4)
	assert.Equal(t, 8, s.Width())
	assert.Equal(t, 4, s.Height())
	assert.Len(t, s.Pixels(), 8*4*4)
	assertOpaque(t, s)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, s.Image().RGBAAt(3, 2))
}

func TestNew_ClampsSize(t *testing.T) {
	t.Parallel()

	s := New(0, -5)
	assert.Equal(t, 1, s.Width())
	assert.Equal(t, 1, s.Height())
}

func TestClear_KeepsAlphaOpaque(t *testing.T) {
	t.Parallel()

	s := New(6, 6)

	// Scribble transparency into the buffer directly.
	pix := s.Pixels()
	for i := 3; i < len(pix); i += 8 {
		pix[i] = 0
	}

	s.Clear(color.RGBA{R: 10, G: 20, B: 30, A: 0})

	assertOpaque(t, s)
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, s.Image().RGBAAt(5, 5))
}

func TestContext_WritesAreSharedWithView(t *testing.T) {
	t.Parallel()

	s := New(20, 20)
	v := s.View()

	dc := s.Context()
	dc.SetRGB(1, 0, 0)
	dc.DrawRectangle(0, 0, 20, 20)
	dc.Fill()

	r, g, b, a := v.At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
	assert.Equal(t, uint32(0xffff), a)

	// Direct pixel writes are visible through the view as well.
	s.Image().SetRGBA(1, 1, color.RGBA{0, 255, 0, 255})
	_, g, _, _ = v.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), g)
	assertOpaque(t, s)
}

func TestSnapshot_IsACopy(t *testing.T) {
	t.Parallel()

	s := New(2, 2)
	s.Clear(color.RGBA{R: 100})
	snap := s.Snapshot()

	s.Clear(color.RGBA{B: 100})
	assert.Equal(t, color.RGBA{100, 0, 0, 255}, snap.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 100, 255}, s.Image().RGBAAt(0, 0))
}

func TestOffscreen_SavePNG(t *testing.T) {
	t.Parallel()

	o := NewOffscreen(4, 4)
	o.Surface().Clear(DefaultClearColor)
	path := filepath.Join(t.TempDir(), "frame.png")

	require.NoError(t, o.SavePNG(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestOffscreen_SavePNGBadPath(t *testing.T) {
	t.Parallel()

	o := NewOffscreen(4, 4)
	err := o.SavePNG(filepath.Join(t.TempDir(), "missing", "frame.png"))
	require.Error(t, err)
	assert.True(t, IsExportError(err))
}

func TestSaveGIF_EmptySequence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "anim.gif")
	err := SaveGIF(path, nil, 33)

	require.Error(t, err)
	assert.True(t, IsExportError(err))
	assert.ErrorIs(t, err, ErrNoFrames)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be written")
}

func TestSaveGIF_WritesLoopingAnimation(t *testing.T) {
	t.Parallel()

	o := NewOffscreen(8, 8)
	for i := 0; i < 3; i++ {
		o.Surface().Clear(color.RGBA{R: uint8(i * 80)})
		o.Record()
	}
	require.Len(t, o.Frames(), 3)

	path := filepath.Join(t.TempDir(), "anim.gif")
	require.NoError(t, o.SaveGIF(path, 33))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 3)
	assert.Equal(t, []int{3, 3, 3}, anim.Delay)
	assert.Equal(t, 0, anim.LoopCount)
}

func TestOffscreen_SavePNGPrefersLastRecordedFrame(t *testing.T) {
	t.Parallel()

	o := NewOffscreen(4, 4)
	o.Surface().Clear(color.RGBA{G: 200})
	o.Record()
	o.Surface().Clear(DefaultClearColor)

	path := filepath.Join(t.TempDir(), "last.png")
	require.NoError(t, o.SavePNG(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 200, 0, 255}, color.RGBAModel.Convert(img.At(1, 1)))
}

func TestOffscreen_SaveGIFWithoutFrames(t *testing.T) {
	t.Parallel()

	o := NewOffscreen(4, 4)
	err := o.SaveGIF(filepath.Join(t.TempDir(), "none.gif"), 33)
	assert.ErrorIs(t, err, ErrNoFrames)
}
