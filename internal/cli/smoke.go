package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pirateninja/peyote/internal/display"
	"github.com/pirateninja/peyote/internal/eventloop"
	"github.com/pirateninja/peyote/internal/gfx"
	"github.com/pirateninja/peyote/internal/logging"
	"github.com/spf13/cobra"
)

// smokeStep is how far the smoke circle moves per tick.
const smokeStep = 5

var (
	smokeWidth  int
	smokeHeight int
)

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Open a framebuffer window with a moving circle",
	Long: `Open a window backed by the shared framebuffer and draw an animated
circle into it every 16ms, without loading any sketch. Press q to quit.

Example:
  peyote smoke --width 320 --height 180`,
	Args: cobra.NoArgs,
	RunE: runSmoke,
}

func init() {
	smokeCmd.Flags().IntVarP(&smokeWidth, "width", "w", 640, "Window width")
	smokeCmd.Flags().IntVar(&smokeHeight, "height", 360, "Window height")
	rootCmd.AddCommand(smokeCmd)
}

// smokeScene draws the smoke animation through a canvas.
type smokeScene struct {
	canvas *gfx.Canvas
	t      int
}

func newSmokeScene(canvas *gfx.Canvas) *smokeScene {
	canvas.NoFill()
	canvas.Stroke(255, 180, 0)
	canvas.StrokeWeight(4)
	return &smokeScene{canvas: canvas}
}

// step clears the surface and draws the circle at the next position.
func (s *smokeScene) step() {
	c := s.canvas
	c.Background(20, 20, 20)
	x := float64(s.t % c.Width())
	c.Circle(x, float64(c.Height()/2), 30)
	s.t += smokeStep
}

func runSmoke(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info("Starting smoke test", "width", smokeWidth, "height", smokeHeight)

	loop := eventloop.New()
	win := display.New(display.Options{
		Title:    "peyote smoke",
		Width:    smokeWidth,
		Height:   smokeHeight,
		QuitKeys: []ebiten.Key{ebiten.KeyQ},
	}, loop)

	scene := newSmokeScene(gfx.NewCanvas(win.Surface()))
	loop.Post(func() {
		win.StartRefresh(settings.Display.RefreshFPS)
		loop.Every(16*time.Millisecond, scene.step)
	})

	return win.Run(ctx)
}
