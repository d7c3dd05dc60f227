package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pirateninja/peyote/internal/config"
	"github.com/pirateninja/peyote/internal/console"
	"github.com/pirateninja/peyote/internal/display"
	"github.com/pirateninja/peyote/internal/eventloop"
	"github.com/pirateninja/peyote/internal/framebuffer"
	"github.com/pirateninja/peyote/internal/logging"
	"github.com/spf13/cobra"
)

// watchInterval is how often a headless run checks whether the sketch is
// still running.
const watchInterval = 50 * time.Millisecond

var (
	runHeadlessFlag bool
	runDuration     time.Duration
	runMain         string
)

var runCmd = &cobra.Command{
	Use:   "run <path>",
	Short: "Run a sketch in a window",
	Long: `Run a sketch. <path> is a sketch directory or a single .go file.

The sources are saved to the project directory, loaded into the
interpreter, and the main module's Setup() runs once. Draw() then runs
every draw period until the window is closed or a call fails.

With --headless no window is opened; the sketch draws offscreen until
--duration elapses, the sketch stops, or Ctrl+C.

Example:
  peyote run ./sketches/bouncing
  peyote run ./sketch.go --headless --duration 5s`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runHeadlessFlag, "headless", false, "Draw offscreen without opening a window")
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "Stop a headless run after this long (0 runs until stopped)")
	runCmd.Flags().StringVar(&runMain, "main", "", "Main module basename (default from config)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	modules, err := readSketch(args[0])
	if err != nil {
		return err
	}
	mainName := runMain
	if mainName == "" {
		mainName = mainModule(modules, settings.Executor.MainModule)
	}

	out := console.New(cmd.OutOrStdout())
	if runHeadlessFlag {
		return runHeadless(ctx, settings, dirs.Sketches, modules, mainName, runDuration, out)
	}
	return runWindow(ctx, settings, dirs.Sketches, filepath.Base(args[0]), modules, mainName, out)
}

func runWindow(ctx context.Context, cfg *config.Config, sketchesDir, title string, modules map[string]string, mainName string, out io.Writer) error {
	loop := eventloop.New()

	// Updates must keep up with the draw timer.
	tps := cfg.Display.RefreshFPS
	if cfg.Executor.DrawPeriodMS > 0 {
		if rate := 1000 / cfg.Executor.DrawPeriodMS; rate > tps {
			tps = rate
		}
	}
	win := display.New(display.Options{
		Title:  "peyote - " + title,
		Width:  cfg.Display.Width,
		Height: cfg.Display.Height,
		Scale:  cfg.Display.Scale,
		TPS:    tps,
	}, loop)

	eng, err := newEngine(cfg, sketchesDir, engineOptions{
		Display:   win,
		Scheduler: loop,
		Console:   out,
	})
	if err != nil {
		return err
	}

	loop.Post(func() {
		if err := eng.exec.LoadAndRun(modules, mainName); err != nil {
			logging.Error("Sketch did not start", "error", err)
		}
	})

	err = win.Run(ctx)
	eng.exec.Close()
	return err
}

// statusWriter is implemented by *console.Console.
type statusWriter interface {
	Status(state string, frames int, session string)
	Done()
}

// runHeadless runs the sketch on an offscreen surface. It returns when
// duration elapses, ctx is cancelled or the sketch is no longer running.
func runHeadless(ctx context.Context, cfg *config.Config, sketchesDir string, modules map[string]string, mainName string, duration time.Duration, out io.Writer) error {
	loop := eventloop.New()
	offscreen := framebuffer.NewOffscreen(cfg.Display.Width, cfg.Display.Height)

	eng, err := newEngine(cfg, sketchesDir, engineOptions{
		Display:   offscreen,
		Scheduler: loop,
		Console:   out,
	})
	if err != nil {
		return err
	}

	var cancel context.CancelFunc
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	var runErr error
	loop.Post(func() {
		runErr = eng.exec.LoadAndRun(modules, mainName)
		if !eng.exec.Running() {
			cancel()
		}
	})
	status, _ := out.(statusWriter)
	watch := loop.Every(watchInterval, func() {
		if !eng.exec.Running() {
			cancel()
			return
		}
		if status != nil {
			s := eng.exec.Session()
			status.Status(s.State.String(), s.Frames, s.ID)
		}
	})

	_ = loop.Run(ctx)
	watch.Stop()
	if status != nil {
		status.Done()
	}

	session := eng.exec.Session()
	eng.exec.Close()

	logging.Info("Headless run finished", "session", session.ID, "frames", session.Frames)
	fmt.Fprintf(out, "Ran %d frames\n", session.Frames)
	return runErr
}
