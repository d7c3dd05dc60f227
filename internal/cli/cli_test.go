package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pirateninja/peyote/internal/config"
	"github.com/pirateninja/peyote/internal/eventloop"
	"github.com/pirateninja/peyote/internal/executor"
	"github.com/pirateninja/peyote/internal/framebuffer"
	"github.com/pirateninja/peyote/internal/gfx"
	"github.com/pirateninja/peyote/internal/logging"
	"github.com/pirateninja/peyote/internal/project"
	"github.com/pirateninja/peyote/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns a small-surface config with a project name unique to t.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Display.Width = 16
	cfg.Display.Height = 16
	cfg.Executor.Project = testutil.UniqueProject(t)
	return &cfg
}

func decodeGIF(t *testing.T, path string) *gif.GIF {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	return anim
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	return img
}

func TestRunCommand_Args(t *testing.T) {
	assert.Equal(t, "run <path>", runCmd.Use)
	assert.Error(t, runCmd.Args(runCmd, []string{}))
	assert.Error(t, runCmd.Args(runCmd, []string{"a", "b"}))
	assert.NoError(t, runCmd.Args(runCmd, []string{"./sketch"}))
}

func TestRunCommand_Flags(t *testing.T) {
	flag := runCmd.Flags().Lookup("headless")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)

	flag = runCmd.Flags().Lookup("duration")
	require.NotNil(t, flag)
	assert.Equal(t, "0s", flag.DefValue)

	require.NotNil(t, runCmd.Flags().Lookup("main"))
}

func TestExportCommand_Flags(t *testing.T) {
	for _, name := range []string{"png", "gif", "frames", "main"} {
		assert.NotNil(t, exportCmd.Flags().Lookup(name), name)
	}
	assert.Error(t, exportCmd.Args(exportCmd, []string{}))
}

func TestClearCommand_Args(t *testing.T) {
	assert.NoError(t, clearCmd.Args(clearCmd, []string{}))
	assert.NoError(t, clearCmd.Args(clearCmd, []string{"current_sketch"}))
	assert.Error(t, clearCmd.Args(clearCmd, []string{"a", "b"}))
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("debug")
	require.NotNil(t, flag)
	assert.Equal(t, "D", flag.Shorthand)
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestReadSketch(t *testing.T) {
	modules := testutil.SampleModules()
	modules["sketch_test"] = "package sketch"
	dir := testutil.SetupSketchDir(t, modules)
	testutil.WriteTestFile(t, dir, "notes.txt", []byte("ignored"))

	got, err := readSketch(dir)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, testutil.SampleSketch, got["sketch"])
	assert.Equal(t, testutil.SampleHelpers, got["helpers"])

	got, err = readSketch(filepath.Join(dir, "helpers.go"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"helpers": testutil.SampleHelpers}, got)

	_, err = readSketch(t.TempDir())
	assert.Error(t, err)

	_, err = readSketch(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestMainModule(t *testing.T) {
	assert.Equal(t, "sketch", mainModule(map[string]string{"sketch": "", "b": ""}, "sketch"))
	assert.Equal(t, "bounce", mainModule(map[string]string{"bounce": ""}, "sketch"))
	assert.Equal(t, "sketch", mainModule(map[string]string{"a": "", "b": ""}, "sketch"))
}

func TestExportSketch_PNGAndGIF(t *testing.T) {
	cfg := testConfig(t)
	out := t.TempDir()
	var console testutil.ConsoleRecorder

	opts := exportOptions{
		PNG:    filepath.Join(out, "last.png"),
		GIF:    filepath.Join(out, "anim.gif"),
		Frames: 3,
		Main:   "sketch",
	}
	require.NoError(t, exportSketch(cfg, t.TempDir(), testutil.SampleModules(), opts, &console))

	anim := decodeGIF(t, opts.GIF)
	assert.Len(t, anim.Image, 3)
	assert.Equal(t, []int{3, 3, 3}, anim.Delay)

	testutil.AssertPixel(t, decodePNG(t, opts.PNG), 8, 8, color.RGBA{255, 0, 0, 255})
	assert.Contains(t, console.Text(), "setup\n")
	testutil.AssertNotRegistered(t, cfg.Executor.Project+".sketch", cfg.Executor.Project+".helpers")
}

func TestExportSketch_StopsAtDrawFault(t *testing.T) {
	cfg := testConfig(t)
	var console testutil.ConsoleRecorder
	path := filepath.Join(t.TempDir(), "anim.gif")

	modules := map[string]string{"sketch": testutil.FaultingSketch(3)}
	opts := exportOptions{GIF: path, Frames: 10, Main: "sketch"}
	require.NoError(t, exportSketch(cfg, t.TempDir(), modules, opts, &console))

	assert.Len(t, decodeGIF(t, path).Image, 2)
	assert.Equal(t, 1, console.Count("Error in draw():"))
	assert.Contains(t, console.Text(), "frame 3 failed")
}

func TestExportSketch_SetupOnlyPNG(t *testing.T) {
	cfg := testConfig(t)
	var console testutil.ConsoleRecorder
	out := t.TempDir()

	opts := exportOptions{
		PNG:    filepath.Join(out, "still.png"),
		GIF:    filepath.Join(out, "none.gif"),
		Frames: 5,
		Main:   "sketch",
	}
	err := exportSketch(cfg, t.TempDir(), map[string]string{"sketch": testutil.SampleSetupOnly}, opts, &console)

	// No draw means no frames, so the GIF is refused after the PNG is written.
	require.Error(t, err)
	assert.ErrorContains(t, err, "no frames")
	testutil.AssertPixel(t, decodePNG(t, opts.PNG), 0, 0, color.RGBA{0, 0, 255, 255})
	_, statErr := os.Stat(opts.GIF)
	assert.True(t, os.IsNotExist(statErr))
	assert.Contains(t, console.Text(), "Warning: No draw() function found\n")
}

func TestExportSketch_MissingMain(t *testing.T) {
	cfg := testConfig(t)
	var console testutil.ConsoleRecorder

	opts := exportOptions{PNG: filepath.Join(t.TempDir(), "x.png"), Frames: 1, Main: "sketch"}
	err := exportSketch(cfg, t.TempDir(), map[string]string{"helpers": testutil.SampleHelpers}, opts, &console)

	require.Error(t, err)
	assert.True(t, executor.IsResolutionError(err))
}

func TestExportSketch_ReportsBrokenModule(t *testing.T) {
	cfg := testConfig(t)
	var console testutil.ConsoleRecorder

	modules := testutil.SampleModules()
	modules["broken"] = testutil.SampleSyntaxError
	opts := exportOptions{GIF: filepath.Join(t.TempDir(), "a.gif"), Frames: 2, Main: "sketch"}

	require.NoError(t, exportSketch(cfg, t.TempDir(), modules, opts, &console))
	assert.Contains(t, console.Text(), "Error loading module "+cfg.Executor.Project+".broken")
}

func TestRunHeadless_EndsWhenSketchStops(t *testing.T) {
	cfg := testConfig(t)
	var console testutil.ConsoleRecorder

	ctx, cancel := testutil.RunContext(t)
	defer cancel()

	start := time.Now()
	modules := map[string]string{"sketch": testutil.FaultingSketch(3)}
	require.NoError(t, runHeadless(ctx, cfg, t.TempDir(), modules, "sketch", 0, &console))

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, 1, console.Count("Error in draw():"))
	assert.Contains(t, console.Text(), "Ran 2 frames\n")
}

func TestRunHeadless_Duration(t *testing.T) {
	cfg := testConfig(t)
	var console testutil.ConsoleRecorder

	err := runHeadless(context.Background(), cfg, t.TempDir(), testutil.SampleModules(), "sketch", 100*time.Millisecond, &console)

	require.NoError(t, err)
	assert.Contains(t, console.Text(), "setup\n")
	assert.Contains(t, console.Text(), "Ran ")
	testutil.AssertNotRegistered(t, cfg.Executor.Project+".sketch")
}

func TestExportSketch_MainImportsHelpers(t *testing.T) {
	cfg := testConfig(t)
	var console testutil.ConsoleRecorder

	modules := map[string]string{
		"sketch":  testutil.SketchUsingHelpers(cfg.Executor.Project),
		"helpers": testutil.SampleHelpers,
	}
	opts := exportOptions{PNG: filepath.Join(t.TempDir(), "green.png"), Frames: 1, Main: "sketch"}
	require.NoError(t, exportSketch(cfg, t.TempDir(), modules, opts, &console))

	assert.NotContains(t, console.Text(), "Error")
	testutil.AssertPixel(t, decodePNG(t, opts.PNG), 3, 3, color.RGBA{0, 200, 0, 255})
}

func TestExportSketch_BasicExample(t *testing.T) {
	cfg := testConfig(t)
	var console testutil.ConsoleRecorder

	modules, err := readSketch(filepath.Join("..", "..", "examples", "basic_sketch"))
	require.NoError(t, err)
	require.Contains(t, modules, "sketch")

	out := t.TempDir()
	opts := exportOptions{
		PNG:    filepath.Join(out, "basic.png"),
		GIF:    filepath.Join(out, "basic.gif"),
		Frames: 3,
		Main:   mainModule(modules, cfg.Executor.MainModule),
	}
	require.NoError(t, exportSketch(cfg, t.TempDir(), modules, opts, &console))

	assert.Contains(t, console.Text(), "Basic sketch initialized!\n")
	assert.Len(t, decodeGIF(t, opts.GIF).Image, 3)

	// The third frame centres the circle at x = 2*5.
	img := decodePNG(t, opts.PNG)
	testutil.AssertPixel(t, img, 10, 8, color.RGBA{255, 180, 0, 255})
	testutil.AssertPixel(t, img, 0, 0, color.RGBA{20, 20, 20, 255})
}

func TestEngine_PenStateResetsBetweenSessions(t *testing.T) {
	cfg := testConfig(t)
	offscreen := framebuffer.NewOffscreen(8, 8)
	eng, err := newEngine(cfg, t.TempDir(), engineOptions{
		Display:   offscreen,
		Scheduler: eventloop.NewManual(),
	})
	require.NoError(t, err)
	t.Cleanup(eng.exec.Close)

	first := "package sketch\n\nimport \"peyote/gfx\"\n\nfunc Setup() { gfx.NoStroke(); gfx.Fill(255, 0, 0) }\n"
	require.NoError(t, eng.exec.LoadAndRun(map[string]string{"sketch": first}, "sketch"))

	second := "package sketch\n\nimport \"peyote/gfx\"\n\nfunc Setup() { gfx.Rect(0, 0, 8, 8) }\n"
	require.NoError(t, eng.exec.LoadAndRun(map[string]string{"sketch": second}, "sketch"))

	// Default pen: white fill, so the red fill of the first session is gone.
	testutil.AssertPixel(t, offscreen.Surface().Image(), 4, 4, color.RGBA{255, 255, 255, 255})
}

func TestSmokeCommand_Flags(t *testing.T) {
	assert.Equal(t, "smoke", smokeCmd.Use)
	assert.Error(t, smokeCmd.Args(smokeCmd, []string{"extra"}))

	width := smokeCmd.Flags().Lookup("width")
	require.NotNil(t, width)
	assert.Equal(t, "w", width.Shorthand)
	assert.Equal(t, "640", width.DefValue)

	height := smokeCmd.Flags().Lookup("height")
	require.NotNil(t, height)
	assert.Equal(t, "360", height.DefValue)
}

func TestSmokeScene_MovesCircle(t *testing.T) {
	surface := framebuffer.New(64, 20)
	scene := newSmokeScene(gfx.NewCanvas(surface))
	orange := color.RGBA{255, 180, 0, 255}

	scene.step()
	// Stroked circle of radius 30 around (0, 10): the ring crosses x = 30.
	testutil.AssertPixel(t, surface.Image(), 30, 10, orange)
	testutil.AssertPixel(t, surface.Image(), 0, 10, color.RGBA{20, 20, 20, 255})
	testutil.AssertOpaque(t, surface)

	for i := 0; i < 3; i++ {
		scene.step()
	}
	assert.Equal(t, 4*smokeStep, scene.t)
	// Now centred on x = 15; the old ring position is background again.
	testutil.AssertPixel(t, surface.Image(), 30, 10, color.RGBA{20, 20, 20, 255})
	testutil.AssertPixel(t, surface.Image(), 45, 10, orange)
}

func TestClearProject(t *testing.T) {
	root := t.TempDir()
	store, err := project.Open(root, "current_sketch")
	require.NoError(t, err)
	_, err = store.SaveAll(testutil.SampleModules())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, clearProject(root, "current_sketch", &out))

	assert.Equal(t, "Cleared 2 modules from "+store.Dir()+"\n", out.String())
	modules, err := store.Modules()
	require.NoError(t, err)
	assert.Empty(t, modules)
	_, err = store.Manifest()
	assert.NoError(t, err)
}

// isolateSettings points the user dirs at a temp home and restores the
// package-level settings afterwards.
func isolateSettings(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Cleanup(func() {
		_ = closeLog(rootCmd, nil)
		configPath = ""
		debugFlag = false
		settings = nil
		logging.SetLevel(logging.LevelInfo)
	})
	return home
}

func TestLoadSettings(t *testing.T) {
	home := isolateSettings(t)
	sketches := filepath.Join(home, "my-sketches")
	t.Setenv(config.EnvSketchesDir, sketches)

	configPath = testutil.WriteConfig(t, home, "display:\n  width: 320\n")
	debugFlag = true

	require.NoError(t, loadSettings(rootCmd, nil))

	assert.Equal(t, 320, settings.Display.Width)
	assert.Equal(t, config.DefaultHeight, settings.Display.Height)
	assert.True(t, settings.Debug)
	assert.Equal(t, sketches, dirs.Sketches)
}

func TestLoadSettings_LogsToDataDir(t *testing.T) {
	home := isolateSettings(t)
	configPath = testutil.WriteConfig(t, home, "log_level: info\n")

	require.NoError(t, loadSettings(rootCmd, nil))

	want := filepath.Join(home, "data", config.AppName, "peyote-ide.log")
	assert.Equal(t, want, dirs.LogFile)
	logging.Info("after setup")
	require.NoError(t, closeLog(rootCmd, nil))

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Logging initialized")
	assert.Contains(t, string(data), "after setup")
}

func TestLoadSettings_LogFileOverride(t *testing.T) {
	home := isolateSettings(t)
	custom := filepath.Join(home, "logs", "custom.log")
	t.Setenv(config.EnvLogFile, custom)
	configPath = testutil.WriteConfig(t, home, "log_level: info\n")

	require.NoError(t, loadSettings(rootCmd, nil))
	require.NoError(t, closeLog(rootCmd, nil))

	assert.Equal(t, custom, dirs.LogFile)
	assert.FileExists(t, custom)
	assert.NoFileExists(t, filepath.Join(home, "data", config.AppName, "peyote-ide.log"))
}

func TestLoadSettings_InvalidConfig(t *testing.T) {
	home := isolateSettings(t)
	configPath = testutil.WriteConfig(t, home, "display:\n  refresh_fps: 0\n")

	err := loadSettings(rootCmd, nil)
	require.Error(t, err)
	assert.True(t, config.IsValidationError(err))
}

func TestVersionCommand(t *testing.T) {
	isolateSettings(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "peyote version dev\n", out.String())
}
