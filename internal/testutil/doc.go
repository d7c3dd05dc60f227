// Package testutil provides shared test utilities for peyote.
//
// # Fixtures
//
// The fixtures.go file provides sketch sources:
//
//   - SampleSketch, SampleHelpers - a drawing sketch and a helper module
//   - SampleSetupOnly - a sketch without a draw hook
//   - SampleSyntaxError - a module that fails to parse
//   - FaultingSketch(n) - a sketch whose draw returns an error on frame n
//   - SampleModules() - name to source map for a complete sketch
//
// # Environment Helpers
//
// The env.go file provides test environment setup:
//
//   - UniqueProject(t) - a project name no other test uses
//   - SetupSketchDir(t, modules) - writes modules into a fresh sketch dir
//   - WriteConfig(t, dir, content) - writes a config.yaml
//   - WriteTestFile(t, base, path, content) - writes a file in test dir
//   - UnloadOnCleanup(t, l) - unloads a loader when the test ends
//
// # Assertions
//
// The assertions.go file provides custom test assertions:
//
//   - AssertOpaque(t, surface) - every pixel has full alpha
//   - AssertPixel(t, img, x, y, c) - one pixel has colour c
//   - AssertNotRegistered(t, names...) - modules left the registry
//   - ConsoleRecorder - collects console text and counts occurrences
//
// # Usage
//
//	func TestSomething(t *testing.T) {
//	    dir := testutil.SetupSketchDir(t, testutil.SampleModules())
//	    var console testutil.ConsoleRecorder
//	    // ... run the sketch in dir ...
//	    assert.Equal(t, 1, console.Count("Error in draw()"))
//	}
package testutil
