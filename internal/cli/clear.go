package cli

import (
	"fmt"
	"io"

	"github.com/pirateninja/peyote/internal/project"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear [project]",
	Short: "Delete the saved modules of a project",
	Long: `Delete the module files saved in a project directory. The project
manifest is kept. Without an argument the configured project is cleared.

Example:
  peyote clear
  peyote clear current_sketch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	name := settings.Executor.Project
	if len(args) == 1 {
		name = args[0]
	}
	return clearProject(dirs.Sketches, name, cmd.OutOrStdout())
}

func clearProject(sketchesDir, name string, out io.Writer) error {
	store, err := project.Open(sketchesDir, name)
	if err != nil {
		return err
	}
	modules, err := store.Modules()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Cleared %d modules from %s\n", len(modules), store.Dir())
	return nil
}
