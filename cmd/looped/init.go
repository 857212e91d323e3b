package main

import (
	"fmt"
	"os"

	"github.com/loopedtheme/looped/internal/config"
	"github.com/spf13/cobra"
)

var initFlags struct {
	global bool
	force  bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a looped configuration file",
	Long: `Create a looped configuration file holding the current settings.

By default, creates ./looped.yml in the current directory.
Use --global to create ~/.config/looped/looped.yml instead.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initFlags.global, "global", "g", false, "Create the global config instead of ./looped.yml")
	initCmd.Flags().BoolVarP(&initFlags.force, "force", "f", false, "Overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetPath := config.ProjectPath()
	if initFlags.global {
		targetPath = config.GlobalPath()
	}

	if !initFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	var err error
	if initFlags.global {
		err = config.WriteGlobal(cfg)
	} else {
		err = config.WriteProject(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config written to: %s\n\n", targetPath)
	fmt.Fprintln(cmd.OutOrStdout(), "Run 'looped build' to generate themes.")
	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
