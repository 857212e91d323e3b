package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/loopedtheme/looped/internal/build"
	"github.com/loopedtheme/looped/internal/config"
	"github.com/loopedtheme/looped/internal/logger"
	"github.com/loopedtheme/looped/internal/theme"
	"github.com/spf13/cobra"
)

const (
	logoText1 = "█   █▀█ █▀█ █▀█ █▀▀ █▀▄"
	logoText2 = "█▄▄ █▄█ █▄█ █▀▀ ██▄ █▄▀"
)

// Version set via ldflags during build
var version = "dev"

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootFlags struct {
	verbose bool
}

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "looped",
	Short:             "Compile TOML color templates into editor and terminal themes",
	PersistentPreRunE: setup,
	SilenceUsage:      true,
}

// setup loads configuration and applies its logging settings.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = loaded

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if rootFlags.verbose {
		level = logger.LevelDebug
	}
	logger.Default.SetLevel(level)

	if cfg.LogFile != "" {
		if err := logger.Default.SetFile(cfg.LogFile); err != nil {
			return err
		}
	}
	if !config.Exists() {
		logger.Debug("No config file found (%s, %s), using defaults", config.ProjectPath(), config.GlobalPath())
	}
	return nil
}

func newBuilder() *build.Builder {
	return build.New(build.OptionsFromConfig(cfg))
}

// renderLogo blends the logo from the Looped accent toward its secondary.
func renderLogo() string {
	from := theme.MustParseHex("#685EF6")
	to := theme.MustParseHex("#3FB6C8")
	return strings.Join([]string{gradient(logoText1, from, to), gradient(logoText2, from, to)}, "\n")
}

func gradient(text string, from, to theme.Color) string {
	runes := []rune(text)
	var b strings.Builder
	for i, r := range runes {
		pos := 0.0
		if len(runes) > 1 {
			pos = float64(i) / float64(len(runes)-1)
		}
		c := from.Mix(to, pos)
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.RGBHex())).Render(string(r)))
	}
	return b.String()
}

func init() {
	rootCmd.Long = renderLogo() + `

looped compiles a store of TOML color templates into theme files for
VS Code, Zed, Warp and Oh My Posh. Templates compose through extends,
theme descriptors pick templates and override tokens, and every format
is generated from the same resolved palette.

Configuration precedence:
  Environment variables (LOOPED_*) > ./looped.yml > ~/.config/looped/looped.yml > defaults`

	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(initCmd)
}
