package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/loopedtheme/looped/internal/build"
	"github.com/loopedtheme/looped/internal/emit"
	"github.com/loopedtheme/looped/internal/hooks"
	"github.com/loopedtheme/looped/internal/logger"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [format...]",
	Short: "Compile every theme into the selected formats",
	Long: `Compile every theme descriptor into theme files.

Without arguments all formats are built: vscode, zed, warp and ohmyposh.
A format that fails (missing tokens, unsupported values) is not written and
keeps its previous files; the other formats are still written. Template
errors such as cycles or unknown references abort the whole build.

After a successful build the hooks.post_build command from the config runs
with {{formats}}, {{files}} and {{count}} expanded.`,
	ValidArgs: []string{"vscode", "zed", "warp", "ohmyposh"},
	RunE:      runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	formats, err := emit.ParseFormats(args)
	if err != nil {
		return err
	}

	res, err := newBuilder().Build(formats)
	if res != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Built %d file(s) for %d theme(s)\n", len(res.Written), len(res.Themes))
	}
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return postBuild(cmd.Context(), res)
}

// postBuild runs the configured post-build hook for a successful build.
func postBuild(ctx context.Context, res *build.Result) error {
	hook := cfg.Hooks.PostBuild
	if !hook.Enabled() || len(res.Written) == 0 {
		return nil
	}

	var formats []string
	for _, f := range emit.All() {
		if _, ok := res.Artifacts[f]; ok {
			formats = append(formats, string(f))
		}
	}

	output, err := hooks.Run(ctx, hook, ".", hooks.Variables{Formats: formats, Files: res.Written})
	if out := strings.TrimSpace(output); out != "" {
		logger.Info("post_build: %s", out)
	}
	if err != nil {
		return fmt.Errorf("post_build: %w", err)
	}
	return nil
}
