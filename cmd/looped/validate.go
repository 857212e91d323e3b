package main

import (
	"fmt"

	"github.com/loopedtheme/looped/internal/build"
	"github.com/loopedtheme/looped/internal/emit"
	"github.com/loopedtheme/looped/internal/validate"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [format...]",
	Short: "Check generated theme files against their format contracts",
	Long: `Validate the generated files in each output directory: required keys,
no keys from another format, strict hex colors, Zed syntax scopes and
Oh My Posh palette references. Every theme name must contain the product
name from the config.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	formats, err := emit.ParseFormats(args)
	if err != nil {
		return err
	}

	opts := build.OptionsFromConfig(cfg)
	report, err := validate.New(cfg.Product).Outputs(opts.OutputDirs, formats)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range report.Problems {
		fmt.Fprintln(out, p.String())
	}
	if err := report.Err(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d file(s) valid\n", len(report.Files))
	return nil
}
