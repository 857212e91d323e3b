package main

import (
	"fmt"

	"github.com/loopedtheme/looped/internal/emit"
	"github.com/spf13/cobra"
)

var checkFlags struct {
	quiet bool
}

var checkCmd = &cobra.Command{
	Use:   "check [format...]",
	Short: "Report theme files that are out of date",
	Long: `Compile in memory and compare every generated file with the one on disk.
A unified diff is printed for each file that differs. Nothing is written.
Exits non-zero when any file is missing or stale.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVarP(&checkFlags.quiet, "quiet", "q", false, "List stale files without diffs")
}

func runCheck(cmd *cobra.Command, args []string) error {
	formats, err := emit.ParseFormats(args)
	if err != nil {
		return err
	}

	stale, _, err := newBuilder().Check(formats)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, s := range stale {
		state := "stale"
		if s.Missing {
			state = "missing"
		}
		fmt.Fprintf(out, "%s: %s\n", state, s.Path)
		if !checkFlags.quiet {
			fmt.Fprintln(out, s.Diff)
		}
	}

	if len(stale) > 0 {
		return fmt.Errorf("%d file(s) out of date, run 'looped build'", len(stale))
	}
	fmt.Fprintln(out, "All theme files are up to date")
	return nil
}
