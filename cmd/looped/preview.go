package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/editor"
	"github.com/loopedtheme/looped/internal/emit"
	"github.com/loopedtheme/looped/internal/preview"
	"github.com/spf13/cobra"
)

var previewFlags struct {
	lang string
	file string
}

var tokensFlags struct {
	format string
}

var tokensCmd = &cobra.Command{
	Use:   "tokens <theme>",
	Short: "List a theme's resolved tokens with swatches",
	Long: `Resolve one theme and list every token with a color swatch, its value and
the template that supplied it. The theme is named by its descriptor name
("Looped Dark") or file stem ("looped-dark").

With --format, list the keys that format receives instead, each with the
token expression or per-editor override behind it.`,
	Args: cobra.ExactArgs(1),
	RunE: runTokens,
}

var previewCmd = &cobra.Command{
	Use:   "preview <theme>",
	Short: "Highlight code with a theme's syntax colors",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var editCmd = &cobra.Command{
	Use:   "edit <template>",
	Short: "Open a template or theme descriptor in $EDITOR",
	Long: `Open a template (e.g. "semantic/dark") in $EDITOR. If no template has
that name, a theme descriptor with that file stem is opened instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	tokensCmd.Flags().StringVarP(&tokensFlags.format, "format", "f", "", "Show the keys one format receives (vscode, zed, warp, ohmyposh)")
	previewCmd.Flags().StringVarP(&previewFlags.lang, "lang", "l", "", "Language lexer (default: detect)")
	previewCmd.Flags().StringVarP(&previewFlags.file, "file", "f", "", "File to highlight (default: built-in Go sample)")
}

func runTokens(cmd *cobra.Command, args []string) error {
	r, err := newBuilder().Theme(args[0])
	if err != nil {
		return err
	}
	w := preview.NewWriter(cmd.OutOrStdout())
	if tokensFlags.format == "" {
		return preview.Tokens(w, r)
	}

	f, err := emit.ParseFormat(tokensFlags.format)
	if err != nil {
		return err
	}
	e, err := emit.For(f)
	if err != nil {
		return err
	}
	return preview.Bindings(w, r, f, e.Schema().Table)
}

func runPreview(cmd *cobra.Command, args []string) error {
	r, err := newBuilder().Theme(args[0])
	if err != nil {
		return err
	}

	source := preview.Sample
	lang := previewFlags.lang
	if previewFlags.file != "" {
		data, err := os.ReadFile(previewFlags.file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", previewFlags.file, err)
		}
		source = string(data)
	} else if lang == "" {
		lang = "go"
	}

	return preview.Highlight(preview.NewWriter(cmd.OutOrStdout()), r, source, previewFlags.file, lang)
}

func runEdit(cmd *cobra.Command, args []string) error {
	path, err := newBuilder().SourcePath(args[0])
	if err != nil {
		return err
	}

	c, err := editor.Command("looped", path)
	if err != nil {
		return fmt.Errorf("failed to start editor: %w", err)
	}
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("editor exited: %w", err)
	}
	return nil
}
