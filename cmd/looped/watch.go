package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/loopedtheme/looped/internal/emit"
	"github.com/loopedtheme/looped/internal/logger"
	"github.com/loopedtheme/looped/internal/watch"
	"github.com/spf13/cobra"
)

var watchFlags struct {
	formats []string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild themes whenever a template changes",
	Long: `Build once, then watch the templates and themes directories and rebuild
after every burst of changes. Saves closer together than debounce_ms
(default 250ms) produce a single rebuild. Failed rebuilds are logged and
watching continues. Stop with Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchFlags.formats, "format", "f", nil, "Formats to rebuild (default: all)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	formats, err := emit.ParseFormats(watchFlags.formats)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := newBuilder()
	rebuild := func() error {
		res, err := b.Build(formats)
		if err != nil {
			return err
		}
		return postBuild(ctx, res)
	}

	// The initial build may fail; watching lets the user fix it.
	if err := rebuild(); err != nil {
		logger.Error("Initial build failed: %v", err)
	}

	w, err := watch.New(watch.Options{
		Dirs:     []string{cfg.TemplatesDir, cfg.ThemesDir},
		Debounce: cfg.Debounce(),
		Rebuild:  rebuild,
	})
	if err != nil {
		return err
	}

	return w.Run(ctx)
}
