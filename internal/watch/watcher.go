// Package watch rebuilds themes when the template store changes.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/loopedtheme/looped/internal/logger"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 250 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Dirs are watched recursively; directories created later are added.
	Dirs []string
	// Debounce is the quiet window that coalesces a burst of events.
	Debounce time.Duration
	// Ext selects the files whose changes count. Defaults to ".toml".
	Ext string
	// Rebuild runs once per burst. Errors are logged and watching continues.
	Rebuild func() error
}

// Watcher observes the store and runs one rebuild per burst of changes.
// Rebuilds run on the event loop goroutine, so they never overlap.
type Watcher struct {
	watcher *fsnotify.Watcher
	opts    Options
	pending map[string]struct{}
	// dirs holds every directory under watch, so a directory that is
	// removed or moved away can be told apart from an ignored file.
	dirs  map[string]struct{}
	ready chan struct{}
}

// New creates a watcher. Call Run to start observing.
func New(opts Options) (*Watcher, error) {
	if opts.Rebuild == nil {
		return nil, fmt.Errorf("watch: rebuild func is required")
	}
	if len(opts.Dirs) == 0 {
		return nil, fmt.Errorf("watch: no directories to watch")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Ext == "" {
		opts.Ext = ".toml"
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	return &Watcher{
		watcher: w,
		opts:    opts,
		pending: make(map[string]struct{}),
		dirs:    make(map[string]struct{}),
		ready:   make(chan struct{}),
	}, nil
}

// Ready is closed once every directory is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. A rebuild in progress completes before
// cancellation is observed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for _, dir := range w.opts.Dirs {
		if err := w.addRecursive(dir); err != nil {
			return err
		}
	}
	close(w.ready)
	logger.Info("Watching %s for changes", strings.Join(w.opts.Dirs, ", "))

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("Watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				timer.Reset(w.opts.Debounce)
				fire = timer.C
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-fire:
			fire = nil
			w.rebuild()
		}
	}
}

func (w *Watcher) rebuild() {
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	sort.Strings(changed)
	w.pending = make(map[string]struct{})

	logger.Info("Rebuilding after changes to %s", strings.Join(changed, ", "))

	start := time.Now()
	if err := w.opts.Rebuild(); err != nil {
		logger.Error("Rebuild failed: %v", err)
		return
	}
	logger.Info("Rebuild finished in %s", time.Since(start).Round(time.Millisecond))
}

// handleEvent records a relevant change and reports whether the debounce
// window should restart.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	path := event.Name
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if w.forget(path) {
			w.pending[path] = struct{}{}
			logger.Debug("Directory gone: %s %s", event.Op, path)
			return true
		}
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				logger.Warn("Watcher: failed to watch new dir %s: %v", path, err)
			}
			// A directory moved in may already hold templates.
			if hasTemplates(path, w.opts.Ext) {
				w.pending[path] = struct{}{}
				return true
			}
			return false
		}
	}

	if !w.relevant(path) {
		return false
	}
	w.pending[path] = struct{}{}
	logger.Debug("Change detected: %s %s", event.Op, path)
	return true
}

// relevant filters out non-template files and editor droppings such as
// ".#name.toml" lock files.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "#") {
		return false
	}
	return filepath.Ext(base) == w.opts.Ext
}

// addRecursive adds watches for root and every directory below it.
func (w *Watcher) addRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", root)
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		if err := w.watcher.Add(path); err != nil {
			logger.Warn("Watcher: failed to watch %s: %v", path, err)
			if strings.Contains(err.Error(), "no space left on device") ||
				strings.Contains(err.Error(), "too many open files") {
				logger.Error("Watcher: inotify watch limit reached. Increase fs.inotify.max_user_watches")
				return filepath.SkipDir
			}
			return nil
		}
		w.dirs[path] = struct{}{}
		return nil
	})
}

// forget drops dir and everything below it from the watch set. It reports
// false when dir was not a watched directory.
func (w *Watcher) forget(dir string) bool {
	if _, ok := w.dirs[dir]; !ok {
		return false
	}
	prefix := dir + string(filepath.Separator)
	for path := range w.dirs {
		if path != dir && !strings.HasPrefix(path, prefix) {
			continue
		}
		delete(w.dirs, path)
		// The watch may already be gone with the directory.
		_ = w.watcher.Remove(path)
	}
	return true
}

func hasTemplates(dir, ext string) bool {
	found := false
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || found {
			return filepath.SkipDir
		}
		if !info.IsDir() && filepath.Ext(path) == ext {
			found = true
		}
		return nil
	})
	return found
}
