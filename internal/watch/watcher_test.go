package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/loopedtheme/looped/internal/testfixtures"
)

const testDebounce = 150 * time.Millisecond

// start runs a watcher over dir and stops it when the test ends.
func start(t *testing.T, dir string, rebuild func() error) {
	t.Helper()

	w, err := New(Options{Dirs: []string{dir}, Debounce: testDebounce, Rebuild: rebuild})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("Run() returned early: %v", err)
	case <-time.After(testfixtures.DefaultWaitDuration):
		t.Fatal("watcher never became ready")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(testfixtures.DefaultWaitDuration):
			t.Error("watcher did not stop")
		}
	})
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	templatesDir, _ := testfixtures.SampleStore(t)

	var count atomic.Int32
	start(t, templatesDir, func() error {
		count.Add(1)
		return nil
	})

	base := filepath.Join(templatesDir, "palette", "base.toml")
	write(t, base, "[colors]\naccent = \"#000000\"\n")
	time.Sleep(40 * time.Millisecond)
	write(t, base, "[colors]\naccent = \"#111111\"\n")

	if !testfixtures.WaitFor(t, testfixtures.DefaultWaitDuration, func() bool { return count.Load() >= 1 }) {
		t.Fatal("rebuild never ran")
	}

	// Nothing else changed, so no second rebuild follows.
	time.Sleep(3 * testDebounce)
	if got := count.Load(); got != 1 {
		t.Errorf("rebuilds = %d, want 1", got)
	}
}

func TestWatcher_ContinuesAfterFailedRebuild(t *testing.T) {
	templatesDir, _ := testfixtures.SampleStore(t)

	var count atomic.Int32
	start(t, templatesDir, func() error {
		if count.Add(1) == 1 {
			return errors.New("reference cycle")
		}
		return nil
	})

	path := filepath.Join(templatesDir, "semantic", "dark.toml")
	write(t, path, "[colors]\ncursor = \"${cursor}\"\n")
	if !testfixtures.WaitFor(t, testfixtures.DefaultWaitDuration, func() bool { return count.Load() == 1 }) {
		t.Fatal("first rebuild never ran")
	}

	write(t, path, "[colors]\ncursor = \"#685EF6\"\n")
	if !testfixtures.WaitFor(t, testfixtures.DefaultWaitDuration, func() bool { return count.Load() == 2 }) {
		t.Fatalf("rebuilds = %d, want 2 after fixing the template", count.Load())
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	templatesDir, _ := testfixtures.SampleStore(t)

	var count atomic.Int32
	start(t, templatesDir, func() error {
		count.Add(1)
		return nil
	})

	write(t, filepath.Join(templatesDir, "NOTES.md"), "scratch")
	write(t, filepath.Join(templatesDir, "palette", ".#base.toml"), "lock")
	write(t, filepath.Join(templatesDir, "palette", "base.toml~"), "backup")

	time.Sleep(3 * testDebounce)
	if got := count.Load(); got != 0 {
		t.Fatalf("rebuilds = %d, want 0 for non-template files", got)
	}

	write(t, filepath.Join(templatesDir, "palette", "extra.toml"), "[colors]\n")
	if !testfixtures.WaitFor(t, testfixtures.DefaultWaitDuration, func() bool { return count.Load() == 1 }) {
		t.Fatal("template change did not trigger a rebuild")
	}
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	templatesDir, _ := testfixtures.SampleStore(t)

	var count atomic.Int32
	start(t, templatesDir, func() error {
		count.Add(1)
		return nil
	})

	dir := filepath.Join(templatesDir, "overrides")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	// Give the loop time to add the new watch.
	time.Sleep(3 * testDebounce)
	if got := count.Load(); got != 0 {
		t.Fatalf("rebuilds = %d, want 0 for an empty directory", got)
	}

	write(t, filepath.Join(dir, "cursor.toml"), "[colors]\ncursor = \"#FF0000\"\n")
	if !testfixtures.WaitFor(t, testfixtures.DefaultWaitDuration, func() bool { return count.Load() == 1 }) {
		t.Fatal("change in new directory did not trigger a rebuild")
	}
}

func TestWatcher_DirectoryMovedOut(t *testing.T) {
	templatesDir, _ := testfixtures.SampleStore(t)

	var count atomic.Int32
	start(t, templatesDir, func() error {
		count.Add(1)
		return nil
	})

	// Only the directory name is reported; its templates vanish with it.
	dest := filepath.Join(t.TempDir(), "palette")
	if err := os.Rename(filepath.Join(templatesDir, "palette"), dest); err != nil {
		t.Fatalf("failed to move dir: %v", err)
	}
	if !testfixtures.WaitFor(t, testfixtures.DefaultWaitDuration, func() bool { return count.Load() >= 1 }) {
		t.Fatal("moving a template directory away did not trigger a rebuild")
	}
}

func TestHandleEvent_DirectoryGone(t *testing.T) {
	templatesDir, _ := testfixtures.SampleStore(t)
	nested := filepath.Join(templatesDir, "palette", "extra")
	if err := os.Mkdir(nested, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	w, err := New(Options{Dirs: []string{templatesDir}, Rebuild: func() error { return nil }})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.watcher.Close() })
	if err := w.addRecursive(templatesDir); err != nil {
		t.Fatalf("addRecursive() error = %v", err)
	}

	palette := filepath.Join(templatesDir, "palette")
	if !w.handleEvent(fsnotify.Event{Name: palette, Op: fsnotify.Rename}) {
		t.Fatal("rename of a watched directory should restart the debounce")
	}
	if _, ok := w.pending[palette]; !ok {
		t.Errorf("pending = %v, want %s", w.pending, palette)
	}
	for _, dir := range []string{palette, nested} {
		if _, ok := w.dirs[dir]; ok {
			t.Errorf("%s still tracked after its parent went away", dir)
		}
	}
	if _, ok := w.dirs[filepath.Join(templatesDir, "semantic")]; !ok {
		t.Error("sibling directory was dropped")
	}

	// A second report for the same directory is not a new change.
	if w.handleEvent(fsnotify.Event{Name: palette, Op: fsnotify.Remove}) {
		t.Error("directory already forgotten should be ignored")
	}
	// Names that never were directories still go through the template filter.
	if w.handleEvent(fsnotify.Event{Name: filepath.Join(templatesDir, "notes"), Op: fsnotify.Remove}) {
		t.Error("removal of an unknown extensionless path should be ignored")
	}
}

func TestWatcher_RemoveCountsAsChange(t *testing.T) {
	templatesDir, _ := testfixtures.SampleStore(t)

	var count atomic.Int32
	start(t, templatesDir, func() error {
		count.Add(1)
		return nil
	})

	if err := os.Remove(filepath.Join(templatesDir, "palette", "ansi.toml")); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if !testfixtures.WaitFor(t, testfixtures.DefaultWaitDuration, func() bool { return count.Load() == 1 }) {
		t.Fatal("removal did not trigger a rebuild")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(Options{Dirs: []string{t.TempDir()}}); err == nil {
		t.Error("New() without rebuild func should fail")
	}
	if _, err := New(Options{Rebuild: func() error { return nil }}); err == nil {
		t.Error("New() without dirs should fail")
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	w, err := New(Options{
		Dirs:    []string{filepath.Join(t.TempDir(), "missing")},
		Rebuild: func() error { return nil },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() should fail for a missing directory")
	}
}
