// Package build runs the compile pipeline: load the template store, resolve
// every theme descriptor, run the selected emitters and write their artifacts.
package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loopedtheme/looped/internal/config"
	"github.com/loopedtheme/looped/internal/emit"
	"github.com/loopedtheme/looped/internal/logger"
	"github.com/loopedtheme/looped/internal/resolve"
	"github.com/loopedtheme/looped/internal/store"
	"github.com/loopedtheme/looped/internal/theme"
)

// Options configures a Builder.
type Options struct {
	TemplatesDir string
	ThemesDir    string
	Product      string
	Author       string
	// OutputDirs maps each format to its artifact directory.
	OutputDirs map[emit.Format]string
}

// OptionsFromConfig maps a loaded configuration onto builder options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TemplatesDir: cfg.TemplatesDir,
		ThemesDir:    cfg.ThemesDir,
		Product:      cfg.Product,
		Author:       cfg.Author,
		OutputDirs: map[emit.Format]string{
			emit.VSCode:   cfg.Output.VSCode,
			emit.Zed:      cfg.Output.Zed,
			emit.Warp:     cfg.Output.Warp,
			emit.OhMyPosh: cfg.Output.OhMyPosh,
		},
	}
}

// Builder compiles the template store into artifacts.
type Builder struct {
	opts Options
}

// New creates a builder.
func New(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Result is the outcome of one compile.
type Result struct {
	Themes []*theme.Resolved
	// Artifacts holds the output of every format that emitted successfully.
	Artifacts map[emit.Format][]emit.Artifact
	// Failed holds the error of every format that did not.
	Failed map[emit.Format]error
	// Written lists the paths written by Build.
	Written []string
}

// Err joins the per-format failures in build order.
func (r *Result) Err() error {
	var errs []error
	for _, f := range emit.All() {
		if err, ok := r.Failed[f]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
	}
	return errors.Join(errs...)
}

// Load reads the store and resolves every descriptor. Any failure here is
// fatal to the whole build.
func (b *Builder) Load() ([]*theme.Resolved, error) {
	s, err := store.Load(b.opts.TemplatesDir, b.opts.ThemesDir)
	if err != nil {
		return nil, err
	}
	return resolve.New(s).ResolveAll()
}

// Theme resolves a single descriptor, found by theme name or file stem.
func (b *Builder) Theme(ref string) (*theme.Resolved, error) {
	s, err := store.Load(b.opts.TemplatesDir, b.opts.ThemesDir)
	if err != nil {
		return nil, err
	}
	d, ok := s.Descriptor(ref)
	if !ok {
		return nil, fmt.Errorf("no theme named %q in %s", ref, b.opts.ThemesDir)
	}
	return resolve.New(s).Resolve(d)
}

// SourcePath finds the file behind a template name ("semantic/dark") or a
// theme descriptor, given by file stem or theme name. The file is looked up
// on disk first so a store that no longer loads can still be opened.
func (b *Builder) SourcePath(ref string) (string, error) {
	rel := filepath.FromSlash(store.NormalizeName(ref)) + store.Ext
	for _, dir := range []string{b.opts.TemplatesDir, b.opts.ThemesDir} {
		path := filepath.Join(dir, rel)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	s, err := store.Load(b.opts.TemplatesDir, b.opts.ThemesDir)
	if err != nil {
		logger.Debug("Store did not load while looking up %q: %v", ref, err)
		return "", fmt.Errorf("no template or theme named %q", ref)
	}
	if d, ok := s.Descriptor(ref); ok {
		return d.Path, nil
	}

	names := make([]string, 0, len(s.Templates()))
	for _, t := range s.Templates() {
		names = append(names, t.Name)
	}
	return "", fmt.Errorf("no template or theme named %q (templates: %s)", ref, strings.Join(names, ", "))
}

// Compile runs the pipeline in memory. The returned error is set only for
// store and resolution failures; emitter failures are recorded per format in
// the result.
func (b *Builder) Compile(formats []emit.Format) (*Result, error) {
	themes, err := b.Load()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Themes:    themes,
		Artifacts: make(map[emit.Format][]emit.Artifact),
		Failed:    make(map[emit.Format]error),
	}
	set := emit.Set{Product: b.opts.Product, Author: b.opts.Author, Themes: themes}

	for _, f := range formats {
		e, err := emit.For(f)
		if err != nil {
			res.Failed[f] = err
			continue
		}
		artifacts, err := e.Emit(set)
		if err != nil {
			logger.Error("Emit %s failed: %v", f, err)
			res.Failed[f] = err
			continue
		}
		res.Artifacts[f] = artifacts
	}
	return res, nil
}

// Build compiles and writes every artifact of every successful format. A
// failing format is not written and leaves its previous files untouched.
func (b *Builder) Build(formats []emit.Format) (*Result, error) {
	res, err := b.Compile(formats)
	if err != nil {
		return nil, err
	}

	for _, f := range formats {
		artifacts, ok := res.Artifacts[f]
		if !ok {
			continue
		}
		for _, a := range artifacts {
			path := b.Path(a)
			if err := WriteFile(path, a.Data); err != nil {
				res.Failed[f] = errors.Join(res.Failed[f], err)
				continue
			}
			res.Written = append(res.Written, path)
			logger.Info("Built %s", path)
		}
	}
	return res, res.Err()
}

// Path returns where an artifact is written.
func (b *Builder) Path(a emit.Artifact) string {
	return filepath.Join(b.opts.OutputDirs[a.Format], a.Name)
}

// WriteFile replaces path with data in full: the data goes to a temp file
// in the same directory which is then renamed over the target.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
