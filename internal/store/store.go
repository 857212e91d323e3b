// Package store loads the TOML template store: reusable templates addressed by
// their path under the templates directory, and the theme descriptors that
// select them.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/loopedtheme/looped/internal/logger"
	"github.com/loopedtheme/looped/internal/theme"
	"github.com/pelletier/go-toml/v2"
)

// Ext is the file extension of store documents.
const Ext = ".toml"

// Store is an immutable snapshot of the template store.
type Store struct {
	templates   map[string]*Template
	descriptors []*Descriptor
}

// New builds a store from already parsed documents.
func New(templates []*Template, descriptors []*Descriptor) (*Store, error) {
	s := &Store{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if prev, exists := s.templates[t.Name]; exists {
			return nil, fmt.Errorf("template %q defined twice (%s, %s)", t.Name, prev.Path, t.Path)
		}
		s.templates[t.Name] = t
	}

	seen := make(map[string]string, len(descriptors))
	for _, d := range descriptors {
		if prev, exists := seen[d.Name]; exists {
			return nil, fmt.Errorf("theme %q declared twice (%s, %s)", d.Name, prev, d.Path)
		}
		seen[d.Name] = d.Path
	}
	s.descriptors = append([]*Descriptor(nil), descriptors...)
	return s, nil
}

// Load reads every template under templatesDir (recursively) and every
// descriptor directly inside themesDir.
func Load(templatesDir, themesDir string) (*Store, error) {
	templates, err := loadTemplates(templatesDir)
	if err != nil {
		return nil, err
	}

	descriptors, err := loadDescriptors(themesDir)
	if err != nil {
		return nil, err
	}
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("no theme descriptors found in %s", themesDir)
	}

	s, err := New(templates, descriptors)
	if err != nil {
		return nil, err
	}

	logger.Debug("Loaded %d templates and %d theme descriptors", len(templates), len(descriptors))
	return s, nil
}

func loadTemplates(dir string) ([]*Template, error) {
	var templates []*Template
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != Ext {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		t, err := ParseTemplate(NormalizeName(rel), p, data)
		if err != nil {
			return err
		}
		if t.Empty() && len(t.Extends) == 0 {
			logger.Warn("Template %s contributes no colors or syntax rules", t.Name)
		}
		templates = append(templates, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load templates from %s: %w", dir, err)
	}

	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

func loadDescriptors(dir string) ([]*Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read themes directory: %w", err)
	}

	var descriptors []*Descriptor
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != Ext {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read theme descriptor: %w", err)
		}
		d, err := ParseDescriptor(p, data)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// NormalizeName turns a relative file path or a reference into a template
// name: forward slashes, no extension, no leading "./".
func NormalizeName(ref string) string {
	name := path.Clean(filepath.ToSlash(strings.TrimSpace(ref)))
	return strings.TrimSuffix(name, Ext)
}

// ParseTemplate decodes one template document.
func ParseTemplate(name, file string, data []byte) (*Template, error) {
	var raw rawTemplate
	if err := decodeStrict(file, data, &raw); err != nil {
		return nil, err
	}

	t := &Template{
		Name:        name,
		Path:        file,
		Description: raw.Description,
	}
	for _, ref := range raw.Extends {
		t.Extends = append(t.Extends, NormalizeName(ref))
	}

	layer, err := parseLayer(raw.Colors, raw.Syntax)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	t.Layer = layer
	return t, nil
}

// ParseDescriptor decodes one theme descriptor.
func ParseDescriptor(file string, data []byte) (*Descriptor, error) {
	var raw rawDescriptor
	if err := decodeStrict(file, data, &raw); err != nil {
		return nil, err
	}

	if strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("%s: theme descriptor is missing name", file)
	}
	if _, err := theme.ParseAppearance(raw.Appearance); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	d := &Descriptor{
		Path:                 file,
		Name:                 raw.Name,
		Appearance:           raw.Appearance,
		SemanticHighlighting: true,
	}
	if raw.SemanticHighlighting != nil {
		d.SemanticHighlighting = *raw.SemanticHighlighting
	}
	for _, ref := range raw.Templates {
		d.Templates = append(d.Templates, NormalizeName(ref))
	}

	layer, err := parseLayer(raw.Overrides.Colors, raw.Overrides.Syntax)
	if err != nil {
		return nil, fmt.Errorf("%s: overrides: %w", file, err)
	}
	d.Overrides = layer
	return d, nil
}

func decodeStrict(file string, data []byte, v any) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("parse %s:%d:%d: %w", file, row, col, err)
		}
		return fmt.Errorf("parse %s: %w", file, err)
	}
	return nil
}

// Template returns a template by name.
func (s *Store) Template(name string) (*Template, bool) {
	t, ok := s.templates[NormalizeName(name)]
	return t, ok
}

// Templates returns all templates sorted by name.
func (s *Store) Templates() []*Template {
	out := make([]*Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Descriptors returns the descriptors in file order.
func (s *Store) Descriptors() []*Descriptor {
	return s.descriptors
}

// Descriptor finds a descriptor by theme name (case-insensitive) or by file
// stem, e.g. "Looped Dark" or "looped-dark".
func (s *Store) Descriptor(ref string) (*Descriptor, bool) {
	for _, d := range s.descriptors {
		stem := strings.TrimSuffix(filepath.Base(d.Path), Ext)
		if strings.EqualFold(d.Name, ref) || stem == ref {
			return d, true
		}
	}
	return nil, false
}
