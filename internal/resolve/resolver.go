// Package resolve merges the templates referenced by a theme descriptor into a
// single resolved theme.
package resolve

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/loopedtheme/looped/internal/logger"
	"github.com/loopedtheme/looped/internal/store"
	"github.com/loopedtheme/looped/internal/theme"
)

// refPattern matches a whole-value token reference such as ${accent.secondary}.
var refPattern = regexp.MustCompile(`^\$\{([A-Za-z0-9_.\-]+)\}$`)

// Resolver resolves descriptors against one store snapshot.
type Resolver struct {
	store *store.Store
}

// New creates a resolver over s.
func New(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// ResolveAll resolves every descriptor in the store, stopping at the first
// failure.
func (r *Resolver) ResolveAll() ([]*theme.Resolved, error) {
	descriptors := r.store.Descriptors()
	out := make([]*theme.Resolved, 0, len(descriptors))
	for _, d := range descriptors {
		resolved, err := r.Resolve(d)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

// Resolve produces the resolved theme for d. Templates apply in linearized
// order, then the descriptor's overrides, then ${token} references are
// substituted.
func (r *Resolver) Resolve(d *store.Descriptor) (*theme.Resolved, error) {
	appearance, err := theme.ParseAppearance(d.Appearance)
	if err != nil {
		return nil, &theme.ResolutionError{Theme: d.Name, Template: d.Path, Reason: err.Error()}
	}

	order, err := r.Order(d)
	if err != nil {
		return nil, err
	}

	m := newMerge()
	for _, name := range order {
		t, _ := r.store.Template(name)
		m.apply(name, t.Layer)
	}
	m.apply(d.Path, d.Overrides)

	out := theme.NewResolved(d.Name, appearance)
	out.SemanticHighlighting = d.SemanticHighlighting
	out.Source = d.Path
	if err := m.resolveInto(out); err != nil {
		return nil, err
	}

	logger.Debug("Resolved %q from %d templates: %d tokens, %d syntax rules",
		d.Name, len(order), len(out.Tokens), len(out.Syntax))
	return out, nil
}

// visit states for the linearization walk
const (
	unvisited = iota
	visiting
	done
)

type frame struct {
	name string
	next int // index of the next extends entry to visit
}

// Order returns the templates d pulls in, dependencies first. Each template
// appears once, at the position of its first complete visit, so among
// siblings the later-listed template is applied later and wins.
func (r *Resolver) Order(d *store.Descriptor) ([]string, error) {
	state := make(map[string]int)
	var order []string

	for _, root := range d.Templates {
		if state[root] == done {
			continue
		}
		if _, ok := r.store.Template(root); !ok {
			return nil, &theme.ResolutionError{
				Theme:     d.Name,
				Template:  d.Path,
				Reference: root,
				Reason:    "template not found",
			}
		}

		stack := []frame{{name: root}}
		state[root] = visiting

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			t, _ := r.store.Template(top.name)

			if top.next == len(t.Extends) {
				state[top.name] = done
				order = append(order, top.name)
				stack = stack[:len(stack)-1]
				continue
			}

			dep := t.Extends[top.next]
			top.next++

			switch state[dep] {
			case done:
				continue
			case visiting:
				return nil, &theme.ResolutionError{
					Theme:     d.Name,
					Template:  t.Path,
					Reference: dep,
					Cycle:     cyclePath(stack, dep),
					Reason:    "template cycle",
				}
			}

			if _, ok := r.store.Template(dep); !ok {
				return nil, &theme.ResolutionError{
					Theme:     d.Name,
					Template:  t.Path,
					Reference: dep,
					Reason:    "template not found",
				}
			}
			state[dep] = visiting
			stack = append(stack, frame{name: dep})
		}
	}
	return order, nil
}

func cyclePath(stack []frame, dep string) []string {
	start := 0
	for i, f := range stack {
		if f.name == dep {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, f.name)
	}
	return append(path, dep)
}

// merge accumulates raw layer values in application order.
type merge struct {
	colors  map[string]string
	origins map[string]string
	syntax  map[string]store.SyntaxRule
	ruleSrc map[string]string
}

func newMerge() *merge {
	return &merge{
		colors:  make(map[string]string),
		origins: make(map[string]string),
		syntax:  make(map[string]store.SyntaxRule),
		ruleSrc: make(map[string]string),
	}
}

func (m *merge) apply(origin string, l store.Layer) {
	for name, value := range l.Colors {
		m.colors[name] = value
		m.origins[name] = origin
	}
	for name, rule := range l.Syntax {
		m.syntax[name] = m.syntax[name].Merge(rule)
		m.ruleSrc[name] = origin
	}
}

func (m *merge) resolveInto(out *theme.Resolved) error {
	for _, name := range slices.Sorted(maps.Keys(m.colors)) {
		c, err := m.lookup(out.Name, name)
		if err != nil {
			return err
		}
		out.Tokens[name] = c
		out.Origins[name] = m.origins[name]
	}

	for _, name := range slices.Sorted(maps.Keys(m.syntax)) {
		rule := m.syntax[name]
		if rule.Color == "" {
			return &theme.ResolutionError{
				Theme:     out.Name,
				Template:  m.ruleSrc[name],
				Reference: "syntax." + name,
				Reason:    "syntax rule has no color",
			}
		}
		c, err := m.value(out.Name, m.ruleSrc[name], "syntax."+name, rule.Color)
		if err != nil {
			return err
		}
		out.Syntax[name] = theme.SyntaxStyle{
			Label:      rule.Label,
			Color:      c,
			FontStyle:  rule.FontStyle,
			FontWeight: rule.FontWeight,
			Scopes:     expandScopes(name, rule.Scopes),
		}
	}
	return nil
}

// lookup resolves a merged token. References are whole values, so a chain of
// them is a simple path; a repeated name means a cycle.
func (m *merge) lookup(themeName, name string) (theme.Color, error) {
	return m.value(themeName, m.origins[name], name, m.colors[name])
}

func (m *merge) value(themeName, origin, name, raw string) (theme.Color, error) {
	chain := []string{name}
	seen := map[string]bool{name: true}

	for {
		match := refPattern.FindStringSubmatch(raw)
		if match == nil {
			break
		}
		ref := match[1]
		if seen[ref] {
			return theme.Color{}, &theme.ResolutionError{
				Theme:     themeName,
				Template:  origin,
				Reference: ref,
				Cycle:     append(chain, ref),
				Reason:    "token reference cycle",
			}
		}
		next, ok := m.colors[ref]
		if !ok {
			return theme.Color{}, &theme.ResolutionError{
				Theme:     themeName,
				Template:  origin,
				Reference: ref,
				Reason:    fmt.Sprintf("unknown token referenced by %s", name),
			}
		}
		seen[ref] = true
		chain = append(chain, ref)
		origin = m.origins[ref]
		raw = next
	}

	c, err := theme.ParseHex(raw)
	if err != nil {
		return theme.Color{}, &theme.FormatError{
			Format:   "source",
			Theme:    themeName,
			Template: origin,
			Token:    chain[len(chain)-1],
			Value:    raw,
			Reason:   "want #RRGGBB or #RRGGBBAA",
		}
	}
	return c, nil
}

// expandScopes applies the relative scope convention: ".quoted" and a bare
// "quoted" under rule "string" both become "string.quoted". Dotted scopes and
// the rule's own name are absolute. A rule without scopes targets its own
// name. Comma-bundled entries are split and duplicates dropped.
func expandScopes(rule string, scopes []string) []string {
	if len(scopes) == 0 {
		return []string{rule}
	}

	seen := make(map[string]bool, len(scopes))
	out := make([]string, 0, len(scopes))
	for _, raw := range scopes {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			switch {
			case strings.HasPrefix(s, "."):
				s = rule + s
			case !strings.Contains(s, ".") && s != rule:
				s = rule + "." + s
			}
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
