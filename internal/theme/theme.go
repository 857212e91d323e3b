// Package theme holds the color model shared by the resolver and the emitters:
// strict hex colors, the resolved theme mapping and the build error taxonomy.
package theme

import (
	"fmt"
	"sort"
)

// Appearance is the light/dark variant of a theme.
type Appearance string

const (
	Dark  Appearance = "dark"
	Light Appearance = "light"
)

// ParseAppearance validates an appearance string.
func ParseAppearance(s string) (Appearance, error) {
	switch Appearance(s) {
	case Dark, Light:
		return Appearance(s), nil
	default:
		return "", fmt.Errorf("invalid appearance %q: want %q or %q", s, Dark, Light)
	}
}

// SyntaxStyle is a resolved syntax highlighting rule.
type SyntaxStyle struct {
	Label      string   // human-readable name, optional
	Color      Color    // foreground
	FontStyle  string   // e.g. "italic", "bold underline"; empty when unset
	FontWeight int      // 100-900; zero when unset
	Scopes     []string // TextMate scopes, already expanded
}

// Resolved is the flattened output of template resolution and the single
// input to every emitter.
type Resolved struct {
	Name                 string
	Appearance           Appearance
	SemanticHighlighting bool
	Source               string // descriptor file

	// Tokens maps dotted token names to colors.
	Tokens map[string]Color
	// Syntax maps rule names (no "syntax." prefix) to styles.
	Syntax map[string]SyntaxStyle
	// Origins records which template or descriptor supplied each token's
	// winning value.
	Origins map[string]string
}

// NewResolved returns an empty resolved theme.
func NewResolved(name string, appearance Appearance) *Resolved {
	return &Resolved{
		Name:                 name,
		Appearance:           appearance,
		SemanticHighlighting: true,
		Tokens:               make(map[string]Color),
		Syntax:               make(map[string]SyntaxStyle),
		Origins:              make(map[string]string),
	}
}

// Token returns the color for a token name.
func (r *Resolved) Token(name string) (Color, bool) {
	c, ok := r.Tokens[name]
	return c, ok
}

// TokenNames returns all token names in sorted order.
func (r *Resolved) TokenNames() []string {
	return sortedKeys(r.Tokens)
}

// SyntaxNames returns all syntax rule names in sorted order.
func (r *Resolved) SyntaxNames() []string {
	return sortedKeys(r.Syntax)
}

// Clone returns a deep copy, for callers that want to tweak a theme without
// touching the original.
func (r *Resolved) Clone() *Resolved {
	out := NewResolved(r.Name, r.Appearance)
	out.SemanticHighlighting = r.SemanticHighlighting
	out.Source = r.Source
	for k, v := range r.Tokens {
		out.Tokens[k] = v
	}
	for k, v := range r.Syntax {
		v.Scopes = append([]string(nil), v.Scopes...)
		out.Syntax[k] = v
	}
	for k, v := range r.Origins {
		out.Origins[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
