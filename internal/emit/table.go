package emit

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/loopedtheme/looped/internal/theme"
)

// Op is a color derivation applied to a source token.
type Op int

const (
	OpToken Op = iota // the token as is
	OpAlpha           // the token with a fixed opacity
	OpMix             // a Lab blend of the token toward another token
	OpShade           // the token lightened (Amount > 0) or darkened
)

// Source describes where a destination value comes from.
type Source struct {
	Token  string
	Op     Op
	With   string  // second token for OpMix
	Amount float64 // opacity, blend ratio or shade amount
}

func tok(name string) Source { return Source{Token: name} }

func alpha(name string, opacity float64) Source {
	return Source{Token: name, Op: OpAlpha, Amount: opacity}
}

func mix(name, with string, ratio float64) Source {
	return Source{Token: name, Op: OpMix, With: with, Amount: ratio}
}

func shade(name string, amount float64) Source {
	return Source{Token: name, Op: OpShade, Amount: amount}
}

// Tokens returns the tokens the source reads.
func (s Source) Tokens() []string {
	if s.Op == OpMix {
		return []string{s.Token, s.With}
	}
	return []string{s.Token}
}

// Eval computes the source's color. The second result is false when a token
// is missing.
func (s Source) Eval(r *theme.Resolved) (theme.Color, bool) {
	c, ok := r.Token(s.Token)
	if !ok {
		return theme.Color{}, false
	}
	switch s.Op {
	case OpAlpha:
		return c.WithAlpha(s.Amount), true
	case OpMix:
		other, ok := r.Token(s.With)
		if !ok {
			return theme.Color{}, false
		}
		return c.Mix(other, s.Amount), true
	case OpShade:
		return c.Shade(s.Amount), true
	default:
		return c, true
	}
}

// Describe renders the source the way it reads in a table.
func (s Source) Describe() string {
	switch s.Op {
	case OpAlpha:
		return fmt.Sprintf("alpha(%s, %g)", s.Token, s.Amount)
	case OpMix:
		return fmt.Sprintf("mix(%s, %s, %g)", s.Token, s.With, s.Amount)
	case OpShade:
		return fmt.Sprintf("shade(%s, %g)", s.Token, s.Amount)
	default:
		return s.Token
	}
}

// Mapping binds a destination key to its source.
type Mapping struct {
	Key  string
	From Source
}

// Table is a format's static name-translation table.
type Table []Mapping

// Apply evaluates every mapping. Call Schema.Check first; missing tokens are
// skipped here.
func (t Table) Apply(r *theme.Resolved) map[string]theme.Color {
	out := make(map[string]theme.Color, len(t))
	for _, m := range t {
		if c, ok := m.From.Eval(r); ok {
			out[m.Key] = c
		}
	}
	return out
}

// Schema is the contract a resolved theme must meet for one format.
type Schema struct {
	Format Format
	Table  Table
	Tokens []string // required beyond the table's own sources
	Syntax []string // required syntax rules
}

// RequiredTokens returns the sorted union of table sources and extra tokens.
func (s Schema) RequiredTokens() []string {
	seen := make(map[string]bool)
	for _, m := range s.Table {
		for _, name := range m.From.Tokens() {
			seen[name] = true
		}
	}
	for _, name := range s.Tokens {
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Check returns a SchemaError listing every missing token and syntax rule.
func (s Schema) Check(r *theme.Resolved) error {
	var missing []string
	for _, name := range s.RequiredTokens() {
		if _, ok := r.Tokens[name]; !ok {
			missing = append(missing, name)
		}
	}
	for _, name := range s.Syntax {
		if _, ok := r.Syntax[name]; !ok {
			missing = append(missing, "syntax."+name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &theme.SchemaError{Format: string(s.Format), Theme: r.Name, Missing: missing}
}

// requiredSyntax are the rules every syntax-aware format needs.
var requiredSyntax = []string{"comment", "keyword", "string", "function", "variable"}

// passthroughPrefixes lists the per-editor override namespaces.
var passthroughPrefixes = []string{
	string(VSCode) + ".",
	string(Zed) + ".",
	string(Warp) + ".",
	string(OhMyPosh) + ".",
}

// IsPassthrough reports whether a token belongs to a single format's
// override namespace.
func IsPassthrough(token string) bool {
	return slices.ContainsFunc(passthroughPrefixes, func(p string) bool {
		return strings.HasPrefix(token, p)
	})
}

// passthrough returns the tokens in f's namespace keyed by destination key.
func passthrough(f Format, r *theme.Resolved) map[string]theme.Color {
	prefix := string(f) + "."
	out := make(map[string]theme.Color)
	for name, c := range r.Tokens {
		if key, ok := strings.CutPrefix(name, prefix); ok && key != "" {
			out[key] = c
		}
	}
	return out
}

// checkOverrides rejects passthrough tokens whose key would land on one of
// the format's non-color keys, or nest below one.
func checkOverrides(f Format, r *theme.Resolved, reserved ...string) error {
	over := passthrough(f, r)
	keys := make([]string, 0, len(over))
	for k := range over {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		for _, res := range reserved {
			if key != res && !strings.HasPrefix(key, res+".") {
				continue
			}
			return &theme.FormatError{
				Format: string(f),
				Theme:  r.Name,
				Token:  string(f) + "." + key,
				Key:    key,
				Value:  over[key].Hex(),
				Reason: fmt.Sprintf("override targets the non-color key %q", res),
			}
		}
	}
	return nil
}

// colorMap evaluates the table and lays the format's passthrough tokens on
// top.
func colorMap(f Format, t Table, r *theme.Resolved) map[string]theme.Color {
	out := t.Apply(r)
	for key, c := range passthrough(f, r) {
		out[key] = c
	}
	return out
}

// Binding is one destination key of a format with the color it receives.
type Binding struct {
	Key    string
	Source string // table expression, or the override token
	Color  theme.Color
	OK     bool // false when a source token is missing
}

// Bindings lists every key f writes for r, sorted by key. Per-editor
// overrides replace the table entry they shadow.
func Bindings(f Format, t Table, r *theme.Resolved) []Binding {
	byKey := make(map[string]Binding, len(t))
	for _, m := range t {
		c, ok := m.From.Eval(r)
		byKey[m.Key] = Binding{Key: m.Key, Source: m.From.Describe(), Color: c, OK: ok}
	}
	for key, c := range passthrough(f, r) {
		byKey[key] = Binding{Key: key, Source: string(f) + "." + key, Color: c, OK: true}
	}

	out := make([]Binding, 0, len(byKey))
	for _, key := range slices.Sorted(maps.Keys(byKey)) {
		out = append(out, byKey[key])
	}
	return out
}

func hexMap(colors map[string]theme.Color) map[string]string {
	out := make(map[string]string, len(colors))
	for k, c := range colors {
		out[k] = c.Hex()
	}
	return out
}
