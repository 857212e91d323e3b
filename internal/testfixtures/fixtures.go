package testfixtures

import (
	"strings"

	"github.com/loopedtheme/looped/internal/theme"
)

// Fixed product metadata for consistent output
const (
	Product = "Looped"
	Author  = "Looped Automation"
)

var darkTokens = map[string]string{
	"accent":               "#685EF6",
	"accent.secondary":     "#8B83F9",
	"accent.foreground":    "#FFFFFF",
	"background":           "#0A0B10",
	"background.secondary": "#111218",
	"background.tertiary":  "#1A1B23",
	"foreground":           "#E4E5EB",
	"foreground.muted":     "#9A9CAB",
	"foreground.subtle":    "#6B6D7C",
	"border":               "#23242E",
	"cursor":               "#685EF6",
	"line_number":          "#4A4C5A",
	"line_number.active":   "#C9CAD3",
	"success":              "#389469",
	"warning":              "#D9A441",
	"error":                "#E5534B",
	"info":                 "#4F9DDE",
	"ansi.black":           "#1A1B23",
	"ansi.red":             "#E5534B",
	"ansi.green":           "#389469",
	"ansi.yellow":          "#D9A441",
	"ansi.blue":            "#4F9DDE",
	"ansi.magenta":         "#A77BF3",
	"ansi.cyan":            "#3FB6C4",
	"ansi.white":           "#C9CAD3",
	"ansi.bright_black":    "#4A4C5A",
	"ansi.bright_red":      "#F07870",
	"ansi.bright_green":    "#4DB884",
	"ansi.bright_yellow":   "#EBBE6B",
	"ansi.bright_blue":     "#74B4EC",
	"ansi.bright_magenta":  "#BF9CF7",
	"ansi.bright_cyan":     "#64CFDB",
	"ansi.bright_white":    "#FFFFFF",
}

var lightTokens = map[string]string{
	"background":           "#FAFAFC",
	"background.secondary": "#F1F1F5",
	"background.tertiary":  "#E7E7EE",
	"foreground":           "#1B1C24",
	"foreground.muted":     "#5D5F6E",
	"foreground.subtle":    "#8A8C9A",
	"border":               "#D9DAE2",
	"line_number":          "#A4A6B3",
	"line_number.active":   "#3A3C48",
	"success":              "#2D7A54",
	"warning":              "#A8741A",
	"error":                "#C23B34",
	"info":                 "#2F78B7",
}

// syntaxRules maps rule names to the token colouring them.
var syntaxRules = []struct {
	name, token, style string
	scopes             []string
}{
	{"comment", "foreground.subtle", "italic", []string{"comment", "punctuation.definition.comment"}},
	{"keyword", "accent", "", []string{"keyword", "storage.type", "storage.modifier"}},
	{"string", "success", "", []string{"string"}},
	{"string.escape", "warning", "", []string{"constant.character.escape"}},
	{"function", "info", "", []string{"entity.name.function", "support.function"}},
	{"variable", "foreground", "", []string{"variable"}},
	{"number", "warning", "", []string{"constant.numeric"}},
	{"type", "ansi.cyan", "", []string{"entity.name.type", "support.type"}},
	{"constant", "ansi.magenta", "", []string{"constant.language", "variable.other.constant"}},
	{"operator", "foreground.muted", "", []string{"keyword.operator"}},
	{"punctuation", "foreground.muted", "", []string{"punctuation"}},
	{"property", "accent.secondary", "", []string{"variable.other.property", "support.variable.property"}},
	{"tag", "error", "", []string{"entity.name.tag"}},
	{"attribute", "ansi.yellow", "italic", []string{"entity.other.attribute-name"}},
}

// Dark returns the complete "Looped Dark" resolved theme.
func Dark() *theme.Resolved {
	return build("Looped Dark", theme.Dark, darkTokens)
}

// Light returns the complete "Looped Light" resolved theme.
func Light() *theme.Resolved {
	tokens := make(map[string]string, len(darkTokens))
	for k, v := range darkTokens {
		tokens[k] = v
	}
	for k, v := range lightTokens {
		tokens[k] = v
	}
	return build("Looped Light", theme.Light, tokens)
}

// Themes returns both variants, dark first.
func Themes() []*theme.Resolved {
	return []*theme.Resolved{Dark(), Light()}
}

// Without returns a copy of r lacking the given tokens; names prefixed with
// "syntax." drop syntax rules instead.
func Without(r *theme.Resolved, names ...string) *theme.Resolved {
	out := r.Clone()
	for _, name := range names {
		if rule, ok := strings.CutPrefix(name, "syntax."); ok {
			delete(out.Syntax, rule)
			continue
		}
		delete(out.Tokens, name)
	}
	return out
}

func build(name string, appearance theme.Appearance, tokens map[string]string) *theme.Resolved {
	r := theme.NewResolved(name, appearance)
	r.Source = "fixtures"
	for k, v := range tokens {
		r.Tokens[k] = theme.MustParseHex(v)
		r.Origins[k] = "fixtures"
	}
	for _, rule := range syntaxRules {
		r.Syntax[rule.name] = theme.SyntaxStyle{
			Color:     r.Tokens[rule.token],
			FontStyle: rule.style,
			Scopes:    append([]string(nil), rule.scopes...),
		}
	}
	return r
}
