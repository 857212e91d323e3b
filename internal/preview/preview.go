// Package preview renders resolved themes in the terminal: token swatches and
// syntax-highlighted code using a chroma style built from the theme.
package preview

import (
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/colorprofile"
	"github.com/loopedtheme/looped/internal/emit"
	"github.com/loopedtheme/looped/internal/logger"
	"github.com/loopedtheme/looped/internal/theme"
)

// Sample is highlighted when no file is given.
const Sample = `// Package demo shows every syntax rule.
package demo

import "fmt"

const limit = 42

type Point struct {
	X, Y float64
}

// Scale multiplies both coordinates.
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

func main() {
	p := Point{X: 1.5, Y: -2}
	for i := 0; i < limit; i++ {
		if i%7 == 0 && p.X != 0 {
			fmt.Printf("tick %d\t%v\n", i, p.Scale(2))
		}
	}
	var done bool = true
	_ = done
}
`

// ruleTokens maps syntax rule names to the chroma token types they color.
// Later rows win where two rules share a type.
var ruleTokens = []struct {
	rule  string
	types []chroma.TokenType
}{
	{"variable", []chroma.TokenType{chroma.Name, chroma.NameVariable}},
	{"keyword", []chroma.TokenType{chroma.Keyword, chroma.KeywordDeclaration, chroma.KeywordNamespace}},
	{"string", []chroma.TokenType{chroma.LiteralString}},
	{"string.escape", []chroma.TokenType{chroma.LiteralStringEscape}},
	{"function", []chroma.TokenType{chroma.NameFunction}},
	{"number", []chroma.TokenType{chroma.LiteralNumber}},
	{"type", []chroma.TokenType{chroma.KeywordType, chroma.NameClass}},
	{"constant", []chroma.TokenType{chroma.KeywordConstant, chroma.NameConstant}},
	{"operator", []chroma.TokenType{chroma.Operator}},
	{"punctuation", []chroma.TokenType{chroma.Punctuation}},
	{"property", []chroma.TokenType{chroma.NameProperty}},
	{"tag", []chroma.TokenType{chroma.NameTag}},
	{"attribute", []chroma.TokenType{chroma.NameAttribute}},
	{"comment", []chroma.TokenType{chroma.Comment}},
}

// NewWriter wraps w so colors are downsampled to what the terminal supports.
func NewWriter(w io.Writer) *colorprofile.Writer {
	return colorprofile.NewWriter(w, os.Environ())
}

// Style builds a chroma style from the theme's background, foreground and
// syntax rules. Alpha is dropped since terminals cannot blend.
func Style(r *theme.Resolved) (*chroma.Style, error) {
	entries := chroma.StyleEntries{}

	bg, hasBg := r.Token("background")
	fg, hasFg := r.Token("foreground")
	switch {
	case hasBg && hasFg:
		entries[chroma.Background] = fmt.Sprintf("bg:%s %s", bg.RGBHex(), fg.RGBHex())
	case hasBg:
		entries[chroma.Background] = "bg:" + bg.RGBHex()
	case hasFg:
		entries[chroma.Background] = fg.RGBHex()
	}

	for _, rt := range ruleTokens {
		rule, ok := r.Syntax[rt.rule]
		if !ok {
			continue
		}
		entry := styleEntry(rule)
		for _, t := range rt.types {
			entries[t] = entry
		}
	}

	style, err := chroma.NewStyle(r.Name, entries)
	if err != nil {
		return nil, fmt.Errorf("preview: chroma style for %q: %w", r.Name, err)
	}
	return style, nil
}

// styleEntry converts a syntax rule into chroma's entry syntax, e.g.
// "bold italic #RRGGBB".
func styleEntry(rule theme.SyntaxStyle) string {
	var parts []string
	for _, f := range strings.Fields(rule.FontStyle) {
		switch f {
		case "bold", "italic", "underline":
			parts = append(parts, f)
		}
	}
	if rule.FontWeight >= 600 && !strings.Contains(rule.FontStyle, "bold") {
		parts = append(parts, "bold")
	}
	parts = append(parts, rule.Color.RGBHex())
	return strings.Join(parts, " ")
}

// Lexer picks a lexer by explicit language, then file name, then content.
func Lexer(lang, fileName, source string) chroma.Lexer {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil && fileName != "" {
		lexer = lexers.Match(fileName)
	}
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// Highlight writes source highlighted with the theme's style as 24-bit ANSI.
// Pass a NewWriter to downsample for the current terminal.
func Highlight(w io.Writer, r *theme.Resolved, source, fileName, lang string) error {
	style, err := Style(r)
	if err != nil {
		return err
	}

	lexer := Lexer(lang, fileName, source)
	logger.Debug("Highlighting with lexer %s", lexer.Config().Name)

	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return fmt.Errorf("preview: tokenise: %w", err)
	}
	if err := formatter.Format(w, style, iterator); err != nil {
		return fmt.Errorf("preview: format: %w", err)
	}
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	originStyle = lipgloss.NewStyle().Faint(true)
)

// Tokens writes one line per shared token: a swatch, the name, the value and
// the template that supplied it. Per-editor overrides are left to Bindings.
func Tokens(w io.Writer, r *theme.Resolved) error {
	var names []string
	for _, name := range r.TokenNames() {
		if !emit.IsPassthrough(name) {
			names = append(names, name)
		}
	}

	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	header := headerStyle
	if accent, ok := r.Token("accent"); ok {
		header = header.Foreground(lipgloss.Color(accent.RGBHex()))
	}
	if _, err := fmt.Fprintf(w, "%s (%s)\n", header.Render(r.Name), r.Appearance); err != nil {
		return err
	}

	for _, name := range names {
		c := r.Tokens[name]
		line := fmt.Sprintf("%s  %-*s  %-9s  %s", swatch(c), width, name, c.Hex(), originStyle.Render(r.Origins[name]))
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// Bindings writes the keys format f receives from r, each with the table
// expression or override token behind it.
func Bindings(w io.Writer, r *theme.Resolved, f emit.Format, t emit.Table) error {
	bindings := emit.Bindings(f, t, r)

	width := 0
	for _, b := range bindings {
		width = max(width, len(b.Key))
	}

	if _, err := fmt.Fprintf(w, "%s (%s)\n", headerStyle.Render(r.Name), f); err != nil {
		return err
	}
	for _, b := range bindings {
		sw, value := "    ", "missing"
		if b.OK {
			sw, value = swatch(b.Color), b.Color.Hex()
		}
		line := fmt.Sprintf("%s  %-*s  %-9s  %s", sw, width, b.Key, value, originStyle.Render(b.Source))
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

func swatch(c theme.Color) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(c.RGBHex())).Render("    ")
}
