package emit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loopedtheme/looped/internal/theme"
)

const zedSchemaURL = "https://zed.dev/schema/themes/v0.2.0.json"

var zedTable = Table{
	{"background", tok("background")},
	{"foreground", tok("foreground")},
	{"border", tok("border")},
	{"border.variant", tok("background.tertiary")},
	{"border.focused", tok("accent")},
	{"border.selected", tok("accent")},
	{"border.disabled", alpha("border", 0.5)},
	{"elevated_surface.background", tok("background.secondary")},
	{"surface.background", tok("background.secondary")},
	{"element.background", tok("background.tertiary")},
	{"element.hover", mix("background.tertiary", "foreground", 0.08)},
	{"element.active", alpha("accent", 0.25)},
	{"element.selected", alpha("accent", 0.2)},
	{"ghost_element.hover", alpha("foreground", 0.06)},
	{"ghost_element.selected", alpha("accent", 0.15)},
	{"text", tok("foreground")},
	{"text.muted", tok("foreground.muted")},
	{"text.placeholder", tok("foreground.subtle")},
	{"text.disabled", tok("foreground.subtle")},
	{"text.accent", tok("accent")},
	{"icon", tok("foreground")},
	{"icon.muted", tok("foreground.muted")},
	{"icon.accent", tok("accent")},
	{"status_bar.background", tok("background.secondary")},
	{"title_bar.background", tok("background.secondary")},
	{"toolbar.background", tok("background")},
	{"tab_bar.background", tok("background.secondary")},
	{"tab.active_background", tok("background")},
	{"tab.inactive_background", tok("background.secondary")},
	{"panel.background", tok("background.secondary")},
	{"scrollbar.thumb.background", alpha("foreground.subtle", 0.2)},

	{"editor.background", tok("background")},
	{"editor.foreground", tok("foreground")},
	{"editor.gutter.background", tok("background")},
	{"editor.line_number", tok("line_number")},
	{"editor.active_line_number", tok("line_number.active")},
	{"editor.active_line.background", mix("background", "background.secondary", 0.5)},
	{"editor.indent_guide", tok("border")},
	{"editor.indent_guide_active", tok("foreground.subtle")},

	{"error", tok("error")},
	{"warning", tok("warning")},
	{"success", tok("success")},
	{"info", tok("info")},
	{"hint", tok("foreground.subtle")},
	{"created", tok("success")},
	{"modified", tok("info")},
	{"deleted", tok("error")},
	{"conflict", tok("warning")},

	{"terminal.background", tok("background")},
	{"terminal.foreground", tok("foreground")},
	{"terminal.ansi.black", tok("ansi.black")},
	{"terminal.ansi.red", tok("ansi.red")},
	{"terminal.ansi.green", tok("ansi.green")},
	{"terminal.ansi.yellow", tok("ansi.yellow")},
	{"terminal.ansi.blue", tok("ansi.blue")},
	{"terminal.ansi.magenta", tok("ansi.magenta")},
	{"terminal.ansi.cyan", tok("ansi.cyan")},
	{"terminal.ansi.white", tok("ansi.white")},
	{"terminal.ansi.bright_black", tok("ansi.bright_black")},
	{"terminal.ansi.bright_red", tok("ansi.bright_red")},
	{"terminal.ansi.bright_green", tok("ansi.bright_green")},
	{"terminal.ansi.bright_yellow", tok("ansi.bright_yellow")},
	{"terminal.ansi.bright_blue", tok("ansi.bright_blue")},
	{"terminal.ansi.bright_magenta", tok("ansi.bright_magenta")},
	{"terminal.ansi.bright_cyan", tok("ansi.bright_cyan")},
	{"terminal.ansi.bright_white", tok("ansi.bright_white")},
}

// zedPlayers are the collaborator cursor colors, local player first.
var zedPlayers = []string{
	"accent",
	"ansi.green",
	"ansi.magenta",
	"ansi.yellow",
	"ansi.cyan",
	"ansi.red",
}

var zedSchema = Schema{
	Format: Zed,
	Table:  zedTable,
	Tokens: zedPlayers,
	Syntax: requiredSyntax,
}

type zedFamily struct {
	Schema string         `json:"$schema"`
	Name   string         `json:"name"`
	Author string         `json:"author"`
	Themes []zedThemeItem `json:"themes"`
}

type zedThemeItem struct {
	Name       string         `json:"name"`
	Appearance string         `json:"appearance"`
	Style      map[string]any `json:"style"`
}

type zedPlayer struct {
	Cursor     string `json:"cursor"`
	Background string `json:"background"`
	Selection  string `json:"selection"`
}

// zedSyntax keeps font_style and font_weight present as null when unset.
type zedSyntax struct {
	Color      string  `json:"color"`
	FontStyle  *string `json:"font_style"`
	FontWeight *int    `json:"font_weight"`
}

type zedEmitter struct{}

func (zedEmitter) Format() Format { return Zed }
func (zedEmitter) Schema() Schema { return zedSchema }

// Emit writes a single theme family file holding every variant.
func (zedEmitter) Emit(set Set) ([]Artifact, error) {
	family := zedFamily{
		Schema: zedSchemaURL,
		Name:   set.Product,
		Author: set.Author,
		Themes: make([]zedThemeItem, 0, len(set.Themes)),
	}

	var errs []error
	for _, r := range set.Themes {
		if err := zedSchema.Check(r); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := checkOverrides(Zed, r, "players", "syntax"); err != nil {
			errs = append(errs, err)
			continue
		}
		family.Themes = append(family.Themes, zedThemeItem{
			Name:       r.Name,
			Appearance: string(r.Appearance),
			Style:      zedStyle(r),
		})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	data, err := marshalJSON(family)
	if err != nil {
		return nil, fmt.Errorf("zed: encode %q: %w", set.Product, err)
	}
	return []Artifact{{Format: Zed, Name: FileName(set.Product, ".json"), Data: data}}, nil
}

func zedStyle(r *theme.Resolved) map[string]any {
	style := make(map[string]any)
	for key, hex := range hexMap(colorMap(Zed, zedTable, r)) {
		style[key] = hex
	}

	players := make([]zedPlayer, 0, len(zedPlayers))
	for _, name := range zedPlayers {
		c := r.Tokens[name]
		players = append(players, zedPlayer{
			Cursor:     c.Hex(),
			Background: c.Hex(),
			Selection:  c.WithAlpha(0.25).Hex(),
		})
	}
	style["players"] = players

	syntax := make(map[string]zedSyntax, len(r.Syntax))
	for name, rule := range r.Syntax {
		syntax[name] = zedSyntaxStyle(rule)
	}
	style["syntax"] = syntax
	return style
}

// zedSyntaxStyle maps TextMate-style font keywords onto Zed's fields: "bold"
// becomes weight 700, "italic" and "oblique" stay styles, the rest is dropped.
func zedSyntaxStyle(rule theme.SyntaxStyle) zedSyntax {
	s := zedSyntax{Color: rule.Color.Hex()}
	weight := rule.FontWeight
	for _, word := range strings.Fields(rule.FontStyle) {
		switch word {
		case "italic", "oblique", "normal":
			w := word
			s.FontStyle = &w
		case "bold":
			if weight == 0 {
				weight = 700
			}
		}
	}
	if weight != 0 {
		s.FontWeight = &weight
	}
	return s
}
