package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loopedtheme/looped/internal/theme"
)

const vscodeSchemaURL = "vscode://schemas/color-theme"

var vscodeTable = Table{
	{"focusBorder", tok("accent")},
	{"foreground", tok("foreground")},
	{"descriptionForeground", tok("foreground.muted")},
	{"errorForeground", tok("error")},
	{"selection.background", alpha("accent", 0.35)},
	{"widget.shadow", alpha("background", 0.6)},

	{"editor.background", tok("background")},
	{"editor.foreground", tok("foreground")},
	{"editorCursor.foreground", tok("cursor")},
	{"editorLineNumber.foreground", tok("line_number")},
	{"editorLineNumber.activeForeground", tok("line_number.active")},
	{"editor.selectionBackground", alpha("accent", 0.25)},
	{"editor.inactiveSelectionBackground", alpha("accent", 0.12)},
	{"editor.selectionHighlightBackground", alpha("accent", 0.15)},
	{"editor.wordHighlightBackground", alpha("accent.secondary", 0.15)},
	{"editor.findMatchBackground", alpha("warning", 0.35)},
	{"editor.findMatchHighlightBackground", alpha("warning", 0.18)},
	{"editor.lineHighlightBackground", mix("background", "background.secondary", 0.5)},
	{"editorIndentGuide.background1", tok("border")},
	{"editorIndentGuide.activeBackground1", tok("foreground.subtle")},
	{"editorWhitespace.foreground", alpha("foreground.subtle", 0.4)},
	{"editorBracketMatch.border", tok("accent")},
	{"editorBracketMatch.background", alpha("accent", 0.1)},
	{"editorError.foreground", tok("error")},
	{"editorWarning.foreground", tok("warning")},
	{"editorInfo.foreground", tok("info")},
	{"editorGutter.addedBackground", tok("success")},
	{"editorGutter.modifiedBackground", tok("info")},
	{"editorGutter.deletedBackground", tok("error")},
	{"editorWidget.background", tok("background.secondary")},
	{"editorWidget.border", tok("border")},
	{"editorHoverWidget.background", tok("background.secondary")},
	{"editorHoverWidget.border", tok("border")},
	{"editorSuggestWidget.background", tok("background.secondary")},
	{"editorSuggestWidget.selectedBackground", alpha("accent", 0.2)},
	{"editorGroupHeader.tabsBackground", tok("background.secondary")},

	{"tab.activeBackground", tok("background")},
	{"tab.inactiveBackground", tok("background.secondary")},
	{"tab.activeForeground", tok("foreground")},
	{"tab.inactiveForeground", tok("foreground.muted")},
	{"tab.activeBorderTop", tok("accent")},
	{"tab.border", tok("border")},

	{"activityBar.background", tok("background.secondary")},
	{"activityBar.foreground", tok("foreground")},
	{"activityBar.inactiveForeground", tok("foreground.subtle")},
	{"activityBarBadge.background", tok("accent")},
	{"activityBarBadge.foreground", tok("accent.foreground")},
	{"sideBar.background", tok("background.secondary")},
	{"sideBar.foreground", tok("foreground.muted")},
	{"sideBar.border", tok("border")},
	{"sideBarSectionHeader.background", tok("background.secondary")},
	{"list.activeSelectionBackground", alpha("accent", 0.25)},
	{"list.activeSelectionForeground", tok("foreground")},
	{"list.hoverBackground", tok("background.tertiary")},
	{"list.inactiveSelectionBackground", tok("background.tertiary")},
	{"statusBar.background", tok("background.secondary")},
	{"statusBar.foreground", tok("foreground.muted")},
	{"statusBar.border", tok("border")},
	{"titleBar.activeBackground", tok("background.secondary")},
	{"titleBar.activeForeground", tok("foreground")},
	{"titleBar.inactiveBackground", tok("background.secondary")},
	{"panel.background", tok("background.secondary")},
	{"panel.border", tok("border")},

	{"input.background", tok("background.tertiary")},
	{"input.border", tok("border")},
	{"input.foreground", tok("foreground")},
	{"input.placeholderForeground", tok("foreground.subtle")},
	{"button.background", tok("accent")},
	{"button.foreground", tok("accent.foreground")},
	{"button.hoverBackground", shade("accent", 0.1)},
	{"badge.background", tok("accent")},
	{"badge.foreground", tok("accent.foreground")},
	{"scrollbarSlider.background", alpha("foreground.subtle", 0.2)},
	{"scrollbarSlider.hoverBackground", alpha("foreground.subtle", 0.35)},
	{"scrollbarSlider.activeBackground", alpha("foreground.subtle", 0.5)},

	{"gitDecoration.addedResourceForeground", tok("success")},
	{"gitDecoration.modifiedResourceForeground", tok("info")},
	{"gitDecoration.deletedResourceForeground", tok("error")},
	{"gitDecoration.untrackedResourceForeground", tok("ansi.green")},
	{"gitDecoration.ignoredResourceForeground", tok("foreground.subtle")},

	{"terminal.background", tok("background")},
	{"terminal.foreground", tok("foreground")},
	{"terminalCursor.foreground", tok("cursor")},
	{"terminal.ansiBlack", tok("ansi.black")},
	{"terminal.ansiRed", tok("ansi.red")},
	{"terminal.ansiGreen", tok("ansi.green")},
	{"terminal.ansiYellow", tok("ansi.yellow")},
	{"terminal.ansiBlue", tok("ansi.blue")},
	{"terminal.ansiMagenta", tok("ansi.magenta")},
	{"terminal.ansiCyan", tok("ansi.cyan")},
	{"terminal.ansiWhite", tok("ansi.white")},
	{"terminal.ansiBrightBlack", tok("ansi.bright_black")},
	{"terminal.ansiBrightRed", tok("ansi.bright_red")},
	{"terminal.ansiBrightGreen", tok("ansi.bright_green")},
	{"terminal.ansiBrightYellow", tok("ansi.bright_yellow")},
	{"terminal.ansiBrightBlue", tok("ansi.bright_blue")},
	{"terminal.ansiBrightMagenta", tok("ansi.bright_magenta")},
	{"terminal.ansiBrightCyan", tok("ansi.bright_cyan")},
	{"terminal.ansiBrightWhite", tok("ansi.bright_white")},
}

var vscodeSchema = Schema{
	Format: VSCode,
	Table:  vscodeTable,
	Syntax: requiredSyntax,
}

type vscodeTheme struct {
	Schema               string            `json:"$schema"`
	Name                 string            `json:"name"`
	Type                 string            `json:"type"`
	SemanticHighlighting bool              `json:"semanticHighlighting"`
	Colors               map[string]string `json:"colors"`
	TokenColors          []tokenColor      `json:"tokenColors"`
}

type tokenColor struct {
	Name     string        `json:"name,omitempty"`
	Scope    []string      `json:"scope"`
	Settings tokenSettings `json:"settings"`
}

type tokenSettings struct {
	Foreground string `json:"foreground,omitempty"`
	FontStyle  string `json:"fontStyle,omitempty"`
}

// signature identifies a token color for deduplication and ordering.
func (tc tokenColor) signature() string {
	scopes := append([]string(nil), tc.Scope...)
	sort.Strings(scopes)
	return strings.Join([]string{
		tc.Name,
		strings.Join(scopes, ","),
		tc.Settings.Foreground,
		tc.Settings.FontStyle,
	}, "\x00")
}

type vscodeEmitter struct{}

func (vscodeEmitter) Format() Format { return VSCode }
func (vscodeEmitter) Schema() Schema { return vscodeSchema }

// Emit writes one color theme per variant.
func (e vscodeEmitter) Emit(set Set) ([]Artifact, error) {
	return perTheme(set, e.emitTheme)
}

func (e vscodeEmitter) emitTheme(r *theme.Resolved) (Artifact, error) {
	if err := vscodeSchema.Check(r); err != nil {
		return Artifact{}, err
	}

	doc := vscodeTheme{
		Schema:               vscodeSchemaURL,
		Name:                 r.Name,
		Type:                 string(r.Appearance),
		SemanticHighlighting: r.SemanticHighlighting,
		Colors:               hexMap(colorMap(VSCode, vscodeTable, r)),
		TokenColors:          tokenColors(r),
	}

	data, err := marshalJSON(doc)
	if err != nil {
		return Artifact{}, fmt.Errorf("vscode: encode %q: %w", r.Name, err)
	}
	return Artifact{Format: VSCode, Theme: r.Name, Name: FileName(r.Name, ".json"), Data: data}, nil
}

// tokenColors builds one entry per syntax rule, drops exact duplicates and
// sorts by name, scopes and settings.
func tokenColors(r *theme.Resolved) []tokenColor {
	seen := make(map[string]bool)
	out := make([]tokenColor, 0, len(r.Syntax))
	for _, name := range r.SyntaxNames() {
		rule := r.Syntax[name]
		tc := tokenColor{
			Name:  rule.Label,
			Scope: rule.Scopes,
			Settings: tokenSettings{
				Foreground: rule.Color.Hex(),
				FontStyle:  rule.FontStyle,
			},
		}
		sig := tc.signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, tc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].signature() < out[j].signature()
	})
	return out
}
