package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loopedtheme/looped/internal/theme"
	"gopkg.in/yaml.v3"
)

// warpTable keys are dotted paths into the nested YAML document.
var warpTable = Table{
	{"accent", tok("accent")},
	{"cursor", tok("cursor")},
	{"background", tok("background")},
	{"foreground", tok("foreground")},
	{"terminal_colors.normal.black", tok("ansi.black")},
	{"terminal_colors.normal.red", tok("ansi.red")},
	{"terminal_colors.normal.green", tok("ansi.green")},
	{"terminal_colors.normal.yellow", tok("ansi.yellow")},
	{"terminal_colors.normal.blue", tok("ansi.blue")},
	{"terminal_colors.normal.magenta", tok("ansi.magenta")},
	{"terminal_colors.normal.cyan", tok("ansi.cyan")},
	{"terminal_colors.normal.white", tok("ansi.white")},
	{"terminal_colors.bright.black", tok("ansi.bright_black")},
	{"terminal_colors.bright.red", tok("ansi.bright_red")},
	{"terminal_colors.bright.green", tok("ansi.bright_green")},
	{"terminal_colors.bright.yellow", tok("ansi.bright_yellow")},
	{"terminal_colors.bright.blue", tok("ansi.bright_blue")},
	{"terminal_colors.bright.magenta", tok("ansi.bright_magenta")},
	{"terminal_colors.bright.cyan", tok("ansi.bright_cyan")},
	{"terminal_colors.bright.white", tok("ansi.bright_white")},
}

var warpSchema = Schema{
	Format: Warp,
	Table:  warpTable,
}

// warpReserved are the document keys that hold text, not colors.
var warpReserved = []string{"name", "details"}

type warpEmitter struct{}

func (warpEmitter) Format() Format { return Warp }
func (warpEmitter) Schema() Schema { return warpSchema }

// Emit writes one YAML theme per variant.
func (e warpEmitter) Emit(set Set) ([]Artifact, error) {
	return perTheme(set, e.emitTheme)
}

func (warpEmitter) emitTheme(r *theme.Resolved) (Artifact, error) {
	if err := warpSchema.Check(r); err != nil {
		return Artifact{}, err
	}
	if err := checkOverrides(Warp, r, warpReserved...); err != nil {
		return Artifact{}, err
	}

	colors := colorMap(Warp, warpTable, r)
	doc := map[string]any{
		"name":    r.Name,
		"details": warpDetails(r.Appearance),
	}

	keys := make([]string, 0, len(colors))
	for k := range colors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		c := colors[key]
		if c.HasAlpha() {
			return Artifact{}, &theme.FormatError{
				Format: string(Warp),
				Theme:  r.Name,
				Key:    key,
				Token:  warpSourceToken(key),
				Value:  c.Hex(),
				Reason: "alpha channel not supported",
			}
		}
		if err := setPath(doc, key, c.RGBHex()); err != nil {
			return Artifact{}, &theme.FormatError{
				Format: string(Warp),
				Theme:  r.Name,
				Key:    key,
				Value:  c.Hex(),
				Reason: err.Error(),
			}
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return Artifact{}, fmt.Errorf("warp: encode %q: %w", r.Name, err)
	}
	return Artifact{Format: Warp, Theme: r.Name, Name: FileName(r.Name, ".yaml"), Data: data}, nil
}

// warpDetails picks the shade Warp derives UI surfaces with.
func warpDetails(a theme.Appearance) string {
	if a == theme.Light {
		return "lighter"
	}
	return "darker"
}

// warpSourceToken names the token behind a destination key, for diagnostics.
func warpSourceToken(key string) string {
	for _, m := range warpTable {
		if m.Key == key {
			return m.From.Token
		}
	}
	return string(Warp) + "." + key
}

// setPath stores value under a dotted key, creating intermediate maps.
func setPath(doc map[string]any, key, value string) error {
	parts := strings.Split(key, ".")
	node := doc
	for i, part := range parts[:len(parts)-1] {
		switch next := node[part].(type) {
		case nil:
			child := make(map[string]any)
			node[part] = child
			node = child
		case map[string]any:
			node = next
		default:
			return fmt.Errorf("%s is a value, cannot nest %s under it",
				strings.Join(parts[:i+1], "."), key)
		}
	}

	last := parts[len(parts)-1]
	if _, isMap := node[last].(map[string]any); isMap {
		return fmt.Errorf("%s is a section, cannot assign a color", key)
	}
	node[last] = value
	return nil
}
