// Package validate checks generated artifacts against the structural contract
// of their destination format.
package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/loopedtheme/looped/internal/emit"
	"github.com/loopedtheme/looped/internal/logger"
	"github.com/loopedtheme/looped/internal/theme"
	"gopkg.in/yaml.v3"
)

const (
	vscodeSchema = "vscode://schemas/color-theme"
	zedSchema    = "https://zed.dev/schema/themes/v0.2.0.json"
)

// Keys every Zed style must carry. editor.line_number is flat.
var zedStyleKeys = []string{
	"background",
	"foreground",
	"border",
	"border.focused",
	"text",
	"text.muted",
	"icon",
	"icon.muted",
	"element.background",
	"element.hover",
	"editor.foreground",
	"editor.background",
	"editor.line_number",
}

var commonSyntax = []string{"comment", "keyword", "string", "function", "variable"}

var warpColorNames = []string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

// Keys that belong to one format and must not appear in another.
var (
	vscodeOnly = []string{"tokenColors", "colors", "semanticHighlighting", "type"}
	zedOnly    = []string{"appearance", "style", "themes"}
	warpOnly   = []string{"terminal_colors", "details"}
	ompOnly    = []string{"palette", "blocks"}
)

var warpHex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// paletteRef finds p:<key> references, including those inside templates.
var paletteRef = regexp.MustCompile(`(?:^|[^A-Za-z0-9_])p:([A-Za-z0-9_]+)`)

// Problem is one contract violation.
type Problem struct {
	File    string
	Path    string // location inside the document, "" for the root
	Message string
}

func (p Problem) String() string {
	if p.Path == "" {
		return fmt.Sprintf("%s: %s", p.File, p.Message)
	}
	return fmt.Sprintf("%s: %s: %s", p.File, p.Path, p.Message)
}

// Report collects the problems of a validation run.
type Report struct {
	Files    []string
	Problems []Problem
}

// OK reports whether no problems were found.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// Err summarizes the report as an error, nil when OK.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("validation failed: %d problem(s) in %d file(s)", len(r.Problems), len(r.Files))
}

func (r *Report) merge(o *Report) {
	r.Files = append(r.Files, o.Files...)
	r.Problems = append(r.Problems, o.Problems...)
}

// Validator checks artifacts. Product is the name every declared variant
// must contain.
type Validator struct {
	Product string
}

// New creates a validator for product.
func New(product string) *Validator {
	return &Validator{Product: product}
}

// Outputs validates the artifact directory of every format in formats.
func (v *Validator) Outputs(dirs map[emit.Format]string, formats []emit.Format) (*Report, error) {
	report := &Report{}
	for _, f := range formats {
		r, err := v.Dir(f, dirs[f])
		if err != nil {
			return nil, err
		}
		report.merge(r)
	}
	return report, nil
}

// Dir validates every artifact of format f found in dir. A directory with no
// artifacts is itself a problem.
func (v *Validator) Dir(f emit.Format, dir string) (*Report, error) {
	files, err := artifacts(f, dir)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	if len(files) == 0 {
		report.Problems = append(report.Problems, Problem{File: dir, Message: fmt.Sprintf("no %s artifacts found", f)})
		return report, nil
	}

	for _, path := range files {
		problems, err := v.File(f, path)
		if err != nil {
			return nil, err
		}
		report.Files = append(report.Files, path)
		report.Problems = append(report.Problems, problems...)
	}
	logger.Debug("Validated %d %s artifact(s) in %s", len(files), f, dir)
	return report, nil
}

// artifacts lists the files in dir that format f writes.
func artifacts(f emit.Format, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		var match bool
		switch f {
		case emit.VSCode:
			match = strings.HasSuffix(name, ".json") && name != "package.json"
		case emit.Zed:
			match = strings.HasSuffix(name, ".json")
		case emit.Warp:
			match = strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
		case emit.OhMyPosh:
			match = strings.HasSuffix(name, ".omp.json")
		}
		if match {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// File reads and validates one artifact.
func (v *Validator) File(f emit.Format, path string) ([]Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return v.Data(f, path, data), nil
}

// Data validates an artifact held in memory. name labels the problems.
func (v *Validator) Data(f emit.Format, name string, data []byte) []Problem {
	c := &checker{file: name, product: v.Product}

	var doc map[string]any
	var err error
	if f == emit.Warp {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		c.add("", "cannot decode %s document: %v", f, err)
		return c.problems
	}
	if doc == nil {
		c.add("", "empty document")
		return c.problems
	}

	switch f {
	case emit.VSCode:
		c.vscode(doc)
	case emit.Zed:
		c.zed(doc)
	case emit.Warp:
		c.warp(doc)
	case emit.OhMyPosh:
		c.ohMyPosh(doc)
	default:
		c.add("", "unknown format %q", f)
	}
	return c.problems
}

type checker struct {
	file     string
	product  string
	problems []Problem
}

func (c *checker) add(path, format string, args ...any) {
	c.problems = append(c.problems, Problem{File: c.file, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) vscode(doc map[string]any) {
	c.equals(doc, "", "$schema", vscodeSchema)
	c.name(doc, "", "name")
	c.oneOf(doc, "", "type", "dark", "light")
	c.absent(doc, "", zedOnly...)
	c.absent(doc, "", warpOnly...)
	c.absent(doc, "", ompOnly...)

	if colors, ok := c.object(doc, "", "colors"); ok {
		if len(colors) == 0 {
			c.add("colors", "must not be empty")
		}
		c.hexValues("colors", colors, theme.IsHex)
	}

	list, ok := c.array(doc, "", "tokenColors")
	if !ok {
		return
	}
	if len(list) == 0 {
		c.add("tokenColors", "must not be empty")
	}
	for i, item := range list {
		path := fmt.Sprintf("tokenColors[%d]", i)
		tc, ok := item.(map[string]any)
		if !ok {
			c.add(path, "must be an object")
			continue
		}
		if scope, ok := tc["scope"]; ok {
			switch scope.(type) {
			case string, []any:
			default:
				c.add(path+".scope", "must be a string or an array")
			}
		}
		if settings, ok := c.object(tc, path, "settings"); ok {
			c.hexValues(path+".settings", settings, theme.IsHex)
		}
	}
}

func (c *checker) zed(doc map[string]any) {
	c.equals(doc, "", "$schema", zedSchema)
	c.name(doc, "", "name")
	c.str(doc, "", "author")
	c.absent(doc, "", vscodeOnly...)

	themes, ok := c.array(doc, "", "themes")
	if !ok {
		return
	}
	if len(themes) == 0 {
		c.add("themes", "must declare at least one variant")
	}
	for i, item := range themes {
		path := fmt.Sprintf("themes[%d]", i)
		variant, ok := item.(map[string]any)
		if !ok {
			c.add(path, "must be an object")
			continue
		}
		c.name(variant, path, "name")
		c.oneOf(variant, path, "appearance", "dark", "light")
		c.absent(variant, path, vscodeOnly...)

		style, ok := c.object(variant, path, "style")
		if !ok {
			continue
		}
		stylePath := path + ".style"
		for _, key := range zedStyleKeys {
			if _, ok := style[key]; !ok {
				c.add(stylePath, "missing required key %q", key)
			}
		}
		c.hexValues(stylePath, style, theme.IsHex)

		syntax, ok := c.object(style, stylePath, "syntax")
		if !ok {
			continue
		}
		c.zedSyntax(stylePath+".syntax", syntax)
	}
}

func (c *checker) zedSyntax(path string, syntax map[string]any) {
	for _, scope := range commonSyntax {
		if _, ok := syntax[scope]; !ok {
			c.add(path, "missing common scope %q", scope)
		}
	}
	for _, scope := range sortedKeys(syntax) {
		scopePath := path + "." + scope
		if strings.HasPrefix(scope, "syntax.") {
			c.add(scopePath, "scope must not carry the syntax. prefix")
		}
		props, ok := syntax[scope].(map[string]any)
		if !ok {
			c.add(scopePath, "must be an object")
			continue
		}
		for _, field := range []string{"color", "font_style", "font_weight"} {
			if _, ok := props[field]; !ok {
				c.add(scopePath, "missing %q", field)
			}
		}
	}
}

func (c *checker) warp(doc map[string]any) {
	c.name(doc, "", "name")
	c.oneOf(doc, "", "details", "darker", "lighter")
	c.absent(doc, "", vscodeOnly...)
	c.absent(doc, "", zedOnly...)
	c.absent(doc, "", ompOnly...)

	for _, key := range []string{"accent", "cursor", "background", "foreground"} {
		c.str(doc, "", key)
	}
	if terminal, ok := c.object(doc, "", "terminal_colors"); ok {
		for _, section := range []string{"normal", "bright"} {
			colors, ok := c.object(terminal, "terminal_colors", section)
			if !ok {
				continue
			}
			for _, name := range warpColorNames {
				if _, ok := colors[name]; !ok {
					c.add("terminal_colors."+section, "missing color %q", name)
				}
			}
		}
	}
	c.hexValues("", doc, warpHex.MatchString)
}

func (c *checker) ohMyPosh(doc map[string]any) {
	c.str(doc, "", "$schema")
	if _, ok := doc["version"].(float64); !ok {
		c.add("", "missing numeric \"version\"")
	}
	c.absent(doc, "", vscodeOnly...)
	c.absent(doc, "", zedOnly...)
	c.absent(doc, "", warpOnly...)

	palette, ok := c.object(doc, "", "palette")
	if ok {
		c.hexValues("palette", palette, theme.IsHex)
	}
	blocks, ok := c.array(doc, "", "blocks")
	if !ok {
		return
	}
	if len(blocks) == 0 {
		c.add("blocks", "must not be empty")
	}
	walk("blocks", blocks, func(path, s string) {
		for _, m := range paletteRef.FindAllStringSubmatch(s, -1) {
			if _, ok := palette[m[1]]; !ok {
				c.add(path, "palette reference %q is not defined", "p:"+m[1])
			}
		}
	})
}

// name requires a string key that contains the product name.
func (c *checker) name(doc map[string]any, path, key string) {
	s, ok := c.str(doc, path, key)
	if ok && c.product != "" && !strings.Contains(s, c.product) {
		c.add(join(path, key), "%q does not contain the product name %q", s, c.product)
	}
}

func (c *checker) str(doc map[string]any, path, key string) (string, bool) {
	val, ok := doc[key]
	if !ok {
		c.add(path, "missing required key %q", key)
		return "", false
	}
	s, ok := val.(string)
	if !ok || s == "" {
		c.add(join(path, key), "must be a non-empty string")
		return "", false
	}
	return s, true
}

func (c *checker) equals(doc map[string]any, path, key, want string) {
	if s, ok := c.str(doc, path, key); ok && s != want {
		c.add(join(path, key), "got %q, want %q", s, want)
	}
}

func (c *checker) oneOf(doc map[string]any, path, key string, allowed ...string) {
	s, ok := c.str(doc, path, key)
	if !ok {
		return
	}
	for _, a := range allowed {
		if s == a {
			return
		}
	}
	c.add(join(path, key), "%q is not one of %s", s, strings.Join(allowed, ", "))
}

func (c *checker) object(doc map[string]any, path, key string) (map[string]any, bool) {
	val, ok := doc[key]
	if !ok {
		c.add(path, "missing required key %q", key)
		return nil, false
	}
	m, ok := val.(map[string]any)
	if !ok {
		c.add(join(path, key), "must be an object")
		return nil, false
	}
	return m, true
}

func (c *checker) array(doc map[string]any, path, key string) ([]any, bool) {
	val, ok := doc[key]
	if !ok {
		c.add(path, "missing required key %q", key)
		return nil, false
	}
	list, ok := val.([]any)
	if !ok {
		c.add(join(path, key), "must be an array")
		return nil, false
	}
	return list, true
}

// absent reports keys that belong to another format.
func (c *checker) absent(doc map[string]any, path string, keys ...string) {
	for _, key := range keys {
		if _, ok := doc[key]; ok {
			c.add(path, "key %q belongs to another format", key)
		}
	}
}

// hexValues checks every string below v that starts with "#".
func (c *checker) hexValues(path string, v any, valid func(string) bool) {
	walk(path, v, func(p, s string) {
		if strings.HasPrefix(s, "#") && !valid(s) {
			c.add(p, "invalid color %q", s)
		}
	})
}

// walk visits every string leaf of a decoded document in a stable order.
func walk(path string, v any, fn func(path, s string)) {
	switch val := v.(type) {
	case string:
		fn(path, val)
	case map[string]any:
		for _, k := range sortedKeys(val) {
			walk(join(path, k), val[k], fn)
		}
	case []any:
		for i, item := range val {
			walk(fmt.Sprintf("%s[%d]", path, i), item, fn)
		}
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
