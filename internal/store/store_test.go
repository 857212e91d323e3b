package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/loopedtheme/looped/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestParseTemplate_FlattensColors(t *testing.T) {
	data := `
description = "Base palette"
extends = ["palette/core.toml", "./palette/ansi"]

[colors]
accent = "#685EF6"
"accent.secondary" = "#8B83F9"
cursor = "${accent}"

[colors.background]
primary = "#0A0B10"
secondary = "#111218"
`
	tmpl, err := ParseTemplate("palette/base", "base.toml", []byte(data))
	require.NoError(t, err)

	assert.Equal(t, "palette/base", tmpl.Name)
	assert.Equal(t, "Base palette", tmpl.Description)
	assert.Equal(t, []string{"palette/core", "palette/ansi"}, tmpl.Extends)
	assert.Equal(t, map[string]string{
		"accent":               "#685EF6",
		"accent.secondary":     "#8B83F9",
		"cursor":               "${accent}",
		"background.primary":   "#0A0B10",
		"background.secondary": "#111218",
	}, tmpl.Colors)
}

func TestParseTemplate_SyntaxRules(t *testing.T) {
	data := `
[syntax.comment]
name = "Comment"
color = "${foreground.subtle}"
font_style = "italic"
scopes = ["comment", "punctuation.definition.comment"]

[syntax.string]
color = "#389469"
scope = "string"

[syntax.string.escape]
color = "#D9A441"
font_weight = 700

[syntax.markup.heading]
color = "#685EF6"
`
	tmpl, err := ParseTemplate("syntax/base", "base.toml", []byte(data))
	require.NoError(t, err)

	require.Len(t, tmpl.Syntax, 4)
	assert.Equal(t, SyntaxRule{
		Label:     "Comment",
		Color:     "${foreground.subtle}",
		FontStyle: "italic",
		Scopes:    []string{"comment", "punctuation.definition.comment"},
	}, tmpl.Syntax["comment"])
	assert.Equal(t, []string{"string"}, tmpl.Syntax["string"].Scopes)
	assert.Equal(t, 700, tmpl.Syntax["string.escape"].FontWeight)
	assert.Equal(t, "#685EF6", tmpl.Syntax["markup.heading"].Color)
	_, hasMarkup := tmpl.Syntax["markup"]
	assert.False(t, hasMarkup, "a table holding only child tables is not a rule")
}

func TestParseTemplate_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown top-level key", "colours = {}\n"},
		{"non-string color", "[colors]\naccent = 12\n"},
		{"duplicate dotted token", "[colors]\n\"a.b\" = \"#000000\"\n[colors.a]\nb = \"#FFFFFF\"\n"},
		{"unknown syntax field", "[syntax.comment]\nforeground = \"#000000\"\n"},
		{"syntax value outside table", "[syntax]\ncomment = \"#000000\"\n"},
		{"font weight out of range", "[syntax.comment]\nfont_weight = 1000\n"},
		{"bad scopes", "[syntax.comment]\nscopes = [1, 2]\n"},
		{"invalid toml", "[colors\naccent = \"#000000\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplate("broken", "broken.toml", []byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestParseDescriptor(t *testing.T) {
	data := `
name = "Looped Light"
appearance = "light"
semantic_highlighting = false
templates = ["semantic/light", "syntax/base"]

[overrides.colors]
accent = "#5A4FE8"

[overrides.syntax.keyword]
font_style = "bold"
`
	d, err := ParseDescriptor("looped-light.toml", []byte(data))
	require.NoError(t, err)

	assert.Equal(t, "Looped Light", d.Name)
	assert.Equal(t, "light", d.Appearance)
	assert.False(t, d.SemanticHighlighting)
	assert.Equal(t, []string{"semantic/light", "syntax/base"}, d.Templates)
	assert.Equal(t, "#5A4FE8", d.Overrides.Colors["accent"])
	assert.Equal(t, "bold", d.Overrides.Syntax["keyword"].FontStyle)
}

func TestParseDescriptor_Validation(t *testing.T) {
	_, err := ParseDescriptor("x.toml", []byte(`appearance = "dark"`))
	require.ErrorContains(t, err, "missing name")

	_, err = ParseDescriptor("x.toml", []byte("name = \"Looped Dim\"\nappearance = \"dim\"\n"))
	require.ErrorContains(t, err, "invalid appearance")

	d, err := ParseDescriptor("x.toml", []byte("name = \"Looped Dark\"\nappearance = \"dark\"\n"))
	require.NoError(t, err)
	assert.True(t, d.SemanticHighlighting, "semantic highlighting defaults to on")
	assert.True(t, d.Overrides.Empty())
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	templatesDir := filepath.Join(root, "templates")
	themesDir := filepath.Join(root, "themes")

	writeFile(t, filepath.Join(templatesDir, "palette", "base.toml"), "[colors]\naccent = \"#685EF6\"\n")
	writeFile(t, filepath.Join(templatesDir, "overrides", "dark.toml"), "extends = [\"palette/base\"]\n[colors]\nbackground = \"#0A0B10\"\n")
	writeFile(t, filepath.Join(templatesDir, "README.md"), "not a template")
	writeFile(t, filepath.Join(themesDir, "looped-dark.toml"), "name = \"Looped Dark\"\nappearance = \"dark\"\ntemplates = [\"overrides/dark\"]\n")
	writeFile(t, filepath.Join(themesDir, "notes.txt"), "ignored")

	s, err := Load(templatesDir, themesDir)
	require.NoError(t, err)

	names := []string{}
	for _, tmpl := range s.Templates() {
		names = append(names, tmpl.Name)
	}
	assert.Equal(t, []string{"overrides/dark", "palette/base"}, names)

	tmpl, ok := s.Template("palette/base.toml")
	require.True(t, ok)
	assert.Equal(t, "#685EF6", tmpl.Colors["accent"])

	require.Len(t, s.Descriptors(), 1)
	d, ok := s.Descriptor("looped-dark")
	require.True(t, ok)
	assert.Equal(t, "Looped Dark", d.Name)
	d, ok = s.Descriptor("looped dark")
	require.True(t, ok)
	assert.Equal(t, "Looped Dark", d.Name)
	_, ok = s.Descriptor("missing")
	assert.False(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	root := t.TempDir()
	templatesDir := filepath.Join(root, "templates")
	themesDir := filepath.Join(root, "themes")

	_, err := Load(templatesDir, themesDir)
	require.Error(t, err, "missing templates directory")

	writeFile(t, filepath.Join(templatesDir, "base.toml"), "[colors]\naccent = \"#685EF6\"\n")
	require.NoError(t, os.MkdirAll(themesDir, 0755))
	_, err = Load(templatesDir, themesDir)
	require.ErrorContains(t, err, "no theme descriptors")

	writeFile(t, filepath.Join(themesDir, "a.toml"), "name = \"Looped\"\nappearance = \"dark\"\n")
	writeFile(t, filepath.Join(themesDir, "b.toml"), "name = \"Looped\"\nappearance = \"light\"\n")
	_, err = Load(templatesDir, themesDir)
	require.ErrorContains(t, err, "declared twice")
}

func TestSyntaxRule_Merge(t *testing.T) {
	base := SyntaxRule{Label: "Keyword", Color: "#685EF6", Scopes: []string{"keyword"}}
	merged := base.Merge(SyntaxRule{FontStyle: "italic", Color: "#8B83F9"})

	assert.Equal(t, SyntaxRule{
		Label:     "Keyword",
		Color:     "#8B83F9",
		FontStyle: "italic",
		Scopes:    []string{"keyword"},
	}, merged)
	assert.Equal(t, "#685EF6", base.Color, "merge does not mutate the receiver")
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "palette/base", NormalizeName("palette/base.toml"))
	assert.Equal(t, "palette/base", NormalizeName("./palette/base"))
	assert.Equal(t, "base", NormalizeName(" base "))
}

func TestLoad_WarnsOnEmptyTemplate(t *testing.T) {
	var buf bytes.Buffer
	logger.Default.SetOutput(&buf)
	logger.Default.SetLevel(logger.LevelInfo)
	t.Cleanup(func() { logger.Default.SetOutput(os.Stderr) })

	root := t.TempDir()
	templatesDir := filepath.Join(root, "templates")
	themesDir := filepath.Join(root, "themes")
	writeFile(t, filepath.Join(templatesDir, "palette", "base.toml"), "[colors]\naccent = \"#685EF6\"\n")
	writeFile(t, filepath.Join(templatesDir, "group.toml"), "extends = [\"palette/base\"]\n")
	writeFile(t, filepath.Join(templatesDir, "placeholder.toml"), "description = \"filled in later\"\n")
	writeFile(t, filepath.Join(themesDir, "looped-dark.toml"), "name = \"Looped Dark\"\nappearance = \"dark\"\ntemplates = [\"group\"]\n")

	_, err := Load(templatesDir, themesDir)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Template placeholder contributes no colors or syntax rules")
	assert.NotContains(t, out, "Template group")
	assert.NotContains(t, out, "Template palette/base")
}
