package build

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loopedtheme/looped/internal/emit"
	"github.com/loopedtheme/looped/internal/testfixtures"
	"github.com/loopedtheme/looped/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBuilder(t *testing.T) (*Builder, string) {
	t.Helper()
	templatesDir, themesDir := testfixtures.SampleStore(t)
	out := t.TempDir()
	return New(Options{
		TemplatesDir: templatesDir,
		ThemesDir:    themesDir,
		Product:      testfixtures.Product,
		Author:       testfixtures.Author,
		OutputDirs: map[emit.Format]string{
			emit.VSCode:   filepath.Join(out, "code"),
			emit.Zed:      filepath.Join(out, "zed", "themes"),
			emit.Warp:     filepath.Join(out, "warp"),
			emit.OhMyPosh: filepath.Join(out, "ohmyposh"),
		},
	}), out
}

func TestLoad_SampleStoreMatchesFixtures(t *testing.T) {
	b, _ := sampleBuilder(t)

	themes, err := b.Load()
	require.NoError(t, err)
	require.Len(t, themes, 2)

	byName := map[string]*theme.Resolved{}
	for _, r := range themes {
		byName[r.Name] = r
	}

	for _, want := range testfixtures.Themes() {
		got, ok := byName[want.Name]
		require.True(t, ok, want.Name)
		assert.Equal(t, want.Appearance, got.Appearance)
		assert.Equal(t, want.Tokens, got.Tokens, want.Name)
		assert.Equal(t, want.Syntax, got.Syntax, want.Name)
	}

	assert.Equal(t, "#2D7A54", byName["Looped Light"].Tokens["success"].Hex())
	assert.Equal(t, "semantic/light", byName["Looped Light"].Origins["success"])
}

func TestTheme(t *testing.T) {
	b, _ := sampleBuilder(t)

	r, err := b.Theme("looped-light")
	require.NoError(t, err)
	assert.Equal(t, "Looped Light", r.Name)

	r, err = b.Theme("looped dark")
	require.NoError(t, err)
	assert.Equal(t, theme.Dark, r.Appearance)

	_, err = b.Theme("solarized")
	assert.ErrorContains(t, err, `no theme named "solarized"`)
}

func TestSourcePath(t *testing.T) {
	b, _ := sampleBuilder(t)

	tests := []struct {
		ref  string
		want string
	}{
		{"semantic/dark", filepath.Join(b.opts.TemplatesDir, "semantic", "dark.toml")},
		{"palette/base.toml", filepath.Join(b.opts.TemplatesDir, "palette", "base.toml")},
		{"looped-light", filepath.Join(b.opts.ThemesDir, "looped-light.toml")},
		{"Looped Dark", filepath.Join(b.opts.ThemesDir, "looped-dark.toml")},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := b.SourcePath(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := b.SourcePath("semantic/dim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no template or theme named "semantic/dim"`)
	assert.Contains(t, err.Error(), "templates: palette/ansi, palette/base, semantic/dark, semantic/light, syntax/base")
}

func TestSourcePath_BrokenStore(t *testing.T) {
	b, _ := sampleBuilder(t)
	broken := filepath.Join(b.opts.TemplatesDir, "semantic", "dark.toml")
	require.NoError(t, os.WriteFile(broken, []byte("[colors\n"), 0644))

	got, err := b.SourcePath("semantic/dark")
	require.NoError(t, err)
	assert.Equal(t, broken, got)

	_, err = b.SourcePath("semantic/dim")
	assert.EqualError(t, err, `no template or theme named "semantic/dim"`)
}

func TestBuild_WritesEveryFormat(t *testing.T) {
	b, out := sampleBuilder(t)

	res, err := b.Build(emit.All())
	require.NoError(t, err)
	assert.Empty(t, res.Failed)

	for _, rel := range []string{
		"code/looped-dark.json",
		"code/looped-light.json",
		"zed/themes/looped.json",
		"warp/looped-dark.yaml",
		"warp/looped-light.yaml",
		"ohmyposh/looped-dark.omp.json",
		"ohmyposh/looped-light.omp.json",
	} {
		assert.FileExists(t, filepath.Join(out, rel))
	}
	assert.Len(t, res.Written, 7)

	data, err := os.ReadFile(filepath.Join(out, "code", "looped-dark.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"focusBorder": "#685EF6"`)
	assert.Contains(t, string(data), `"type": "dark"`)

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Join(out, "code"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}

func TestBuild_FormatFilter(t *testing.T) {
	b, out := sampleBuilder(t)

	_, err := b.Build([]emit.Format{emit.Zed})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "zed", "themes", "looped.json"))
	assert.NoDirExists(t, filepath.Join(out, "code"))
	assert.NoDirExists(t, filepath.Join(out, "warp"))
}

func TestBuild_FailingFormatIsNotWritten(t *testing.T) {
	b, out := sampleBuilder(t)

	// An alpha cursor is fine for VS Code but not for Warp.
	cursor := "[colors]\ncursor = \"#685EF680\"\n"
	testfixtures.WriteFiles(t, b.opts.TemplatesDir, map[string]string{"overrides/cursor.toml": cursor})
	descriptor := filepath.Join(b.opts.ThemesDir, "looped-dark.toml")
	require.NoError(t, os.WriteFile(descriptor, []byte(
		"name = \"Looped Dark\"\nappearance = \"dark\"\ntemplates = [\"semantic/dark\", \"syntax/base\", \"overrides/cursor\"]\n",
	), 0644))

	// A stale artifact from an earlier run stays untouched.
	stalePath := filepath.Join(out, "warp", "looped-light.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(stalePath), 0755))
	require.NoError(t, os.WriteFile(stalePath, []byte("old"), 0644))

	res, err := b.Build(emit.All())
	require.Error(t, err)

	var fe *theme.FormatError
	require.True(t, errors.As(err, &fe), "got %v", err)
	assert.Equal(t, "warp", fe.Format)

	assert.Contains(t, res.Failed, emit.Warp)
	assert.NoFileExists(t, filepath.Join(out, "warp", "looped-dark.yaml"))
	data, err := os.ReadFile(stalePath)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	assert.FileExists(t, filepath.Join(out, "code", "looped-dark.json"))
	assert.FileExists(t, filepath.Join(out, "zed", "themes", "looped.json"))
}

func TestBuild_ResolutionErrorIsFatal(t *testing.T) {
	b, out := sampleBuilder(t)

	testfixtures.WriteFiles(t, b.opts.TemplatesDir, map[string]string{
		"palette/base.toml": "extends = [\"semantic/dark\"]\n[colors]\naccent = \"#685EF6\"\n",
	})

	res, err := b.Build(emit.All())
	require.Error(t, err)
	assert.Nil(t, res)

	var re *theme.ResolutionError
	require.True(t, errors.As(err, &re), "got %v", err)
	assert.NotEmpty(t, re.Cycle)

	_, statErr := os.Stat(filepath.Join(out, "code"))
	assert.True(t, os.IsNotExist(statErr), "nothing is written")
}

func TestCheck(t *testing.T) {
	b, out := sampleBuilder(t)

	stale, _, err := b.Check(emit.All())
	require.NoError(t, err)
	assert.Len(t, stale, 7)
	for _, s := range stale {
		assert.True(t, s.Missing)
	}

	_, err = b.Build(emit.All())
	require.NoError(t, err)

	stale, _, err = b.Check(emit.All())
	require.NoError(t, err)
	assert.Empty(t, stale)

	path := filepath.Join(out, "warp", "looped-dark.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Looped Dark\n"), 0644))

	stale, _, err = b.Check([]emit.Format{emit.Warp})
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, path, stale[0].Path)
	assert.False(t, stale[0].Missing)
	assert.Contains(t, stale[0].Diff, "+terminal_colors:")
}

func TestWriteFile_ReplacesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	require.NoError(t, WriteFile(path, []byte("a much longer first version\n")))
	require.NoError(t, WriteFile(path, []byte("short\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "short\n", string(data))
}
