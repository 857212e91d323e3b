package preview

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	chroma "github.com/alecthomas/chroma/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/loopedtheme/looped/internal/emit"
	"github.com/loopedtheme/looped/internal/testfixtures"
	"github.com/loopedtheme/looped/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexOf(c chroma.Colour) string {
	return strings.ToUpper(c.String())
}

func TestStyle_FromSyntaxRules(t *testing.T) {
	dark := testfixtures.Dark()

	style, err := Style(dark)
	require.NoError(t, err)
	assert.Equal(t, dark.Name, style.Name)

	comment := style.Get(chroma.Comment)
	assert.Equal(t, dark.Syntax["comment"].Color.RGBHex(), hexOf(comment.Colour))
	assert.Equal(t, chroma.Yes, comment.Italic)

	keyword := style.Get(chroma.Keyword)
	assert.Equal(t, dark.Tokens["accent"].RGBHex(), hexOf(keyword.Colour))

	// Sub-types inherit from the mapped parent.
	str := style.Get(chroma.LiteralStringDouble)
	assert.Equal(t, dark.Syntax["string"].Color.RGBHex(), hexOf(str.Colour))

	bg := style.Get(chroma.Background)
	assert.Equal(t, dark.Tokens["background"].RGBHex(), hexOf(bg.Background))
	assert.Equal(t, dark.Tokens["foreground"].RGBHex(), hexOf(bg.Colour))
}

func TestStyleEntry(t *testing.T) {
	c := theme.MustParseHex("#685EF680")

	tests := []struct {
		name string
		rule theme.SyntaxStyle
		want string
	}{
		{"plain drops alpha", theme.SyntaxStyle{Color: c}, "#685EF6"},
		{"italic", theme.SyntaxStyle{Color: c, FontStyle: "italic"}, "italic #685EF6"},
		{"weight implies bold", theme.SyntaxStyle{Color: c, FontWeight: 700}, "bold #685EF6"},
		{"no double bold", theme.SyntaxStyle{Color: c, FontStyle: "bold", FontWeight: 700}, "bold #685EF6"},
		{"unknown styles dropped", theme.SyntaxStyle{Color: c, FontStyle: "oblique underline"}, "underline #685EF6"},
		{"light weight ignored", theme.SyntaxStyle{Color: c, FontWeight: 300}, "#685EF6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, styleEntry(tt.rule))
		})
	}
}

func TestLexer(t *testing.T) {
	assert.Equal(t, "Go", Lexer("go", "", "").Config().Name)
	assert.Equal(t, "TOML", Lexer("", "looped.toml", "").Config().Name)
	assert.Equal(t, "Go", Lexer("", "main.go", "").Config().Name)
	assert.NotNil(t, Lexer("", "", "no hints here"))
}

func TestHighlight_TrueColor(t *testing.T) {
	dark := testfixtures.Dark()

	var buf bytes.Buffer
	require.NoError(t, Highlight(&buf, dark, Sample, "", "go"))

	accent := dark.Tokens["accent"]
	assert.Contains(t, buf.String(), fmt.Sprintf("38;2;%d;%d;%d", accent.R, accent.G, accent.B))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestHighlight_DownsampledToPlainText(t *testing.T) {
	var buf bytes.Buffer
	w := colorprofile.NewWriter(&buf, nil)
	w.Profile = colorprofile.NoTTY

	require.NoError(t, Highlight(w, testfixtures.Light(), Sample, "demo.go", ""))

	out := buf.String()
	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "func (p Point) Scale(k float64) Point {")
}

func TestTokens(t *testing.T) {
	light := testfixtures.Light()

	var buf bytes.Buffer
	w := colorprofile.NewWriter(&buf, nil)
	w.Profile = colorprofile.NoTTY
	require.NoError(t, Tokens(w, light))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, len(light.Tokens)+1)
	assert.Equal(t, "Looped Light (light)", lines[0])

	var success string
	for _, l := range lines[1:] {
		if strings.Contains(l, " success ") {
			success = l
		}
	}
	require.NotEmpty(t, success)
	assert.Contains(t, success, light.Tokens["success"].Hex())
	assert.True(t, strings.HasSuffix(success, "fixtures"), success)
}

func plainWriter(buf *bytes.Buffer) *colorprofile.Writer {
	w := colorprofile.NewWriter(buf, nil)
	w.Profile = colorprofile.NoTTY
	return w
}

func TestTokens_SkipsEditorOverrides(t *testing.T) {
	dark := testfixtures.Dark()
	shared := len(dark.Tokens)
	dark.Tokens["warp.cursor"] = theme.MustParseHex("#010101")
	dark.Tokens["vscode.editor.background"] = theme.MustParseHex("#020202")

	var buf bytes.Buffer
	require.NoError(t, Tokens(plainWriter(&buf), dark))

	out := buf.String()
	assert.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), shared+1)
	assert.NotContains(t, out, "warp.cursor")
	assert.NotContains(t, out, "#020202")
}

func findLine(lines []string, key string) string {
	for _, l := range lines {
		fields := strings.Fields(l)
		if len(fields) > 0 && fields[0] == key {
			return l
		}
	}
	return ""
}

func TestBindings(t *testing.T) {
	dark := testfixtures.Without(testfixtures.Dark(), "border")
	dark.Tokens["zed.element.hover"] = theme.MustParseHex("#010101")

	e, err := emit.For(emit.Zed)
	require.NoError(t, err)
	table := e.Schema().Table

	var buf bytes.Buffer
	require.NoError(t, Bindings(plainWriter(&buf), dark, emit.Zed, table))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "Looped Dark (zed)", lines[0])
	assert.Len(t, lines, len(table)+1, "overrides shadow their table row")

	active := findLine(lines[1:], "element.active")
	require.NotEmpty(t, active)
	assert.Contains(t, active, dark.Tokens["accent"].WithAlpha(0.25).Hex())
	assert.True(t, strings.HasSuffix(active, "alpha(accent, 0.25)"), active)

	hover := findLine(lines[1:], "element.hover")
	require.NotEmpty(t, hover)
	assert.Contains(t, hover, "#010101")
	assert.True(t, strings.HasSuffix(hover, "zed.element.hover"), hover)

	disabled := findLine(lines[1:], "border.disabled")
	require.NotEmpty(t, disabled)
	assert.Contains(t, disabled, "missing")
}
