package emit

import (
	"fmt"

	"github.com/loopedtheme/looped/internal/theme"
)

const ohMyPoshSchemaURL = "https://raw.githubusercontent.com/JanDeDobbeleer/oh-my-posh/main/themes/schema.json"

// ohMyPoshTable fills the prompt palette; segments refer to it as p:<key>.
var ohMyPoshTable = Table{
	{"accent", tok("accent")},
	{"accent_text", tok("accent.foreground")},
	{"surface", tok("background.tertiary")},
	{"text", tok("foreground")},
	{"muted", tok("foreground.muted")},
	{"subtle", tok("foreground.subtle")},
	{"git_bg", tok("background.secondary")},
	{"git_clean", tok("ansi.green")},
	{"git_dirty", tok("warning")},
	{"git_ahead", tok("info")},
	{"git_diverged", tok("error")},
	{"status_ok", tok("success")},
	{"status_error", tok("error")},
	{"exec_time", tok("warning")},
	{"prompt", tok("accent")},
	{"prompt_error", tok("error")},
}

var ohMyPoshSchema = Schema{
	Format: OhMyPosh,
	Table:  ohMyPoshTable,
}

type ompConfig struct {
	Schema     string            `json:"$schema"`
	Version    int               `json:"version"`
	FinalSpace bool              `json:"final_space"`
	Palette    map[string]string `json:"palette"`
	Blocks     []ompBlock        `json:"blocks"`
}

type ompBlock struct {
	Type      string       `json:"type"`
	Alignment string       `json:"alignment"`
	Newline   bool         `json:"newline,omitempty"`
	Segments  []ompSegment `json:"segments"`
}

type ompSegment struct {
	Type                string         `json:"type"`
	Style               string         `json:"style"`
	PowerlineSymbol     string         `json:"powerline_symbol,omitempty"`
	LeadingDiamond      string         `json:"leading_diamond,omitempty"`
	TrailingDiamond     string         `json:"trailing_diamond,omitempty"`
	Foreground          string         `json:"foreground"`
	Background          string         `json:"background,omitempty"`
	ForegroundTemplates []string       `json:"foreground_templates,omitempty"`
	Template            string         `json:"template"`
	Properties          map[string]any `json:"properties,omitempty"`
}

// ompBlocks is the prompt layout. Colors are palette references only.
var ompBlocks = []ompBlock{
	{
		Type:      "prompt",
		Alignment: "left",
		Segments: []ompSegment{
			{
				Type:           "os",
				Style:          "diamond",
				LeadingDiamond: "\ue0b6",
				Foreground:     "p:text",
				Background:     "p:surface",
				Template:       " {{ if .WSL }}WSL at {{ end }}{{ .Icon }} ",
			},
			{
				Type:            "path",
				Style:           "powerline",
				PowerlineSymbol: "\ue0b0",
				Foreground:      "p:accent_text",
				Background:      "p:accent",
				Template:        " {{ .Path }} ",
				Properties:      map[string]any{"style": "folder"},
			},
			{
				Type:            "git",
				Style:           "powerline",
				PowerlineSymbol: "\ue0b0",
				Foreground:      "p:git_clean",
				Background:      "p:git_bg",
				ForegroundTemplates: []string{
					"{{ if or (.Working.Changed) (.Staging.Changed) }}p:git_dirty{{ end }}",
					"{{ if and (gt .Ahead 0) (gt .Behind 0) }}p:git_diverged{{ end }}",
					"{{ if gt .Ahead 0 }}p:git_ahead{{ end }}",
				},
				Template: " {{ .HEAD }}{{ if .Working.Changed }}  {{ .Working.String }}{{ end }}{{ if .Staging.Changed }}  {{ .Staging.String }}{{ end }} ",
				Properties: map[string]any{
					"fetch_status":        true,
					"fetch_upstream_icon": true,
				},
			},
			{
				Type:            "executiontime",
				Style:           "powerline",
				PowerlineSymbol: "\ue0b0",
				Foreground:      "p:exec_time",
				Background:      "p:surface",
				Template:        "  {{ .FormattedMs }} ",
				Properties:      map[string]any{"threshold": 500},
			},
			{
				Type:            "status",
				Style:           "diamond",
				TrailingDiamond: "\ue0b4",
				Foreground:      "p:status_ok",
				Background:      "p:surface",
				ForegroundTemplates: []string{
					"{{ if gt .Code 0 }}p:status_error{{ end }}",
				},
				Template:   " {{ if gt .Code 0 }} {{ .Code }}{{ else }}{{ end }} ",
				Properties: map[string]any{"always_enabled": true},
			},
		},
	},
	{
		Type:      "prompt",
		Alignment: "left",
		Newline:   true,
		Segments: []ompSegment{
			{
				Type:       "text",
				Style:      "plain",
				Foreground: "p:prompt",
				ForegroundTemplates: []string{
					"{{ if gt .Code 0 }}p:prompt_error{{ end }}",
				},
				Template: "❯ ",
			},
		},
	},
}

type ohMyPoshEmitter struct{}

func (ohMyPoshEmitter) Format() Format { return OhMyPosh }
func (ohMyPoshEmitter) Schema() Schema { return ohMyPoshSchema }

// Emit writes one prompt config per variant.
func (e ohMyPoshEmitter) Emit(set Set) ([]Artifact, error) {
	return perTheme(set, e.emitTheme)
}

func (ohMyPoshEmitter) emitTheme(r *theme.Resolved) (Artifact, error) {
	if err := ohMyPoshSchema.Check(r); err != nil {
		return Artifact{}, err
	}

	doc := ompConfig{
		Schema:     ohMyPoshSchemaURL,
		Version:    3,
		FinalSpace: true,
		Palette:    hexMap(colorMap(OhMyPosh, ohMyPoshTable, r)),
		Blocks:     ompBlocks,
	}

	data, err := marshalJSON(doc)
	if err != nil {
		return Artifact{}, fmt.Errorf("ohmyposh: encode %q: %w", r.Name, err)
	}
	return Artifact{Format: OhMyPosh, Theme: r.Name, Name: FileName(r.Name, ".omp.json"), Data: data}, nil
}
