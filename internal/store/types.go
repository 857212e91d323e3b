package store

// Layer is a set of color tokens and syntax rules contributed by a template
// or by a descriptor's overrides.
type Layer struct {
	// Colors maps dotted token names to raw values: a hex color or a
	// ${token} reference.
	Colors map[string]string
	// Syntax maps dotted rule names to partial rules.
	Syntax map[string]SyntaxRule
}

// Empty reports whether the layer contributes nothing.
func (l Layer) Empty() bool {
	return len(l.Colors) == 0 && len(l.Syntax) == 0
}

// SyntaxRule is a syntax highlighting rule as authored. Zero fields are unset
// and do not override earlier layers.
type SyntaxRule struct {
	Label      string
	Color      string
	FontStyle  string
	FontWeight int
	Scopes     []string
}

// Merge returns r with every set field of o applied on top.
func (r SyntaxRule) Merge(o SyntaxRule) SyntaxRule {
	if o.Label != "" {
		r.Label = o.Label
	}
	if o.Color != "" {
		r.Color = o.Color
	}
	if o.FontStyle != "" {
		r.FontStyle = o.FontStyle
	}
	if o.FontWeight != 0 {
		r.FontWeight = o.FontWeight
	}
	if o.Scopes != nil {
		r.Scopes = append([]string(nil), o.Scopes...)
	}
	return r
}

// Template is a named, reusable document of color tokens and syntax rules.
type Template struct {
	Name        string   // path relative to the templates dir, without .toml
	Path        string   // file on disk
	Description string
	Extends     []string // referenced template names, in order
	Layer
}

// Descriptor is a top-level theme variant.
type Descriptor struct {
	Path                 string
	Name                 string
	Appearance           string
	SemanticHighlighting bool
	Templates            []string
	Overrides            Layer
}

// rawTemplate is the on-disk TOML shape of a template.
type rawTemplate struct {
	Description string         `toml:"description"`
	Extends     []string       `toml:"extends"`
	Colors      map[string]any `toml:"colors"`
	Syntax      map[string]any `toml:"syntax"`
}

// rawDescriptor is the on-disk TOML shape of a theme descriptor.
type rawDescriptor struct {
	Name                 string   `toml:"name"`
	Appearance           string   `toml:"appearance"`
	SemanticHighlighting *bool    `toml:"semantic_highlighting"`
	Templates            []string `toml:"templates"`
	Overrides            struct {
		Colors map[string]any `toml:"colors"`
		Syntax map[string]any `toml:"syntax"`
	} `toml:"overrides"`
}
