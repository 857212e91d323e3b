package theme

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/gamut"
)

// hexPattern is the only accepted color syntax: #RRGGBB or #RRGGBBAA.
var hexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$`)

// Color is an 8-bit RGBA color. A is 0xFF for opaque colors.
type Color struct {
	R, G, B, A uint8
}

// IsHex reports whether s is a strict #RRGGBB or #RRGGBBAA value.
func IsHex(s string) bool {
	return hexPattern.MatchString(s)
}

// ParseHex parses a strict #RRGGBB or #RRGGBBAA value.
func ParseHex(s string) (Color, error) {
	if !IsHex(s) {
		return Color{}, fmt.Errorf("invalid hex color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	if len(s) == 7 {
		return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// MustParseHex is ParseHex for package-level literals.
func MustParseHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// HasAlpha reports whether the color is not fully opaque.
func (c Color) HasAlpha() bool {
	return c.A != 0xFF
}

// Hex formats the color as #RRGGBB, or #RRGGBBAA when it carries alpha.
func (c Color) Hex() string {
	if c.HasAlpha() {
		return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
	}
	return c.RGBHex()
}

// RGBHex formats the color as #RRGGBB, dropping any alpha.
func (c Color) RGBHex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// WithAlpha returns the color with a fixed opacity in [0, 1].
func (c Color) WithAlpha(opacity float64) Color {
	c.A = uint8(clamp01(opacity)*255 + 0.5)
	return c
}

// Mix blends c toward o in Lab space; t=0 is c, t=1 is o. Alpha is kept from c.
func (c Color) Mix(o Color, t float64) Color {
	blended := c.colorful().BlendLab(o.colorful(), clamp01(t)).Clamped()
	return fromColorful(blended, c.A)
}

// Shade lightens the color for positive amounts and darkens it for negative
// ones. Amounts are fractions in [-1, 1].
func (c Color) Shade(amount float64) Color {
	var out color.Color
	switch {
	case amount > 0:
		out = gamut.Lighter(c.colorful(), clamp01(amount))
	case amount < 0:
		out = gamut.Darker(c.colorful(), clamp01(-amount))
	default:
		return c
	}
	cf, _ := colorful.MakeColor(out)
	return fromColorful(cf.Clamped(), c.A)
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

func fromColorful(cf colorful.Color, alpha uint8) Color {
	r, g, b := cf.RGB255()
	return Color{R: r, G: g, B: b, A: alpha}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
