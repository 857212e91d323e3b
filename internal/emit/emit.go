// Package emit translates resolved themes into editor and terminal theme
// documents. Each format owns a static name-translation table and a schema;
// adding a format means adding a table, not control flow.
package emit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/loopedtheme/looped/internal/theme"
)

// Format identifies a target document format.
type Format string

const (
	VSCode   Format = "vscode"
	Zed      Format = "zed"
	Warp     Format = "warp"
	OhMyPosh Format = "ohmyposh"
)

// All returns every format in build order.
func All() []Format {
	return []Format{VSCode, Zed, Warp, OhMyPosh}
}

// ParseFormat accepts a format name or one of its aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vscode", "code":
		return VSCode, nil
	case "zed":
		return Zed, nil
	case "warp":
		return Warp, nil
	case "ohmyposh", "omp", "oh-my-posh":
		return OhMyPosh, nil
	default:
		return "", fmt.Errorf("unknown format %q (want vscode, zed, warp or ohmyposh)", s)
	}
}

// ParseFormats parses a format filter. An empty filter selects every format;
// duplicates are dropped and build order is kept.
func ParseFormats(args []string) ([]Format, error) {
	if len(args) == 0 {
		return All(), nil
	}
	want := make(map[Format]bool, len(args))
	for _, a := range args {
		f, err := ParseFormat(a)
		if err != nil {
			return nil, err
		}
		want[f] = true
	}
	var out []Format
	for _, f := range All() {
		if want[f] {
			out = append(out, f)
		}
	}
	return out, nil
}

// Set is the input to an emitter: every resolved variant plus the product
// metadata shared by combined documents.
type Set struct {
	Product string
	Author  string
	Themes  []*theme.Resolved
}

// Artifact is one generated document. Name is relative to the format's
// output directory.
type Artifact struct {
	Format Format
	Theme  string // variant name, empty for combined documents
	Name   string
	Data   []byte
}

// Emitter produces the artifacts of one format.
type Emitter interface {
	Format() Format
	Schema() Schema
	Emit(set Set) ([]Artifact, error)
}

// For returns the emitter of a format.
func For(f Format) (Emitter, error) {
	switch f {
	case VSCode:
		return vscodeEmitter{}, nil
	case Zed:
		return zedEmitter{}, nil
	case Warp:
		return warpEmitter{}, nil
	case OhMyPosh:
		return ohMyPoshEmitter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}

// FileName returns the slugged file name for a theme or product name.
func FileName(name, ext string) string {
	return slug.Make(name) + ext
}

// perTheme runs fn for every variant. A format fails as a whole, so any
// error discards all of its artifacts.
func perTheme(set Set, fn func(*theme.Resolved) (Artifact, error)) ([]Artifact, error) {
	artifacts := make([]Artifact, 0, len(set.Themes))
	var errs []error
	for _, r := range set.Themes {
		a, err := fn(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		artifacts = append(artifacts, a)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// marshalJSON encodes v with two-space indentation, without HTML escaping,
// and with a trailing newline.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
