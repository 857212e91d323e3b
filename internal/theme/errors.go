package theme

import (
	"fmt"
	"strings"
)

// ResolutionError reports a template reference that cannot be resolved: a
// missing template, a template cycle, an unknown token reference, a token
// reference cycle or an incomplete syntax rule.
type ResolutionError struct {
	Theme     string   // descriptor name
	Template  string   // template (or descriptor) holding the bad reference
	Reference string   // referenced template or token
	Cycle     []string // populated for cycles, first element repeated last
	Reason    string
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("resolve")
	if e.Theme != "" {
		fmt.Fprintf(&b, " %q", e.Theme)
	}
	if e.Template != "" {
		fmt.Fprintf(&b, " (in %s)", e.Template)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if len(e.Cycle) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Cycle, " -> "))
	} else if e.Reference != "" {
		fmt.Fprintf(&b, ": %s", e.Reference)
	}
	return b.String()
}

// SchemaError reports tokens or syntax rules a format requires but the
// resolved theme lacks.
type SchemaError struct {
	Format  string
	Theme   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: theme %q is missing required tokens: %s",
		e.Format, e.Theme, strings.Join(e.Missing, ", "))
}

// FormatError reports a value that does not satisfy a destination's value
// syntax. Format is "source" for malformed values in the template store.
type FormatError struct {
	Format   string
	Theme    string
	Template string
	Token    string
	Key      string
	Value    string
	Reason   string
}

func (e *FormatError) Error() string {
	var b strings.Builder
	b.WriteString(e.Format)
	if e.Theme != "" {
		fmt.Fprintf(&b, ": theme %q", e.Theme)
	}
	if e.Template != "" {
		fmt.Fprintf(&b, " (in %s)", e.Template)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, ": key %q", e.Key)
	}
	if e.Token != "" {
		fmt.Fprintf(&b, ": token %q", e.Token)
	}
	fmt.Fprintf(&b, ": value %q: %s", e.Value, e.Reason)
	return b.String()
}
