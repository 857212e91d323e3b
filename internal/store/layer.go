package store

import (
	"fmt"
	"sort"
)

func parseLayer(colors, syntax map[string]any) (Layer, error) {
	l := Layer{
		Colors: make(map[string]string),
		Syntax: make(map[string]SyntaxRule),
	}
	if err := flattenColors("", colors, l.Colors); err != nil {
		return Layer{}, err
	}
	if err := flattenSyntax("", syntax, l.Syntax); err != nil {
		return Layer{}, err
	}
	return l, nil
}

// flattenColors turns nested tables and quoted dotted keys into one flat
// mapping of dotted token names.
func flattenColors(prefix string, table map[string]any, out map[string]string) error {
	for _, key := range sortedKeys(table) {
		name := joinKey(prefix, key)
		switch v := table[key].(type) {
		case string:
			if _, dup := out[name]; dup {
				return fmt.Errorf("colors.%s defined twice", name)
			}
			out[name] = v
		case map[string]any:
			if err := flattenColors(name, v, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("colors.%s: expected a color string, got %T", name, v)
		}
	}
	return nil
}

// flattenSyntax walks [syntax.*] tables. A table holding any rule field is a
// rule named by its dotted path; child tables are rules of their own.
func flattenSyntax(prefix string, table map[string]any, out map[string]SyntaxRule) error {
	var rule SyntaxRule
	isRule := false

	for _, key := range sortedKeys(table) {
		val := table[key]
		if child, ok := val.(map[string]any); ok {
			if err := flattenSyntax(joinKey(prefix, key), child, out); err != nil {
				return err
			}
			continue
		}
		if prefix == "" {
			return fmt.Errorf("syntax.%s: expected a table", key)
		}

		isRule = true
		if err := setRuleField(&rule, key, val); err != nil {
			return fmt.Errorf("syntax.%s: %w", prefix, err)
		}
	}

	if isRule {
		if _, dup := out[prefix]; dup {
			return fmt.Errorf("syntax.%s defined twice", prefix)
		}
		out[prefix] = rule
	}
	return nil
}

func setRuleField(rule *SyntaxRule, key string, val any) error {
	switch key {
	case "name":
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("name: expected a string, got %T", val)
		}
		rule.Label = s
	case "color":
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("color: expected a string, got %T", val)
		}
		rule.Color = s
	case "font_style":
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("font_style: expected a string, got %T", val)
		}
		rule.FontStyle = s
	case "font_weight":
		n, ok := val.(int64)
		if !ok {
			return fmt.Errorf("font_weight: expected an integer, got %T", val)
		}
		if n < 100 || n > 900 {
			return fmt.Errorf("font_weight: %d out of range 100-900", n)
		}
		rule.FontWeight = int(n)
	case "scope", "scopes":
		scopes, err := toStrings(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		rule.Scopes = scopes
	default:
		return fmt.Errorf("unknown field %q", key)
	}
	return nil
}

func toStrings(val any) ([]string, error) {
	switch v := val.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected strings, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or a list of strings, got %T", val)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
