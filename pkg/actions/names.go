package actions

import "strings"

// DefaultAttribute is the attribute listing an element's actions.
const DefaultAttribute = "actions"

// ParseNames splits an actions attribute on commas and whitespace, keeping
// the first occurrence of each name in order.
func ParseNames(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// Set is a parsed actions attribute.
type Set map[string]struct{}

func ParseSet(value string) Set {
	names := ParseNames(value)
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports exact membership; "clipboard" is not in "clipboard-copy".
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}
