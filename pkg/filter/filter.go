// Package filter narrows lists of copy triggers for the scan command.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

type FilterMode int

const (
	FilterModeNone FilterMode = iota
	FilterModeExact
	FilterModeContains
	FilterModeRegex
	FilterModeFuzzy
)

var modeNames = map[string]FilterMode{
	"none":     FilterModeNone,
	"exact":    FilterModeExact,
	"contains": FilterModeContains,
	"regex":    FilterModeRegex,
	"fuzzy":    FilterModeFuzzy,
}

// ModeNames lists the accepted --filter-mode values.
func ModeNames() []string {
	return []string{"contains", "exact", "regex", "fuzzy", "none"}
}

func ParseFilterMode(s string) (FilterMode, error) {
	if s == "" {
		return FilterModeContains, nil
	}
	mode, ok := modeNames[strings.ToLower(s)]
	if !ok {
		return FilterModeNone, fmt.Errorf("unknown filter mode %q (expected one of %s)", s, strings.Join(ModeNames(), ", "))
	}
	return mode, nil
}

type StringFilter struct {
	Pattern string
	Mode    FilterMode
	regex   *regexp.Regexp
}

func NewStringFilter(pattern string, mode FilterMode) (*StringFilter, error) {
	f := &StringFilter{
		Pattern: pattern,
		Mode:    mode,
	}

	if mode == FilterModeRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern '%s': %w", pattern, err)
		}
		f.regex = re
	}

	return f, nil
}

func (f *StringFilter) Match(s string) bool {
	if f == nil || f.Pattern == "" {
		return true
	}

	switch f.Mode {
	case FilterModeExact:
		return strings.EqualFold(s, f.Pattern)
	case FilterModeContains:
		return strings.Contains(strings.ToLower(s), strings.ToLower(f.Pattern))
	case FilterModeRegex:
		return f.regex != nil && f.regex.MatchString(s)
	case FilterModeFuzzy:
		return FuzzyMatch(f.Pattern, s)
	default:
		return true
	}
}

// FuzzyMatch reports whether every rune of pattern appears in text in
// order, ignoring case.
func FuzzyMatch(pattern, text string) bool {
	if pattern == "" {
		return true
	}

	want := []rune(strings.ToLower(pattern))
	i := 0
	for _, r := range strings.ToLower(text) {
		if r == want[i] {
			i++
			if i == len(want) {
				return true
			}
		}
	}
	return false
}

// Candidate is the searchable summary of one trigger.
type Candidate struct {
	ID       string
	Tag      string
	Selector string
	Targets  []string
	Owned    bool
}

// TriggerFilter keeps candidates matching every set criterion. Text is
// matched against the id, the selector and each target description.
type TriggerFilter struct {
	Text      *StringFilter
	Tag       string
	OwnedOnly bool
}

func (f *TriggerFilter) Matches(c Candidate) bool {
	if f == nil {
		return true
	}
	if f.Tag != "" && !strings.EqualFold(c.Tag, f.Tag) {
		return false
	}
	if f.OwnedOnly && !c.Owned {
		return false
	}
	if f.Text == nil || f.Text.Pattern == "" {
		return true
	}

	for _, s := range append([]string{c.ID, c.Selector}, c.Targets...) {
		if s != "" && f.Text.Match(s) {
			return true
		}
	}
	return false
}

// Apply returns the candidates f keeps, in order.
func (f *TriggerFilter) Apply(cs []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cs))
	for _, c := range cs {
		if f.Matches(c) {
			out = append(out, c)
		}
	}
	return out
}
