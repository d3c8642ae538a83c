package query

import (
	"errors"
	"fmt"
	"strings"
)

// Step is one parsed unit of the unified query grammar.
type Step struct {
	Anchor   string // "" (document), closest, parent, next or previous
	Arg      string // selector argument of $closest(...)
	Selector string // descendant selector; "" selects the anchor itself
}

func (s Step) String() string {
	var sb strings.Builder
	if s.Anchor != "" {
		sb.WriteString("$" + s.Anchor)
		if s.Anchor == OpClosest {
			sb.WriteString("(" + s.Arg + ")")
		}
	}
	if s.Selector != "" {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.Selector)
	}
	return sb.String()
}

// ParseSteps splits a -query attribute value into steps. Empty steps are
// ignored. A malformed step is left out and reported in the returned error;
// the well-formed steps around it are still returned.
func ParseSteps(value string) ([]Step, error) {
	var (
		steps []Step
		errs  []error
	)
	for _, raw := range strings.Split(value, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		step, err := parseStep(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		steps = append(steps, step)
	}
	return steps, errors.Join(errs...)
}

func parseStep(raw string) (Step, error) {
	if !strings.HasPrefix(raw, "$") {
		return Step{Selector: raw}, nil
	}

	name := raw[1:]
	end := strings.IndexAny(name, " (")
	if end < 0 {
		end = len(name)
	}
	anchor, rest := name[:end], name[end:]

	switch anchor {
	case OpParent, OpNext, OpPrevious:
		return Step{Anchor: anchor, Selector: strings.TrimSpace(rest)}, nil
	case OpClosest:
		if !strings.HasPrefix(rest, "(") {
			return Step{}, fmt.Errorf("query step %q: $closest needs a selector in parentheses", raw)
		}
		arg, tail, err := splitParen(rest)
		if err != nil {
			return Step{}, fmt.Errorf("query step %q: %w", raw, err)
		}
		if arg == "" {
			return Step{}, fmt.Errorf("query step %q: empty $closest selector", raw)
		}
		return Step{Anchor: OpClosest, Arg: arg, Selector: strings.TrimSpace(tail)}, nil
	default:
		return Step{}, fmt.Errorf("query step %q: unknown anchor $%s", raw, anchor)
	}
}

// splitParen consumes a balanced "(...)" prefix, returning its contents and
// the remainder.
func splitParen(s string) (inner, rest string, err error) {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[1:i]), s[i+1:], nil
			}
		}
	}
	return "", "", fmt.Errorf("unbalanced parentheses")
}
