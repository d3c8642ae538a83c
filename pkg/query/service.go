package query

import (
	"clipctl/pkg/dom"
	"clipctl/pkg/logger"
)

// Service resolves every prefixed query attribute an element declares.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Resolve evaluates the -selector, -closest, -parent, -next, -previous and
// -query attributes of el under prefix, in that order. Results are
// concatenated in step order without duplicates. ok is false when no step
// matched anything; a miss is not an error.
func (s *Service) Resolve(el *dom.Element, prefix string) (dom.ElementList, bool) {
	log := logger.With("query")

	var steps []Step
	for _, op := range multiOps {
		v, present := el.GetAttribute(prefix + "-" + op)
		if !present || v == "" && (op == OpSelector || op == OpClosest) {
			continue
		}
		steps = append(steps, stepFor(op, v))
	}
	if v, present := el.GetAttribute(prefix + "-" + OpQuery); present {
		parsed, err := ParseSteps(v)
		if err != nil {
			log.Warn().Err(err).Str("element", el.String()).Msg("skipping malformed query steps")
		}
		steps = append(steps, parsed...)
	}

	seen := make(map[*dom.Element]bool)
	var out []*dom.Element
	for _, step := range steps {
		matches, err := Evaluate(el, step)
		if err != nil {
			log.Warn().Err(err).Str("element", el.String()).Str("step", step.String()).Msg("query step failed")
			continue
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}

	if len(out) == 0 {
		return nil, false
	}
	return dom.NewNodeList(out...), true
}

func stepFor(op, value string) Step {
	switch op {
	case OpSelector:
		return Step{Selector: value}
	case OpClosest:
		return Step{Anchor: OpClosest, Arg: value}
	default:
		return Step{Anchor: op, Selector: value}
	}
}

// Evaluate runs a single step relative to el.
func Evaluate(el *dom.Element, step Step) ([]*dom.Element, error) {
	var anchor *dom.Element
	switch step.Anchor {
	case "":
		list, err := el.Document().QuerySelectorAll(step.Selector)
		if err != nil {
			return nil, err
		}
		return dom.Collect(list), nil
	case OpClosest:
		found, err := el.Closest(step.Arg)
		if err != nil {
			return nil, err
		}
		anchor = found
	case OpParent:
		anchor = el.Parent()
	case OpNext:
		anchor = el.NextElementSibling()
	case OpPrevious:
		anchor = el.PreviousElementSibling()
	}

	if anchor == nil {
		return nil, nil
	}
	if step.Selector == "" {
		return []*dom.Element{anchor}, nil
	}
	list, err := anchor.QuerySelectorAll(step.Selector)
	if err != nil {
		return nil, err
	}
	return dom.Collect(list), nil
}
