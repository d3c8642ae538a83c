// Package target turns a clicked trigger into the ordered elements whose
// values are copied.
package target

import (
	"clipctl/pkg/dom"
	"clipctl/pkg/query"
)

// QueryService resolves the prefixed query attributes of an element. ok is
// false when nothing matched.
type QueryService interface {
	Resolve(el *dom.Element, prefix string) (dom.ElementList, bool)
}

type Resolver struct {
	grammar query.Grammar
	svc     QueryService
}

// NewResolver returns a resolver for grammar. A nil svc uses the built-in
// query service.
func NewResolver(grammar query.Grammar, svc QueryService) *Resolver {
	if svc == nil {
		svc = query.NewService()
	}
	return &Resolver{grammar: grammar, svc: svc}
}

func (r *Resolver) Grammar() query.Grammar { return r.grammar }

// Resolve returns the targets of trigger in resolution order. The trigger
// itself is the target when it declares no resolution attribute or when
// resolution finds nothing. Attributes are read on every call.
func (r *Resolver) Resolve(trigger *dom.Element) []*dom.Element {
	if !r.grammar.Declares(trigger) {
		return []*dom.Element{trigger}
	}
	list, ok := r.svc.Resolve(trigger, r.grammar.Prefix)
	if !ok {
		return []*dom.Element{trigger}
	}
	targets := dom.Collect(list)
	if len(targets) == 0 {
		return []*dom.Element{trigger}
	}
	return targets
}
