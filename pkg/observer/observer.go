// Package observer delivers document mutations to named registrations,
// filtered by change kind, selector and attribute name.
package observer

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"clipctl/pkg/dom"
	"clipctl/pkg/logger"
)

type Kind string

const (
	AddedNodes   Kind = "addedNodes"
	RemovedNodes Kind = "removedNodes"
	Attributes   Kind = "attributes"
)

// Mutation is delivered once per matching element. For added and removed
// nodes Target is the element in the changed subtree that matched the
// selector. Removed elements are reported from the wrappers the document
// dropped, so they are the same values earlier deliveries carried.
type Mutation struct {
	Kind          Kind
	Target        *dom.Element
	AttributeName string
	OldValue      string
}

type Registration struct {
	Name    string
	Observe []Kind
	// Selector limits deliveries to matching elements. Empty matches all.
	Selector string
	// AttributeNames limits attribute deliveries. Empty means any attribute.
	AttributeNames []string
	Callback       func(Mutation)
}

// Service owns the subscriptions registered against one document.
type Service struct {
	doc *dom.Document

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func New(doc *dom.Document) *Service {
	return &Service{doc: doc, subs: make(map[*Subscription]struct{})}
}

// Subscription is a live registration. Close stops deliveries.
type Subscription struct {
	svc    *Service
	reg    Registration
	kinds  map[Kind]bool
	attrs  map[string]bool
	cancel func()
	closed atomic.Bool
}

// Register validates reg and starts delivering mutations to it.
func (s *Service) Register(reg Registration) (*Subscription, error) {
	if reg.Callback == nil {
		return nil, fmt.Errorf("observer %q: callback is required", reg.Name)
	}
	if len(reg.Observe) == 0 {
		return nil, fmt.Errorf("observer %q: no change kinds to observe", reg.Name)
	}
	if reg.Selector != "" {
		if err := dom.ValidSelector(reg.Selector); err != nil {
			return nil, fmt.Errorf("observer %q: %w", reg.Name, err)
		}
	}

	sub := &Subscription{svc: s, reg: reg, kinds: make(map[Kind]bool)}
	for _, k := range reg.Observe {
		switch k {
		case AddedNodes, RemovedNodes, Attributes:
			sub.kinds[k] = true
		default:
			return nil, fmt.Errorf("observer %q: unknown change kind %q", reg.Name, k)
		}
	}
	if len(reg.AttributeNames) > 0 {
		sub.attrs = make(map[string]bool, len(reg.AttributeNames))
		for _, a := range reg.AttributeNames {
			sub.attrs[a] = true
		}
	}

	sub.cancel = s.doc.Observe(sub.handle)
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	logger.With("observer").Debug().Str("name", reg.Name).Interface("observe", reg.Observe).Msg("registered")
	return sub, nil
}

// Names lists the active subscriptions.
func (s *Service) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.subs))
	for sub := range s.subs {
		names = append(names, sub.reg.Name)
	}
	sort.Strings(names)
	return names
}

// Close closes every active subscription.
func (s *Service) Close() {
	s.mu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (sub *Subscription) Name() string { return sub.reg.Name }

// Close is safe to call more than once.
func (sub *Subscription) Close() {
	if sub.closed.Swap(true) {
		return
	}
	sub.cancel()
	sub.svc.mu.Lock()
	delete(sub.svc.subs, sub)
	sub.svc.mu.Unlock()
	logger.With("observer").Debug().Str("name", sub.reg.Name).Msg("closed")
}

func (sub *Subscription) handle(rec dom.MutationRecord) {
	if sub.closed.Load() {
		return
	}
	switch rec.Kind {
	case dom.MutationChildList:
		if sub.kinds[AddedNodes] {
			sub.deliverAdded(rec.AddedNodes)
		}
		if sub.kinds[RemovedNodes] {
			sub.deliverRemoved(rec.Detached)
		}
	case dom.MutationAttributes:
		if !sub.kinds[Attributes] {
			return
		}
		if sub.attrs != nil && !sub.attrs[rec.AttributeName] {
			return
		}
		if !sub.matches(rec.Target) {
			return
		}
		sub.reg.Callback(Mutation{
			Kind:          Attributes,
			Target:        rec.Target,
			AttributeName: rec.AttributeName,
			OldValue:      rec.OldValue,
		})
	}
}

// deliverAdded calls back for every element of the added subtrees that
// matches the selector, roots first. Without a selector only the roots are
// delivered.
func (sub *Subscription) deliverAdded(roots []*dom.Element) {
	for _, root := range roots {
		if sub.reg.Selector == "" {
			sub.reg.Callback(Mutation{Kind: AddedNodes, Target: root})
			continue
		}
		if sub.matches(root) {
			sub.reg.Callback(Mutation{Kind: AddedNodes, Target: root})
		}
		list, err := root.QuerySelectorAll(sub.reg.Selector)
		if err != nil {
			continue
		}
		for _, el := range dom.Collect(list) {
			if sub.closed.Load() {
				return
			}
			sub.reg.Callback(Mutation{Kind: AddedNodes, Target: el})
		}
	}
}

func (sub *Subscription) deliverRemoved(detached []*dom.Element) {
	for _, el := range detached {
		if sub.closed.Load() {
			return
		}
		if sub.matches(el) {
			sub.reg.Callback(Mutation{Kind: RemovedNodes, Target: el})
		}
	}
}

func (sub *Subscription) matches(el *dom.Element) bool {
	if sub.reg.Selector == "" {
		return true
	}
	ok, err := el.Matches(sub.reg.Selector)
	return err == nil && ok
}
