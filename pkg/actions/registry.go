// Package actions runs named actions declared on elements through an
// actions="a, b" attribute. Clicking such an element runs its actions in
// order; an action with an end event is finished when that event reaches
// the document.
package actions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clipctl/pkg/diagnostics"
	"clipctl/pkg/dom"
	"clipctl/pkg/logger"
	"clipctl/pkg/observer"
)

// Action is one invocation of a registered action for an element.
type Action struct {
	Name    string
	Element *dom.Element
}

type Callback func(ctx context.Context, a Action)

// Definition registers an action. When EndEvent is set the registry waits
// for it on the document before running the element's next action.
type Definition struct {
	Name     string
	EndEvent string
	Callback Callback
}

type Options struct {
	Attribute string
	// Timeout bounds the wait for an end event.
	Timeout time.Duration
	Sink    diagnostics.Sink
}

const DefaultTimeout = 5 * time.Second

// Registry holds action definitions for one document and binds the
// elements that declare them.
type Registry struct {
	doc  *dom.Document
	opts Options

	mu      sync.Mutex
	defs    map[string]Definition
	bound   map[*dom.Element]dom.ListenerID
	running map[*dom.Element]bool
	subs    []*observer.Subscription
}

func NewRegistry(doc *dom.Document, opts Options) *Registry {
	if opts.Attribute == "" {
		opts.Attribute = DefaultAttribute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Sink == nil {
		opts.Sink = diagnostics.Discard
	}
	return &Registry{
		doc:     doc,
		opts:    opts,
		defs:    make(map[string]Definition),
		bound:   make(map[*dom.Element]dom.ListenerID),
		running: make(map[*dom.Element]bool),
	}
}

func (r *Registry) Attribute() string { return r.opts.Attribute }

func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("action name is required")
	}
	if def.Callback == nil {
		return fmt.Errorf("action %q: callback is required", def.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("action %q is already registered", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

func (r *Registry) Definition(name string) (Definition, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.defs[name]
	return def, ok
}

// Declares reports whether el lists name in its actions attribute.
func (r *Registry) Declares(el *dom.Element, name string) bool {
	v, ok := el.GetAttribute(r.opts.Attribute)
	return ok && ParseSet(v).Has(name)
}

// Start binds every element that declares actions and keeps binding new
// ones as the document changes.
func (r *Registry) Start(obs *observer.Service) error {
	sel := "[" + r.opts.Attribute + "]"
	if obs != nil {
		added, err := obs.Register(observer.Registration{
			Name:     "actions-added",
			Observe:  []observer.Kind{observer.AddedNodes, observer.RemovedNodes},
			Selector: sel,
			Callback: func(m observer.Mutation) {
				if m.Kind == observer.RemovedNodes {
					r.forget(m.Target)
					return
				}
				r.Bind(m.Target)
			},
		})
		if err != nil {
			return err
		}
		attrs, err := obs.Register(observer.Registration{
			Name:           "actions-attributes",
			Observe:        []observer.Kind{observer.Attributes},
			Selector:       sel,
			AttributeNames: []string{r.opts.Attribute},
			Callback:       func(m observer.Mutation) { r.Bind(m.Target) },
		})
		if err != nil {
			added.Close()
			return err
		}
		r.mu.Lock()
		r.subs = append(r.subs, added, attrs)
		r.mu.Unlock()
	}

	list, err := r.doc.QuerySelectorAll(sel)
	if err != nil {
		return err
	}
	for _, el := range dom.Collect(list) {
		r.Bind(el)
	}
	return nil
}

// Bind attaches the click listener to el once. It reports whether a new
// listener was attached.
func (r *Registry) Bind(el *dom.Element) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bound[el]; ok {
		return false
	}
	r.bound[el] = el.AddEventListener(dom.EventClick, func(ctx context.Context, _ dom.Event) {
		r.onClick(ctx, el)
	})
	return true
}

func (r *Registry) forget(el *dom.Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bound, el)
	delete(r.running, el)
}

func (r *Registry) onClick(ctx context.Context, el *dom.Element) {
	if !el.IsConnected() || !el.HasAttribute(r.opts.Attribute) {
		return
	}
	if err := r.Run(ctx, el); err != nil {
		logger.With("actions").Warn().Err(err).Str("element", el.String()).Msg("action chain stopped")
	}
}

// Run executes el's actions in attribute order. Unknown names are skipped.
// A second Run for the same element while one is in progress is ignored.
func (r *Registry) Run(ctx context.Context, el *dom.Element) error {
	r.mu.Lock()
	if r.running[el] {
		r.mu.Unlock()
		logger.With("actions").Debug().Str("element", el.String()).Msg("actions already running")
		return nil
	}
	r.running[el] = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.running, el)
		r.mu.Unlock()
	}()

	v, _ := el.GetAttribute(r.opts.Attribute)
	for _, name := range ParseNames(v) {
		def, ok := r.Definition(name)
		if !ok {
			logger.With("actions").Debug().Str("action", name).Msg("no such action")
			continue
		}
		if err := r.runOne(ctx, def, el); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) runOne(ctx context.Context, def Definition, el *dom.Element) error {
	a := Action{Name: def.Name, Element: el}
	if def.EndEvent == "" {
		def.Callback(ctx, a)
		return nil
	}

	done := make(chan struct{}, 1)
	id := r.doc.AddEventListener(def.EndEvent, func(context.Context, dom.Event) {
		select {
		case done <- struct{}{}:
		default:
		}
	})
	defer r.doc.RemoveEventListener(id)

	def.Callback(ctx, a)

	timer := time.NewTimer(r.opts.Timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		r.opts.Sink.Report(diagnostics.Stamp(diagnostics.Diagnostic{
			Kind:    diagnostics.KindActionTimeout,
			Trigger: el.String(),
			Message: fmt.Sprintf("action %q did not dispatch %q within %s", def.Name, def.EndEvent, r.opts.Timeout),
		}))
		return fmt.Errorf("action %q: timed out waiting for %q", def.Name, def.EndEvent)
	}
}

// Close stops observing the document and removes every listener the
// registry attached.
func (r *Registry) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	bound := r.bound
	r.bound = make(map[*dom.Element]dom.ListenerID)
	r.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
	for el, id := range bound {
		el.RemoveEventListener(id)
	}
}
