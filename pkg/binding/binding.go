// Package binding attaches clipboard triggers to a document and runs the
// resolve, build and write cycle when they are clicked.
package binding

import (
	"context"
	"fmt"
	"sync"

	"clipctl/pkg/actions"
	"clipctl/pkg/clipboard"
	"clipctl/pkg/diagnostics"
	"clipctl/pkg/dom"
	"clipctl/pkg/logger"
	"clipctl/pkg/observer"
	"clipctl/pkg/payload"
	"clipctl/pkg/query"
	"clipctl/pkg/target"
)

const DefaultActionName = "clipboard"

// Options is the explicit configuration of a Manager. Zero values select
// the defaults: multi-attribute grammar under the "clipboard" prefix, rich
// payloads, the system clipboard and completion on the document.
type Options struct {
	Grammar        query.Grammar
	Mode           payload.Mode
	ActionName     string
	EventName      string
	DispatchTarget clipboard.DispatchTarget
	// ActionsAttribute is read to decide whether the action registry owns
	// a trigger.
	ActionsAttribute string

	Backend      clipboard.Backend
	Accessor     payload.Accessor
	QueryService target.QueryService
	Sink         diagnostics.Sink
}

func (o Options) withDefaults() Options {
	if o.Grammar.Prefix == "" {
		o.Grammar.Prefix = "clipboard"
	}
	if o.Grammar.Variant == "" {
		o.Grammar.Variant = query.VariantMulti
	}
	if o.Mode == "" {
		o.Mode = payload.ModeRich
	}
	if o.ActionName == "" {
		o.ActionName = DefaultActionName
	}
	if o.EventName == "" {
		o.EventName = clipboard.EventClipboarded
	}
	if o.DispatchTarget == "" {
		o.DispatchTarget = clipboard.DispatchDocument
	}
	if o.ActionsAttribute == "" {
		o.ActionsAttribute = actions.DefaultAttribute
	}
	if o.Backend == nil {
		o.Backend = clipboard.System{}
	}
	if o.Sink == nil {
		o.Sink = diagnostics.LogSink{}
	}
	return o
}

// Manager owns the click listeners of every clipboard trigger of one
// document. Binding is one-way: an element stays bound until it leaves the
// document or the manager is closed.
type Manager struct {
	doc      *dom.Document
	opts     Options
	resolver *target.Resolver
	builder  payload.Builder
	writer   *clipboard.Writer

	mu       sync.Mutex
	bound    map[*dom.Element]dom.ListenerID
	inflight map[*dom.Element]bool
	subs     []*observer.Subscription
}

func New(doc *dom.Document, opts Options) (*Manager, error) {
	opts = opts.withDefaults()
	if err := dom.ValidSelector(opts.Grammar.Selector()); err != nil {
		return nil, fmt.Errorf("attribute prefix %q: %w", opts.Grammar.Prefix, err)
	}

	builder, err := payload.NewBuilder(opts.Mode, payload.Options{
		Accessor:      opts.Accessor,
		Sink:          opts.Sink,
		ValueTypeAttr: opts.Grammar.ValueTypeAttr(),
	})
	if err != nil {
		return nil, err
	}
	writer := clipboard.NewWriter(doc, opts.Backend, clipboard.WriterOptions{
		EventName:      opts.EventName,
		DispatchTarget: opts.DispatchTarget,
		Sink:           opts.Sink,
	})

	return &Manager{
		doc:      doc,
		opts:     opts,
		resolver: target.NewResolver(opts.Grammar, opts.QueryService),
		builder:  builder,
		writer:   writer,
		bound:    make(map[*dom.Element]dom.ListenerID),
		inflight: make(map[*dom.Element]bool),
	}, nil
}

func (m *Manager) Options() Options { return m.opts }

// Start registers the clipboard action with reg, subscribes to document
// changes through obs and binds every trigger already present. Either
// collaborator may be nil.
func (m *Manager) Start(obs *observer.Service, reg *actions.Registry) error {
	if reg != nil {
		err := reg.Register(actions.Definition{
			Name:     m.opts.ActionName,
			EndEvent: m.opts.EventName,
			Callback: func(ctx context.Context, a actions.Action) {
				m.QueryClipboardElement(ctx, a.Element)
			},
		})
		if err != nil {
			return err
		}
	}

	if obs != nil {
		sel := m.opts.Grammar.Selector()
		added, err := obs.Register(observer.Registration{
			Name:     "clipboard-added-nodes",
			Observe:  []observer.Kind{observer.AddedNodes, observer.RemovedNodes},
			Selector: sel,
			Callback: m.onNodes,
		})
		if err != nil {
			return err
		}
		attrs, err := obs.Register(observer.Registration{
			Name:           "clipboard-attributes",
			Observe:        []observer.Kind{observer.Attributes},
			Selector:       sel,
			AttributeNames: m.opts.Grammar.AttributeNames(),
			Callback:       func(mut observer.Mutation) { m.Init(mut.Target) },
		})
		if err != nil {
			added.Close()
			return err
		}
		m.mu.Lock()
		m.subs = append(m.subs, added, attrs)
		m.mu.Unlock()
	}

	n := m.Init()
	logger.With("binding").Debug().Int("bound", n).Str("grammar", m.opts.Grammar.Selector()).Msg("started")
	return nil
}

func (m *Manager) onNodes(mut observer.Mutation) {
	if mut.Kind == observer.RemovedNodes {
		m.mu.Lock()
		delete(m.bound, mut.Target)
		delete(m.inflight, mut.Target)
		m.mu.Unlock()
		return
	}
	m.Init(mut.Target)
}

// Init binds triggers and returns how many were newly bound. Without
// arguments it scans the whole document; otherwise it binds the given
// elements that declare a recognized attribute. Binding an element twice
// leaves it with one listener.
func (m *Manager) Init(elements ...*dom.Element) int {
	if len(elements) == 0 {
		list, err := m.doc.QuerySelectorAll(m.opts.Grammar.Selector())
		if err != nil {
			logger.With("binding").Warn().Err(err).Msg("initial scan failed")
			return 0
		}
		elements = dom.Collect(list)
	}

	n := 0
	for _, el := range elements {
		if el == nil || !m.opts.Grammar.Declares(el) {
			continue
		}
		if m.bind(el) {
			n++
		}
	}
	return n
}

func (m *Manager) bind(el *dom.Element) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bound[el]; ok {
		return false
	}
	m.bound[el] = el.AddEventListener(dom.EventClick, func(ctx context.Context, _ dom.Event) {
		m.onClick(ctx, el)
	})
	return true
}

// Bound reports whether el has a clipboard listener.
func (m *Manager) Bound(el *dom.Element) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bound[el]
	return ok
}

// Owned reports whether the action registry runs the copy for el.
func (m *Manager) Owned(el *dom.Element) bool {
	v, ok := el.GetAttribute(m.opts.ActionsAttribute)
	return ok && actions.ParseSet(v).Has(m.opts.ActionName)
}

func (m *Manager) onClick(ctx context.Context, el *dom.Element) {
	if !el.IsConnected() || !m.opts.Grammar.Declares(el) {
		return
	}
	if m.Owned(el) {
		return
	}
	m.QueryClipboardElement(ctx, el)
}

// Resolve returns the targets trigger would copy right now.
func (m *Manager) Resolve(trigger *dom.Element) []*dom.Element {
	return m.resolver.Resolve(trigger)
}

// QueryClipboardElement resolves trigger's targets and copies them. A call
// for a trigger whose previous copy has not finished is ignored.
func (m *Manager) QueryClipboardElement(ctx context.Context, trigger *dom.Element) bool {
	m.mu.Lock()
	if m.inflight[trigger] {
		m.mu.Unlock()
		m.opts.Sink.Report(diagnostics.Stamp(diagnostics.Diagnostic{
			Kind:    diagnostics.KindBusy,
			Trigger: trigger.String(),
			Message: "copy already in progress",
		}))
		return false
	}
	m.inflight[trigger] = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.inflight, trigger)
		m.mu.Unlock()
	}()

	return m.copy(ctx, trigger, m.resolver.Resolve(trigger))
}

// Clipboard builds and writes the given elements without resolution.
func (m *Manager) Clipboard(ctx context.Context, elements dom.ElementList) bool {
	targets := dom.Collect(elements)
	if len(targets) == 0 {
		return false
	}
	return m.copy(ctx, nil, targets)
}

func (m *Manager) copy(ctx context.Context, trigger *dom.Element, targets []*dom.Element) bool {
	p, err := m.builder.Build(ctx, targets)
	if err != nil {
		logger.With("binding").Debug().Err(err).Str("trigger", trigger.String()).Msg("copy abandoned")
		return false
	}
	return m.writer.Write(ctx, trigger, p)
}

// Close removes every listener the manager attached and ends its
// subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	subs := m.subs
	m.subs = nil
	bound := m.bound
	m.bound = make(map[*dom.Element]dom.ListenerID)
	m.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
	for el, id := range bound {
		el.RemoveEventListener(id)
	}
}
