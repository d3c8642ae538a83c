// Package dom is a small live document model over golang.org/x/net/html.
//
// It provides what clipboard bindings need from a browser document: CSS
// queries, one stable *Element per node, event listeners with bubbling to
// the document, and mutation records for inserted/removed nodes and
// attribute changes. Listeners and observers always run outside the
// document lock, so they may freely query or mutate the document.
package dom

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

type Document struct {
	mu        sync.Mutex
	root      *html.Node
	wrappers  map[*html.Node]*Element
	listeners map[*html.Node][]listenerEntry
	nextID    ListenerID
	observers map[int]func(MutationRecord)
	nextObs   int
}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return newDocument(root), nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func newDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		wrappers:  make(map[*html.Node]*Element),
		listeners: make(map[*html.Node][]listenerEntry),
		observers: make(map[int]func(MutationRecord)),
	}
}

// wrap returns the stable wrapper for n. Caller holds d.mu.
func (d *Document) wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if el, ok := d.wrappers[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	d.wrappers[n] = el
	return el
}

// Element returns the wrapper for an element node of this document.
func (d *Document) Element(n *html.Node) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap(n)
}

func (d *Document) DocumentElement() *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return d.wrap(c)
		}
	}
	return nil
}

func (d *Document) Body() *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "body" {
			found = n
			return false
		}
		return true
	})
	return d.wrap(found)
}

// QuerySelectorAll returns a static snapshot of every element matching sel,
// in document order.
func (d *Document) QuerySelectorAll(sel string) (NodeList, error) {
	s, err := compile(sel)
	if err != nil {
		return NodeList{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot(s.MatchAll(d.root), nil), nil
}

func (d *Document) QuerySelector(sel string) (*Element, error) {
	s, err := compile(sel)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap(s.MatchFirst(d.root)), nil
}

// Live returns a collection that re-runs sel against the whole document on
// every access.
func (d *Document) Live(sel string) *LiveList {
	return &LiveList{doc: d, selector: sel}
}

// snapshot wraps matches, dropping exclude. Caller holds d.mu.
func (d *Document) snapshot(nodes []*html.Node, exclude *html.Node) NodeList {
	items := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if n == exclude {
			continue
		}
		if el := d.wrap(n); el != nil {
			items = append(items, el)
		}
	}
	return NodeList{items: items}
}

// Render writes the current document tree as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// forget drops wrappers and listeners of a detached subtree. Caller holds d.mu.
func (d *Document) forget(n *html.Node) []*Element {
	var removed []*Element
	walk(n, func(c *html.Node) bool {
		if el, ok := d.wrappers[c]; ok {
			removed = append(removed, el)
			delete(d.wrappers, c)
		}
		delete(d.listeners, c)
		return true
	})
	return removed
}

// walk visits n and its descendants depth-first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// Dispatch fires ev on the document itself. Only document-level listeners run.
func (d *Document) Dispatch(ctx context.Context, ev Event) {
	ev.Target = nil
	d.mu.Lock()
	entries := d.matching(d.root, ev.Type)
	d.mu.Unlock()
	for _, e := range entries {
		e.fn(ctx, ev)
	}
}

// AddEventListener registers a document-level listener. Events dispatched on
// connected elements bubble up to it.
func (d *Document) AddEventListener(typ string, fn Listener) ListenerID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addListener(d.root, typ, fn)
}

func (d *Document) RemoveEventListener(id ListenerID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removeListener(id)
}

// ListenerCount reports how many listeners of typ are attached directly to el.
func (d *Document) ListenerCount(el *Element, typ string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.matching(el.node, typ))
}
