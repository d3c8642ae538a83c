package dom

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Element wraps an element node. A document hands out exactly one *Element
// per node, so pointers can be compared and used as map keys.
type Element struct {
	doc  *Document
	node *html.Node
}

func (e *Element) Document() *Document { return e.doc }

// Node exposes the underlying html node. Mutating it directly bypasses
// mutation records.
func (e *Element) Node() *html.Node { return e.node }

func (e *Element) TagName() string { return e.node.Data }

func (e *Element) GetAttribute(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return getAttr(e.node, name)
}

func (e *Element) HasAttribute(name string) bool {
	_, ok := e.GetAttribute(name)
	return ok
}

func (e *Element) Attributes() []html.Attribute {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	out := make([]html.Attribute, len(e.node.Attr))
	copy(out, e.node.Attr)
	return out
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttribute sets name to value and records an attribute mutation.
func (e *Element) SetAttribute(name, value string) {
	e.doc.mu.Lock()
	old, _ := getAttr(e.node, name)
	replaced := false
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr[i].Val = value
			replaced = true
			break
		}
	}
	if !replaced {
		e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
	}
	e.doc.mu.Unlock()

	e.doc.notify(MutationRecord{Kind: MutationAttributes, Target: e, AttributeName: name, OldValue: old})
}

func (e *Element) RemoveAttribute(name string) {
	e.doc.mu.Lock()
	old, ok := getAttr(e.node, name)
	if ok {
		attrs := e.node.Attr[:0]
		for _, a := range e.node.Attr {
			if a.Namespace == "" && a.Key == name {
				continue
			}
			attrs = append(attrs, a)
		}
		e.node.Attr = attrs
	}
	e.doc.mu.Unlock()

	if ok {
		e.doc.notify(MutationRecord{Kind: MutationAttributes, Target: e, AttributeName: name, OldValue: old})
	}
}

// Parent returns the parent element, or nil at the top of the tree.
func (e *Element) Parent() *Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.doc.wrap(e.node.Parent)
}

func (e *Element) NextElementSibling() *Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for s := e.node.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return e.doc.wrap(s)
		}
	}
	return nil
}

func (e *Element) PreviousElementSibling() *Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for s := e.node.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return e.doc.wrap(s)
		}
	}
	return nil
}

func (e *Element) Children() []*Element {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// IsConnected reports whether the element is still attached to its document.
func (e *Element) IsConnected() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

func (e *Element) Matches(sel string) (bool, error) {
	s, err := compile(sel)
	if err != nil {
		return false, err
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return s.Match(e.node), nil
}

// Closest returns the nearest inclusive ancestor matching sel.
func (e *Element) Closest(sel string) (*Element, error) {
	s, err := compile(sel)
	if err != nil {
		return nil, err
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for n := e.node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && s.Match(n) {
			return e.doc.wrap(n), nil
		}
	}
	return nil, nil
}

// QuerySelectorAll matches descendants of e, never e itself.
func (e *Element) QuerySelectorAll(sel string) (NodeList, error) {
	s, err := compile(sel)
	if err != nil {
		return NodeList{}, err
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.doc.snapshot(s.MatchAll(e.node), e.node), nil
}

func (e *Element) QuerySelector(sel string) (*Element, error) {
	list, err := e.QuerySelectorAll(sel)
	if err != nil || list.Len() == 0 {
		return nil, err
	}
	return list.At(0), nil
}

// InnerHTML renders the element's children.
func (e *Element) InnerHTML() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var buf bytes.Buffer
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

func (e *Element) OuterHTML() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var buf bytes.Buffer
	_ = html.Render(&buf, e.node)
	return buf.String()
}

func (e *Element) TextContent() string {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var sb strings.Builder
	walk(e.node, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		return true
	})
	return sb.String()
}

// AppendHTML parses fragment in the context of e, appends the resulting
// nodes and records one child-list mutation listing the added elements.
func (e *Element) AppendHTML(fragment string) ([]*Element, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), e.node)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}

	e.doc.mu.Lock()
	var added []*Element
	for _, n := range nodes {
		e.node.AppendChild(n)
		if el := e.doc.wrap(n); el != nil {
			added = append(added, el)
		}
	}
	e.doc.mu.Unlock()

	if len(added) > 0 {
		e.doc.notify(MutationRecord{Kind: MutationChildList, Target: e, AddedNodes: added})
	}
	return added, nil
}

// ReplaceChildren swaps every child of e for the parsed fragment as a
// single child-list mutation.
func (e *Element) ReplaceChildren(fragment string) ([]*Element, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), e.node)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}

	e.doc.mu.Lock()
	var removed, added, detached []*Element
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			removed = append(removed, e.doc.wrap(c))
		}
		e.node.RemoveChild(c)
		detached = append(detached, e.doc.forget(c)...)
		c = next
	}
	for _, n := range nodes {
		e.node.AppendChild(n)
		if el := e.doc.wrap(n); el != nil {
			added = append(added, el)
		}
	}
	e.doc.mu.Unlock()

	e.doc.notify(MutationRecord{
		Kind:         MutationChildList,
		Target:       e,
		AddedNodes:   added,
		RemovedNodes: removed,
		Detached:     detached,
	})
	return added, nil
}

// Remove detaches e from its parent. Listeners on the removed subtree are
// dropped with it.
func (e *Element) Remove() {
	e.doc.mu.Lock()
	parent := e.node.Parent
	if parent == nil {
		e.doc.mu.Unlock()
		return
	}
	target := e.doc.wrap(parent)
	parent.RemoveChild(e.node)
	detached := e.doc.forget(e.node)
	e.doc.mu.Unlock()

	e.doc.notify(MutationRecord{
		Kind:         MutationChildList,
		Target:       target,
		RemovedNodes: []*Element{e},
		Detached:     detached,
	})
}

func (e *Element) AddEventListener(typ string, fn Listener) ListenerID {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return e.doc.addListener(e.node, typ, fn)
}

func (e *Element) RemoveEventListener(id ListenerID) bool {
	return e.doc.RemoveEventListener(id)
}

// Dispatch fires ev at e and bubbles it through its ancestors to the
// document.
func (e *Element) Dispatch(ctx context.Context, ev Event) {
	ev.Target = e
	e.doc.mu.Lock()
	entries := e.doc.propagationPath(e.node, ev.Type)
	e.doc.mu.Unlock()
	for _, l := range entries {
		l.fn(ctx, ev)
	}
}

func (e *Element) Click(ctx context.Context) {
	e.Dispatch(ctx, Event{Type: EventClick})
}

// String describes the element as tag#id.class1.class2.
func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var sb strings.Builder
	sb.WriteString(e.node.Data)
	if id, ok := getAttr(e.node, "id"); ok && id != "" {
		sb.WriteString("#" + id)
	}
	if class, ok := getAttr(e.node, "class"); ok {
		for _, c := range strings.Fields(class) {
			sb.WriteString("." + c)
		}
	}
	return sb.String()
}
