package dom

import (
	"context"

	"golang.org/x/net/html"
)

const EventClick = "click"

// Event is delivered to listeners. Target is nil for events dispatched on
// the document itself.
type Event struct {
	Type   string
	Target *Element
	Detail any
}

type Listener func(ctx context.Context, ev Event)

type ListenerID uint64

type listenerEntry struct {
	id  ListenerID
	typ string
	fn  Listener
}

// addListener attaches fn to n. Caller holds d.mu.
func (d *Document) addListener(n *html.Node, typ string, fn Listener) ListenerID {
	d.nextID++
	d.listeners[n] = append(d.listeners[n], listenerEntry{id: d.nextID, typ: typ, fn: fn})
	return d.nextID
}

// removeListener detaches the listener with the given id. Caller holds d.mu.
func (d *Document) removeListener(id ListenerID) bool {
	for n, entries := range d.listeners {
		for i, e := range entries {
			if e.id != id {
				continue
			}
			entries = append(entries[:i:i], entries[i+1:]...)
			if len(entries) == 0 {
				delete(d.listeners, n)
			} else {
				d.listeners[n] = entries
			}
			return true
		}
	}
	return false
}

// matching copies the listeners of typ attached to n. Caller holds d.mu.
func (d *Document) matching(n *html.Node, typ string) []listenerEntry {
	var out []listenerEntry
	for _, e := range d.listeners[n] {
		if e.typ == typ {
			out = append(out, e)
		}
	}
	return out
}

// propagationPath collects listeners from n up to the document root.
// Caller holds d.mu.
func (d *Document) propagationPath(n *html.Node, typ string) []listenerEntry {
	var out []listenerEntry
	for c := n; c != nil; c = c.Parent {
		out = append(out, d.matching(c, typ)...)
	}
	return out
}
