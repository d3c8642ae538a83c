package observer

import (
	"testing"

	"clipctl/pkg/dom"
)

const page = `<html><body><div id="root"><p id="x" data-copy="1">x</p></div></body></html>`

func setup(t *testing.T) (*dom.Document, *dom.Element) {
	t.Helper()
	doc, err := dom.ParseString(page)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	root, _ := doc.QuerySelector("#root")
	return doc, root
}

type collector struct {
	got []Mutation
}

func (c *collector) fn(m Mutation) { c.got = append(c.got, m) }

func (c *collector) ids() []string {
	out := make([]string, len(c.got))
	for i, m := range c.got {
		out[i], _ = m.Target.GetAttribute("id")
	}
	return out
}

func TestRegisterValidates(t *testing.T) {
	doc, _ := setup(t)
	svc := New(doc)
	noop := func(Mutation) {}

	tests := []struct {
		name string
		reg  Registration
	}{
		{"no callback", Registration{Name: "a", Observe: []Kind{AddedNodes}}},
		{"no kinds", Registration{Name: "b", Callback: noop}},
		{"bad kind", Registration{Name: "c", Observe: []Kind{"characterData"}, Callback: noop}},
		{"bad selector", Registration{Name: "d", Observe: []Kind{AddedNodes}, Selector: "[", Callback: noop}},
	}
	for _, tt := range tests {
		if _, err := svc.Register(tt.reg); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
	if len(svc.Names()) != 0 {
		t.Errorf("Names() = %v, want none", svc.Names())
	}
}

func TestAddedNodesMatchSubtree(t *testing.T) {
	doc, root := setup(t)
	c := &collector{}
	if _, err := New(doc).Register(Registration{
		Name:     "added",
		Observe:  []Kind{AddedNodes},
		Selector: "[data-copy]",
		Callback: c.fn,
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := root.AppendHTML(`<section id="s" data-copy><span id="a" data-copy></span><span id="b"></span></section><i id="c"></i>`); err != nil {
		t.Fatalf("AppendHTML() error = %v", err)
	}

	got := c.ids()
	if len(got) != 2 || got[0] != "s" || got[1] != "a" {
		t.Errorf("delivered = %v, want [s a]", got)
	}
	for _, m := range c.got {
		if m.Kind != AddedNodes {
			t.Errorf("Kind = %q, want addedNodes", m.Kind)
		}
	}
}

func TestAddedNodesWithoutSelector(t *testing.T) {
	doc, root := setup(t)
	c := &collector{}
	New(doc).Register(Registration{Name: "all", Observe: []Kind{AddedNodes}, Callback: c.fn})

	root.AppendHTML(`<p id="a"><b id="inner"></b></p><p id="b"></p>`)
	if got := c.ids(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("delivered = %v, want [a b]", got)
	}
}

func TestRemovedNodesCarryKnownWrappers(t *testing.T) {
	doc, root := setup(t)
	x, _ := doc.QuerySelector("#x")
	c := &collector{}
	New(doc).Register(Registration{
		Name:     "removed",
		Observe:  []Kind{RemovedNodes},
		Selector: "[data-copy]",
		Callback: c.fn,
	})

	root.Remove()

	if len(c.got) != 1 {
		t.Fatalf("delivered = %v, want [x]", c.ids())
	}
	if c.got[0].Target != x {
		t.Error("removed delivery is not the wrapper handed out before removal")
	}
}

func TestAttributesFilter(t *testing.T) {
	doc, _ := setup(t)
	x, _ := doc.QuerySelector("#x")
	c := &collector{}
	New(doc).Register(Registration{
		Name:           "attrs",
		Observe:        []Kind{Attributes},
		Selector:       "[data-copy]",
		AttributeNames: []string{"data-copy", "data-mode"},
		Callback:       c.fn,
	})

	x.SetAttribute("data-copy", "2")
	x.SetAttribute("title", "ignored")
	x.SetAttribute("data-mode", "rich")
	x.RemoveAttribute("data-copy")
	x.SetAttribute("data-mode", "legacy")

	if len(c.got) != 2 {
		t.Fatalf("deliveries = %d, want 2: %+v", len(c.got), c.got)
	}
	if c.got[0].AttributeName != "data-copy" || c.got[0].OldValue != "1" {
		t.Errorf("first = %+v", c.got[0])
	}
	if c.got[1].AttributeName != "data-mode" {
		t.Errorf("second = %+v", c.got[1])
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	doc, root := setup(t)
	svc := New(doc)
	c := &collector{}
	sub, _ := svc.Register(Registration{Name: "one", Observe: []Kind{AddedNodes}, Callback: c.fn})
	svc.Register(Registration{Name: "two", Observe: []Kind{AddedNodes}, Callback: c.fn})

	if names := svc.Names(); len(names) != 2 || names[0] != "one" {
		t.Errorf("Names() = %v", names)
	}

	sub.Close()
	sub.Close()
	root.AppendHTML(`<p></p>`)
	if len(c.got) != 1 {
		t.Errorf("deliveries after closing one = %d, want 1", len(c.got))
	}

	svc.Close()
	root.AppendHTML(`<p></p>`)
	if len(c.got) != 1 {
		t.Errorf("deliveries after Close = %d, want 1", len(c.got))
	}
	if len(svc.Names()) != 0 {
		t.Errorf("Names() after Close = %v", svc.Names())
	}
}
