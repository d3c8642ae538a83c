package target

import (
	"testing"

	"clipctl/pkg/dom"
	"clipctl/pkg/query"
)

const page = `<html><body>
<ul id="list"><li>one</li><li>two</li></ul>
<button id="plain">copy</button>
<button id="sel" clipboard-selector="li">copy</button>
<button id="miss" clipboard-selector=".none">copy</button>
<button id="unified" clipboard-query="li">copy</button>
</body></html>`

var multi = query.Grammar{Prefix: "clipboard", Variant: query.VariantMulti}

func setup(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(page)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	return doc
}

func byID(t *testing.T, doc *dom.Document, id string) *dom.Element {
	t.Helper()
	el, err := doc.QuerySelector("#" + id)
	if err != nil || el == nil {
		t.Fatalf("element #%s not found", id)
	}
	return el
}

// stubService returns a fixed answer and counts calls.
type stubService struct {
	list  dom.ElementList
	ok    bool
	calls int
}

func (s *stubService) Resolve(el *dom.Element, prefix string) (dom.ElementList, bool) {
	s.calls++
	return s.list, s.ok
}

func TestResolveFallsBackToTrigger(t *testing.T) {
	doc := setup(t)
	r := NewResolver(multi, nil)

	for _, id := range []string{"plain", "miss", "unified"} {
		trigger := byID(t, doc, id)
		got := r.Resolve(trigger)
		if len(got) != 1 || got[0] != trigger {
			t.Errorf("Resolve(#%s) = %v, want [trigger]", id, got)
		}
	}
}

func TestResolveSkipsServiceWithoutAttributes(t *testing.T) {
	doc := setup(t)
	svc := &stubService{}
	r := NewResolver(multi, svc)

	r.Resolve(byID(t, doc, "plain"))
	if svc.calls != 0 {
		t.Errorf("service calls = %d, want 0", svc.calls)
	}
}

func TestResolveUsesGrammarVariant(t *testing.T) {
	doc := setup(t)
	r := NewResolver(query.Grammar{Prefix: "clipboard", Variant: query.VariantQuery}, nil)

	got := r.Resolve(byID(t, doc, "unified"))
	if len(got) != 2 || got[0].TextContent() != "one" {
		t.Errorf("Resolve(#unified) = %v, want both li", got)
	}
}

func TestResolveNormalizesShapes(t *testing.T) {
	doc := setup(t)
	trigger := byID(t, doc, "sel")
	list := byID(t, doc, "list")
	items := dom.Collect(list.Live("li"))

	tests := []struct {
		name string
		list dom.ElementList
		ok   bool
		want int
	}{
		{"live", list.Live("li"), true, 2},
		{"static", dom.NewNodeList(items...), true, 2},
		{"plain", dom.Elements(items[:1]), true, 1},
		{"empty but ok", dom.Elements{}, true, 0},
		{"sentinel", nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(multi, &stubService{list: tt.list, ok: tt.ok})
			got := r.Resolve(trigger)
			if tt.want == 0 {
				if len(got) != 1 || got[0] != trigger {
					t.Errorf("Resolve() = %v, want [trigger]", got)
				}
				return
			}
			if len(got) != tt.want {
				t.Errorf("len(Resolve()) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestResolveSeesLiveChanges(t *testing.T) {
	doc := setup(t)
	trigger := byID(t, doc, "sel")
	list := byID(t, doc, "list")
	r := NewResolver(multi, &stubService{list: list.Live("li"), ok: true})

	if _, err := list.AppendHTML("<li>three</li>"); err != nil {
		t.Fatalf("AppendHTML() error = %v", err)
	}
	if got := r.Resolve(trigger); len(got) != 3 {
		t.Errorf("len(Resolve()) = %d, want 3", len(got))
	}
}

func TestResolveReadsAttributesFresh(t *testing.T) {
	doc := setup(t)
	trigger := byID(t, doc, "plain")
	r := NewResolver(multi, nil)

	trigger.SetAttribute("clipboard-selector", "li")
	if got := r.Resolve(trigger); len(got) != 2 {
		t.Errorf("after SetAttribute len = %d, want 2", len(got))
	}
	trigger.SetAttribute("clipboard-selector", "#list")
	if got := r.Resolve(trigger); len(got) != 1 || got[0].TagName() != "ul" {
		t.Errorf("after change = %v, want [ul#list]", got)
	}
}
