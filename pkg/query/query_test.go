package query

import (
	"testing"

	"clipctl/pkg/dom"
)

const page = `<html><body>
<section class="card" id="c1">
  <span class="label" id="label">Label</span>
  <button id="b-closest" clipboard-closest=".card">x</button>
  <pre id="code">code</pre>
  <button id="b-parent" clipboard-parent="pre">x</button>
  <button id="b-next" clipboard-next="">x</button>
  <div id="next-box"><pre id="inner">inner</pre></div>
  <button id="b-query" clipboard-query="$closest(.card) pre; .snippet">x</button>
</section>
<pre class="snippet" id="s1">one</pre>
<pre class="snippet" id="s2">two</pre>
<button id="b-selector" clipboard-selector=".snippet">x</button>
<button id="b-prev" clipboard-previous="">x</button>
<button id="b-miss" clipboard-selector=".nothing">x</button>
<button id="b-combined" clipboard-selector="#s2" clipboard-previous="">x</button>
<button id="b-plain">x</button>
</body></html>`

func setup(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(page)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	return doc
}

func ids(els []*dom.Element) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i], _ = el.GetAttribute("id")
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestServiceResolve(t *testing.T) {
	doc := setup(t)
	svc := NewService()

	tests := []struct {
		trigger string
		wantOK  bool
		want    []string
	}{
		{"#b-closest", true, []string{"c1"}},
		{"#b-parent", true, []string{"code", "inner"}},
		{"#b-next", true, []string{"next-box"}},
		{"#b-selector", true, []string{"s1", "s2"}},
		{"#b-prev", true, []string{"b-selector"}},
		{"#b-miss", false, nil},
		{"#b-combined", true, []string{"s2", "b-miss"}},
		{"#b-query", true, []string{"code", "inner", "s1", "s2"}},
		{"#b-plain", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.trigger, func(t *testing.T) {
			el, _ := doc.QuerySelector(tt.trigger)
			list, ok := svc.Resolve(el, "clipboard")
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			got := ids(dom.Collect(list))
			if !equal(got, tt.want) {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServiceResolveDeduplicates(t *testing.T) {
	doc, err := dom.ParseString(`<html><body>
<pre class="a b" id="p">x</pre>
<button id="t" clipboard-query=".a; .b; #p">go</button>
</body></html>`)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	el, _ := doc.QuerySelector("#t")

	list, ok := NewService().Resolve(el, "clipboard")
	if !ok {
		t.Fatal("Resolve() ok = false")
	}
	if list.Len() != 1 {
		t.Errorf("Len() = %d, want 1", list.Len())
	}
}

func TestServiceResolveSkipsInvalidSelector(t *testing.T) {
	doc, err := dom.ParseString(`<html><body>
<pre id="p">x</pre>
<button id="t" clipboard-selector="div[" clipboard-query="#p">go</button>
</body></html>`)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	el, _ := doc.QuerySelector("#t")

	list, ok := NewService().Resolve(el, "clipboard")
	if !ok || list.Len() != 1 {
		t.Fatalf("Resolve() = %v, %v; want the #p match only", list, ok)
	}
}

func TestServiceResolveSkipsMalformedQueryStep(t *testing.T) {
	doc, err := dom.ParseString(`<html><body>
<pre id="p">x</pre>
<pre id="q">y</pre>
<button id="t" clipboard-query="#p; $sibling; #q">go</button>
</body></html>`)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	el, _ := doc.QuerySelector("#t")

	list, ok := NewService().Resolve(el, "clipboard")
	if !ok {
		t.Fatal("Resolve() ok = false")
	}
	if got := ids(dom.Collect(list)); !equal(got, []string{"p", "q"}) {
		t.Errorf("Resolve() = %v, want [p q]", got)
	}
}

func TestParseSteps(t *testing.T) {
	tests := []struct {
		value   string
		want    []Step
		wantErr bool
	}{
		{value: ".a", want: []Step{{Selector: ".a"}}},
		{value: "$parent", want: []Step{{Anchor: OpParent}}},
		{value: "$next pre.code", want: []Step{{Anchor: OpNext, Selector: "pre.code"}}},
		{value: "$closest(.card) .value", want: []Step{{Anchor: OpClosest, Arg: ".card", Selector: ".value"}}},
		{value: "$closest(div:not(.x))", want: []Step{{Anchor: OpClosest, Arg: "div:not(.x)"}}},
		{value: " .a ; ; $previous ", want: []Step{{Selector: ".a"}, {Anchor: OpPrevious}}},
		{value: "", want: nil},
		{value: "$closest .card", wantErr: true},
		{value: "$closest()", wantErr: true},
		{value: "$closest(.card", wantErr: true},
		{value: "$sibling", wantErr: true},
		{value: ".a; $sibling; $closest(; $parent", want: []Step{{Selector: ".a"}, {Anchor: OpParent}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseSteps(tt.value)
			if tt.wantErr && err == nil {
				t.Errorf("ParseSteps(%q) expected error, got %v", tt.value, got)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("ParseSteps(%q) unexpected error: %v", tt.value, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSteps(%q) = %v, want %v", tt.value, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("step %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStepString(t *testing.T) {
	s := Step{Anchor: OpClosest, Arg: ".card", Selector: "pre"}
	if s.String() != "$closest(.card) pre" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestGrammar(t *testing.T) {
	multi := Grammar{Prefix: "clipboard", Variant: VariantMulti}
	want := "[clipboard-selector], [clipboard-closest], [clipboard-parent], [clipboard-next], [clipboard-previous]"
	if multi.Selector() != want {
		t.Errorf("Selector() = %q, want %q", multi.Selector(), want)
	}

	unified := Grammar{Prefix: "copy", Variant: VariantQuery}
	if unified.Selector() != "[copy-query]" {
		t.Errorf("Selector() = %q", unified.Selector())
	}
	if unified.ValueTypeAttr() != "copy-value-type" {
		t.Errorf("ValueTypeAttr() = %q", unified.ValueTypeAttr())
	}

	doc := setup(t)
	next, _ := doc.QuerySelector("#b-next")
	if !multi.Declares(next) {
		t.Error("multi grammar should recognize clipboard-next")
	}
	if unified.Declares(next) {
		t.Error("unified grammar should not recognize clipboard-next")
	}
	combined, _ := doc.QuerySelector("#b-combined")
	if got := multi.Declared(combined); len(got) != 2 || got[0][0] != "clipboard-selector" {
		t.Errorf("Declared() = %v", got)
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"", VariantMulti, false},
		{"multi", VariantMulti, false},
		{" Query ", VariantQuery, false},
		{"xpath", "", true},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseVariant(%q) = %q, %v", tt.in, got, err)
		}
	}
}
