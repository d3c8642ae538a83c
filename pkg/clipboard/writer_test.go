package clipboard

import (
	"context"
	"errors"
	"testing"

	"clipctl/pkg/diagnostics"
	"clipctl/pkg/dom"
	"clipctl/pkg/payload"
)

const page = `<html><body><div id="wrap"><button id="t">copy</button></div></body></html>`

type fixture struct {
	doc     *dom.Document
	trigger *dom.Element
	mem     *Memory
	rec     *diagnostics.Recorder
	docEv   []dom.Event
	wrapEv  []dom.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	doc, err := dom.ParseString(page)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	f := &fixture{doc: doc, mem: NewMemory(), rec: &diagnostics.Recorder{}}
	f.trigger, _ = doc.QuerySelector("#t")
	wrap, _ := doc.QuerySelector("#wrap")

	doc.AddEventListener(EventClipboarded, func(ctx context.Context, ev dom.Event) {
		f.docEv = append(f.docEv, ev)
	})
	wrap.AddEventListener(EventClipboarded, func(ctx context.Context, ev dom.Event) {
		f.wrapEv = append(f.wrapEv, ev)
	})
	return f
}

func (f *fixture) writer(target DispatchTarget) *Writer {
	return NewWriter(f.doc, f.mem, WriterOptions{DispatchTarget: target, Sink: f.rec})
}

func TestWriteLegacyDispatchesOnDocument(t *testing.T) {
	f := newFixture(t)
	w := f.writer(DispatchDocument)

	ok := w.Write(context.Background(), f.trigger, payload.Payload{Mode: payload.ModeLegacy, Content: "a\nb"})
	if !ok {
		t.Fatal("Write() = false, want true")
	}
	if f.mem.Text() != "a\nb" {
		t.Errorf("clipboard = %q, want %q", f.mem.Text(), "a\nb")
	}
	if len(f.docEv) != 1 {
		t.Fatalf("document events = %d, want 1", len(f.docEv))
	}
	if len(f.wrapEv) != 0 {
		t.Errorf("document dispatch reached an element listener")
	}
	c, ok := f.docEv[0].Detail.(Completion)
	if !ok {
		t.Fatalf("Detail = %T, want Completion", f.docEv[0].Detail)
	}
	if c.Content != "a\nb" || c.Trigger != f.trigger || c.Mode != payload.ModeLegacy {
		t.Errorf("Completion = %+v", c)
	}
	if f.rec.Count(diagnostics.KindCopied) != 1 {
		t.Errorf("copied diagnostics = %d, want 1", f.rec.Count(diagnostics.KindCopied))
	}
}

func TestWriteRichDispatchesOnTrigger(t *testing.T) {
	f := newFixture(t)
	w := f.writer(DispatchTrigger)
	items := []payload.Item{textItem(t, "x")}

	if !w.Write(context.Background(), f.trigger, payload.Payload{Mode: payload.ModeRich, Items: items}) {
		t.Fatal("Write() = false, want true")
	}
	if len(f.wrapEv) != 1 || len(f.docEv) != 1 {
		t.Fatalf("events wrap=%d doc=%d, want 1 and 1 (bubbling)", len(f.wrapEv), len(f.docEv))
	}
	if f.wrapEv[0].Target != f.trigger {
		t.Errorf("Target = %v, want trigger", f.wrapEv[0].Target)
	}
	c := f.wrapEv[0].Detail.(Completion)
	if len(c.Items) != 1 {
		t.Errorf("Items = %d, want 1", len(c.Items))
	}
	rec := f.mem.Records()[0]
	if rec.Mode != payload.ModeRich || string(rec.Formats[payload.MediaTypeHTML]) != "x" {
		t.Errorf("record = %+v", rec)
	}
}

func TestWriteTriggerTargetWithoutTriggerUsesDocument(t *testing.T) {
	f := newFixture(t)
	w := f.writer(DispatchTrigger)

	w.Write(context.Background(), nil, payload.Payload{Mode: payload.ModeLegacy, Content: "x"})
	if len(f.docEv) != 1 || len(f.wrapEv) != 0 {
		t.Errorf("events doc=%d wrap=%d, want 1 and 0", len(f.docEv), len(f.wrapEv))
	}
}

func TestWriteFailureWithholdsEvent(t *testing.T) {
	f := newFixture(t)
	f.mem.SetFailure(errors.New("permission denied"))
	w := f.writer(DispatchDocument)

	if w.Write(context.Background(), f.trigger, payload.Payload{Mode: payload.ModeLegacy, Content: "x"}) {
		t.Error("Write() = true, want false")
	}
	if len(f.docEv) != 0 {
		t.Errorf("completion dispatched after failed write")
	}
	if f.rec.Count(diagnostics.KindWriteFailed) != 1 {
		t.Errorf("write_failed = %d, want 1", f.rec.Count(diagnostics.KindWriteFailed))
	}
}

type panicBackend struct{}

func (panicBackend) WriteText(ctx context.Context, text string) error { panic("boom") }
func (panicBackend) WriteItems(ctx context.Context, items []payload.Item) error {
	panic("boom")
}

func TestWriteRecoversBackendPanic(t *testing.T) {
	f := newFixture(t)
	w := NewWriter(f.doc, panicBackend{}, WriterOptions{Sink: f.rec})

	if w.Write(context.Background(), f.trigger, payload.Payload{Mode: payload.ModeLegacy, Content: "x"}) {
		t.Error("Write() = true, want false")
	}
	if f.rec.Count(diagnostics.KindWriteFailed) != 1 {
		t.Errorf("write_failed = %d, want 1", f.rec.Count(diagnostics.KindWriteFailed))
	}
}

func TestWriteEmptyPayloadSkipsBackend(t *testing.T) {
	f := newFixture(t)
	w := f.writer(DispatchDocument)

	for _, p := range []payload.Payload{
		{Mode: payload.ModeRich},
		{Mode: payload.ModeLegacy},
	} {
		if w.Write(context.Background(), f.trigger, p) {
			t.Errorf("Write(%s) = true, want false", p.Mode)
		}
	}
	if f.mem.Len() != 0 {
		t.Errorf("backend writes = %d, want 0", f.mem.Len())
	}
	if f.rec.Count(diagnostics.KindEmptyPayload) != 2 {
		t.Errorf("empty_payload = %d, want 2", f.rec.Count(diagnostics.KindEmptyPayload))
	}
	if len(f.docEv) != 0 {
		t.Error("completion dispatched for empty payload")
	}
}

func TestWriteCustomEventName(t *testing.T) {
	f := newFixture(t)
	var got int
	f.doc.AddEventListener("copied", func(ctx context.Context, ev dom.Event) { got++ })
	w := NewWriter(f.doc, f.mem, WriterOptions{EventName: "copied"})

	w.Write(context.Background(), nil, payload.Payload{Mode: payload.ModeLegacy, Content: "x"})
	if got != 1 || len(f.docEv) != 0 {
		t.Errorf("custom=%d default=%d, want 1 and 0", got, len(f.docEv))
	}
	if w.EventName() != "copied" {
		t.Errorf("EventName() = %q", w.EventName())
	}
}

func TestMemoryHonorsContext(t *testing.T) {
	mem := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := mem.WriteText(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("WriteText() error = %v, want context.Canceled", err)
	}
}
