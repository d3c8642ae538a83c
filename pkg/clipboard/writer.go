package clipboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"clipctl/pkg/diagnostics"
	"clipctl/pkg/dom"
	"clipctl/pkg/payload"
)

// DispatchTarget chooses where the completion event is dispatched.
type DispatchTarget string

const (
	DispatchDocument DispatchTarget = "document"
	DispatchTrigger  DispatchTarget = "trigger"
)

func ParseDispatchTarget(s string) (DispatchTarget, error) {
	switch DispatchTarget(strings.ToLower(strings.TrimSpace(s))) {
	case DispatchDocument, "":
		return DispatchDocument, nil
	case DispatchTrigger:
		return DispatchTrigger, nil
	default:
		return "", fmt.Errorf("unknown dispatch target %q (expected document or trigger)", s)
	}
}

// Completion is the detail of the completion event. Content is set for
// legacy payloads, Items for rich ones. Trigger is nil for programmatic
// copies.
type Completion struct {
	Mode    payload.Mode
	Content string
	Items   []payload.Item
	Trigger *dom.Element
}

type WriterOptions struct {
	EventName      string
	DispatchTarget DispatchTarget
	Sink           diagnostics.Sink
}

// Writer is the boundary between the pipeline and the clipboard. Failures
// stop here: they are reported and never returned or re-panicked.
type Writer struct {
	backend Backend
	doc     *dom.Document
	opts    WriterOptions

	// one system clipboard
	mu sync.Mutex
}

func NewWriter(doc *dom.Document, backend Backend, opts WriterOptions) *Writer {
	if opts.EventName == "" {
		opts.EventName = EventClipboarded
	}
	if opts.DispatchTarget == "" {
		opts.DispatchTarget = DispatchDocument
	}
	if opts.Sink == nil {
		opts.Sink = diagnostics.Discard
	}
	return &Writer{backend: backend, doc: doc, opts: opts}
}

func (w *Writer) EventName() string { return w.opts.EventName }

// Write puts p on the clipboard and dispatches the completion event. It
// reports whether the copy completed.
func (w *Writer) Write(ctx context.Context, trigger *dom.Element, p payload.Payload) bool {
	var triggerName string
	if trigger != nil {
		triggerName = trigger.String()
	}

	if p.Empty() {
		w.opts.Sink.Report(diagnostics.Stamp(diagnostics.Diagnostic{
			Kind:    diagnostics.KindEmptyPayload,
			Trigger: triggerName,
			Message: "nothing to copy",
		}))
		return false
	}

	if err := w.write(ctx, p); err != nil {
		w.opts.Sink.Report(diagnostics.Stamp(diagnostics.Diagnostic{
			Kind:       diagnostics.KindWriteFailed,
			Trigger:    triggerName,
			Message:    "clipboard write failed",
			Err:        err,
			ItemCount:  p.Count(),
			MediaTypes: p.MediaTypes(),
		}))
		return false
	}

	w.opts.Sink.Report(diagnostics.Stamp(diagnostics.Diagnostic{
		Kind:       diagnostics.KindCopied,
		Trigger:    triggerName,
		Message:    "copied to clipboard",
		ItemCount:  p.Count(),
		MediaTypes: p.MediaTypes(),
	}))

	detail := Completion{Mode: p.Mode, Content: p.Content, Items: p.Items, Trigger: trigger}
	if w.opts.DispatchTarget == DispatchTrigger && trigger != nil && trigger.IsConnected() {
		trigger.Dispatch(ctx, dom.Event{Type: w.opts.EventName, Target: trigger, Detail: detail})
	} else {
		w.doc.Dispatch(ctx, dom.Event{Type: w.opts.EventName, Detail: detail})
	}
	return true
}

func (w *Writer) write(ctx context.Context, p payload.Payload) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard backend panic: %v", r)
		}
	}()

	if p.Mode == payload.ModeLegacy {
		return w.backend.WriteText(ctx, p.Content)
	}
	return w.backend.WriteItems(ctx, p.Items)
}
