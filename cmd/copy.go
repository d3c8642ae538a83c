package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"clipctl/pkg/clipboard"
	"clipctl/pkg/diagnostics"
	"clipctl/pkg/dom"
	"clipctl/pkg/errors"
	"clipctl/pkg/logger"
	"clipctl/pkg/payload"

	"github.com/spf13/cobra"
)

var (
	copyClickSelectors []string
	copySelectSelector string
)

// CopyOutput is one completed copy as printed by copy and watch.
type CopyOutput struct {
	Trigger    string   `json:"trigger" yaml:"trigger"`
	Mode       string   `json:"mode" yaml:"mode"`
	Items      int      `json:"items" yaml:"items"`
	MediaTypes []string `json:"media_types" yaml:"media_types"`
	Text       string   `json:"text" yaml:"text"`
}

var copyCmd = NewCommand(
	"copy <file.html>",
	"Click clipboard triggers in a document and copy their targets",
	`Load an HTML document, bind every element that declares clipboard
attributes and click the triggers matching --click (every trigger when
--click is omitted). With --select the matching elements are copied
directly, without target resolution.`,
).WithExample(`  # Click one trigger
  clipctl copy page.html --click '#copy-snippet'

  # Inspect what every trigger would copy, without touching the clipboard
  clipctl copy page.html --dry-run --format json

  # Copy two elements as one rich payload
  clipctl copy page.html --select 'pre.code, img.diagram'`,
).WithSession(func(cmd *cobra.Command, s *Session, args []string) error {
	ctx, cancel := GetContext()
	defer cancel()

	results, err := RunCopy(ctx, s, copyClickSelectors, copySelectSelector)
	if err != nil {
		return err
	}

	output := NewOutputWriter(outputFormat)
	output.SetWriter(cmd.OutOrStdout())
	if output.IsStructured() {
		return output.Write(results)
	}
	printCopies(cmd.OutOrStdout(), results)
	if s.DryRun() {
		PrintDryRun(cmd.OutOrStdout(), "%d payload(s) kept in memory, system clipboard untouched", len(results))
	}
	return nil
}).Build()

// CompletionRecorder collects the completion events of a document.
type CompletionRecorder struct {
	mu      sync.Mutex
	results []CopyOutput
	id      dom.ListenerID
	doc     *dom.Document
}

func RecordCompletions(doc *dom.Document, eventName string) *CompletionRecorder {
	r := &CompletionRecorder{doc: doc}
	r.id = doc.AddEventListener(eventName, func(_ context.Context, ev dom.Event) {
		c, ok := ev.Detail.(clipboard.Completion)
		if !ok {
			return
		}
		r.mu.Lock()
		r.results = append(r.results, completionOutput(c))
		r.mu.Unlock()
	})
	return r
}

// Take returns the completions recorded since the last call.
func (r *CompletionRecorder) Take() []CopyOutput {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.results
	r.results = nil
	return out
}

func (r *CompletionRecorder) Stop() {
	r.doc.RemoveEventListener(r.id)
}

func completionOutput(c clipboard.Completion) CopyOutput {
	p := payload.Payload{Mode: c.Mode, Content: c.Content, Items: c.Items}
	return CopyOutput{
		Trigger:    c.Trigger.String(),
		Mode:       string(c.Mode),
		Items:      p.Count(),
		MediaTypes: p.MediaTypes(),
		Text:       p.PlainText(),
	}
}

// RunCopy clicks the selected triggers, or copies the elements matching
// selectSel, and returns the copies that completed.
func RunCopy(ctx context.Context, s *Session, clickSels []string, selectSel string) ([]CopyOutput, error) {
	rec := RecordCompletions(s.Doc, s.Manager.Options().EventName)
	defer rec.Stop()
	log := logger.With("copy")
	s.failures.Take()

	if selectSel != "" {
		list, err := s.Doc.QuerySelectorAll(selectSel)
		if err != nil {
			return nil, errors.SelectorError(selectSel, err)
		}
		if !s.Manager.Clipboard(ctx, list) {
			return nil, s.copyFailed(selectSel)
		}
		return rec.Take(), nil
	}

	triggers, err := s.Triggers(clickSels)
	if err != nil {
		return nil, err
	}
	if len(triggers) == 0 {
		return nil, errors.NewWithSuggestion(errors.ExitCodeValidation, errors.ErrMsgNoTriggers,
			fmt.Sprintf("Triggers declare one of: %s", strings.Join(s.Manager.Options().Grammar.AttributeNames(), ", ")))
	}

	for _, el := range triggers {
		if err := ctx.Err(); err != nil {
			if err == context.DeadlineExceeded {
				return rec.Take(), errors.TimeoutError("copy")
			}
			return rec.Take(), errors.CancelledError("copy")
		}
		log.Debug().Str("trigger", el.String()).Msg("click")
		el.Click(ctx)
	}

	results := rec.Take()
	if len(results) == 0 {
		return nil, s.copyFailed(describe(triggers))
	}
	return results, nil
}

// copyFailed reports a copy that produced no completion. A backend failure
// surfaces as a clipboard error carrying the backend's cause.
func (s *Session) copyFailed(what string) error {
	if d, ok := s.failures.Take(); ok {
		return errors.Wrap(errors.ClipboardError(d.Err), fmt.Sprintf("%s for %s", errors.ErrMsgCopyFailed, what))
	}
	return errors.CopyFailedError(what)
}

// failureSink keeps the last failed clipboard write.
type failureSink struct {
	mu   sync.Mutex
	last *diagnostics.Diagnostic
}

func (f *failureSink) Report(d diagnostics.Diagnostic) {
	if d.Kind != diagnostics.KindWriteFailed {
		return
	}
	f.mu.Lock()
	f.last = &d
	f.mu.Unlock()
}

// Take returns the last failed write since the previous call.
func (f *failureSink) Take() (diagnostics.Diagnostic, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return diagnostics.Diagnostic{}, false
	}
	d := *f.last
	f.last = nil
	return d, true
}

// Triggers returns the bound triggers matching any of sels, in document
// order. No selectors means every bound trigger.
func (s *Session) Triggers(sels []string) ([]*dom.Element, error) {
	all, err := s.Doc.QuerySelectorAll(s.Manager.Options().Grammar.Selector())
	if err != nil {
		return nil, err
	}

	var out []*dom.Element
	for _, el := range dom.Collect(all) {
		if !s.Manager.Bound(el) {
			continue
		}
		if len(sels) == 0 {
			out = append(out, el)
			continue
		}
		for _, sel := range sels {
			ok, err := el.Matches(sel)
			if err != nil {
				return nil, errors.SelectorError(sel, err)
			}
			if ok {
				out = append(out, el)
				break
			}
		}
	}
	return out, nil
}

// DryRun reports whether writes go to the in-memory backend.
func (s *Session) DryRun() bool {
	_, ok := s.Memory()
	return ok
}

func describe(els []*dom.Element) string {
	names := make([]string, 0, len(els))
	for _, el := range els {
		names = append(names, el.String())
	}
	return strings.Join(names, ", ")
}

func printCopies(w io.Writer, results []CopyOutput) {
	printHeading(w, fmt.Sprintf("Copied %d payload(s)", len(results)))
	for _, r := range results {
		trigger := r.Trigger
		if trigger == "<nil>" {
			trigger = "(direct)"
		}
		fmt.Fprintf(w, "Trigger: %s\n", trigger)
		fmt.Fprintf(w, "  Mode: %s, Items: %d\n", r.Mode, r.Items)
		fmt.Fprintf(w, "  Types: %s\n", strings.Join(r.MediaTypes, ", "))
		fmt.Fprintf(w, "  Text: %s\n", Preview(r.Text, 72))
		fmt.Fprintln(w)
	}
}

func init() {
	copyCmd.Flags().StringArrayVar(&copyClickSelectors, "click", nil, "Selector of the triggers to click (repeatable; default all triggers)")
	copyCmd.Flags().StringVar(&copySelectSelector, "select", "", "Copy the elements matching this selector directly")
	copyCmd.MarkFlagsMutuallyExclusive("click", "select")
}
