// Package diagnostics carries the non-fatal reports of the clipboard
// pipeline: skipped values, empty payloads, failed writes and completed
// copies. Nothing reported here is ever returned as an error to the host.
package diagnostics

import (
	"sync"
	"time"

	"clipctl/pkg/logger"

	"github.com/rs/zerolog"
)

type Kind string

const (
	KindUnsupportedValue Kind = "unsupported_value"
	KindValueFailed      Kind = "value_failed"
	KindEmptyPayload     Kind = "empty_payload"
	KindWriteFailed      Kind = "write_failed"
	KindCopied           Kind = "copied"
	KindActionTimeout    Kind = "action_timeout"
	KindBusy             Kind = "busy"
)

type Diagnostic struct {
	Kind       Kind
	Trigger    string
	Target     string
	Message    string
	Err        error
	ItemCount  int
	MediaTypes []string
	At         time.Time
}

type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(d Diagnostic)

func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Multi fans a diagnostic out to every sink in order.
type Multi []Sink

func (m Multi) Report(d Diagnostic) {
	for _, s := range m {
		if s != nil {
			s.Report(d)
		}
	}
}

// Discard drops everything.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// Stamp fills in At when unset.
func Stamp(d Diagnostic) Diagnostic {
	if d.At.IsZero() {
		d.At = time.Now()
	}
	return d
}

// LogSink writes diagnostics to the package logger. Completed copies log at
// info, busy triggers at debug, everything else at warn.
type LogSink struct{}

func (LogSink) Report(d Diagnostic) {
	log := logger.With("clipboard")
	var ev *zerolog.Event
	switch d.Kind {
	case KindCopied:
		ev = log.Info()
	case KindBusy:
		ev = log.Debug()
	default:
		ev = log.Warn()
	}
	if d.Err != nil {
		ev = ev.Err(d.Err)
	}
	if d.Trigger != "" {
		ev = ev.Str("trigger", d.Trigger)
	}
	if d.Target != "" {
		ev = ev.Str("target", d.Target)
	}
	if d.ItemCount > 0 {
		ev = ev.Int("items", d.ItemCount)
	}
	if len(d.MediaTypes) > 0 {
		ev = ev.Strs("types", d.MediaTypes)
	}
	ev.Str("kind", string(d.Kind)).Msg(d.Message)
}

// Recorder keeps every diagnostic in memory.
type Recorder struct {
	mu  sync.Mutex
	all []Diagnostic
}

func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, Stamp(d))
}

func (r *Recorder) All() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.all))
	copy(out, r.all)
	return out
}

// Count returns how many diagnostics of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.all {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
