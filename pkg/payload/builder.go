package payload

import (
	"context"
	"strings"

	"clipctl/pkg/diagnostics"
	"clipctl/pkg/dom"
)

const (
	// ValueTypeInnerText reads a target as rendered text: tags are stripped
	// and only text/plain is offered.
	ValueTypeInnerText = "innerText"
	// ValueTypeMarkdown converts a target's HTML to Markdown, offered as
	// text/plain.
	ValueTypeMarkdown = "markdown"

	DefaultValueTypeAttr = "clipboard-value-type"
)

// Builder turns resolved targets into a payload. Targets are read strictly in
// the given order. Build only fails when ctx is done.
type Builder interface {
	Mode() Mode
	Build(ctx context.Context, targets []*dom.Element) (Payload, error)
}

type Options struct {
	Accessor      Accessor
	Sink          diagnostics.Sink
	ValueTypeAttr string
}

func (o Options) withDefaults() Options {
	if o.Accessor == nil {
		o.Accessor = DefaultAccessor{}
	}
	if o.Sink == nil {
		o.Sink = diagnostics.Discard
	}
	if o.ValueTypeAttr == "" {
		o.ValueTypeAttr = DefaultValueTypeAttr
	}
	return o
}

func NewBuilder(mode Mode, opts Options) (Builder, error) {
	opts = opts.withDefaults()
	switch mode {
	case ModeLegacy:
		return &legacyBuilder{opts: opts}, nil
	case ModeRich, "":
		return &richBuilder{opts: opts}, nil
	default:
		_, err := ParseMode(string(mode))
		return nil, err
	}
}

// fetch reads one target's value, reporting accessor failures. ok is false
// when the target must be skipped.
func fetch(ctx context.Context, opts Options, el *dom.Element) (Value, bool, error) {
	v, err := opts.Accessor.Value(ctx, el)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Value{}, false, ctxErr
	}
	if err != nil {
		opts.Sink.Report(diagnostics.Diagnostic{
			Kind:    diagnostics.KindValueFailed,
			Target:  el.String(),
			Message: "could not read target value",
			Err:     err,
		})
		return Value{}, false, nil
	}
	return v, true, nil
}

func unsupported(opts Options, el *dom.Element, v Value) {
	msg := "unsupported value type"
	if v.Reason != "" {
		msg += ": " + v.Reason
	}
	opts.Sink.Report(diagnostics.Diagnostic{
		Kind:    diagnostics.KindUnsupportedValue,
		Target:  el.String(),
		Message: msg,
	})
}

type legacyBuilder struct {
	opts Options
}

func (b *legacyBuilder) Mode() Mode { return ModeLegacy }

func (b *legacyBuilder) Build(ctx context.Context, targets []*dom.Element) (Payload, error) {
	var sb strings.Builder
	for _, el := range targets {
		v, ok, err := fetch(ctx, b.opts, el)
		if err != nil {
			return Payload{}, err
		}
		if !ok {
			continue
		}

		var s string
		switch {
		case v.Kind == KindText:
			s = v.Text
		case v.Kind == KindBlob && strings.HasPrefix(v.MediaType, "text/"):
			s = string(v.Data)
		default:
			if v.Kind == KindBlob {
				v.Reason = v.MediaType + " blob cannot be joined as text"
			}
			unsupported(b.opts, el, v)
			continue
		}
		if s == "" {
			continue
		}
		sb.WriteString(s)
		sb.WriteByte('\n')
	}
	return Payload{Mode: ModeLegacy, Content: strings.TrimSpace(sb.String())}, nil
}

type richBuilder struct {
	opts Options
}

func (b *richBuilder) Mode() Mode { return ModeRich }

func (b *richBuilder) Build(ctx context.Context, targets []*dom.Element) (Payload, error) {
	p := Payload{Mode: ModeRich}
	for _, el := range targets {
		v, ok, err := fetch(ctx, b.opts, el)
		if err != nil {
			return Payload{}, err
		}
		if !ok {
			continue
		}

		item, ok := b.classify(el, v)
		if !ok {
			unsupported(b.opts, el, v)
			continue
		}
		p.Items = append(p.Items, item)
	}
	return p, nil
}

// classify builds the item for one value following the value-type
// attribute, then the value's own kind.
func (b *richBuilder) classify(el *dom.Element, v Value) (Item, bool) {
	valueType, _ := el.GetAttribute(b.opts.ValueTypeAttr)

	var reps []Representation
	switch {
	case v.Kind == KindText && valueType == ValueTypeInnerText:
		reps = []Representation{{MediaType: MediaTypeText, Data: []byte(StripTags(v.Text))}}
	case v.Kind == KindText && valueType == ValueTypeMarkdown:
		reps = []Representation{{MediaType: MediaTypeText, Data: []byte(ToMarkdown(v.Text))}}
	case v.Kind == KindText:
		reps = []Representation{
			{MediaType: MediaTypeText, Data: []byte(v.Text)},
			{MediaType: MediaTypeHTML, Data: []byte(v.Text)},
		}
	case v.Kind == KindBlob && v.MediaType != "":
		reps = []Representation{{MediaType: v.MediaType, Data: v.Data}}
	default:
		return Item{}, false
	}

	item, err := NewItem(reps...)
	if err != nil {
		return Item{}, false
	}
	return item, true
}
