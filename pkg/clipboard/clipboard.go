// Package clipboard writes assembled payloads to the system clipboard.
// On Linux/Wayland it daemonizes a clipboard server that serves every media
// type of the payload at once, so rich-text apps get text/html, editors get
// text/plain and image viewers get the image. Elsewhere it writes the best
// single format the platform clipboard accepts.
package clipboard

import (
	"context"
	"errors"
	"sort"
	"strings"

	"clipctl/pkg/payload"
)

// EventClipboarded is the default name of the completion event.
const EventClipboarded = "clipboarded"

// ErrUnsupported is returned when a backend cannot carry any representation
// of a payload.
var ErrUnsupported = errors.New("clipboard: no supported representation")

// Backend is a system clipboard. Each call replaces the whole clipboard
// content or fails without changing it.
type Backend interface {
	WriteText(ctx context.Context, text string) error
	WriteItems(ctx context.Context, items []payload.Item) error
}

// Formats maps a media type to the bytes served for it.
type Formats map[string][]byte

// Types returns the media types in f: text/plain and text/html first, the
// rest sorted.
func (f Formats) Types() []string {
	var out, rest []string
	for _, t := range []string{payload.MediaTypeText, payload.MediaTypeHTML} {
		if _, ok := f[t]; ok {
			out = append(out, t)
		}
	}
	for t := range f {
		if t != payload.MediaTypeText && t != payload.MediaTypeHTML {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// MergeItems flattens items into the single set of formats a system
// clipboard can own. Text and HTML representations are joined with a
// newline in item order; any other media type keeps its first occurrence.
func MergeItems(items []payload.Item) Formats {
	var plain, html []string
	formats := Formats{}
	for _, it := range items {
		for _, rep := range it.Representations() {
			switch rep.MediaType {
			case payload.MediaTypeText:
				plain = append(plain, string(rep.Data))
			case payload.MediaTypeHTML:
				html = append(html, string(rep.Data))
			default:
				if _, ok := formats[rep.MediaType]; !ok {
					formats[rep.MediaType] = rep.Data
				}
			}
		}
	}
	if plain != nil {
		formats[payload.MediaTypeText] = []byte(strings.Join(plain, "\n"))
	}
	if html != nil {
		formats[payload.MediaTypeHTML] = []byte(strings.Join(html, "\n"))
	}
	return formats
}

var textAliases = []string{"text/plain;charset=utf-8", "UTF8_STRING", "STRING", "TEXT"}

// isTextFormat reports whether t is one of the renderings of the plain text
// content: text/plain, text/html or an X11-era alias.
func isTextFormat(t string) bool {
	if t == payload.MediaTypeText || t == payload.MediaTypeHTML {
		return true
	}
	for _, alias := range textAliases {
		if t == alias {
			return true
		}
	}
	return false
}

// withTextAliases adds the X11-era names some paste targets still request
// for plain text.
func withTextAliases(formats Formats) Formats {
	plain, ok := formats[payload.MediaTypeText]
	if !ok {
		return formats
	}
	out := make(Formats, len(formats)+4)
	for k, v := range formats {
		out[k] = v
	}
	for _, alias := range textAliases {
		if _, exists := out[alias]; !exists {
			out[alias] = plain
		}
	}
	return out
}
