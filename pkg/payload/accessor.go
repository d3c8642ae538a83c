package payload

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/url"
	"strings"

	"clipctl/pkg/dom"

	"github.com/h2non/filetype"
)

// Accessor reads the value of an element. Implementations may block; they
// should honor ctx.
type Accessor interface {
	Value(ctx context.Context, el *dom.Element) (Value, error)
}

type AccessorFunc func(ctx context.Context, el *dom.Element) (Value, error)

func (f AccessorFunc) Value(ctx context.Context, el *dom.Element) (Value, error) {
	return f(ctx, el)
}

// DefaultAccessor reads form controls by their value, data: URI images as
// blobs and every other element as its inner HTML.
type DefaultAccessor struct{}

func (DefaultAccessor) Value(ctx context.Context, el *dom.Element) (Value, error) {
	if err := ctx.Err(); err != nil {
		return Value{}, err
	}

	switch el.TagName() {
	case "input":
		v, _ := el.GetAttribute("value")
		return Text(v), nil
	case "textarea":
		return Text(el.TextContent()), nil
	case "select":
		return Text(selectedOption(el)), nil
	case "img", "video", "audio", "source", "canvas", "iframe", "object", "embed":
		src, ok := el.GetAttribute("src")
		if ok && strings.HasPrefix(src, "data:") {
			return decodeDataURI(src)
		}
		return Unsupported("%s element without inline data", el.TagName()), nil
	}

	if v, ok := el.GetAttribute("value"); ok {
		return Text(v), nil
	}
	return Text(el.InnerHTML()), nil
}

func selectedOption(sel *dom.Element) string {
	options, err := sel.QuerySelectorAll("option")
	if err != nil || options.Len() == 0 {
		return ""
	}
	chosen := options.At(0)
	for _, opt := range dom.Collect(options) {
		if opt.HasAttribute("selected") {
			chosen = opt
			break
		}
	}
	if v, ok := chosen.GetAttribute("value"); ok {
		return v
	}
	return strings.TrimSpace(chosen.TextContent())
}

// decodeDataURI turns data:[<mediatype>][;base64],<data> into a blob value.
func decodeDataURI(uri string) (Value, error) {
	header, data, found := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !found {
		return Unsupported("malformed data URI"), nil
	}

	isBase64 := false
	if strings.HasSuffix(header, ";base64") {
		isBase64 = true
		header = strings.TrimSuffix(header, ";base64")
	}
	if header == "" {
		header = "text/plain;charset=US-ASCII"
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return Unsupported("data URI media type %q: %v", header, err), nil
	}

	var raw []byte
	if isBase64 {
		raw, err = base64.StdEncoding.DecodeString(data)
	} else {
		var s string
		s, err = url.PathUnescape(data)
		raw = []byte(s)
	}
	if err != nil {
		return Value{}, fmt.Errorf("decode data URI: %w", err)
	}
	if mediaType == "application/octet-stream" {
		mediaType = sniff(raw, mediaType)
	}
	return Blob(mediaType, raw), nil
}

// sniff names untyped data by its magic bytes, keeping fallback when the
// content is not recognized.
func sniff(data []byte, fallback string) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return fallback
	}
	return kind.MIME.Value
}
