// Package query resolves attribute-driven element queries.
//
// An element declares how to find related elements through attributes that
// share a prefix. With the prefix "clipboard":
//
//	clipboard-selector=".snippet"      every .snippet in the document
//	clipboard-closest=".card"          nearest .card ancestor (inclusive)
//	clipboard-parent="pre"             pre descendants of the parent (parent itself if empty)
//	clipboard-next=""                  next element sibling (narrowed by a selector if given)
//	clipboard-previous=".label"        .label descendants of the previous sibling
//	clipboard-query="$closest(.card) pre; .footer"
//
// The unified -query attribute holds ';'-separated steps. A step may start
// with one anchor ($closest(sel), $parent, $next, $previous) followed by a
// selector matched against the anchor's descendants; without an anchor the
// selector runs against the whole document.
package query

import (
	"fmt"
	"strings"

	"clipctl/pkg/dom"
)

type Variant string

const (
	// VariantMulti recognizes the -selector/-closest/-parent/-next/-previous attributes.
	VariantMulti Variant = "multi"
	// VariantQuery recognizes the single -query attribute.
	VariantQuery Variant = "query"
)

const (
	OpSelector = "selector"
	OpClosest  = "closest"
	OpParent   = "parent"
	OpNext     = "next"
	OpPrevious = "previous"
	OpQuery    = "query"
)

var multiOps = []string{OpSelector, OpClosest, OpParent, OpNext, OpPrevious}

func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantMulti, "":
		return VariantMulti, nil
	case VariantQuery:
		return VariantQuery, nil
	default:
		return "", fmt.Errorf("unknown grammar variant %q (expected multi or query)", s)
	}
}

// Grammar is the set of resolution attributes a binding recognizes.
type Grammar struct {
	Prefix  string
	Variant Variant
}

// AttributeNames lists the recognized resolution attributes in evaluation
// order.
func (g Grammar) AttributeNames() []string {
	if g.Variant == VariantQuery {
		return []string{g.Attr(OpQuery)}
	}
	names := make([]string, len(multiOps))
	for i, op := range multiOps {
		names[i] = g.Attr(op)
	}
	return names
}

func (g Grammar) Attr(op string) string {
	return g.Prefix + "-" + op
}

// ValueTypeAttr names the attribute selecting how a target's value is read.
func (g Grammar) ValueTypeAttr() string {
	return g.Attr("value-type")
}

// Selector is a CSS selector matching every element that declares at least
// one recognized attribute.
func (g Grammar) Selector() string {
	names := g.AttributeNames()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = "[" + n + "]"
	}
	return strings.Join(parts, ", ")
}

// Declares reports whether el carries any recognized attribute.
func (g Grammar) Declares(el *dom.Element) bool {
	for _, name := range g.AttributeNames() {
		if el.HasAttribute(name) {
			return true
		}
	}
	return false
}

// Declared returns the recognized attributes present on el, in evaluation
// order, as name/value pairs.
func (g Grammar) Declared(el *dom.Element) [][2]string {
	var out [][2]string
	for _, name := range g.AttributeNames() {
		if v, ok := el.GetAttribute(name); ok {
			out = append(out, [2]string{name, v})
		}
	}
	return out
}
