package payload

import (
	"fmt"
	"strings"
)

// Mode selects the payload shape.
type Mode string

const (
	// ModeLegacy joins every value into one plain-text string.
	ModeLegacy Mode = "legacy"
	// ModeRich produces one multi-representation item per target.
	ModeRich Mode = "rich"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRich, "":
		return ModeRich, nil
	case ModeLegacy:
		return ModeLegacy, nil
	default:
		return "", fmt.Errorf("unknown payload mode %q (expected legacy or rich)", s)
	}
}

// Payload is the assembled clipboard content. Legacy payloads use Content,
// rich payloads use Items.
type Payload struct {
	Mode    Mode
	Content string
	Items   []Item
}

// Empty reports whether there is nothing to write.
func (p Payload) Empty() bool {
	if p.Mode == ModeLegacy {
		return p.Content == ""
	}
	return len(p.Items) == 0
}

// MediaTypes lists the distinct media types in order of first appearance.
func (p Payload) MediaTypes() []string {
	if p.Mode == ModeLegacy {
		if p.Content == "" {
			return nil
		}
		return []string{MediaTypeText}
	}
	seen := make(map[string]bool)
	var out []string
	for _, it := range p.Items {
		for _, t := range it.Types() {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// PlainText returns the text a plain-text consumer would see.
func (p Payload) PlainText() string {
	if p.Mode == ModeLegacy {
		return p.Content
	}
	var parts []string
	for _, it := range p.Items {
		if data, ok := it.Get(MediaTypeText); ok {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n")
}

// Count is the number of items, or 1 for a non-empty legacy payload.
func (p Payload) Count() int {
	if p.Mode == ModeLegacy {
		if p.Content == "" {
			return 0
		}
		return 1
	}
	return len(p.Items)
}
