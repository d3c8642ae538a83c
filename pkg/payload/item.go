package payload

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MediaTypeText = "text/plain"
	MediaTypeHTML = "text/html"
)

var ErrEmptyItem = errors.New("clipboard item needs at least one representation")

// Representation is one media-type rendering of an item.
type Representation struct {
	MediaType string
	Data      []byte
}

// Item is a single clipboard entry offered in one or more media types.
// The zero Item is invalid; build items with NewItem.
type Item struct {
	reps []Representation
}

// NewItem rejects an empty representation list, blank media types and
// duplicate media types.
func NewItem(reps ...Representation) (Item, error) {
	if len(reps) == 0 {
		return Item{}, ErrEmptyItem
	}
	seen := make(map[string]bool, len(reps))
	out := make([]Representation, 0, len(reps))
	for _, r := range reps {
		mt := strings.TrimSpace(r.MediaType)
		if mt == "" {
			return Item{}, fmt.Errorf("clipboard item: representation without media type")
		}
		if seen[mt] {
			return Item{}, fmt.Errorf("clipboard item: duplicate media type %s", mt)
		}
		seen[mt] = true
		out = append(out, Representation{MediaType: mt, Data: r.Data})
	}
	return Item{reps: out}, nil
}

func (i Item) Representations() []Representation {
	out := make([]Representation, len(i.reps))
	copy(out, i.reps)
	return out
}

func (i Item) Types() []string {
	types := make([]string, len(i.reps))
	for j, r := range i.reps {
		types[j] = r.MediaType
	}
	return types
}

func (i Item) Get(mediaType string) ([]byte, bool) {
	for _, r := range i.reps {
		if r.MediaType == mediaType {
			return r.Data, true
		}
	}
	return nil, false
}

func (i Item) Has(mediaType string) bool {
	_, ok := i.Get(mediaType)
	return ok
}
