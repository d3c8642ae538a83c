package dom

import (
	"fmt"
	"sync"

	"github.com/andybalholm/cascadia"
)

var selectorCache sync.Map // string -> cascadia.Selector

// compile parses a CSS selector, caching the result per selector string.
func compile(sel string) (cascadia.Selector, error) {
	if cached, ok := selectorCache.Load(sel); ok {
		return cached.(cascadia.Selector), nil
	}
	s, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("dom: invalid selector %q: %w", sel, err)
	}
	selectorCache.Store(sel, s)
	return s, nil
}

// ValidSelector reports whether sel compiles.
func ValidSelector(sel string) error {
	_, err := compile(sel)
	return err
}
