package payload

import "fmt"

// Kind tags the three shapes a target's value can take.
type Kind int

const (
	KindUnsupported Kind = iota
	KindText
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return "unsupported"
	}
}

// Value is what an accessor reads from an element.
type Value struct {
	Kind      Kind
	Text      string
	Data      []byte
	MediaType string
	// Reason explains an unsupported value.
	Reason string
}

func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func Blob(mediaType string, data []byte) Value {
	return Value{Kind: KindBlob, MediaType: mediaType, Data: data}
}

func Unsupported(format string, args ...any) Value {
	return Value{Kind: KindUnsupported, Reason: fmt.Sprintf(format, args...)}
}
