package wayland

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeString(t *testing.T) {
	tests := []string{"", "a", "abc", "abcd", "text/plain;charset=utf-8"}
	for _, s := range tests {
		enc := encodeString(s)
		if len(enc)%4 != 0 {
			t.Errorf("encodeString(%q) length %d is not 4-aligned", s, len(enc))
		}
		got, rest, err := decodeString(append(enc, 0xff))
		if err != nil {
			t.Fatalf("decodeString(%q) error = %v", s, err)
		}
		if got != s {
			t.Errorf("decodeString() = %q, want %q", got, s)
		}
		if !bytes.Equal(rest, []byte{0xff}) {
			t.Errorf("rest = %v, want [255]", rest)
		}
	}
}

func TestDecodeStringShort(t *testing.T) {
	if _, _, err := decodeString([]byte{1, 0}); err == nil {
		t.Error("expected error for short length field")
	}
	if _, _, err := decodeString([]byte{9, 0, 0, 0, 'a'}); err == nil {
		t.Error("expected error for short string data")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	args := concat(encodeUint32(7), encodeString("image/png"))
	buf := frame(6, 2, args)
	buf = append(buf, frame(1, 0, nil)[:5]...)

	msg, rest, ok := unframe(buf)
	if !ok {
		t.Fatal("unframe() ok = false")
	}
	if msg.object != 6 || msg.opcode != 2 {
		t.Errorf("message = %d/%d, want 6/2", msg.object, msg.opcode)
	}
	if !bytes.Equal(msg.payload, args) {
		t.Errorf("payload = %v, want %v", msg.payload, args)
	}

	if _, _, ok := unframe(rest); ok {
		t.Error("partial message should not unframe")
	}
}
