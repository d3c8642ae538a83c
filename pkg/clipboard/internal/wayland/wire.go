// Package wayland owns the Wayland selection through the wlr-data-control
// protocol and serves a fixed set of media types until another client takes
// it over.
package wayland

import (
	"encoding/binary"
	"fmt"
)

var le = binary.LittleEndian

// message is one decoded Wayland event or request.
type message struct {
	object  uint32
	opcode  uint16
	payload []byte
}

// frame encodes a request header followed by its arguments.
func frame(object uint32, opcode uint16, args []byte) []byte {
	size := uint16(8 + len(args))
	buf := make([]byte, size)
	le.PutUint32(buf[0:], object)
	le.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	copy(buf[8:], args)
	return buf
}

// unframe splits the first complete message off buf. ok is false when buf
// does not hold a whole message yet.
func unframe(buf []byte) (msg message, rest []byte, ok bool) {
	if len(buf) < 8 {
		return message{}, buf, false
	}
	sizeOpcode := le.Uint32(buf[4:8])
	size := int(sizeOpcode >> 16)
	if size < 8 || len(buf) < size {
		return message{}, buf, false
	}
	msg = message{
		object:  le.Uint32(buf[0:4]),
		opcode:  uint16(sizeOpcode & 0xffff),
		payload: append([]byte(nil), buf[8:size]...),
	}
	return msg, buf[size:], true
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return b
}

// encodeString writes the length (including the NUL), the bytes and padding
// to a 4-byte boundary.
func encodeString(s string) []byte {
	length := len(s) + 1
	padded := (length + 3) &^ 3
	buf := make([]byte, 4+padded)
	le.PutUint32(buf[0:], uint32(length))
	copy(buf[4:], s)
	return buf
}

func decodeString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", data, fmt.Errorf("wayland: short string length field")
	}
	length := int(le.Uint32(data[:4]))
	data = data[4:]
	if length == 0 {
		return "", data, nil
	}
	padded := (length + 3) &^ 3
	if len(data) < padded {
		return "", data, fmt.Errorf("wayland: short string data")
	}
	return string(data[:length-1]), data[padded:], nil
}

func concat(parts ...[]byte) []byte {
	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
