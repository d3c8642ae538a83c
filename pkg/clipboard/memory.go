package clipboard

import (
	"context"
	"sync"

	"clipctl/pkg/payload"
)

// Record is one write accepted by a Memory backend.
type Record struct {
	Mode    payload.Mode
	Text    string
	Items   []payload.Item
	Formats Formats
}

// Memory is an in-process clipboard. It keeps every accepted write and can
// be told to fail.
type Memory struct {
	mu      sync.Mutex
	fail    error
	records []Record
}

func NewMemory() *Memory {
	return &Memory{}
}

// SetFailure makes every following write return err. nil clears it.
func (m *Memory) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *Memory) WriteText(ctx context.Context, text string) error {
	return m.record(ctx, Record{
		Mode:    payload.ModeLegacy,
		Text:    text,
		Formats: Formats{payload.MediaTypeText: []byte(text)},
	})
}

func (m *Memory) WriteItems(ctx context.Context, items []payload.Item) error {
	formats := MergeItems(items)
	return m.record(ctx, Record{
		Mode:    payload.ModeRich,
		Text:    string(formats[payload.MediaTypeText]),
		Items:   append([]payload.Item(nil), items...),
		Formats: formats,
	})
}

func (m *Memory) record(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.records = append(m.records, r)
	return nil
}

// Records returns the accepted writes, oldest first.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Len is the number of accepted writes.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Text is the plain text currently held, as a paste would see it.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) == 0 {
		return ""
	}
	return m.records[len(m.records)-1].Text
}
