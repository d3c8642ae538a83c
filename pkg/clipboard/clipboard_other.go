//go:build !linux

package clipboard

import (
	"context"
	"io"
)

const ServeCommand = "__clipboard-serve"

func (s System) write(ctx context.Context, formats Formats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeSingle(formats)
}

// ServeClipboard is not used outside Linux.
func ServeClipboard(formats Formats, ready io.Writer) error {
	return nil
}
