package clipboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"clipctl/pkg/payload"

	atotto "github.com/atotto/clipboard"
	designclip "golang.design/x/clipboard"
)

// System writes to the desktop clipboard.
type System struct {
	// Exec is the binary re-executed to own a Wayland selection. Empty means
	// the running binary.
	Exec string
}

func (s System) WriteText(ctx context.Context, text string) error {
	return s.write(ctx, Formats{payload.MediaTypeText: []byte(text)})
}

func (s System) WriteItems(ctx context.Context, items []payload.Item) error {
	return s.write(ctx, MergeItems(items))
}

// Single-format clipboard writers, replaced in tests.
var (
	writeTextFunc  = atotto.WriteAll
	writeImageFunc = writeImage
)

var (
	imageOnce    sync.Once
	imageInitErr error
)

// writeSingle is the path for clipboards that hold one format. Text and its
// HTML rendering collapse to text/plain; a lone image/png is written as an
// image. Anything that would drop content, like text next to an image, is
// refused so a partial write is never reported as a copy.
func writeSingle(formats Formats) error {
	var blobs []string
	for _, t := range formats.Types() {
		if !isTextFormat(t) {
			blobs = append(blobs, t)
		}
	}
	text, hasText := formats[payload.MediaTypeText]

	switch {
	case len(blobs) == 0 && hasText:
		return writeTextFunc(string(text))
	case len(blobs) == 1 && blobs[0] == "image/png" && len(formats) == 1:
		return writeImageFunc(formats["image/png"])
	default:
		return fmt.Errorf("%w: a single-format clipboard cannot hold %v", ErrUnsupported, formats.Types())
	}
}

func writeImage(png []byte) error {
	imageOnce.Do(func() { imageInitErr = designclip.Init() })
	if imageInitErr != nil {
		return fmt.Errorf("image clipboard unavailable: %w", imageInitErr)
	}
	if designclip.Write(designclip.FmtImage, png) == nil {
		return errors.New("image clipboard write failed")
	}
	return nil
}
