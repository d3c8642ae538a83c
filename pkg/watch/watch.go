// Package watch reloads an HTML file into a live document whenever the file
// changes on disk. The reload replaces the body's children, so observers of
// the document see it as ordinary removed and added nodes.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"clipctl/pkg/dom"
	"clipctl/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 200 * time.Millisecond

type Options struct {
	// Debounce collapses bursts of file events into one reload.
	Debounce time.Duration
	// OnReload runs after each successful reload with the new body
	// children.
	OnReload func(ctx context.Context, added []*dom.Element)
}

type Watcher struct {
	doc     *dom.Document
	path    string
	opts    Options
	watcher *fsnotify.Watcher
}

// New watches path for changes. The file's directory is watched so editors
// that save by renaming are still seen.
func New(doc *dom.Document, path string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{doc: doc, path: abs, opts: opts, watcher: w}, nil
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run reloads on every settled change until ctx is done or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context) error {
	log := logger.With("watch")

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			log.Debug().Str("op", event.Op.String()).Str("path", event.Name).Msg("file event")
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			added, err := w.Reload()
			if err != nil {
				log.Warn().Err(err).Str("path", w.path).Msg("reload failed")
				continue
			}
			log.Info().Str("path", w.path).Int("elements", len(added)).Msg("reloaded")
			if w.opts.OnReload != nil {
				w.opts.OnReload(ctx, added)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}

// Reload parses the file and swaps its body into the live document.
func (w *Watcher) Reload() ([]*dom.Element, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fresh, err := dom.Parse(f)
	if err != nil {
		return nil, err
	}
	src := fresh.Body()
	dst := w.doc.Body()
	if src == nil || dst == nil {
		return nil, fmt.Errorf("%s: document has no body", w.path)
	}
	return dst.ReplaceChildren(src.InnerHTML())
}
