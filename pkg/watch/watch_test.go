package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipctl/pkg/dom"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func setup(t *testing.T, content string) (*dom.Document, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	writeFile(t, path, content)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	doc, err := dom.Parse(f)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc, path
}

func TestReloadReplacesBody(t *testing.T) {
	doc, path := setup(t, `<html><body><p id="old">old</p></body></html>`)
	w, err := New(doc, path, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	var records []dom.MutationRecord
	doc.Observe(func(r dom.MutationRecord) { records = append(records, r) })

	writeFile(t, path, `<html><body><p id="new">new</p><button id="b">b</button></body></html>`)
	added, err := w.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(added) != 2 {
		t.Errorf("added = %d, want 2", len(added))
	}
	if el, _ := doc.QuerySelector("#old"); el != nil {
		t.Error("old content still present")
	}
	if el, _ := doc.QuerySelector("#new"); el == nil {
		t.Error("new content missing")
	}
	if len(records) != 1 || len(records[0].RemovedNodes) != 1 || len(records[0].AddedNodes) != 2 {
		t.Errorf("records = %+v, want one child-list record", records)
	}
}

func TestReloadMissingFile(t *testing.T) {
	doc, path := setup(t, `<html><body></body></html>`)
	w, err := New(doc, path, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	os.Remove(path)
	if _, err := w.Reload(); err == nil {
		t.Error("Reload() expected error for missing file")
	}
}

func TestRunReloadsOnChange(t *testing.T) {
	doc, path := setup(t, `<html><body><p>v1</p></body></html>`)
	reloaded := make(chan int, 4)
	w, err := New(doc, path, Options{
		Debounce: 20 * time.Millisecond,
		OnReload: func(ctx context.Context, added []*dom.Element) { reloaded <- len(added) },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFile(t, filepath.Join(filepath.Dir(path), "other.html"), "ignored")
	writeFile(t, path, `<html><body><p>v2</p><p>v2</p><p>v2</p></body></html>`)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case n := <-reloaded:
			// a write can be observed half-done; wait for the settled file
			if n == 3 {
				return
			}
		case <-deadline:
			t.Fatal("no reload with 3 elements within 5s")
		}
	}
}
