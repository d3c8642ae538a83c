package journal

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipctl/pkg/diagnostics"
)

func open(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "sub", "journal.db"))
	if err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED=0") {
			t.Skip("sqlite3 needs cgo")
		}
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := open(t)
	base := time.Now().Add(-time.Minute)

	j.Report(diagnostics.Diagnostic{Kind: diagnostics.KindCopied, Trigger: "button#a", ItemCount: 2,
		MediaTypes: []string{"text/plain", "text/html"}, At: base})
	j.Report(diagnostics.Diagnostic{Kind: diagnostics.KindWriteFailed, Trigger: "button#b",
		Err: errors.New("denied"), At: base.Add(time.Second)})
	j.Report(diagnostics.Diagnostic{Kind: diagnostics.KindUnsupportedValue, Target: "img#x", At: base.Add(2 * time.Second)})

	all, err := j.Recent(0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(Recent()) = %d, want 3", len(all))
	}
	if all[0].Kind != diagnostics.KindUnsupportedValue || all[2].Kind != diagnostics.KindCopied {
		t.Errorf("order = %s, %s, %s; want newest first", all[0].Kind, all[1].Kind, all[2].Kind)
	}
	if all[1].Error != "denied" {
		t.Errorf("Error = %q, want %q", all[1].Error, "denied")
	}
	if len(all[2].MediaTypes) != 2 || all[2].ItemCount != 2 {
		t.Errorf("copied entry = %+v", all[2])
	}
	if all[0].ID == "" || all[0].ID == all[1].ID {
		t.Error("entries should have distinct ids")
	}

	limited, _ := j.Recent(1)
	if len(limited) != 1 {
		t.Errorf("len(Recent(1)) = %d, want 1", len(limited))
	}

	failed, _ := j.Recent(0, diagnostics.KindWriteFailed, diagnostics.KindCopied)
	if len(failed) != 2 {
		t.Errorf("len(Recent(kinds)) = %d, want 2", len(failed))
	}
}

func TestCountsAndPrune(t *testing.T) {
	j := open(t)
	old := time.Now().Add(-48 * time.Hour)

	j.Report(diagnostics.Diagnostic{Kind: diagnostics.KindCopied, At: old})
	j.Report(diagnostics.Diagnostic{Kind: diagnostics.KindCopied})
	j.Report(diagnostics.Diagnostic{Kind: diagnostics.KindBusy})

	counts, err := j.Counts()
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if counts[diagnostics.KindCopied] != 2 || counts[diagnostics.KindBusy] != 1 {
		t.Errorf("Counts() = %v", counts)
	}

	n, err := j.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	left, _ := j.Recent(0)
	if len(left) != 2 {
		t.Errorf("entries after prune = %d, want 2", len(left))
	}
}
