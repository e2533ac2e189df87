package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadMissingFileYieldsEmptyLedger(t *testing.T) {
	mgr := Load(filepath.Join(t.TempDir(), "manifest.json"))
	m := mgr.Manifest()
	if m.Version != Version {
		t.Fatalf("version = %q, want %q", m.Version, Version)
	}
	if m.LastUpdate != 0 || len(m.SourceFiles) != 0 || len(m.GeneratedFiles) != 0 {
		t.Fatalf("ledger not empty: %+v", m)
	}
}

func TestLoadCorruptFileYieldsEmptyLedger(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "manifest.json", "{this is not json")
	m := Load(path).Manifest()
	if m.Version != Version || m.LastUpdate != 0 || len(m.SourceFiles) != 0 {
		t.Fatalf("corrupt manifest not treated as empty: %+v", m)
	}
}

func TestDetectChangesLifecycle(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", "flowchart TD\n")
	b := writeFile(t, dir, "b.md", "flowchart LR\n")
	mgr := Load(filepath.Join(dir, "manifest.json"))

	ch := mgr.DetectChanges([]string{a, b})
	if !ch.HasChanges || len(ch.New) != 2 || len(ch.Modified) != 0 || len(ch.Deleted) != 0 {
		t.Fatalf("fresh sources: %+v", ch)
	}

	if err := mgr.Commit([]string{a, b}, nil); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if ch := mgr.DetectChanges([]string{a, b}); ch.HasChanges {
		t.Fatalf("expected a clean diff after commit: %+v", ch)
	}

	writeFile(t, dir, "b.md", "flowchart RL\n")
	ch = mgr.DetectChanges([]string{a, b})
	if len(ch.New) != 0 || len(ch.Modified) != 1 || ch.Modified[0] != b {
		t.Fatalf("rewrite not detected: %+v", ch)
	}

	ch = mgr.DetectChanges([]string{a})
	if len(ch.Deleted) != 1 || ch.Deleted[0] != b || !ch.HasChanges {
		t.Fatalf("dropped path not detected: %+v", ch)
	}
}

func TestDetectChangesFlagsTouchedFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", "flowchart TD\n")
	mgr := Load(filepath.Join(dir, "manifest.json"))
	if err := mgr.Commit([]string{a}, nil); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Same bytes, newer mtime: still a modification.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(a, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	ch := mgr.DetectChanges([]string{a})
	if len(ch.Modified) != 1 || ch.Modified[0] != a {
		t.Fatalf("touch not detected: %+v", ch)
	}
}

func TestCommitRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", "flowchart TD\n")
	g := writeFile(t, dir, "a.ts", "export {};\n")
	path := filepath.Join(dir, "manifest.json")

	mgr := Load(path)
	if err := mgr.Commit([]string{a}, []string{g}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reloaded := Load(path).Manifest()
	if reloaded.Version != Version || reloaded.LastUpdate == 0 {
		t.Fatalf("stamp missing: %+v", reloaded)
	}
	entry, ok := reloaded.SourceFiles[a]
	if !ok {
		t.Fatalf("source entry missing: %+v", reloaded.SourceFiles)
	}
	if len(entry.Hash) != 64 || entry.Size != int64(len("flowchart TD\n")) || entry.MTime == 0 {
		t.Fatalf("source entry: %+v", entry)
	}
	if _, ok := reloaded.GeneratedFiles[g]; !ok {
		t.Fatalf("generated entry missing: %+v", reloaded.GeneratedFiles)
	}

	// Atomic write leaves no temp files behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, de := range entries {
		if strings.HasPrefix(de.Name(), ".manifest-") {
			t.Fatalf("temp file left behind: %s", de.Name())
		}
	}
}

func TestCommitReplacesSourcesAndMergesGenerated(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", "flowchart TD\n")
	b := writeFile(t, dir, "b.md", "flowchart LR\n")
	g1 := writeFile(t, dir, "a.ts", "export {};\n")
	g2 := writeFile(t, dir, "b.ts", "export {};\n")

	mgr := Load(filepath.Join(dir, "manifest.json"))
	if err := mgr.Commit([]string{a, b}, []string{g1}); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := mgr.Commit([]string{a}, []string{g2}); err != nil {
		t.Fatalf("second commit: %v", err)
	}

	m := mgr.Manifest()
	if len(m.SourceFiles) != 1 {
		t.Fatalf("sources not replaced wholesale: %+v", m.SourceFiles)
	}
	if _, ok := m.SourceFiles[a]; !ok {
		t.Fatalf("surviving source missing: %+v", m.SourceFiles)
	}
	if len(m.GeneratedFiles) != 2 {
		t.Fatalf("generated entries not merged: %+v", m.GeneratedFiles)
	}
}

func TestIsUpToDateLifecycle(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", "flowchart TD\n")
	g := writeFile(t, dir, "a.ts", "export {};\n")
	mgr := Load(filepath.Join(dir, "manifest.json"))

	if mgr.IsUpToDate([]string{a}) {
		t.Fatal("never-built manifest reported up to date")
	}
	if err := mgr.Commit([]string{a}, []string{g}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !mgr.IsUpToDate([]string{a}) {
		t.Fatal("expected up to date after commit")
	}

	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(a, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if mgr.IsUpToDate([]string{a}) {
		t.Fatal("touched source reported up to date")
	}

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(a, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if !mgr.IsUpToDate([]string{a}) {
		t.Fatal("expected up to date with an old source")
	}

	if err := os.Remove(g); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if mgr.IsUpToDate([]string{a}) {
		t.Fatal("missing generated artifact reported up to date")
	}
}

func TestIsUpToDateMissingSource(t *testing.T) {
	dir := t.TempDir()
	mgr := Load(filepath.Join(dir, "manifest.json"))
	if mgr.IsUpToDate([]string{filepath.Join(dir, "gone.md")}) {
		t.Fatal("unreadable source reported up to date")
	}
}

func TestManifestCopyIsDetached(t *testing.T) {
	mgr := New(filepath.Join(t.TempDir(), "manifest.json"))
	m := mgr.Manifest()
	m.SourceFiles["x"] = Entry{Hash: "h"}
	if _, ok := mgr.Manifest().SourceFiles["x"]; ok {
		t.Fatal("manifest copy shares state with the manager")
	}
}
