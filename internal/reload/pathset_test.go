package reload

import (
	"path/filepath"
	"testing"
)

func TestPathSet_Files(t *testing.T) {
	dir := t.TempDir()
	srcA := filepath.Join(dir, "a.py")
	srcB := filepath.Join(dir, "b.py")
	artifact := filepath.Join(dir, "c.pyc")
	writeFile(t, srcA, "a")
	writeFile(t, srcB, "b")
	writeFile(t, artifact, "c")

	sources := []string{srcA, srcB, artifact, srcA} // srcA listed twice
	ps := NewPathSet(Options{
		Sources:  func() []string { return sources },
		Suffixes: Suffixes{Source: []string{".py"}, Compiled: map[string]string{".pyc": ".py"}},
	})

	got := ps.Files()
	want := []string{srcA, srcB, filepath.Join(dir, "c.py")}
	if len(got) != len(want) {
		t.Fatalf("Files() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Files()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestPathSet_Files_AscendsToExistingFile verifies that a source location
// pointing inside a container file (an archive member, say) resolves to
// the nearest ancestor that is a regular file.
func TestPathSet_Files_AscendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bundle.zip")
	writeFile(t, archive, "zip")

	member := filepath.Join(archive, "pkg", "mod.py")
	ps := NewPathSet(Options{
		Sources:  func() []string { return []string{member} },
		Suffixes: Suffixes{Source: []string{".py"}},
	})

	got := ps.Files()
	if len(got) != 1 || got[0] != archive {
		t.Errorf("Files() = %v, want [%s]", got, archive)
	}
}

// TestPathSet_Files_DropsMissingChain verifies that a location whose whole
// ancestor chain is gone is skipped rather than reported.
func TestPathSet_Files_DropsMissingChain(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone", "deeper", "mod.py")
	ps := NewPathSet(Options{
		Sources:  func() []string { return []string{missing} },
		Suffixes: Suffixes{Source: []string{".py"}},
	})

	if got := ps.Files(); len(got) != 0 {
		t.Errorf("Files() = %v, want empty", got)
	}
}

func TestPathSet_Extra(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "app.yaml")
	env := filepath.Join(dir, ".env")
	writeFile(t, cfg, "x")
	writeFile(t, env, "y")

	ps := NewPathSet(Options{
		ExtraFiles: []string{cfg, env, cfg}, // duplicate collapses
	})

	extra := ps.Extra()
	if len(extra) != 2 {
		t.Fatalf("Extra() = %v, want 2 entries", extra)
	}
	// Sorted order: ".env" before "app.yaml".
	if extra[0] != env || extra[1] != cfg {
		t.Errorf("Extra() = %v, want [%s %s]", extra, env, cfg)
	}

	if !ps.IsExtra(cfg) {
		t.Errorf("IsExtra(%q) = false, want true", cfg)
	}
	if ps.IsExtra(filepath.Join(dir, "other.yaml")) {
		t.Error("IsExtra() reported an unrelated path")
	}

	// Extras appear in Files() even without a sources snapshot, and even
	// when they carry no source suffix.
	files := ps.Files()
	if len(files) != 2 {
		t.Errorf("Files() = %v, want the two extras", files)
	}
}

func TestPathSet_ObservableDirs(t *testing.T) {
	dir := t.TempDir()
	pkgDir := filepath.Join(dir, "pkg")
	src := filepath.Join(pkgDir, "mod.py")
	cfg := filepath.Join(dir, "conf", "app.yaml")
	search := filepath.Join(dir, "vendor")
	writeFile(t, src, "s")
	writeFile(t, cfg, "c")

	ps := NewPathSet(Options{
		Sources:    func() []string { return []string{src} },
		SearchDirs: func() []string { return []string{search} },
		ExtraFiles: []string{cfg},
		Suffixes:   Suffixes{Source: []string{".py"}},
	})

	dirs := ps.ObservableDirs()
	for _, want := range []string{search, filepath.Dir(cfg), pkgDir} {
		if _, ok := dirs[want]; !ok {
			t.Errorf("ObservableDirs() missing %q (got %v)", want, dirs)
		}
	}
	if len(dirs) != 3 {
		t.Errorf("ObservableDirs() has %d entries, want 3: %v", len(dirs), dirs)
	}
}

// TestPathSet_SnapshotsQueriedFresh verifies that path sets see snapshot
// growth between calls without any reconstruction.
func TestPathSet_SnapshotsQueriedFresh(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.py")
	second := filepath.Join(dir, "second.py")
	writeFile(t, first, "1")

	current := []string{first}
	ps := NewPathSet(Options{
		Sources:  func() []string { return current },
		Suffixes: Suffixes{Source: []string{".py"}},
	})

	if got := ps.Files(); len(got) != 1 {
		t.Fatalf("Files() = %v, want one entry", got)
	}

	writeFile(t, second, "2")
	current = append(current, second)

	if got := ps.Files(); len(got) != 2 {
		t.Errorf("Files() after snapshot growth = %v, want two entries", got)
	}
}
