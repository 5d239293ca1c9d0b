package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// buildTree creates the named files (slash-separated, relative) under a
// fresh temp dir and returns its path.
func buildTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("buildTree: mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("buildTree: write: %v", err)
		}
	}
	return root
}

func relSnapshot(t *testing.T, s *Scanner, root string) []string {
	t.Helper()
	var rel []string
	for _, f := range s.Snapshot() {
		r, err := filepath.Rel(root, f)
		if err != nil {
			t.Fatalf("Rel(%s, %s): %v", root, f, err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	sort.Strings(rel)
	return rel
}

func TestScanner_Snapshot_ExtensionSelection(t *testing.T) {
	root := buildTree(t,
		"main.go",
		"pkg/util.go",
		"pkg/data.json",
		"README.md",
	)

	s, err := New(Config{Roots: []string{root}, Extensions: []string{".go"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := relSnapshot(t, s, root)
	want := []string{"main.go", "pkg/util.go"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}

func TestScanner_Snapshot_PrunesWellKnownDirs(t *testing.T) {
	root := buildTree(t,
		"main.go",
		".git/objects/blob.go",
		"node_modules/lib/index.go",
	)

	s, err := New(Config{Roots: []string{root}, Extensions: []string{".go"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := relSnapshot(t, s, root)
	if len(got) != 1 || got[0] != "main.go" {
		t.Errorf("Snapshot() = %v, want [main.go]", got)
	}
}

func TestScanner_Snapshot_IncludeGlobAddsFiles(t *testing.T) {
	root := buildTree(t,
		"main.go",
		"templates/index.html",
		"templates/partials/nav.html",
		"static/app.css",
	)

	s, err := New(Config{
		Roots:      []string{root},
		Extensions: []string{".go"},
		Include:    []string{"templates/**/*.html"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := relSnapshot(t, s, root)
	want := []string{"main.go", "templates/index.html", "templates/partials/nav.html"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}

func TestScanner_Snapshot_ExcludeGlob(t *testing.T) {
	root := buildTree(t,
		"svc.go",
		"svc_test.go",
		"internal/deep/gen.go",
		"internal/testdata/fixture.go",
	)

	s, err := New(Config{
		Roots:      []string{root},
		Extensions: []string{".go"},
		Exclude:    []string{"*_test.go", "**/testdata"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got := relSnapshot(t, s, root)
	want := []string{"internal/deep/gen.go", "svc.go"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}

// TestScanner_Snapshot_EmptyFiltersMatchEverything verifies the default
// configuration tracks every regular file.
func TestScanner_Snapshot_EmptyFiltersMatchEverything(t *testing.T) {
	root := buildTree(t, "a.txt", "b/c.bin")

	s, err := New(Config{Roots: []string{root}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := relSnapshot(t, s, root); len(got) != 2 {
		t.Errorf("Snapshot() = %v, want 2 files", got)
	}
}

// TestScanner_Snapshot_OverlappingRootsDeduplicated verifies a nested root
// does not double-report the files its parent already covers.
func TestScanner_Snapshot_OverlappingRootsDeduplicated(t *testing.T) {
	root := buildTree(t, "pkg/a.go", "pkg/b.go")

	s, err := New(Config{
		Roots:      []string{root, filepath.Join(root, "pkg")},
		Extensions: []string{".go"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := relSnapshot(t, s, root); len(got) != 2 {
		t.Errorf("Snapshot() = %v, want 2 unique files", got)
	}
}

func TestScanner_Validate(t *testing.T) {
	root := buildTree(t, "real/keep.go")
	file := filepath.Join(root, "real", "keep.go")
	missingA := filepath.Join(root, "missing-a")
	missingB := filepath.Join(root, "missing-b")

	s, err := New(Config{Roots: []string{filepath.Join(root, "real"), missingA, missingB, file}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = s.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want errors for three bad roots")
	}
	msg := err.Error()
	for _, frag := range []string{missingA, missingB, "not a directory"} {
		if !strings.Contains(msg, frag) {
			t.Errorf("Validate() error %q missing %q", msg, frag)
		}
	}

	ok, err := New(Config{Roots: []string{filepath.Join(root, "real")}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() on a good root = %v", err)
	}
}

func TestScanner_New_RejectsBadGlob(t *testing.T) {
	if _, err := New(Config{Exclude: []string{"["}}); err == nil {
		t.Error("New() accepted an invalid exclude pattern")
	}
	if _, err := New(Config{Include: []string{"[a-"}}); err == nil {
		t.Error("New() accepted an invalid include pattern")
	}
}

func TestScanner_Roots_AbsoluteAndSorted(t *testing.T) {
	root := buildTree(t, "b/x.go", "a/y.go")

	s, err := New(Config{Roots: []string{
		filepath.Join(root, "b"),
		filepath.Join(root, "a"),
	}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	roots := s.Roots()
	if len(roots) != 2 {
		t.Fatalf("Roots() = %v, want 2 entries", roots)
	}
	if !filepath.IsAbs(roots[0]) || !filepath.IsAbs(roots[1]) {
		t.Errorf("Roots() = %v, want absolute paths", roots)
	}
	if roots[0] > roots[1] {
		t.Errorf("Roots() = %v, want sorted order", roots)
	}
}
