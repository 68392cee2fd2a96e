package discovery

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"MissionReady/internal/domain"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDiscoverAssignsSequentialIDs(t *testing.T) {
	t.Parallel()

	base1 := t.TempDir()
	base2 := t.TempDir()

	writeFile(t, filepath.Join(base1, "Alpha Mission", "brief.pptx"), []byte("x"))
	writeFile(t, filepath.Join(base1, "Alpha Mission", "risk.pdf"), []byte("x"))
	writeFile(t, filepath.Join(base1, "bravo", "risk.pdf"), []byte("x"))
	writeFile(t, filepath.Join(base1, "bravo", "notes.txt"), []byte("ignore me"))
	writeFile(t, filepath.Join(base2, "charlie", "brief.pptx"), []byte("x"))

	source := NewDirectorySource([]string{base1, base2}, nil)
	docs, err := source.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(docs) != 4 {
		t.Fatalf("expected 4 documents, got %d: %+v", len(docs), docs)
	}

	ids := map[string]int{}
	for _, doc := range docs {
		ids[doc.SourceDirectoryName] = doc.SourceDirectoryID
	}
	if ids["Alpha Mission"] != 1 || ids["bravo"] != 2 || ids["charlie"] != 3 {
		t.Fatalf("unexpected ID assignment: %v", ids)
	}

	for _, doc := range docs {
		if doc.SourceDirectoryName == "Alpha Mission" && doc.Slug != "alpha-mission" {
			t.Fatalf("unexpected slug: %q", doc.Slug)
		}
	}
}

func TestDiscoverClassifiesByExtensionThenMagic(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	// extension wins even for content that does not match it, so broken
	// files still reach the extractor and get reported there
	writeFile(t, filepath.Join(base, "unit", "empty.pdf"), nil)
	writeFile(t, filepath.Join(base, "unit", "deck.pptx"), []byte("whatever"))
	// no known extension: fall back to the content signature
	writeFile(t, filepath.Join(base, "unit", "export.bin"), []byte("%PDF-1.7 rest"))
	writeFile(t, filepath.Join(base, "unit", "archive"), []byte("PK\x03\x04rest"))
	writeFile(t, filepath.Join(base, "unit", "readme"), []byte("plain text"))

	source := NewDirectorySource([]string{base}, nil)
	docs, err := source.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	kinds := map[string]domain.DocumentKind{}
	for _, doc := range docs {
		kinds[filepath.Base(doc.Path)] = doc.Kind
	}

	want := map[string]domain.DocumentKind{
		"empty.pdf":  domain.KindDraw,
		"deck.pptx":  domain.KindConop,
		"export.bin": domain.KindDraw,
		"archive":    domain.KindConop,
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("classification mismatch:\n got %v\nwant %v", kinds, want)
	}
}

func TestDiscoverIsReproducible(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, filepath.Join(base, "one", "a.pptx"), []byte("x"))
	writeFile(t, filepath.Join(base, "two", "b.pdf"), []byte("x"))
	writeFile(t, filepath.Join(base, "three", "c.pdf"), []byte("x"))

	source := NewDirectorySource([]string{base}, nil)

	first, err := source.Discover(context.Background())
	if err != nil {
		t.Fatalf("first Discover: %v", err)
	}
	second, err := source.Discover(context.Background())
	if err != nil {
		t.Fatalf("second Discover: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reruns over unchanged inputs must match:\n%+v\n%+v", first, second)
	}
}

func TestDiscoverSkipsTopLevelFiles(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, filepath.Join(base, "stray.pdf"), []byte("x"))
	writeFile(t, filepath.Join(base, "unit", "real.pdf"), []byte("x"))

	source := NewDirectorySource([]string{base}, nil)
	docs, err := source.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(docs) != 1 || filepath.Base(docs[0].Path) != "real.pdf" {
		t.Fatalf("top-level files must be ignored, got %+v", docs)
	}
}

func TestDiscoverMissingBase(t *testing.T) {
	t.Parallel()

	source := NewDirectorySource([]string{filepath.Join(t.TempDir(), "absent")}, nil)
	if _, err := source.Discover(context.Background()); err == nil {
		t.Fatal("expected an error for a missing base directory")
	}
}
