package filter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadIgnoreFile_MissingFileIsNotAnError(t *testing.T) {
	patterns, err := LoadIgnoreFile(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("expected no error for a missing ignore file, got %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("expected no patterns for a missing ignore file, got %v", patterns)
	}
}

func TestLoadIgnoreFile_CollectsPatternsAcrossSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".pgmoldignore")
	const contents = `
[tables]
patterns = ["audit_*"]

[views]
patterns = ["legacy_view"]
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	patterns, err := LoadIgnoreFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns across sections, got %v", patterns)
	}
}

func TestLoadIgnoreFile_FeedsApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".pgmoldignore")
	if err := os.WriteFile(path, []byte("[tables]\npatterns = [\"public.orders\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	patterns, err := LoadIgnoreFile(path)
	if err != nil {
		t.Fatal(err)
	}

	s := schemaWithOneTable()
	f := New(Config{ExcludeNames: patterns})
	out := Apply(s, f)
	if len(out.Tables) != 0 {
		t.Errorf("expected the ignore-file pattern to exclude public.orders, got %d tables", len(out.Tables))
	}
}
