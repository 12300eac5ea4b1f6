package filter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadNameListFile_SkipsBlankLinesAndComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tenants.txt")
	const contents = "# tenant allowlist\npublic.orders\n\n  \npublic.customers\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	patterns, err := LoadNameListFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 2 || patterns[0] != "public.orders" || patterns[1] != "public.customers" {
		t.Errorf("expected [public.orders public.customers], got %v", patterns)
	}
}

func TestLoadNameListFile_MissingFileIsAnError(t *testing.T) {
	_, err := LoadNameListFile(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	if err == nil {
		t.Fatal("expected an error for a missing include/exclude file, unlike the optional .pgmoldignore")
	}
}
