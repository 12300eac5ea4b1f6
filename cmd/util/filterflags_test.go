package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilterFlags_BuildReturnsNilWhenUnset(t *testing.T) {
	f := &FilterFlags{}
	filter, err := f.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter != nil {
		t.Error("expected a nil filter when no include/exclude flags or ignore file are set")
	}
}

func TestFilterFlags_BuildCollectsIncludeAndExclude(t *testing.T) {
	f := &FilterFlags{Include: []string{"public.orders"}, Exclude: []string{"public.audit_*"}}
	filter, err := f.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter == nil {
		t.Fatal("expected a non-nil filter")
	}
}

func TestFilterFlags_BuildFoldsFileBasedPatterns(t *testing.T) {
	dir := t.TempDir()
	excludeFile := filepath.Join(dir, "exclude.txt")
	if err := os.WriteFile(excludeFile, []byte("public.legacy\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := &FilterFlags{ExcludeFile: excludeFile}
	filter, err := f.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter == nil {
		t.Fatal("expected a non-nil filter once --exclude-file adds a pattern")
	}
}
