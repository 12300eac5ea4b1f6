package util

import "testing"

func TestWithApplicationName_SetsParameterOnPlainURL(t *testing.T) {
	got, err := WithApplicationName("postgres://user@host:5432/db", "pgmold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "postgres://user@host:5432/db?application_name=pgmold"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWithApplicationName_PreservesExistingParameters(t *testing.T) {
	got, err := WithApplicationName("postgres://user@host:5432/db?sslmode=require", "pgmold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "postgres://user@host:5432/db?application_name=pgmold&sslmode=require"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWithApplicationName_EmptyNameLeavesURLUntouched(t *testing.T) {
	const url = "postgres://user@host:5432/db"
	got, err := WithApplicationName(url, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != url {
		t.Errorf("expected URL untouched, got %q", got)
	}
}
