package util

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
)

func TestGetEnvWithDefault(t *testing.T) {
	// Test with existing env var
	os.Setenv("TEST_STRING", "test-value")
	if GetEnvWithDefault("TEST_STRING", "default") != "test-value" {
		t.Errorf("Expected GetEnvWithDefault to return 'test-value', got '%s'", GetEnvWithDefault("TEST_STRING", "default"))
	}

	// Test with missing env var
	os.Unsetenv("MISSING_VAR")
	if GetEnvWithDefault("MISSING_VAR", "default") != "default" {
		t.Errorf("Expected GetEnvWithDefault to return 'default', got '%s'", GetEnvWithDefault("MISSING_VAR", "default"))
	}

	// Test with empty env var (should return default)
	os.Setenv("EMPTY_VAR", "")
	if GetEnvWithDefault("EMPTY_VAR", "default") != "default" {
		t.Errorf("Expected GetEnvWithDefault to return 'default' for empty var, got '%s'", GetEnvWithDefault("EMPTY_VAR", "default"))
	}

	// Cleanup
	os.Unsetenv("TEST_STRING")
	os.Unsetenv("EMPTY_VAR")
}

func TestGetEnvIntWithDefault(t *testing.T) {
	// Test with valid int env var
	os.Setenv("TEST_INT", "12345")
	if GetEnvIntWithDefault("TEST_INT", 0) != 12345 {
		t.Errorf("Expected GetEnvIntWithDefault to return 12345, got %d", GetEnvIntWithDefault("TEST_INT", 0))
	}

	// Test with invalid int value (should return default)
	os.Setenv("TEST_INVALID_INT", "not-a-number")
	if GetEnvIntWithDefault("TEST_INVALID_INT", 999) != 999 {
		t.Errorf("Expected GetEnvIntWithDefault to return default 999, got %d", GetEnvIntWithDefault("TEST_INVALID_INT", 999))
	}

	// Test with missing env var
	os.Unsetenv("MISSING_INT_VAR")
	if GetEnvIntWithDefault("MISSING_INT_VAR", 777) != 777 {
		t.Errorf("Expected GetEnvIntWithDefault to return default 777, got %d", GetEnvIntWithDefault("MISSING_INT_VAR", 777))
	}

	// Test with empty env var (should return default)
	os.Setenv("EMPTY_INT_VAR", "")
	if GetEnvIntWithDefault("EMPTY_INT_VAR", 888) != 888 {
		t.Errorf("Expected GetEnvIntWithDefault to return default 888 for empty var, got %d", GetEnvIntWithDefault("EMPTY_INT_VAR", 888))
	}

	// Cleanup
	os.Unsetenv("TEST_INT")
	os.Unsetenv("TEST_INVALID_INT")
	os.Unsetenv("EMPTY_INT_VAR")
}

func TestResolveDatabaseURLFromEnv_FillsFromPGDatabase(t *testing.T) {
	os.Setenv("PGDATABASE", "test-db")
	os.Setenv("PGUSER", "test-user")
	os.Setenv("PGHOST", "test-host")
	os.Setenv("PGPORT", "1234")
	defer func() {
		os.Unsetenv("PGDATABASE")
		os.Unsetenv("PGUSER")
		os.Unsetenv("PGHOST")
		os.Unsetenv("PGPORT")
	}()

	var databaseSpec string
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&databaseSpec, "database", "", "")

	preRun := ResolveDatabaseURLFromEnv(cmd, "database", &databaseSpec)
	if err := preRun(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "postgres://test-user@test-host:1234/test-db"
	if databaseSpec != want {
		t.Errorf("got %q, want %q", databaseSpec, want)
	}
}

func TestResolveDatabaseURLFromEnv_LeavesExplicitFlagAlone(t *testing.T) {
	os.Setenv("PGDATABASE", "env-db")
	defer os.Unsetenv("PGDATABASE")

	databaseSpec := "postgres://explicit-host/explicit-db"
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&databaseSpec, "database", databaseSpec, "")
	cmd.Flags().Set("database", databaseSpec)

	preRun := ResolveDatabaseURLFromEnv(cmd, "database", &databaseSpec)
	if err := preRun(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if databaseSpec != "postgres://explicit-host/explicit-db" {
		t.Errorf("expected explicit --database to be left untouched, got %q", databaseSpec)
	}
}

func TestResolveDatabaseURLFromEnv_NoopWithoutPGDatabase(t *testing.T) {
	os.Unsetenv("PGDATABASE")

	var databaseSpec string
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&databaseSpec, "database", "", "")

	preRun := ResolveDatabaseURLFromEnv(cmd, "database", &databaseSpec)
	if err := preRun(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if databaseSpec != "" {
		t.Errorf("expected databaseSpec to remain empty, got %q", databaseSpec)
	}
}