package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/pgmold/pgmold/internal/version"
	"github.com/spf13/cobra"
)

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			buf.WriteString(fmt.Sprintf("pgmold version %s\n", version.Version()))
		},
	}

	cmd := &cobra.Command{Use: "pgmold"}
	cmd.AddCommand(versionCmd)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Errorf("version command failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "pgmold version") {
		t.Errorf("expected version output to contain 'pgmold version', got: %s", output)
	}
}

func TestVersionCommandOutput(t *testing.T) {
	var buf bytes.Buffer

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			buf.WriteString(fmt.Sprintf("pgmold version %s\n", version.Version()))
		},
	}

	rootCmd := &cobra.Command{Use: "pgmold"}
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetArgs([]string{"version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command execution failed: %v", err)
	}

	output := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(output, "pgmold version ") {
		t.Errorf("expected output to start with 'pgmold version ', got: %s", output)
	}

	versionPart := strings.TrimPrefix(output, "pgmold version ")
	if len(versionPart) == 0 {
		t.Error("expected version information after 'pgmold version ', got empty string")
	}
}
