// Package drift implements "pgmold drift" (spec.md §6).
package drift

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pgmold/pgmold"
	"github.com/pgmold/pgmold/cmd/util"
	"github.com/spf13/cobra"
)

var (
	schemaSpec   string
	databaseSpec string
	jsonOutput   bool
)

var DriftCmd = &cobra.Command{
	Use:          "drift",
	Short:        "Report whether a live database has drifted from its declared schema",
	RunE:         runDrift,
	SilenceUsage: true,
}

func init() {
	DriftCmd.Flags().StringVar(&schemaSpec, "schema", "", "Declared schema source (sql:<path>) (required)")
	DriftCmd.Flags().StringVar(&databaseSpec, "database", "", "Live database connection URL (required)")
	DriftCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the drift report as JSON")
	DriftCmd.MarkFlagRequired("schema")
	DriftCmd.MarkFlagRequired("database")
	DriftCmd.PreRunE = util.ResolveDatabaseURLFromEnv(DriftCmd, "database", &databaseSpec)
}

func runDrift(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	schema, err := pgmold.Load(ctx, schemaSpec)
	if err != nil {
		return emitError(cmd, err)
	}
	database, err := pgmold.Load(ctx, "db:"+databaseSpec)
	if err != nil {
		return emitError(cmd, err)
	}

	report, err := pgmold.Drift(schema, database)
	if err != nil {
		return emitError(cmd, err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "expected: %s\nactual:   %s\n", report.ExpectedFingerprint, report.ActualFingerprint)
		for _, d := range report.Differences {
			fmt.Fprintln(cmd.OutOrStdout(), "  "+d)
		}
	}

	if report.HasDrift {
		os.Exit(1)
	}
	return nil
}

// emitError prints the terminal {"error": {...}} object spec.md §7 requires
// for JSON output modes, then exits 2 (CatalogError/InputError class
// failure for the drift command).
func emitError(cmd *cobra.Command, err error) error {
	if jsonOutput {
		enc := json.NewEncoder(cmd.ErrOrStderr())
		enc.Encode(map[string]any{"error": map[string]string{"message": err.Error()}})
	} else {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}
	os.Exit(2)
	return nil
}
