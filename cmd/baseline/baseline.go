// Package baseline implements "pgmold baseline" (spec.md §6): capture a
// live database's current shape as a starting-point DDL file, so future
// diffs compare against it instead of an empty schema.
package baseline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pgmold/pgmold"
	"github.com/pgmold/pgmold/cmd/util"
	"github.com/pgmold/pgmold/internal/differ"
	"github.com/pgmold/pgmold/internal/planner"
	"github.com/pgmold/pgmold/internal/sqlgen"
	"github.com/pgmold/pgmold/ir"
	"github.com/spf13/cobra"
)

// baselineMeta records the fingerprint a baseline was captured at, the
// capture time and the database it was taken from. It is written beside
// the baseline file; no pgmold command reads it back.
type baselineMeta struct {
	Fingerprint string    `toml:"fingerprint"`
	CapturedAt  string    `toml:"captured_at"`
	Database    string    `toml:"database"`
}

func writeBaselineMeta(path, fingerprint, database string, capturedAt time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating baseline metadata file: %w", err)
	}
	defer f.Close()

	meta := baselineMeta{
		Fingerprint: fingerprint,
		CapturedAt:  capturedAt.Format(time.RFC3339),
		Database:    database,
	}
	return toml.NewEncoder(f).Encode(meta)
}

var (
	databaseSpec string
	outputFile   string
	strict       bool
)

var BaselineCmd = &cobra.Command{
	Use:          "baseline",
	Short:        "Capture a live database's schema as a baseline DDL file",
	RunE:         runBaseline,
	SilenceUsage: true,
}

func init() {
	BaselineCmd.Flags().StringVar(&databaseSpec, "database", "", "Database connection URL (required)")
	BaselineCmd.Flags().StringVar(&outputFile, "output", "", "Baseline DDL output path (required)")
	BaselineCmd.Flags().BoolVar(&strict, "strict", false, "Fail if any table column has a raw/unrecognised type")
	BaselineCmd.MarkFlagRequired("database")
	BaselineCmd.MarkFlagRequired("output")
	BaselineCmd.PreRunE = util.ResolveDatabaseURLFromEnv(BaselineCmd, "database", &databaseSpec)
}

func runBaseline(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	schema, err := pgmold.Load(ctx, "db:"+databaseSpec)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}

	unresolved := countRawTypes(schema)
	if strict && unresolved > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "strict baseline: %d object(s) fell back to a raw/unrecognised type\n", unresolved)
		os.Exit(2)
	}

	ops := differ.Diff(ir.New(), schema)
	ordered := planner.Plan(ops, schema)
	stmts := sqlgen.Generate(ordered)
	ddl := strings.Join(stmts, "\n\n")

	if err := os.WriteFile(outputFile, []byte(ddl+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing baseline file: %w", err)
	}

	fingerprint, err := pgmold.Fingerprint(schema)
	if err != nil {
		return fmt.Errorf("fingerprinting baseline: %w", err)
	}
	metaPath := outputFile + ".pgmold-baseline.toml"
	if err := writeBaselineMeta(metaPath, fingerprint, databaseSpec, time.Now()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "baseline captured: %d statement(s) written to %s (metadata: %s)\n", len(stmts), outputFile, metaPath)
	if unresolved > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %d object(s) used a raw/unrecognised type\n", unresolved)
	}
	return nil
}

func countRawTypes(schema *ir.Schema) int {
	count := 0
	for _, t := range schema.Tables {
		for _, c := range t.Columns {
			if c.Type.Tag == ir.TypeRaw {
				count++
			}
		}
	}
	return count
}
