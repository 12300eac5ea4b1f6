// Package dump implements "pgmold dump" (spec.md §6).
package dump

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgmold/pgmold"
	"github.com/pgmold/pgmold/cmd/util"
	"github.com/pgmold/pgmold/internal/differ"
	"github.com/pgmold/pgmold/internal/planner"
	"github.com/pgmold/pgmold/internal/sqlgen"
	"github.com/pgmold/pgmold/ir"
	"github.com/spf13/cobra"
)

var (
	databaseSpec string
	split        bool
	outFile      string
)

var DumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Dump a live database's schema as round-trippable DDL",
	RunE:         runDump,
	SilenceUsage: true,
}

func init() {
	DumpCmd.Flags().StringVar(&databaseSpec, "database", "", "Database connection URL (required)")
	DumpCmd.Flags().BoolVar(&split, "split", false, "Write one file per operation kind instead of a single script")
	DumpCmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file (single-file mode) or directory (--split mode)")
	DumpCmd.MarkFlagRequired("database")
	DumpCmd.PreRunE = util.ResolveDatabaseURLFromEnv(DumpCmd, "database", &databaseSpec)
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	schema, err := pgmold.Load(ctx, "db:"+databaseSpec)
	if err != nil {
		return fmt.Errorf("loading --database: %w", err)
	}

	// A dump is the migration plan from an empty schema to the introspected
	// one: the planner's kind/dependency ordering is exactly what round-trip
	// applying a dump requires.
	ops := differ.Diff(ir.New(), schema)
	ordered := planner.Plan(ops, schema)

	if !split {
		ddl := strings.Join(sqlgen.Generate(ordered), "\n\n")
		if outFile == "" {
			fmt.Fprintln(cmd.OutOrStdout(), ddl)
			return nil
		}
		return os.WriteFile(outFile, []byte(ddl+"\n"), 0o644)
	}

	dir := outFile
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating split dump directory: %w", err)
	}
	return writeSplit(dir, ordered)
}

// writeSplit writes one file per operation kind, numbered in the planner's
// create-side kind order so that applying them in filename order reproduces
// the dependency order the single-file dump already encodes.
func writeSplit(dir string, ops []ir.MigrationOp) error {
	byKind := map[string][]ir.MigrationOp{}
	var order []string
	for _, op := range ops {
		key := string(op.Kind)
		if _, ok := byKind[key]; !ok {
			order = append(order, key)
		}
		byKind[key] = append(byKind[key], op)
	}

	for i, key := range order {
		ddl := strings.Join(sqlgen.Generate(byKind[key]), "\n\n")
		name := filepath.Join(dir, fmt.Sprintf("%02d_%s.sql", i, key))
		if err := os.WriteFile(name, []byte(ddl+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}
