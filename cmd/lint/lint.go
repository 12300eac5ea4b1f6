// Package lint implements "pgmold lint" (spec.md §6).
package lint

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/pgmold/pgmold"
	"github.com/pgmold/pgmold/internal/linter"
	"github.com/pgmold/pgmold/ir"
	"github.com/spf13/cobra"
)

var (
	schemaSpec   string
	databaseSpec string
)

var LintCmd = &cobra.Command{
	Use:          "lint",
	Short:        "Lint the migration from --database (or nothing) to --schema",
	RunE:         runLint,
	SilenceUsage: true,
}

func init() {
	LintCmd.Flags().StringVar(&schemaSpec, "schema", "", "Desired schema source (sql:<path>) (required)")
	LintCmd.Flags().StringVar(&databaseSpec, "database", "", "Optional current database connection URL; omit to lint schema's create-from-scratch plan")
	LintCmd.MarkFlagRequired("schema")
}

func runLint(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	schema, err := pgmold.Load(ctx, schemaSpec)
	if err != nil {
		return fmt.Errorf("loading --schema: %w", err)
	}

	from := ir.New()
	if databaseSpec != "" {
		from, err = pgmold.Load(ctx, "db:"+databaseSpec)
		if err != nil {
			return fmt.Errorf("loading --database: %w", err)
		}
	}

	migration := pgmold.Diff(from, schema, pgmold.DiffOptions{})
	result := pgmold.Lint(migration, linter.Options{
		ProductionMode: os.Getenv("PGMOLD_PROD") == "1",
	})

	out := cmd.OutOrStdout()
	for _, issue := range result.Issues {
		printer := pterm.Info
		switch issue.Severity {
		case linter.SeverityError:
			printer = pterm.Error
		case linter.SeverityWarning:
			printer = pterm.Warning
		}
		printer.WithWriter(out).Printfln("%s: %s", issue.RuleID, issue.Message)
	}

	if result.BlocksPlan {
		os.Exit(1)
	}
	return nil
}
