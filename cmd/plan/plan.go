// Package plan implements "pgmold plan" (spec.md §6).
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pgmold/pgmold"
	"github.com/pgmold/pgmold/cmd/util"
	"github.com/pgmold/pgmold/internal/color"
	"github.com/spf13/cobra"
)

var (
	schemaSpec   string
	databaseSpec string
	reverse      bool
	estimateTime bool
	zeroDowntime bool
	noColor      bool
	filterOpts   util.FilterFlags
)

var PlanCmd = &cobra.Command{
	Use:          "plan",
	Short:        "Generate an ordered migration plan",
	Long:         "Compare a desired schema (--schema) against a live database (--database) and print the ordered migration plan.",
	RunE:         runPlan,
	SilenceUsage: true,
}

func init() {
	PlanCmd.Flags().StringVar(&schemaSpec, "schema", "", "Desired schema source (sql:<path>) (required)")
	PlanCmd.Flags().StringVar(&databaseSpec, "database", "", "Target database connection URL (required)")
	PlanCmd.Flags().BoolVar(&reverse, "reverse", false, "Compute the plan that takes --database back to --schema's state")
	PlanCmd.Flags().BoolVar(&estimateTime, "estimate-time", false, "Emit JSON with a rough per-statement time estimate")
	PlanCmd.Flags().BoolVar(&zeroDowntime, "zero-downtime", false, "Split the plan into Expand/Backfill/Contract phases")
	PlanCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored +/~/- action prefixes")
	filterOpts.Register(PlanCmd)
	PlanCmd.MarkFlagRequired("schema")
	PlanCmd.MarkFlagRequired("database")
	PlanCmd.PreRunE = util.ResolveDatabaseURLFromEnv(PlanCmd, "database", &databaseSpec)
}

// estimatedSeconds is a coarse per-kind heuristic: index and constraint
// validation scan the whole table, everything else is near-instant
// catalog metadata work.
func estimatedSeconds(stmt string) float64 {
	switch {
	case strings.Contains(stmt, "CREATE INDEX"), strings.Contains(stmt, "VALIDATE CONSTRAINT"):
		return 5.0
	case strings.Contains(stmt, "ALTER TABLE") && strings.Contains(stmt, "TYPE"):
		return 2.0
	default:
		return 0.1
	}
}

type statementEstimate struct {
	Statement        string  `json:"statement"`
	EstimatedSeconds float64 `json:"estimated_seconds"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	schema, err := pgmold.Load(ctx, schemaSpec)
	if err != nil {
		return fmt.Errorf("loading --schema: %w", err)
	}
	database, err := pgmold.Load(ctx, "db:"+databaseSpec)
	if err != nil {
		return fmt.Errorf("loading --database: %w", err)
	}

	from, to := database, schema
	if reverse {
		from, to = schema, database
	}

	f, err := filterOpts.Build()
	if err != nil {
		return err
	}
	migration := pgmold.Diff(from, to, pgmold.DiffOptions{Filter: f})

	out := cmd.OutOrStdout()

	switch {
	case zeroDowntime:
		phased := pgmold.ZeroDowntime(migration)
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(phased)

	case estimateTime:
		estimates := make([]statementEstimate, 0, len(migration.DDL))
		for _, stmt := range migration.DDL {
			estimates = append(estimates, statementEstimate{Statement: stmt, EstimatedSeconds: estimatedSeconds(stmt)})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(estimates)

	default:
		c := color.New(!noColor)
		fmt.Fprintf(out, "-- plan %s\n", migration.ID)
		for _, stmt := range migration.DDL {
			fmt.Fprintln(out, util.FormatStatement(c, stmt))
		}
		return nil
	}
}
