// Package diff implements "pgmold diff", the stateless two-source
// comparison command (spec.md §6).
package diff

import (
	"context"
	"fmt"

	"github.com/pgmold/pgmold"
	"github.com/pgmold/pgmold/cmd/util"
	"github.com/pgmold/pgmold/internal/color"
	"github.com/spf13/cobra"
)

var (
	fromSpec   string
	toSpec     string
	noColor    bool
	filterOpts util.FilterFlags
)

var DiffCmd = &cobra.Command{
	Use:          "diff",
	Short:        "Print the DDL that takes --from to --to",
	Long:         "Compare two schema sources and print the ordered DDL statements that migrate --from into --to.",
	RunE:         runDiff,
	SilenceUsage: true,
}

func init() {
	DiffCmd.Flags().StringVar(&fromSpec, "from", "", "Source schema (sql:<path> or db:<url>) (required)")
	DiffCmd.Flags().StringVar(&toSpec, "to", "", "Target schema (sql:<path> or db:<url>) (required)")
	DiffCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored +/~/- action prefixes")
	filterOpts.Register(DiffCmd)
	DiffCmd.MarkFlagRequired("from")
	DiffCmd.MarkFlagRequired("to")
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	from, err := pgmold.Load(ctx, fromSpec)
	if err != nil {
		return fmt.Errorf("loading --from: %w", err)
	}
	to, err := pgmold.Load(ctx, toSpec)
	if err != nil {
		return fmt.Errorf("loading --to: %w", err)
	}

	f, err := filterOpts.Build()
	if err != nil {
		return err
	}
	plan := pgmold.Diff(from, to, pgmold.DiffOptions{Filter: f})
	c := color.New(!noColor)
	for _, stmt := range plan.DDL {
		fmt.Fprintln(cmd.OutOrStdout(), util.FormatStatement(c, stmt))
	}
	return nil
}
