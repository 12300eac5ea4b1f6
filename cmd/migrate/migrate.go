// Package migrate implements "pgmold migrate generate" (spec.md §6): write
// the DDL that takes --from to --to as a new numbered migration file in
// --dir, alongside any migrations already there.
package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pgmold/pgmold"
	"github.com/spf13/cobra"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Generate and manage versioned migration files",
}

var (
	fromSpec string
	toSpec   string
	dir      string
	prefix   string
)

var generateCmd = &cobra.Command{
	Use:          "generate",
	Short:        "Write the DDL from --from to --to as a new numbered migration file",
	RunE:         runGenerate,
	SilenceUsage: true,
}

func init() {
	generateCmd.Flags().StringVar(&fromSpec, "from", "", "Source schema (sql:<path> or db:<url>) (required)")
	generateCmd.Flags().StringVar(&toSpec, "to", "", "Target schema (sql:<path> or db:<url>) (required)")
	generateCmd.Flags().StringVar(&dir, "dir", "migrations", "Directory to write the migration file into")
	generateCmd.Flags().StringVar(&prefix, "prefix", "", "Optional filename prefix before the sequence number")
	generateCmd.MarkFlagRequired("from")
	generateCmd.MarkFlagRequired("to")

	MigrateCmd.AddCommand(generateCmd)
}

var seqPattern = regexp.MustCompile(`^(\d{4})_`)

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	from, err := pgmold.Load(ctx, fromSpec)
	if err != nil {
		return fmt.Errorf("loading --from: %w", err)
	}
	to, err := pgmold.Load(ctx, toSpec)
	if err != nil {
		return fmt.Errorf("loading --to: %w", err)
	}

	migration := pgmold.Diff(from, to, pgmold.DiffOptions{})
	if len(migration.DDL) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no differences; no migration file written")
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating --dir: %w", err)
	}

	seq, err := nextSequence(dir, prefix)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s%04d_%s.sql", prefix, seq, time.Now().Format("20060102150405"))
	path := filepath.Join(dir, name)
	body := strings.Join(migration.DDL, "\n\n")
	if err := os.WriteFile(path, []byte(body+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing migration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d statements)\n", path, len(migration.DDL))
	return nil
}

// nextSequence scans dir for files named "<prefix><NNNN>_..." and returns
// one past the highest NNNN found, or 1 if none exist.
func nextSequence(dir, prefix string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading --dir: %w", err)
	}

	max := 0
	for _, e := range entries {
		name := e.Name()
		if prefix != "" {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			name = strings.TrimPrefix(name, prefix)
		}
		m := seqPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}
