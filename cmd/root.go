package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pgmold/pgmold/cmd/apply"
	"github.com/pgmold/pgmold/cmd/baseline"
	"github.com/pgmold/pgmold/cmd/config"
	"github.com/pgmold/pgmold/cmd/diff"
	"github.com/pgmold/pgmold/cmd/drift"
	"github.com/pgmold/pgmold/cmd/dump"
	"github.com/pgmold/pgmold/cmd/lint"
	"github.com/pgmold/pgmold/cmd/migrate"
	"github.com/pgmold/pgmold/cmd/plan"
	"github.com/pgmold/pgmold/internal/logger"
	"github.com/pgmold/pgmold/internal/version"
	"github.com/spf13/cobra"
)

var Debug bool

var RootCmd = &cobra.Command{
	Use:   "pgmold",
	Short: "PostgreSQL declarative schema migration tool",
	Long: fmt.Sprintf(`pgmold is a CLI tool to plan and apply declarative PostgreSQL schema migrations.

Version: %s@%s %s %s

Commands:
  diff      Print the DDL difference between two schema sources
  plan      Generate an ordered migration plan
  apply     Apply a migration to a live database
  drift     Report whether a database has drifted from its declared schema
  dump      Dump a live database's schema as round-trippable DDL
  lint      Check a migration plan against the built-in safety rules
  baseline  Capture a live database's schema as a baseline DDL file
  migrate   Generate and manage versioned migration files

Use "pgmold [command] --help" for more information about a command.`,
		version.Version(), version.GetGitCommit(), version.Platform(), version.GetBuildDate()),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.AddCommand(diff.DiffCmd)
	RootCmd.AddCommand(plan.PlanCmd)
	RootCmd.AddCommand(apply.ApplyCmd)
	RootCmd.AddCommand(drift.DriftCmd)
	RootCmd.AddCommand(dump.DumpCmd)
	RootCmd.AddCommand(lint.LintCmd)
	RootCmd.AddCommand(baseline.BaselineCmd)
	RootCmd.AddCommand(migrate.MigrateCmd)
	RootCmd.AddCommand(config.ConfigCmd)
	RootCmd.AddCommand(VersionCmd)
}

func setupLogger() {
	level := slog.LevelInfo
	if Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	logger.SetGlobal(slog.New(handler), Debug)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
