package cmd

import (
	"fmt"

	"github.com/pgmold/pgmold/internal/version"
	"github.com/spf13/cobra"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version number of pgmold",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pgmold v%s@%s %s %s\n", version.Version(), version.GetGitCommit(), version.Platform(), version.GetBuildDate())
	},
}
