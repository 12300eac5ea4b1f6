package config

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect pgmold's project configuration (pgmold.yaml)",
}

var dumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Print the resolved pgmold.yaml configuration",
	RunE:         runDump,
	SilenceUsage: true,
}

func init() {
	ConfigCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	out, err := Dump(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
