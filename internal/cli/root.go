// Package cli wires the command-line interface using Cobra.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command and attaches all sub-commands
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "etl",
		Short:        "Multi-source ETL into a data-lake layout",
		Long:         "etl extracts records from APIs, databases, search indices and files,\nruns them through a staged transformation pipeline and persists the\nresult with a provenance sidecar.",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newNormalizeCmd())

	return rootCmd
}
