package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AeroNyxNetwork/nodeboard/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), version.GetInfo())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "nodeboard %s (commit %s, built %s)\n",
				version.Version, version.GetShortCommit(), version.BuildDate)
			return nil
		},
	}
}
