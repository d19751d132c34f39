// Package cmd implements the nodeboard command tree. Commands wire the
// auth manager, API client and data fetcher together per invocation;
// all durable state lives under ~/.nodeboard.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	apiURL      string
	output      string
	verbose     bool
	contextName string
)

// NewRootCmd returns the root command for the nodeboard CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nodeboard",
		Short:         "nodeboard — AeroNyx node operator dashboard",
		Long:          "nodeboard — manage and monitor your AeroNyx nodes: wallet login, node status, session stats, and registration codes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "AeroNyx API base URL (overrides context)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "", "output format: json|text (default: text)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&contextName, "context", "", "config context name (default: current from ~/.nodeboard/config.yaml)")

	cobra.OnInitialize(initEnv)

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newNodesCmd())
	rootCmd.AddCommand(newCodesCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newContextCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func initEnv() {
	viper.SetEnvPrefix("NODEBOARD")
	viper.AutomaticEnv()
}
