package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AeroNyxNetwork/nodeboard/internal/cliconfig"
)

func newContextCmd() *cobra.Command {
	ctx := &cobra.Command{Use: "context", Short: "Manage API contexts (endpoints, cache tuning)"}
	ctx.AddCommand(newContextListCmd())
	ctx.AddCommand(newContextUseCmd())
	ctx.AddCommand(newContextSetCmd())
	ctx.AddCommand(newContextShowCmd())
	return ctx
}

func newContextListCmd() *cobra.Command {
	return &cobra.Command{Use: "list", Short: "List contexts", RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := cliconfig.Load()
		if err != nil {
			return err
		}
		names := make([]string, 0, len(cfg.Contexts))
		for name := range cfg.Contexts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cur := " "
			if name == cfg.Current {
				cur = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\t%s\n", cur, name, cfg.Contexts[name].APIURL)
		}
		return nil
	}}
}

func newContextUseCmd() *cobra.Command {
	return &cobra.Command{Use: "use <name>", Short: "Switch the current context", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := cliconfig.Load()
		if err != nil {
			return err
		}
		if err := cliconfig.Use(&cfg, args[0]); err != nil {
			return err
		}
		if err := cliconfig.Save(cfg, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Now using context %q\n", args[0])
		return nil
	}}
}

func newContextSetCmd() *cobra.Command {
	var url string
	var walletDir string
	var nodesTTL, codesTTL int
	cmd := &cobra.Command{Use: "set <name>", Short: "Add or update a context", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := cliconfig.Load()
		if err != nil {
			return err
		}

		// Start from the existing entry so unset flags keep their values.
		ctx := cfg.Contexts[args[0]]
		ctx.Name = args[0]
		if url != "" {
			ctx.APIURL = url
		}
		if ctx.APIURL == "" {
			ctx.APIURL = cliconfig.DefaultAPIURL
		}
		if walletDir != "" {
			ctx.WalletDir = walletDir
		}
		if cmd.Flags().Changed("nodes-ttl") {
			ctx.NodesTTLSeconds = nodesTTL
		}
		if cmd.Flags().Changed("codes-ttl") {
			ctx.CodesTTLSeconds = codesTTL
		}

		cliconfig.Set(&cfg, ctx)
		if err := cliconfig.Save(cfg, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved context %q (%s)\n", ctx.Name, ctx.APIURL)
		return nil
	}}
	cmd.Flags().StringVar(&url, "api-url", "", "AeroNyx API base URL")
	cmd.Flags().StringVar(&walletDir, "wallet-dir", "", "wallet key directory")
	cmd.Flags().IntVar(&nodesTTL, "nodes-ttl", 0, "node list cache TTL in seconds (0 = default)")
	cmd.Flags().IntVar(&codesTTL, "codes-ttl", 0, "code list cache TTL in seconds (0 = default)")
	return cmd
}

func newContextShowCmd() *cobra.Command {
	return &cobra.Command{Use: "show [name]", Short: "Show context details", Args: cobra.RangeArgs(0, 1), RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := cliconfig.Load()
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		c, err := cliconfig.GetCurrent(cfg, name)
		if err != nil {
			return err
		}
		if output == "json" {
			return printJSON(cmd.OutOrStdout(), c)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Context: %s\n", c.Name)
		fmt.Fprintf(out, "  api_url:    %s\n", c.APIURL)
		if c.WalletDir != "" {
			fmt.Fprintf(out, "  wallet_dir: %s\n", c.WalletDir)
		}
		if c.NodesTTLSeconds > 0 {
			fmt.Fprintf(out, "  nodes_ttl:  %ds\n", c.NodesTTLSeconds)
		}
		if c.CodesTTLSeconds > 0 {
			fmt.Fprintf(out, "  codes_ttl:  %ds\n", c.CodesTTLSeconds)
		}
		return nil
	}}
}
