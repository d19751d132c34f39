package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	api "github.com/AeroNyxNetwork/nodeboard/pkg/api/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

func newNodesCmd() *cobra.Command {
	nodes := &cobra.Command{Use: "nodes", Short: "Manage and inspect your nodes"}
	nodes.AddCommand(newNodesListCmd())
	nodes.AddCommand(newNodesGetCmd())
	nodes.AddCommand(newNodesStatsCmd())
	nodes.AddCommand(newNodesUpdateCmd())
	nodes.AddCommand(newNodesDeleteCmd())
	nodes.AddCommand(newNodesSessionsCmd())
	return nodes
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newNodesListCmd() *cobra.Command {
	var status string
	var fresh bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAuthedApp()
			if err != nil {
				return err
			}
			state := models.NodeState(status)
			if status != "" && !state.Valid() {
				return fmt.Errorf("unknown status %q (expected online, offline or suspended)", status)
			}

			cctx, cancel := cmdContext(cmd)
			defer cancel()
			var resp *api.NodesResponse
			if fresh {
				resp, err = a.fetcher.RefreshNodes(cctx, state)
			} else {
				resp, err = a.fetcher.Nodes(cctx, state)
			}
			if err != nil {
				return err
			}

			if output == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			if len(resp.Nodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No nodes found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tIP\tSESSIONS\tTRAFFIC\tLAST SEEN")
			for _, n := range resp.Nodes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					n.ID, n.Name, nodeStateText(n.Status), n.PublicIP,
					n.CurrentSessions, formatGB(n.TotalTrafficGB), formatHeartbeat(n.LastHeartbeat))
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d node(s)\n", resp.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status: online|offline|suspended")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "bypass the cache and refetch")
	return cmd
}

func newNodesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <node-id>",
		Short: "Show one node in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAuthedApp()
			if err != nil {
				return err
			}
			cctx, cancel := cmdContext(cmd)
			defer cancel()
			node, err := a.fetcher.Node(cctx, args[0])
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), node)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Node: %s (%s)\n", node.Name, node.ID)
			fmt.Fprintf(out, "  status:     %s\n", nodeStateText(node.Status))
			fmt.Fprintf(out, "  address:    %s:%d\n", node.PublicIP, node.Port)
			fmt.Fprintf(out, "  version:    %s\n", node.Version)
			fmt.Fprintf(out, "  verified:   %t\n", node.IsVerified)
			fmt.Fprintf(out, "  owner:      %s\n", node.OwnerWallet)
			fmt.Fprintf(out, "  last seen:  %s\n", formatHeartbeat(node.LastHeartbeat))
			fmt.Fprintf(out, "  sessions:   %d active / %d total\n", node.CurrentSessions, node.TotalSessions)
			fmt.Fprintf(out, "  traffic:    %s\n", formatGB(node.TotalTrafficGB))
			fmt.Fprintf(out, "  uptime:     %s\n", formatSecondsCompact(node.TotalUptimeSeconds))
			fmt.Fprintf(out, "  registered: %s\n", node.CreatedAt.Format(time.RFC3339))
			if hw := node.Hardware; hw != nil {
				fmt.Fprintf(out, "  hardware:   %s %s/%s, %d cores, %d GB RAM, %d GB disk\n",
					hw.Hostname, hw.OS, hw.Arch, hw.CPUCores, hw.MemoryGB, hw.DiskGB)
			}
			return nil
		},
	}
}

func newNodesStatsCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "stats <node-id>",
		Short: "Show aggregate stats over a trailing window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			a, err := newAuthedApp()
			if err != nil {
				return err
			}
			cctx, cancel := cmdContext(cmd)
			defer cancel()
			stats, err := a.fetcher.NodeStats(cctx, args[0], days)
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stats for %s (last %d days)\n", stats.NodeID, stats.PeriodDays)
			fmt.Fprintf(out, "  uptime:       %.1f%%\n", stats.UptimePercent)
			fmt.Fprintf(out, "  traffic:      %s\n", formatGB(stats.TotalTrafficGB))
			fmt.Fprintf(out, "  sessions:     %d total, %d active\n", stats.TotalSessions, stats.ActiveSessions)
			fmt.Fprintf(out, "  avg session:  %s\n", formatSecondsCompact(int64(stats.AvgSessionSeconds)))
			if len(stats.Daily) > 0 {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "\nDATE\tTRAFFIC\tSESSIONS\tONLINE")
				for _, d := range stats.Daily {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
						d.Date, formatGB(d.TrafficGB), d.Sessions, formatSecondsCompact(d.OnlineSeconds))
				}
				w.Flush()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "trailing window in days")
	return cmd
}

func newNodesUpdateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "update <node-id>",
		Short: "Change a node's name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			a, err := newAuthedApp()
			if err != nil {
				return err
			}
			cctx, cancel := cmdContext(cmd)
			defer cancel()
			node, err := a.fetcher.UpdateNode(cctx, args[0], api.UpdateNodeRequest{Name: &name})
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), node)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed node %s to %q\n", node.ID, node.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	return cmd
}

func newNodesDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <node-id>",
		Short: "Remove a node registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAuthedApp()
			if err != nil {
				return err
			}
			if !promptConfirm(fmt.Sprintf("Delete node %s? This cannot be undone", args[0]), yes) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			cctx, cancel := cmdContext(cmd)
			defer cancel()
			if err := a.fetcher.DeleteNode(cctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted node %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func newNodesSessionsCmd() *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions <node-id>",
		Short: "List client sessions served by a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAuthedApp()
			if err != nil {
				return err
			}
			cctx, cancel := cmdContext(cmd)
			defer cancel()
			resp, err := a.fetcher.NodeSessions(cctx, args[0], api.SessionsQuery{
				Status: models.SessionState(status),
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			if len(resp.Sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tCLIENT\tSTATUS\tSTARTED\tDURATION\tTRANSFERRED")
			for _, s := range resp.Sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.1f MB\n",
					s.SessionID, s.ClientWallet, sessionStateText(s.Status),
					formatAge(time.Since(s.StartedAt)), formatSecondsCompact(s.DurationSeconds), s.TotalBytesMB)
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d session(s)\n", resp.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status: active|completed|error")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum sessions to return (0 = server default)")
	return cmd
}
