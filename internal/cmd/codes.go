package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AeroNyxNetwork/nodeboard/pkg/codes"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

func newCodesCmd() *cobra.Command {
	c := &cobra.Command{Use: "codes", Short: "Manage node registration codes"}
	c.AddCommand(newCodesGenerateCmd())
	c.AddCommand(newCodesListCmd())
	c.AddCommand(newCodesRevokeCmd())
	return c
}

func newCodesGenerateCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Mint a one-time registration code",
		Long: `Mint a one-time registration code for a new node. The code expires 15
minutes after creation; feed it to the node installer before then.

With --watch the command stays open counting down the code's remaining
lifetime, so you can see at a glance whether the install window is
still live.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAuthedApp()
			if err != nil {
				return err
			}
			cctx, cancel := cmdContext(cmd)
			defer cancel()
			code, err := a.fetcher.GenerateCode(cctx)
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), code)
			}
			out := cmd.OutOrStdout()
			remaining := codes.TimeRemaining(code.ExpiresAt, time.Now())
			fmt.Fprintf(out, "Code: %s\n", code.Code)
			fmt.Fprintf(out, "Expires: %s (in %s)\n", code.ExpiresAt.Format(time.RFC3339), remaining.Formatted)
			if !watch {
				return nil
			}

			cd := codes.NewCountdown(codes.CountdownConfig{
				ExpiresAt: code.ExpiresAt,
				OnTick: func(r codes.Remaining) {
					fmt.Fprintf(out, "\rTime left: %s ", r.Formatted)
				},
				OnExpired: func() {
					fmt.Fprintf(out, "\rCode expired; generate a new one.\n")
				},
			})
			cd.Run(cmd.Context())
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "count down the code's lifetime until it expires")
	return cmd
}

func newCodesListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registration codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAuthedApp()
			if err != nil {
				return err
			}
			cctx, cancel := cmdContext(cmd)
			defer cancel()
			resp, err := a.fetcher.Codes(cctx, all)
			if err != nil {
				return err
			}
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			if len(resp.Codes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No registration codes.")
				return nil
			}

			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tSTATUS\tEXPIRES IN\tCREATED\tNODE")
			for _, c := range resp.Codes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					c.Code, codeStatusText(c.EffectiveStatus(now)), codeExpiryColumn(c, now),
					formatAge(now.Sub(c.CreatedAt)), codeNodeColumn(c))
			}
			w.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d code(s)\n", resp.Total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include expired and revoked codes")
	return cmd
}

// codeExpiryColumn renders the countdown for live codes and a dash for
// terminal ones.
func codeExpiryColumn(c models.RegistrationCode, now time.Time) string {
	if c.EffectiveStatus(now) != models.CodeUnused {
		return "-"
	}
	return codes.TimeRemaining(c.ExpiresAt, now).Formatted
}

func codeNodeColumn(c models.RegistrationCode) string {
	if c.NodeID == nil {
		return "-"
	}
	return *c.NodeID
}

func newCodesRevokeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "revoke <code>",
		Short: "Invalidate an unused code before it expires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAuthedApp()
			if err != nil {
				return err
			}
			if !promptConfirm(fmt.Sprintf("Revoke code %s?", args[0]), yes) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			cctx, cancel := cmdContext(cmd)
			defer cancel()
			if err := a.fetcher.RevokeCode(cctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked code %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}
