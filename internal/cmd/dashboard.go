package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/AeroNyxNetwork/nodeboard/internal/tui"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive terminal dashboard",
		Long: `Dashboard opens a full-screen terminal UI with live views of your
nodes, their client sessions, and registration codes. Data refreshes
every few seconds; press r to force a refresh, g to generate a
registration code, and q to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAuthedApp()
			if err != nil {
				return err
			}

			model := tui.New(a.fetcher, a.auth.Session().WalletAddress)
			final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			if err != nil {
				return err
			}
			if m, ok := final.(tui.Model); ok && m.SignedOut() {
				fmt.Fprintln(cmd.OutOrStdout(), "Session expired; signed out. Run 'nodeboard login' to sign in again.")
			}
			return nil
		},
	}
}
