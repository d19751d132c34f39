package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			wasAuthed := a.auth.APIKey() != ""
			if err := a.auth.Logout(); err != nil {
				return err
			}
			a.fetcher.FlushAll()
			if wasAuthed {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in; nothing to clear.")
			}
			return nil
		},
	}
}
