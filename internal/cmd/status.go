package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

type statusReport struct {
	State            string            `json:"state"`
	WalletAddress    string            `json:"wallet_address,omitempty"`
	WalletType       models.WalletType `json:"wallet_type,omitempty"`
	APIKeyExpiresAt  *time.Time        `json:"api_key_expires_at,omitempty"`
	WalletsAvailable []string          `json:"wallets_available"`
	APIURL           string            `json:"api_url"`
	Context          string            `json:"context"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show auth state and detected wallets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			sess := a.auth.Session()
			report := statusReport{
				State:         a.auth.State().String(),
				WalletAddress: sess.WalletAddress,
				WalletType:    sess.WalletType,
				APIURL:        a.cfgCtx.APIURL,
				Context:       a.cfgCtx.Name,
			}
			for _, p := range a.registry.Detect() {
				report.WalletsAvailable = append(report.WalletsAvailable, string(p))
			}
			report.APIKeyExpiresAt = apiKeyExpiry(sess.APIKey)

			if output == "json" {
				return printJSON(cmd.OutOrStdout(), report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Context:  %s (%s)\n", report.Context, report.APIURL)
			fmt.Fprintf(out, "State:    %s\n", report.State)
			if sess.WalletAddress != "" {
				fmt.Fprintf(out, "Wallet:   %s (%s)\n", sess.WalletAddress, sess.WalletType)
			}
			if report.APIKeyExpiresAt != nil {
				remaining := time.Until(*report.APIKeyExpiresAt).Round(time.Minute)
				if remaining > 0 {
					fmt.Fprintf(out, "API key:  expires %s (in %s)\n", report.APIKeyExpiresAt.Format(time.RFC3339), remaining)
				} else {
					fmt.Fprintf(out, "API key:  expired %s\n", report.APIKeyExpiresAt.Format(time.RFC3339))
				}
			} else if sess.APIKey != "" {
				fmt.Fprintln(out, "API key:  set (no expiry metadata)")
			}
			if len(report.WalletsAvailable) > 0 {
				fmt.Fprintf(out, "Wallets:  %s\n", strings.Join(report.WalletsAvailable, ", "))
			} else {
				fmt.Fprintln(out, "Wallets:  none detected")
			}
			return nil
		},
	}
}

// apiKeyExpiry peeks at the exp claim when the key happens to be
// JWT-shaped. The parse is deliberately unverified: the dashboard holds
// no signing secret, and the result is display-only. The server stays
// the authority on validity.
func apiKeyExpiry(key string) *time.Time {
	if strings.Count(key, ".") != 2 {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}
