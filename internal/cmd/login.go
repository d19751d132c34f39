package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
	"github.com/AeroNyxNetwork/nodeboard/pkg/wallet"
)

func newLoginCmd() *cobra.Command {
	var provider string
	var withAPIKey bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the AeroNyx network",
		Long: `Authenticate by signing a one-time challenge with a wallet key, or by
entering an API key directly.

The wallet flow reads key material from the wallet directory
(default ~/.nodeboard/wallets):

  phantom.json  Solana keypair (solana-keygen format)
  metamask.key  hex-encoded Ethereum private key
  okx/          dual-chain directory (solana.json and/or eth.key)

Credentials are stored in ~/.nodeboard/.env and never appear in shell
history.

Examples:
  nodeboard login                      # auto-detect the wallet provider
  nodeboard login --provider metamask  # pick one explicitly
  nodeboard login --api-key            # paste a key (headless boxes)
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			if withAPIKey {
				return loginWithAPIKey(cmd, a)
			}
			return loginWithWallet(cmd, a, provider)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "wallet provider: phantom|metamask|okx (default: auto-detect)")
	cmd.Flags().BoolVar(&withAPIKey, "api-key", false, "enter an API key directly instead of signing with a wallet")

	return cmd
}

func loginWithWallet(cmd *cobra.Command, a *app, provider string) error {
	prov, err := resolveProvider(a, provider)
	if err != nil {
		return err
	}

	info, err := a.auth.ConnectWallet(prov)
	if err != nil {
		return fmt.Errorf("could not connect %s wallet: %w", prov, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connected %s wallet %s (%s)\n", info.Provider, info.Address, info.Type)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	sess, err := a.auth.Login(ctx)
	if err != nil {
		return err
	}

	if output == "json" {
		return printJSON(cmd.OutOrStdout(), sess)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", sess.WalletAddress)
	fmt.Fprintln(cmd.OutOrStdout(), "Credentials saved to ~/.nodeboard/.env")
	return nil
}

// resolveProvider picks the wallet provider: the explicit flag when
// given, otherwise the single detected provider. Ambiguity is an error
// rather than a guess.
func resolveProvider(a *app, explicit string) (models.WalletProvider, error) {
	if explicit != "" {
		p := models.WalletProvider(strings.ToLower(explicit))
		for _, known := range models.Providers() {
			if p == known {
				return p, nil
			}
		}
		return "", fmt.Errorf("unknown provider %q (expected phantom, metamask or okx)", explicit)
	}

	found := a.registry.Detect()
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no wallet key material found; put a key under the wallet directory or use --api-key")
	case 1:
		return found[0], nil
	default:
		names := make([]string, len(found))
		for i, p := range found {
			names[i] = string(p)
		}
		return "", fmt.Errorf("multiple wallets found (%s); pick one with --provider", strings.Join(names, ", "))
	}
}

// loginWithAPIKey stores a key the operator already holds, for machines
// with no wallet key material. The key is read with terminal echo off.
func loginWithAPIKey(cmd *cobra.Command, a *app) error {
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	if a.auth.APIKey() != "" {
		fmt.Fprint(out, "Already logged in. Replace existing credentials? [y/N]: ")
		confirm, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(confirm)) != "y" {
			fmt.Fprintln(out, "Keeping existing credentials.")
			return nil
		}
	}

	fmt.Fprint(out, "Wallet address: ")
	address, _ := reader.ReadString('\n')
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("wallet address is required")
	}

	fmt.Fprint(out, "Wallet type [ETH/SOL] (default ETH): ")
	typeStr, _ := reader.ReadString('\n')
	walletType := models.WalletType(strings.ToUpper(strings.TrimSpace(typeStr)))
	if walletType == "" {
		walletType = models.WalletETH
	}
	if !walletType.Valid() {
		return fmt.Errorf("unknown wallet type %q (expected ETH or SOL)", walletType)
	}
	if walletType == models.WalletETH {
		// Store the checksummed form so the address matches what the
		// API reports, whatever casing the operator typed.
		normalized, err := wallet.NormalizeEthereumAddress(address)
		if err != nil {
			return fmt.Errorf("invalid ethereum address: %w", err)
		}
		address = normalized
	}

	fmt.Fprint(out, "API key: ")
	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		// Not a terminal (tests, pipes): fall back to plain reads.
		keyStr, _ := reader.ReadString('\n')
		keyBytes = []byte(strings.TrimSpace(keyStr))
	}
	key := strings.TrimSpace(string(keyBytes))
	if key == "" {
		return fmt.Errorf("no API key provided")
	}

	if err := a.auth.SetCredentials(models.AuthSession{
		APIKey:        key,
		WalletAddress: address,
		WalletType:    walletType,
	}); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	fmt.Fprintln(out, "Credentials saved to ~/.nodeboard/.env")
	return nil
}
