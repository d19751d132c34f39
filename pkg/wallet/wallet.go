// Package wallet adapts local wallet key material to a single signing
// interface. Each provider reads a well-known file under the wallet
// directory, the way the corresponding browser extension would expose
// an injected provider:
//
//	phantom.json  Solana CLI keypair (JSON array of 64 bytes)
//	metamask.key  hex-encoded 32-byte secp256k1 private key
//	okx/          dual-chain: solana.json and/or eth.key
//
// Detection (Available) only stats files and never touches auth state.
// RequestAccount loads the key and derives the address; SignMessage
// signs the login challenge in the chain's native format.
package wallet

import (
	"fmt"
	"path/filepath"

	"github.com/AeroNyxNetwork/nodeboard/pkg/logging"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

// Wallet is the capability surface shared by all providers. The set of
// operations is closed: chain-specific behavior stays inside the
// implementations, and optional capabilities (Disconnector) are
// separate interfaces asserted by the caller.
type Wallet interface {
	Provider() models.WalletProvider
	Type() models.WalletType

	// Available reports whether this provider's key material exists.
	Available() bool

	// RequestAccount loads the key and returns the wallet identity.
	RequestAccount() (models.WalletInfo, error)

	// SignMessage signs the exact message bytes and returns the
	// signature in the chain's wire encoding (hex R|S|V for Ethereum,
	// base58 for Solana).
	SignMessage(msg []byte) (string, error)
}

// Disconnector is implemented by providers with a real disconnect
// operation (Solana-style wallets). MetaMask has none, so the Ethereum
// wallet deliberately does not implement it.
type Disconnector interface {
	Disconnect() error
}

// Registry locates providers inside a wallet directory.
type Registry struct {
	dir    string
	logger logging.Logger
}

// NewRegistry creates a registry over the given wallet directory.
func NewRegistry(dir string, logger logging.Logger) *Registry {
	return &Registry{dir: dir, logger: logger}
}

// ForProvider returns the adapter for a provider. The adapter is
// returned even when its key material is absent; Available tells the
// caller which case it is in.
func (r *Registry) ForProvider(p models.WalletProvider) (Wallet, error) {
	switch p {
	case models.ProviderPhantom:
		return newSolanaWallet(models.ProviderPhantom, filepath.Join(r.dir, "phantom.json"), r.logger), nil
	case models.ProviderMetaMask:
		return newEthereumWallet(models.ProviderMetaMask, filepath.Join(r.dir, "metamask.key"), r.logger), nil
	case models.ProviderOKX:
		return newOKXWallet(filepath.Join(r.dir, "okx"), r.logger), nil
	default:
		return nil, fmt.Errorf("unknown wallet provider %q", p)
	}
}

// Detect returns the providers whose key material is present, in
// display order.
func (r *Registry) Detect() []models.WalletProvider {
	var found []models.WalletProvider
	for _, p := range models.Providers() {
		w, err := r.ForProvider(p)
		if err != nil {
			continue
		}
		if w.Available() {
			found = append(found, p)
		}
	}
	return found
}
