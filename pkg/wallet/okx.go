package wallet

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/AeroNyxNetwork/nodeboard/pkg/logging"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

// OKXWallet is dual-chain. Connection walks an explicit candidate list
// in order (Solana first, Ethereum as fallback) and the first candidate
// with key material decides the chain for the whole session.
type OKXWallet struct {
	candidates []Wallet
	active     Wallet
}

func newOKXWallet(dir string, logger logging.Logger) *OKXWallet {
	return &OKXWallet{
		candidates: []Wallet{
			newSolanaWallet(models.ProviderOKX, filepath.Join(dir, "solana.json"), logger),
			newEthereumWallet(models.ProviderOKX, filepath.Join(dir, "eth.key"), logger),
		},
	}
}

func (w *OKXWallet) Provider() models.WalletProvider { return models.ProviderOKX }

// Type reports the connected chain; before RequestAccount it reports
// the chain that would be attempted first.
func (w *OKXWallet) Type() models.WalletType {
	if w.active != nil {
		return w.active.Type()
	}
	for _, c := range w.candidates {
		if c.Available() {
			return c.Type()
		}
	}
	return models.WalletSOL
}

func (w *OKXWallet) Available() bool {
	for _, c := range w.candidates {
		if c.Available() {
			return true
		}
	}
	return false
}

// RequestAccount tries each candidate in order and connects the first
// one whose key material exists.
func (w *OKXWallet) RequestAccount() (models.WalletInfo, error) {
	var lastErr error
	for _, c := range w.candidates {
		if !c.Available() {
			continue
		}
		info, err := c.RequestAccount()
		if err != nil {
			// Present-but-broken key material is a hard failure, not a
			// reason to silently fall through to another chain.
			if !errors.Is(err, ErrNotFound) {
				return models.WalletInfo{}, err
			}
			lastErr = err
			continue
		}
		w.active = c
		return info, nil
	}
	if lastErr != nil {
		return models.WalletInfo{}, lastErr
	}
	return models.WalletInfo{}, notFound(models.ProviderOKX, "")
}

func (w *OKXWallet) SignMessage(msg []byte) (string, error) {
	if w.active == nil {
		return "", &ProviderError{Provider: models.ProviderOKX, Err: fmt.Errorf("%w: account not requested", ErrSignatureFailed)}
	}
	return w.active.SignMessage(msg)
}

// Disconnect delegates to the active candidate when it supports
// disconnection and is a no-op otherwise.
func (w *OKXWallet) Disconnect() error {
	if w.active == nil {
		return nil
	}
	if d, ok := w.active.(Disconnector); ok {
		err := d.Disconnect()
		w.active = nil
		return err
	}
	w.active = nil
	return nil
}
