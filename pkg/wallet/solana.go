package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mr-tron/base58"

	"github.com/AeroNyxNetwork/nodeboard/pkg/logging"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

// SolanaWallet signs with an ed25519 key loaded from a Solana CLI
// keypair file (a JSON array of 64 bytes: seed followed by public key).
// Addresses and signatures use base58, the Phantom convention.
type SolanaWallet struct {
	provider models.WalletProvider
	path     string
	logger   logging.Logger

	priv    ed25519.PrivateKey
	address string
}

func newSolanaWallet(provider models.WalletProvider, path string, logger logging.Logger) *SolanaWallet {
	return &SolanaWallet{provider: provider, path: path, logger: logger}
}

func (w *SolanaWallet) Provider() models.WalletProvider { return w.provider }

func (w *SolanaWallet) Type() models.WalletType { return models.WalletSOL }

func (w *SolanaWallet) Available() bool {
	_, err := os.Stat(w.path)
	return err == nil
}

// RequestAccount loads the keypair file and derives the base58 address.
func (w *SolanaWallet) RequestAccount() (models.WalletInfo, error) {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.WalletInfo{}, notFound(w.provider, w.path)
		}
		return models.WalletInfo{}, connectionFailed(w.provider, w.path, err)
	}

	// JSON numbers must round-trip through ints; []byte would expect base64.
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return models.WalletInfo{}, connectionFailed(w.provider, w.path, fmt.Errorf("keypair is not a JSON byte array: %v", err))
	}
	if len(ints) != ed25519.PrivateKeySize {
		return models.WalletInfo{}, connectionFailed(w.provider, w.path, fmt.Errorf("keypair must be %d bytes, got %d", ed25519.PrivateKeySize, len(ints)))
	}
	key := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	for i, v := range ints {
		if v < 0 || v > 255 {
			return models.WalletInfo{}, connectionFailed(w.provider, w.path, fmt.Errorf("keypair byte %d out of range: %d", i, v))
		}
		key[i] = byte(v)
	}

	w.priv = key
	w.address = base58.Encode(key.Public().(ed25519.PublicKey))

	if w.logger != nil {
		w.logger.WithFields(logging.Fields{"provider": w.provider, "address": w.address}).Debug("solana wallet loaded")
	}
	return models.WalletInfo{Address: w.address, Type: models.WalletSOL, Provider: w.provider}, nil
}

// SignMessage signs the raw message bytes and returns the base58
// signature.
func (w *SolanaWallet) SignMessage(msg []byte) (string, error) {
	if w.priv == nil {
		return "", &ProviderError{Provider: w.provider, Err: fmt.Errorf("%w: account not requested", ErrSignatureFailed)}
	}
	sig := ed25519.Sign(w.priv, msg)
	return base58.Encode(sig), nil
}

// Disconnect zeroes the key material. Solana-style wallets expose a
// disconnect operation; failures are reported but safe to ignore.
func (w *SolanaWallet) Disconnect() error {
	for i := range w.priv {
		w.priv[i] = 0
	}
	w.priv = nil
	w.address = ""
	return nil
}

// VerifySolanaSignature verifies a base58 ed25519 signature against a
// base58 wallet address.
func VerifySolanaSignature(address, message, signature string) (bool, error) {
	pub, err := base58.Decode(address)
	if err != nil {
		return false, fmt.Errorf("invalid address: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("address must decode to %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	sig, err := base58.Decode(signature)
	if err != nil {
		return false, fmt.Errorf("invalid signature: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("signature must decode to %d bytes, got %d", ed25519.SignatureSize, len(sig))
	}
	return ed25519.Verify(ed25519.PublicKey(pub), []byte(message), sig), nil
}
