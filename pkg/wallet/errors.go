package wallet

import (
	"errors"
	"fmt"

	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

// Sentinel errors for the wallet failure modes. Match with errors.Is;
// the concrete *ProviderError carries which provider and key path.
var (
	// ErrNotFound means the provider's key material does not exist on
	// this machine (the equivalent of the extension not being
	// installed).
	ErrNotFound = errors.New("wallet not found")

	// ErrConnectionFailed means key material exists but could not be
	// loaded: unreadable file, bad encoding, wrong length.
	ErrConnectionFailed = errors.New("wallet connection failed")

	// ErrSignatureFailed means the wallet could not produce a
	// signature over the login message.
	ErrSignatureFailed = errors.New("signature failed")
)

// ProviderError wraps a wallet sentinel with provider context.
type ProviderError struct {
	Provider models.WalletProvider
	Path     string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Provider, e.Err, e.Path)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func notFound(p models.WalletProvider, path string) error {
	return &ProviderError{Provider: p, Path: path, Err: ErrNotFound}
}

func connectionFailed(p models.WalletProvider, path string, cause error) error {
	return &ProviderError{Provider: p, Path: path, Err: fmt.Errorf("%w: %v", ErrConnectionFailed, cause)}
}
