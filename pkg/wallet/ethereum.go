package wallet

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/AeroNyxNetwork/nodeboard/pkg/logging"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

// EthereumWallet signs with a secp256k1 key using EIP-191 personal_sign
// semantics. It does not implement Disconnector: MetaMask has no
// disconnect API, so logout simply drops the reference.
type EthereumWallet struct {
	provider models.WalletProvider
	path     string
	logger   logging.Logger

	priv    *btcec.PrivateKey
	address string
}

func newEthereumWallet(provider models.WalletProvider, path string, logger logging.Logger) *EthereumWallet {
	return &EthereumWallet{provider: provider, path: path, logger: logger}
}

func (w *EthereumWallet) Provider() models.WalletProvider { return w.provider }

func (w *EthereumWallet) Type() models.WalletType { return models.WalletETH }

func (w *EthereumWallet) Available() bool {
	_, err := os.Stat(w.path)
	return err == nil
}

// RequestAccount loads the key file (hex, 0x optional) and derives the
// EIP-55 checksum address.
func (w *EthereumWallet) RequestAccount() (models.WalletInfo, error) {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.WalletInfo{}, notFound(w.provider, w.path)
		}
		return models.WalletInfo{}, connectionFailed(w.provider, w.path, err)
	}

	keyHex := strings.TrimSpace(string(raw))
	keyHex = strings.TrimPrefix(keyHex, "0x")
	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return models.WalletInfo{}, connectionFailed(w.provider, w.path, fmt.Errorf("key is not hex: %v", err))
	}
	if len(keyBytes) != 32 {
		return models.WalletInfo{}, connectionFailed(w.provider, w.path, fmt.Errorf("key must be 32 bytes, got %d", len(keyBytes)))
	}

	priv, _ := btcec.PrivKeyFromBytes(keyBytes)
	w.priv = priv
	w.address = pubKeyToEthereumAddress(priv.PubKey())

	if w.logger != nil {
		w.logger.WithFields(logging.Fields{"provider": w.provider, "address": w.address}).Debug("ethereum wallet loaded")
	}
	return models.WalletInfo{Address: w.address, Type: models.WalletETH, Provider: w.provider}, nil
}

// SignMessage signs msg per EIP-191: the message is prefixed, keccak
// hashed, signed compact, and rearranged to the 65-byte R|S|V wire
// layout with V in 27/28 form, hex-encoded with a 0x prefix.
func (w *EthereumWallet) SignMessage(msg []byte) (string, error) {
	if w.priv == nil {
		return "", &ProviderError{Provider: w.provider, Err: fmt.Errorf("%w: account not requested", ErrSignatureFailed)}
	}
	hash := hashPersonalMessage(msg)

	// SignCompact emits [V, R, S] with V = 27 + recovery id.
	compact := ecdsa.SignCompact(w.priv, hash, false)
	if len(compact) != 65 {
		return "", &ProviderError{Provider: w.provider, Err: fmt.Errorf("%w: unexpected compact length %d", ErrSignatureFailed, len(compact))}
	}
	sig := make([]byte, 65)
	copy(sig[0:32], compact[1:33])
	copy(sig[32:64], compact[33:65])
	sig[64] = compact[0]
	return "0x" + hex.EncodeToString(sig), nil
}

// VerifyEthereumSignature verifies an EIP-191 personal_sign signature
// against a wallet address.
func VerifyEthereumSignature(address, message, signature string) (bool, error) {
	sigHex := strings.TrimPrefix(strings.TrimPrefix(signature, "0x"), "0X")
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false, fmt.Errorf("invalid signature format: %w", err)
	}
	if len(sig) != 65 {
		return false, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}

	hash := hashPersonalMessage([]byte(message))

	// Transform V from 27/28 to 0/1 if needed
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return false, fmt.Errorf("invalid recovery id: %d", v)
	}

	// RecoverCompact expects [V, R, S] with V back in 27+ form.
	compact := make([]byte, 65)
	compact[0] = 27 + v
	copy(compact[1:33], sig[0:32])
	copy(compact[33:65], sig[32:64])

	pubKey, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return false, fmt.Errorf("failed to recover public key: %w", err)
	}

	recovered := pubKeyToEthereumAddress(pubKey)
	return strings.EqualFold(recovered, address), nil
}

// NormalizeEthereumAddress converts an Ethereum address to EIP-55
// checksum format.
func NormalizeEthereumAddress(address string) (string, error) {
	addr := strings.TrimPrefix(strings.ToLower(address), "0x")
	if len(addr) != 40 {
		return "", fmt.Errorf("ethereum address must be 40 hex characters")
	}
	if _, err := hex.DecodeString(addr); err != nil {
		return "", fmt.Errorf("invalid hex in address: %w", err)
	}
	return toChecksumAddress(addr), nil
}

// hashPersonalMessage applies the EIP-191 prefix and keccak256.
func hashPersonalMessage(msg []byte) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	return keccak256([]byte(prefixed))
}

// pubKeyToEthereumAddress derives an Ethereum address from a secp256k1
// public key: keccak of the uncompressed key without its 0x04 prefix,
// last 20 bytes, EIP-55 checksummed.
func pubKeyToEthereumAddress(pubKey *btcec.PublicKey) string {
	uncompressed := pubKey.SerializeUncompressed()
	hash := keccak256(uncompressed[1:])
	return toChecksumAddress(hex.EncodeToString(hash[12:]))
}

// toChecksumAddress applies EIP-55 checksum to a bare lowercase hex address.
func toChecksumAddress(addr string) string {
	addr = strings.ToLower(addr)
	hash := keccak256([]byte(addr))

	result := make([]byte, 42)
	result[0] = '0'
	result[1] = 'x'

	for i := 0; i < 40; i++ {
		c := addr[i]
		hashNibble := hash[i/2]
		if i%2 == 0 {
			hashNibble >>= 4
		}
		hashNibble &= 0x0f

		if hashNibble >= 8 && c >= 'a' && c <= 'f' {
			result[i+2] = c - 32 // uppercase
		} else {
			result[i+2] = c
		}
	}
	return string(result)
}

// keccak256 computes Keccak-256 hash
func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
