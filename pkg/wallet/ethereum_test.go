package wallet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

const testEthKey = "4c0883a69102937d6231471b5dbb6204fe51296170827922b7a56c91b8b56d09"

func writeEthKeyFile(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "metamask.key")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	return path
}

func TestEthereumSignVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeEthKeyFile(t, dir, testEthKey+"\n")

	w := newEthereumWallet(models.ProviderMetaMask, filepath.Join(dir, "metamask.key"), nil)
	if !w.Available() {
		t.Fatalf("expected wallet available")
	}

	info, err := w.RequestAccount()
	if err != nil {
		t.Fatalf("request account: %v", err)
	}
	if info.Type != models.WalletETH || info.Provider != models.ProviderMetaMask {
		t.Fatalf("unexpected wallet info %+v", info)
	}
	if len(info.Address) != 42 || info.Address[:2] != "0x" {
		t.Fatalf("unexpected address %q", info.Address)
	}

	message := "sign-in-abc123"
	sig, err := w.SignMessage([]byte(message))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(sig) != 2+130 {
		t.Fatalf("expected 65-byte hex signature, got %d chars", len(sig))
	}

	ok, err := VerifyEthereumSignature(info.Address, message, sig)
	if err != nil || !ok {
		t.Fatalf("expected signature to verify: ok=%v err=%v", ok, err)
	}

	ok, err = VerifyEthereumSignature(info.Address, "sign-in-tampered", sig)
	if err != nil {
		t.Fatalf("verify tampered: %v", err)
	}
	if ok {
		t.Fatalf("tampered message must not verify")
	}
}

func TestEthereumKeyWithHexPrefix(t *testing.T) {
	dir := t.TempDir()
	writeEthKeyFile(t, dir, "0x"+testEthKey)

	w := newEthereumWallet(models.ProviderMetaMask, filepath.Join(dir, "metamask.key"), nil)
	if _, err := w.RequestAccount(); err != nil {
		t.Fatalf("0x-prefixed key should load: %v", err)
	}
}

func TestEthereumMissingKey(t *testing.T) {
	w := newEthereumWallet(models.ProviderMetaMask, filepath.Join(t.TempDir(), "metamask.key"), nil)
	if w.Available() {
		t.Fatalf("expected unavailable")
	}
	_, err := w.RequestAccount()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var provErr *ProviderError
	if !errors.As(err, &provErr) || provErr.Provider != models.ProviderMetaMask {
		t.Fatalf("expected provider context, got %v", err)
	}
}

func TestEthereumCorruptKey(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{"not hex", "zz not a key"},
		{"wrong length", "abcd1234"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeEthKeyFile(t, dir, tc.contents)
			w := newEthereumWallet(models.ProviderMetaMask, filepath.Join(dir, "metamask.key"), nil)
			_, err := w.RequestAccount()
			if !errors.Is(err, ErrConnectionFailed) {
				t.Fatalf("expected ErrConnectionFailed, got %v", err)
			}
		})
	}
}

func TestSignWithoutAccount(t *testing.T) {
	w := newEthereumWallet(models.ProviderMetaMask, filepath.Join(t.TempDir(), "metamask.key"), nil)
	_, err := w.SignMessage([]byte("msg"))
	if !errors.Is(err, ErrSignatureFailed) {
		t.Fatalf("expected ErrSignatureFailed, got %v", err)
	}
}

func TestNormalizeEthereumAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
		wantErr bool
	}{
		{
			name:    "lowercase to checksum",
			address: "0xd8da6bf26964af9d7eed9e03e53415d37aa96045",
			want:    "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045",
		},
		{
			name:    "uppercase input",
			address: "0XD8DA6BF26964AF9D7EED9E03E53415D37AA96045",
			want:    "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045",
		},
		{
			name:    "too short",
			address: "0x1234",
			wantErr: true,
		},
		{
			name:    "not hex",
			address: "0xzzda6bf26964af9d7eed9e03e53415d37aa96045",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEthereumAddress(tt.address)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVerifyRejectsMalformedSignatures(t *testing.T) {
	addr := "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
	if _, err := VerifyEthereumSignature(addr, "msg", "0xnothex"); err == nil {
		t.Fatalf("expected error for non-hex signature")
	}
	if _, err := VerifyEthereumSignature(addr, "msg", "0xabcd"); err == nil {
		t.Fatalf("expected error for short signature")
	}
}
