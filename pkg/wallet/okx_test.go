package wallet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

func okxDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "okx")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return dir
}

func TestOKXPrefersSolana(t *testing.T) {
	dir := okxDir(t)
	writeSolanaKeyFile(t, filepath.Join(dir, "solana.json"))
	if err := os.WriteFile(filepath.Join(dir, "eth.key"), []byte(testEthKey), 0o600); err != nil {
		t.Fatalf("write eth key: %v", err)
	}

	w := newOKXWallet(dir, nil)
	info, err := w.RequestAccount()
	if err != nil {
		t.Fatalf("request account: %v", err)
	}
	if info.Type != models.WalletSOL {
		t.Fatalf("expected solana preferred, got %s", info.Type)
	}
	if info.Provider != models.ProviderOKX {
		t.Fatalf("expected okx provider, got %s", info.Provider)
	}
	if w.Type() != models.WalletSOL {
		t.Fatalf("expected connected type SOL, got %s", w.Type())
	}
}

func TestOKXFallsBackToEthereum(t *testing.T) {
	dir := okxDir(t)
	if err := os.WriteFile(filepath.Join(dir, "eth.key"), []byte(testEthKey), 0o600); err != nil {
		t.Fatalf("write eth key: %v", err)
	}

	w := newOKXWallet(dir, nil)
	if !w.Available() {
		t.Fatalf("expected available with eth key only")
	}
	info, err := w.RequestAccount()
	if err != nil {
		t.Fatalf("request account: %v", err)
	}
	if info.Type != models.WalletETH {
		t.Fatalf("expected fallback to ETH, got %s", info.Type)
	}

	sig, err := w.SignMessage([]byte("sign-in-abc123"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := VerifyEthereumSignature(info.Address, "sign-in-abc123", sig)
	if err != nil || !ok {
		t.Fatalf("expected verification: ok=%v err=%v", ok, err)
	}
}

func TestOKXWithNoKeys(t *testing.T) {
	w := newOKXWallet(okxDir(t), nil)
	if w.Available() {
		t.Fatalf("expected unavailable")
	}
	if _, err := w.RequestAccount(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOKXBrokenKeyIsHardFailure(t *testing.T) {
	dir := okxDir(t)
	if err := os.WriteFile(filepath.Join(dir, "solana.json"), []byte("corrupt"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "eth.key"), []byte(testEthKey), 0o600); err != nil {
		t.Fatalf("write eth key: %v", err)
	}

	w := newOKXWallet(dir, nil)
	_, err := w.RequestAccount()
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("broken solana key must not fall through, got %v", err)
	}
}

func TestOKXDisconnect(t *testing.T) {
	dir := okxDir(t)
	writeSolanaKeyFile(t, filepath.Join(dir, "solana.json"))

	w := newOKXWallet(dir, nil)
	if _, err := w.RequestAccount(); err != nil {
		t.Fatalf("request account: %v", err)
	}
	var d Disconnector = w
	if err := d.Disconnect(); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if _, err := w.SignMessage([]byte("msg")); !errors.Is(err, ErrSignatureFailed) {
		t.Fatalf("signing after disconnect should fail, got %v", err)
	}
}
