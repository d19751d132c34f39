package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	api "github.com/AeroNyxNetwork/nodeboard/pkg/api/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
	"github.com/AeroNyxNetwork/nodeboard/pkg/wallet"
)

const testEthKey = "4c0883a69102937d6231471b5dbb6204fe51296170827922b7a56c91b8b56d09"

type memStore struct {
	mu       sync.Mutex
	sess     models.AuthSession
	loads    int
	saveErr  error
	clearErr error
}

func (s *memStore) Load() (models.AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.sess, nil
}

func (s *memStore) Save(sess models.AuthSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sess = sess
	return nil
}

func (s *memStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.sess = models.AuthSession{}
	return nil
}

func (s *memStore) stored() models.AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

type fakeAPI struct {
	nonceFn func(ctx context.Context, addr string) (*api.NonceResponse, error)
	loginFn func(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
}

func (f *fakeAPI) GetNonce(ctx context.Context, addr string) (*api.NonceResponse, error) {
	return f.nonceFn(ctx, addr)
}

func (f *fakeAPI) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	return f.loginFn(ctx, req)
}

func newTestManager(t *testing.T, client APIClient) (*Manager, *memStore, string) {
	t.Helper()
	dir := t.TempDir()
	store := &memStore{}
	m := NewManager(ManagerConfig{
		Registry: wallet.NewRegistry(dir, nil),
		Store:    store,
	})
	if client != nil {
		m.SetClient(client)
	}
	m.Initialize()
	return m, store, dir
}

func writeEthKey(t *testing.T, dir string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "metamask.key"), []byte(testEthKey), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
}

func TestConnectWalletMissingKeyMaterial(t *testing.T) {
	m, store, _ := newTestManager(t, nil)

	for _, p := range models.Providers() {
		_, err := m.ConnectWallet(p)
		if !errors.Is(err, wallet.ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", p, err)
		}
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("state must be untouched, got %s", m.State())
	}
	if store.stored() != (models.AuthSession{}) {
		t.Fatalf("store must be untouched")
	}
	if _, connected := m.WalletInfo(); connected {
		t.Fatalf("no wallet should be connected")
	}
}

func TestLoginBeforeConnect(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeAPI{})

	_, err := m.Login(context.Background())
	if !errors.Is(err, ErrWalletNotConnected) {
		t.Fatalf("expected ErrWalletNotConnected, got %v", err)
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("unexpected state %s", m.State())
	}
}

func TestFullLoginFlow(t *testing.T) {
	const message = "sign-in-abc123"
	client := &fakeAPI{
		nonceFn: func(_ context.Context, addr string) (*api.NonceResponse, error) {
			if addr == "" {
				t.Fatalf("nonce called without address")
			}
			return &api.NonceResponse{Nonce: "abc123", Message: message}, nil
		},
		loginFn: func(_ context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
			if req.WalletType != models.WalletETH {
				t.Fatalf("expected ETH wallet type, got %s", req.WalletType)
			}
			ok, err := wallet.VerifyEthereumSignature(req.WalletAddress, message, req.Signature)
			if err != nil || !ok {
				t.Fatalf("server-side verification failed: ok=%v err=%v", ok, err)
			}
			return &api.LoginResponse{APIKey: "k1", User: models.User{WalletAddress: req.WalletAddress, WalletType: req.WalletType}}, nil
		},
	}

	m, store, dir := newTestManager(t, client)
	writeEthKey(t, dir)

	info, err := m.ConnectWallet(models.ProviderMetaMask)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	sess, err := m.Login(context.Background())
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	want := models.AuthSession{APIKey: "k1", WalletAddress: info.Address, WalletType: models.WalletETH}
	if sess != want {
		t.Fatalf("session = %+v, want %+v", sess, want)
	}
	if m.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", m.State())
	}
	if got := store.stored(); got != want {
		t.Fatalf("persisted = %+v, want %+v", got, want)
	}
	if m.APIKey() != "k1" {
		t.Fatalf("credential source should serve the key")
	}
}

func TestLoginAPIFailureLeavesUnauthenticated(t *testing.T) {
	client := &fakeAPI{
		nonceFn: func(context.Context, string) (*api.NonceResponse, error) {
			return &api.NonceResponse{Nonce: "n", Message: "m"}, nil
		},
		loginFn: func(context.Context, api.LoginRequest) (*api.LoginResponse, error) {
			return nil, errors.New("invalid_signature")
		},
	}
	m, store, dir := newTestManager(t, client)
	writeEthKey(t, dir)
	if _, err := m.ConnectWallet(models.ProviderMetaMask); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := m.Login(context.Background()); err == nil {
		t.Fatalf("expected login error")
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated after failure, got %s", m.State())
	}
	if store.stored() != (models.AuthSession{}) {
		t.Fatalf("nothing should be persisted on failure")
	}
}

func TestNonceFailureAborts(t *testing.T) {
	loginCalled := false
	client := &fakeAPI{
		nonceFn: func(context.Context, string) (*api.NonceResponse, error) {
			return nil, errors.New("backend down")
		},
		loginFn: func(context.Context, api.LoginRequest) (*api.LoginResponse, error) {
			loginCalled = true
			return nil, nil
		},
	}
	m, _, dir := newTestManager(t, client)
	writeEthKey(t, dir)
	if _, err := m.ConnectWallet(models.ProviderMetaMask); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := m.Login(context.Background()); err == nil {
		t.Fatalf("expected nonce failure to surface")
	}
	if loginCalled {
		t.Fatalf("login must not run after nonce failure")
	}
}

func TestLoginPersistFailure(t *testing.T) {
	client := &fakeAPI{
		nonceFn: func(context.Context, string) (*api.NonceResponse, error) {
			return &api.NonceResponse{Nonce: "n", Message: "m"}, nil
		},
		loginFn: func(context.Context, api.LoginRequest) (*api.LoginResponse, error) {
			return &api.LoginResponse{APIKey: "k1"}, nil
		},
	}
	m, store, dir := newTestManager(t, client)
	store.saveErr = errors.New("disk full")
	writeEthKey(t, dir)
	if _, err := m.ConnectWallet(models.ProviderMetaMask); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if _, err := m.Login(context.Background()); err == nil {
		t.Fatalf("expected persist failure to fail the login")
	}
	// In-memory and persisted credentials must agree: both empty.
	if m.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", m.State())
	}
	if m.APIKey() != "" {
		t.Fatalf("no key should be served after a failed login")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	client := &fakeAPI{
		nonceFn: func(context.Context, string) (*api.NonceResponse, error) {
			return &api.NonceResponse{Nonce: "n", Message: "m"}, nil
		},
		loginFn: func(context.Context, api.LoginRequest) (*api.LoginResponse, error) {
			return &api.LoginResponse{APIKey: "k1"}, nil
		},
	}
	m, store, dir := newTestManager(t, client)
	writeEthKey(t, dir)
	if _, err := m.ConnectWallet(models.ProviderMetaMask); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := m.Login(context.Background()); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := m.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if m.State() != StateUnauthenticated || m.APIKey() != "" {
		t.Fatalf("expected signed out")
	}
	if store.stored() != (models.AuthSession{}) {
		t.Fatalf("expected store cleared")
	}
	if _, connected := m.WalletInfo(); connected {
		t.Fatalf("expected wallet dropped")
	}

	// Logout is idempotent.
	if err := m.Logout(); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestSetCredentials(t *testing.T) {
	m, store, _ := newTestManager(t, nil)

	if err := m.SetCredentials(models.AuthSession{APIKey: "k1"}); err == nil {
		t.Fatalf("partial credentials must be rejected")
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("rejected credentials must not change state")
	}

	sess := models.AuthSession{APIKey: "k1", WalletAddress: "0xabc", WalletType: models.WalletETH}
	if err := m.SetCredentials(sess); err != nil {
		t.Fatalf("set credentials: %v", err)
	}
	if m.State() != StateAuthenticated || m.APIKey() != "k1" {
		t.Fatalf("expected authenticated with key served")
	}
	if store.stored() != sess {
		t.Fatalf("expected credentials persisted")
	}

	// Persistence failures keep memory and disk in agreement.
	store.saveErr = errors.New("disk full")
	if err := m.SetCredentials(models.AuthSession{APIKey: "k2", WalletAddress: "0xdef", WalletType: models.WalletETH}); err == nil {
		t.Fatalf("expected save failure to surface")
	}
	if m.APIKey() != "k1" {
		t.Fatalf("failed set must not replace the live session")
	}
}

func TestInitializeRestoresSession(t *testing.T) {
	store := &memStore{sess: models.AuthSession{APIKey: "k1", WalletAddress: "0xabc", WalletType: models.WalletETH}}
	m := NewManager(ManagerConfig{Registry: wallet.NewRegistry(t.TempDir(), nil), Store: store})

	if got := m.Initialize(); got != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", got)
	}
	if m.APIKey() != "k1" {
		t.Fatalf("expected restored key")
	}

	// One-shot: repeated initialize must not re-read storage.
	m.Initialize()
	m.Initialize()
	if store.loads != 1 {
		t.Fatalf("expected a single storage read, got %d", store.loads)
	}
}

func TestInitializePartialCredentials(t *testing.T) {
	store := &memStore{sess: models.AuthSession{WalletAddress: "0xabc"}}
	m := NewManager(ManagerConfig{Registry: wallet.NewRegistry(t.TempDir(), nil), Store: store})

	if got := m.Initialize(); got != StateUnauthenticated {
		t.Fatalf("expected unauthenticated, got %s", got)
	}
	if store.stored() != (models.AuthSession{}) {
		t.Fatalf("partial credentials should be cleared")
	}
}

func TestSessionExpiredClearsCredentials(t *testing.T) {
	client := &fakeAPI{
		nonceFn: func(context.Context, string) (*api.NonceResponse, error) {
			return &api.NonceResponse{Nonce: "n", Message: "m"}, nil
		},
		loginFn: func(context.Context, api.LoginRequest) (*api.LoginResponse, error) {
			return &api.LoginResponse{APIKey: "k1"}, nil
		},
	}
	m, store, dir := newTestManager(t, client)
	writeEthKey(t, dir)
	if _, err := m.ConnectWallet(models.ProviderMetaMask); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := m.Login(context.Background()); err != nil {
		t.Fatalf("login: %v", err)
	}

	m.SessionExpired()
	if m.State() != StateUnauthenticated || m.APIKey() != "" {
		t.Fatalf("expected signed out after expiry")
	}
	if store.stored() != (models.AuthSession{}) {
		t.Fatalf("expected persisted credentials cleared")
	}
	// The wallet connection survives for a fresh login.
	if _, connected := m.WalletInfo(); !connected {
		t.Fatalf("wallet should stay connected")
	}
	// Repeated signals are no-ops.
	m.SessionExpired()
}
