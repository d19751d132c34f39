package auth

import (
	"context"
	"errors"
	"testing"

	api "github.com/AeroNyxNetwork/nodeboard/pkg/api/aeronyx"
	aeronyx "github.com/AeroNyxNetwork/nodeboard/pkg/clients/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
	"github.com/AeroNyxNetwork/nodeboard/pkg/testutil"
	"github.com/AeroNyxNetwork/nodeboard/pkg/wallet"
)

// wireStack builds the production wiring: wallet key material on disk,
// manager, HTTP client bound both ways (credentials out, expiry signal
// in), against a backend that verifies signatures for real.
func wireStack(t *testing.T, backend *testutil.MockAeroNyxServer) (*Manager, *aeronyx.Client, *memStore) {
	t.Helper()
	dir := t.TempDir()
	writeEthKey(t, dir)
	store := &memStore{}
	m := NewManager(ManagerConfig{
		Registry: wallet.NewRegistry(dir, nil),
		Store:    store,
	})
	client := aeronyx.NewClient(aeronyx.Config{
		BaseURL:          backend.URL(),
		Credentials:      m,
		OnSessionExpired: m.SessionExpired,
	})
	m.SetClient(client)
	m.Initialize()
	return m, client, store
}

func TestLoginRoundTrip(t *testing.T) {
	backend := testutil.NewMockAeroNyxServer()
	defer backend.Close()
	backend.AddNode(models.NodeDetail{Node: models.Node{ID: "n1", Name: "edge-1", Status: models.NodeOnline}})

	m, client, store := wireStack(t, backend)

	info, err := m.ConnectWallet(models.ProviderMetaMask)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	sess, err := m.Login(context.Background())
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.APIKey == "" || sess.WalletAddress != info.Address {
		t.Fatalf("unexpected session %+v", sess)
	}
	if store.stored() != sess {
		t.Fatalf("persisted session diverges from returned one")
	}

	// The minted key authorizes data calls.
	nodes, err := client.GetNodes(context.Background(), api.NodesQuery{})
	if err != nil {
		t.Fatalf("nodes: %v", err)
	}
	if nodes.Total != 1 || nodes.Nodes[0].ID != "n1" {
		t.Fatalf("unexpected nodes response %+v", nodes)
	}
}

func TestBadSignatureRejected(t *testing.T) {
	backend := testutil.NewMockAeroNyxServer()
	defer backend.Close()

	m, client, _ := wireStack(t, backend)
	info, err := m.ConnectWallet(models.ProviderMetaMask)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	// Bypass the manager and submit a garbage signature directly.
	if _, err := client.GetNonce(context.Background(), info.Address); err != nil {
		t.Fatalf("nonce: %v", err)
	}
	_, err = client.Login(context.Background(), api.LoginRequest{
		WalletAddress: info.Address,
		WalletType:    models.WalletETH,
		Signature:     "0xdeadbeef",
	})
	var apiErr *aeronyx.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 401 {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	// Pre-token 401s are not session expiry.
	if errors.Is(err, aeronyx.ErrSessionExpired) {
		t.Fatalf("login rejection must not read as session expiry")
	}
}

func TestServerSideExpiryClearsCredentials(t *testing.T) {
	backend := testutil.NewMockAeroNyxServer()
	defer backend.Close()

	m, client, store := wireStack(t, backend)
	if _, err := m.ConnectWallet(models.ProviderMetaMask); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := m.Login(context.Background()); err != nil {
		t.Fatalf("login: %v", err)
	}

	backend.RevokeAPIKeys()

	_, err := client.GetNodes(context.Background(), api.NodesQuery{})
	if !errors.Is(err, aeronyx.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if m.State() != StateUnauthenticated || m.APIKey() != "" {
		t.Fatalf("manager should have dropped the session")
	}
	if store.stored() != (models.AuthSession{}) {
		t.Fatalf("persisted credentials should be cleared")
	}

	// The wallet connection survives, so a fresh login recovers.
	if _, err := m.Login(context.Background()); err != nil {
		t.Fatalf("re-login: %v", err)
	}
	if _, err := client.GetNodes(context.Background(), api.NodesQuery{}); err != nil {
		t.Fatalf("nodes after re-login: %v", err)
	}
}

func TestScriptedBackendFailure(t *testing.T) {
	backend := testutil.NewMockAeroNyxServer()
	defer backend.Close()

	m, _, _ := wireStack(t, backend)
	if _, err := m.ConnectWallet(models.ProviderMetaMask); err != nil {
		t.Fatalf("connect: %v", err)
	}

	backend.FailNext("POST /api/v1/auth/nonce", 503, "maintenance")
	if _, err := m.Login(context.Background()); err == nil {
		t.Fatalf("expected scripted failure to surface")
	}
	if m.State() != StateUnauthenticated {
		t.Fatalf("expected unauthenticated after failed login")
	}

	// One-shot: the very next attempt goes through.
	if _, err := m.Login(context.Background()); err != nil {
		t.Fatalf("login after scripted failure: %v", err)
	}
}
