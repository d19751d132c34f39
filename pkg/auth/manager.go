// Package auth owns the operator's authentication session: the state
// machine from wallet connection through nonce-sign-login to logout,
// and the persisted credentials behind it. Everything else reads auth
// state through this package; nothing else writes it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	api "github.com/AeroNyxNetwork/nodeboard/pkg/api/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/logging"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
	"github.com/AeroNyxNetwork/nodeboard/pkg/wallet"
)

// State is the session lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateUnauthenticated
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

var (
	// ErrWalletNotConnected is returned by Login when no wallet has
	// been connected first.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrLoginInProgress rejects a second Login while one is running;
	// the nonce-sign-login sequence is strictly serial.
	ErrLoginInProgress = errors.New("login already in progress")
)

// CredentialStore persists the auth session between runs. Load returns
// a zero session (not an error) when nothing is stored.
type CredentialStore interface {
	Load() (models.AuthSession, error)
	Save(models.AuthSession) error
	Clear() error
}

// APIClient is the slice of the AeroNyx client the manager drives
// during login.
type APIClient interface {
	GetNonce(ctx context.Context, walletAddress string) (*api.NonceResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
}

// Manager is the process-wide auth session. It implements the client's
// CredentialSource, and its SessionExpired method is wired as the
// client's OnSessionExpired callback, closing the 401 signal loop.
type Manager struct {
	registry *wallet.Registry
	store    CredentialStore
	logger   logging.Logger

	mu          sync.Mutex
	client      APIClient
	state       State
	session     models.AuthSession
	wallet      wallet.Wallet
	walletInfo  models.WalletInfo
	initialized bool
}

// ManagerConfig wires the manager's collaborators.
type ManagerConfig struct {
	Registry *wallet.Registry
	Store    CredentialStore
	Logger   logging.Logger
}

// NewManager creates a manager in the uninitialized state.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		registry: cfg.Registry,
		store:    cfg.Store,
		logger:   cfg.Logger,
		state:    StateUninitialized,
	}
}

// SetClient binds the API client. The client and manager reference each
// other (credentials out, expiry signal in), so binding happens after
// both exist.
func (m *Manager) SetClient(c APIClient) {
	m.mu.Lock()
	m.client = c
	m.mu.Unlock()
}

// APIKey implements the client's CredentialSource.
func (m *Manager) APIKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.APIKey
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a copy of the current session.
func (m *Manager) Session() models.AuthSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// WalletInfo returns the connected wallet identity, if any.
func (m *Manager) WalletInfo() (models.WalletInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.walletInfo, m.wallet != nil
}

// Initialize loads persisted credentials and settles into
// authenticated or unauthenticated. It runs its logic once; later
// calls return the already-settled state without touching storage.
// A broken credential file degrades to unauthenticated rather than
// blocking startup.
func (m *Manager) Initialize() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return m.state
	}
	m.initialized = true

	sess, err := m.store.Load()
	if err != nil {
		if m.logger != nil {
			m.logger.WithError(err).Warn("could not read stored credentials; starting signed out")
		}
		m.state = StateUnauthenticated
		return m.state
	}

	if sess.IsAuthenticated() {
		m.session = sess
		m.state = StateAuthenticated
		if m.logger != nil {
			m.logger.WithFields(logging.Fields{"wallet": sess.WalletAddress}).Debug("restored session")
		}
		return m.state
	}

	// A partial credential set is as good as none; drop the leftovers
	// so the store and the state agree.
	if sess != (models.AuthSession{}) {
		if err := m.store.Clear(); err != nil && m.logger != nil {
			m.logger.WithError(err).Warn("could not clear partial credentials")
		}
	}
	m.state = StateUnauthenticated
	return m.state
}

// ConnectWallet detects a provider's key material and loads its
// identity. Failure leaves session state exactly as it was.
func (m *Manager) ConnectWallet(provider models.WalletProvider) (models.WalletInfo, error) {
	w, err := m.registry.ForProvider(provider)
	if err != nil {
		return models.WalletInfo{}, err
	}
	info, err := w.RequestAccount()
	if err != nil {
		return models.WalletInfo{}, err
	}

	m.mu.Lock()
	m.wallet = w
	m.walletInfo = info
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.WithFields(logging.Fields{
			"provider": info.Provider,
			"type":     info.Type,
			"wallet":   info.Address,
		}).Info("wallet connected")
	}
	return info, nil
}

// Login runs the strict nonce -> sign -> login sequence against the
// connected wallet. No step retries and no step runs concurrently with
// another login. On success the credentials are persisted and the
// session flips to authenticated; on any failure it flips to
// unauthenticated with nothing persisted.
func (m *Manager) Login(ctx context.Context) (models.AuthSession, error) {
	m.mu.Lock()
	if m.client == nil {
		m.mu.Unlock()
		return models.AuthSession{}, errors.New("auth manager has no api client bound")
	}
	if m.wallet == nil {
		m.mu.Unlock()
		return models.AuthSession{}, ErrWalletNotConnected
	}
	if m.state == StateAuthenticating {
		m.mu.Unlock()
		return models.AuthSession{}, ErrLoginInProgress
	}
	client := m.client
	w := m.wallet
	info := m.walletInfo
	m.state = StateAuthenticating
	m.mu.Unlock()

	nonce, err := client.GetNonce(ctx, info.Address)
	if err != nil {
		m.loginFailed()
		return models.AuthSession{}, fmt.Errorf("nonce request failed: %w", err)
	}

	// Sign the server's message byte-for-byte. The challenge is
	// single-use: a signing failure means starting over with a fresh
	// nonce, never re-signing.
	signature, err := w.SignMessage([]byte(nonce.Message))
	if err != nil {
		m.loginFailed()
		return models.AuthSession{}, err
	}

	resp, err := client.Login(ctx, api.LoginRequest{
		WalletAddress: info.Address,
		WalletType:    info.Type,
		Signature:     signature,
	})
	if err != nil {
		m.loginFailed()
		return models.AuthSession{}, err
	}

	sess := models.AuthSession{
		APIKey:        resp.APIKey,
		WalletAddress: info.Address,
		WalletType:    info.Type,
	}
	if !sess.IsAuthenticated() {
		m.loginFailed()
		return models.AuthSession{}, fmt.Errorf("login response missing api key")
	}

	// Persisted and in-memory credentials must agree: if the save
	// fails, the login fails.
	if err := m.store.Save(sess); err != nil {
		m.loginFailed()
		return models.AuthSession{}, fmt.Errorf("could not persist credentials: %w", err)
	}

	m.mu.Lock()
	m.session = sess
	m.state = StateAuthenticated
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.WithFields(logging.Fields{
			"wallet":   sess.WalletAddress,
			"type":     sess.WalletType,
			"new_user": nonce.IsNewUser,
		}).Info("logged in")
	}
	return sess, nil
}

func (m *Manager) loginFailed() {
	m.mu.Lock()
	m.session = models.AuthSession{}
	m.state = StateUnauthenticated
	m.mu.Unlock()
}

// SetCredentials installs credentials obtained outside the wallet flow
// (manual API-key entry). The session must be complete; persistence and
// in-memory state flip together, as in Login.
func (m *Manager) SetCredentials(sess models.AuthSession) error {
	if !sess.IsAuthenticated() {
		return fmt.Errorf("incomplete credentials: api key, wallet address and wallet type are all required")
	}
	if err := m.store.Save(sess); err != nil {
		return fmt.Errorf("could not persist credentials: %w", err)
	}

	m.mu.Lock()
	m.session = sess
	m.state = StateAuthenticated
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.WithFields(logging.Fields{"wallet": sess.WalletAddress}).Info("credentials set")
	}
	return nil
}

// Logout clears persisted and in-memory credentials and disconnects
// the wallet when it supports disconnection. Wallet disconnect
// failures are logged and swallowed; only a storage failure is
// reported. Safe to call repeatedly.
func (m *Manager) Logout() error {
	m.mu.Lock()
	w := m.wallet
	m.wallet = nil
	m.walletInfo = models.WalletInfo{}
	m.session = models.AuthSession{}
	m.state = StateUnauthenticated
	m.mu.Unlock()

	err := m.store.Clear()

	if d, ok := w.(wallet.Disconnector); ok {
		if derr := d.Disconnect(); derr != nil && m.logger != nil {
			m.logger.WithError(derr).Debug("wallet disconnect failed")
		}
	}

	if m.logger != nil {
		m.logger.Info("logged out")
	}
	return err
}

// SessionExpired handles the API client's 401 signal: credentials are
// gone server-side, so drop them locally and flip to unauthenticated.
// The wallet connection survives since its key material is still valid
// for a fresh login. Safe under concurrent invocation.
func (m *Manager) SessionExpired() {
	m.mu.Lock()
	wasAuthenticated := m.session != (models.AuthSession{})
	m.session = models.AuthSession{}
	if m.state != StateUninitialized {
		m.state = StateUnauthenticated
	}
	m.mu.Unlock()

	if !wasAuthenticated {
		return
	}
	if err := m.store.Clear(); err != nil && m.logger != nil {
		m.logger.WithError(err).Warn("could not clear expired credentials")
	}
	if m.logger != nil {
		m.logger.Warn("session expired; credentials cleared")
	}
}
