// Package testutil provides a scriptable in-memory AeroNyx backend for
// tests: the full REST surface (nonce, login, nodes, sessions, codes)
// with real signature verification, plus JWT helpers for API-key expiry
// scenarios.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/AeroNyxNetwork/nodeboard/pkg/api/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
	"github.com/AeroNyxNetwork/nodeboard/pkg/wallet"
)

// MockAeroNyxServer is an httptest-backed AeroNyx API with in-memory
// state. Handlers verify wallet signatures for real, so auth tests
// exercise the same crypto as production.
type MockAeroNyxServer struct {
	server *httptest.Server

	mu        sync.Mutex
	nonces    map[string]string // wallet address -> outstanding nonce
	apiKeys   map[string]string // api key -> wallet address
	nodes     map[string]*models.NodeDetail
	sessions  map[string][]models.Session // node id -> sessions
	stats     map[string]*models.NodeStats
	codes     map[string]*models.RegistrationCode
	nextKey   int
	nextCode  int
	requests  map[string]int // "METHOD path-shape" -> count
	failNext  map[string]failure
	knownUser map[string]bool

	// CodeTTL is how long generated codes live. Defaults to 15 minutes.
	CodeTTL time.Duration
	// Now lets tests pin the clock. Defaults to time.Now.
	Now func() time.Time
}

type failure struct {
	status int
	body   string
}

// NewMockAeroNyxServer starts the mock. Callers own Close.
func NewMockAeroNyxServer() *MockAeroNyxServer {
	m := &MockAeroNyxServer{
		nonces:    make(map[string]string),
		apiKeys:   make(map[string]string),
		nodes:     make(map[string]*models.NodeDetail),
		sessions:  make(map[string][]models.Session),
		stats:     make(map[string]*models.NodeStats),
		codes:     make(map[string]*models.RegistrationCode),
		requests:  make(map[string]int),
		failNext:  make(map[string]failure),
		knownUser: make(map[string]bool),
		CodeTTL:   15 * time.Minute,
		Now:       time.Now,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/nonce", m.handleNonce)
	mux.HandleFunc("/api/v1/auth/login", m.handleLogin)
	mux.HandleFunc("/api/v1/nodes", m.handleNodes)
	mux.HandleFunc("/api/v1/nodes/", m.handleNodeSubtree)
	mux.HandleFunc("/api/v1/registration-codes", m.handleCodes)
	mux.HandleFunc("/api/v1/registration-codes/", m.handleCodeSubtree)
	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the mock's base URL (no /api/v1 suffix).
func (m *MockAeroNyxServer) URL() string { return m.server.URL }

// Close shuts the mock down.
func (m *MockAeroNyxServer) Close() { m.server.Close() }

// AddNode seeds a node.
func (m *MockAeroNyxServer) AddNode(n models.NodeDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[n.ID] = &n
}

// AddSession seeds a session under a node.
func (m *MockAeroNyxServer) AddSession(nodeID string, s models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[nodeID] = append(m.sessions[nodeID], s)
}

// AddStats seeds a stats payload for a node.
func (m *MockAeroNyxServer) AddStats(s models.NodeStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[s.NodeID] = &s
}

// IssueAPIKey registers a bearer key without going through login.
func (m *MockAeroNyxServer) IssueAPIKey(key, walletAddress string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKeys[key] = walletAddress
}

// RevokeAPIKeys invalidates every issued key, simulating server-side
// session expiry: the next authed call returns 401.
func (m *MockAeroNyxServer) RevokeAPIKeys() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKeys = make(map[string]string)
}

// FailNext scripts a one-shot failure for an operation. op is
// "METHOD /path" with identifiers as placed, e.g. "GET /api/v1/nodes".
func (m *MockAeroNyxServer) FailNext(op string, status int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, _ := json.Marshal(api.ErrorResponse{Error: message})
	m.failNext[op] = failure{status: status, body: string(body)}
}

// RequestCount reports how many requests hit an operation.
func (m *MockAeroNyxServer) RequestCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[op]
}

// NonceMessage is the challenge text the mock asks wallets to sign.
func NonceMessage(nonce string) string {
	return "Sign this message to authenticate with AeroNyx: " + nonce
}

func (m *MockAeroNyxServer) track(r *http.Request) (failure, bool) {
	op := r.Method + " " + r.URL.Path
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[op]++
	if f, ok := m.failNext[op]; ok {
		delete(m.failNext, op)
		return f, true
	}
	return failure{}, false
}

func (m *MockAeroNyxServer) authorize(r *http.Request) (string, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token == r.Header.Get("Authorization") {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	addr, ok := m.apiKeys[token]
	return addr, ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}

func (m *MockAeroNyxServer) handleNonce(w http.ResponseWriter, r *http.Request) {
	if f, ok := m.track(r); ok {
		http.Error(w, f.body, f.status)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.NonceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WalletAddress == "" {
		writeError(w, http.StatusBadRequest, "wallet_address required")
		return
	}
	m.mu.Lock()
	m.nextKey++
	nonce := fmt.Sprintf("nonce-%d", m.nextKey)
	m.nonces[req.WalletAddress] = nonce
	isNew := !m.knownUser[req.WalletAddress]
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, api.NonceResponse{
		Nonce:     nonce,
		Message:   NonceMessage(nonce),
		IsNewUser: isNew,
	})
}

func (m *MockAeroNyxServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if f, ok := m.track(r); ok {
		http.Error(w, f.body, f.status)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	m.mu.Lock()
	nonce, ok := m.nonces[req.WalletAddress]
	if ok {
		// Challenges are single use.
		delete(m.nonces, req.WalletAddress)
	}
	m.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "no outstanding challenge")
		return
	}

	message := NonceMessage(nonce)
	var verified bool
	var err error
	switch req.WalletType {
	case models.WalletETH:
		verified, err = wallet.VerifyEthereumSignature(req.WalletAddress, message, req.Signature)
	case models.WalletSOL:
		verified, err = wallet.VerifySolanaSignature(req.WalletAddress, message, req.Signature)
	default:
		writeError(w, http.StatusBadRequest, "unsupported wallet_type")
		return
	}
	if err != nil || !verified {
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	m.mu.Lock()
	m.nextKey++
	key := fmt.Sprintf("test-key-%d", m.nextKey)
	m.apiKeys[key] = req.WalletAddress
	m.knownUser[req.WalletAddress] = true
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, api.LoginResponse{
		APIKey: key,
		User: models.User{
			WalletAddress: req.WalletAddress,
			WalletType:    req.WalletType,
		},
	})
}

func (m *MockAeroNyxServer) handleNodes(w http.ResponseWriter, r *http.Request) {
	if f, ok := m.track(r); ok {
		http.Error(w, f.body, f.status)
		return
	}
	if _, ok := m.authorize(r); !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired API key")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status := models.NodeState(r.URL.Query().Get("status"))
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		if status != "" && n.Status != status {
			continue
		}
		out = append(out, n.Node)
	}
	writeJSON(w, http.StatusOK, api.NodesResponse{Nodes: out, Total: len(out)})
}

// handleNodeSubtree routes /nodes/{id}, /nodes/{id}/stats,
// /nodes/{id}/sessions.
func (m *MockAeroNyxServer) handleNodeSubtree(w http.ResponseWriter, r *http.Request) {
	if f, ok := m.track(r); ok {
		http.Error(w, f.body, f.status)
		return
	}
	if _, ok := m.authorize(r); !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired API key")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/nodes/")
	parts := strings.Split(rest, "/")
	nodeID := parts[0]

	m.mu.Lock()
	node, exists := m.nodes[nodeID]
	m.mu.Unlock()
	if !exists {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, node)
	case len(parts) == 1 && r.Method == http.MethodPatch:
		var req api.UpdateNodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed body")
			return
		}
		m.mu.Lock()
		if req.Name != nil {
			node.Name = *req.Name
		}
		m.mu.Unlock()
		writeJSON(w, http.StatusOK, node.Node)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		m.mu.Lock()
		delete(m.nodes, nodeID)
		delete(m.sessions, nodeID)
		delete(m.stats, nodeID)
		m.mu.Unlock()
		writeJSON(w, http.StatusOK, api.SuccessResponse{Success: true})
	case len(parts) == 2 && parts[1] == "stats" && r.Method == http.MethodGet:
		days := 7
		if d := r.URL.Query().Get("days"); d != "" {
			if parsed, err := strconv.Atoi(d); err == nil {
				days = parsed
			}
		}
		m.mu.Lock()
		stats := m.stats[nodeID]
		m.mu.Unlock()
		if stats == nil {
			stats = &models.NodeStats{NodeID: nodeID, PeriodDays: days}
		}
		writeJSON(w, http.StatusOK, stats)
	case len(parts) == 2 && parts[1] == "sessions" && r.Method == http.MethodGet:
		status := models.SessionState(r.URL.Query().Get("status"))
		limit := 0
		if l := r.URL.Query().Get("limit"); l != "" {
			limit, _ = strconv.Atoi(l)
		}
		m.mu.Lock()
		all := m.sessions[nodeID]
		out := make([]models.Session, 0, len(all))
		for _, s := range all {
			if status != "" && s.Status != status {
				continue
			}
			out = append(out, s)
		}
		m.mu.Unlock()
		total := len(out)
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		writeJSON(w, http.StatusOK, api.SessionsResponse{Sessions: out, Total: total})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (m *MockAeroNyxServer) handleCodes(w http.ResponseWriter, r *http.Request) {
	if f, ok := m.track(r); ok {
		http.Error(w, f.body, f.status)
		return
	}
	addr, ok := m.authorize(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired API key")
		return
	}

	switch r.Method {
	case http.MethodPost:
		m.mu.Lock()
		m.nextCode++
		now := m.Now()
		code := &models.RegistrationCode{
			ID:          fmt.Sprintf("code-id-%d", m.nextCode),
			Code:        fmt.Sprintf("AERO-%04d", m.nextCode),
			OwnerWallet: addr,
			Status:      models.CodeUnused,
			IsValid:     true,
			CreatedAt:   now,
			ExpiresAt:   now.Add(m.CodeTTL),
		}
		m.codes[code.Code] = code
		m.mu.Unlock()
		writeJSON(w, http.StatusCreated, code)
	case http.MethodGet:
		includeExpired := r.URL.Query().Get("include_expired") == "true"
		now := m.Now()
		m.mu.Lock()
		out := make([]models.RegistrationCode, 0, len(m.codes))
		for _, c := range m.codes {
			effective := c.EffectiveStatus(now)
			if !includeExpired && (effective == models.CodeExpired || effective == models.CodeRevoked) {
				continue
			}
			snapshot := *c
			snapshot.Status = effective
			snapshot.IsValid = effective == models.CodeUnused
			out = append(out, snapshot)
		}
		m.mu.Unlock()
		writeJSON(w, http.StatusOK, api.CodesResponse{Codes: out, Total: len(out)})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCodeSubtree routes /registration-codes/{code}/revoke.
func (m *MockAeroNyxServer) handleCodeSubtree(w http.ResponseWriter, r *http.Request) {
	if f, ok := m.track(r); ok {
		http.Error(w, f.body, f.status)
		return
	}
	if _, ok := m.authorize(r); !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired API key")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/registration-codes/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "revoke" || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	code, exists := m.codes[parts[0]]
	if !exists {
		writeError(w, http.StatusNotFound, "code not found")
		return
	}
	if code.Status != models.CodeUnused || code.ExpiredAt(m.Now()) {
		writeError(w, http.StatusConflict, "code is not revocable")
		return
	}
	code.Status = models.CodeRevoked
	code.IsValid = false
	writeJSON(w, http.StatusOK, api.SuccessResponse{Success: true})
}
