// Package aeronyx implements the client for the AeroNyx node-management
// API. One method per endpoint; every method takes a context, attaches
// the operator's bearer token (except the nonce and login challenges,
// which happen before a token exists), and translates failures into the
// shared error taxonomy: *NetworkError, *APIError, ErrSessionExpired.
package aeronyx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	api "github.com/AeroNyxNetwork/nodeboard/pkg/api/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/clients"
	"github.com/AeroNyxNetwork/nodeboard/pkg/logging"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
	"github.com/AeroNyxNetwork/nodeboard/pkg/version"
)

const basePath = "/api/v1"

// CredentialSource supplies the current API key. The client only reads
// credentials; ownership of auth state stays with the auth manager.
type CredentialSource interface {
	APIKey() string
}

// Client talks to the AeroNyx API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialSource
	logger      logging.Logger
	retryConfig clients.RetryConfig

	// onSessionExpired fires once per expiry episode; concurrent 401s
	// from in-flight calls collapse into a single signal.
	onSessionExpired func()
	expiredSignaled  atomic.Bool
}

// Config represents the configuration for the AeroNyx client.
type Config struct {
	BaseURL              string
	Credentials          CredentialSource
	Timeout              time.Duration
	Logger               logging.Logger
	RetryConfig          *clients.RetryConfig
	CircuitBreakerConfig *clients.CircuitBreakerConfig

	// OnSessionExpired is invoked when a token-bearing call returns 401.
	OnSessionExpired func()
}

// NewClient creates a new AeroNyx API client.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	retryConfig := clients.DefaultRetryConfig()
	if config.RetryConfig != nil {
		retryConfig = *config.RetryConfig
	}

	// Add circuit breaker if configured
	if config.CircuitBreakerConfig != nil {
		retryConfig.CircuitBreaker = clients.NewCircuitBreaker(*config.CircuitBreakerConfig)
	}

	httpClient := &http.Client{
		Timeout:   config.Timeout,
		Transport: clients.DefaultTransport(),
	}

	return &Client{
		baseURL:          config.BaseURL,
		httpClient:       httpClient,
		credentials:      config.Credentials,
		logger:           config.Logger,
		retryConfig:      retryConfig,
		onSessionExpired: config.OnSessionExpired,
	}
}

// GetNonce requests a login challenge for a wallet address. The
// returned Message is the exact string to sign; never reconstruct it.
func (c *Client) GetNonce(ctx context.Context, walletAddress string) (*api.NonceResponse, error) {
	var out api.NonceResponse
	err := c.do(ctx, http.MethodPost, "/auth/nonce", api.NonceRequest{WalletAddress: walletAddress}, &out, callOpts{retry: clients.NoRetry()})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges a signed challenge for an API key. Challenges are
// single-use, so this call is never retried.
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	var out api.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", req, &out, callOpts{retry: clients.NoRetry()})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetNodes lists the operator's nodes, optionally filtered by state.
func (c *Client) GetNodes(ctx context.Context, q api.NodesQuery) (*api.NodesResponse, error) {
	path := "/nodes"
	if q.Status != "" {
		path += "?status=" + url.QueryEscape(string(q.Status))
	}
	var out api.NodesResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out, callOpts{authed: true, retry: c.retryConfig}); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetNodeDetail fetches one node with its detail-only fields.
func (c *Client) GetNodeDetail(ctx context.Context, nodeID string) (*models.NodeDetail, error) {
	path := fmt.Sprintf("/nodes/%s", url.PathEscape(nodeID))
	var out models.NodeDetail
	if err := c.do(ctx, http.MethodGet, path, nil, &out, callOpts{authed: true, retry: c.retryConfig}); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetNodeStats fetches the aggregate stats for a node over a trailing
// window of days.
func (c *Client) GetNodeStats(ctx context.Context, nodeID string, days int) (*models.NodeStats, error) {
	path := fmt.Sprintf("/nodes/%s/stats?days=%d", url.PathEscape(nodeID), days)
	var out models.NodeStats
	if err := c.do(ctx, http.MethodGet, path, nil, &out, callOpts{authed: true, retry: c.retryConfig}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNode changes a node's mutable fields. Not retried: the server
// applies it on first receipt.
func (c *Client) UpdateNode(ctx context.Context, nodeID string, req api.UpdateNodeRequest) (*models.Node, error) {
	path := fmt.Sprintf("/nodes/%s", url.PathEscape(nodeID))
	var out models.Node
	if err := c.do(ctx, http.MethodPatch, path, req, &out, callOpts{authed: true, retry: clients.NoRetry()}); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteNode removes a node registration.
func (c *Client) DeleteNode(ctx context.Context, nodeID string) error {
	path := fmt.Sprintf("/nodes/%s", url.PathEscape(nodeID))
	return c.do(ctx, http.MethodDelete, path, nil, nil, callOpts{authed: true, retry: clients.NoRetry()})
}

// GetNodeSessions lists client sessions served by a node.
func (c *Client) GetNodeSessions(ctx context.Context, nodeID string, q api.SessionsQuery) (*api.SessionsResponse, error) {
	path := fmt.Sprintf("/nodes/%s/sessions", url.PathEscape(nodeID))
	params := url.Values{}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var out api.SessionsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out, callOpts{authed: true, retry: c.retryConfig}); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateRegistrationCode mints a new one-time registration code.
func (c *Client) GenerateRegistrationCode(ctx context.Context) (*models.RegistrationCode, error) {
	var out models.RegistrationCode
	if err := c.do(ctx, http.MethodPost, "/registration-codes", nil, &out, callOpts{authed: true, retry: clients.NoRetry()}); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRegistrationCodes lists the operator's codes. By default only
// live codes come back; includeExpired widens the window.
func (c *Client) GetRegistrationCodes(ctx context.Context, includeExpired bool) (*api.CodesResponse, error) {
	path := "/registration-codes"
	if includeExpired {
		path += "?include_expired=true"
	}
	var out api.CodesResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out, callOpts{authed: true, retry: c.retryConfig}); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevokeRegistrationCode invalidates an unused code before its expiry.
func (c *Client) RevokeRegistrationCode(ctx context.Context, code string) error {
	path := fmt.Sprintf("/registration-codes/%s/revoke", url.PathEscape(code))
	return c.do(ctx, http.MethodPost, path, nil, nil, callOpts{authed: true, retry: clients.NoRetry()})
}

type callOpts struct {
	authed bool
	retry  clients.RetryConfig
}

// do runs one API call: build request, attach headers, execute with the
// configured retry policy, map the outcome onto the error taxonomy, and
// decode the body into out when provided.
func (c *Client) do(ctx context.Context, method, path string, reqBody, out interface{}, opts callOpts) error {
	op := method + " " + basePath + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+basePath+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", uuid.New().String())

	if opts.authed {
		key := ""
		if c.credentials != nil {
			key = c.credentials.APIKey()
		}
		if key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	}

	resp, err := clients.DoWithRetry(ctx, c.httpClient, req, opts.retry)
	if err != nil {
		if c.logger != nil {
			c.logger.WithFields(logging.Fields{"op": op}).WithError(err).Debug("request failed before a response")
		}
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && opts.authed {
		apiErr := parseAPIError(resp.StatusCode, body)
		c.signalSessionExpired()
		return fmt.Errorf("%s: %w: %w", op, ErrSessionExpired, apiErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, body)
		if c.logger != nil {
			c.logger.WithFields(logging.Fields{
				"op":     op,
				"status": resp.StatusCode,
				"error":  apiErr.Message,
			}).Debug("api call rejected")
		}
		return apiErr
	}

	// A token-bearing call succeeded, so any earlier expiry episode is
	// over and a future 401 should signal again.
	if opts.authed {
		c.expiredSignaled.Store(false)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// parseAPIError decodes the {error, detail} envelope, falling back to
// the raw body when the server sent something else.
func parseAPIError(status int, body []byte) *APIError {
	var envelope api.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return &APIError{Status: status, Message: envelope.Error, Detail: envelope.Detail}
	}
	msg := http.StatusText(status)
	if len(body) > 0 {
		msg = string(body)
	}
	return &APIError{Status: status, Message: msg}
}

func (c *Client) signalSessionExpired() {
	if c.onSessionExpired == nil {
		return
	}
	if c.expiredSignaled.CompareAndSwap(false, true) {
		if c.logger != nil {
			c.logger.Warn("session expired; clearing credentials")
		}
		c.onSessionExpired()
	}
}
