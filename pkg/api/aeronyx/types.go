// Package aeronyx defines the wire types of the AeroNyx node-management
// REST API (base path /api/v1). Request and response shapes here are the
// contract; clients and test fixtures both build on them.
package aeronyx

import (
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// SuccessResponse acknowledges mutations that return no entity.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// NonceRequest asks for a login challenge for a wallet address.
type NonceRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// NonceResponse carries the challenge. Message is the exact byte string
// the wallet must sign; clients must not reconstruct it from Nonce.
type NonceResponse struct {
	Nonce     string `json:"nonce"`
	Message   string `json:"message"`
	IsNewUser bool   `json:"is_new_user"`
}

// LoginRequest exchanges a signed challenge for an API key.
type LoginRequest struct {
	WalletAddress string            `json:"wallet_address"`
	WalletType    models.WalletType `json:"wallet_type"`
	Signature     string            `json:"signature"`
}

// LoginResponse carries the bearer credential and the account record.
type LoginResponse struct {
	APIKey  string      `json:"api_key"`
	User    models.User `json:"user"`
	Message string      `json:"message,omitempty"`
}

// NodesResponse wraps the node list endpoint.
type NodesResponse struct {
	Nodes []models.Node `json:"nodes"`
	Total int           `json:"total"`
}

// SessionsResponse wraps a node's session list.
type SessionsResponse struct {
	Sessions []models.Session `json:"sessions"`
	Total    int              `json:"total"`
}

// CodesResponse wraps the registration code list.
type CodesResponse struct {
	Codes []models.RegistrationCode `json:"codes"`
	Total int                       `json:"total"`
}

// UpdateNodeRequest carries the mutable node fields. Nil means unchanged.
type UpdateNodeRequest struct {
	Name *string `json:"name,omitempty"`
}

// NodesQuery narrows the node list. Zero values mean no filter.
type NodesQuery struct {
	Status models.NodeState
}

// SessionsQuery narrows a node's session list. Zero values mean no
// filter and the server default page size.
type SessionsQuery struct {
	Status models.SessionState
	Limit  int
}
