package aeronyx

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned when a token-bearing call comes back
// 401: the API key has been revoked or timed out server-side. A 401
// from the nonce or login endpoints is an ordinary *APIError, since
// those calls carry no token. Match with errors.Is.
var ErrSessionExpired = errors.New("session expired")

// NetworkError means the request never produced an HTTP response:
// DNS failure, refused connection, timeout. The operation may or may
// not have reached the server.
type NetworkError struct {
	Op  string // method and path, e.g. "GET /api/v1/nodes"
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx response with its parsed error envelope.
// Message is the machine-stable code from the body's "error" field;
// Detail is the human-readable elaboration when the server sent one.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}
