package clients

import (
	"net"
	"net/http"
	"time"
)

// DefaultTransport returns the HTTP transport used for API calls.
// Connection counts are capped: a polling dashboard talks to exactly
// one host and must not pile up sockets while that host is down.
func DefaultTransport() *http.Transport {
	return &http.Transport{
		// Cap concurrent connections to the API host
		MaxConnsPerHost: 16,

		// Keep a few connections warm between poll ticks
		MaxIdleConnsPerHost: 4,
		MaxIdleConns:        16,
		IdleConnTimeout:     90 * time.Second,

		// Connection establishment timeouts
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		// TLS handshake timeout
		TLSHandshakeTimeout: 10 * time.Second,

		ExpectContinueTimeout: 1 * time.Second,
	}
}
