package testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSigningSecret signs JWT-shaped API keys for tests. The dashboard
// never verifies these (it holds no secret); status only peeks at the
// expiry claim with an unverified parse.
var testSigningSecret = []byte("test-secret-for-unit-tests")

// GenerateAPIKeyJWT mints a JWT-shaped API key for a wallet with the
// given expiry.
func GenerateAPIKeyJWT(walletAddress string, expiresAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   walletAddress,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(testSigningSecret)
}

// GenerateExpiredAPIKeyJWT mints a key that expired an hour ago.
func GenerateExpiredAPIKeyJWT(walletAddress string) (string, error) {
	return GenerateAPIKeyJWT(walletAddress, time.Now().Add(-1*time.Hour))
}

// OpaqueAPIKey returns a key with no JWT structure, for exercising the
// code path where no expiry can be read.
func OpaqueAPIKey() string {
	return "aeronyx-opaque-key-123456"
}
