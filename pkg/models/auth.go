package models

import "time"

// WalletInfo identifies a connected wallet before login completes.
type WalletInfo struct {
	Address  string         `json:"address"`
	Type     WalletType     `json:"type"`
	Provider WalletProvider `json:"provider"`
}

// AuthSession holds the credentials of a logged-in operator. APIKey is
// the bearer token for all authenticated API calls.
type AuthSession struct {
	APIKey        string     `json:"-"` // Never serialize the key
	WalletAddress string     `json:"wallet_address"`
	WalletType    WalletType `json:"wallet_type"`
}

// IsAuthenticated reports whether the session carries a complete set of
// credentials. Partial sessions (e.g. a wallet address without a key)
// are never authenticated.
func (s AuthSession) IsAuthenticated() bool {
	return s.APIKey != "" && s.WalletAddress != "" && s.WalletType != ""
}

// User is the account record returned at login.
type User struct {
	WalletAddress string     `json:"wallet_address"`
	WalletType    WalletType `json:"wallet_type"`
	CreatedAt     time.Time  `json:"created_at"`
}
