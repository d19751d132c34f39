package models

// NodeState is the reported lifecycle state of a node.
type NodeState string

const (
	NodeOnline    NodeState = "online"
	NodeOffline   NodeState = "offline"
	NodeSuspended NodeState = "suspended"
)

// Valid reports whether the state is one the backend can emit.
func (s NodeState) Valid() bool {
	switch s {
	case NodeOnline, NodeOffline, NodeSuspended:
		return true
	}
	return false
}

// WalletType identifies the chain a wallet address belongs to.
type WalletType string

const (
	WalletETH WalletType = "ETH"
	WalletSOL WalletType = "SOL"
)

// Valid reports whether the wallet type is a supported chain.
func (w WalletType) Valid() bool {
	return w == WalletETH || w == WalletSOL
}

// WalletProvider identifies which wallet implementation supplied the key.
type WalletProvider string

const (
	ProviderPhantom  WalletProvider = "phantom"
	ProviderMetaMask WalletProvider = "metamask"
	ProviderOKX      WalletProvider = "okx"
)

// Providers lists every supported wallet provider in display order.
func Providers() []WalletProvider {
	return []WalletProvider{ProviderPhantom, ProviderMetaMask, ProviderOKX}
}

// CodeStatus is the server-reported state of a registration code.
type CodeStatus string

const (
	CodeUnused  CodeStatus = "unused"
	CodeUsed    CodeStatus = "used"
	CodeExpired CodeStatus = "expired"
	CodeRevoked CodeStatus = "revoked"
)

// SessionState is the state of a client session on a node.
type SessionState string

const (
	SessionActive    SessionState = "active"
	SessionCompleted SessionState = "completed"
	SessionError     SessionState = "error"
)
