package models

import "time"

// RegistrationCode is a one-time code an operator feeds to a new node so
// it can register itself. Codes expire 15 minutes after creation; the
// backend owns Status but expiry is also derivable client-side from
// ExpiresAt so countdowns don't wait on a refetch.
type RegistrationCode struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	OwnerWallet string     `json:"owner_wallet"`
	Status      CodeStatus `json:"status"`
	IsValid     bool       `json:"is_valid"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	NodeID      *string    `json:"node_id,omitempty"` // node that consumed the code
}

// ExpiredAt reports whether the code is past its expiry at the given
// instant. Expiry is inclusive: a code is expired exactly at ExpiresAt.
func (c RegistrationCode) ExpiredAt(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// EffectiveStatus returns the status as of now: a code the server still
// reports unused counts as expired once its deadline passes locally.
// Used and revoked are terminal and never overridden.
func (c RegistrationCode) EffectiveStatus(now time.Time) CodeStatus {
	if c.Status == CodeUnused && c.ExpiredAt(now) {
		return CodeExpired
	}
	return c.Status
}
