package domain

import "time"

// UserSession is the durable audit row written on every login. It tracks
// devices for the session history view and is soft-deleted on logout.
// Authorization decisions never read this table; the credential store in
// Redis is authoritative and this row may lag behind it.
type UserSession struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	SessionID       string    `json:"session_id"`
	RefreshTokenKey string    `json:"-"`
	DeviceInfo      string    `json:"device_info"`
	IPAddress       string    `json:"ip_address"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	LastActivity    time.Time `json:"last_activity"`
	IsActive        bool      `json:"is_active"`
}

// CredentialRecord is the server-side state for one active refresh token,
// stored in Redis keyed by the token's derived key. The raw token never
// persists server-side, only its derived key. A user holds at most
// MaxSessionsPerUser of these; the oldest is evicted in insertion order.
type CredentialRecord struct {
	TokenKey   string    `json:"token_key"`
	DeviceInfo string    `json:"device_info"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}
