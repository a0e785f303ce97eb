package domain

import "time"

// Session is a server-side session record. The opaque cookie token itself is
// never stored; TokenHash holds its SHA-256 fingerprint. Expiry is absolute.
type Session struct {
	ID        string // ULID
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is past its absolute expiry.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
