package domain

import "time"

// Second-factor methods accepted when completing a login challenge.
const (
	ChallengeMethodEmail      = "email"
	ChallengeMethodBackupCode = "backup_code"
)

// LoginChallenge is a pending second-factor gate between a successful
// password check and session establishment, for users with verified
// two-factor auth. The emailed code's fingerprint lives on the challenge so
// each challenge gets a fresh code.
type LoginChallenge struct {
	ID        string // ULID, returned to the client as the mfa_token
	UserID    string
	CodeHash  string
	Attempts  int // failed attempts so far; capped to prevent brute force
	ExpiresAt time.Time
	CreatedAt time.Time
}

// MaxChallengeAttempts is the failed-attempt cap per login challenge.
const MaxChallengeAttempts = 5

// ChallengeResponse is returned by login when a second factor is required
// instead of a session.
type ChallengeResponse struct {
	MFARequired bool     `json:"mfa_required"` // always true
	MFAToken    string   `json:"mfa_token"`
	Methods     []string `json:"methods"`
}
