package domain

import "time"

// Role values understood by the console.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the credential and identity aggregate. Secret-bearing fields
// (PasswordHash, ResetTokenHash, TwoFactorCodeHash) never leave the server;
// handlers serialize users through the Principal view.
type User struct {
	ID           string
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string  // argon2id PHC encoded
	Role         string  // "user" or "admin"
	BusinessID   *string // tenant link, nil until a business profile exists

	// Password-reset sub-state. Either both fields are set (a reset is in
	// flight) or both are nil.
	ResetTokenHash    *string
	ResetTokenExpires *time.Time

	// Two-factor sub-state. The temp code fields are set only during the
	// enable/verify window and are cleared together.
	TwoFactorEnabled     bool
	TwoFactorVerified    bool
	TwoFactorCodeHash    *string
	TwoFactorCodeExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal is the authenticated user's identity as exposed to request
// handlers and API clients: every persisted field except secrets and
// sub-state internals.
type Principal struct {
	ID                string  `json:"id"`
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	DisplayName       string  `json:"display_name,omitempty"`
	Role              string  `json:"role"`
	BusinessID        *string `json:"business_id,omitempty"`
	TwoFactorEnabled  bool    `json:"two_factor_enabled"`
	TwoFactorVerified bool    `json:"two_factor_verified"`
}

// Principal strips secret-bearing fields from a user record.
func (u User) Principal() Principal {
	return Principal{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		DisplayName:       u.DisplayName,
		Role:              u.Role,
		BusinessID:        u.BusinessID,
		TwoFactorEnabled:  u.TwoFactorEnabled,
		TwoFactorVerified: u.TwoFactorVerified,
	}
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
