package authclient

// ============================================================================
// Request Types
// ============================================================================

// RegisterRequest creates a new account. Registration logs the account in:
// the response carries the session cookie.
type RegisterRequest struct {
	// Username is the login name (unique)
	Username string `json:"username"`

	// Email is the contact address (unique)
	Email string `json:"email"`

	// Password is the plaintext password; it is hashed server-side and
	// never stored
	Password string `json:"password"`

	// DisplayName is the optional human-friendly name
	DisplayName string `json:"display_name,omitempty"`
}

// LoginRequest authenticates a username/password pair.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChallengeRequest completes a two-factor login challenge. Exactly one of
// Code (the emailed 6-digit code) or BackupCode should be set.
type ChallengeRequest struct {
	// MFAToken is the challenge token from the login response
	MFAToken string `json:"mfa_token"`

	// Code is the emailed 6-digit verification code
	Code string `json:"code,omitempty"`

	// BackupCode is an unused backup code (consumed on success)
	BackupCode string `json:"backup_code,omitempty"`
}

// UpdateProfileRequest is a partial profile update; nil fields are left
// unchanged.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// ForgotPasswordRequest starts a password reset for an email address.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest redeems a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// VerifyRequest confirms the emailed two-factor verification code.
type VerifyRequest struct {
	Code string `json:"code"` // 6-digit emailed code
}

// ChangeRoleRequest sets a user's role ("user" or "admin").
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// ============================================================================
// Response Types
// ============================================================================

// UserResponse is the API's view of a user. Password hashes, reset state,
// and two-factor code state are never serialized.
type UserResponse struct {
	ID                string  `json:"id"`
	Username          string  `json:"username"`
	Email             string  `json:"email"`
	DisplayName       string  `json:"display_name,omitempty"`
	Role              string  `json:"role"`
	BusinessID        *string `json:"business_id,omitempty"`
	TwoFactorEnabled  bool    `json:"two_factor_enabled"`
	TwoFactorVerified bool    `json:"two_factor_verified"`
}

// MFAChallengeResponse is returned from login when the account has verified
// two-factor: no session is established until the challenge completes.
type MFAChallengeResponse struct {
	MFARequired bool     `json:"mfa_required"`
	MFAToken    string   `json:"mfa_token"`
	Methods     []string `json:"methods"`
}

// LoginResult is the outcome of a login call: exactly one of User (session
// established) or Challenge (second factor pending) is set.
type LoginResult struct {
	User      *UserResponse
	Challenge *MFAChallengeResponse
}

// MessageResponse is a generic acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ForgotPasswordResponse acknowledges a reset request. The response is
// identical whether or not the address maps to an account. DebugToken is
// populated only in non-production environments.
type ForgotPasswordResponse struct {
	Message    string `json:"message"`
	DebugToken string `json:"debug_token,omitempty"`
}

// BackupCodesResponse carries the plaintext backup codes, shown exactly once
// at verification time.
type BackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

// ListUsersResponse is the admin user listing.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
}

// HealthResponse is the shape of the /livez and /readyz endpoints; readyz
// includes the Checks field.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database string `json:"database"`
}
