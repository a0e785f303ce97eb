package service

import "errors"

// Failure classes surfaced to the HTTP boundary. Handlers map these to
// statuses and user-safe messages; anything else is an internal error.
var (
	// ErrInvalidCredentials covers both unknown username and wrong password,
	// deliberately: the response must not reveal which.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrDuplicateIdentity reports a username or email collision at registration.
	ErrDuplicateIdentity = errors.New("username or email already registered")

	// ErrInvalidOrExpiredToken reports an unusable password-reset token.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")

	// Two-factor verification failures.
	ErrNoVerificationInProgress = errors.New("no verification in progress")
	ErrCodeExpired              = errors.New("verification code expired")
	ErrInvalidCode              = errors.New("invalid verification code")

	// ErrChallengeInvalid reports an unknown, expired, or exhausted
	// second-factor login challenge.
	ErrChallengeInvalid = errors.New("invalid or expired login challenge")

	// ErrEmailDispatch reports a downstream mail provider failure. Clients
	// see a generic "service unavailable"; the provider detail stays in logs.
	ErrEmailDispatch = errors.New("email dispatch failed")

	// ErrForbidden reports an administrative operation outside the caller's
	// authority (wrong tenant, self-deletion, non-admin caller).
	ErrForbidden = errors.New("operation not permitted")
)
