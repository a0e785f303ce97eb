// Package email dispatches the verification and password-reset mail the auth
// flows depend on. The Sender interface is the seam the services are built
// against so tests can substitute a recording fake.
package email

import (
	"context"
	"errors"
)

// Sender delivers auth-related mail. Implementations must not log the code
// or token they carry.
type Sender interface {
	// SendVerificationCode delivers a two-factor verification code.
	SendVerificationCode(ctx context.Context, toEmail, code string) error

	// SendPasswordReset delivers a password-reset link for the given token.
	SendPasswordReset(ctx context.Context, toEmail, token string) error
}

type disabledSender struct {
	reason string
}

// NewDisabledSender returns a Sender that fails every dispatch. Used when no
// SMTP configuration is present so misconfiguration surfaces as an explicit
// dispatch error rather than a nil deref.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendVerificationCode(context.Context, string, string) error {
	return s.err()
}

func (s *disabledSender) SendPasswordReset(context.Context, string, string) error {
	return s.err()
}

func (s *disabledSender) err() error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
