package email

import (
	"context"
	"errors"
	"sync"
)

// Recorder is an in-memory Sender used by tests. It captures the last code
// and token per recipient and can be told to fail dispatch.
type Recorder struct {
	mu sync.Mutex

	FailSends bool

	codes  map[string]string
	tokens map[string]string
}

func NewRecorder() *Recorder {
	return &Recorder{
		codes:  make(map[string]string),
		tokens: make(map[string]string),
	}
}

func (r *Recorder) SendVerificationCode(_ context.Context, toEmail, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailSends {
		return errors.New("recorder: dispatch failure injected")
	}
	r.codes[toEmail] = code
	return nil
}

func (r *Recorder) SendPasswordReset(_ context.Context, toEmail, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailSends {
		return errors.New("recorder: dispatch failure injected")
	}
	r.tokens[toEmail] = token
	return nil
}

// LastCode returns the most recent verification code sent to an address.
func (r *Recorder) LastCode(toEmail string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[toEmail]
}

// LastResetToken returns the most recent reset token sent to an address.
func (r *Recorder) LastResetToken(toEmail string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[toEmail]
}
