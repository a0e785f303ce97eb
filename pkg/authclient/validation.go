package authclient

import (
	"regexp"
	"strings"
)

const (
	requiredReason = "required"
	onlyAlphanum   = "must only contain a-z, A-Z, 0-9, _ or -"
)

var (
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	reEmail    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Validate checks the registration fields. Returns a map of field names to
// error messages, or nil if all fields are valid.
func (r RegisterRequest) Validate() map[string]string {
	errs := make(map[string]string)

	username := strings.TrimSpace(r.Username)
	switch {
	case username == "":
		errs["username"] = requiredReason
	case len(username) < 3 || len(username) > 32:
		errs["username"] = "must be 3-32 characters"
	case !reUsername.MatchString(username):
		errs["username"] = onlyAlphanum
	}

	validateEmail(errs, "email", r.Email)
	validatePassword(errs, "password", r.Password)

	if len(r.DisplayName) > 64 {
		errs["display_name"] = "too long (max 64)"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Validate checks the reset fields.
func (r ResetPasswordRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(r.Token) == "" {
		errs["token"] = requiredReason
	}
	validatePassword(errs, "new_password", r.NewPassword)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Validate checks a profile update.
func (r UpdateProfileRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Email != nil {
		validateEmail(errs, "email", *r.Email)
	}
	if r.DisplayName != nil && len(*r.DisplayName) > 64 {
		errs["display_name"] = "too long (max 64)"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateEmail(errs map[string]string, field, email string) {
	addr := strings.TrimSpace(email)
	switch {
	case addr == "":
		errs[field] = requiredReason
	case len(addr) > 254 || !reEmail.MatchString(addr):
		errs[field] = "not a valid email address"
	}
}

func validatePassword(errs map[string]string, field, pw string) {
	switch {
	case pw == "":
		errs[field] = requiredReason
	case len(pw) < 8:
		errs[field] = "too short (min 8)"
	case len(pw) > 128:
		errs[field] = "too long (max 128)"
	}
}
