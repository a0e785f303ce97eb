package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Client talks to the auth service. It is safe for concurrent use; the
// cookie jar carries the session across calls.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with a fresh cookie jar.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doJSON performs a request with an optional JSON body and decodes the
// response into target when the status matches expectedStatus. A mismatched
// status comes back as an *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, target any, expectedStatus int) error {
	var body io.Reader
	if reqBody != nil {
		buf, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	if target != nil {
		if err := json.Unmarshal(bodyBytes, target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Register creates an account and logs it in (the session cookie lands in
// the jar).
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	var user UserResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/register", req, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates a username/password pair. Accounts with verified
// two-factor get a Challenge instead of a session; complete it with
// CompleteChallenge.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var raw json.RawMessage
	err := c.doJSON(ctx, http.MethodPost, "/api/login",
		LoginRequest{Username: username, Password: password}, &raw, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var challenge MFAChallengeResponse
	if err := json.Unmarshal(raw, &challenge); err == nil && challenge.MFARequired {
		return &LoginResult{Challenge: &challenge}, nil
	}

	var user UserResponse
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	return &LoginResult{User: &user}, nil
}

// CompleteChallenge finishes a two-factor login challenge and establishes
// the session.
func (c *Client) CompleteChallenge(ctx context.Context, req ChallengeRequest) (*UserResponse, error) {
	var user UserResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/2fa/challenge", req, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout destroys the current session. Succeeds even without one.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/logout", nil, nil, http.StatusOK)
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*UserResponse, error) {
	var user UserResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/user", nil, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial profile update to the authenticated user.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*UserResponse, error) {
	var user UserResponse
	if err := c.doJSON(ctx, http.MethodPatch, "/api/user", req, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// ForgotPassword requests a password reset email. The response is the same
// whether or not the address maps to an account.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResponse, error) {
	var resp ForgotPasswordResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/forgot-password",
		ForgotPasswordRequest{Email: email}, &resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword redeems a reset token with a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/reset-password",
		ResetPasswordRequest{Token: token, NewPassword: newPassword}, nil, http.StatusOK)
}

// EnableTwoFactor starts two-factor enrollment; the verification code is
// emailed.
func (c *Client) EnableTwoFactor(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/2fa/enable", nil, nil, http.StatusOK)
}

// VerifyTwoFactor confirms the emailed code and returns the backup codes
// (shown exactly once).
func (c *Client) VerifyTwoFactor(ctx context.Context, code string) ([]string, error) {
	var resp BackupCodesResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/2fa/verify",
		VerifyRequest{Code: code}, &resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return resp.BackupCodes, nil
}

// DisableTwoFactor turns two-factor off and discards backup codes.
func (c *Client) DisableTwoFactor(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/2fa/disable", nil, nil, http.StatusOK)
}

// ListUsers returns the users of the caller's business (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]UserResponse, error) {
	var resp ListUsersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/users", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// ChangeRole sets another user's role (admin only, same business).
func (c *Client) ChangeRole(ctx context.Context, userID, role string) (*UserResponse, error) {
	var user UserResponse
	err := c.doJSON(ctx, http.MethodPatch, "/api/users/"+userID+"/role",
		ChangeRoleRequest{Role: role}, &user, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user from the caller's business (admin only).
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/users/"+userID, nil, nil, http.StatusOK)
}

// Livez reports liveness.
func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Readyz reports readiness, including dependency checks.
func (c *Client) Readyz(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}
