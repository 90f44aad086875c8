package api

import (
	"bytes"
	"context"
	"encoding/json"

	"modpanel.org/internal/session"
)

// AuthAPI covers credential exchange. It satisfies session.Authenticator.
type AuthAPI struct {
	c *Client
}

type loginRequest struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type loginResponse struct {
	Success   bool            `json:"success"`
	User      json.RawMessage `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt int64           `json:"expires_at"`
}

// Login exchanges the operator identifier and username for a session. The user
// record is decoded strictly; a malformed record fails the login rather than
// producing a partially trusted session.
func (a *AuthAPI) Login(ctx context.Context, userID int64, username string) (*session.AuthUser, string, error) {
	if userID == 0 {
		return nil, "", validationError("user id is required")
	}
	if username == "" {
		return nil, "", validationError("username is required")
	}

	body, err := json.Marshal(loginRequest{UserID: userID, Username: username})
	if err != nil {
		return nil, "", &Error{Message: err.Error(), Class: ClassGeneric, Err: err}
	}
	resp, err := a.c.NewRequest(ctx, "POST", "/auth/login", bytes.NewReader(body), nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	ret, err := parseResponse[loginResponse](resp)
	if err != nil {
		return nil, "", &Error{Message: "malformed login response", Class: ClassGeneric, Err: err}
	}
	if !ret.Success || ret.Token == "" {
		return nil, "", &Error{Message: "login failed", Class: ClassCredential}
	}
	user, err := session.DecodeAuthUser(ret.User)
	if err != nil {
		return nil, "", &Error{Message: "malformed login response", Class: ClassGeneric, Err: err}
	}
	if ret.ExpiresAt > 0 {
		user.ExpiresAt = ret.ExpiresAt
	}
	return user, ret.Token, nil
}

// Logout notifies the backend. Callers treat failures as best-effort.
func (a *AuthAPI) Logout(ctx context.Context) error {
	resp, err := a.c.NewRequest(ctx, "POST", "/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// Me fetches the record behind the current token.
func (a *AuthAPI) Me(ctx context.Context) (*session.AuthUser, error) {
	resp, err := a.c.NewRequest(ctx, "GET", "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := parseResponse[json.RawMessage](resp)
	if err != nil {
		return nil, &Error{Message: "malformed user record", Class: ClassGeneric, Err: err}
	}
	user, err := session.DecodeAuthUser(raw)
	if err != nil {
		return nil, &Error{Message: "malformed user record", Class: ClassGeneric, Err: err}
	}
	return user, nil
}

// Refresh exchanges the current token for a fresh one plus an updated record.
func (a *AuthAPI) Refresh(ctx context.Context) (*session.AuthUser, string, error) {
	resp, err := a.c.NewRequest(ctx, "POST", "/auth/refresh", nil, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	ret, err := parseResponse[loginResponse](resp)
	if err != nil {
		return nil, "", &Error{Message: "malformed refresh response", Class: ClassGeneric, Err: err}
	}
	if !ret.Success || ret.Token == "" {
		return nil, "", &Error{Message: "refresh failed", Class: ClassCredential}
	}
	user, err := session.DecodeAuthUser(ret.User)
	if err != nil {
		return nil, "", &Error{Message: "malformed refresh response", Class: ClassGeneric, Err: err}
	}
	if ret.ExpiresAt > 0 {
		user.ExpiresAt = ret.ExpiresAt
	}
	return user, ret.Token, nil
}
