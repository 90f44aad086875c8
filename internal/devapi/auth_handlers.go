package devapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"modpanel.org/internal/session"
)

var (
	errMissingBearer = errors.New("missing bearer token")
	errBadScheme     = errors.New("invalid authorization scheme")
)

type claimsContextKey struct{}

func contextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

func claimsFromContext(ctx context.Context) (*Claims, bool) {
	v, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return v, ok && v != nil
}

const tokenTTL = 24 * time.Hour

type loginRequest struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type loginResponse struct {
	Success   bool              `json:"success"`
	User      *session.AuthUser `json:"user"`
	Token     string            `json:"token"`
	ExpiresAt int64             `json:"expires_at"`
}

func (a *API) buildUser(userID int64, username string) *session.AuthUser {
	role := a.data.roleFor(userID)
	return &session.AuthUser{
		ID:            userID,
		Username:      username,
		Role:          role,
		ManagedGroups: a.data.managedGroups(userID),
		Permissions:   permissionsFor(role),
	}
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == 0 {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeError(w, r, http.StatusBadRequest, "username is required")
		return
	}

	user := a.buildUser(req.UserID, req.Username)
	token, expiresAt, err := a.generateToken(strconv.FormatInt(user.ID, 10), user.Username, string(user.Role), tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	user.ExpiresAt = expiresAt.Unix()

	writeJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; nothing to revoke in the dev backend.
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, a.buildUser(userID, claims.Username))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}
	user := a.buildUser(userID, claims.Username)
	token, expiresAt, err := a.generateToken(claims.Subject, claims.Username, string(user.Role), tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	user.ExpiresAt = expiresAt.Unix()
	writeJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
	})
}
