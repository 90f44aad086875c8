// Package session owns the authoritative in-memory identity record, its
// persistence, and the pure role/permission queries over it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role is the coarse access level attached to a session.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleMember     Role = "member"
	RoleGuest      Role = "guest"
)

// ParseRole validates a raw role string. Unknown values are rejected rather
// than carried along.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleSuperadmin:
		return RoleSuperadmin, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleMember:
		return RoleMember, nil
	case RoleGuest:
		return RoleGuest, nil
	default:
		return "", fmt.Errorf("session: unknown role %q", raw)
	}
}

// Scope narrows what a permission's allowed flag covers.
type Scope string

const (
	ScopeSelf   Scope = "self"
	ScopeGroup  Scope = "group"
	ScopeSystem Scope = "system"

	// ScopeAny matches any scope in permission queries.
	ScopeAny Scope = ""
)

// ParseScope validates a raw scope string.
func ParseScope(raw string) (Scope, error) {
	switch Scope(strings.TrimSpace(strings.ToLower(raw))) {
	case ScopeSelf:
		return ScopeSelf, nil
	case ScopeGroup:
		return ScopeGroup, nil
	case ScopeSystem:
		return ScopeSystem, nil
	default:
		return "", fmt.Errorf("session: unknown scope %q", raw)
	}
}

// Permission is a fine-grained capability. Multiple permissions may share an
// action with different scopes; they are evaluated as a set.
type Permission struct {
	Action  string `json:"action"`
	Scope   Scope  `json:"scope"`
	Allowed bool   `json:"allowed"`
}

// AuthUser is the authoritative identity record for the current session.
// Absence of a session is a nil *AuthUser, never a partially populated record.
type AuthUser struct {
	ID            int64        `json:"id"`
	Username      string       `json:"username"`
	FirstName     string       `json:"first_name,omitempty"`
	LastName      string       `json:"last_name,omitempty"`
	Role          Role         `json:"role"`
	ManagedGroups []int64      `json:"managed_groups,omitempty"`
	Permissions   []Permission `json:"permissions"`
	Token         string       `json:"token,omitempty"`
	ExpiresAt     int64        `json:"expires_at,omitempty"`
}

// DecodeAuthUser deserializes a stored user record, failing closed: any schema
// mismatch (unknown role or scope, missing identifier) yields an error and the
// record is treated as absent by callers.
func DecodeAuthUser(data []byte) (*AuthUser, error) {
	var user AuthUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("session: decode user: %w", err)
	}
	if err := validateUser(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// EncodeAuthUser serializes the record for storage.
func EncodeAuthUser(user *AuthUser) ([]byte, error) {
	if user == nil {
		return nil, errors.New("session: user is required")
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}
	return json.Marshal(user)
}

func validateUser(user *AuthUser) error {
	if user.ID == 0 {
		return errors.New("session: user id is required")
	}
	role, err := ParseRole(string(user.Role))
	if err != nil {
		return err
	}
	user.Role = role
	for i, perm := range user.Permissions {
		scope, err := ParseScope(string(perm.Scope))
		if err != nil {
			return err
		}
		if strings.TrimSpace(perm.Action) == "" {
			return errors.New("session: permission action is required")
		}
		user.Permissions[i].Scope = scope
	}
	return nil
}
