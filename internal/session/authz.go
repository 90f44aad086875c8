package session

// Authorization queries are pure and nil-safe: every one of them degrades to
// "deny" when the user is absent so callers never need to guard on session
// presence.

// HasRole reports whether the user's role is one of the given roles.
func (u *AuthUser) HasRole(roles ...Role) bool {
	if u == nil {
		return false
	}
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether at least one permission matches the action,
// matches the scope (ScopeAny matches all), and is allowed. A missing
// permission is an ordinary false, not an error.
func (u *AuthUser) HasPermission(action string, scope Scope) bool {
	if u == nil {
		return false
	}
	for _, perm := range u.Permissions {
		if perm.Action != action {
			continue
		}
		if scope != ScopeAny && perm.Scope != scope {
			continue
		}
		if perm.Allowed {
			return true
		}
	}
	return false
}

// CanManageGroup reports whether the user may administer the group.
// Superadmins manage every group regardless of their managed-group list.
func (u *AuthUser) CanManageGroup(groupID int64) bool {
	if u == nil {
		return false
	}
	if u.Role == RoleSuperadmin {
		return true
	}
	for _, id := range u.ManagedGroups {
		if id == groupID {
			return true
		}
	}
	return false
}
