package session

import "testing"

func TestNilUserDeniesEverything(t *testing.T) {
	var u *AuthUser
	if u.HasRole(RoleSuperadmin, RoleAdmin, RoleMember, RoleGuest) {
		t.Fatalf("nil user matched a role")
	}
	if u.HasPermission("moderate", ScopeAny) {
		t.Fatalf("nil user granted a permission")
	}
	if u.CanManageGroup(1) {
		t.Fatalf("nil user manages a group")
	}
}

func TestHasRole(t *testing.T) {
	u := &AuthUser{ID: 1, Role: RoleAdmin}
	if !u.HasRole(RoleAdmin) {
		t.Fatalf("expected role match")
	}
	if !u.HasRole(RoleSuperadmin, RoleAdmin) {
		t.Fatalf("expected match within a set")
	}
	if u.HasRole(RoleSuperadmin, RoleMember) {
		t.Fatalf("unexpected role match")
	}
}

func TestHasPermission(t *testing.T) {
	u := &AuthUser{
		ID:   1,
		Role: RoleAdmin,
		Permissions: []Permission{
			{Action: "moderate", Scope: ScopeGroup, Allowed: true},
			{Action: "moderate", Scope: ScopeSystem, Allowed: false},
			{Action: "export", Scope: ScopeSystem, Allowed: false},
		},
	}

	cases := []struct {
		action string
		scope  Scope
		want   bool
	}{
		{"moderate", ScopeGroup, true},
		{"moderate", ScopeAny, true},
		{"moderate", ScopeSystem, false}, // present but not allowed
		{"moderate", ScopeSelf, false},
		{"export", ScopeAny, false}, // only a disallowed entry exists
		{"missing", ScopeAny, false},
	}
	for _, tc := range cases {
		if got := u.HasPermission(tc.action, tc.scope); got != tc.want {
			t.Fatalf("HasPermission(%q, %q) = %v, want %v", tc.action, tc.scope, got, tc.want)
		}
	}
}

func TestCanManageGroup(t *testing.T) {
	admin := &AuthUser{ID: 1, Role: RoleAdmin, ManagedGroups: []int64{10, 20}}
	if !admin.CanManageGroup(10) {
		t.Fatalf("expected managed group")
	}
	if admin.CanManageGroup(30) {
		t.Fatalf("unexpected managed group")
	}

	super := &AuthUser{ID: 2, Role: RoleSuperadmin}
	if !super.CanManageGroup(999) {
		t.Fatalf("superadmin must manage every group")
	}
}

func TestDecodeRejectsBadRecords(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `{{`},
		{"missing id", `{"username":"a","role":"admin"}`},
		{"unknown role", `{"id":1,"role":"owner"}`},
		{"unknown scope", `{"id":1,"role":"admin","permissions":[{"action":"x","scope":"planet","allowed":true}]}`},
		{"blank action", `{"id":1,"role":"admin","permissions":[{"action":" ","scope":"self","allowed":true}]}`},
	}
	for _, tc := range cases {
		if _, err := DecodeAuthUser([]byte(tc.data)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestEncodeDecodeNormalizesRole(t *testing.T) {
	data := []byte(`{"id":7,"username":"ops","role":" Admin ","permissions":[{"action":"moderate","scope":"GROUP","allowed":true}]}`)
	user, err := DecodeAuthUser(data)
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != RoleAdmin {
		t.Fatalf("role not normalized: %q", user.Role)
	}
	if user.Permissions[0].Scope != ScopeGroup {
		t.Fatalf("scope not normalized: %q", user.Permissions[0].Scope)
	}
	if _, err := EncodeAuthUser(user); err != nil {
		t.Fatal(err)
	}
	if _, err := EncodeAuthUser(nil); err == nil {
		t.Fatalf("expected error for nil user")
	}
}
