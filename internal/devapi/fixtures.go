package devapi

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"modpanel.org/internal/api"
	"modpanel.org/internal/session"
)

// fixtures is the seeded in-memory state behind the dev backend. Moderation
// handlers mutate it so the console observes realistic state transitions.
type fixtures struct {
	mu          sync.Mutex
	groups      map[int64]*api.Group
	members     map[int64]map[int64]*api.Member // group id -> user id
	actions     []api.Action
	superadmins map[int64]bool
	managed     map[int64][]int64 // user id -> group ids
}

func seedFixtures() *fixtures {
	f := &fixtures{
		groups:      make(map[int64]*api.Group),
		members:     make(map[int64]map[int64]*api.Member),
		superadmins: map[int64]bool{1: true},
		managed: map[int64][]int64{
			42: {1001, 1002},
			77: {1003},
		},
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, g := range []api.Group{
		{ID: 1001, Name: "City Watch", Description: "Main community group", MemberCount: 4, AdminCount: 2, CreatedAt: now, UpdatedAt: now},
		{ID: 1002, Name: "Trading Floor", Description: "Marketplace discussions", MemberCount: 3, AdminCount: 1, CreatedAt: now, UpdatedAt: now},
		{ID: 1003, Name: "Night Shift", Description: "Off-hours chatter", MemberCount: 2, AdminCount: 1, CreatedAt: now, UpdatedAt: now},
	} {
		group := g
		f.groups[group.ID] = &group
		f.members[group.ID] = make(map[int64]*api.Member)
	}

	seedMembers := []api.Member{
		{ID: 1, UserID: 1, GroupID: 1001, Username: "root", IsAdmin: true, IsSuperadmin: true, JoinedAt: now, Status: api.MemberActive},
		{ID: 2, UserID: 42, GroupID: 1001, Username: "alice", IsAdmin: true, JoinedAt: now, Status: api.MemberActive},
		{ID: 3, UserID: 100, GroupID: 1001, Username: "bob", JoinedAt: now, Status: api.MemberActive},
		{ID: 4, UserID: 101, GroupID: 1001, Username: "mallory", JoinedAt: now, Status: api.MemberWarned, Warnings: 2},
		{ID: 5, UserID: 42, GroupID: 1002, Username: "alice", IsAdmin: true, JoinedAt: now, Status: api.MemberActive},
		{ID: 6, UserID: 102, GroupID: 1002, Username: "carol", JoinedAt: now, Status: api.MemberActive},
		{ID: 7, UserID: 103, GroupID: 1002, Username: "dave", JoinedAt: now, Status: api.MemberMuted},
		{ID: 8, UserID: 77, GroupID: 1003, Username: "nightowl", IsAdmin: true, JoinedAt: now, Status: api.MemberActive},
		{ID: 9, UserID: 104, GroupID: 1003, Username: "erin", JoinedAt: now, Status: api.MemberActive},
	}
	for _, m := range seedMembers {
		member := m
		f.members[member.GroupID][member.UserID] = &member
	}

	f.actions = []api.Action{
		{ID: uuid.NewString(), ActionType: api.ActionWarn, GroupID: 1001, UserID: 101, Username: "mallory", InitiatedBy: 42, Reason: "spam links", Status: api.ActionCompleted, CreatedAt: now},
		{ID: uuid.NewString(), ActionType: api.ActionMute, GroupID: 1002, UserID: 103, Username: "dave", InitiatedBy: 42, Reason: "flooding", Duration: 3600, Status: api.ActionCompleted, CreatedAt: now},
	}
	return f
}

// roleFor derives the role the dev backend assigns at login.
func (f *fixtures) roleFor(userID int64) session.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.superadmins[userID] {
		return session.RoleSuperadmin
	}
	if len(f.managed[userID]) > 0 {
		return session.RoleAdmin
	}
	for _, members := range f.members {
		if _, ok := members[userID]; ok {
			return session.RoleMember
		}
	}
	return session.RoleGuest
}

func (f *fixtures) managedGroups(userID int64) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.managed[userID]...)
}

// permissionsFor is the dev backend's permission matrix per role.
func permissionsFor(role session.Role) []session.Permission {
	switch role {
	case session.RoleSuperadmin:
		return []session.Permission{
			{Action: "moderate", Scope: session.ScopeSystem, Allowed: true},
			{Action: "moderate", Scope: session.ScopeGroup, Allowed: true},
			{Action: "view_analytics", Scope: session.ScopeSystem, Allowed: true},
			{Action: "export", Scope: session.ScopeSystem, Allowed: true},
		}
	case session.RoleAdmin:
		return []session.Permission{
			{Action: "moderate", Scope: session.ScopeGroup, Allowed: true},
			{Action: "view_analytics", Scope: session.ScopeGroup, Allowed: true},
			{Action: "export", Scope: session.ScopeGroup, Allowed: true},
		}
	case session.RoleMember:
		return []session.Permission{
			{Action: "view_profile", Scope: session.ScopeSelf, Allowed: true},
			{Action: "moderate", Scope: session.ScopeGroup, Allowed: false},
		}
	default:
		return []session.Permission{}
	}
}

// resolveUser matches a free-form user reference against the member lists.
func (f *fixtures) resolveUser(text string) (int64, string, bool) {
	text = strings.TrimSpace(strings.TrimPrefix(text, "@"))
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, members := range f.members {
		for _, member := range members {
			if member.Username == text || fmt.Sprintf("%d", member.UserID) == text {
				return member.UserID, member.Username, true
			}
		}
	}
	return 0, "", false
}
