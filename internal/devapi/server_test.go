package devapi_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modpanel.org/internal/api"
	"modpanel.org/internal/devapi"
	"modpanel.org/internal/session"
	"modpanel.org/internal/store"
)

func startBackend(t *testing.T) (*api.Client, *store.Store) {
	t.Helper()
	server := httptest.NewServer(devapi.New("test-secret", "0.0.0-test").Handler())
	t.Cleanup(server.Close)

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return api.New(server.URL+"/api/web", st), st
}

// login authenticates through the real adapter and persists the session the
// way the session manager would.
func login(t *testing.T, c *api.Client, st *store.Store, userID int64, username string) *session.AuthUser {
	t.Helper()
	user, token, err := c.Auth.Login(context.Background(), userID, username)
	require.NoError(t, err)
	require.NoError(t, st.Set(store.KeyAuthToken, token))
	require.NoError(t, st.Set(store.KeyUserID, "42"))
	return user
}

func TestHealthIsPublic(t *testing.T) {
	c, _ := startBackend(t)
	health, err := c.Util.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "modpanel-devapi", health.Service)
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	c, st := startBackend(t)
	_, err := c.Groups.List(context.Background(), 1, 20, nil)
	require.Error(t, err)
	assert.Equal(t, api.ClassCredential, api.ClassOf(err))

	// garbage tokens are rejected the same way
	require.NoError(t, st.Set(store.KeyAuthToken, "not-a-jwt"))
	_, err = c.Groups.List(context.Background(), 1, 20, nil)
	require.Error(t, err)
	assert.Equal(t, api.ClassCredential, api.ClassOf(err))
	_, ok := st.Get(store.KeyAuthToken)
	assert.False(t, ok, "rejected token must be cleared")
}

func TestLoginAssignsRolesFromFixtures(t *testing.T) {
	c, _ := startBackend(t)

	super, _, err := c.Auth.Login(context.Background(), 1, "root")
	require.NoError(t, err)
	assert.Equal(t, session.RoleSuperadmin, super.Role)
	assert.True(t, super.CanManageGroup(9999))

	admin, _, err := c.Auth.Login(context.Background(), 42, "alice")
	require.NoError(t, err)
	assert.Equal(t, session.RoleAdmin, admin.Role)
	assert.Equal(t, []int64{1001, 1002}, admin.ManagedGroups)
	assert.True(t, admin.HasPermission("moderate", session.ScopeGroup))
	assert.False(t, admin.CanManageGroup(1003))

	member, _, err := c.Auth.Login(context.Background(), 100, "bob")
	require.NoError(t, err)
	assert.Equal(t, session.RoleMember, member.Role)
	assert.False(t, member.HasPermission("moderate", session.ScopeAny))

	guest, _, err := c.Auth.Login(context.Background(), 555555, "stranger")
	require.NoError(t, err)
	assert.Equal(t, session.RoleGuest, guest.Role)
}

func TestMeMatchesLogin(t *testing.T) {
	c, st := startBackend(t)
	logged := login(t, c, st, 42, "alice")

	me, err := c.Auth.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, logged.ID, me.ID)
	assert.Equal(t, logged.Role, me.Role)
	assert.Equal(t, logged.ManagedGroups, me.ManagedGroups)
}

func TestRefreshIssuesNewToken(t *testing.T) {
	c, st := startBackend(t)
	login(t, c, st, 42, "alice")
	old, _ := st.Get(store.KeyAuthToken)

	user, token, err := c.Auth.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, old)
	assert.Equal(t, int64(42), user.ID)
}

func TestGroupBrowsing(t *testing.T) {
	c, st := startBackend(t)
	login(t, c, st, 42, "alice")

	list, err := c.Groups.List(context.Background(), 1, 20, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, "City Watch", list.Groups[0].Name)

	group, err := c.Groups.Get(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, "City Watch", group.Name)

	_, err = c.Groups.Get(context.Background(), 4242)
	require.Error(t, err)
	assert.Equal(t, "resource not found", err.Error())

	members, err := c.Groups.Members(context.Background(), 1001, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 4, members.Total)

	matches, err := c.Groups.SearchMembers(context.Background(), 1001, "mallory")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(101), matches[0].UserID)
}

func TestModerationActionFlow(t *testing.T) {
	c, st := startBackend(t)
	login(t, c, st, 42, "alice")

	result, err := c.Actions.Ban(context.Background(), 1001, "@bob", "repeated spam")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(100), result.UserID)

	// the member record reflects the ban
	member, err := c.Groups.Member(context.Background(), 1001, 100)
	require.NoError(t, err)
	assert.Equal(t, api.MemberBanned, member.Status)

	// the action is visible in status lookup and history
	action, err := c.Actions.Status(context.Background(), result.ActionID)
	require.NoError(t, err)
	assert.Equal(t, api.ActionBan, action.ActionType)
	assert.Equal(t, int64(42), action.InitiatedBy)

	history, err := c.Groups.MemberHistory(context.Background(), 1001, 100, 50)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "repeated spam", history[0].Reason)

	// unban restores the member
	_, err = c.Actions.Unban(context.Background(), 1001, "@bob")
	require.NoError(t, err)
	member, err = c.Groups.Member(context.Background(), 1001, 100)
	require.NoError(t, err)
	assert.Equal(t, api.MemberActive, member.Status)
}

func TestWarnIncrementsCounter(t *testing.T) {
	c, st := startBackend(t)
	login(t, c, st, 42, "alice")

	before, err := c.Groups.Member(context.Background(), 1001, 101)
	require.NoError(t, err)

	_, err = c.Actions.Warn(context.Background(), 1001, "@mallory", "again")
	require.NoError(t, err)

	after, err := c.Groups.Member(context.Background(), 1001, 101)
	require.NoError(t, err)
	assert.Equal(t, before.Warnings+1, after.Warnings)
}

func TestActionAgainstOutsiderFails(t *testing.T) {
	c, st := startBackend(t)
	login(t, c, st, 42, "alice")

	// erin exists, but not in group 1001
	_, err := c.Actions.Kick(context.Background(), 1001, "@erin", "")
	require.Error(t, err)
	assert.Equal(t, api.ClassValidation, api.ClassOf(err))
	assert.Equal(t, "user is not a member of this group", err.Error())

	_, err = c.Actions.Kick(context.Background(), 1001, "@nobody", "")
	require.Error(t, err)
	assert.Equal(t, "user not found", err.Error())
}

func TestBatchMixedOutcome(t *testing.T) {
	c, st := startBackend(t)
	login(t, c, st, 42, "alice")

	result, err := c.Actions.Batch(context.Background(), []api.BatchItem{
		{GroupID: 1002, UserInput: "@carol", ActionType: api.ActionWarn, Reason: "offtopic"},
		{GroupID: 1002, UserInput: "@erin", ActionType: api.ActionWarn, Reason: "offtopic"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].Success)
	assert.False(t, result.Results[1].Success)
}

func TestAnalyticsAndExport(t *testing.T) {
	c, st := startBackend(t)
	login(t, c, st, 1, "root")

	analytics, err := c.Analytics.System(context.Background(), api.PeriodWeek)
	require.NoError(t, err)
	assert.Equal(t, 3, analytics.GroupsCount)
	assert.GreaterOrEqual(t, analytics.TotalActions, 2)

	stats, err := c.Analytics.Group(context.Background(), 1001, api.PeriodWeek)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalWarnings, 1)

	trends, err := c.Analytics.Trends(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.Len(t, trends, 7)

	top, err := c.Analytics.TopUsers(context.Background(), 5, "actions")
	require.NoError(t, err)
	assert.NotEmpty(t, top)

	data, err := c.Util.Export(context.Background(), "csv", "actions", nil)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "id,action_type,group_id,user_id,username,initiated_by,reason,status,created_at", lines[0])
	assert.GreaterOrEqual(t, len(lines), 3)
}

func TestParseUser(t *testing.T) {
	c, st := startBackend(t)
	login(t, c, st, 42, "alice")

	parsed, err := c.Util.ParseUser(context.Background(), "@carol")
	require.NoError(t, err)
	assert.Equal(t, int64(102), parsed.UserID)

	parsed, err = c.Util.ParseUser(context.Background(), "103")
	require.NoError(t, err)
	assert.Equal(t, "dave", parsed.Username)

	_, err = c.Util.ParseUser(context.Background(), "@ghost")
	require.Error(t, err)
	assert.Equal(t, "resource not found", err.Error())
}
