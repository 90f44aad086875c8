package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"modpanel.org/internal/notify"
	"modpanel.org/internal/store"
)

type fakeAuth struct {
	mu         sync.Mutex
	user       *AuthUser
	token      string
	loginErr   error
	logoutErr  error
	refreshErr error
	logouts    int
}

func (f *fakeAuth) Login(ctx context.Context, userID int64, username string) (*AuthUser, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, "", f.loginErr
	}
	u := *f.user
	return &u, f.token, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return f.logoutErr
}

func (f *fakeAuth) Refresh(ctx context.Context) (*AuthUser, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return nil, "", f.refreshErr
	}
	u := *f.user
	return &u, f.token, nil
}

func testUser() *AuthUser {
	return &AuthUser{
		ID:            42,
		Username:      "alice",
		Role:          RoleAdmin,
		ManagedGroups: []int64{1001},
		Permissions: []Permission{
			{Action: "moderate", Scope: ScopeGroup, Allowed: true},
		},
	}
}

func newTestManager(t *testing.T) (*Manager, *store.Store, *fakeAuth) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	auth := &fakeAuth{user: testUser(), token: "tok-1"}
	m := NewManager(st, notify.New(st), auth, WithStartupDelay(0))
	return m, st, auth
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition never met")
}

func TestLoginPersistsAndApplies(t *testing.T) {
	m, st, _ := newTestManager(t)

	user, err := m.Login(context.Background(), 42, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "alice" || user.Token != "tok-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !m.IsAuthenticated() {
		t.Fatalf("expected authenticated state")
	}

	if tok, ok := st.Get(store.KeyAuthToken); !ok || tok != "tok-1" {
		t.Fatalf("token not persisted: %q ok=%v", tok, ok)
	}
	if id, ok := st.Get(store.KeyUserID); !ok || id != strconv.FormatInt(42, 10) {
		t.Fatalf("user id not persisted: %q ok=%v", id, ok)
	}
	raw, ok := st.Get(store.KeyUserData)
	if !ok {
		t.Fatalf("user record not persisted")
	}
	decoded, err := DecodeAuthUser([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Username != "alice" {
		t.Fatalf("persisted record mismatch: %+v", decoded)
	}
}

func TestLoginBroadcastsEagerly(t *testing.T) {
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	notifier := notify.New(st)
	m := NewManager(st, notifier, &fakeAuth{user: testUser(), token: "tok-1"}, WithStartupDelay(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := notifier.Subscribe(ctx)

	if _, err := m.Login(context.Background(), 42, "alice"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("no broadcast after login")
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	m, st, auth := newTestManager(t)
	auth.loginErr = errors.New("invalid credentials")

	if _, err := m.Login(context.Background(), 42, "alice"); err == nil {
		t.Fatalf("expected error")
	}
	if m.IsAuthenticated() {
		t.Fatalf("unexpected session after failed login")
	}
	if m.Err() != "invalid credentials" {
		t.Fatalf("unexpected error message: %q", m.Err())
	}
	if _, ok := st.Get(store.KeyAuthToken); ok {
		t.Fatalf("token written despite failure")
	}
}

func TestLogoutClearsSessionKeepsPreferences(t *testing.T) {
	m, st, auth := newTestManager(t)
	auth.logoutErr = errors.New("backend down")

	if err := st.Set(store.KeySettings, `{"theme":"dark"}`); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Login(context.Background(), 42, "alice"); err != nil {
		t.Fatal(err)
	}

	// backend failure is swallowed
	m.Logout(context.Background())
	if m.IsAuthenticated() {
		t.Fatalf("still authenticated after logout")
	}
	for _, key := range store.SessionKeys {
		if _, ok := st.Get(key); ok {
			t.Fatalf("session key %s survived logout", key)
		}
	}
	if _, ok := st.Get(store.KeySettings); !ok {
		t.Fatalf("preferences lost on logout")
	}

	// idempotent
	m.Logout(context.Background())
	if auth.logouts != 2 {
		t.Fatalf("backend logout calls = %d, want 2", auth.logouts)
	}
}

func TestFullResetWipesPreferences(t *testing.T) {
	m, st, _ := newTestManager(t)
	if err := st.Set(store.KeySettings, `{"theme":"dark"}`); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Login(context.Background(), 42, "alice"); err != nil {
		t.Fatal(err)
	}

	m.FullReset(context.Background())
	if m.IsAuthenticated() {
		t.Fatalf("still authenticated after reset")
	}
	if _, ok := st.Get(store.KeySettings); ok {
		t.Fatalf("preferences survived full reset")
	}
}

func TestCheckAuthRejectsCorruptRecord(t *testing.T) {
	m, st, _ := newTestManager(t)
	_ = st.Set(store.KeyAuthToken, "tok")
	_ = st.Set(store.KeyUserData, `{"id":0,"role":"alien"}`)

	m.CheckAuth(context.Background())
	if m.IsAuthenticated() {
		t.Fatalf("corrupt record produced a session")
	}
	if m.Err() != "" {
		t.Fatalf("corrupt record surfaced an error: %q", m.Err())
	}
}

func TestCheckAuthRequiresToken(t *testing.T) {
	m, st, _ := newTestManager(t)
	data, err := EncodeAuthUser(testUser())
	if err != nil {
		t.Fatal(err)
	}
	_ = st.Set(store.KeyUserData, string(data))

	m.CheckAuth(context.Background())
	if m.IsAuthenticated() {
		t.Fatalf("record without token produced a session")
	}

	_ = st.Set(store.KeyAuthToken, "tok")
	m.CheckAuth(context.Background())
	if !m.IsAuthenticated() {
		t.Fatalf("expected session once token is present")
	}
}

func TestRefreshReplacesRecordWholesale(t *testing.T) {
	m, st, auth := newTestManager(t)
	if _, err := m.Login(context.Background(), 42, "alice"); err != nil {
		t.Fatal(err)
	}

	auth.mu.Lock()
	auth.token = "tok-2"
	auth.user.Permissions = []Permission{
		{Action: "export", Scope: ScopeSystem, Allowed: true},
	}
	auth.mu.Unlock()

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	user := m.User()
	if user.Token != "tok-2" {
		t.Fatalf("token not replaced: %q", user.Token)
	}
	if user.HasPermission("moderate", ScopeAny) {
		t.Fatalf("old permissions survived refresh")
	}
	if !user.HasPermission("export", ScopeSystem) {
		t.Fatalf("new permissions missing after refresh")
	}
	if tok, _ := st.Get(store.KeyAuthToken); tok != "tok-2" {
		t.Fatalf("persisted token not replaced: %q", tok)
	}
}

func TestRunPicksUpExternalLogin(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	notifier := notify.New(st)
	m := NewManager(st, notifier, &fakeAuth{user: testUser(), token: "tok-1"}, WithStartupDelay(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)
	go func() {
		if err := notifier.Run(ctx); err != nil {
			t.Errorf("run: %v", err)
		}
	}()

	// another process writes a session; keep rewriting until the forwarder
	// is up and the manager has observed the change
	external, err := store.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	data, err := EncodeAuthUser(testUser())
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for !m.IsAuthenticated() {
		if time.Now().After(deadline) {
			t.Fatalf("external login never picked up")
		}
		_ = external.Set(store.KeyAuthToken, "tok-1")
		_ = external.Set(store.KeyUserData, string(data))
		time.Sleep(20 * time.Millisecond)
	}

	// and then logs out
	_ = external.Delete(store.KeyAuthToken)
	_ = external.Delete(store.KeyUserData)
	waitFor(t, func() bool { return !m.IsAuthenticated() })
}

func TestConcurrentCheckAuthNeverResurrectsStaleState(t *testing.T) {
	m, _, _ := newTestManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.CheckAuth(context.Background())
		}()
	}
	if _, err := m.Login(context.Background(), 42, "alice"); err != nil {
		t.Fatal(err)
	}
	wg.Wait()

	// rehydrations issued before the login read an empty store; none of them
	// may overwrite the newer applied state
	if !m.IsAuthenticated() {
		t.Fatalf("stale rehydration overwrote the login")
	}
}

func TestUserReturnsACopy(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.Login(context.Background(), 42, "alice"); err != nil {
		t.Fatal(err)
	}

	first := m.User()
	first.Username = "mallory"
	first.ManagedGroups[0] = 9999

	second := m.User()
	if second.Username != "alice" || second.ManagedGroups[0] != 1001 {
		t.Fatalf("caller mutation leaked into the manager: %+v", second)
	}
}
