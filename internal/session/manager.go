package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"modpanel.org/internal/notify"
	"modpanel.org/internal/store"
)

const defaultStartupDelay = 100 * time.Millisecond

// Authenticator exchanges credentials with the backend. Implemented by the
// REST adapter's auth service.
type Authenticator interface {
	Login(ctx context.Context, userID int64, username string) (*AuthUser, string, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (*AuthUser, string, error)
}

// Manager is the single source of truth for "who is logged in", reconciled
// with durable storage and with other console processes. Construct one
// explicitly per process and release it by cancelling the Run context; the
// in-memory record is a soft cache of storage, re-derived on every observed
// change.
type Manager struct {
	auth     Authenticator
	store    *store.Store
	notifier *notify.Notifier

	startupDelay time.Duration

	mu      sync.Mutex
	user    *AuthUser
	loading int
	errMsg  string
	seq     uint64
	applied uint64
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithStartupDelay overrides the deliberate delay before the first storage
// read, used to avoid racing storage availability at process start.
func WithStartupDelay(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d >= 0 {
			m.startupDelay = d
		}
	}
}

// NewManager constructs a session manager over the given collaborators.
func NewManager(st *store.Store, notifier *notify.Notifier, auth Authenticator, opts ...ManagerOption) *Manager {
	m := &Manager{
		auth:         auth,
		store:        st,
		notifier:     notifier,
		startupDelay: defaultStartupDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run performs the delayed startup rehydration and then re-derives the session
// from storage on every notifier signal until ctx ends.
func (m *Manager) Run(ctx context.Context) {
	timer := time.NewTimer(m.startupDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return
	case <-timer.C:
	}
	m.CheckAuth(ctx)
	for range m.notifier.Subscribe(ctx) {
		m.CheckAuth(ctx)
	}
}

// Login exchanges credentials with the backend. On success the token, the
// serialized user and the bare identifier are written through to storage, the
// in-memory record is replaced, and the change is broadcast eagerly so other
// subscribers in this process converge without waiting for the watcher.
// On rejection the prior state is left untouched and the backend-supplied
// message is surfaced.
func (m *Manager) Login(ctx context.Context, userID int64, username string) (*AuthUser, error) {
	m.beginOp()

	user, token, err := m.auth.Login(ctx, userID, username)
	if err != nil {
		m.endOp(err.Error())
		return nil, err
	}
	user.Token = token

	data, err := EncodeAuthUser(user)
	if err != nil {
		m.endOp(err.Error())
		return nil, err
	}
	if err := m.store.Set(store.KeyAuthToken, token); err != nil {
		m.endOp(err.Error())
		return nil, err
	}
	if err := m.store.Set(store.KeyUserData, string(data)); err != nil {
		m.endOp(err.Error())
		return nil, err
	}
	if err := m.store.Set(store.KeyUserID, strconv.FormatInt(user.ID, 10)); err != nil {
		m.endOp(err.Error())
		return nil, err
	}

	m.apply(user)
	m.endOp("")
	m.notifier.Publish()
	return m.User(), nil
}

// Logout clears the session keys and resets the in-memory record. The backend
// call is best-effort; its failure is swallowed so a logout can never leave
// the caller stuck in an authenticated-looking state. Preference keys survive;
// use FullReset for a destructive wipe. Idempotent.
func (m *Manager) Logout(ctx context.Context) {
	m.beginOp()
	if m.auth != nil {
		if err := m.auth.Logout(ctx); err != nil {
			log.Debugf("backend logout failed: %v", err)
		}
	}
	if err := m.store.ClearSession(); err != nil {
		log.Warnf("clear session storage: %v", err)
	}
	m.apply(nil)
	m.endOp("")
	m.notifier.Publish()
}

// FullReset clears every locally persisted key, preferences included, and
// resets the session. This is the explicit destructive operation; Logout is
// not.
func (m *Manager) FullReset(ctx context.Context) {
	m.beginOp()
	if m.auth != nil {
		if err := m.auth.Logout(ctx); err != nil {
			log.Debugf("backend logout failed: %v", err)
		}
	}
	if err := m.store.Clear(); err != nil {
		log.Warnf("clear storage: %v", err)
	}
	m.apply(nil)
	m.endOp("")
	m.notifier.Publish()
}

// Refresh exchanges the current token for a fresh one, replacing the token and
// user record wholesale. Permissions are never incrementally patched.
func (m *Manager) Refresh(ctx context.Context) error {
	m.beginOp()
	user, token, err := m.auth.Refresh(ctx)
	if err != nil {
		m.endOp(err.Error())
		return err
	}
	user.Token = token
	data, err := EncodeAuthUser(user)
	if err != nil {
		m.endOp(err.Error())
		return err
	}
	if err := m.store.Set(store.KeyAuthToken, token); err != nil {
		m.endOp(err.Error())
		return err
	}
	if err := m.store.Set(store.KeyUserData, string(data)); err != nil {
		m.endOp(err.Error())
		return err
	}
	m.apply(user)
	m.endOp("")
	m.notifier.Publish()
	return nil
}

// CheckAuth rehydrates the in-memory record from storage. A missing token,
// missing record or unparsable record resolves to "no user" without error.
// Concurrent invocations are guarded by a sequence counter: only the most
// recently issued read may apply its result, so a stale read that resolves
// late can never overwrite a newer one.
func (m *Manager) CheckAuth(ctx context.Context) {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.loading++
	m.errMsg = ""
	m.mu.Unlock()

	var user *AuthUser
	token, hasToken := m.store.Get(store.KeyAuthToken)
	data, hasData := m.store.Get(store.KeyUserData)
	if hasToken && token != "" && hasData {
		decoded, err := DecodeAuthUser([]byte(data))
		if err != nil {
			log.Debugf("stored user record rejected: %v", err)
		} else {
			user = decoded
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading--
	if seq < m.applied {
		// A newer read already applied its result.
		return
	}
	m.applied = seq
	m.user = user
}

// User returns a copy of the current record, or nil when no session exists.
func (m *Manager) User() *AuthUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	copied := *m.user
	copied.ManagedGroups = append([]int64(nil), m.user.ManagedGroups...)
	copied.Permissions = append([]Permission(nil), m.user.Permissions...)
	return &copied
}

// IsAuthenticated reports whether a session exists.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

// Loading reports whether a login, logout, refresh or rehydration is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading > 0
}

// Err returns the last operation error message, cleared at the start of every
// login and rehydration attempt.
func (m *Manager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// HasRole answers the role query against the current session.
func (m *Manager) HasRole(roles ...Role) bool { return m.User().HasRole(roles...) }

// HasPermission answers the permission query against the current session.
func (m *Manager) HasPermission(action string, scope Scope) bool {
	return m.User().HasPermission(action, scope)
}

// CanManageGroup answers the management query against the current session.
func (m *Manager) CanManageGroup(groupID int64) bool { return m.User().CanManageGroup(groupID) }

func (m *Manager) beginOp() {
	m.mu.Lock()
	m.loading++
	m.errMsg = ""
	m.mu.Unlock()
}

func (m *Manager) endOp(errMsg string) {
	m.mu.Lock()
	m.loading--
	m.errMsg = errMsg
	m.mu.Unlock()
}

// apply installs a new authoritative record and advances the sequence so any
// rehydration still in flight is superseded.
func (m *Manager) apply(user *AuthUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.applied = m.seq
	m.user = user
}
