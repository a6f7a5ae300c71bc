// Package session owns the client's authentication state: the bearer
// token, the profile of the signed-in account, and the durable copy of
// the token that lets a session survive restarts.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"roleboard/internal/api"
	"roleboard/internal/model"
)

// ErrNotAuthenticated is returned by operations that need a token when
// none is held.
var ErrNotAuthenticated = errors.New("not authenticated")

// TokenStore is the durable home of the bearer token. Load returns ""
// when nothing is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Manager owns the Session. All state changes go through it, and the
// persisted token is kept write-through: after any operation completes
// the durable copy equals the in-memory one.
type Manager struct {
	client *api.Client
	tokens TokenStore

	mu             sync.Mutex
	token          string
	user           *model.UserProfile
	expiredMessage string
	onLogout       []func()
}

// NewManager creates a session manager. The token store is consulted
// on Restore and written through on every token change.
func NewManager(client *api.Client, tokens TokenStore) *Manager {
	return &Manager{
		client: client,
		tokens: tokens,
	}
}

// OnLogout registers a hook run whenever the session is destroyed,
// either by an explicit Logout or by expiry detection. Dependent
// caches register here so they are cleared in the same step.
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = append(m.onLogout, fn)
}

// Session returns a copy of the current session state.
func (m *Manager) Session() model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := model.Session{Token: m.token}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	return s
}

// Token returns the current bearer token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// User returns a copy of the signed-in profile, or nil before the
// profile load completes.
func (m *Manager) User() *model.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// ExpiredMessage returns the session-level error set when expiry was
// detected, or "" if the session has not expired.
func (m *Manager) ExpiredMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiredMessage
}

// Login exchanges credentials for a token, persists it, and loads the
// profile. A failed login leaves the session untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (model.Session, error) {
	token, err := m.client.Login(ctx, email, password)
	if err != nil {
		return model.Session{}, err
	}

	// Persist before adopting so the durable copy never lags the
	// in-memory token.
	if err := m.tokens.Save(token); err != nil {
		return model.Session{}, fmt.Errorf("persisting token: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.user = nil
	m.expiredMessage = ""
	m.mu.Unlock()

	if _, err := m.LoadProfile(ctx); err != nil {
		return model.Session{}, err
	}

	return m.Session(), nil
}

// LoadProfile fetches the profile for the held token. A 401 means the
// session has expired: the token is cleared in memory and in durable
// storage, the expiry flag is set, and the error propagates so
// dependent refreshes abort.
func (m *Manager) LoadProfile(ctx context.Context) (model.UserProfile, error) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token == "" {
		return model.UserProfile{}, ErrNotAuthenticated
	}

	profile, err := m.client.Me(ctx, token)
	if err != nil {
		if api.IsAuthError(err) {
			m.expire("Session expired, please sign in again")
		}
		return model.UserProfile{}, err
	}

	m.mu.Lock()
	u := profile
	m.user = &u
	m.mu.Unlock()

	return profile, nil
}

// Restore attempts to resume a persisted session at process start. It
// returns true when a profile was loaded. Failures degrade to the
// logged-out state and are reported, never fatal.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	token, err := m.tokens.Load()
	if err != nil {
		return false, fmt.Errorf("reading persisted token: %w", err)
	}
	if token == "" {
		return false, nil
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	if _, err := m.LoadProfile(ctx); err != nil {
		// A 401 already tore the session down inside LoadProfile.
		// Anything else (network, server down) drops the in-memory
		// token but keeps the durable copy for the next start.
		if !api.IsAuthError(err) {
			m.mu.Lock()
			m.token = ""
			m.user = nil
			m.mu.Unlock()
		}
		return false, err
	}

	return true, nil
}

// ChangePassword rotates the account credential. An expired token
// tears the session down the same way LoadProfile does.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) error {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token == "" {
		return ErrNotAuthenticated
	}

	err := m.client.ChangePassword(ctx, token, current, next)
	if err != nil && api.IsAuthError(err) {
		m.expire("Session expired, please sign in again")
	}
	return err
}

// Logout destroys the session: memory, durable storage, and every
// registered dependent cache, synchronously.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.expiredMessage = ""
	hooks := make([]func(), len(m.onLogout))
	copy(hooks, m.onLogout)
	m.mu.Unlock()

	_ = m.tokens.Clear()

	for _, fn := range hooks {
		fn()
	}
}

// Invalidate tears the session down in response to a rejected token
// observed by a caller outside the manager's own requests, recording
// the message shown on the sign-in screen.
func (m *Manager) Invalidate(message string) {
	m.expire(message)
}

// expire clears the session after a 401 and records the message shown
// in the global banner.
func (m *Manager) expire(message string) {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.expiredMessage = message
	hooks := make([]func(), len(m.onLogout))
	copy(hooks, m.onLogout)
	m.mu.Unlock()

	_ = m.tokens.Clear()

	for _, fn := range hooks {
		fn()
	}
}
