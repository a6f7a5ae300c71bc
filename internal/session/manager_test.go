package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roleboard/internal/api"
	"roleboard/internal/model"
)

// memoryTokenStore is an in-memory TokenStore for tests.
type memoryTokenStore struct {
	token string
	saves int
}

func (s *memoryTokenStore) Load() (string, error) { return s.token, nil }

func (s *memoryTokenStore) Save(token string) error {
	s.token = token
	s.saves++
	return nil
}

func (s *memoryTokenStore) Clear() error {
	s.token = ""
	return nil
}

// fakeServer mimics the auth endpoints. Tokens in validTokens resolve
// to the given profile; everything else gets a 401.
func fakeServer(t *testing.T, password string, profile string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			r.ParseForm()
			if r.PostFormValue("password") != password {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"detail":"Incorrect email or password"}`))
				return
			}
			w.Write([]byte(`{"access_token":"tok-abc","refresh_token":"r","token_type":"bearer"}`))
		case "/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok-abc" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Invalid token"}`))
				return
			}
			w.Write([]byte(profile))
		case "/auth/change-password":
			if r.Header.Get("Authorization") != "Bearer tok-abc" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Invalid token"}`))
				return
			}
			var body struct {
				Current string `json:"current_password"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if body.Current != password {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"detail":"Incorrect current password"}`))
				return
			}
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newManager(t *testing.T, srv *httptest.Server, tokens TokenStore) *Manager {
	t.Helper()
	return NewManager(api.NewClient(srv.URL, 5*time.Second), tokens)
}

func TestLoginStoresTokenWriteThrough(t *testing.T) {
	srv := fakeServer(t, "Manager123!", `{"id":2,"email":"manager@example.com","role":"manager","is_active":true}`)
	store := &memoryTokenStore{}
	m := newManager(t, srv, store)

	sess, err := m.Login(context.Background(), "manager@example.com", "Manager123!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if sess.Token != "tok-abc" {
		t.Errorf("session token = %q", sess.Token)
	}
	if store.token != m.Token() {
		t.Errorf("durable token %q != in-memory token %q", store.token, m.Token())
	}
	if sess.User == nil || sess.User.Role != model.RoleManager {
		t.Errorf("user = %+v, want manager role", sess.User)
	}
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	srv := fakeServer(t, "Manager123!", `{}`)
	store := &memoryTokenStore{}
	m := newManager(t, srv, store)

	_, err := m.Login(context.Background(), "manager@example.com", "wrong-password")
	if !api.IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}

	sess := m.Session()
	if sess.Token != "" || sess.User != nil {
		t.Errorf("session mutated by failed login: %+v", sess)
	}
	if store.saves != 0 {
		t.Errorf("token persisted on failed login")
	}
}

func TestExpiredTokenTearsDownSession(t *testing.T) {
	srv := fakeServer(t, "User123!", `{"id":3,"email":"user@example.com","role":"user","is_active":true}`)
	store := &memoryTokenStore{token: "tok-stale"}
	m := newManager(t, srv, store)

	var hookRan bool
	m.OnLogout(func() { hookRan = true })

	ok, err := m.Restore(context.Background())
	if ok {
		t.Fatal("restore succeeded with a stale token")
	}
	if !api.IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}

	if m.Token() != "" || m.User() != nil {
		t.Errorf("session not cleared after 401")
	}
	if store.token != "" {
		t.Errorf("durable token not cleared after 401")
	}
	if m.ExpiredMessage() == "" {
		t.Errorf("expiry message not set")
	}
	if !hookRan {
		t.Errorf("logout hooks not run on expiry")
	}
}

func TestRestoreWithPersistedToken(t *testing.T) {
	srv := fakeServer(t, "User123!", `{"id":3,"email":"user@example.com","role":"user","is_active":true}`)
	store := &memoryTokenStore{token: "tok-abc"}
	m := newManager(t, srv, store)

	ok, err := m.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !ok {
		t.Fatal("expected restore to succeed")
	}
	if u := m.User(); u == nil || u.Email != "user@example.com" {
		t.Errorf("user = %+v", u)
	}
}

func TestRestoreWithoutTokenIsNoop(t *testing.T) {
	srv := fakeServer(t, "User123!", `{}`)
	m := newManager(t, srv, &memoryTokenStore{})

	ok, err := m.Restore(context.Background())
	if err != nil || ok {
		t.Fatalf("Restore = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	srv := fakeServer(t, "User123!", `{"id":3,"email":"user@example.com","role":"user","is_active":true}`)
	store := &memoryTokenStore{}
	m := newManager(t, srv, store)

	var cleared bool
	m.OnLogout(func() { cleared = true })

	if _, err := m.Login(context.Background(), "user@example.com", "User123!"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	m.Logout()

	if m.Token() != "" || m.User() != nil {
		t.Errorf("session not cleared by logout")
	}
	if store.token != "" {
		t.Errorf("durable token not cleared by logout")
	}
	if !cleared {
		t.Errorf("logout hook not run")
	}
}

func TestChangePasswordKeepsSessionAlive(t *testing.T) {
	srv := fakeServer(t, "User123!", `{"id":3,"email":"user@example.com","role":"user","is_active":true}`)
	store := &memoryTokenStore{}
	m := newManager(t, srv, store)

	if _, err := m.Login(context.Background(), "user@example.com", "User123!"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := m.ChangePassword(context.Background(), "User123!", "NewPass123!"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if m.Token() != "tok-abc" || m.User() == nil {
		t.Errorf("session torn down by successful password change")
	}
	if store.token != "tok-abc" {
		t.Errorf("durable token changed: %q", store.token)
	}
}

func TestChangePasswordWrongCurrentIsValidationError(t *testing.T) {
	srv := fakeServer(t, "User123!", `{"id":3,"email":"user@example.com","role":"user","is_active":true}`)
	store := &memoryTokenStore{}
	m := newManager(t, srv, store)

	if _, err := m.Login(context.Background(), "user@example.com", "User123!"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	err := m.ChangePassword(context.Background(), "wrong-current", "NewPass123!")
	if !api.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if m.Token() == "" || m.User() == nil {
		t.Errorf("session torn down by a rejected current password")
	}
}

func TestChangePasswordExpiredTokenTearsDownSession(t *testing.T) {
	// The profile endpoint accepts the persisted token so Restore
	// succeeds, then the token is rejected on the password change.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/me":
			w.Write([]byte(`{"id":3,"email":"user@example.com","role":"user","is_active":true}`))
		case "/auth/change-password":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Invalid token"}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	store := &memoryTokenStore{token: "tok-old"}
	m := newManager(t, srv, store)

	var hookRan bool
	m.OnLogout(func() { hookRan = true })

	if ok, err := m.Restore(context.Background()); !ok || err != nil {
		t.Fatalf("Restore = (%v, %v)", ok, err)
	}

	err := m.ChangePassword(context.Background(), "User123!", "NewPass123!")
	if !api.IsAuthError(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}

	if m.Token() != "" || m.User() != nil {
		t.Errorf("session not cleared after 401")
	}
	if store.token != "" {
		t.Errorf("durable token not cleared after 401")
	}
	if m.ExpiredMessage() == "" {
		t.Errorf("expiry message not set")
	}
	if !hookRan {
		t.Errorf("logout hooks not run on expiry")
	}
}

func TestChangePasswordWithoutTokenFails(t *testing.T) {
	srv := fakeServer(t, "User123!", `{}`)
	m := newManager(t, srv, &memoryTokenStore{})

	if err := m.ChangePassword(context.Background(), "a", "b"); err != ErrNotAuthenticated {
		t.Errorf("err = %v, want ErrNotAuthenticated", err)
	}
}
