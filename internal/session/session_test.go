package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/space/internal/auth/github"
	"github.com/brizzai/space/internal/config"
	"github.com/brizzai/space/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSessionConfig = config.SessionConfig{
	Name:     "space-session",
	Password: "0123456789abcdef0123456789abcdef",
	MaxAge:   "1h",
}

func newTestManager(t *testing.T) (*Manager, *storage.Registry) {
	t.Helper()
	registry := storage.NewRegistry(config.StorageConfig{Driver: config.StorageDriverMemory}, nil, nil)
	t.Cleanup(func() { _ = registry.Close() })

	m, err := NewManager(testSessionConfig, registry, nil)
	require.NoError(t, err)
	return m, registry
}

// withCookies copies the cookies set on rec into a new request
func withCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestManager_SetAndGet(t *testing.T) {
	ctx := context.Background()
	m, registry := newTestManager(t)
	user := github.UserProfile{ID: 1, Login: "bob", Email: "b@x.com", Extra: map[string]any{"company": "acme"}}
	createdAt := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	rec := httptest.NewRecorder()
	sess, err := m.Set(ctx, rec, httptest.NewRequest(http.MethodGet, "/api/auth/github?code=good", nil), user, createdAt)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "space-session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.False(t, cookies[0].Secure)

	// the record lives at sessions/<id>
	root, err := registry.Storage(ctx)
	require.NoError(t, err)
	has, err := root.HasItem(ctx, "sessions/"+sess.ID)
	require.NoError(t, err)
	assert.True(t, has)

	got, ok, err := m.Get(ctx, withCookies(rec))
	require.NoError(t, err)
	require.True(t, ok)
	want := &UserSession{ID: sess.ID, User: user, CreatedAt: createdAt}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_SecureBehindProxy(t *testing.T) {
	m, _ := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/api/auth/github", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	rec := httptest.NewRecorder()
	_, err := m.Set(context.Background(), rec, req, github.UserProfile{ID: 1, Login: "bob"}, time.Now())
	require.NoError(t, err)
	assert.True(t, rec.Result().Cookies()[0].Secure)
}

func TestManager_GetRejects(t *testing.T) {
	m, _ := newTestManager(t)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "abc"}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "abc",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte(testSessionConfig.Password))
	require.NoError(t, err)

	unknown, err := m.sign("does-not-exist")
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie"},
		{name: "garbage", cookie: &http.Cookie{Name: "space-session", Value: "not-a-jwt"}},
		{name: "wrong key", cookie: &http.Cookie{Name: "space-session", Value: forged}},
		{name: "expired", cookie: &http.Cookie{Name: "space-session", Value: expired}},
		{name: "unknown session", cookie: &http.Cookie{Name: "space-session", Value: unknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			sess, ok, err := m.Get(context.Background(), req)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, sess)
		})
	}
}

func TestManager_Clear(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	rec := httptest.NewRecorder()
	_, err := m.Set(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil), github.UserProfile{ID: 1, Login: "bob"}, time.Now())
	require.NoError(t, err)
	req := withCookies(rec)

	cleared := httptest.NewRecorder()
	require.NoError(t, m.Clear(ctx, cleared, req))
	cookies := cleared.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)

	_, ok, err := m.Get(ctx, req)
	require.NoError(t, err)
	assert.False(t, ok, "record is gone even though the old cookie is still valid")

	// clearing without a cookie only expires it
	require.NoError(t, m.Clear(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestNewManager_Validation(t *testing.T) {
	tests := []struct {
		name string
		edit func(c *config.SessionConfig)
	}{
		{name: "empty name", edit: func(c *config.SessionConfig) { c.Name = "" }},
		{name: "empty password", edit: func(c *config.SessionConfig) { c.Password = "" }},
		{name: "bad max age", edit: func(c *config.SessionConfig) { c.MaxAge = "a week" }},
		{name: "negative max age", edit: func(c *config.SessionConfig) { c.MaxAge = "-1h" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSessionConfig
			tt.edit(&cfg)
			_, err := NewManager(cfg, nil, nil)
			assert.Error(t, err)
		})
	}
}
