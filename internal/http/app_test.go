package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dropDatabas3/credgate/internal/config"
	"github.com/dropDatabas3/credgate/internal/domain"
	"github.com/dropDatabas3/credgate/internal/email"
	"github.com/dropDatabas3/credgate/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureNotifier guarda los tokens enviados para que el test los use.
type captureNotifier struct {
	mu        sync.Mutex
	verify    map[string]string
	reset     map[string]string
	welcomed  []string
	failReset bool
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{verify: map[string]string{}, reset: map[string]string{}}
}

func (n *captureNotifier) SendVerification(_ context.Context, to email.Recipient, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verify[to.Email] = token
	return nil
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, to email.Recipient, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failReset {
		return errors.New("smtp: 421 service not available")
	}
	n.reset[to.Email] = token
	return nil
}

func (n *captureNotifier) SendWelcome(_ context.Context, to email.Recipient) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomed = append(n.welcomed, to.Email)
	return nil
}

func (n *captureNotifier) verifyToken(addr string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.verify[addr]
}

type fixture struct {
	app      *App
	store    *memory.Store
	notifier *captureNotifier
}

func newFixture(t *testing.T, mut func(*config.Config)) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.JWT.AccessSecret = strings.Repeat("a", 32)
	cfg.JWT.RefreshSecret = strings.Repeat("r", 32)
	cfg.Auth.Password.Argon2.MemoryKiB = 1024
	cfg.Auth.Password.Argon2.Iterations = 1
	cfg.Rate.Auth.Limit = 50
	if mut != nil {
		mut(cfg)
	}
	require.NoError(t, cfg.Validate())

	st := memory.New()
	n := newCaptureNotifier()
	app, err := New(context.Background(), cfg, Deps{Identities: st, Notifier: n, Version: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return &fixture{app: app, store: st, notifier: n}
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	ErrorID string          `json:"errorId"`
}

func (f *fixture) do(t *testing.T, method, path string, body any, mods ...func(*http.Request)) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mods {
		m(req)
	}
	rr := httptest.NewRecorder()
	f.app.Handler.ServeHTTP(rr, req)

	var env response
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr, env
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

func (f *fixture) register(t *testing.T, addr, pwd string) {
	t.Helper()
	rr, env := f.do(t, http.MethodPost, "/register", map[string]string{
		"email": addr, "password": pwd, "firstName": "Ana", "lastName": "Diaz",
	})
	require.Equal(t, http.StatusCreated, rr.Code, env.Message)
}

func (f *fixture) login(t *testing.T, addr, pwd string) (string, *http.Cookie) {
	t.Helper()
	rr, env := f.do(t, http.MethodPost, "/login", map[string]string{"email": addr, "password": pwd})
	require.Equal(t, http.StatusOK, rr.Code, env.Message)
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	for _, c := range rr.Result().Cookies() {
		if c.Name == "refresh_token" {
			return data.AccessToken, c
		}
	}
	t.Fatal("refresh cookie not set")
	return "", nil
}

func TestRegisterVerifyLogin(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "Ana@Example.com", "correct-horse")

	rr, env := f.do(t, http.MethodPost, "/register", map[string]string{
		"email": "ana@example.com", "password": "another-one", "firstName": "A", "lastName": "B",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)

	var token string
	require.Eventually(t, func() bool {
		token = f.notifier.verifyToken("ana@example.com")
		return token != ""
	}, 2*time.Second, 10*time.Millisecond)

	rr, env = f.do(t, http.MethodGet, "/verify-email?token="+token, nil)
	require.Equal(t, http.StatusOK, rr.Code, env.Message)
	assert.Contains(t, string(env.Data), `"isVerified":true`)

	rr, env = f.do(t, http.MethodGet, "/verify-email?token="+token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid or expired token", env.Message)

	require.Eventually(t, func() bool {
		f.notifier.mu.Lock()
		defer f.notifier.mu.Unlock()
		return len(f.notifier.welcomed) == 1
	}, 2*time.Second, 10*time.Millisecond)

	rr, env = f.do(t, http.MethodPost, "/resend-verification", map[string]string{"email": "ana@example.com"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Email is already verified", env.Message)
	rr, _ = f.do(t, http.MethodPost, "/resend-verification", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Contraseña incorrecta y email inexistente dan la misma respuesta.
	rrWrong, envWrong := f.do(t, http.MethodPost, "/login", map[string]string{"email": "ana@example.com", "password": "nope-nope"})
	rrGhost, envGhost := f.do(t, http.MethodPost, "/login", map[string]string{"email": "ghost@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rrWrong.Code)
	assert.Equal(t, rrWrong.Code, rrGhost.Code)
	assert.Equal(t, "Invalid email or password", envWrong.Message)
	assert.Equal(t, envWrong.Message, envGhost.Message)

	access, refresh := f.login(t, "ana@example.com", "correct-horse")
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, refresh.SameSite)

	rr, env = f.do(t, http.MethodGet, "/profile", nil, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, string(env.Data), `"email":"ana@example.com"`)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	rr, _ = f.do(t, http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))

	rr, env = f.do(t, http.MethodGet, "/session", nil, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, string(env.Data), `"authenticated":true`)
	rr, env = f.do(t, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, string(env.Data), `"authenticated":false`)

	rr, env = f.do(t, http.MethodPost, "/refresh", nil, withCookie(refresh))
	require.Equal(t, http.StatusOK, rr.Code, env.Message)
	assert.Contains(t, string(env.Data), "accessToken")

	rr, _ = f.do(t, http.MethodPost, "/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, _ = f.do(t, http.MethodPost, "/logout", nil, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code)
	cleared := rr.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, nil)
	cases := map[string]map[string]string{
		"missing fields": {"email": "x@example.com", "password": "long-enough"},
		"bad email":      {"email": "not-an-email", "password": "long-enough", "firstName": "a", "lastName": "b"},
		"weak password":  {"email": "x@example.com", "password": "short", "firstName": "a", "lastName": "b"},
	}
	for name, body := range cases {
		rr, env := f.do(t, http.MethodPost, "/register", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, name)
		assert.False(t, env.Success, name)
	}

	rr, _ := f.do(t, http.MethodPost, "/register", nil, func(r *http.Request) {
		r.Body = io.NopCloser(strings.NewReader("{broken"))
		r.Header.Set("Content-Type", "application/json")
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestForgotAndReset(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "bob@example.com", "first-password")

	rrGhost, envGhost := f.do(t, http.MethodPost, "/forgot-password", map[string]string{"email": "ghost@example.com"})
	rr, env := f.do(t, http.MethodPost, "/forgot-password", map[string]string{"email": "bob@example.com"})
	require.Equal(t, http.StatusOK, rrGhost.Code)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, envGhost.Message, env.Message)

	f.notifier.mu.Lock()
	token := f.notifier.reset["bob@example.com"]
	f.notifier.mu.Unlock()
	require.NotEmpty(t, token)

	rr, _ = f.do(t, http.MethodPost, "/reset-password", map[string]string{"token": token, "newPassword": "short"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, env = f.do(t, http.MethodPost, "/reset-password", map[string]string{"token": token, "newPassword": "second-password"})
	require.Equal(t, http.StatusOK, rr.Code, env.Message)

	rr, env = f.do(t, http.MethodPost, "/reset-password", map[string]string{"token": token, "newPassword": "third-password"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid or expired token", env.Message)

	access, _ := f.login(t, "bob@example.com", "second-password")

	rr, env = f.do(t, http.MethodPost, "/change-password", map[string]string{
		"currentPassword": "wrong-password", "newPassword": "fourth-password",
	}, bearer(access))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Current password is incorrect", env.Message)

	rr, _ = f.do(t, http.MethodPost, "/change-password", map[string]string{
		"currentPassword": "second-password", "newPassword": "fourth-password",
	}, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code)
	f.login(t, "bob@example.com", "fourth-password")
}

func TestForgot_NotifierFailureClearsToken(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "carl@example.com", "first-password")
	f.notifier.mu.Lock()
	f.notifier.failReset = true
	f.notifier.mu.Unlock()

	rr, env := f.do(t, http.MethodPost, "/forgot-password", map[string]string{"email": "carl@example.com"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotEmpty(t, env.ErrorID)
	assert.NotContains(t, env.Message, "smtp")

	it, err := f.store.GetByEmail(context.Background(), "carl@example.com")
	require.NoError(t, err)
	assert.Empty(t, it.ResetTokenHash)
	assert.Nil(t, it.ResetTokenExpiresAt)
}

func TestAuthRateLimit(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Rate.Auth.Limit = 5 })

	body := map[string]string{"email": "ghost@example.com", "password": "whatever-1"}
	for i := 0; i < 5; i++ {
		rr, _ := f.do(t, http.MethodPost, "/login", body)
		require.Equal(t, http.StatusUnauthorized, rr.Code, "attempt %d", i+1)
	}
	rr, env := f.do(t, http.MethodPost, "/login", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.NotEqual(t, "0", rr.Header().Get("Retry-After"))

	// Otro cliente no comparte la ventana.
	rr, _ = f.do(t, http.MethodPost, "/login", body, func(r *http.Request) { r.RemoteAddr = "198.51.100.7:4000" })
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Las rutas fuera del grupo auth siguen respondiendo.
	rr, _ = f.do(t, http.MethodGet, "/session", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminRoutes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.register(t, "root@example.com", "admin-password")
	f.register(t, "user@example.com", "user-password")

	admin, err := f.store.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.NoError(t, f.store.SetRole(ctx, admin.ID, domain.RoleAdmin))
	user, err := f.store.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)

	adminTok, _ := f.login(t, "root@example.com", "admin-password")
	userTok, userRefresh := f.login(t, "user@example.com", "user-password")

	rr, _ := f.do(t, http.MethodGet, "/admin/users/"+user.ID, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr, _ = f.do(t, http.MethodGet, "/admin/users/"+user.ID, nil, bearer(userTok))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, env := f.do(t, http.MethodGet, "/admin/users/"+user.ID, nil, bearer(adminTok))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, string(env.Data), user.ID)
	assert.NotContains(t, string(env.Data), "argon2id")

	rr, _ = f.do(t, http.MethodGet, "/admin/users/does-not-exist", nil, bearer(adminTok))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = f.do(t, http.MethodPatch, "/admin/users/"+user.ID+"/status", map[string]any{}, bearer(adminTok))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr, env = f.do(t, http.MethodPatch, "/admin/users/"+user.ID+"/status", map[string]any{"isActive": false}, bearer(adminTok))
	require.Equal(t, http.StatusOK, rr.Code, env.Message)
	assert.Contains(t, string(env.Data), `"isActive":false`)

	// La identidad desactivada ya no pasa la autenticación ni refresca.
	rr, _ = f.do(t, http.MethodGet, "/profile", nil, bearer(userTok))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr, _ = f.do(t, http.MethodPost, "/refresh", nil, withCookie(userRefresh))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr, env = f.do(t, http.MethodPost, "/login", map[string]string{"email": "user@example.com", "password": "user-password"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Account is deactivated", env.Message)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, nil)

	rr, _ := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr, env := f.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, string(env.Data), `"store":{"status":"ok"}`)

	rr, _ = f.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr, _ = f.do(t, http.MethodDelete, "/login", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr, _ = f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `http_requests_total{method="GET",route="/readyz",status="200"} 1`)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRedisRateBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	f := newFixture(t, func(c *config.Config) {
		c.Rate.Backend = "redis"
		c.Rate.Redis.Addr = mr.Addr()
		c.Rate.Auth.Limit = 1
	})

	body := map[string]string{"email": "ghost@example.com", "password": "whatever-1"}
	rr, _ := f.do(t, http.MethodPost, "/login", body)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr, _ = f.do(t, http.MethodPost, "/login", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr, env := f.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, string(env.Data), `"redis":{"status":"ok"}`)

	// Redis caído: readyz 503 y el limiter deja pasar.
	mr.Close()
	rr, _ = f.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	rr, _ = f.do(t, http.MethodPost, "/login", body)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
