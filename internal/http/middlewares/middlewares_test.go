package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/credgate/internal/domain"
	jwtx "github.com/dropDatabas3/credgate/internal/jwt"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
	"github.com/dropDatabas3/credgate/internal/rate"
	"github.com/dropDatabas3/credgate/internal/store/memory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ErrorID string `json:"errorId"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	h.ServeHTTP(rr, req)
	assert.Len(t, seen, 36)

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "forged id\tlevel=error")
	h.ServeHTTP(rr, req)
	assert.Len(t, seen, 36)
}

func TestWithLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.From(r.Context()).Info("inside")
		if r.URL.Path == "/login" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}), WithRequestID(), WithLogging(false))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Request-ID", "rid-9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "rid-9", entries[0].ContextMap()["request_id"], "handler logs carry the request id")
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, 401, entries[1].ContextMap()["status"])
	assert.Equal(t, "192.0.2.1", entries[1].ContextMap()["client_ip"])
	assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
}

func TestWithRecover(t *testing.T) {
	h := WithRecover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	env := decode(t, rr)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.ErrorID)
}

func TestWithSecurityHeadersAndNoStore(t *testing.T) {
	h := Chain(okHandler, WithSecurityHeaders(), WithNoStore())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	h.ServeHTTP(rr, req)

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Header().Get("Strict-Transport-Security"), "max-age=")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))
}

func TestWithCORS(t *testing.T) {
	h := WithCORS([]string{"https://app.example.com/"})(okHandler)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/login", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin gets no grant", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origins configured is a no-op", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		WithCORS(nil)(okHandler).ServeHTTP(rr, req)
		assert.Empty(t, rr.Header().Values("Vary"))
	})
}

type failingLimiter struct{ err error }

func (f failingLimiter) Allow(context.Context, string) (rate.Result, error) {
	return rate.Result{}, f.err
}

func TestWithRateLimit(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	var rejected []string
	lim := rate.NewMemoryLimiter(5, 15*time.Minute, rate.WithClock(func() time.Time { return now }))
	h := WithRateLimit(RateLimitConfig{
		Limiter:  lim,
		Group:    "auth",
		OnReject: func(g string) { rejected = append(rejected, g) },
		Now:      func() time.Time { return now },
	})(okHandler)

	do := func(remote string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", "1.2.3.4")
		h.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 5; i++ {
		rr := do("10.0.0.1:5555")
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i+1)
		assert.Equal(t, "5", rr.Header().Get("X-RateLimit-Limit"))
	}
	rr := do("10.0.0.1:5555")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "900", rr.Header().Get("Retry-After"))
	assert.False(t, decode(t, rr).Success)
	assert.Equal(t, []string{"auth"}, rejected)

	// Sin trust_proxy el XFF no cuenta: otra IP real tiene su propio contador.
	assert.Equal(t, http.StatusOK, do("10.0.0.2:5555").Code)
}

func TestWithRateLimit_FailsOpen(t *testing.T) {
	for _, err := range []error{rate.ErrCapacity, errors.New("redis down")} {
		rr := httptest.NewRecorder()
		WithRateLimit(RateLimitConfig{Limiter: failingLimiter{err: err}, Group: "general"})(okHandler).
			ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 2, retryAfterSeconds(1100*time.Millisecond))
	assert.Equal(t, 60, retryAfterSeconds(time.Minute))
}

func newAuthFixture(t *testing.T) (AuthConfig, *memory.Store, *jwtx.Issuer) {
	t.Helper()
	iss, err := jwtx.NewIssuer(jwtx.Config{
		Issuer:     "credgate",
		Audience:   "credgate-clients",
		AccessKey:  []byte(strings.Repeat("a", 32)),
		RefreshKey: []byte(strings.Repeat("r", 32)),
	})
	require.NoError(t, err)
	st := memory.New()
	return AuthConfig{Issuer: iss, Identities: st}, st, iss
}

func TestRequireAuth(t *testing.T) {
	cfg, st, iss := newAuthFixture(t)
	ctx := context.Background()

	user, err := st.Create(ctx, domain.CreateIdentityInput{Email: "ana@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	access, _, err := iss.IssueAccess(user)
	require.NoError(t, err)
	refresh, _, err := iss.IssueRefresh(user.ID)
	require.NoError(t, err)

	var got *Principal
	h := RequireAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFrom(r.Context())
	}))

	call := func(authz string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		h.ServeHTTP(rr, req)
		return rr
	}

	rr := call("Bearer " + access)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.Identity.ID)
	assert.Equal(t, "ana@example.com", got.Claims.Email)

	for name, authz := range map[string]string{
		"missing":       "",
		"not bearer":    "Basic abc",
		"garbage":       "Bearer not.a.jwt",
		"refresh token": "Bearer " + refresh,
	} {
		rr := call(authz)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, name)
		assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"), name)
	}

	require.NoError(t, st.SetActive(ctx, user.ID, false))
	rr = call("Bearer " + access)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Account is deactivated", decode(t, rr).Message)
}

func TestOptionalAuth(t *testing.T) {
	cfg, _, _ := newAuthFixture(t)
	var anon bool
	h := OptionalAuth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := PrincipalFrom(r.Context())
		anon = !ok
	}))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, anon)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(domain.RoleAdmin)(okHandler)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/users/1", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	for role, want := range map[domain.Role]int{
		domain.RoleUser:  http.StatusForbidden,
		domain.RoleAdmin: http.StatusOK,
	} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/users/1", nil)
		p := &Principal{Identity: &domain.Identity{ID: "u", Role: role}}
		h.ServeHTTP(rr, req.WithContext(WithPrincipal(req.Context(), p)))
		assert.Equal(t, want, rr.Code, role)
	}
}

type obsRecorder struct {
	mu       sync.Mutex
	routes   []string
	statuses []int
	inflight float64
}

func (o *obsRecorder) ObserveRequest(_ string, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, route)
	o.statuses = append(o.statuses, status)
}

func (o *obsRecorder) InflightAdd(d float64) {
	o.mu.Lock()
	o.inflight += d
	o.mu.Unlock()
}

func TestWithMetrics_UsesRoutePattern(t *testing.T) {
	obs := &obsRecorder{}
	r := chi.NewRouter()
	r.Use(WithMetrics(obs))
	r.Get("/admin/users/{id}", okHandler)

	for _, p := range []string{"/admin/users/42", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, []string{"/admin/users/{id}", "unmatched"}, obs.routes)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, obs.statuses)
	assert.Zero(t, obs.inflight)
}
