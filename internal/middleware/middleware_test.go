package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/heartline/internal/config"
	"github.com/templui/heartline/internal/ctxkeys"
	"github.com/templui/heartline/internal/metrics"
	"github.com/templui/heartline/internal/service"
)

// echoUser replies with the resolved user ID.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(ctxkeys.UserID(r.Context())))
})

func TestAuthMiddleware(t *testing.T) {
	auth := service.NewAuthService("secret", time.Hour)
	token, err := auth.GenerateJWT("u1")
	require.NoError(t, err)
	h := AuthMiddleware(auth)(echoUser)

	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, "u1"},
		{"lowercase scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) }, "u1"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "auth_token", Value: token}) }, "u1"},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, ""},
		{"anonymous", func(r *http.Request) {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(echoUser)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ctxkeys.WithUserID(req.Context(), "u1"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_Window(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("ip:1"))
	assert.True(t, rl.Allow("ip:1"))
	assert.False(t, rl.Allow("ip:1"))
	assert.True(t, rl.Allow("ip:2"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("ip:1"))

	now = now.Add(3 * time.Minute)
	rl.Cleanup()
	assert.Empty(t, rl.requests)
}

func TestRateLimit_KeysByUser(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := RateLimit(rl)(echoUser)

	send := func(userID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		if userID != "" {
			req = req.WithContext(ctxkeys.WithUserID(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("u1").Code)
	assert.Equal(t, http.StatusOK, send("u2").Code)
	assert.Equal(t, http.StatusOK, send("").Code)

	rec := send("u1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusTooManyRequests, send("").Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(nil)(echoUser)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4321"
	assert.Equal(t, "192.0.2.7", getClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req))
}

func TestCSRFProtection(t *testing.T) {
	h := CSRFProtection(echoUser)
	csrf := generateCSRFToken()

	cookieRequest := func(method, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/goals", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "session"})
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: csrf})
		if header != "" {
			req.Header.Set(csrfHeader, header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, cookieRequest(http.MethodGet, "").Code)
	assert.Equal(t, http.StatusOK, cookieRequest(http.MethodPost, csrf).Code)

	rec := cookieRequest(http.MethodPost, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_csrf_token")
	assert.Equal(t, http.StatusForbidden, cookieRequest(http.MethodPatch, "wrong").Code)

	// Bearer and anonymous clients are not checked.
	req := httptest.NewRequest(http.MethodPost, "/goals", nil)
	req.Header.Set("Authorization", "Bearer token")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "session"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/goals", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRFProtection_IssuesCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "session"})
	rec := httptest.NewRecorder()
	CSRFProtection(echoUser).ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, csrfCookieName, cookies[0].Name)
	assert.False(t, cookies[0].HttpOnly)
}

func TestInstrument(t *testing.T) {
	route := "GET /goals/{id}"
	h := Instrument(route, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, route, strconv.Itoa(http.StatusNotFound))
	before := testutil.ToFloat64(counter)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/goals/abc", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(echoUser, mark("first"), mark("second"), mark("third"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxkeys.RequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("upstream id reused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "edge-42.a")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "edge-42.a", seen)
		assert.Equal(t, "edge-42.a", rec.Header().Get(RequestIDHeader))
	})

	t.Run("malformed upstream id replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "bad id\twith spaces")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.NotEqual(t, "bad id\twith spaces", seen)
		assert.Len(t, seen, 36)
	})
}

func TestConfig_Sanitized(t *testing.T) {
	cfg := &config.Config{AppName: "heartline", JWTSecret: "s3cret", S3SecretKey: "key"}

	var got *config.Config
	h := Config(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ctxkeys.Config(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.Equal(t, "heartline", got.AppName)
	assert.Empty(t, got.JWTSecret)
	assert.Empty(t, got.S3SecretKey)
}

func TestStatusRecorder(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())

	rec.WriteHeader(http.StatusCreated)
	rec.WriteHeader(http.StatusInternalServerError)
	n, err := rec.Write([]byte("hello"))
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusCreated, rec.status)
	assert.Equal(t, 5, rec.bytes)
}
