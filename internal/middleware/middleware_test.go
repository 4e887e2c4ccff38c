package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type authEnv struct {
	mr   *miniredis.Miniredis
	rdb  *redis.Client
	auth *service.AuthService
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, ChallengeExpiry: 5 * time.Minute}
	auth := service.NewAuthService(cfg, rdb, nil, nil, nil, nil, zerolog.Nop())
	return &authEnv{mr: mr, rdb: rdb, auth: auth}
}

func (e *authEnv) token(t *testing.T, u *model.User) string {
	t.Helper()
	tok, err := e.auth.GenerateAccessToken(u)
	require.NoError(t, err)
	return tok
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	env := newAuthEnv(t)
	user := &model.User{ID: uuid.New(), Role: model.RoleStudent}
	tok := env.token(t, user)

	r := gin.New()
	r.GET("/me", RequireAuth(env.auth), func(c *gin.Context) {
		actor := GetActor(c)
		c.String(http.StatusOK, actor.UserID.String())
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + tok, status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + tok, status: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + tok, status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, user.ID.String(), w.Body.String())
			}
		})
	}
}

func TestRequireAuth_RevokedAndDisabled(t *testing.T) {
	env := newAuthEnv(t)
	user := &model.User{ID: uuid.New(), Role: model.RoleStudent}
	tok := env.token(t, user)

	r := gin.New()
	r.GET("/me", RequireAuth(env.auth), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		return req
	}

	claims, err := env.auth.ValidateToken(tok)
	require.NoError(t, err)

	env.mr.Set(config.CacheKey.DisabledUserKey(user.ID.String()), "1")
	w := serve(r, req())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ACCOUNT_DISABLED")
	env.mr.Del(config.CacheKey.DisabledUserKey(user.ID.String()))

	require.NoError(t, env.auth.Revoke(t.Context(), claims.ID, claims.ExpiresAt.Time))
	w = serve(r, req())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_REVOKED")

	env.mr.Close()
	w = serve(r, req())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	env := newAuthEnv(t)
	tok := env.token(t, &model.User{ID: uuid.New(), Role: model.RoleInstructor})

	r := gin.New()
	r.GET("/courses", OptionalAuth(env.auth), func(c *gin.Context) {
		if GetActor(c) == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, string(GetActor(c).Role))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/courses", nil))
	assert.Equal(t, "anonymous", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = serve(r, req)
	assert.Equal(t, "INSTRUCTOR", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/courses", nil)
	req.Header.Set("Authorization", "Bearer expired.or.bad")
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireWSAuth(t *testing.T) {
	env := newAuthEnv(t)
	tok := env.token(t, &model.User{ID: uuid.New(), Role: model.RoleStudent})

	r := gin.New()
	r.GET("/ws", RequireWSAuth(env.auth), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/ws?token="+tok, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequirePermission(t *testing.T) {
	env := newAuthEnv(t)
	student := env.token(t, &model.User{ID: uuid.New(), Role: model.RoleStudent})
	instructor := env.token(t, &model.User{ID: uuid.New(), Role: model.RoleInstructor})
	admin := env.token(t, &model.User{ID: uuid.New(), Role: model.RoleAdmin})

	r := gin.New()
	authed := r.Group("/", RequireAuth(env.auth))
	authed.POST("/courses", RequirePermission(model.PermissionCoursesWrite), func(c *gin.Context) { c.Status(http.StatusCreated) })
	authed.GET("/admin/users", RequireAnyPermission(model.PermissionUsersRead, model.PermissionUsersWrite), func(c *gin.Context) { c.Status(http.StatusOK) })
	authed.GET("/admin/system", RequireRole(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	authed.PUT("/courses/x", RequirePermission(model.PermissionCoursesWrite, model.PermissionUsersWrite), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		method, path, token string
		status              int
	}{
		{http.MethodPost, "/courses", student, http.StatusForbidden},
		{http.MethodPost, "/courses", instructor, http.StatusCreated},
		{http.MethodPost, "/courses", admin, http.StatusCreated},
		{http.MethodGet, "/admin/users", instructor, http.StatusForbidden},
		{http.MethodGet, "/admin/users", admin, http.StatusOK},
		{http.MethodGet, "/admin/system", instructor, http.StatusForbidden},
		{http.MethodGet, "/admin/system", admin, http.StatusOK},
		{http.MethodPut, "/courses/x", instructor, http.StatusForbidden},
		{http.MethodPut, "/courses/x", admin, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		req.Header.Set("Authorization", "Bearer "+tt.token)
		w := serve(r, req)
		assert.Equal(t, tt.status, w.Code, "%s %s", tt.method, tt.path)
	}

	// Without RequireAuth in front there are no claims at all.
	bare := gin.New()
	bare.GET("/x", RequirePermission(model.PermissionDashboardRead), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := serve(bare, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	rl := NewRateLimiter(rdb, "auth", 2, time.Minute, zerolog.Nop())
	fixed := time.Date(2026, 1, 1, 10, 0, 30, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}
	w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "31", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")

	// Next window starts fresh.
	rl.now = func() time.Time { return fixed.Add(time.Minute) }
	w = serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Fails open when Redis is gone.
	mr.Close()
	w = serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBrotli(t *testing.T) {
	big := bytes.Repeat([]byte("learnhub "), 500)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.Data(http.StatusOK, "text/plain", big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	w := serve(r, req)
	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, big, plain)

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/big", nil))
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Len(t, w.Body.Bytes(), len(big))

	req = httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=0")
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}

func TestBrotli_SkipsPrecompressedBodies(t *testing.T) {
	photo := bytes.Repeat([]byte{0xFF, 0xD8, 0x00}, 1000)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/uploads/photo.jpg", func(c *gin.Context) { c.Data(http.StatusOK, "image/jpeg", photo) })
	r.GET("/logo.svg", func(c *gin.Context) {
		c.Data(http.StatusOK, "image/svg+xml", bytes.Repeat([]byte("<g/>"), 500))
	})

	req := httptest.NewRequest(http.MethodGet, "/uploads/photo.jpg", nil)
	req.Header.Set("Accept-Encoding", "br")
	w := serve(r, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, photo, w.Body.Bytes())

	req = httptest.NewRequest(http.MethodGet, "/logo.svg", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = serve(r, req)
	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
}

func TestStaticCacheAndNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/uploads/x", StaticCache(time.Hour, true), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/avatars/x", StaticCache(90*time.Second, false), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/me", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/uploads/x", nil))
	assert.Equal(t, "public, max-age=3600, immutable", w.Header().Get("Cache-Control"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/avatars/x", nil))
	assert.Equal(t, "public, max-age=90", w.Header().Get("Cache-Control"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", w.Header().Get("Pragma"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	r := gin.New()
	r.Use(response.RequestIDMiddleware(), RequestLogger(log))
	r.GET("/courses/:id", func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/courses/42?draft=1", nil)
	req.Header.Set("X-Request-ID", "req-log-1")
	serve(r, req)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "req-log-1", line["request_id"])
	assert.Equal(t, "/courses/42", line["path"])
	assert.Equal(t, "draft=1", line["query"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
	assert.Equal(t, string(response.ErrNotFound), line["error_code"])
	assert.Equal(t, "http", line["component"])
}
