package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		GinMode:        gin.TestMode,
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
		AuthRateLimit:  2,
	}

	// Handlers are never reached by these requests; registration alone
	// catches conflicting routes, which gin reports by panicking.
	var r *gin.Engine
	require.NotPanics(t, func() {
		r = SetupRouter(nil, rdb, &Handlers{}, cfg, zerolog.Nop())
	})
	return r
}

func TestSetupRouter_RegistersRoutes(t *testing.T) {
	r := newTestRouter(t)

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"POST /api/v1/auth/login",
		"GET /api/v1/courses/:id",
		"GET /api/v1/certificates/verify/:number",
		"GET /api/v1/certificates/:id",
		"POST /api/v1/webhooks/stripe",
		"POST /api/v1/webhooks/midtrans",
		"POST /api/v1/me/notifications/read-all",
		"GET /api/v1/admin/activity-logs",
		"GET /ws/v1/notifications",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestSetupRouter_ProtectedRoutesNeedToken(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{
		"/api/v1/me/enrollments",
		"/api/v1/admin/dashboard",
		"/api/v1/instructor/courses",
		"/ws/v1/notifications",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestSetupRouter_AuthRateLimited(t *testing.T) {
	r := newTestRouter(t)

	// Unauthenticated logout is rejected by RequireAuth after the limiter
	// counted it, so no handler is needed.
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}
