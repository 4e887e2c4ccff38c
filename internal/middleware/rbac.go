package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
)

// authorize builds a guard that answers 401 without claims and 403 when
// allow rejects them. It must run after RequireAuth or OptionalAuth.
func authorize(allow func(*service.Claims) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if !allow(claims) {
			response.AbortFail(c, http.StatusForbidden, response.ErrPermissionDenied)
			return
		}
		c.Next()
	}
}

// RequirePermission admits tokens carrying every listed permission.
func RequirePermission(permissions ...model.Permission) gin.HandlerFunc {
	return authorize(func(claims *service.Claims) bool {
		for _, p := range permissions {
			if !model.HasPermission(claims.Permissions, p) {
				return false
			}
		}
		return true
	})
}

// RequireAnyPermission admits tokens carrying at least one of permissions.
func RequireAnyPermission(permissions ...model.Permission) gin.HandlerFunc {
	return authorize(func(claims *service.Claims) bool {
		for _, p := range permissions {
			if model.HasPermission(claims.Permissions, p) {
				return true
			}
		}
		return false
	})
}

// RequireRole admits only the listed roles, regardless of permissions.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return authorize(func(claims *service.Claims) bool {
		for _, r := range roles {
			if claims.Role == r {
				return true
			}
		}
		return false
	})
}
