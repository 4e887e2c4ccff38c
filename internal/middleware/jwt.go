package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
)

// RequireAuth validates an access JWT from the Authorization header and
// rejects logged-out tokens and deactivated users.
func RequireAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if claims, ok := authenticate(c, authService, tokenStr); ok {
			c.Set(ContextKeyClaims, claims)
			c.Next()
		}
	}
}

// OptionalAuth attaches claims when a bearer token is sent, so public
// endpoints can show more to owners. A token that is present but invalid is
// still rejected.
func OptionalAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.Next()
			return
		}
		if claims, ok := authenticate(c, authService, tokenStr); ok {
			c.Set(ContextKeyClaims, claims)
			c.Next()
		}
	}
}

// RequireWSAuth validates an access JWT from the query param ?token=...
// Used for WebSocket upgrade requests, which cannot send headers from browsers.
func RequireWSAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			tokenStr = bearerToken(c)
		}
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if claims, ok := authenticate(c, authService, tokenStr); ok {
			c.Set(ContextKeyClaims, claims)
			c.Next()
		}
	}
}

// authenticate aborts the request and returns false when the token is unusable.
func authenticate(c *gin.Context, authService *service.AuthService, tokenStr string) (*service.Claims, bool) {
	claims, err := authService.ValidateToken(tokenStr)
	if err != nil || claims.TokenType != service.TokenTypeAccess {
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return nil, false
	}

	ctx := c.Request.Context()
	revoked, err := authService.IsRevoked(ctx, claims.ID)
	if err != nil {
		response.AbortFail(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable)
		return nil, false
	}
	if revoked {
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRevoked)
		return nil, false
	}

	disabled, err := authService.IsDisabled(ctx, claims.UserID)
	if err != nil {
		response.AbortFail(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable)
		return nil, false
	}
	if disabled {
		response.AbortFail(c, http.StatusForbidden, response.ErrAccountDisabled)
		return nil, false
	}
	return claims, true
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetActor returns the caller as a service Actor, or nil for anonymous requests.
func GetActor(c *gin.Context) *service.Actor {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	return claims.Actor()
}

// Meta captures the request details stored in the activity log.
func Meta(c *gin.Context) service.RequestMeta {
	ua := c.Request.UserAgent()
	if len(ua) > 255 {
		ua = ua[:255]
	}
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: ua}
}
