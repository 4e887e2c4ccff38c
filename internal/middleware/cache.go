package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// StaticCache marks responses as publicly cacheable for maxAge. Immutable
// objects additionally tell browsers not to revalidate on reload.
func StaticCache(maxAge time.Duration, immutable bool) gin.HandlerFunc {
	value := "public, max-age=" + strconv.Itoa(int(maxAge/time.Second))
	if immutable {
		value += ", immutable"
	}
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

// NoStore keeps credentials and personal data out of shared caches.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
