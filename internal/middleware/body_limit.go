package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for boundaries and the non-file form fields.
const multipartOverhead = 1 << 20

// LimitUpload caps the request body of upload routes at maxFile plus the
// multipart framing. Reads past the cap fail with *http.MaxBytesError, so an
// oversized upload is cut off before it is spooled to disk.
func LimitUpload(maxFile int64) gin.HandlerFunc {
	limit := maxFile + multipartOverhead
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
