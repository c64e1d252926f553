package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sokrates1989/dbsnap/internal/api/dto"
)

// LockChecker reports the currently held maintenance operation, if any.
type LockChecker interface {
	Check() (string, bool)
}

// Paths that must keep working while a restore runs: health checks, auth,
// lock management and the backup endpoints themselves (they coordinate
// through the lock on their own).
var writeLockExemptPrefixes = []string{
	"/health",
	"/auth/",
	"/database/",
	"/backup/",
}

// WriteLockMiddleware rejects mutating requests with 503 while a restore
// holds the global lock, so application writes cannot interleave with the
// replay. Reads always pass.
func WriteLockMiddleware(lock LockChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		for _, prefix := range writeLockExemptPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		if op, held := lock.Check(); held && op == "restore" {
			c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Error:   "Service Unavailable",
				Message: "Database restore in progress. Write operations are temporarily disabled.",
				Code:    http.StatusServiceUnavailable,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
