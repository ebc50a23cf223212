package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/isd-sgcu/cucm25-backend/internal/api/response"
)

// InternalTokenAuth guards operator-only endpoints (metrics scrape). An
// empty configured token disables the endpoints entirely.
func InternalTokenAuth(token string) gin.HandlerFunc {
	expected := strings.TrimSpace(token)

	return func(c *gin.Context) {
		if expected == "" {
			response.Fail(c, 404, response.ErrUnauthorized, "not found")
			c.Abort()
			return
		}

		provided := strings.TrimSpace(c.GetHeader("X-Internal-Token"))
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		c.Next()
	}
}
