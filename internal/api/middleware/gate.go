package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/isd-sgcu/cucm25-backend/internal/api/response"
	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/service"
)

// AvailabilityGate blocks a request when the platform is closed for the
// principal's role. Admins always pass. When the settings store cannot be
// read the gate denies: a broken store must read as closed, not open.
func AvailabilityGate(system *service.SystemService) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		if principal.Role == model.RoleAdmin {
			c.Next()
			return
		}

		enabled, err := system.LoginEnabled(c.Request.Context(), principal.Role)
		if err != nil {
			response.Fail(c, 503, response.ErrSystemUnavailable, "system unavailable")
			c.Abort()
			return
		}
		if !enabled {
			response.Fail(c, 403, response.ErrLoginDisabled, "platform closed for your role")
			c.Abort()
			return
		}

		c.Next()
	}
}
