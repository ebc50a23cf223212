package v1

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/isd-sgcu/cucm25-backend/internal/api/middleware"
	"github.com/isd-sgcu/cucm25-backend/internal/api/response"
	"github.com/isd-sgcu/cucm25-backend/internal/model"
)

func requirePrincipal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		response.Fail(c, 401, response.ErrUnauthorized, "unauthorized")
	}
	return principal, ok
}

func parseIntOrDefault(raw string, fallback int) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
