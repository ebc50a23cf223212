package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/api/middleware"
	"github.com/isd-sgcu/cucm25-backend/internal/api/response"
	"github.com/isd-sgcu/cucm25-backend/internal/service"
)

type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
	logger             *zap.Logger
}

func NewLeaderboardHandler(leaderboardService *service.LeaderboardService, logger *zap.Logger) *LeaderboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardHandler{leaderboardService: leaderboardService, logger: logger}
}

func RegisterLeaderboardRoutes(group *gin.RouterGroup, handler *LeaderboardHandler, system *service.SystemService) {
	board := group.Group("/leaderboard")
	board.Use(middleware.JWTAuth())
	board.Use(middleware.AvailabilityGate(system))

	board.GET("", handler.Top)
}

func (h *LeaderboardHandler) Top(c *gin.Context) {
	limit := parseIntOrDefault(c.Query("limit"), 0)

	entries, err := h.leaderboardService.Top(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("leaderboard request failed", zap.Error(err))
		response.Fail(c, 500, response.ErrInternal, "internal error")
		return
	}

	response.Success(c, entries)
}
