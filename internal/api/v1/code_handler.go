package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/api/middleware"
	"github.com/isd-sgcu/cucm25-backend/internal/api/response"
	inputsanitize "github.com/isd-sgcu/cucm25-backend/internal/api/sanitize"
	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/service"
)

type CodeHandler struct {
	codeService *service.CodeService
	logger      *zap.Logger
}

type createCodeRequest struct {
	TargetRole   string `json:"target_role" binding:"required"`
	ActivityName string `json:"activity_name" binding:"required"`
	RewardCoin   int64  `json:"reward_coin" binding:"required"`
	ExpiresAt    string `json:"expires_at" binding:"required"`
}

type redeemCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

func NewCodeHandler(codeService *service.CodeService, logger *zap.Logger) *CodeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodeHandler{codeService: codeService, logger: logger}
}

func RegisterCodeRoutes(group *gin.RouterGroup, handler *CodeHandler, system *service.SystemService) {
	codes := group.Group("/codes")
	codes.Use(middleware.JWTAuth())
	codes.Use(middleware.AvailabilityGate(system))

	codes.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleModerator), handler.List)
	codes.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleModerator), handler.Create)
	codes.POST("/redeem", middleware.RateLimit("user_id", 10, time.Minute), handler.Redeem)
}

func (h *CodeHandler) Create(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req createCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid request")
		return
	}

	expiresAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ExpiresAt))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid expires_at")
		return
	}

	code, err := h.codeService.CreateCode(c.Request.Context(), principal, service.CreateCodeInput{
		TargetRole:   model.TargetRole(strings.ToLower(strings.TrimSpace(req.TargetRole))),
		ActivityName: inputsanitize.Text(req.ActivityName),
		RewardCoin:   req.RewardCoin,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, code)
}

func (h *CodeHandler) Redeem(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req redeemCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid request")
		return
	}

	result, err := h.codeService.Redeem(c.Request.Context(), principal, strings.ToUpper(strings.TrimSpace(req.Code)))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, result)
}

func (h *CodeHandler) List(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	codes, err := h.codeService.ListCodes(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, codes)
}

func (h *CodeHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "forbidden")
	case errors.Is(err, service.ErrCodeNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrCodeNotFound, "code not found")
	case errors.Is(err, service.ErrCodeExpired):
		response.Fail(c, http.StatusGone, response.ErrCodeExpired, "code expired")
	case errors.Is(err, service.ErrRoleNotEligible):
		response.Fail(c, http.StatusForbidden, response.ErrCodeRoleMismatch, "code not available for your role")
	case errors.Is(err, service.ErrAlreadyRedeemed):
		response.Fail(c, http.StatusConflict, response.ErrCodeAlreadyUsed, "code already redeemed")
	case errors.Is(err, service.ErrCodeGenerationExhausted):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrCodeSpaceExhausted, "code space exhausted")
	case errors.Is(err, service.ErrInvalidAmount):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAmount, "reward must be greater than zero")
	case errors.Is(err, service.ErrInvalidExpiry):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "expiry must be in the future")
	case errors.Is(err, service.ErrInvalidTargetRole):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid target role")
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrUserNotFound, "user not found")
	default:
		h.logger.Error("code request failed", zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
