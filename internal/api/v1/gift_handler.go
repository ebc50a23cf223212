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
	"github.com/isd-sgcu/cucm25-backend/internal/service"
)

type GiftHandler struct {
	giftService        *service.GiftService
	transactionService *service.TransactionService
	logger             *zap.Logger
}

type sendGiftRequest struct {
	RecipientUsername string `json:"recipient_username" binding:"required"`
	Amount            *int64 `json:"amount"`
	Nickname          string `json:"nickname"`
	Firstname         string `json:"firstname"`
	Lastname          string `json:"lastname"`
}

func NewGiftHandler(giftService *service.GiftService, transactionService *service.TransactionService, logger *zap.Logger) *GiftHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GiftHandler{
		giftService:        giftService,
		transactionService: transactionService,
		logger:             logger,
	}
}

func RegisterGiftRoutes(group *gin.RouterGroup, handler *GiftHandler, system *service.SystemService) {
	gifts := group.Group("/gifts")
	gifts.Use(middleware.JWTAuth())
	gifts.Use(middleware.AvailabilityGate(system))

	gifts.POST("", middleware.RateLimit("user_id", 20, time.Minute), handler.Send)
	gifts.GET("/history", handler.History)
}

func (h *GiftHandler) Send(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req sendGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid request")
		return
	}

	input := service.SendGiftInput{
		RecipientUsername: strings.TrimSpace(req.RecipientUsername),
		Amount:            req.Amount,
	}
	if req.Nickname != "" || req.Firstname != "" || req.Lastname != "" {
		input.Verification = &service.RecipientVerification{
			Nickname:  req.Nickname,
			Firstname: req.Firstname,
			Lastname:  req.Lastname,
		}
	}

	result, err := h.giftService.Send(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, result)
}

func (h *GiftHandler) History(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	entries, err := h.transactionService.GiftHistory(c.Request.Context(), principal.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, entries)
}

func (h *GiftHandler) handleError(c *gin.Context, err error) {
	var verification *service.VerificationError

	switch {
	case errors.Is(err, service.ErrRecipientNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrRecipientNotFound, "recipient not found")
	case errors.Is(err, service.ErrSelfGift):
		response.Fail(c, http.StatusBadRequest, response.ErrGiftSelf, "cannot send a gift to yourself")
	case errors.As(err, &verification):
		c.JSON(http.StatusBadRequest, response.Response{
			Code:    response.ErrGiftVerification,
			Message: "recipient verification failed",
			Data:    gin.H{"mismatched_fields": verification.Fields},
		})
	case errors.Is(err, service.ErrQuotaExceeded):
		response.Fail(c, http.StatusTooManyRequests, response.ErrGiftQuotaExceeded, "hourly gift quota exceeded")
	case errors.Is(err, service.ErrInsufficientFunds):
		response.Fail(c, http.StatusConflict, response.ErrInsufficientFunds, "insufficient funds")
	case errors.Is(err, service.ErrInvalidAmount):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAmount, "amount must be greater than zero")
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrUserNotFound, "user not found")
	case errors.Is(err, service.ErrSettingsUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrSystemUnavailable, "system unavailable")
	default:
		h.logger.Error("gift request failed", zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
