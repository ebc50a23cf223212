package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/api/middleware"
	"github.com/isd-sgcu/cucm25-backend/internal/api/response"
	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/service"
)

type WalletHandler struct {
	walletService      *service.WalletService
	transactionService *service.TransactionService
	logger             *zap.Logger
}

type bulkAdjustRequest struct {
	Adjustments      []service.Adjustment `json:"adjustments" binding:"required"`
	AdjustCumulative bool                 `json:"adjust_cumulative"`
}

func NewWalletHandler(walletService *service.WalletService, transactionService *service.TransactionService, logger *zap.Logger) *WalletHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WalletHandler{
		walletService:      walletService,
		transactionService: transactionService,
		logger:             logger,
	}
}

func RegisterWalletRoutes(group *gin.RouterGroup, handler *WalletHandler, system *service.SystemService) {
	wallets := group.Group("/wallet")
	wallets.Use(middleware.JWTAuth())
	wallets.Use(middleware.AvailabilityGate(system))

	wallets.GET("/me", handler.GetMine)
	wallets.GET("/history", handler.CoinHistory)
	wallets.POST("/adjust", middleware.RequireRole(model.RoleAdmin), handler.BulkAdjust)
}

func (h *WalletHandler) GetMine(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	wallet, err := h.walletService.GetWallet(c.Request.Context(), principal.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, wallet)
}

func (h *WalletHandler) CoinHistory(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	entries, err := h.transactionService.CoinHistory(c.Request.Context(), principal.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, entries)
}

func (h *WalletHandler) BulkAdjust(c *gin.Context) {
	var req bulkAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid request")
		return
	}

	if err := h.walletService.BulkAdjust(c.Request.Context(), req.Adjustments, req.AdjustCumulative); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, gin.H{"adjusted": len(req.Adjustments)})
}

func (h *WalletHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrUserNotFound, "user not found")
	case errors.Is(err, service.ErrWalletNotFound):
		response.Fail(c, http.StatusInternalServerError, response.ErrWalletNotFound, "wallet not found")
	case errors.Is(err, service.ErrInsufficientFunds):
		response.Fail(c, http.StatusConflict, response.ErrInsufficientFunds, "insufficient funds")
	case errors.Is(err, service.ErrInvalidAmount):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAmount, "amount must be greater than zero")
	default:
		h.logger.Error("wallet request failed", zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
