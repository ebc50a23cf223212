package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
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

type TicketHandler struct {
	ticketService *service.TicketService
	logger        *zap.Logger
}

type buyTicketsRequest struct {
	EventName *string `json:"event_name"`
	Count     int     `json:"count" binding:"required"`
}

func NewTicketHandler(ticketService *service.TicketService, logger *zap.Logger) *TicketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketHandler{ticketService: ticketService, logger: logger}
}

func RegisterTicketRoutes(group *gin.RouterGroup, handler *TicketHandler, system *service.SystemService) {
	tickets := group.Group("/tickets")
	tickets.Use(middleware.JWTAuth())
	tickets.Use(middleware.AvailabilityGate(system))

	tickets.GET("/price", handler.GetPrice)
	tickets.POST("", handler.Buy)
	tickets.GET("/export", middleware.RequireRole(model.RoleAdmin), handler.Export)
}

func (h *TicketHandler) GetPrice(c *gin.Context) {
	info, err := h.ticketService.GetPrice(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, info)
}

func (h *TicketHandler) Buy(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req buyTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid request")
		return
	}

	purchase, err := h.ticketService.Buy(c.Request.Context(), principal, service.BuyTicketsInput{
		EventName: inputsanitize.TextPtr(req.EventName),
		Count:     req.Count,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, purchase)
}

// Export streams a CSV of draw entries. Accepts either start_time+end_time
// (RFC3339) or event_name, plus an optional shuffle flag.
func (h *TicketHandler) Export(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	filter := service.ExportFilter{}
	if raw := strings.TrimSpace(c.Query("start_time")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid start_time")
			return
		}
		filter.StartTime = &parsed
	}
	if raw := strings.TrimSpace(c.Query("end_time")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid end_time")
			return
		}
		filter.EndTime = &parsed
	}
	if raw := strings.TrimSpace(c.Query("event_name")); raw != "" {
		cleaned := inputsanitize.Text(raw)
		filter.EventName = &cleaned
	}
	if raw := strings.TrimSpace(c.Query("shuffle")); raw != "" {
		shuffle, err := strconv.ParseBool(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid shuffle")
			return
		}
		filter.Shuffle = shuffle
	}

	filename := fmt.Sprintf("tickets-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.ticketService.Export(c.Request.Context(), principal, filter, c.Writer); err != nil {
		h.handleError(c, err)
		return
	}
}

func (h *TicketHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "forbidden")
	case errors.Is(err, service.ErrInvalidQuantity):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuantity, "quantity must be greater than zero")
	case errors.Is(err, service.ErrInvalidExportFilter):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidFilter, "export needs a full time window or an event name")
	case errors.Is(err, service.ErrInsufficientFunds):
		response.Fail(c, http.StatusConflict, response.ErrInsufficientFunds, "insufficient funds")
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrUserNotFound, "user not found")
	case errors.Is(err, service.ErrSettingsUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrSystemUnavailable, "system unavailable")
	default:
		h.logger.Error("ticket request failed", zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
