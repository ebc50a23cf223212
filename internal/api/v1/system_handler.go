package v1

import (
	"errors"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/api/middleware"
	"github.com/isd-sgcu/cucm25-backend/internal/api/response"
	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/service"
	loggerpkg "github.com/isd-sgcu/cucm25-backend/pkg/logger"
)

type SystemHandler struct {
	systemService *service.SystemService
	recentLogs    *loggerpkg.RecentLogs
	logger        *zap.Logger
}

type updateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

type hostStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemPercent float64 `json:"mem_percent"`
	Goroutines int     `json:"goroutines"`
}

func NewSystemHandler(systemService *service.SystemService, recentLogs *loggerpkg.RecentLogs, logger *zap.Logger) *SystemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemHandler{systemService: systemService, recentLogs: recentLogs, logger: logger}
}

func RegisterSystemRoutes(group *gin.RouterGroup, handler *SystemHandler) {
	system := group.Group("/system")
	system.Use(middleware.JWTAuth())
	system.Use(middleware.RequireRole(model.RoleAdmin))

	system.GET("/settings", handler.ListSettings)
	system.PUT("/settings/:key", handler.UpdateSetting)
	system.GET("/status", handler.Status)
	system.GET("/logs", handler.RecentLogs)
}

func (h *SystemHandler) ListSettings(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	settings, err := h.systemService.ListSettings(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, settings)
}

func (h *SystemHandler) UpdateSetting(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidRequest, "invalid request")
		return
	}

	key := model.SettingKey(strings.ToLower(strings.TrimSpace(c.Param("key"))))
	setting, err := h.systemService.UpdateSetting(c.Request.Context(), principal, key, strings.TrimSpace(req.Value))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, setting)
}

func (h *SystemHandler) Status(c *gin.Context) {
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	settings, err := h.systemService.ListSettings(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"settings": settings,
		"host":     collectHostStats(),
		"time":     time.Now().UTC(),
	})
}

// RecentLogs serves the in-memory log ring. Empty when the server was not
// started with log capture.
func (h *SystemHandler) RecentLogs(c *gin.Context) {
	entries := h.recentLogs.Query(
		c.Query("level"),
		c.Query("keyword"),
		parseIntOrDefault(c.Query("limit"), 0),
	)
	response.Success(c, entries)
}

func collectHostStats() hostStats {
	stats := hostStats{Goroutines: runtime.NumGoroutine()}

	if values, err := cpu.Percent(0, false); err == nil && len(values) > 0 {
		stats.CPUPercent = values[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemPercent = vm.UsedPercent
	}
	return stats
}

func (h *SystemHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "forbidden")
	case errors.Is(err, service.ErrUnknownSetting):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSetting, "unknown setting key")
	case errors.Is(err, service.ErrInvalidSettingValue):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSetting, "invalid setting value")
	default:
		h.logger.Error("system request failed", zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}
