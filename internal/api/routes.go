package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/isd-sgcu/cucm25-backend/internal/api/v1"
	"github.com/isd-sgcu/cucm25-backend/internal/service"
	loggerpkg "github.com/isd-sgcu/cucm25-backend/pkg/logger"
)

// Services bundles everything the HTTP layer needs.
type Services struct {
	Wallet      *service.WalletService
	Code        *service.CodeService
	Gift        *service.GiftService
	Ticket      *service.TicketService
	System      *service.SystemService
	Transaction *service.TransactionService
	Leaderboard *service.LeaderboardService
	User        *service.UserService

	// RecentLogs backs the admin log view; nil disables it.
	RecentLogs *loggerpkg.RecentLogs
}

func RegisterRoutes(group *gin.RouterGroup, services Services, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	v1.RegisterUserRoutes(group, v1.NewUserHandler(services.User, logger))
	v1.RegisterWalletRoutes(group, v1.NewWalletHandler(services.Wallet, services.Transaction, logger), services.System)
	v1.RegisterCodeRoutes(group, v1.NewCodeHandler(services.Code, logger), services.System)
	v1.RegisterGiftRoutes(group, v1.NewGiftHandler(services.Gift, services.Transaction, logger), services.System)
	v1.RegisterTicketRoutes(group, v1.NewTicketHandler(services.Ticket, logger), services.System)
	v1.RegisterLeaderboardRoutes(group, v1.NewLeaderboardHandler(services.Leaderboard, logger), services.System)
	v1.RegisterSystemRoutes(group, v1.NewSystemHandler(services.System, services.RecentLogs, logger))
}
