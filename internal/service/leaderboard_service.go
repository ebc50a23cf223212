package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 100
)

// LeaderboardService ranks participants by lifetime earnings. Spending
// never moves a rank because ranking reads cumulative_coin, not balance.
type LeaderboardService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewLeaderboardService(userRepo repository.UserRepository, logger *zap.Logger) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{userRepo: userRepo, logger: logger}
}

func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := s.userRepo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i, entry := range entries {
		entry.Rank = i + 1
	}
	return entries, nil
}
