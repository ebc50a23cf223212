package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

// TransactionService is the read side of the ledger. It never mutates.
type TransactionService struct {
	txRepo repository.TransactionRepository
	logger *zap.Logger
}

func NewTransactionService(txRepo repository.TransactionRepository, logger *zap.Logger) *TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionService{txRepo: txRepo, logger: logger}
}

// CoinHistory returns every ledger entry touching the user, newest first,
// with direction derived from which side of the entry the user is on.
func (s *TransactionService) CoinHistory(ctx context.Context, userID uuid.UUID) ([]*model.CoinHistoryEntry, error) {
	return s.txRepo.CoinHistory(ctx, userID)
}

// GiftHistory returns gifts sent and received with the counterpart's name.
func (s *TransactionService) GiftHistory(ctx context.Context, userID uuid.UUID) ([]*model.GiftHistoryEntry, error) {
	return s.txRepo.GiftHistory(ctx, userID)
}
