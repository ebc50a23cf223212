package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/metrics"
	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

var (
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrSelfGift          = errors.New("cannot send a gift to yourself")
	ErrQuotaExceeded     = errors.New("hourly gift quota exceeded")
)

const giftQuotaWindow = time.Hour

// RecipientVerification is the optional challenge: the sender supplies the
// recipient's profile fields and every field must match.
type RecipientVerification struct {
	Nickname  string `json:"nickname"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

type SendGiftInput struct {
	RecipientUsername string
	// Amount overrides the platform default gift value when set.
	Amount       *int64
	Verification *RecipientVerification
}

type GiftResult struct {
	RecipientUsername  string    `json:"recipient_username"`
	CoinAmount         int64     `json:"coin_amount"`
	NewBalance         int64     `json:"new_balance"`
	GiftSendsRemaining int       `json:"gift_sends_remaining"`
	TransactionID      uuid.UUID `json:"transaction_id"`
}

// GiftService moves coins between users. The sender's wallet row is locked
// for the whole transaction so the lazy quota reset and the quota decrement
// cannot interleave across concurrent sends.
type GiftService struct {
	pool       *pgxpool.Pool
	userRepo   repository.UserRepository
	walletRepo repository.WalletRepository
	txRepo     repository.TransactionRepository
	system     *SystemService
	logger     *zap.Logger

	now func() time.Time
}

func NewGiftService(
	pool *pgxpool.Pool,
	userRepo repository.UserRepository,
	walletRepo repository.WalletRepository,
	txRepo repository.TransactionRepository,
	system *SystemService,
	logger *zap.Logger,
) *GiftService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GiftService{
		pool:       pool,
		userRepo:   userRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		system:     system,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *GiftService) Send(ctx context.Context, principal model.Principal, input SendGiftInput) (*GiftResult, error) {
	recipient, err := s.userRepo.FindByUsername(ctx, input.RecipientUsername)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.IncGiftSend("recipient_not_found")
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, err
	}

	if recipient.ID == principal.ID {
		metrics.IncGiftSend("self_gift")
		return nil, ErrSelfGift
	}

	if input.Verification != nil {
		if err := verifyRecipient(recipient, *input.Verification); err != nil {
			metrics.IncGiftSend("verification_failed")
			return nil, err
		}
	}

	amount, err := s.resolveAmount(ctx, input.Amount)
	if err != nil {
		return nil, err
	}
	quota, err := s.system.GiftHourlyQuota(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// The lock serializes all sends from this wallet; without it two
	// transactions could both observe a stale window and reset the quota
	// twice.
	senderWallet, err := s.walletRepo.LockByUserIDTx(ctx, tx, principal.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if now.Sub(senderWallet.LastGiftReset) >= giftQuotaWindow {
		if err := s.walletRepo.ResetGiftQuotaTx(ctx, tx, principal.ID, quota, now); err != nil {
			return nil, err
		}
	}

	ok, err := s.walletRepo.ConsumeGiftSendTx(ctx, tx, principal.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.IncGiftSend("quota_exceeded")
		return nil, ErrQuotaExceeded
	}

	ok, err = s.walletRepo.DebitTx(ctx, tx, principal.ID, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.IncGiftSend("insufficient_funds")
		return nil, ErrInsufficientFunds
	}

	if err := s.walletRepo.CreditTx(ctx, tx, recipient.ID, amount, true); err != nil {
		return nil, err
	}

	txn := &model.Transaction{
		SenderUserID:    &principal.ID,
		RecipientUserID: &recipient.ID,
		Type:            model.TransactionGift,
		CoinAmount:      amount,
	}
	if err := s.txRepo.CreateTx(ctx, tx, txn); err != nil {
		return nil, err
	}

	senderWallet, err = s.walletRepo.FindByUserIDTx(ctx, tx, principal.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncGiftSend("ok")
	metrics.AddCoinsMoved(string(model.TransactionGift), metrics.DirectionOut, amount)

	s.logger.Info("gift sent",
		zap.String("sender", principal.Username),
		zap.String("recipient", recipient.Username),
		zap.Int64("coin_amount", amount),
	)

	return &GiftResult{
		RecipientUsername:  recipient.Username,
		CoinAmount:         amount,
		NewBalance:         senderWallet.CoinBalance,
		GiftSendsRemaining: senderWallet.GiftSendsRemaining,
		TransactionID:      txn.ID,
	}, nil
}

func (s *GiftService) resolveAmount(ctx context.Context, override *int64) (int64, error) {
	if override != nil {
		if *override <= 0 {
			return 0, ErrInvalidAmount
		}
		return *override, nil
	}
	return s.system.GiftDefaultValue(ctx)
}

// verifyRecipient compares every supplied field and reports all mismatches
// at once, so the sender gets one round of feedback instead of three.
func verifyRecipient(recipient *model.User, verification RecipientVerification) error {
	var mismatched []string
	if !fieldMatches(verification.Nickname, recipient.Nickname) {
		mismatched = append(mismatched, "nickname")
	}
	if !fieldMatches(verification.Firstname, recipient.Firstname) {
		mismatched = append(mismatched, "firstname")
	}
	if !fieldMatches(verification.Lastname, recipient.Lastname) {
		mismatched = append(mismatched, "lastname")
	}
	if len(mismatched) > 0 {
		return &VerificationError{Fields: mismatched}
	}
	return nil
}

func fieldMatches(supplied, stored string) bool {
	return strings.EqualFold(strings.TrimSpace(supplied), strings.TrimSpace(stored))
}
