package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/metrics"
	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

// CreditMeta carries optional ledger context for a credit: the sending user
// for gifts and the code for redemptions.
type CreditMeta struct {
	SenderUserID  *uuid.UUID
	RelatedCodeID *int64
}

// Adjustment is one entry of an admin batch adjustment. Positive amounts
// credit, negative amounts debit.
type Adjustment struct {
	UserID uuid.UUID `json:"user_id"`
	Amount int64     `json:"amount"`
}

// WalletService owns every balance mutation. Each operation commits the
// balance change and its ledger row as one transaction; a balance change
// without a ledger row (or the reverse) must be impossible.
type WalletService struct {
	pool       *pgxpool.Pool
	walletRepo repository.WalletRepository
	txRepo     repository.TransactionRepository
	logger     *zap.Logger
}

func NewWalletService(
	pool *pgxpool.Pool,
	walletRepo repository.WalletRepository,
	txRepo repository.TransactionRepository,
	logger *zap.Logger,
) *WalletService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WalletService{
		pool:       pool,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		logger:     logger,
	}
}

func (s *WalletService) Credit(
	ctx context.Context,
	userID uuid.UUID,
	amount int64,
	txType model.TransactionType,
	meta CreditMeta,
) (*model.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.creditInTx(ctx, tx, userID, amount, txType, meta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.AddCoinsMoved(string(txType), metrics.DirectionIn, amount)
	return wallet, nil
}

func (s *WalletService) Debit(
	ctx context.Context,
	userID uuid.UUID,
	amount int64,
	txType model.TransactionType,
) (*model.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.debitInTx(ctx, tx, userID, amount, txType)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.AddCoinsMoved(string(txType), metrics.DirectionOut, amount)
	return wallet, nil
}

// Transfer debits the sender and credits the recipient as one atomic unit
// with a single ledger row. If either side fails, neither is applied.
func (s *WalletService) Transfer(
	ctx context.Context,
	senderID, recipientID uuid.UUID,
	amount int64,
	txType model.TransactionType,
) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ok, err := s.walletRepo.DebitTx(ctx, tx, senderID, amount)
	if err != nil {
		return s.mapWalletError(ctx, tx, senderID, err)
	}
	if !ok {
		return ErrInsufficientFunds
	}

	if err := s.walletRepo.CreditTx(ctx, tx, recipientID, amount, true); err != nil {
		return s.mapWalletError(ctx, tx, recipientID, err)
	}

	if err := s.txRepo.CreateTx(ctx, tx, &model.Transaction{
		SenderUserID:    &senderID,
		RecipientUserID: &recipientID,
		Type:            txType,
		CoinAmount:      amount,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	metrics.AddCoinsMoved(string(txType), metrics.DirectionIn, amount)
	metrics.AddCoinsMoved(string(txType), metrics.DirectionOut, amount)
	return nil
}

// BulkAdjust applies a batch of admin credits/debits as one transaction;
// any missing user or short balance rolls back the whole batch.
func (s *WalletService) BulkAdjust(ctx context.Context, adjustments []Adjustment, adjustCumulative bool) error {
	if len(adjustments) == 0 {
		return nil
	}
	for _, adj := range adjustments {
		if adj.Amount == 0 {
			return ErrInvalidAmount
		}
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, adj := range adjustments {
		userID := adj.UserID
		if adj.Amount > 0 {
			if err := s.walletRepo.CreditTx(ctx, tx, userID, adj.Amount, adjustCumulative); err != nil {
				return s.mapWalletError(ctx, tx, userID, err)
			}
			if err := s.txRepo.CreateTx(ctx, tx, &model.Transaction{
				RecipientUserID: &userID,
				Type:            model.TransactionAdminAdjustment,
				CoinAmount:      adj.Amount,
			}); err != nil {
				return err
			}
			continue
		}

		ok, err := s.walletRepo.DebitTx(ctx, tx, userID, -adj.Amount)
		if err != nil {
			return s.mapWalletError(ctx, tx, userID, err)
		}
		if !ok {
			return ErrInsufficientFunds
		}
		if err := s.txRepo.CreateTx(ctx, tx, &model.Transaction{
			SenderUserID: &userID,
			Type:         model.TransactionAdminAdjustment,
			CoinAmount:   -adj.Amount,
		}); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	wallet, err := s.walletRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, s.integrityCheck(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *WalletService) creditInTx(
	ctx context.Context,
	tx pgx.Tx,
	userID uuid.UUID,
	amount int64,
	txType model.TransactionType,
	meta CreditMeta,
) (*model.Wallet, error) {
	if err := s.walletRepo.CreditTx(ctx, tx, userID, amount, true); err != nil {
		return nil, s.mapWalletError(ctx, tx, userID, err)
	}

	if err := s.txRepo.CreateTx(ctx, tx, &model.Transaction{
		SenderUserID:    meta.SenderUserID,
		RecipientUserID: &userID,
		Type:            txType,
		CoinAmount:      amount,
		RelatedCodeID:   meta.RelatedCodeID,
	}); err != nil {
		return nil, err
	}

	return s.walletRepo.FindByUserIDTx(ctx, tx, userID)
}

func (s *WalletService) debitInTx(
	ctx context.Context,
	tx pgx.Tx,
	userID uuid.UUID,
	amount int64,
	txType model.TransactionType,
) (*model.Wallet, error) {
	ok, err := s.walletRepo.DebitTx(ctx, tx, userID, amount)
	if err != nil {
		return nil, s.mapWalletError(ctx, tx, userID, err)
	}
	if !ok {
		return nil, ErrInsufficientFunds
	}

	if err := s.txRepo.CreateTx(ctx, tx, &model.Transaction{
		SenderUserID: &userID,
		Type:         txType,
		CoinAmount:   amount,
	}); err != nil {
		return nil, err
	}

	return s.walletRepo.FindByUserIDTx(ctx, tx, userID)
}

// mapWalletError turns a missing wallet row into ErrUserNotFound when the
// account itself is gone, or ErrWalletNotFound (and an error log) when the
// account exists but its wallet does not.
func (s *WalletService) mapWalletError(ctx context.Context, tx pgx.Tx, userID uuid.UUID, err error) error {
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	var exists bool
	if scanErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); scanErr != nil {
		return scanErr
	}
	if !exists {
		return ErrUserNotFound
	}

	s.logger.Error("account has no wallet", zap.String("user_id", userID.String()))
	return ErrWalletNotFound
}

func (s *WalletService) integrityCheck(ctx context.Context, userID uuid.UUID) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}

	s.logger.Error("account has no wallet", zap.String("user_id", userID.String()))
	return ErrWalletNotFound
}
