package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// Create inserts the user and their wallet in one transaction; an
	// account without a wallet must never exist.
	Create(ctx context.Context, user *model.User, giftQuota int) error
	SaveOnboarding(ctx context.Context, id uuid.UUID, answers []model.OnboardingAnswer, at time.Time) error
	Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
}

type WalletRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Wallet, error)
	FindByUserIDTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Wallet, error)
	// LockByUserIDTx reads the wallet under FOR UPDATE so quota checks and
	// resets on the same wallet serialize for the rest of the transaction.
	LockByUserIDTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Wallet, error)
	// CreditTx adds amount to coin_balance (and cumulative_coin unless
	// adjustCumulative is false). Returns ErrNotFound when no wallet row
	// exists.
	CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, adjustCumulative bool) error
	// DebitTx subtracts amount from coin_balance only when the balance
	// covers it; ok reports whether the conditional update applied.
	// cumulative_coin is never touched by a debit.
	DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) (ok bool, err error)
	// ResetGiftQuotaTx re-arms the hourly gift allowance and moves the
	// rolling-window anchor to now.
	ResetGiftQuotaTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, quota int, now time.Time) error
	// ConsumeGiftSendTx decrements gift_sends_remaining when positive; ok
	// reports whether a send was available.
	ConsumeGiftSendTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (ok bool, err error)
}

type TransactionRepository interface {
	CreateTx(ctx context.Context, tx pgx.Tx, txn *model.Transaction) error
	CoinHistory(ctx context.Context, userID uuid.UUID) ([]*model.CoinHistoryEntry, error)
	GiftHistory(ctx context.Context, userID uuid.UUID) ([]*model.GiftHistoryEntry, error)
}

type CodeRepository interface {
	FindByString(ctx context.Context, codeString string) (*model.Code, error)
	ExistsByString(ctx context.Context, codeString string) (bool, error)
	Create(ctx context.Context, code *model.Code) error
	List(ctx context.Context) ([]*model.CodeWithCreator, error)
	// InsertRedemptionTx relies on the (user_id, code_id) uniqueness
	// constraint and returns ErrDuplicate when the pair already exists.
	InsertRedemptionTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, codeID int64, at time.Time) (*model.CodeRedemption, error)
}

type TicketPurchaseFilter struct {
	StartTime *time.Time
	EndTime   *time.Time
	EventName *string
}

type TicketRepository interface {
	CreateTx(ctx context.Context, tx pgx.Tx, purchase *model.TicketPurchase) error
	List(ctx context.Context, filter TicketPurchaseFilter) ([]*model.TicketPurchaseWithUser, error)
}

type SettingRepository interface {
	GetAll(ctx context.Context) ([]*model.SystemSetting, error)
	Upsert(ctx context.Context, key model.SettingKey, value, description string) (*model.SystemSetting, error)
}
