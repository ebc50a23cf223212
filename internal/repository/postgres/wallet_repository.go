package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

type walletRepository struct {
	pool *pgxpool.Pool
}

func NewWalletRepository(pool *pgxpool.Pool) repository.WalletRepository {
	return &walletRepository{pool: pool}
}

var _ repository.WalletRepository = (*walletRepository)(nil)

const walletColumns = `
	user_id,
	coin_balance,
	cumulative_coin,
	gift_sends_remaining,
	last_gift_reset,
	created_at,
	updated_at
`

func (r *walletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	wallet, err := scanWallet(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (r *walletRepository) FindByUserIDTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	wallet, err := scanWallet(tx.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (r *walletRepository) LockByUserIDTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`
	wallet, err := scanWallet(tx.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (r *walletRepository) CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, adjustCumulative bool) error {
	query := `
		UPDATE wallets
		   SET coin_balance = coin_balance + $2,
		       cumulative_coin = cumulative_coin + CASE WHEN $3 THEN $2 ELSE 0 END,
		       updated_at = NOW()
		 WHERE user_id = $1`

	tag, err := tx.Exec(ctx, query, userID, amount, adjustCumulative)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

// DebitTx is the check-then-decrement collapsed into one statement: the
// balance guard sits in the WHERE clause so concurrent debits can never
// interleave between the read and the write.
func (r *walletRepository) DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64) (bool, error) {
	tag, err := tx.Exec(
		ctx,
		`UPDATE wallets
		    SET coin_balance = coin_balance - $2,
		        updated_at = NOW()
		  WHERE user_id = $1
		    AND coin_balance >= $2`,
		userID,
		amount,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Distinguish a short balance from a missing wallet.
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallets WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *walletRepository) ResetGiftQuotaTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, quota int, now time.Time) error {
	tag, err := tx.Exec(
		ctx,
		`UPDATE wallets
		    SET gift_sends_remaining = $2,
		        last_gift_reset = $3,
		        updated_at = NOW()
		  WHERE user_id = $1`,
		userID,
		quota,
		now,
	)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *walletRepository) ConsumeGiftSendTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (bool, error) {
	tag, err := tx.Exec(
		ctx,
		`UPDATE wallets
		    SET gift_sends_remaining = gift_sends_remaining - 1,
		        updated_at = NOW()
		  WHERE user_id = $1
		    AND gift_sends_remaining > 0`,
		userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanWallet(src scanTarget) (*model.Wallet, error) {
	wallet := &model.Wallet{}
	err := src.Scan(
		&wallet.UserID,
		&wallet.CoinBalance,
		&wallet.CumulativeCoin,
		&wallet.GiftSendsRemaining,
		&wallet.LastGiftReset,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return wallet, nil
}
