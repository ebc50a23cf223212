package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

type transactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) repository.TransactionRepository {
	return &transactionRepository{pool: pool}
}

var _ repository.TransactionRepository = (*transactionRepository)(nil)

func (r *transactionRepository) CreateTx(ctx context.Context, tx pgx.Tx, txn *model.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	_, err := tx.Exec(
		ctx,
		`INSERT INTO transactions (id, sender_user_id, recipient_user_id, type, coin_amount, related_code_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		txn.ID,
		txn.SenderUserID,
		txn.RecipientUserID,
		txn.Type,
		txn.CoinAmount,
		txn.RelatedCodeID,
		txn.CreatedAt,
	)
	return err
}

func (r *transactionRepository) CoinHistory(ctx context.Context, userID uuid.UUID) ([]*model.CoinHistoryEntry, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, type, coin_amount, created_at,
		        CASE WHEN recipient_user_id = $1 THEN 'in' ELSE 'out' END AS direction
		   FROM transactions
		  WHERE sender_user_id = $1 OR recipient_user_id = $1
		  ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*model.CoinHistoryEntry, 0, 32)
	for rows.Next() {
		entry := &model.CoinHistoryEntry{}
		if err := rows.Scan(&entry.TransactionID, &entry.Type, &entry.CoinAmount, &entry.CreatedAt, &entry.Direction); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *transactionRepository) GiftHistory(ctx context.Context, userID uuid.UUID) ([]*model.GiftHistoryEntry, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT t.id, t.coin_amount, t.created_at,
		        CASE WHEN t.recipient_user_id = $1 THEN 'in' ELSE 'out' END AS direction,
		        u.username, u.nickname
		   FROM transactions t
		   JOIN users u
		     ON u.id = CASE WHEN t.recipient_user_id = $1 THEN t.sender_user_id ELSE t.recipient_user_id END
		  WHERE t.type = 'GIFT'
		    AND (t.sender_user_id = $1 OR t.recipient_user_id = $1)
		  ORDER BY t.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*model.GiftHistoryEntry, 0, 16)
	for rows.Next() {
		entry := &model.GiftHistoryEntry{}
		if err := rows.Scan(
			&entry.TransactionID,
			&entry.CoinAmount,
			&entry.CreatedAt,
			&entry.Direction,
			&entry.CounterpartUsername,
			&entry.CounterpartNickname,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
