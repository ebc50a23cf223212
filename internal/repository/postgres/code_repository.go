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

type codeRepository struct {
	pool *pgxpool.Pool
}

func NewCodeRepository(pool *pgxpool.Pool) repository.CodeRepository {
	return &codeRepository{pool: pool}
}

var _ repository.CodeRepository = (*codeRepository)(nil)

const codeColumns = `
	id,
	code_string,
	target_role,
	activity_name,
	reward_coin,
	created_by_user_id,
	expires_at,
	created_at
`

func (r *codeRepository) FindByString(ctx context.Context, codeString string) (*model.Code, error) {
	query := `SELECT ` + codeColumns + ` FROM codes WHERE code_string = $1`
	code, err := scanCode(r.pool.QueryRow(ctx, query, codeString))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return code, nil
}

func (r *codeRepository) ExistsByString(ctx context.Context, codeString string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM codes WHERE code_string = $1)`, codeString).Scan(&exists)
	return exists, err
}

func (r *codeRepository) Create(ctx context.Context, code *model.Code) error {
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now().UTC()
	}

	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO codes (code_string, target_role, activity_name, reward_coin, created_by_user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		code.CodeString,
		code.TargetRole,
		code.ActivityName,
		code.RewardCoin,
		code.CreatedByUserID,
		code.ExpiresAt,
		code.CreatedAt,
	).Scan(&code.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *codeRepository) List(ctx context.Context) ([]*model.CodeWithCreator, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT c.id, c.code_string, c.target_role, c.activity_name, c.reward_coin,
		        c.created_by_user_id, c.expires_at, c.created_at,
		        u.firstname, u.lastname
		   FROM codes c
		   JOIN users u ON u.id = c.created_by_user_id
		  ORDER BY c.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*model.CodeWithCreator, 0, 32)
	for rows.Next() {
		item := &model.CodeWithCreator{}
		if err := rows.Scan(
			&item.ID,
			&item.CodeString,
			&item.TargetRole,
			&item.ActivityName,
			&item.RewardCoin,
			&item.CreatedByUserID,
			&item.ExpiresAt,
			&item.CreatedAt,
			&item.CreatorFirstname,
			&item.CreatorLastname,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *codeRepository) InsertRedemptionTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, codeID int64, at time.Time) (*model.CodeRedemption, error) {
	redemption := &model.CodeRedemption{
		UserID:     userID,
		CodeID:     codeID,
		RedeemedAt: at,
	}

	err := tx.QueryRow(
		ctx,
		`INSERT INTO code_redemptions (user_id, code_id, redeemed_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		userID,
		codeID,
		at,
	).Scan(&redemption.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return redemption, nil
}

func scanCode(src scanTarget) (*model.Code, error) {
	code := &model.Code{}
	err := src.Scan(
		&code.ID,
		&code.CodeString,
		&code.TargetRole,
		&code.ActivityName,
		&code.RewardCoin,
		&code.CreatedByUserID,
		&code.ExpiresAt,
		&code.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return code, nil
}
