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

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

var _ repository.UserRepository = (*userRepository)(nil)

const userColumns = `
	id,
	student_id,
	username,
	nickname,
	firstname,
	lastname,
	password_hash,
	role,
	school,
	education_level,
	terms_accepted_at,
	created_at,
	updated_at
`

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User, giftQuota int) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(
		ctx,
		`INSERT INTO users (
			id, student_id, username, nickname, firstname, lastname,
			password_hash, role, school, education_level, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID,
		user.StudentID,
		user.Username,
		user.Nickname,
		user.Firstname,
		user.Lastname,
		user.PasswordHash,
		user.Role,
		user.School,
		user.EducationLevel,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	// Wallet rides in the same transaction: an account without a wallet is
	// an integrity violation everywhere else in the system.
	_, err = tx.Exec(
		ctx,
		`INSERT INTO wallets (user_id, coin_balance, cumulative_coin, gift_sends_remaining, last_gift_reset, created_at, updated_at)
		 VALUES ($1, 0, 0, $2, $3, $3, $3)`,
		user.ID,
		giftQuota,
		now,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *userRepository) SaveOnboarding(ctx context.Context, id uuid.UUID, answers []model.OnboardingAnswer, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, answer := range answers {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO user_answers (user_id, question_id, answer, answered_at)
			 VALUES ($1, $2, $3, $4)`,
			id,
			answer.QuestionID,
			answer.Answer,
			at,
		); err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicate
			}
			return err
		}
	}

	tag, err := tx.Exec(
		ctx,
		`UPDATE users SET terms_accepted_at = $2, updated_at = $2 WHERE id = $1`,
		id,
		at,
	)
	if err != nil {
		return err
	}
	if err := ensureAffected(tag); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *userRepository) Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT u.id, u.username, u.nickname, w.cumulative_coin
		   FROM users u
		   JOIN wallets w ON w.user_id = u.id
		  WHERE u.role = $1
		  ORDER BY w.cumulative_coin DESC, u.username ASC
		  LIMIT $2`,
		model.RoleParticipant,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*model.LeaderboardEntry, 0, limit)
	for rows.Next() {
		entry := &model.LeaderboardEntry{}
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.Nickname, &entry.CumulativeCoin); err != nil {
			return nil, err
		}
		entry.Rank = len(entries) + 1
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func scanUser(src scanTarget) (*model.User, error) {
	user := &model.User{}
	err := src.Scan(
		&user.ID,
		&user.StudentID,
		&user.Username,
		&user.Nickname,
		&user.Firstname,
		&user.Lastname,
		&user.PasswordHash,
		&user.Role,
		&user.School,
		&user.EducationLevel,
		&user.TermsAcceptedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
