package service

import (
	"context"
	crand "crypto/rand"
	"errors"
	"math/big"
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
	ErrCodeNotFound            = errors.New("code not found")
	ErrCodeExpired             = errors.New("code expired")
	ErrRoleNotEligible         = errors.New("role not eligible for this code")
	ErrAlreadyRedeemed         = errors.New("code already redeemed by this user")
	ErrCodeGenerationExhausted = errors.New("code space exhausted")
	ErrInvalidExpiry           = errors.New("expiry must be in the future")
	ErrInvalidTargetRole       = errors.New("invalid target role")
)

const (
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeDigits  = "0123456789"
	base36      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// The primary format (one letter, three digits) only has 26,000
	// combinations; generation retries on collision and warns once the
	// space starts running out before falling back to a wider format.
	codeMaxRetries    = 100
	codeWarnThreshold = 50

	fallbackCodeLength = 4

	// Retries for the window between the uniqueness probe and the insert.
	codeInsertRetries = 3
)

type CreateCodeInput struct {
	TargetRole   model.TargetRole
	ActivityName string
	RewardCoin   int64
	ExpiresAt    time.Time
}

type RedeemResult struct {
	CodeID        int64     `json:"code_id"`
	RewardCoin    int64     `json:"reward_coin"`
	NewBalance    int64     `json:"new_balance"`
	TransactionID uuid.UUID `json:"transaction_id"`
	RedeemedAt    time.Time `json:"redeemed_at"`
}

// CodeService creates redemption codes and redeems them. Redemption is
// one transaction: the redemption row insert (guarded by the per-user
// uniqueness constraint), the credit, and the ledger row all commit or
// none do.
type CodeService struct {
	pool       *pgxpool.Pool
	codeRepo   repository.CodeRepository
	walletRepo repository.WalletRepository
	txRepo     repository.TransactionRepository
	logger     *zap.Logger

	// Replaceable in tests.
	now        func() time.Time
	randIndex  func(n int) (int, error)
	codeExists func(ctx context.Context, codeString string) (bool, error)
}

func NewCodeService(
	pool *pgxpool.Pool,
	codeRepo repository.CodeRepository,
	walletRepo repository.WalletRepository,
	txRepo repository.TransactionRepository,
	logger *zap.Logger,
) *CodeService {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &CodeService{
		pool:       pool,
		codeRepo:   codeRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		logger:     logger,
		now:        time.Now,
		randIndex:  cryptoRandIndex,
	}
	s.codeExists = func(ctx context.Context, codeString string) (bool, error) {
		return codeRepo.ExistsByString(ctx, codeString)
	}
	return s
}

// CreateCode generates a unique code string and persists the code.
// Moderators may only target juniors; admins may target anyone.
func (s *CodeService) CreateCode(ctx context.Context, principal model.Principal, input CreateCodeInput) (*model.Code, error) {
	switch principal.Role {
	case model.RoleAdmin:
	case model.RoleModerator:
		if input.TargetRole != model.TargetJunior {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	if !input.TargetRole.Valid() {
		return nil, ErrInvalidTargetRole
	}
	if input.RewardCoin <= 0 {
		return nil, ErrInvalidAmount
	}
	if !input.ExpiresAt.After(s.now()) {
		return nil, ErrInvalidExpiry
	}

	for attempt := 0; attempt < codeInsertRetries; attempt++ {
		codeString, err := s.generateCodeString(ctx)
		if err != nil {
			return nil, err
		}

		code := &model.Code{
			CodeString:      codeString,
			TargetRole:      input.TargetRole,
			ActivityName:    input.ActivityName,
			RewardCoin:      input.RewardCoin,
			CreatedByUserID: principal.ID,
			ExpiresAt:       input.ExpiresAt,
		}
		err = s.codeRepo.Create(ctx, code)
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the race to another creator; draw again.
			metrics.IncCodeGenerationRetry()
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("code created",
			zap.String("code", code.CodeString),
			zap.String("target_role", string(code.TargetRole)),
			zap.Int64("reward_coin", code.RewardCoin),
			zap.String("created_by", principal.Username),
		)
		return code, nil
	}

	return nil, ErrCodeGenerationExhausted
}

// Redeem grants the code's reward to the principal exactly once. The
// uniqueness constraint on (user, code) is the final arbiter under
// concurrency; everything before it is a fast pre-check.
func (s *CodeService) Redeem(ctx context.Context, principal model.Principal, codeString string) (*RedeemResult, error) {
	code, err := s.codeRepo.FindByString(ctx, codeString)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.IncRedemption("not_found")
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !code.ExpiresAt.After(now) {
		metrics.IncRedemption("expired")
		return nil, ErrCodeExpired
	}
	if !code.TargetRole.Matches(principal.Role.Bucket()) {
		metrics.IncRedemption("ineligible")
		return nil, ErrRoleNotEligible
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	redemption, err := s.codeRepo.InsertRedemptionTx(ctx, tx, principal.ID, code.ID, now)
	if errors.Is(err, repository.ErrDuplicate) {
		metrics.IncRedemption("already_redeemed")
		return nil, ErrAlreadyRedeemed
	}
	if err != nil {
		return nil, err
	}

	if err := s.walletRepo.CreditTx(ctx, tx, principal.ID, code.RewardCoin, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	txn := &model.Transaction{
		RecipientUserID: &principal.ID,
		Type:            model.TransactionCodeRedemption,
		CoinAmount:      code.RewardCoin,
		RelatedCodeID:   &code.ID,
	}
	if err := s.txRepo.CreateTx(ctx, tx, txn); err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.FindByUserIDTx(ctx, tx, principal.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncRedemption("ok")
	metrics.AddCoinsMoved(string(model.TransactionCodeRedemption), metrics.DirectionIn, code.RewardCoin)

	return &RedeemResult{
		CodeID:        code.ID,
		RewardCoin:    code.RewardCoin,
		NewBalance:    wallet.CoinBalance,
		TransactionID: txn.ID,
		RedeemedAt:    redemption.RedeemedAt,
	}, nil
}

// ListCodes is staff tooling: every code with its creator's name.
func (s *CodeService) ListCodes(ctx context.Context, principal model.Principal) ([]*model.CodeWithCreator, error) {
	if principal.Role != model.RoleAdmin && principal.Role != model.RoleModerator {
		return nil, ErrForbidden
	}
	return s.codeRepo.List(ctx)
}

func (s *CodeService) generateCodeString(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= codeMaxRetries; attempt++ {
		codeString, err := s.randomPrimaryCode()
		if err != nil {
			return "", err
		}

		exists, err := s.codeExists(ctx, codeString)
		if err != nil {
			return "", err
		}
		if !exists {
			return codeString, nil
		}

		metrics.IncCodeGenerationRetry()
		if attempt == codeWarnThreshold {
			s.logger.Warn("code space congested, still colliding",
				zap.Int("attempts", attempt),
			)
		}
	}

	fallback, err := s.randomBase36(fallbackCodeLength)
	if err != nil {
		return "", err
	}
	exists, err := s.codeExists(ctx, fallback)
	if err != nil {
		return "", err
	}
	if exists {
		s.logger.Error("fallback code collided, giving up",
			zap.Int("primary_attempts", codeMaxRetries),
		)
		return "", ErrCodeGenerationExhausted
	}

	s.logger.Warn("primary code space exhausted, used fallback format",
		zap.String("code", fallback),
	)
	return fallback, nil
}

// randomPrimaryCode draws one letter followed by three digits.
func (s *CodeService) randomPrimaryCode() (string, error) {
	buf := make([]byte, 4)

	idx, err := s.randIndex(len(codeLetters))
	if err != nil {
		return "", err
	}
	buf[0] = codeLetters[idx]

	for i := 1; i < 4; i++ {
		idx, err := s.randIndex(len(codeDigits))
		if err != nil {
			return "", err
		}
		buf[i] = codeDigits[idx]
	}
	return string(buf), nil
}

func (s *CodeService) randomBase36(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		idx, err := s.randIndex(len(base36))
		if err != nil {
			return "", err
		}
		buf[i] = base36[idx]
	}
	return string(buf), nil
}

func cryptoRandIndex(n int) (int, error) {
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
