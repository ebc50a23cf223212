package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

var (
	ErrUsernameTaken    = errors.New("username already taken")
	ErrAlreadyOnboarded = errors.New("user already onboarded")
	ErrNoAnswers        = errors.New("onboarding answers missing")
)

type RegisterInput struct {
	// UserID carries the identity provider's subject so tokens keep
	// resolving to the same row. Zero means generate one.
	UserID         uuid.UUID
	StudentID      *string
	Username       string
	Nickname       string
	Firstname      string
	Lastname       string
	Role           model.Role
	School         *string
	EducationLevel *string
}

// UserService covers account lifecycle: registration (account + wallet as
// one unit), onboarding, and profile lookup.
type UserService struct {
	userRepo repository.UserRepository
	system   *SystemService
	logger   *zap.Logger

	now func() time.Time
}

func NewUserService(userRepo repository.UserRepository, system *SystemService, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo: userRepo,
		system:   system,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if input.Username == "" {
		return nil, ErrInvalidInput
	}
	if !input.Role.Valid() {
		input.Role = model.RoleParticipant
	}

	quota, err := s.system.GiftHourlyQuota(ctx)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:             input.UserID,
		StudentID:      input.StudentID,
		Username:       input.Username,
		Nickname:       input.Nickname,
		Firstname:      input.Firstname,
		Lastname:       input.Lastname,
		Role:           input.Role,
		School:         input.School,
		EducationLevel: input.EducationLevel,
	}
	if err := s.userRepo.Create(ctx, user, quota); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// Onboard stores the user's questionnaire answers and stamps terms
// acceptance. It runs at most once per user.
func (s *UserService) Onboard(ctx context.Context, principal model.Principal, answers []model.OnboardingAnswer) error {
	if len(answers) == 0 {
		return ErrNoAnswers
	}

	user, err := s.userRepo.FindByID(ctx, principal.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if user.TermsAcceptedAt != nil {
		return ErrAlreadyOnboarded
	}

	return s.userRepo.SaveOnboarding(ctx, principal.ID, answers, s.now().UTC())
}

func (s *UserService) GetMe(ctx context.Context, principal model.Principal) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, principal.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
