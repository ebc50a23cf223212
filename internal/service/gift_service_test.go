package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/repository"
)

type stubUserRepo struct {
	findByID       func(ctx context.Context, id uuid.UUID) (*model.User, error)
	findByUsername func(ctx context.Context, username string) (*model.User, error)
	create         func(ctx context.Context, user *model.User, giftQuota int) error
	saveOnboarding func(ctx context.Context, id uuid.UUID, answers []model.OnboardingAnswer, at time.Time) error
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if s.findByID == nil {
		return nil, repository.ErrNotFound
	}
	return s.findByID(ctx, id)
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findByUsername(ctx, username)
}

func (s *stubUserRepo) Create(ctx context.Context, user *model.User, giftQuota int) error {
	if s.create == nil {
		return errors.New("not implemented")
	}
	return s.create(ctx, user, giftQuota)
}

func (s *stubUserRepo) SaveOnboarding(ctx context.Context, id uuid.UUID, answers []model.OnboardingAnswer, at time.Time) error {
	if s.saveOnboarding == nil {
		return errors.New("not implemented")
	}
	return s.saveOnboarding(ctx, id, answers, at)
}

func (s *stubUserRepo) Leaderboard(context.Context, int) ([]*model.LeaderboardEntry, error) {
	return nil, nil
}

func TestVerifyRecipientReportsAllMismatches(t *testing.T) {
	t.Parallel()

	recipient := &model.User{
		Username:  "bee",
		Nickname:  "Bee",
		Firstname: "Bhumibhat",
		Lastname:  "Imsamran",
	}

	cases := []struct {
		name         string
		verification RecipientVerification
		wantFields   []string
	}{
		{
			name:         "all fields match",
			verification: RecipientVerification{Nickname: "Bee", Firstname: "Bhumibhat", Lastname: "Imsamran"},
		},
		{
			name:         "match is case and whitespace insensitive",
			verification: RecipientVerification{Nickname: "  bee ", Firstname: "BHUMIBHAT", Lastname: " imsamran"},
		},
		{
			name:         "one field wrong",
			verification: RecipientVerification{Nickname: "Bee", Firstname: "Somchai", Lastname: "Imsamran"},
			wantFields:   []string{"firstname"},
		},
		{
			name:         "every field wrong reports every field",
			verification: RecipientVerification{Nickname: "x", Firstname: "y", Lastname: "z"},
			wantFields:   []string{"nickname", "firstname", "lastname"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := verifyRecipient(recipient, tc.verification)
			if len(tc.wantFields) == 0 {
				if err != nil {
					t.Fatalf("expected match, got %v", err)
				}
				return
			}

			var verr *VerificationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected VerificationError, got %v", err)
			}
			if !reflect.DeepEqual(verr.Fields, tc.wantFields) {
				t.Fatalf("expected mismatched fields %v, got %v", tc.wantFields, verr.Fields)
			}
		})
	}
}

func TestSendRejectsUnknownRecipient(t *testing.T) {
	t.Parallel()

	s := NewGiftService(nil, &stubUserRepo{
		findByUsername: func(context.Context, string) (*model.User, error) {
			return nil, repository.ErrNotFound
		},
	}, nil, nil, nil, nil)

	principal := model.Principal{ID: uuid.New(), Username: "alice", Role: model.RoleParticipant}
	_, err := s.Send(context.Background(), principal, SendGiftInput{RecipientUsername: "ghost"})
	if !errors.Is(err, ErrRecipientNotFound) {
		t.Fatalf("expected ErrRecipientNotFound, got %v", err)
	}
}

func TestSendRejectsSelfGift(t *testing.T) {
	t.Parallel()

	self := uuid.New()
	s := NewGiftService(nil, &stubUserRepo{
		findByUsername: func(context.Context, string) (*model.User, error) {
			return &model.User{ID: self, Username: "alice"}, nil
		},
	}, nil, nil, nil, nil)

	principal := model.Principal{ID: self, Username: "alice", Role: model.RoleParticipant}
	_, err := s.Send(context.Background(), principal, SendGiftInput{RecipientUsername: "alice"})
	if !errors.Is(err, ErrSelfGift) {
		t.Fatalf("expected ErrSelfGift, got %v", err)
	}
}

func TestSendRejectsNonPositiveOverride(t *testing.T) {
	t.Parallel()

	s := NewGiftService(nil, &stubUserRepo{
		findByUsername: func(context.Context, string) (*model.User, error) {
			return &model.User{ID: uuid.New(), Username: "bob"}, nil
		},
	}, nil, nil, nil, nil)

	zero := int64(0)
	principal := model.Principal{ID: uuid.New(), Username: "alice", Role: model.RoleParticipant}
	_, err := s.Send(context.Background(), principal, SendGiftInput{
		RecipientUsername: "bob",
		Amount:            &zero,
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestSendVerificationFailureStopsBeforeAnyTransfer(t *testing.T) {
	t.Parallel()

	s := NewGiftService(nil, &stubUserRepo{
		findByUsername: func(context.Context, string) (*model.User, error) {
			return &model.User{
				ID:        uuid.New(),
				Username:  "bob",
				Nickname:  "Bob",
				Firstname: "Robert",
				Lastname:  "Builder",
			}, nil
		},
	}, nil, nil, nil, nil)

	principal := model.Principal{ID: uuid.New(), Username: "alice", Role: model.RoleParticipant}
	_, err := s.Send(context.Background(), principal, SendGiftInput{
		RecipientUsername: "bob",
		Verification:      &RecipientVerification{Nickname: "Bobby", Firstname: "Robert", Lastname: "Builder"},
	})

	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected VerificationError, got %v", err)
	}
	if !reflect.DeepEqual(verr.Fields, []string{"nickname"}) {
		t.Fatalf("expected nickname mismatch, got %v", verr.Fields)
	}
}
