package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
)

func TestAmountsMustBePositive(t *testing.T) {
	t.Parallel()

	s := NewWalletService(nil, nil, nil, nil)
	userID := uuid.New()

	for _, amount := range []int64{0, -10} {
		if _, err := s.Credit(context.Background(), userID, amount, model.TransactionAdminAdjustment, CreditMeta{}); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("credit %d: expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := s.Debit(context.Background(), userID, amount, model.TransactionAdminAdjustment); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("debit %d: expected ErrInvalidAmount, got %v", amount, err)
		}
		if err := s.Transfer(context.Background(), userID, uuid.New(), amount, model.TransactionGift); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("transfer %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestBulkAdjustValidation(t *testing.T) {
	t.Parallel()

	s := NewWalletService(nil, nil, nil, nil)

	if err := s.BulkAdjust(context.Background(), nil, true); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}

	err := s.BulkAdjust(context.Background(), []Adjustment{
		{UserID: uuid.New(), Amount: 50},
		{UserID: uuid.New(), Amount: 0},
	}, true)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero-amount entry should reject the whole batch, got %v", err)
	}
}
